package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

// Config holds the replica daemon configuration.
type Config struct {
	Environment  string
	ListenAddr   string
	StoreBackend string
	DatabaseURL  string
	SQLitePath   string
	KeyFile      string
	KMSMasterKey string
	AuditLogPath string
	LogLevel     string

	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string

	RateLimitCapacity int
	RateLimitRefill   float64
}

// Load loads configuration from environment variables with flexible
// validation. Development setups may run on the in-memory store; deployed
// environments must not.
func Load() (*Config, error) {
	cfg := &Config{
		Environment:  os.Getenv("APP_ENV"),
		ListenAddr:   os.Getenv("LISTEN_ADDR"),
		StoreBackend: os.Getenv("STORE_BACKEND"),
		DatabaseURL:  os.Getenv("DATABASE_URL"),
		SQLitePath:   os.Getenv("SQLITE_PATH"),
		KeyFile:      os.Getenv("REPLICA_KEY_FILE"),
		KMSMasterKey: os.Getenv("KMS_MASTER_KEY"),
		AuditLogPath: os.Getenv("AUDIT_LOG_PATH"),
		LogLevel:     os.Getenv("LOG_LEVEL"),
		TLSCertFile:  os.Getenv("TLS_CERT_FILE"),
		TLSKeyFile:   os.Getenv("TLS_KEY_FILE"),
		TLSCAFile:    os.Getenv("TLS_CA_FILE"),
	}
	if v := os.Getenv("RATE_LIMIT_CAPACITY"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return nil, errors.New("RATE_LIMIT_CAPACITY must be an integer")
		}
		cfg.RateLimitCapacity = n
	}
	if v := os.Getenv("RATE_LIMIT_REFILL"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return nil, errors.New("RATE_LIMIT_REFILL must be a number")
		}
		cfg.RateLimitRefill = f
	}
	if cfg.ListenAddr == "" {
		cfg.ListenAddr = ":7450"
	}
	if cfg.StoreBackend == "" {
		cfg.StoreBackend = "memory"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var missing []string

	if c.Environment == "" {
		missing = append(missing, "APP_ENV")
	}
	if c.KeyFile == "" {
		missing = append(missing, "REPLICA_KEY_FILE")
	}
	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}

	switch c.StoreBackend {
	case "memory":
		// Committed history must survive restarts outside development.
		if c.Environment == "production" || c.Environment == "staging" {
			return errors.New("STORE_BACKEND=memory is not allowed in " + c.Environment)
		}
	case "sqlite":
		if c.SQLitePath == "" {
			return errors.New("STORE_BACKEND=sqlite requires SQLITE_PATH")
		}
	case "postgres":
		if c.DatabaseURL == "" {
			return errors.New("STORE_BACKEND=postgres requires DATABASE_URL")
		}
	default:
		return errors.New("unknown STORE_BACKEND: " + c.StoreBackend)
	}

	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}

	// Deployed replicas must not serve plaintext or lose their audit trail.
	if c.Environment == "production" || c.Environment == "staging" {
		if c.TLSCertFile == "" {
			return errors.New("TLS_CERT_FILE and TLS_KEY_FILE are required in " + c.Environment)
		}
		if c.AuditLogPath == "" {
			return errors.New("AUDIT_LOG_PATH is required in " + c.Environment)
		}
		if c.KMSMasterKey == "" {
			return errors.New("KMS_MASTER_KEY is required in " + c.Environment)
		}
	}

	return nil
}
