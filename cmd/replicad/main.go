package main

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net"
	"os"
	"os/signal"
	"syscall"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials"
	"google.golang.org/grpc/reflection"

	pb "github.com/example/at2/api/gen/transferpb"
	"github.com/example/at2/internal/config"
	"github.com/example/at2/internal/crypto"
	"github.com/example/at2/internal/logging"
	"github.com/example/at2/internal/node"
	"github.com/example/at2/internal/replica"
	"github.com/example/at2/internal/security"
	"github.com/example/at2/internal/store"
	"github.com/example/at2/internal/threshold"
	"github.com/example/at2/pkg/audit"
)

// keyFileAAD binds sealed key files to their purpose.
const keyFileAAD = "at2/replica-key/v1"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger := logging.New(cfg.LogLevel)

	signer, err := loadSigner(cfg)
	if err != nil {
		log.Fatalf("Failed to load replica key file: %v", err)
	}

	var st store.Store
	switch cfg.StoreBackend {
	case "memory":
		st = store.NewMemory()
	case "sqlite":
		s, err := store.NewSQLite(cfg.SQLitePath)
		if err != nil {
			log.Fatalf("Failed to open sqlite store: %v", err)
		}
		defer s.Close()
		st = s
	case "postgres":
		s, err := store.NewPostgres(context.Background(), cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to postgres: %v", err)
		}
		defer s.Close()
		st = s
	}

	var chain audit.Logger
	if cfg.AuditLogPath != "" {
		fl, err := audit.OpenFileLog(cfg.AuditLogPath)
		if err != nil {
			log.Fatalf("Failed to open audit log: %v", err)
		}
		defer fl.Close()
		chain = fl
	} else {
		chain = audit.NewChainLog()
	}

	rep := replica.New(signer, st, logging.Component(logger, "replica"),
		replica.WithAuditLog(chain))
	svc := node.NewTransferService(rep, logging.Component(logger, "node"))

	lis, err := net.Listen("tcp", cfg.ListenAddr)
	if err != nil {
		log.Fatalf("Failed to listen on %s: %v", cfg.ListenAddr, err)
	}

	opts := []grpc.ServerOption{
		grpc.MaxRecvMsgSize(1024 * 1024),
		grpc.MaxSendMsgSize(1024 * 1024),
	}
	interceptors := []grpc.UnaryServerInterceptor{security.UnaryCorrelationID()}
	if cfg.RateLimitCapacity > 0 {
		limiter := security.NewTokenBucket(cfg.RateLimitCapacity, cfg.RateLimitRefill)
		interceptors = append(interceptors, security.UnaryRateLimit(limiter, nil))
	}
	opts = append(opts, grpc.ChainUnaryInterceptor(interceptors...))
	if cfg.TLSCertFile != "" {
		tlsCfg, err := security.LoadServerTLSConfig(security.TLSConfig{
			CertFile:          cfg.TLSCertFile,
			KeyFile:           cfg.TLSKeyFile,
			CAFile:            cfg.TLSCAFile,
			RequireClientAuth: cfg.TLSCAFile != "",
		})
		if err != nil {
			log.Fatalf("Failed to load TLS configuration: %v", err)
		}
		opts = append(opts, grpc.Creds(credentials.NewTLS(tlsCfg)))
	}

	grpcServer := grpc.NewServer(opts...)
	pb.RegisterTransferServiceServer(grpcServer, svc)
	reflection.Register(grpcServer)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		<-ctx.Done()
		logger.Info("shutting down gRPC server")
		grpcServer.GracefulStop()
	}()

	c := make(chan os.Signal, 1)
	signal.Notify(c, os.Interrupt, syscall.SIGTERM)
	go func() {
		<-c
		cancel()
	}()

	logger.Info("replica listening",
		"addr", cfg.ListenAddr, "index", rep.Index(),
		"group_size", rep.Group().N(), "quorum", rep.Group().Quorum(),
		"store", cfg.StoreBackend, "tls", cfg.TLSCertFile != "")
	if err := grpcServer.Serve(lis); err != nil {
		log.Fatalf("Failed to serve: %v", err)
	}
}

// loadSigner reads the replica's key share, opening the sealed form when a
// KMS master key is configured.
func loadSigner(cfg *config.Config) (*threshold.Signer, error) {
	if cfg.KMSMasterKey == "" {
		return threshold.LoadKeyFile(cfg.KeyFile)
	}

	kms, err := crypto.NewLocalKMS(cfg.KMSMasterKey)
	if err != nil {
		return nil, err
	}
	raw, err := os.ReadFile(cfg.KeyFile)
	if err != nil {
		return nil, err
	}
	var sealed crypto.EncryptedData
	if err := json.Unmarshal(raw, &sealed); err != nil {
		return nil, err
	}
	if string(sealed.AdditionalData) != keyFileAAD {
		return nil, errors.New("sealed key file has the wrong purpose tag")
	}
	plain, err := crypto.NewAEADEncryptor(kms).Open(context.Background(), &sealed)
	if err != nil {
		return nil, err
	}
	return threshold.UnmarshalKeyFile(plain)
}
