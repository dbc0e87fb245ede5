package identity

import (
	"encoding/hex"
	"fmt"
	"os"
	"strings"
)

// SaveKeyFile writes the private scalar hex-encoded to path, readable only
// by the owner.
func (k Keypair) SaveKeyFile(path string) error {
	b, err := k.Private.MarshalBinary()
	if err != nil {
		return fmt.Errorf("marshal private key: %w", err)
	}
	if err := os.WriteFile(path, []byte(hex.EncodeToString(b)+"\n"), 0o600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// LoadKeyFile reads a key file written by SaveKeyFile and rebuilds the
// key pair, deriving the public key from the scalar.
func LoadKeyFile(path string) (Keypair, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Keypair{}, fmt.Errorf("read key file: %w", err)
	}
	b, err := hex.DecodeString(strings.TrimSpace(string(raw)))
	if err != nil {
		return Keypair{}, fmt.Errorf("decode key file: %w", err)
	}
	private := suite.Scalar()
	if err := private.UnmarshalBinary(b); err != nil {
		return Keypair{}, fmt.Errorf("unmarshal private key: %w", err)
	}
	return Keypair{
		Private: private,
		Public:  suite.Point().Mul(private, nil),
	}, nil
}
