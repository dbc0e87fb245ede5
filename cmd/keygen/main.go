// Command keygen generates a replica group's threshold key shares for
// development and test deployments. It writes one key file per replica
// plus the public group file actors use to verify certificates.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/example/at2/internal/crypto"
	"github.com/example/at2/internal/threshold"
)

const keyFileAAD = "at2/replica-key/v1"

func main() {
	n := flag.Int("n", 3, "number of replicas in the group")
	t := flag.Int("t", 1, "number of tolerated faults")
	out := flag.String("out", ".", "output directory")
	seal := flag.Bool("seal", false, "seal key files with KMS_MASTER_KEY")
	flag.Parse()

	var enc *crypto.AEADEncryptor
	if *seal {
		kms, err := crypto.NewLocalKMS(os.Getenv("KMS_MASTER_KEY"))
		if err != nil {
			log.Fatalf("Failed to load KMS master key: %v", err)
		}
		enc = crypto.NewAEADEncryptor(kms)
	}

	if err := os.MkdirAll(*out, 0o755); err != nil {
		log.Fatalf("Failed to create output directory: %v", err)
	}

	group, signers, err := threshold.Generate(*n, *t)
	if err != nil {
		log.Fatalf("Failed to generate group keys: %v", err)
	}

	groupPath := filepath.Join(*out, "group.json")
	if err := threshold.SaveGroupFile(groupPath, group); err != nil {
		log.Fatalf("Failed to write group file: %v", err)
	}
	fmt.Println(groupPath)

	for _, s := range signers {
		path := filepath.Join(*out, fmt.Sprintf("replica-%d.json", s.Index()))
		if enc == nil {
			if err := threshold.SaveKeyFile(path, s); err != nil {
				log.Fatalf("Failed to write key file: %v", err)
			}
		} else {
			if err := writeSealedKeyFile(path, s, enc); err != nil {
				log.Fatalf("Failed to write sealed key file: %v", err)
			}
		}
		fmt.Println(path)
	}
}

func writeSealedKeyFile(path string, s *threshold.Signer, enc *crypto.AEADEncryptor) error {
	plain, err := threshold.MarshalKeyFile(s)
	if err != nil {
		return err
	}
	sealed, err := enc.Seal(context.Background(), plain, []byte(keyFileAAD))
	if err != nil {
		return err
	}
	data, err := json.MarshalIndent(sealed, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
