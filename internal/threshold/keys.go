package threshold

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"os"

	"go.dedis.ch/kyber/v3"
	"go.dedis.ch/kyber/v3/share"
)

// Generate creates a fresh group of n key shares tolerating t faults.
// Key generation is an external concern in production; this exists for
// development setups and tests.
func Generate(n, t int) (*Group, []*Signer, error) {
	group, err := NewGroup(nil, n, t)
	if err != nil {
		return nil, nil, err
	}
	pri := share.NewPriPoly(suite.G2(), t+1, nil, suite.RandomStream())
	group.pub = pri.Commit(suite.G2().Point().Base())

	signers := make([]*Signer, 0, n)
	for _, ps := range pri.Shares(n) {
		signers = append(signers, NewSigner(group, ps))
	}
	return group, signers, nil
}

// KeyFile is the on-disk form of one replica's share of a group key.
// Index and Private are omitted in the public (actor-side) variant.
type KeyFile struct {
	N       int      `json:"n"`
	T       int      `json:"t"`
	Commits []string `json:"commits"`
	Index   *int     `json:"index,omitempty"`
	Private string   `json:"private,omitempty"`
}

// SaveKeyFile writes a signer's share and group parameters to path.
func SaveKeyFile(path string, s *Signer) error {
	data, err := MarshalKeyFile(s)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

// MarshalKeyFile encodes a signer's share and group parameters, for
// callers that seal the key material before writing it out.
func MarshalKeyFile(s *Signer) ([]byte, error) {
	kf, err := keyFile(s.group)
	if err != nil {
		return nil, err
	}
	priv, err := s.priv.V.MarshalBinary()
	if err != nil {
		return nil, fmt.Errorf("marshal private share: %w", err)
	}
	idx := s.priv.I
	kf.Index = &idx
	kf.Private = hex.EncodeToString(priv)
	return json.MarshalIndent(kf, "", "  ")
}

// SaveGroupFile writes the public group parameters to path.
func SaveGroupFile(path string, g *Group) error {
	kf, err := keyFile(g)
	if err != nil {
		return err
	}
	return writeKeyFile(path, kf)
}

// LoadGroupFile reads group parameters, ignoring any private material.
func LoadGroupFile(path string) (*Group, error) {
	kf, err := readKeyFile(path)
	if err != nil {
		return nil, err
	}
	return kf.group()
}

// LoadKeyFile reads a replica key file including its private share.
func LoadKeyFile(path string) (*Signer, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	return UnmarshalKeyFile(data)
}

// UnmarshalKeyFile decodes a key file produced by MarshalKeyFile.
func UnmarshalKeyFile(data []byte) (*Signer, error) {
	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("decode key file: %w", err)
	}
	group, err := kf.group()
	if err != nil {
		return nil, err
	}
	if kf.Index == nil || kf.Private == "" {
		return nil, fmt.Errorf("key file holds no private share")
	}
	raw, err := hex.DecodeString(kf.Private)
	if err != nil {
		return nil, fmt.Errorf("decode private share: %w", err)
	}
	v := suite.G2().Scalar()
	if err := v.UnmarshalBinary(raw); err != nil {
		return nil, fmt.Errorf("unmarshal private share: %w", err)
	}
	return NewSigner(group, &share.PriShare{I: *kf.Index, V: v}), nil
}

func keyFile(g *Group) (*KeyFile, error) {
	_, commits := g.pub.Info()
	hexCommits := make([]string, 0, len(commits))
	for _, c := range commits {
		b, err := c.MarshalBinary()
		if err != nil {
			return nil, fmt.Errorf("marshal commitment: %w", err)
		}
		hexCommits = append(hexCommits, hex.EncodeToString(b))
	}
	return &KeyFile{N: g.n, T: g.t, Commits: hexCommits}, nil
}

func (kf *KeyFile) group() (*Group, error) {
	commits := make([]kyber.Point, 0, len(kf.Commits))
	for _, hc := range kf.Commits {
		raw, err := hex.DecodeString(hc)
		if err != nil {
			return nil, fmt.Errorf("decode commitment: %w", err)
		}
		p := suite.G2().Point()
		if err := p.UnmarshalBinary(raw); err != nil {
			return nil, fmt.Errorf("unmarshal commitment: %w", err)
		}
		commits = append(commits, p)
	}
	pub := share.NewPubPoly(suite.G2(), suite.G2().Point().Base(), commits)
	return NewGroup(pub, kf.N, kf.T)
}

func writeKeyFile(path string, kf *KeyFile) error {
	data, err := json.MarshalIndent(kf, "", "  ")
	if err != nil {
		return fmt.Errorf("encode key file: %w", err)
	}
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("write key file: %w", err)
	}
	return nil
}

func readKeyFile(path string) (*KeyFile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read key file: %w", err)
	}
	var kf KeyFile
	if err := json.Unmarshal(data, &kf); err != nil {
		return nil, fmt.Errorf("decode key file %s: %w", path, err)
	}
	return &kf, nil
}
