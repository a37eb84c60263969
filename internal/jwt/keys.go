package jwt

import (
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// KeySet mantiene una sola clave activa (dev). Luego metemos rotación.
type KeySet struct {
	Priv ed25519.PrivateKey
	Pub  ed25519.PublicKey
	KID  string
	Alg  string // "EdDSA"
}

// NewDevEd25519 genera una clave Ed25519 en memoria con un KID dado.
func NewDevEd25519(kid string) (*KeySet, error) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		return nil, err
	}
	return &KeySet{
		Priv: priv,
		Pub:  pub,
		KID:  kid,
		Alg:  "EdDSA",
	}, nil
}

// LoadOrCreate carga la seed Ed25519 (base64url) desde path; si no existe,
// genera una nueva y la persiste con permisos 0600.
func LoadOrCreate(path, kid string) (*KeySet, error) {
	if path == "" {
		return NewDevEd25519(kid)
	}
	b, err := os.ReadFile(filepath.Clean(path))
	switch {
	case err == nil:
		seed, derr := base64.RawURLEncoding.DecodeString(strings.TrimSpace(string(b)))
		if derr != nil {
			return nil, fmt.Errorf("jwt: decode seed %s: %w", path, derr)
		}
		if len(seed) != ed25519.SeedSize {
			return nil, fmt.Errorf("jwt: seed %s: %d bytes, se requieren %d", path, len(seed), ed25519.SeedSize)
		}
		priv := ed25519.NewKeyFromSeed(seed)
		return &KeySet{
			Priv: priv,
			Pub:  priv.Public().(ed25519.PublicKey),
			KID:  kid,
			Alg:  "EdDSA",
		}, nil
	case os.IsNotExist(err):
		ks, gerr := NewDevEd25519(kid)
		if gerr != nil {
			return nil, gerr
		}
		enc := base64.RawURLEncoding.EncodeToString(ks.Priv.Seed())
		if werr := os.WriteFile(path, []byte(enc+"\n"), 0o600); werr != nil {
			return nil, fmt.Errorf("jwt: persistir seed %s: %w", path, werr)
		}
		return ks, nil
	default:
		return nil, err
	}
}

// ----- JWKS (serialización) -----

type jwkKey struct {
	Kty string `json:"kty"` // "OKP"
	Crv string `json:"crv"` // "Ed25519"
	Kid string `json:"kid"`
	Alg string `json:"alg"` // "EdDSA"
	Use string `json:"use"` // "sig"
	X   string `json:"x"`   // base64url(pub)
}

type jwks struct {
	Keys []jwkKey `json:"keys"`
}

// JWKSJSON devuelve el JWKS (solo la pública) en JSON.
func (k *KeySet) JWKSJSON() []byte {
	j := jwks{
		Keys: []jwkKey{{
			Kty: "OKP",
			Crv: "Ed25519",
			Kid: k.KID,
			Alg: k.Alg,
			Use: "sig",
			X:   base64.RawURLEncoding.EncodeToString(k.Pub),
		}},
	}
	b, _ := json.Marshal(j)
	return b
}
