package webauthn

import (
	"crypto"
	"crypto/ecdsa"
	"crypto/ed25519"
	"crypto/elliptic"
	"crypto/rsa"
	"crypto/sha256"
	"crypto/sha512"
	"fmt"
	"math/big"

	"github.com/fxamacker/cbor/v2"
)

// Algorithm es un identificador COSE de algoritmo de firma.
//
// https://www.iana.org/assignments/cose/cose.xhtml#algorithms
type Algorithm int64

const (
	ES256 Algorithm = -7
	EdDSA Algorithm = -8
	ES384 Algorithm = -35
	ES512 Algorithm = -36
	RS256 Algorithm = -257
	RS384 Algorithm = -258
	RS512 Algorithm = -259
)

var algNames = map[Algorithm]string{
	ES256: "ES256",
	ES384: "ES384",
	ES512: "ES512",
	EdDSA: "EdDSA",
	RS256: "RS256",
	RS384: "RS384",
	RS512: "RS512",
}

func (a Algorithm) String() string {
	if s, ok := algNames[a]; ok {
		return s
	}
	return fmt.Sprintf("Algorithm(%d)", int64(a))
}

// COSE key type / curve identifiers (RFC 8152).
const (
	coseKeyTypeOKP = 1
	coseKeyTypeEC2 = 2
	coseKeyTypeRSA = 3

	coseCurveP256    = 1
	coseCurveP384    = 2
	coseCurveP521    = 3
	coseCurveEd25519 = 6
)

// coseKeyCBOR es la representación en el wire de una COSE key.
// Las claves negativas (-1..-3) cambian de significado según kty.
type coseKeyCBOR struct {
	Kty   int64           `cbor:"1,keyasint"`
	KID   []byte          `cbor:"2,keyasint,omitempty"`
	Alg   int64           `cbor:"3,keyasint,omitempty"`
	CrvON cbor.RawMessage `cbor:"-1,keyasint,omitempty"` // EC2/OKP: curve id; RSA: modulus n
	XOrE  []byte          `cbor:"-2,keyasint,omitempty"` // EC2: x; OKP: pubkey; RSA: exponent e
	Y     []byte          `cbor:"-3,keyasint,omitempty"` // EC2: y
}

// PublicKey es una COSE key decodificada a tipos de crypto estándar.
type PublicKey struct {
	KeyID     []byte
	Algorithm Algorithm
	Key       crypto.PublicKey

	// Raw preserva los bytes CBOR originales de la key.
	Raw []byte
}

// ParsePublicKey decodifica una COSE key (CBOR) a un crypto.PublicKey.
func ParsePublicKey(b []byte) (*PublicKey, error) {
	var ck coseKeyCBOR
	if err := cbor.Unmarshal(b, &ck); err != nil {
		return nil, fmt.Errorf("invalid cose key cbor: %w", err)
	}

	var pub crypto.PublicKey
	switch ck.Kty {
	case coseKeyTypeEC2:
		var crv int64
		if err := cbor.Unmarshal(ck.CrvON, &crv); err != nil {
			return nil, fmt.Errorf("ec key: missing curve: %w", err)
		}
		var curve elliptic.Curve
		switch crv {
		case coseCurveP256:
			curve = elliptic.P256()
		case coseCurveP384:
			curve = elliptic.P384()
		case coseCurveP521:
			curve = elliptic.P521()
		default:
			return nil, fmt.Errorf("unsupported ec curve: %d", crv)
		}
		if len(ck.XOrE) == 0 || len(ck.Y) == 0 {
			return nil, fmt.Errorf("ec key: missing x/y coordinates")
		}
		pub = &ecdsa.PublicKey{
			Curve: curve,
			X:     new(big.Int).SetBytes(ck.XOrE),
			Y:     new(big.Int).SetBytes(ck.Y),
		}
	case coseKeyTypeRSA:
		var n []byte
		if err := cbor.Unmarshal(ck.CrvON, &n); err != nil {
			return nil, fmt.Errorf("rsa key: missing modulus: %w", err)
		}
		if len(ck.XOrE) == 0 {
			return nil, fmt.Errorf("rsa key: missing exponent")
		}
		pub = &rsa.PublicKey{
			N: new(big.Int).SetBytes(n),
			E: int(new(big.Int).SetBytes(ck.XOrE).Int64()),
		}
	case coseKeyTypeOKP:
		var crv int64
		if err := cbor.Unmarshal(ck.CrvON, &crv); err != nil {
			return nil, fmt.Errorf("okp key: missing curve: %w", err)
		}
		if crv != coseCurveEd25519 {
			return nil, fmt.Errorf("unsupported okp curve: %d", crv)
		}
		if len(ck.XOrE) != ed25519.PublicKeySize {
			return nil, fmt.Errorf("okp key: invalid public key size %d", len(ck.XOrE))
		}
		pub = ed25519.PublicKey(ck.XOrE)
	default:
		return nil, fmt.Errorf("unsupported cose key type: %d", ck.Kty)
	}

	return &PublicKey{
		KeyID:     ck.KID,
		Algorithm: Algorithm(ck.Alg),
		Key:       pub,
		Raw:       b,
	}, nil
}

// UncompressedECPoint convierte la key a formato ANSI X9.62 sin comprimir
// (0x04 || x || y). Requerido por el signature base de fido-u2f.
func (k *PublicKey) UncompressedECPoint() ([]byte, error) {
	ec, ok := k.Key.(*ecdsa.PublicKey)
	if !ok {
		return nil, fmt.Errorf("not an ec key: %T", k.Key)
	}
	byteLen := (ec.Curve.Params().BitSize + 7) / 8
	out := make([]byte, 1+2*byteLen)
	out[0] = 0x04
	ec.X.FillBytes(out[1 : 1+byteLen])
	ec.Y.FillBytes(out[1+byteLen:])
	return out, nil
}

// VerifySignature verifica sig sobre data con la key y el algoritmo declarado.
func VerifySignature(pub crypto.PublicKey, alg Algorithm, data, sig []byte) error {
	switch alg {
	case ES256, ES384, ES512:
		ecPub, ok := pub.(*ecdsa.PublicKey)
		if !ok {
			return fmt.Errorf("invalid public key type for %s: %T", alg, pub)
		}
		digest := hashFor(alg, data)
		if !ecdsa.VerifyASN1(ecPub, digest, sig) {
			return fmt.Errorf("invalid %s signature", alg)
		}
	case EdDSA:
		edPub, ok := pub.(ed25519.PublicKey)
		if !ok {
			return fmt.Errorf("invalid public key type for EdDSA: %T", pub)
		}
		if !ed25519.Verify(edPub, data, sig) {
			return fmt.Errorf("invalid EdDSA signature")
		}
	case RS256, RS384, RS512:
		rsaPub, ok := pub.(*rsa.PublicKey)
		if !ok {
			return fmt.Errorf("invalid public key type for %s: %T", alg, pub)
		}
		digest := hashFor(alg, data)
		if err := rsa.VerifyPKCS1v15(rsaPub, cryptoHash(alg), digest, sig); err != nil {
			return fmt.Errorf("invalid %s signature: %w", alg, err)
		}
	default:
		return fmt.Errorf("unsupported signing algorithm: %d", alg)
	}
	return nil
}

func hashFor(alg Algorithm, data []byte) []byte {
	switch alg {
	case ES384, RS384:
		sum := sha512.Sum384(data)
		return sum[:]
	case ES512, RS512:
		sum := sha512.Sum512(data)
		return sum[:]
	default:
		sum := sha256.Sum256(data)
		return sum[:]
	}
}

func cryptoHash(alg Algorithm) crypto.Hash {
	switch alg {
	case RS384:
		return crypto.SHA384
	case RS512:
		return crypto.SHA512
	default:
		return crypto.SHA256
	}
}
