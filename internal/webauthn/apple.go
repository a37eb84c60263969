package webauthn

import (
	"bytes"
	"crypto/sha256"
	"crypto/x509"
	"encoding/asn1"
	"fmt"

	"github.com/fxamacker/cbor/v2"
)

// idAppleNonce es la extensión del certificado leaf que transporta el nonce.
var idAppleNonce = asn1.ObjectIdentifier{1, 2, 840, 113635, 100, 8, 2}

// appleVerifier valida el formato apple (Apple Anonymous Attestation).
//
// https://www.w3.org/TR/webauthn-3/#sctn-apple-anonymous-attestation
type appleVerifier struct{}

type appleStmt struct {
	X5C []cbor.RawMessage `cbor:"x5c"`
}

func (appleVerifier) Format() string { return FormatApple }

func (appleVerifier) Verify(opts *VerifyOptions, clientDataJSON []byte, obj *AttestationObject, authData *AuthenticatorData) error {
	var stmt appleStmt
	if err := cbor.Unmarshal(obj.AttStmt, &stmt); err != nil {
		return attErrf(FormatApple, "invalid attStmt: %v", err)
	}
	if len(stmt.X5C) == 0 {
		return attErrf(FormatApple, "attStmt has no x5c")
	}
	chain, err := parseX5C(stmt.X5C)
	if err != nil {
		return attErr(FormatApple, err)
	}

	// La cadena se ancla al root de Apple configurado.
	var roots *x509.CertPool
	if opts != nil && opts.AppleRoot != nil {
		roots = x509.NewCertPool()
		roots.AddCert(opts.AppleRoot)
	}
	if err := validateChain(chain, roots, opts.now()); err != nil {
		return attErr(FormatApple, err)
	}
	leaf := chain[0]

	// nonce = sha256(authData || sha256(clientDataJSON)), embebido en la
	// extensión 1.2.840.113635.100.8.2 del leaf.
	clientDataHash := sha256.Sum256(clientDataJSON)
	nonceInput := make([]byte, 0, len(obj.AuthData)+32)
	nonceInput = append(nonceInput, obj.AuthData...)
	nonceInput = append(nonceInput, clientDataHash[:]...)
	nonce := sha256.Sum256(nonceInput)

	extNonce, err := appleNonceFromCert(leaf)
	if err != nil {
		return attErr(FormatApple, err)
	}
	if !bytes.Equal(extNonce, nonce[:]) {
		return attErrf(FormatApple, "certificate nonce does not match expected nonce")
	}

	// La public key del leaf tiene que ser exactamente la credential key.
	if authData.PublicKey == nil {
		return attErrf(FormatApple, "no credential public key")
	}
	leafDER, err := x509.MarshalPKIXPublicKey(leaf.PublicKey)
	if err != nil {
		return attErrf(FormatApple, "cannot encode leaf public key: %v", err)
	}
	credDER, err := x509.MarshalPKIXPublicKey(authData.PublicKey.Key)
	if err != nil {
		return attErrf(FormatApple, "cannot encode credential public key: %v", err)
	}
	if !bytes.Equal(leafDER, credDER) {
		return attErrf(FormatApple, "leaf public key does not match credential public key")
	}
	return nil
}

// appleNonceFromCert extrae el nonce de la extensión del certificado:
// SEQUENCE { [1] { OCTET STRING nonce } }.
func appleNonceFromCert(cert *x509.Certificate) ([]byte, error) {
	for _, ext := range cert.Extensions {
		if !ext.Id.Equal(idAppleNonce) {
			continue
		}
		var outer asn1.RawValue
		if _, err := asn1.Unmarshal(ext.Value, &outer); err != nil {
			return nil, fmt.Errorf("nonce outer parse: %w", err)
		}
		var wrapper asn1.RawValue
		if _, err := asn1.Unmarshal(outer.Bytes, &wrapper); err != nil {
			return nil, fmt.Errorf("nonce wrapper parse: %w", err)
		}
		if wrapper.Class != asn1.ClassContextSpecific {
			return nil, fmt.Errorf("unexpected nonce wrapper class %d", wrapper.Class)
		}
		var nonce []byte
		if _, err := asn1.Unmarshal(wrapper.Bytes, &nonce); err != nil {
			return nil, fmt.Errorf("nonce inner parse: %w", err)
		}
		if len(nonce) != sha256.Size {
			return nil, fmt.Errorf("nonce must be %d bytes, got %d", sha256.Size, len(nonce))
		}
		return nonce, nil
	}
	return nil, fmt.Errorf("certificate has no nonce extension")
}
