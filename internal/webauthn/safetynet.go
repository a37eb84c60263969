package webauthn

import (
	"crypto/sha256"
	"crypto/x509"
	"encoding/base64"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

// safetyNetAttestCN es el common name requerido del certificado leaf.
const safetyNetAttestCN = "attest.android.com"

// safetyNetMaxAgeMs es la antigüedad máxima aceptada del token (ms).
const safetyNetMaxAgeMs = 60_000

// safetyNetVerifier valida el formato android-safetynet: un JWS firmado por
// Google cuyo payload ata el nonce al authData + clientData.
//
// https://developer.android.com/training/safetynet/attestation
type safetyNetVerifier struct{}

type safetyNetStmt struct {
	Ver      string `cbor:"ver"`
	Response []byte `cbor:"response"`
}

type safetyNetClaims struct {
	Nonce                      string   `json:"nonce"`
	TimestampMs                int64    `json:"timestampMs"`
	ApkPackageName             string   `json:"apkPackageName"`
	ApkDigestSha256            string   `json:"apkDigestSha256"`
	CtsProfileMatch            bool     `json:"ctsProfileMatch"`
	BasicIntegrity             bool     `json:"basicIntegrity"`
	ApkCertificateDigestSha256 []string `json:"apkCertificateDigestSha256"`
	jwtv5.RegisteredClaims
}

func (safetyNetVerifier) Format() string { return FormatAndroidSafetyNet }

func (safetyNetVerifier) Verify(opts *VerifyOptions, clientDataJSON []byte, obj *AttestationObject, authData *AuthenticatorData) error {
	var stmt safetyNetStmt
	if err := cbor.Unmarshal(obj.AttStmt, &stmt); err != nil {
		return attErrf(FormatAndroidSafetyNet, "invalid attStmt: %v", err)
	}
	if len(stmt.Response) == 0 {
		return attErrf(FormatAndroidSafetyNet, "attStmt has no response")
	}

	// El keyfunc extrae la cadena x5c del header y firma con el leaf.
	// La cadena queda capturada para validarla después del parseo.
	var chain []*x509.Certificate
	keyfunc := func(t *jwtv5.Token) (any, error) {
		certs, err := parseJWSCertChain(t.Header)
		if err != nil {
			return nil, err
		}
		chain = certs
		return certs[0].PublicKey, nil
	}

	parser := jwtv5.NewParser(
		jwtv5.WithValidMethods([]string{"RS256", "ES256"}),
		jwtv5.WithoutClaimsValidation(),
	)
	var claims safetyNetClaims
	if _, err := parser.ParseWithClaims(string(stmt.Response), &claims, keyfunc); err != nil {
		return attErrf(FormatAndroidSafetyNet, "invalid jws response: %v", err)
	}

	// Nonce = base64(sha256(authData || sha256(clientDataJSON)))
	clientDataHash := sha256.Sum256(clientDataJSON)
	nonceInput := make([]byte, 0, len(obj.AuthData)+32)
	nonceInput = append(nonceInput, obj.AuthData...)
	nonceInput = append(nonceInput, clientDataHash[:]...)
	nonceSum := sha256.Sum256(nonceInput)
	want := base64.StdEncoding.EncodeToString(nonceSum[:])
	if claims.Nonce != want {
		return attErrf(FormatAndroidSafetyNet, "nonce mismatch")
	}

	if !claims.CtsProfileMatch {
		return attErrf(FormatAndroidSafetyNet, "ctsProfileMatch is false")
	}

	// Ventana temporal: nunca en el futuro, nunca más viejo que 60s.
	nowMs := opts.now().UnixMilli()
	if claims.TimestampMs > nowMs {
		return attErrf(FormatAndroidSafetyNet, "timestamp is in the future")
	}
	if nowMs-claims.TimestampMs > safetyNetMaxAgeMs {
		return attErrf(FormatAndroidSafetyNet, "timestamp too old: %d ms", nowMs-claims.TimestampMs)
	}

	leaf := chain[0]
	if leaf.Subject.CommonName != safetyNetAttestCN {
		return attErrf(FormatAndroidSafetyNet, "leaf certificate CN must be %q, got %q",
			safetyNetAttestCN, leaf.Subject.CommonName)
	}
	if err := validateChain(chain, opts.SafetyNetRoots, opts.now()); err != nil {
		return attErr(FormatAndroidSafetyNet, err)
	}
	return nil
}

// parseJWSCertChain extrae los certificados del header x5c de un JWS
// (base64 estándar, RFC 7515 §4.1.6).
func parseJWSCertChain(header map[string]any) ([]*x509.Certificate, error) {
	rawX5C, ok := header["x5c"].([]any)
	if !ok || len(rawX5C) == 0 {
		return nil, fmt.Errorf("jws header has no x5c")
	}
	chain := make([]*x509.Certificate, 0, len(rawX5C))
	for i, item := range rawX5C {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("x5c[%d]: not a string", i)
		}
		der, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return nil, fmt.Errorf("x5c[%d]: %w", i, err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("x5c[%d]: %w", i, err)
		}
		chain = append(chain, cert)
	}
	return chain, nil
}
