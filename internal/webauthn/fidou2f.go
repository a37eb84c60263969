package webauthn

import (
	"crypto/sha256"

	"github.com/fxamacker/cbor/v2"
)

// fidoU2FVerifier valida attestations del formato legacy fido-u2f.
//
// https://www.w3.org/TR/webauthn-3/#sctn-fido-u2f-attestation
type fidoU2FVerifier struct{}

type fidoU2FStmt struct {
	Sig []byte            `cbor:"sig"`
	X5C []cbor.RawMessage `cbor:"x5c"`
}

func (fidoU2FVerifier) Format() string { return FormatFIDOU2F }

func (fidoU2FVerifier) Verify(opts *VerifyOptions, clientDataJSON []byte, obj *AttestationObject, authData *AuthenticatorData) error {
	// U2F es anterior a los AAGUID: debe venir en cero.
	if authData.AAGUID != zeroAAGUID {
		return attErrf(FormatFIDOU2F, "aaguid must be zero for u2f attestation, got %s", authData.AAGUID)
	}

	var stmt fidoU2FStmt
	if err := cbor.Unmarshal(obj.AttStmt, &stmt); err != nil {
		return attErrf(FormatFIDOU2F, "invalid attStmt: %v", err)
	}
	if len(stmt.Sig) == 0 {
		return attErrf(FormatFIDOU2F, "attStmt has no signature")
	}
	if len(stmt.X5C) == 0 {
		return attErrf(FormatFIDOU2F, "attStmt has no x5c")
	}
	chain, err := parseX5C(stmt.X5C)
	if err != nil {
		return attErr(FormatFIDOU2F, err)
	}
	if err := validateChain(chain, opts.U2FRoots, opts.now()); err != nil {
		return attErr(FormatFIDOU2F, err)
	}

	if authData.PublicKey == nil {
		return attErrf(FormatFIDOU2F, "no credential public key")
	}
	pubPoint, err := authData.PublicKey.UncompressedECPoint()
	if err != nil {
		return attErr(FormatFIDOU2F, err)
	}

	// signatureBase = 0x00 || rpIdHash || sha256(clientDataJSON) ||
	// credentialId || pubkey(ANSI X9.62 sin comprimir)
	clientDataHash := sha256.Sum256(clientDataJSON)
	base := make([]byte, 0, 1+32+32+len(authData.CredentialID)+len(pubPoint))
	base = append(base, 0x00)
	base = append(base, authData.RPIDHash[:]...)
	base = append(base, clientDataHash[:]...)
	base = append(base, authData.CredentialID...)
	base = append(base, pubPoint...)

	if err := VerifySignature(chain[0].PublicKey, ES256, base, stmt.Sig); err != nil {
		return attErr(FormatFIDOU2F, err)
	}
	return nil
}
