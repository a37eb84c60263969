package webauthn

import "github.com/fxamacker/cbor/v2"

// noneVerifier acepta attestations sin statement.
// Solo es válido si attStmt está ausente o es un map vacío.
type noneVerifier struct{}

func (noneVerifier) Format() string { return FormatNone }

func (noneVerifier) Verify(_ *VerifyOptions, _ []byte, obj *AttestationObject, _ *AuthenticatorData) error {
	if len(obj.AttStmt) == 0 {
		return nil
	}
	var stmt map[string]cbor.RawMessage
	if err := cbor.Unmarshal(obj.AttStmt, &stmt); err != nil {
		return attErrf(FormatNone, "attStmt is not a cbor map: %v", err)
	}
	if len(stmt) != 0 {
		return attErrf(FormatNone, "attStmt must be empty for none format, got %d entries", len(stmt))
	}
	return nil
}
