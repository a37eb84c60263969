package webauthn

import (
	"crypto/sha256"
	"encoding/binary"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"github.com/google/uuid"
)

// Flags son los bits de estado del authenticator data.
//
// https://www.w3.org/TR/webauthn-3/#authdata-flags
type Flags byte

// UserPresent indica que el authenticator comprobó presencia del usuario.
func (f Flags) UserPresent() bool { return byte(f)&(1<<0) != 0 }

// UserVerified indica que el authenticator verificó al usuario (PIN/biometría).
func (f Flags) UserVerified() bool { return byte(f)&(1<<2) != 0 }

// AttestedCredentialData indica que el authData incluye credential data.
func (f Flags) AttestedCredentialData() bool { return byte(f)&(1<<6) != 0 }

// Extensions indica que el authData incluye datos de extensión.
func (f Flags) Extensions() bool { return byte(f)&(1<<7) != 0 }

// AuthenticatorData es el authData decodificado de una ceremonia WebAuthn.
//
// Layout: rpIdHash (32) || flags (1) || signCount (4) ||
// [aaguid (16) || credIdLen (2) || credId || credentialPublicKey (COSE)] ||
// [extensions (CBOR)]
type AuthenticatorData struct {
	Raw       []byte
	RPIDHash  [32]byte
	Flags     Flags
	SignCount uint32

	// Attested credential data; solo presente si Flags.AttestedCredentialData().
	AAGUID       uuid.UUID
	CredentialID []byte
	PublicKey    *PublicKey

	Extensions []byte
}

// ParseAuthenticatorData decodifica authData y valida el rpIdHash contra rpID.
func ParseAuthenticatorData(rpID string, b []byte) (*AuthenticatorData, error) {
	ad := &AuthenticatorData{Raw: b}

	if len(b) < 37 {
		return nil, fmt.Errorf("authenticator data too short: %d bytes", len(b))
	}
	copy(ad.RPIDHash[:], b[:32])
	want := sha256.Sum256([]byte(rpID))
	if want != ad.RPIDHash {
		return nil, fmt.Errorf("rpId hash mismatch")
	}
	ad.Flags = Flags(b[32])
	ad.SignCount = binary.BigEndian.Uint32(b[33:37])
	rest := b[37:]

	if ad.Flags.AttestedCredentialData() {
		if len(rest) < 18 {
			return nil, fmt.Errorf("not enough bytes for attested credential data")
		}
		copy(ad.AAGUID[:], rest[:16])
		credIDLen := int(binary.BigEndian.Uint16(rest[16:18]))
		rest = rest[18:]
		if len(rest) < credIDLen {
			return nil, fmt.Errorf("not enough bytes for credential id")
		}
		ad.CredentialID = rest[:credIDLen]
		rest = rest[credIDLen:]

		// La COSE key puede ir seguida de extensiones: decodificar un solo
		// item CBOR y quedarnos con el resto.
		var raw cbor.RawMessage
		extra, err := cbor.UnmarshalFirst(rest, &raw)
		if err != nil {
			return nil, fmt.Errorf("reading credential public key: %w", err)
		}
		pk, err := ParsePublicKey(raw)
		if err != nil {
			return nil, err
		}
		ad.PublicKey = pk
		rest = extra
	}

	if ad.Flags.Extensions() {
		ad.Extensions = rest
	} else if len(rest) > 0 && ad.Flags.AttestedCredentialData() {
		return nil, fmt.Errorf("%d trailing bytes in authenticator data", len(rest))
	}
	return ad, nil
}

// zeroAAGUID es el AAGUID todo-ceros requerido por fido-u2f.
var zeroAAGUID = uuid.UUID{}
