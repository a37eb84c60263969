package webauthn

import (
	"crypto/sha256"
	"encoding/asn1"

	"github.com/fxamacker/cbor/v2"
)

// idFIDOGenCEAAGUID es la extensión opcional con el AAGUID del modelo.
var idFIDOGenCEAAGUID = asn1.ObjectIdentifier{1, 3, 6, 1, 4, 1, 45724, 1, 1, 4}

// packedVerifier valida el formato packed en sus tres variantes:
// full (x5c), ECDAA (no soportado) y self attestation.
//
// https://www.w3.org/TR/webauthn-3/#sctn-packed-attestation
type packedVerifier struct{}

type packedStmt struct {
	Alg        int64             `cbor:"alg"`
	Sig        []byte            `cbor:"sig"`
	X5C        []cbor.RawMessage `cbor:"x5c,omitempty"`
	ECDAAKeyID []byte            `cbor:"ecdaaKeyId,omitempty"`
}

func (packedVerifier) Format() string { return FormatPacked }

func (packedVerifier) Verify(opts *VerifyOptions, clientDataJSON []byte, obj *AttestationObject, authData *AuthenticatorData) error {
	var stmt packedStmt
	if err := cbor.Unmarshal(obj.AttStmt, &stmt); err != nil {
		return attErrf(FormatPacked, "invalid attStmt: %v", err)
	}
	if len(stmt.Sig) == 0 {
		return attErrf(FormatPacked, "attStmt has no signature")
	}
	if stmt.Alg == 0 {
		return attErrf(FormatPacked, "attStmt has no algorithm")
	}

	clientDataHash := sha256.Sum256(clientDataJSON)
	signed := make([]byte, 0, len(obj.AuthData)+32)
	signed = append(signed, obj.AuthData...)
	signed = append(signed, clientDataHash[:]...)

	// ECDAA: obsoleto en webauthn-2, nunca soportado acá.
	if len(stmt.ECDAAKeyID) > 0 {
		return attErrf(FormatPacked, "ecdaa attestation is not supported")
	}

	// Self attestation: firma directa con la propia credential key.
	if len(stmt.X5C) == 0 {
		if authData.PublicKey == nil {
			return attErrf(FormatPacked, "no credential public key for self attestation")
		}
		if Algorithm(stmt.Alg) != authData.PublicKey.Algorithm {
			return attErrf(FormatPacked, "alg mismatch: attStmt %d, credential %d",
				stmt.Alg, authData.PublicKey.Algorithm)
		}
		if err := VerifySignature(authData.PublicKey.Key, Algorithm(stmt.Alg), signed, stmt.Sig); err != nil {
			return attErr(FormatPacked, err)
		}
		return nil
	}

	// Full attestation: certificado de attestation + requisitos de §8.2.1.
	chain, err := parseX5C(stmt.X5C)
	if err != nil {
		return attErr(FormatPacked, err)
	}
	leaf := chain[0]

	if leaf.Version != 3 {
		return attErrf(FormatPacked, "attestation certificate must be x509 v3, got v%d", leaf.Version)
	}
	if len(leaf.Subject.Country) == 0 || !validISO3166Alpha2(leaf.Subject.Country[0]) {
		return attErrf(FormatPacked, "attestation certificate subject-C is not a valid ISO 3166 country")
	}
	if len(leaf.Subject.Organization) == 0 || leaf.Subject.Organization[0] == "" {
		return attErrf(FormatPacked, "attestation certificate subject-O is empty")
	}
	if len(leaf.Subject.OrganizationalUnit) != 1 || leaf.Subject.OrganizationalUnit[0] != "Authenticator Attestation" {
		return attErrf(FormatPacked, "attestation certificate subject-OU must be 'Authenticator Attestation'")
	}
	if leaf.Subject.CommonName == "" {
		return attErrf(FormatPacked, "attestation certificate subject-CN is empty")
	}
	if leaf.IsCA {
		return attErrf(FormatPacked, "attestation certificate must not be a CA")
	}

	// Si el cert trae la extensión id-fido-gen-ce-aaguid, su OCTET STRING
	// tiene que coincidir exactamente con el AAGUID del authData.
	for _, ext := range leaf.Extensions {
		if !ext.Id.Equal(idFIDOGenCEAAGUID) {
			continue
		}
		var raw []byte
		if _, err := asn1.Unmarshal(ext.Value, &raw); err != nil {
			return attErrf(FormatPacked, "invalid id-fido-gen-ce-aaguid extension: %v", err)
		}
		if len(raw) != 16 {
			return attErrf(FormatPacked, "id-fido-gen-ce-aaguid must be 16 bytes, got %d", len(raw))
		}
		var certAAGUID [16]byte
		copy(certAAGUID[:], raw)
		if certAAGUID != authData.AAGUID {
			return attErrf(FormatPacked, "certificate aaguid does not match authenticator data")
		}
		break
	}

	if err := validateChain(chain, opts.PackedRoots, opts.now()); err != nil {
		return attErr(FormatPacked, err)
	}
	if err := VerifySignature(leaf.PublicKey, Algorithm(stmt.Alg), signed, stmt.Sig); err != nil {
		return attErr(FormatPacked, err)
	}
	return nil
}

// iso3166Alpha2 son los códigos de país asignados (ISO 3166-1 alpha-2).
var iso3166Alpha2 = map[string]struct{}{}

func init() {
	codes := []string{
		"AD", "AE", "AF", "AG", "AI", "AL", "AM", "AO", "AQ", "AR", "AS", "AT",
		"AU", "AW", "AX", "AZ", "BA", "BB", "BD", "BE", "BF", "BG", "BH", "BI",
		"BJ", "BL", "BM", "BN", "BO", "BQ", "BR", "BS", "BT", "BV", "BW", "BY",
		"BZ", "CA", "CC", "CD", "CF", "CG", "CH", "CI", "CK", "CL", "CM", "CN",
		"CO", "CR", "CU", "CV", "CW", "CX", "CY", "CZ", "DE", "DJ", "DK", "DM",
		"DO", "DZ", "EC", "EE", "EG", "EH", "ER", "ES", "ET", "FI", "FJ", "FK",
		"FM", "FO", "FR", "GA", "GB", "GD", "GE", "GF", "GG", "GH", "GI", "GL",
		"GM", "GN", "GP", "GQ", "GR", "GS", "GT", "GU", "GW", "GY", "HK", "HM",
		"HN", "HR", "HT", "HU", "ID", "IE", "IL", "IM", "IN", "IO", "IQ", "IR",
		"IS", "IT", "JE", "JM", "JO", "JP", "KE", "KG", "KH", "KI", "KM", "KN",
		"KP", "KR", "KW", "KY", "KZ", "LA", "LB", "LC", "LI", "LK", "LR", "LS",
		"LT", "LU", "LV", "LY", "MA", "MC", "MD", "ME", "MF", "MG", "MH", "MK",
		"ML", "MM", "MN", "MO", "MP", "MQ", "MR", "MS", "MT", "MU", "MV", "MW",
		"MX", "MY", "MZ", "NA", "NC", "NE", "NF", "NG", "NI", "NL", "NO", "NP",
		"NR", "NU", "NZ", "OM", "PA", "PE", "PF", "PG", "PH", "PK", "PL", "PM",
		"PN", "PR", "PS", "PT", "PW", "PY", "QA", "RE", "RO", "RS", "RU", "RW",
		"SA", "SB", "SC", "SD", "SE", "SG", "SH", "SI", "SJ", "SK", "SL", "SM",
		"SN", "SO", "SR", "SS", "ST", "SV", "SX", "SY", "SZ", "TC", "TD", "TF",
		"TG", "TH", "TJ", "TK", "TL", "TM", "TN", "TO", "TR", "TT", "TV", "TW",
		"TZ", "UA", "UG", "UM", "US", "UY", "UZ", "VA", "VC", "VE", "VG", "VI",
		"VN", "VU", "WF", "WS", "YE", "YT", "ZA", "ZM", "ZW",
	}
	for _, c := range codes {
		iso3166Alpha2[c] = struct{}{}
	}
}

func validISO3166Alpha2(code string) bool {
	_, ok := iso3166Alpha2[code]
	return ok
}
