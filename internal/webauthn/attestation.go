// Package webauthn implementa el parsing y la verificación criptográfica de
// attestations WebAuthn (registro de credenciales passwordless).
//
// El dispatch es por el string "fmt" del attestation object; cada formato
// tiene su propio Verifier registrado. Todos los verifiers fallan cerrado:
// cualquier error de parseo, cadena o firma rechaza la credencial.
package webauthn

import (
	"crypto/x509"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// Formatos de attestation soportados.
const (
	FormatNone             = "none"
	FormatFIDOU2F          = "fido-u2f"
	FormatPacked           = "packed"
	FormatAndroidSafetyNet = "android-safetynet"
	FormatApple            = "apple"
)

// AttestationError es un fallo de verificación de attestation.
// Siempre rechaza la creación de la credencial; nunca hay confianza parcial.
type AttestationError struct {
	Format string
	Err    error
}

func (e *AttestationError) Error() string {
	return fmt.Sprintf("attestation invalid (%s): %v", e.Format, e.Err)
}

func (e *AttestationError) Unwrap() error { return e.Err }

func attErr(format string, err error) *AttestationError {
	return &AttestationError{Format: format, Err: err}
}

func attErrf(format, msg string, args ...any) *AttestationError {
	return &AttestationError{Format: format, Err: fmt.Errorf(msg, args...)}
}

// AttestationObject es el objeto CBOR enviado por el browser al completar
// una ceremonia de registro.
type AttestationObject struct {
	Fmt      string          `cbor:"fmt"`
	AttStmt  cbor.RawMessage `cbor:"attStmt"`
	AuthData []byte          `cbor:"authData"`
}

// ParseAttestationObject decodifica el attestation object CBOR.
func ParseAttestationObject(b []byte) (*AttestationObject, error) {
	var obj AttestationObject
	if err := cbor.Unmarshal(b, &obj); err != nil {
		return nil, fmt.Errorf("invalid attestation object cbor: %w", err)
	}
	if len(obj.AuthData) == 0 {
		return nil, fmt.Errorf("attestation object has no authData")
	}
	return &obj, nil
}

// VerifyOptions contiene la configuración de confianza de los verifiers.
type VerifyOptions struct {
	// SafetyNetRoots ancla la cadena x5c de android-safetynet.
	// Nil = usar los roots del sistema.
	SafetyNetRoots *x509.CertPool

	// AppleRoot es el root de Apple WebAuthn que se agrega a la cadena x5c.
	AppleRoot *x509.Certificate

	// U2FRoots ancla la cadena de fido-u2f. Nil = solo validación estructural.
	U2FRoots *x509.CertPool

	// PackedRoots ancla la cadena de packed full attestation.
	// Nil = solo se validan los requisitos del certificado leaf.
	PackedRoots *x509.CertPool

	// Now permite inyectar el reloj en tests. Nil = time.Now.
	Now func() time.Time
}

func (o *VerifyOptions) now() time.Time {
	if o != nil && o.Now != nil {
		return o.Now()
	}
	return time.Now()
}

// Verifier valida un attestation statement de un formato específico.
type Verifier interface {
	// Format retorna el identificador "fmt" que maneja este verifier.
	Format() string

	// Verify valida el statement del objeto contra el authData ya parseado.
	// Retorna *AttestationError en cualquier fallo.
	Verify(opts *VerifyOptions, clientDataJSON []byte, obj *AttestationObject, authData *AuthenticatorData) error
}

// Registry despacha attestations a su Verifier por formato.
type Registry struct {
	verifiers map[string]Verifier
	opts      *VerifyOptions
}

// NewRegistry crea un registry con los cinco formatos estándar.
func NewRegistry(opts *VerifyOptions) *Registry {
	if opts == nil {
		opts = &VerifyOptions{}
	}
	r := &Registry{verifiers: map[string]Verifier{}, opts: opts}
	r.Register(&noneVerifier{})
	r.Register(&fidoU2FVerifier{})
	r.Register(&packedVerifier{})
	r.Register(&safetyNetVerifier{})
	r.Register(&appleVerifier{})
	return r
}

// Register agrega (o reemplaza) un verifier.
func (r *Registry) Register(v Verifier) {
	r.verifiers[v.Format()] = v
}

// Verify parsea el attestation object, valida el authData contra rpID y
// despacha al verifier del formato declarado.
// Un formato desconocido es un error.
func (r *Registry) Verify(rpID string, clientDataJSON, attestationObject []byte) (*AuthenticatorData, error) {
	obj, err := ParseAttestationObject(attestationObject)
	if err != nil {
		return nil, attErr("", err)
	}
	v, ok := r.verifiers[obj.Fmt]
	if !ok {
		return nil, attErrf(obj.Fmt, "unknown attestation format %q", obj.Fmt)
	}
	authData, err := ParseAuthenticatorData(rpID, obj.AuthData)
	if err != nil {
		return nil, attErr(obj.Fmt, err)
	}
	if !authData.Flags.AttestedCredentialData() {
		return nil, attErrf(obj.Fmt, "authenticator data has no attested credential data")
	}
	if err := v.Verify(r.opts, clientDataJSON, obj, authData); err != nil {
		return nil, err
	}
	return authData, nil
}
