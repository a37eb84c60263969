package flow

// Claves de sesión del protocolo entre pasos. Los nombres son parte del
// contrato con las UIs de login/consent externas: no cambiar.
const (
	KeyStrongAuthCompleted       = "STRONG_AUTH_COMPLETED"
	KeyMFASkipped                = "MFA_SKIPPED"
	KeyWebAuthnSkipped           = "WEBAUTHN_SKIPPED"
	KeyPasswordlessAuthCompleted = "PASSWORDLESS_AUTH_COMPLETED"
	KeyEnrolledFactor            = "ENROLLED_FACTOR"
	KeyReturnURL                 = "RETURN_URL"
)

// SessionState es el estado mutable de la sesión de navegador que leen y
// escriben los pasos. Se crea al inicio de sesión y se limpia en
// logout/expiry; la persistencia la maneja la capa de sesión externa.
type SessionState struct {
	StrongAuthCompleted       bool
	MFASkipped                bool
	WebAuthnSkipped           bool
	PasswordlessAuthCompleted bool
	EnrolledFactor            string
	ReturnURL                 string
}

// ToMap serializa el estado con las claves del protocolo.
// Solo se emiten los campos con valor, como hace la capa de sesión.
func (s *SessionState) ToMap() map[string]any {
	m := map[string]any{}
	if s.StrongAuthCompleted {
		m[KeyStrongAuthCompleted] = true
	}
	if s.MFASkipped {
		m[KeyMFASkipped] = true
	}
	if s.WebAuthnSkipped {
		m[KeyWebAuthnSkipped] = true
	}
	if s.PasswordlessAuthCompleted {
		m[KeyPasswordlessAuthCompleted] = true
	}
	if s.EnrolledFactor != "" {
		m[KeyEnrolledFactor] = s.EnrolledFactor
	}
	if s.ReturnURL != "" {
		m[KeyReturnURL] = s.ReturnURL
	}
	return m
}

// SessionFromMap reconstruye el estado desde el wire format.
func SessionFromMap(m map[string]any) *SessionState {
	s := &SessionState{}
	if m == nil {
		return s
	}
	s.StrongAuthCompleted, _ = m[KeyStrongAuthCompleted].(bool)
	s.MFASkipped, _ = m[KeyMFASkipped].(bool)
	s.WebAuthnSkipped, _ = m[KeyWebAuthnSkipped].(bool)
	s.PasswordlessAuthCompleted, _ = m[KeyPasswordlessAuthCompleted].(bool)
	s.EnrolledFactor, _ = m[KeyEnrolledFactor].(string)
	s.ReturnURL, _ = m[KeyReturnURL].(string)
	return s
}
