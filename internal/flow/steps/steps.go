// Package steps contiene los pasos estándar de la cadena de autenticación.
//
// La tabla de decisión de cada paso es parte del contrato del gateway:
// cambiarla cambia qué prueba de identidad se exige y cuándo.
package steps

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/flow"
)

// Pages son las URLs de los sub-flujos a los que redirigen los pasos.
type Pages struct {
	Login            string
	LoginIdentifier  string
	LoginCallback    string
	ResetPassword    string
	SPNEGO           string
	WebAuthnLogin    string
	WebAuthnRegister string
	MFAEnroll        string
	MFAChallenge     string
}

// ResetTokenIssuer firma el token corto del sub-flujo de reset de password.
type ResetTokenIssuer interface {
	SignResetToken(userID, clientID, requestURI string) (string, error)
}

// RememberMeParser decodifica y verifica la cookie remember-me,
// retornando el user id referenciado.
type RememberMeParser interface {
	ParseRememberMe(token string) (userID string, err error)
}

// DeviceRecognizer verifica una cookie de reconocimiento de dispositivo.
type DeviceRecognizer interface {
	VerifyDevice(ctx context.Context, cookie string) (bool, error)
}

// Deps agrupa las dependencias para construir la cadena estándar.
type Deps struct {
	Pages   Pages
	Users   repository.UserRepository
	IdPs    repository.IdentityProviderRepository
	Reset   ResetTokenIssuer
	Session RememberMeParser
	Devices DeviceRecognizer

	// RememberMeCookie / DeviceCookie son los nombres configurables.
	RememberMeCookie string
	DeviceCookie     string
}

// DefaultChain construye la cadena por defecto de la superficie de login:
// los pasos opcionales adelante, después FormLogin → WebAuthnRegister →
// MFAEnroll → MFAChallenge.
func DefaultChain(deps Deps) *flow.Chain {
	return flow.NewChain(
		&AutoLogin{},
		&ForceResetPassword{Pages: deps.Pages, Tokens: deps.Reset},
		&IdentifierFirstLogin{Pages: deps.Pages},
		&SPNEGO{Pages: deps.Pages, IdPs: deps.IdPs},
		&RememberMe{CookieName: deps.RememberMeCookie, Parser: deps.Session, Users: deps.Users},
		&WebAuthnLogin{Pages: deps.Pages, CookieName: deps.DeviceCookie, Devices: deps.Devices},
		&FormLogin{Pages: deps.Pages},
		&WebAuthnRegister{Pages: deps.Pages},
		&MFAEnroll{Pages: deps.Pages},
		&MFAChallenge{Pages: deps.Pages},
	)
}
