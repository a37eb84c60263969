package steps

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/flow"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
)

// RememberMe autentica silenciosamente via cookie remember-me (token de
// sesión firmado con referencia al usuario).
//
// Si la cookie verifica, el usuario queda autenticado en el contexto y el
// paso corta la cadena con un exit pass-through (sin acción): los usuarios
// recordados no pasan por los checks de enrolamiento MFA/WebAuthn.
// Si la cookie no decodifica o el usuario no existe, la cookie se limpia y
// el flujo sigue sin autenticar — nunca es fatal.
type RememberMe struct {
	CookieName string
	Parser     RememberMeParser
	Users      repository.UserRepository
}

func (RememberMe) Name() string { return "RememberMe" }

func (s *RememberMe) Evaluate(ctx context.Context, ec *flow.ExecutionContext) (flow.Outcome, error) {
	if ec.Authenticated() {
		return flow.Continue(), nil
	}
	cookie := ec.Cookie(s.CookieName)
	if cookie == "" {
		return flow.Continue(), nil
	}

	userID, err := s.Parser.ParseRememberMe(cookie)
	if err != nil {
		logger.From(ctx).Debug("remember-me cookie decode failed", logger.Err(err))
		ec.ClearCookie(s.CookieName)
		return flow.Continue(), nil
	}
	user, err := s.Users.Get(ctx, userID)
	if err != nil {
		logger.From(ctx).Debug("remember-me user lookup failed",
			logger.UserID(userID), logger.Err(err))
		ec.ClearCookie(s.CookieName)
		return flow.Continue(), nil
	}
	if user.Disabled() {
		ec.ClearCookie(s.CookieName)
		return flow.Continue(), nil
	}

	ec.User = user
	return flow.Exit(nil), nil
}
