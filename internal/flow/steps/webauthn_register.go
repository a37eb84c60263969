package steps

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/flow"
)

// WebAuthnRegister redirige al registro de credencial passwordless cuando el
// usuario autenticado todavía no tiene una y no lo salteó esta sesión.
type WebAuthnRegister struct {
	Pages Pages
}

func (WebAuthnRegister) Name() string { return "WebAuthnRegister" }

func (s *WebAuthnRegister) Evaluate(_ context.Context, ec *flow.ExecutionContext) (flow.Outcome, error) {
	if !ec.Authenticated() {
		return flow.Continue(), nil
	}
	if !ec.Client.PasswordlessEnabled {
		return flow.Continue(), nil
	}
	if ec.Session.PasswordlessAuthCompleted || ec.Session.WebAuthnSkipped {
		return flow.Continue(), nil
	}
	if ec.User.WebAuthnRegistrationCompleted {
		return flow.Continue(), nil
	}
	return flow.Exit(flow.Redirect(s.Pages.WebAuthnRegister)), nil
}
