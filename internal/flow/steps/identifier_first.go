package steps

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/flow"
)

const paramUsername = "username"

// IdentifierFirstLogin redirige a la página de identificador cuando el
// client tiene identifier-first habilitado y el request todavía no trae
// username.
type IdentifierFirstLogin struct {
	Pages Pages
}

func (IdentifierFirstLogin) Name() string { return "IdentifierFirstLogin" }

func (s *IdentifierFirstLogin) Evaluate(_ context.Context, ec *flow.ExecutionContext) (flow.Outcome, error) {
	if ec.Authenticated() {
		return flow.Continue(), nil
	}
	if !ec.Client.IdentifierFirstLogin {
		return flow.Continue(), nil
	}
	if ec.Param(paramUsername) != "" {
		return flow.Continue(), nil
	}
	return flow.Exit(flow.Redirect(s.Pages.LoginIdentifier)), nil
}
