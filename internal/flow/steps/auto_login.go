package steps

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/flow"
)

// AutoLogin nunca sale de la cadena: si hay sesión con usuario autenticado
// y todavía no hay return-URL, guarda la URL actual como return-URL.
type AutoLogin struct{}

func (AutoLogin) Name() string { return "AutoLogin" }

func (AutoLogin) Evaluate(_ context.Context, ec *flow.ExecutionContext) (flow.Outcome, error) {
	if ec.Authenticated() && ec.Session.ReturnURL == "" {
		ec.Session.ReturnURL = ec.RequestURL()
	}
	return flow.Continue(), nil
}
