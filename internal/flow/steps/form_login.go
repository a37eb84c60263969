package steps

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/flow"
)

// FormLogin redirige al formulario de login cuando no hay usuario
// autenticado. Es el piso de la cadena: todo lo anterior son caminos de
// autenticación silenciosa u obligaciones previas.
type FormLogin struct {
	Pages Pages
}

func (FormLogin) Name() string { return "FormLogin" }

func (s *FormLogin) Evaluate(_ context.Context, ec *flow.ExecutionContext) (flow.Outcome, error) {
	if ec.Authenticated() {
		return flow.Continue(), nil
	}
	return flow.Exit(flow.Redirect(s.Pages.Login)), nil
}
