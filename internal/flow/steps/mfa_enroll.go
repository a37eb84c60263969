package steps

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/flow"
)

// MFAEnroll redirige al enrolamiento MFA cuando el client exige factores y
// el usuario autenticado no está enrolado en ninguno de ellos.
type MFAEnroll struct {
	Pages Pages
}

func (MFAEnroll) Name() string { return "MFAEnroll" }

func (s *MFAEnroll) Evaluate(_ context.Context, ec *flow.ExecutionContext) (flow.Outcome, error) {
	if !ec.Authenticated() {
		return flow.Continue(), nil
	}
	if len(ec.Client.Factors) == 0 {
		return flow.Continue(), nil
	}
	if ec.Session.StrongAuthCompleted || ec.Session.MFASkipped {
		return flow.Continue(), nil
	}
	if ec.User.HasAnyFactor(ec.Client.Factors) {
		return flow.Continue(), nil
	}
	return flow.Exit(flow.Redirect(s.Pages.MFAEnroll)), nil
}
