package steps

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/flow"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
)

// StepUpRule es una regla contextual que puede forzar el challenge aunque
// la autenticación fuerte ya esté completa.
type StepUpRule func(ec *flow.ExecutionContext) (bool, error)

// MFAChallenge redirige al challenge MFA cuando el client exige factores y
// la sesión todavía no completó autenticación fuerte.
//
// Las reglas de step-up que fallan al evaluar se tratan como "false" y se
// loguean; nunca son fatales.
type MFAChallenge struct {
	Pages Pages
	Rule  StepUpRule
}

func (MFAChallenge) Name() string { return "MFAChallenge" }

func (s *MFAChallenge) Evaluate(ctx context.Context, ec *flow.ExecutionContext) (flow.Outcome, error) {
	if len(ec.Client.Factors) == 0 {
		return flow.Continue(), nil
	}
	if stepUp := s.evalRule(ctx, ec); stepUp {
		return flow.Exit(flow.Redirect(s.Pages.MFAChallenge)), nil
	}
	if ec.Session.StrongAuthCompleted || ec.Session.MFASkipped {
		return flow.Continue(), nil
	}
	return flow.Exit(flow.Redirect(s.Pages.MFAChallenge)), nil
}

func (s *MFAChallenge) evalRule(ctx context.Context, ec *flow.ExecutionContext) bool {
	if s.Rule == nil {
		return false
	}
	ok, err := s.Rule(ec)
	if err != nil {
		logger.From(ctx).Warn("step-up rule evaluation failed", logger.Err(err))
		return false
	}
	return ok
}
