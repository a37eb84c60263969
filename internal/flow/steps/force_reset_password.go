package steps

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/flow"
)

// ForceResetPassword corta el flujo cuando el usuario autenticado tiene el
// flag forceResetPassword: firma un token corto que ata user id + client id
// + momento de emisión + request URI original, y redirige al sub-flujo de
// reset.
type ForceResetPassword struct {
	Pages  Pages
	Tokens ResetTokenIssuer
}

func (ForceResetPassword) Name() string { return "ForceResetPassword" }

func (s *ForceResetPassword) Evaluate(_ context.Context, ec *flow.ExecutionContext) (flow.Outcome, error) {
	if !ec.Authenticated() || !ec.User.ForceResetPassword {
		return flow.Continue(), nil
	}
	token, err := s.Tokens.SignResetToken(ec.User.ID, ec.Client.ClientID, ec.RequestURL())
	if err != nil {
		return flow.Outcome{}, err
	}
	ec.ResetToken = token
	ec.Session.ReturnURL = ec.RequestURL()
	action := flow.Redirect(s.Pages.ResetPassword).WithParam("token", token)
	return flow.Exit(action), nil
}
