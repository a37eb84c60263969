package steps

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/flow"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
)

// WebAuthnLogin redirige al login passwordless cuando el client lo tiene
// habilitado junto con remember-device y la cookie de reconocimiento de
// dispositivo verifica.
type WebAuthnLogin struct {
	Pages      Pages
	CookieName string
	Devices    DeviceRecognizer
}

func (WebAuthnLogin) Name() string { return "WebAuthnLogin" }

func (s *WebAuthnLogin) Evaluate(ctx context.Context, ec *flow.ExecutionContext) (flow.Outcome, error) {
	if ec.Authenticated() {
		return flow.Continue(), nil
	}
	if !ec.Client.PasswordlessEnabled || !ec.Client.RememberDevice {
		return flow.Continue(), nil
	}
	cookie := ec.Cookie(s.CookieName)
	if cookie == "" || s.Devices == nil {
		return flow.Continue(), nil
	}
	ok, err := s.Devices.VerifyDevice(ctx, cookie)
	if err != nil {
		logger.From(ctx).Debug("device recognition failed", logger.Err(err))
		ec.ClearCookie(s.CookieName)
		return flow.Continue(), nil
	}
	if !ok {
		return flow.Continue(), nil
	}
	return flow.Exit(flow.Redirect(s.Pages.WebAuthnLogin)), nil
}
