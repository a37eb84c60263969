package steps

import (
	"context"
	"strings"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/flow"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
)

// SPNEGO redirige al handshake Kerberos/Negotiate cuando el client tiene un
// IdP kerberos habilitado y el handshake todavía no se intentó.
type SPNEGO struct {
	Pages Pages
	IdPs  repository.IdentityProviderRepository
}

func (SPNEGO) Name() string { return "SPNEGO" }

func (s *SPNEGO) Evaluate(ctx context.Context, ec *flow.ExecutionContext) (flow.Outcome, error) {
	if ec.Authenticated() {
		return flow.Continue(), nil
	}
	if negotiateAttempted(ec) {
		return flow.Continue(), nil
	}
	if len(ec.Client.IdentityProviders) == 0 || s.IdPs == nil {
		return flow.Continue(), nil
	}
	idps, err := s.IdPs.ListByIDs(ctx, ec.Client.IdentityProviders)
	if err != nil {
		// Lookup fallido = funcionalidad opcional degradada: no es fatal.
		logger.From(ctx).Warn("spnego idp lookup failed", logger.Err(err))
		return flow.Continue(), nil
	}
	for _, idp := range idps {
		if idp.Type == repository.IdPTypeKerberos && idp.Enabled {
			return flow.Exit(flow.Redirect(s.Pages.SPNEGO)), nil
		}
	}
	return flow.Continue(), nil
}

// negotiateAttempted detecta si el browser ya respondió al challenge
// Negotiate (header presente) o si el sub-flujo marcó el intento.
func negotiateAttempted(ec *flow.ExecutionContext) bool {
	if ec.Param("negotiate") == "attempted" {
		return true
	}
	auth := ec.Request.Header.Get("Authorization")
	return strings.HasPrefix(auth, "Negotiate ")
}
