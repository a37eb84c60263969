package services

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/flow"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/dto"
	"github.com/dropDatabas3/gatejohn/internal/metrics"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
	"github.com/dropDatabas3/gatejohn/internal/validation"
)

// Errores del servicio de autorización.
var (
	ErrUnknownClient   = errors.New("unknown client")
	ErrInvalidClientID = errors.New("invalid client_id")
)

// AuthorizeService corre la cadena de autenticación para un request de
// navegador y traduce el resultado a una respuesta HTTP.
type AuthorizeService struct {
	Clients  repository.ClientRepository
	Users    repository.UserRepository
	Chain    *flow.Chain
	Sessions *SessionStore

	// SessionCookie es el nombre de la cookie con el session ID del flujo.
	SessionCookie string
}

// AuthorizeResult agrupa la respuesta y las mutaciones de cookies que la
// capa HTTP tiene que aplicar.
type AuthorizeResult struct {
	Response dto.AuthorizeResponse

	// SessionID a setear en cookie si la sesión es nueva.
	NewSessionID string

	// ClearCookies son cookies que los pasos marcaron para limpiar.
	ClearCookies []string
}

// Authorize evalúa la cadena para el request actual.
func (s *AuthorizeService) Authorize(ctx context.Context, r *http.Request) (*AuthorizeResult, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("AuthorizeService.Authorize"))

	clientID := r.FormValue("client_id")
	if !validation.ValidClientID(clientID) {
		return nil, ErrInvalidClientID
	}
	client, err := s.Clients.Get(ctx, clientID)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, ErrUnknownClient
		}
		return nil, err
	}

	// Sesión del navegador
	var sessionID string
	if c, err := r.Cookie(s.SessionCookie); err == nil {
		sessionID = c.Value
	}
	state, userID, err := s.Sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	var user *repository.User
	if userID != "" {
		if u, err := s.Users.Get(ctx, userID); err == nil && !u.Disabled() {
			user = u
		}
	}

	out := &AuthorizeResult{}
	if sessionID == "" {
		sessionID, err = s.Sessions.NewSessionID()
		if err != nil {
			return nil, err
		}
		out.NewSessionID = sessionID
	}

	ec := flow.NewExecutionContext(r, client, user, state)
	result, err := s.Chain.Run(ctx, ec)
	if err != nil {
		return nil, err
	}
	out.ClearCookies = ec.ClearedCookies()

	// Persistir estado mutado por los pasos (RememberMe puede autenticar).
	persistUser := userID
	if ec.User != nil {
		persistUser = ec.User.ID
	}
	if err := s.Sessions.Save(ctx, sessionID, ec.Session, persistUser); err != nil {
		return nil, err
	}

	if result.ExitedAt != "" {
		metrics.FlowStepExits.WithLabelValues(result.ExitedAt).Inc()
	}

	resp := dto.AuthorizeResponse{ExitedAt: result.ExitedAt}
	switch {
	case result.Action != nil:
		resp.Status = "redirect"
		resp.RedirectURL = buildRedirect(result.Action)
	default:
		// Sin acción: cadena completa o exit pass-through; el caller
		// continúa con el request autenticado.
		resp.Status = "authenticated"
	}
	log.Debug("authorize evaluated",
		logger.ClientID(clientID),
		logger.Step(result.ExitedAt),
		logger.String("status", resp.Status),
	)
	out.Response = resp
	return out, nil
}

// buildRedirect arma la URL del redirect con sus query params.
func buildRedirect(a *flow.Action) string {
	if len(a.Params) == 0 {
		return a.RedirectURL
	}
	u, err := url.Parse(a.RedirectURL)
	if err != nil {
		return a.RedirectURL
	}
	q := u.Query()
	for k, v := range a.Params {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String()
}
