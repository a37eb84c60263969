package services

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/dropDatabas3/gatejohn/internal/cache"
	"github.com/dropDatabas3/gatejohn/internal/clientauth"
	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/http/v2/dto"
	"github.com/dropDatabas3/gatejohn/internal/metrics"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
	tokens "github.com/dropDatabas3/gatejohn/internal/security/token"
	jwtv5 "github.com/golang-jwt/jwt/v5"
)

const (
	accessTokenKeyPrefix = "token:access:"
	accessTokenTTL       = 15 * time.Minute
)

// TokenService atiende el token endpoint: autenticación del client y
// emisión de un access token opaco.
type TokenService struct {
	Clients repository.ClientRepository
	Auth    *clientauth.Authenticator
	Cache   cache.Client
}

// Token procesa POST /v2/oauth/token. Los fallos de autenticación del
// client colapsan en clientauth.ErrInvalidClient para el controller.
func (s *TokenService) Token(ctx context.Context, r *http.Request) (*dto.TokenResponse, error) {
	log := logger.From(ctx).With(logger.Layer("service"), logger.Op("TokenService.Token"))

	clientID := resolveClientID(r)
	if clientID == "" {
		return nil, clientauth.ErrUnsupportedMethod
	}

	client, err := s.Clients.Get(ctx, clientID)
	if err != nil {
		// Client inexistente es indistinguible de credenciales inválidas.
		metrics.ClientAuthOutcomes.WithLabelValues("unknown", "rejected").Inc()
		return nil, clientauth.ErrInvalidClient
	}

	if err := s.Auth.Resolve(ctx, client, r); err != nil {
		metrics.ClientAuthOutcomes.WithLabelValues(client.TokenEndpointAuthMethod, "rejected").Inc()
		return nil, err
	}
	metrics.ClientAuthOutcomes.WithLabelValues(client.TokenEndpointAuthMethod, "ok").Inc()

	// Access token opaco; en cache solo va el hash.
	tok, err := tokens.GenerateOpaqueToken(32)
	if err != nil {
		return nil, err
	}
	err = s.Cache.Set(ctx, accessTokenKeyPrefix+tokens.SHA256Base64URL(tok), client.ClientID, accessTokenTTL)
	if err != nil {
		return nil, err
	}

	log.Info("access token issued", logger.ClientID(client.ClientID))
	return &dto.TokenResponse{
		AccessToken: tok,
		TokenType:   "Bearer",
		ExpiresIn:   int64(accessTokenTTL.Seconds()),
		Scope:       strings.Join(client.Scopes, " "),
	}, nil
}

// Introspect valida un access token opaco emitido por este servicio.
func (s *TokenService) Introspect(ctx context.Context, token string) (clientID string, active bool) {
	v, err := s.Cache.Get(ctx, accessTokenKeyPrefix+tokens.SHA256Base64URL(token))
	if err != nil {
		return "", false
	}
	return v, true
}

// resolveClientID identifica al client antes de autenticar: Basic header,
// client_id del form, o iss de la assertion (sin verificar, la verificación
// la hace la estrategia).
func resolveClientID(r *http.Request) string {
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Basic ") {
		if raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(h, "Basic ")); err == nil {
			if i := strings.IndexByte(string(raw), ':'); i >= 0 {
				return string(raw[:i])
			}
		}
	}
	if id := strings.TrimSpace(r.PostFormValue("client_id")); id != "" {
		return id
	}
	if assertion := r.PostFormValue("client_assertion"); assertion != "" {
		parser := jwtv5.NewParser()
		if tok, _, err := parser.ParseUnverified(assertion, jwtv5.MapClaims{}); err == nil {
			if iss, _ := tok.Claims.(jwtv5.MapClaims)["iss"].(string); iss != "" {
				return iss
			}
		}
	}
	return ""
}

// IsAuthError indica si el error del token endpoint es un 401 de client.
func IsAuthError(err error) bool {
	return errors.Is(err, clientauth.ErrInvalidClient) ||
		errors.Is(err, clientauth.ErrUnsupportedMethod)
}
