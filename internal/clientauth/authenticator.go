// Package clientauth implementa la autenticación de clients OAuth2 en el
// token endpoint.
//
// Mantiene un set ordenado de estrategias; la primera cuyo CanHandle retorna
// true es la que se invoca y su resultado es final — no hay fallback a una
// segunda estrategia.
package clientauth

import (
	"context"
	"errors"
	"net/http"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/observability/logger"
)

// Errores de autenticación de client.
//
// ErrInvalidClient es deliberadamente genérico: nunca revela qué check
// específico falló. Solo los fallos puramente estructurales (parámetros de
// assertion faltantes, método no soportado) usan ErrUnsupportedMethod.
var (
	ErrInvalidClient     = errors.New("invalid client")
	ErrUnsupportedMethod = errors.New("missing or unsupported client authentication method")
)

// Parámetros del token endpoint.
const (
	paramClientID            = "client_id"
	paramClientSecret        = "client_secret"
	paramClientAssertion     = "client_assertion"
	paramClientAssertionType = "client_assertion_type"
	paramGrantType           = "grant_type"
)

// Strategy autentica un client con un mecanismo concreto.
type Strategy interface {
	// Method retorna el token_endpoint_auth_method que maneja.
	Method() string

	// CanHandle indica si esta estrategia aplica al client/request.
	CanHandle(client *repository.Client, r *http.Request) bool

	// Authenticate valida la prueba presentada. Retorna ErrInvalidClient
	// (o ErrUnsupportedMethod para fallos estructurales) si no es válida.
	Authenticate(ctx context.Context, client *repository.Client, r *http.Request) error
}

// SecretSource resuelve el secret plano de un client confidential.
type SecretSource interface {
	ClientSecret(ctx context.Context, client *repository.Client) (string, error)
}

// AssertionVerifier es el colaborador externo que valida client assertions
// JWT (private_key_jwt / client_secret_jwt) y resuelve el client_id emisor.
type AssertionVerifier interface {
	Verify(ctx context.Context, assertionType, assertion, basePath string) (clientID string, err error)
}

// Authenticator resuelve la estrategia aplicable y ejecuta la autenticación.
type Authenticator struct {
	strategies []Strategy
}

// Deps contiene las dependencias para construir el set estándar.
type Deps struct {
	Secrets          SecretSource
	Assertions       AssertionVerifier
	ForwardedCertHdr string // nombre del header de cert forwardeado; "" = deshabilitado
}

// New crea un Authenticator con las estrategias estándar en orden fijo.
func New(deps Deps) *Authenticator {
	return &Authenticator{
		strategies: []Strategy{
			&basicStrategy{secrets: deps.Secrets},
			&postStrategy{secrets: deps.Secrets},
			&assertionStrategy{verifier: deps.Assertions},
			&mtlsStrategy{},
			&selfSignedStrategy{forwardedHeader: deps.ForwardedCertHdr},
			&noneStrategy{},
		},
	}
}

// NewWithStrategies crea un Authenticator con un set explícito (tests).
func NewWithStrategies(strategies ...Strategy) *Authenticator {
	return &Authenticator{strategies: strategies}
}

// Resolve encuentra la primera estrategia aplicable y la ejecuta.
// El resultado de esa estrategia es final.
func (a *Authenticator) Resolve(ctx context.Context, client *repository.Client, r *http.Request) error {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("clientauth"),
		logger.ClientID(client.ClientID),
	)
	for _, s := range a.strategies {
		if !s.CanHandle(client, r) {
			continue
		}
		if err := s.Authenticate(ctx, client, r); err != nil {
			log.Debug("client authentication failed", logger.Strategy(s.Method()), logger.Err(err))
			return err
		}
		log.Debug("client authenticated", logger.Strategy(s.Method()))
		return nil
	}
	log.Debug("no client authentication strategy applies")
	return ErrUnsupportedMethod
}
