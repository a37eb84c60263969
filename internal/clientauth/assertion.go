package clientauth

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
)

// assertionStrategy autentica con una client assertion JWT
// (private_key_jwt / client_secret_jwt), delegando la verificación
// criptográfica en un colaborador externo.
type assertionStrategy struct {
	verifier AssertionVerifier
}

func (assertionStrategy) Method() string { return repository.AuthMethodPrivateKeyJWT }

func (assertionStrategy) CanHandle(client *repository.Client, r *http.Request) bool {
	switch client.TokenEndpointAuthMethod {
	case repository.AuthMethodPrivateKeyJWT, repository.AuthMethodSecretJWT:
		return true
	}
	if client.TokenEndpointAuthMethod != "" {
		return false
	}
	return r.PostFormValue(paramClientAssertion) != "" && r.PostFormValue(paramClientAssertionType) != ""
}

func (s *assertionStrategy) Authenticate(ctx context.Context, client *repository.Client, r *http.Request) error {
	assertionType := r.PostFormValue(paramClientAssertionType)
	assertion := r.PostFormValue(paramClientAssertion)
	if assertionType == "" || assertion == "" {
		// Fallo estructural: distinguible del resto.
		return ErrUnsupportedMethod
	}
	if s.verifier == nil {
		return ErrUnsupportedMethod
	}
	resolvedID, err := s.verifier.Verify(ctx, assertionType, assertion, basePath(r))
	if err != nil {
		return ErrInvalidClient
	}
	// Si el request además trae client_id explícito, tiene que coincidir
	// con el client resuelto por la assertion.
	if explicit := r.PostFormValue(paramClientID); explicit != "" && explicit != resolvedID {
		return ErrInvalidClient
	}
	if resolvedID != client.ClientID {
		return ErrInvalidClient
	}
	return nil
}

// basePath reconstruye el base path del request para la validación de
// audience de la assertion.
func basePath(r *http.Request) string {
	scheme := "https"
	if r.TLS == nil {
		scheme = "http"
	}
	return scheme + "://" + r.Host
}
