package clientauth

import (
	"context"
	"crypto/subtle"
	"net/http"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
)

// postStrategy autentica con client_id/client_secret en el body del request.
type postStrategy struct {
	secrets SecretSource
}

func (postStrategy) Method() string { return repository.AuthMethodPost }

func (postStrategy) CanHandle(client *repository.Client, r *http.Request) bool {
	if client.TokenEndpointAuthMethod == repository.AuthMethodPost {
		return true
	}
	if client.TokenEndpointAuthMethod != "" {
		return false
	}
	return r.PostFormValue(paramClientID) != "" && r.PostFormValue(paramClientSecret) != ""
}

func (s *postStrategy) Authenticate(ctx context.Context, client *repository.Client, r *http.Request) error {
	id := r.PostFormValue(paramClientID)
	secret := r.PostFormValue(paramClientSecret)
	if id == "" || secret == "" {
		return ErrInvalidClient
	}
	want, err := s.secrets.ClientSecret(ctx, client)
	if err != nil {
		return ErrInvalidClient
	}
	idOK := subtle.ConstantTimeCompare([]byte(id), []byte(client.ClientID)) == 1
	secretOK := subtle.ConstantTimeCompare([]byte(secret), []byte(want)) == 1
	if !idOK || !secretOK {
		return ErrInvalidClient
	}
	return nil
}
