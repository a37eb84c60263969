package clientauth

import (
	"context"
	"crypto/subtle"
	"encoding/base64"
	"net/http"
	"strings"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
)

// basicStrategy autentica con Authorization: Basic base64(client_id:client_secret).
type basicStrategy struct {
	secrets SecretSource
}

func (basicStrategy) Method() string { return repository.AuthMethodBasic }

func (basicStrategy) CanHandle(client *repository.Client, r *http.Request) bool {
	if client.TokenEndpointAuthMethod == repository.AuthMethodBasic {
		return true
	}
	return client.TokenEndpointAuthMethod == "" && hasBasicHeader(r)
}

func (s *basicStrategy) Authenticate(ctx context.Context, client *repository.Client, r *http.Request) error {
	id, secret, ok := decodeBasicHeader(r)
	if !ok {
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

func hasBasicHeader(r *http.Request) bool {
	return strings.HasPrefix(r.Header.Get("Authorization"), "Basic ")
}

// decodeBasicHeader decodifica el header y separa en el primer ':'.
func decodeBasicHeader(r *http.Request) (id, secret string, ok bool) {
	h := r.Header.Get("Authorization")
	if !strings.HasPrefix(h, "Basic ") {
		return "", "", false
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(h[len("Basic "):]))
	if err != nil {
		return "", "", false
	}
	id, secret, found := strings.Cut(string(raw), ":")
	if !found || id == "" {
		return "", "", false
	}
	return id, secret, true
}
