package clientauth

import (
	"context"
	"net/http"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
)

const grantClientCredentials = "client_credentials"

// noneStrategy acepta clients públicos sin autenticación.
// Un client con método none no puede obtener tokens por client_credentials.
type noneStrategy struct{}

func (noneStrategy) Method() string { return repository.AuthMethodNone }

func (noneStrategy) CanHandle(client *repository.Client, r *http.Request) bool {
	if client.TokenEndpointAuthMethod != repository.AuthMethodNone {
		return false
	}
	return r.PostFormValue(paramGrantType) != grantClientCredentials
}

func (noneStrategy) Authenticate(_ context.Context, _ *repository.Client, _ *http.Request) error {
	return nil
}
