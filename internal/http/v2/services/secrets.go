package services

import (
	"context"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
)

// RepoSecretSource implementa clientauth.SecretSource sobre el
// ClientRepository (secret cifrado en reposo).
type RepoSecretSource struct {
	Clients repository.ClientRepository
}

func (s *RepoSecretSource) ClientSecret(ctx context.Context, client *repository.Client) (string, error) {
	return s.Clients.DecryptSecret(ctx, client)
}
