package pg

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/security/secretbox"
)

// Clients devuelve el repositorio de OIDC clients.
func (s *Store) Clients() repository.ClientRepository { return &clientRepo{s} }

type clientRepo struct{ s *Store }

func (r *clientRepo) Get(ctx context.Context, clientID string) (*repository.Client, error) {
	row := r.s.pool.QueryRow(ctx, `
		SELECT id, client_id, name, type, redirect_uris, scopes,
		       COALESCE(secret_enc, ''), COALESCE(token_endpoint_auth_method, ''),
		       mtls_binding, jwks, factors, identity_providers,
		       identifier_first_login, passwordless_enabled,
		       remember_device, remember_me
		FROM oidc_client WHERE client_id = $1
	`, clientID)

	var c repository.Client
	var mtlsJSON []byte
	if err := row.Scan(
		&c.ID, &c.ClientID, &c.Name, &c.Type, &c.RedirectURIs, &c.Scopes,
		&c.SecretEnc, &c.TokenEndpointAuthMethod,
		&mtlsJSON, &c.JWKS, &c.Factors, &c.IdentityProviders,
		&c.IdentifierFirstLogin, &c.PasswordlessEnabled,
		&c.RememberDevice, &c.RememberMe,
	); err != nil {
		return nil, mapErr(err)
	}
	if len(mtlsJSON) > 0 {
		var b repository.MTLSBinding
		if err := json.Unmarshal(mtlsJSON, &b); err != nil {
			return nil, fmt.Errorf("pg: mtls_binding de %s: %w", clientID, err)
		}
		c.MTLS = &b
	}
	return &c, nil
}

func (r *clientRepo) DecryptSecret(ctx context.Context, client *repository.Client) (string, error) {
	if client == nil || client.SecretEnc == "" {
		return "", repository.ErrNotFound
	}
	return secretbox.Decrypt(client.SecretEnc)
}
