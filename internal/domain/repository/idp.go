package repository

import "context"

// Tipos de identity provider.
const (
	IdPTypeKerberos = "kerberos"
	IdPTypeOIDC     = "oidc"
	IdPTypeSAML     = "saml"
)

// IdentityProvider es un proveedor de identidad externo habilitable por client.
type IdentityProvider struct {
	ID      string
	Type    string
	Name    string
	Enabled bool
}

// IdentityProviderRepository define operaciones de lectura sobre IdPs.
type IdentityProviderRepository interface {
	// Get obtiene un IdP por ID. Retorna ErrNotFound si no existe.
	Get(ctx context.Context, id string) (*IdentityProvider, error)

	// ListByIDs obtiene los IdPs con los IDs dados (los inexistentes se omiten).
	ListByIDs(ctx context.Context, ids []string) ([]IdentityProvider, error)
}
