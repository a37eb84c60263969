package repository

import (
	"context"
)

const (
	ClientTypePublic       = "public"
	ClientTypeConfidential = "confidential"
)

// Métodos de autenticación del token endpoint (RFC 8705 / OIDC Core).
const (
	AuthMethodBasic         = "client_secret_basic"
	AuthMethodPost          = "client_secret_post"
	AuthMethodPrivateKeyJWT = "private_key_jwt"
	AuthMethodSecretJWT     = "client_secret_jwt"
	AuthMethodTLS           = "tls_client_auth"
	AuthMethodSelfSignedTLS = "self_signed_tls_client_auth"
	AuthMethodNone          = "none"
)

// MTLSBinding es la configuración mutual-TLS de un client
// (subject DN o SANs contra los que se compara el peer certificate).
type MTLSBinding struct {
	SubjectDN string   `json:"subject_dn,omitempty"`
	SANDNS    []string `json:"san_dns,omitempty"`
	SANEmail  []string `json:"san_email,omitempty"`
	SANIP     []string `json:"san_ip,omitempty"`
	SANURI    []string `json:"san_uri,omitempty"`
}

// Client representa un cliente OIDC/OAuth.
// Inmutable durante un request; viene del registro externo.
type Client struct {
	ID           string
	ClientID     string // identificador público
	Name         string
	Type         string // "public" | "confidential"
	RedirectURIs []string
	Scopes       []string
	SecretEnc    string // Secret cifrado

	// TokenEndpointAuthMethod es el método declarado; vacío = sin preferencia
	// (las estrategias matchean por presencia de parámetros).
	TokenEndpointAuthMethod string

	// MTLS es el binding mutual-TLS; nil si el client no usa mTLS.
	MTLS *MTLSBinding

	// JWKS es el JSON Web Key Set registrado (JSON crudo).
	// Usado por self_signed_tls_client_auth (x5t / x5t#S256).
	JWKS []byte

	// Factors son los IDs de factores MFA configurados para el client.
	Factors []string

	// IdentityProviders son los IDs de IdPs habilitados para el client.
	IdentityProviders []string

	// ─── Toggles del flujo de login ───

	IdentifierFirstLogin bool
	PasswordlessEnabled  bool
	RememberDevice       bool
	RememberMe           bool
}

// HasFactor indica si el client tiene configurado el factor dado.
func (c *Client) HasFactor(id string) bool {
	for _, f := range c.Factors {
		if f == id {
			return true
		}
	}
	return false
}

// ClientRepository define operaciones de lectura sobre OIDC clients.
type ClientRepository interface {
	// Get obtiene un client por su client_id público.
	// Retorna ErrNotFound si no existe.
	Get(ctx context.Context, clientID string) (*Client, error)

	// DecryptSecret descifra y retorna el secret de un client confidential.
	DecryptSecret(ctx context.Context, client *Client) (string, error)
}
