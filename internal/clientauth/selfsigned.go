package clientauth

import (
	"context"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"
	"net/url"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	tokens "github.com/dropDatabas3/gatejohn/internal/security/token"
	"github.com/lestrrat-go/jwx/v3/jwk"
)

// selfSignedStrategy autentica via self_signed_tls_client_auth: el thumbprint
// SHA-1 o SHA-256 del peer certificate tiene que aparecer como x5t / x5t#S256
// en el JWKS registrado del client.
type selfSignedStrategy struct {
	// forwardedHeader es el nombre del header con el cert forwardeado por
	// un proxy confiable; vacío = solo sesión TLS directa.
	forwardedHeader string
}

func (selfSignedStrategy) Method() string { return repository.AuthMethodSelfSignedTLS }

func (selfSignedStrategy) CanHandle(client *repository.Client, _ *http.Request) bool {
	return client.TokenEndpointAuthMethod == repository.AuthMethodSelfSignedTLS
}

func (s *selfSignedStrategy) Authenticate(ctx context.Context, client *repository.Client, r *http.Request) error {
	cert, err := s.peerCertificate(r)
	if err != nil {
		return ErrInvalidClient
	}
	if len(client.JWKS) == 0 {
		return ErrInvalidClient
	}
	set, err := jwk.Parse(client.JWKS)
	if err != nil {
		return ErrInvalidClient
	}

	thumbSHA1 := tokens.CertThumbprintSHA1(cert)
	thumbSHA256 := tokens.CertThumbprintSHA256(cert)

	for i := 0; i < set.Len(); i++ {
		key, ok := set.Key(i)
		if !ok {
			continue
		}
		var x5t string
		if err := key.Get(jwk.X509CertThumbprintKey, &x5t); err == nil && x5t == thumbSHA1 {
			return nil
		}
		var x5tS256 string
		if err := key.Get(jwk.X509CertThumbprintS256Key, &x5tS256); err == nil && x5tS256 == thumbSHA256 {
			return nil
		}
	}
	return ErrInvalidClient
}

// peerCertificate obtiene el certificado del peer: primero de la sesión TLS,
// después del header forwardeado (URL-decoded, PEM o DER).
func (s *selfSignedStrategy) peerCertificate(r *http.Request) (*x509.Certificate, error) {
	if r.TLS != nil && len(r.TLS.PeerCertificates) > 0 {
		return r.TLS.PeerCertificates[0], nil
	}
	if s.forwardedHeader == "" {
		return nil, fmt.Errorf("no tls session")
	}
	raw := r.Header.Get(s.forwardedHeader)
	if raw == "" {
		return nil, fmt.Errorf("no peer certificate")
	}
	decoded, err := url.QueryUnescape(raw)
	if err != nil {
		return nil, fmt.Errorf("forwarded certificate: %w", err)
	}
	if block, _ := pem.Decode([]byte(decoded)); block != nil {
		return x509.ParseCertificate(block.Bytes)
	}
	return x509.ParseCertificate([]byte(decoded))
}
