package clientauth

import (
	"context"
	"crypto/x509"
	"net/http"
	"strings"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
)

// mtlsStrategy autentica via tls_client_auth: el peer certificate de la
// sesión TLS tiene que matchear el subject DN configurado o alguno de los
// SANs registrados del client.
type mtlsStrategy struct{}

func (mtlsStrategy) Method() string { return repository.AuthMethodTLS }

func (mtlsStrategy) CanHandle(client *repository.Client, _ *http.Request) bool {
	return client.TokenEndpointAuthMethod == repository.AuthMethodTLS
}

func (mtlsStrategy) Authenticate(_ context.Context, client *repository.Client, r *http.Request) error {
	if r.TLS == nil || len(r.TLS.PeerCertificates) == 0 {
		return ErrInvalidClient
	}
	if client.MTLS == nil {
		return ErrInvalidClient
	}
	cert := r.TLS.PeerCertificates[0]

	if client.MTLS.SubjectDN != "" && dnEqual(cert.Subject.String(), client.MTLS.SubjectDN) {
		return nil
	}
	if matchSAN(cert, client.MTLS) {
		return nil
	}
	return ErrInvalidClient
}

// dnEqual compara dos distinguished names en forma X.500.
// Normaliza espacios alrededor de separadores y compara los RDN en orden.
func dnEqual(a, b string) bool {
	return normalizeDN(a) == normalizeDN(b)
}

func normalizeDN(dn string) string {
	parts := splitDN(dn)
	for i, p := range parts {
		attr, val, found := strings.Cut(p, "=")
		if !found {
			parts[i] = strings.TrimSpace(p)
			continue
		}
		parts[i] = strings.ToUpper(strings.TrimSpace(attr)) + "=" + strings.TrimSpace(val)
	}
	return strings.Join(parts, ",")
}

// splitDN separa un DN en RDNs respetando comas escapadas.
func splitDN(dn string) []string {
	var parts []string
	var cur strings.Builder
	escaped := false
	for _, r := range dn {
		switch {
		case escaped:
			cur.WriteRune(r)
			escaped = false
		case r == '\\':
			cur.WriteRune(r)
			escaped = true
		case r == ',':
			parts = append(parts, cur.String())
			cur.Reset()
		default:
			cur.WriteRune(r)
		}
	}
	parts = append(parts, cur.String())
	return parts
}

// matchSAN compara cada tipo de SAN registrado contra las entradas del
// certificado por igualdad exacta de string.
func matchSAN(cert *x509.Certificate, binding *repository.MTLSBinding) bool {
	for _, want := range binding.SANDNS {
		for _, got := range cert.DNSNames {
			if want == got {
				return true
			}
		}
	}
	for _, want := range binding.SANEmail {
		for _, got := range cert.EmailAddresses {
			if want == got {
				return true
			}
		}
	}
	for _, want := range binding.SANIP {
		for _, got := range cert.IPAddresses {
			if want == got.String() {
				return true
			}
		}
	}
	for _, want := range binding.SANURI {
		for _, got := range cert.URIs {
			if want == got.String() {
				return true
			}
		}
	}
	return false
}
