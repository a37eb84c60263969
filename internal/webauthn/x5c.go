package webauthn

import (
	"crypto/x509"
	"fmt"
	"time"

	"github.com/fxamacker/cbor/v2"
)

// parseX5C decodifica el campo x5c (array de certificados DER) de un
// attestation statement.
func parseX5C(raw []cbor.RawMessage) ([]*x509.Certificate, error) {
	certs := make([]*x509.Certificate, 0, len(raw))
	for i, item := range raw {
		var der []byte
		if err := cbor.Unmarshal(item, &der); err != nil {
			return nil, fmt.Errorf("x5c[%d]: not a byte string: %w", i, err)
		}
		cert, err := x509.ParseCertificate(der)
		if err != nil {
			return nil, fmt.Errorf("x5c[%d]: %w", i, err)
		}
		certs = append(certs, cert)
	}
	return certs, nil
}

// validateChain valida la cadena x5c: ventanas de validez, firma de cada
// certificado por su emisor y, si hay roots configurados, anclaje a ellos.
// Sin roots conocidos solo se hace la validación estructural; la confianza
// final queda en el resto de checks del formato.
func validateChain(chain []*x509.Certificate, roots *x509.CertPool, now time.Time) error {
	if len(chain) == 0 {
		return fmt.Errorf("empty certificate chain")
	}
	for i, cert := range chain {
		if now.Before(cert.NotBefore) || now.After(cert.NotAfter) {
			return fmt.Errorf("certificate %d outside validity window", i)
		}
	}
	if roots != nil {
		opts := x509.VerifyOptions{
			Roots:       roots,
			CurrentTime: now,
			KeyUsages:   []x509.ExtKeyUsage{x509.ExtKeyUsageAny},
		}
		if len(chain) > 1 {
			opts.Intermediates = x509.NewCertPool()
			for _, cert := range chain[1:] {
				opts.Intermediates.AddCert(cert)
			}
		}
		if _, err := chain[0].Verify(opts); err != nil {
			return fmt.Errorf("chain verification failed: %w", err)
		}
		return nil
	}
	// Sin anchor: verificar que cada cert esté firmado por el siguiente.
	for i := 0; i < len(chain)-1; i++ {
		if err := chain[i].CheckSignatureFrom(chain[i+1]); err != nil {
			return fmt.Errorf("certificate %d not signed by issuer: %w", i, err)
		}
	}
	return nil
}
