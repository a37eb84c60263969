package clientauth

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/tls"
	"crypto/x509"
	"crypto/x509/pkix"
	"encoding/base64"
	"encoding/json"
	"encoding/pem"
	"errors"
	"math/big"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	tokens "github.com/dropDatabas3/gatejohn/internal/security/token"
)

type fakeSecrets struct {
	secret string
	err    error
}

func (f *fakeSecrets) ClientSecret(_ context.Context, _ *repository.Client) (string, error) {
	return f.secret, f.err
}

type fakeVerifier struct {
	id  string
	err error
}

func (f *fakeVerifier) Verify(_ context.Context, _, _, _ string) (string, error) {
	return f.id, f.err
}

// recordStrategy registra invocaciones para los tests de dispatch.
type recordStrategy struct {
	method  string
	handles bool
	err     error
	called  int
}

func (s *recordStrategy) Method() string                                   { return s.method }
func (s *recordStrategy) CanHandle(*repository.Client, *http.Request) bool { return s.handles }
func (s *recordStrategy) Authenticate(context.Context, *repository.Client, *http.Request) error {
	s.called++
	return s.err
}

func formRequest(values url.Values) *http.Request {
	r := httptest.NewRequest("POST", "/v2/oauth/token", strings.NewReader(values.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return r
}

func basicRequest(id, secret string) *http.Request {
	r := formRequest(url.Values{"grant_type": {"client_credentials"}})
	r.Header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(id+":"+secret)))
	return r
}

// ---------- dispatch ----------

func TestResolve_FirstApplicableStrategyWins(t *testing.T) {
	skipped := &recordStrategy{method: "a", handles: false}
	first := &recordStrategy{method: "b", handles: true}
	second := &recordStrategy{method: "c", handles: true}
	auth := NewWithStrategies(skipped, first, second)

	err := auth.Resolve(context.Background(), &repository.Client{ClientID: "c1"}, formRequest(nil))
	if err != nil {
		t.Fatalf("Resolve err: %v", err)
	}
	if skipped.called != 0 || first.called != 1 || second.called != 0 {
		t.Fatalf("called = %d/%d/%d", skipped.called, first.called, second.called)
	}
}

func TestResolve_ResultIsFinal(t *testing.T) {
	// La primera estrategia aplicable falla; no hay fallback a la segunda.
	failing := &recordStrategy{method: "a", handles: true, err: ErrInvalidClient}
	fallback := &recordStrategy{method: "b", handles: true}
	auth := NewWithStrategies(failing, fallback)

	err := auth.Resolve(context.Background(), &repository.Client{ClientID: "c1"}, formRequest(nil))
	if !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("err = %v, want ErrInvalidClient", err)
	}
	if fallback.called != 0 {
		t.Fatal("no debe haber fallback tras un fallo")
	}
}

func TestResolve_NoStrategyApplies(t *testing.T) {
	auth := NewWithStrategies(&recordStrategy{method: "a"})
	err := auth.Resolve(context.Background(), &repository.Client{ClientID: "c1"}, formRequest(nil))
	if !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("err = %v, want ErrUnsupportedMethod", err)
	}
}

// ---------- basic ----------

func TestBasicStrategy(t *testing.T) {
	client := &repository.Client{ClientID: "web-app", TokenEndpointAuthMethod: repository.AuthMethodBasic}
	s := &basicStrategy{secrets: &fakeSecrets{secret: "s3cr3t"}}

	if err := s.Authenticate(context.Background(), client, basicRequest("web-app", "s3cr3t")); err != nil {
		t.Fatalf("err: %v", err)
	}
	cases := map[string]*http.Request{
		"secret incorrecto": basicRequest("web-app", "otro"),
		"id incorrecto":     basicRequest("otro", "s3cr3t"),
		"sin header":        formRequest(nil),
	}
	for name, r := range cases {
		if err := s.Authenticate(context.Background(), client, r); !errors.Is(err, ErrInvalidClient) {
			t.Fatalf("%s: err = %v", name, err)
		}
	}
}

func TestBasicStrategy_SecretLookupFailureIsGeneric(t *testing.T) {
	client := &repository.Client{ClientID: "web-app"}
	s := &basicStrategy{secrets: &fakeSecrets{err: errors.New("db down")}}
	err := s.Authenticate(context.Background(), client, basicRequest("web-app", "s3cr3t"))
	if !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("err = %v, want ErrInvalidClient", err)
	}
}

func TestBasicStrategy_CanHandle(t *testing.T) {
	s := &basicStrategy{}
	declared := &repository.Client{TokenEndpointAuthMethod: repository.AuthMethodBasic}
	undeclared := &repository.Client{}
	otherMethod := &repository.Client{TokenEndpointAuthMethod: repository.AuthMethodPost}

	if !s.CanHandle(declared, formRequest(nil)) {
		t.Fatal("método declarado siempre aplica")
	}
	if !s.CanHandle(undeclared, basicRequest("a", "b")) {
		t.Fatal("sin preferencia + header Basic aplica")
	}
	if s.CanHandle(undeclared, formRequest(nil)) {
		t.Fatal("sin preferencia ni header no aplica")
	}
	if s.CanHandle(otherMethod, basicRequest("a", "b")) {
		t.Fatal("otro método declarado no aplica")
	}
}

// ---------- post ----------

func TestPostStrategy(t *testing.T) {
	client := &repository.Client{ClientID: "web-app", TokenEndpointAuthMethod: repository.AuthMethodPost}
	s := &postStrategy{secrets: &fakeSecrets{secret: "s3cr3t"}}

	ok := formRequest(url.Values{"client_id": {"web-app"}, "client_secret": {"s3cr3t"}})
	if err := s.Authenticate(context.Background(), client, ok); err != nil {
		t.Fatalf("err: %v", err)
	}

	bad := formRequest(url.Values{"client_id": {"web-app"}, "client_secret": {"nope"}})
	if err := s.Authenticate(context.Background(), client, bad); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("err = %v", err)
	}
	missing := formRequest(url.Values{"client_id": {"web-app"}})
	if err := s.Authenticate(context.Background(), client, missing); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("err = %v", err)
	}
}

// ---------- assertion ----------

func TestAssertionStrategy(t *testing.T) {
	client := &repository.Client{ClientID: "svc", TokenEndpointAuthMethod: repository.AuthMethodPrivateKeyJWT}

	withAssertion := func(extra url.Values) *http.Request {
		v := url.Values{
			"client_assertion_type": {"urn:ietf:params:oauth:client-assertion-type:jwt-bearer"},
			"client_assertion":      {"eyJ..."},
		}
		for k, vals := range extra {
			v[k] = vals
		}
		return formRequest(v)
	}

	s := &assertionStrategy{verifier: &fakeVerifier{id: "svc"}}
	if err := s.Authenticate(context.Background(), client, withAssertion(nil)); err != nil {
		t.Fatalf("err: %v", err)
	}

	// client_id explícito inconsistente con la assertion.
	if err := s.Authenticate(context.Background(), client,
		withAssertion(url.Values{"client_id": {"otro"}})); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("err = %v", err)
	}

	// Assertion resuelve a otro client.
	other := &assertionStrategy{verifier: &fakeVerifier{id: "intruso"}}
	if err := other.Authenticate(context.Background(), client, withAssertion(nil)); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("err = %v", err)
	}

	// Fallo criptográfico colapsa en ErrInvalidClient.
	broken := &assertionStrategy{verifier: &fakeVerifier{err: errors.New("bad sig")}}
	if err := broken.Authenticate(context.Background(), client, withAssertion(nil)); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("err = %v", err)
	}

	// Parámetros faltantes: fallo estructural.
	if err := s.Authenticate(context.Background(), client, formRequest(nil)); !errors.Is(err, ErrUnsupportedMethod) {
		t.Fatalf("err = %v", err)
	}
}

// ---------- mtls ----------

func selfSignedCert(t *testing.T, subject pkix.Name, dnsNames []string) *x509.Certificate {
	t.Helper()
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	tmpl := &x509.Certificate{
		SerialNumber: big.NewInt(time.Now().UnixNano()),
		Subject:      subject,
		DNSNames:     dnsNames,
		NotBefore:    time.Now().Add(-time.Hour),
		NotAfter:     time.Now().Add(time.Hour),
	}
	der, err := x509.CreateCertificate(rand.Reader, tmpl, tmpl, &key.PublicKey, key)
	if err != nil {
		t.Fatal(err)
	}
	cert, err := x509.ParseCertificate(der)
	if err != nil {
		t.Fatal(err)
	}
	return cert
}

func tlsRequest(cert *x509.Certificate) *http.Request {
	r := formRequest(nil)
	r.TLS = &tls.ConnectionState{PeerCertificates: []*x509.Certificate{cert}}
	return r
}

func TestMTLSStrategy_SubjectDN(t *testing.T) {
	cert := selfSignedCert(t, pkix.Name{
		CommonName:   "client.example.com",
		Organization: []string{"Acme"},
	}, nil)
	s := &mtlsStrategy{}

	// La comparación de DN normaliza espacios y case de los atributos.
	client := &repository.Client{
		ClientID:                "m1",
		TokenEndpointAuthMethod: repository.AuthMethodTLS,
		MTLS:                    &repository.MTLSBinding{SubjectDN: "cn=client.example.com, o=Acme"},
	}
	if err := s.Authenticate(context.Background(), client, tlsRequest(cert)); err != nil {
		t.Fatalf("err: %v", err)
	}

	wrong := &repository.Client{
		ClientID:                "m1",
		TokenEndpointAuthMethod: repository.AuthMethodTLS,
		MTLS:                    &repository.MTLSBinding{SubjectDN: "CN=otro.example.com,O=Acme"},
	}
	if err := s.Authenticate(context.Background(), wrong, tlsRequest(cert)); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("err = %v", err)
	}
}

func TestMTLSStrategy_SANDNS(t *testing.T) {
	cert := selfSignedCert(t, pkix.Name{CommonName: "whatever"}, []string{"api.acme.io"})
	client := &repository.Client{
		ClientID:                "m1",
		TokenEndpointAuthMethod: repository.AuthMethodTLS,
		MTLS:                    &repository.MTLSBinding{SANDNS: []string{"api.acme.io"}},
	}
	if err := (&mtlsStrategy{}).Authenticate(context.Background(), client, tlsRequest(cert)); err != nil {
		t.Fatalf("err: %v", err)
	}
}

func TestMTLSStrategy_NoSessionOrBinding(t *testing.T) {
	cert := selfSignedCert(t, pkix.Name{CommonName: "c"}, nil)
	s := &mtlsStrategy{}
	bound := &repository.Client{
		ClientID:                "m1",
		TokenEndpointAuthMethod: repository.AuthMethodTLS,
		MTLS:                    &repository.MTLSBinding{SubjectDN: "CN=c"},
	}
	if err := s.Authenticate(context.Background(), bound, formRequest(nil)); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("sin TLS: err = %v", err)
	}
	unbound := &repository.Client{ClientID: "m1", TokenEndpointAuthMethod: repository.AuthMethodTLS}
	if err := s.Authenticate(context.Background(), unbound, tlsRequest(cert)); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("sin binding: err = %v", err)
	}
}

// ---------- self_signed_tls_client_auth ----------

func TestSelfSignedStrategy_ThumbprintMatch(t *testing.T) {
	cert := selfSignedCert(t, pkix.Name{CommonName: "selfie"}, nil)

	key, err := jwk.Import(cert.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if err := key.Set(jwk.X509CertThumbprintS256Key, tokens.CertThumbprintSHA256(cert)); err != nil {
		t.Fatal(err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		t.Fatal(err)
	}
	jwks, err := json.Marshal(set)
	if err != nil {
		t.Fatal(err)
	}

	client := &repository.Client{
		ClientID:                "selfie",
		TokenEndpointAuthMethod: repository.AuthMethodSelfSignedTLS,
		JWKS:                    jwks,
	}
	s := &selfSignedStrategy{}
	if err := s.Authenticate(context.Background(), client, tlsRequest(cert)); err != nil {
		t.Fatalf("err: %v", err)
	}

	// Un certificado distinto no matchea el thumbprint registrado.
	other := selfSignedCert(t, pkix.Name{CommonName: "selfie"}, nil)
	if err := s.Authenticate(context.Background(), client, tlsRequest(other)); !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("err = %v", err)
	}
}

func TestSelfSignedStrategy_ForwardedHeader(t *testing.T) {
	cert := selfSignedCert(t, pkix.Name{CommonName: "selfie"}, nil)

	key, err := jwk.Import(cert.PublicKey)
	if err != nil {
		t.Fatal(err)
	}
	if err := key.Set(jwk.X509CertThumbprintKey, tokens.CertThumbprintSHA1(cert)); err != nil {
		t.Fatal(err)
	}
	set := jwk.NewSet()
	if err := set.AddKey(key); err != nil {
		t.Fatal(err)
	}
	jwks, err := json.Marshal(set)
	if err != nil {
		t.Fatal(err)
	}
	client := &repository.Client{
		ClientID:                "selfie",
		TokenEndpointAuthMethod: repository.AuthMethodSelfSignedTLS,
		JWKS:                    jwks,
	}

	pemCert := pem.EncodeToMemory(&pem.Block{Type: "CERTIFICATE", Bytes: cert.Raw})
	r := formRequest(nil)
	r.Header.Set("X-Forwarded-Client-Cert", url.QueryEscape(string(pemCert)))

	s := &selfSignedStrategy{forwardedHeader: "X-Forwarded-Client-Cert"}
	if err := s.Authenticate(context.Background(), client, r); err != nil {
		t.Fatalf("err: %v", err)
	}
}

func TestSelfSignedStrategy_NoJWKS(t *testing.T) {
	cert := selfSignedCert(t, pkix.Name{CommonName: "selfie"}, nil)
	client := &repository.Client{
		ClientID:                "selfie",
		TokenEndpointAuthMethod: repository.AuthMethodSelfSignedTLS,
	}
	err := (&selfSignedStrategy{}).Authenticate(context.Background(), client, tlsRequest(cert))
	if !errors.Is(err, ErrInvalidClient) {
		t.Fatalf("err = %v", err)
	}
}

// ---------- none ----------

func TestNoneStrategy(t *testing.T) {
	s := &noneStrategy{}
	public := &repository.Client{ClientID: "spa", TokenEndpointAuthMethod: repository.AuthMethodNone}

	if !s.CanHandle(public, formRequest(url.Values{"grant_type": {"authorization_code"}})) {
		t.Fatal("none aplica para grants que no son client_credentials")
	}
	if s.CanHandle(public, formRequest(url.Values{"grant_type": {"client_credentials"}})) {
		t.Fatal("none no puede usar client_credentials")
	}
	if s.CanHandle(&repository.Client{ClientID: "x"}, formRequest(nil)) {
		t.Fatal("solo aplica con método none declarado")
	}
	if err := s.Authenticate(context.Background(), public, formRequest(nil)); err != nil {
		t.Fatalf("err: %v", err)
	}
}
