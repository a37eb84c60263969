package services

import (
	"context"
	"crypto/ed25519"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	jwtv5 "github.com/golang-jwt/jwt/v5"
	"github.com/lestrrat-go/jwx/v3/jwk"

	"github.com/dropDatabas3/gatejohn/internal/cache"
	"github.com/dropDatabas3/gatejohn/internal/clientauth"
	"github.com/dropDatabas3/gatejohn/internal/domain/repository"
	"github.com/dropDatabas3/gatejohn/internal/flow"
	"github.com/dropDatabas3/gatejohn/internal/jwt"
)

type fakeClients struct {
	clients map[string]*repository.Client
	secret  string
}

func (f *fakeClients) Get(_ context.Context, id string) (*repository.Client, error) {
	if c, ok := f.clients[id]; ok {
		return c, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeClients) DecryptSecret(_ context.Context, _ *repository.Client) (string, error) {
	return f.secret, nil
}

type fakeDevices struct {
	trusted map[string]string // userID -> deviceHash
}

func (f *fakeDevices) AddTrustedDevice(_ context.Context, userID, hash string, _ time.Time) error {
	if f.trusted == nil {
		f.trusted = map[string]string{}
	}
	f.trusted[userID] = hash
	return nil
}

func (f *fakeDevices) IsTrustedDevice(_ context.Context, userID, hash string) (bool, error) {
	return f.trusted[userID] == hash, nil
}

func (f *fakeDevices) RemoveTrustedDevices(_ context.Context, userID string) error {
	delete(f.trusted, userID)
	return nil
}

// ---------- SessionStore ----------

func TestSessionStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	store := &SessionStore{Cache: cache.NewMemory("t")}

	sid, err := store.NewSessionID()
	if err != nil || sid == "" {
		t.Fatalf("sid = %q, %v", sid, err)
	}

	state := &flow.SessionState{StrongAuthCompleted: true, ReturnURL: "/v2/auth/authorize?client_id=demo"}
	if err := store.Save(ctx, sid, state, "u1"); err != nil {
		t.Fatal(err)
	}
	got, userID, err := store.Load(ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	if userID != "u1" || !got.StrongAuthCompleted || got.ReturnURL != state.ReturnURL {
		t.Fatalf("got %+v user %q", got, userID)
	}

	if err := store.Drop(ctx, sid); err != nil {
		t.Fatal(err)
	}
	got, userID, err = store.Load(ctx, sid)
	if err != nil {
		t.Fatal(err)
	}
	if userID != "" || got.StrongAuthCompleted {
		t.Fatalf("tras drop: %+v user %q", got, userID)
	}
}

func TestSessionStore_UnknownSessionIsEmpty(t *testing.T) {
	store := &SessionStore{Cache: cache.NewMemory("t")}
	state, userID, err := store.Load(context.Background(), "nope")
	if err != nil {
		t.Fatal(err)
	}
	if userID != "" || state == nil || state.StrongAuthCompleted {
		t.Fatalf("state %+v user %q", state, userID)
	}
}

// ---------- AssertionService ----------

const tokenEndpoint = "https://login.example.com"

func hmacAssertion(t *testing.T, secret string, claims jwtv5.MapClaims) string {
	t.Helper()
	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodHS256, claims)
	s, err := tok.SignedString([]byte(secret))
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func stdClaims(iss string) jwtv5.MapClaims {
	return jwtv5.MapClaims{
		"iss": iss,
		"sub": iss,
		"aud": tokenEndpoint + "/v2/oauth/token",
		"exp": time.Now().Add(time.Minute).Unix(),
		"jti": "j1",
	}
}

func TestAssertionService_ClientSecretJWT(t *testing.T) {
	clients := &fakeClients{
		secret: "hmac-secret",
		clients: map[string]*repository.Client{
			"svc": {ClientID: "svc", TokenEndpointAuthMethod: repository.AuthMethodSecretJWT},
		},
	}
	svc := &AssertionService{Clients: clients}

	id, err := svc.Verify(context.Background(),
		assertionTypeJWTBearer, hmacAssertion(t, "hmac-secret", stdClaims("svc")), tokenEndpoint)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if id != "svc" {
		t.Fatalf("id = %q", id)
	}

	// Firma con otro secret.
	_, err = svc.Verify(context.Background(),
		assertionTypeJWTBearer, hmacAssertion(t, "wrong", stdClaims("svc")), tokenEndpoint)
	if !errors.Is(err, clientauth.ErrInvalidClient) {
		t.Fatalf("err = %v", err)
	}
}

func TestAssertionService_PrivateKeyJWT(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(rand.Reader)
	if err != nil {
		t.Fatal(err)
	}
	key, err := jwk.Import(pub)
	if err != nil {
		t.Fatal(err)
	}
	if err := key.Set(jwk.KeyIDKey, "k1"); err != nil {
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

	clients := &fakeClients{clients: map[string]*repository.Client{
		"svc": {ClientID: "svc", TokenEndpointAuthMethod: repository.AuthMethodPrivateKeyJWT, JWKS: jwks},
	}}
	svc := &AssertionService{Clients: clients}

	tok := jwtv5.NewWithClaims(jwtv5.SigningMethodEdDSA, stdClaims("svc"))
	tok.Header["kid"] = "k1"
	signed, err := tok.SignedString(priv)
	if err != nil {
		t.Fatal(err)
	}

	id, err := svc.Verify(context.Background(), assertionTypeJWTBearer, signed, tokenEndpoint)
	if err != nil {
		t.Fatalf("err: %v", err)
	}
	if id != "svc" {
		t.Fatalf("id = %q", id)
	}
}

func TestAssertionService_Rejections(t *testing.T) {
	clients := &fakeClients{
		secret: "hmac-secret",
		clients: map[string]*repository.Client{
			"svc": {ClientID: "svc", TokenEndpointAuthMethod: repository.AuthMethodSecretJWT},
			"pkj": {ClientID: "pkj", TokenEndpointAuthMethod: repository.AuthMethodPrivateKeyJWT},
		},
	}
	svc := &AssertionService{Clients: clients}
	ctx := context.Background()

	// Tipo de assertion desconocido: fallo estructural.
	if _, err := svc.Verify(ctx, "urn:otro", "x", tokenEndpoint); !errors.Is(err, clientauth.ErrUnsupportedMethod) {
		t.Fatalf("tipo: err = %v", err)
	}

	// iss != sub.
	bad := stdClaims("svc")
	bad["sub"] = "otro"
	if _, err := svc.Verify(ctx, assertionTypeJWTBearer,
		hmacAssertion(t, "hmac-secret", bad), tokenEndpoint); !errors.Is(err, clientauth.ErrInvalidClient) {
		t.Fatalf("iss/sub: err = %v", err)
	}

	// Client desconocido.
	if _, err := svc.Verify(ctx, assertionTypeJWTBearer,
		hmacAssertion(t, "hmac-secret", stdClaims("fantasma")), tokenEndpoint); !errors.Is(err, clientauth.ErrInvalidClient) {
		t.Fatalf("client: err = %v", err)
	}

	// HMAC contra un client private_key_jwt: inconsistente con el método.
	if _, err := svc.Verify(ctx, assertionTypeJWTBearer,
		hmacAssertion(t, "hmac-secret", stdClaims("pkj")), tokenEndpoint); !errors.Is(err, clientauth.ErrInvalidClient) {
		t.Fatalf("alg: err = %v", err)
	}

	// Audience ajena.
	foreign := stdClaims("svc")
	foreign["aud"] = "https://otro.example.com/token"
	if _, err := svc.Verify(ctx, assertionTypeJWTBearer,
		hmacAssertion(t, "hmac-secret", foreign), tokenEndpoint); !errors.Is(err, clientauth.ErrInvalidClient) {
		t.Fatalf("aud: err = %v", err)
	}
}

func TestAudienceMatches_BasePathOrFullEndpoint(t *testing.T) {
	for aud, want := range map[string]bool{
		tokenEndpoint:                        true,
		tokenEndpoint + "/":                  true,
		tokenEndpoint + "/v2/oauth/token":    true,
		"https://otro.example.com":           false,
		tokenEndpoint + "/v2/auth/authorize": false,
	} {
		got := audienceMatches(jwtv5.MapClaims{"aud": aud}, tokenEndpoint)
		if got != want {
			t.Fatalf("aud %q: got %v", aud, got)
		}
	}
}

// ---------- DeviceService ----------

func TestDeviceService_RememberAndVerify(t *testing.T) {
	ks, err := jwt.NewDevEd25519("t1")
	if err != nil {
		t.Fatal(err)
	}
	svc := &DeviceService{
		Issuer:  jwt.NewIssuer("https://login.example.com", ks),
		Devices: &fakeDevices{},
	}
	ctx := context.Background()

	cookie, err := svc.Remember(ctx, "u1", "d1")
	if err != nil {
		t.Fatal(err)
	}
	ok, err := svc.VerifyDevice(ctx, cookie)
	if err != nil || !ok {
		t.Fatalf("verify = %v, %v", ok, err)
	}

	// Cookie corrupta no es error, solo "no reconocido".
	ok, err = svc.VerifyDevice(ctx, "basura")
	if err != nil || ok {
		t.Fatalf("basura = %v, %v", ok, err)
	}

	if err := svc.Forget(ctx, "u1"); err != nil {
		t.Fatal(err)
	}
	ok, err = svc.VerifyDevice(ctx, cookie)
	if err != nil || ok {
		t.Fatalf("tras forget = %v, %v", ok, err)
	}
}

// ---------- WebAuthnService (challenges) ----------

func TestWebAuthnService_ChallengeIsSingleUse(t *testing.T) {
	svc := &WebAuthnService{Cache: cache.NewMemory("t"), ChallengeTTL: time.Minute}
	ctx := context.Background()

	id, challenge, err := svc.newChallenge(ctx, "register", "u1")
	if err != nil {
		t.Fatal(err)
	}
	got, err := svc.consumeChallenge(ctx, id, "register", "u1")
	if err != nil || got != challenge {
		t.Fatalf("got %q, %v", got, err)
	}
	// Segundo intento con el mismo id: consumido.
	if _, err := svc.consumeChallenge(ctx, id, "register", "u1"); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestWebAuthnService_ChallengeBinding(t *testing.T) {
	svc := &WebAuthnService{Cache: cache.NewMemory("t")}
	ctx := context.Background()

	id, _, err := svc.newChallenge(ctx, "register", "u1")
	if err != nil {
		t.Fatal(err)
	}
	// Kind distinto no consume el challenge de otra ceremonia.
	if _, err := svc.consumeChallenge(ctx, id, "login", "u1"); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("kind: err = %v", err)
	}
	id, _, err = svc.newChallenge(ctx, "login", "u1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := svc.consumeChallenge(ctx, id, "login", "otro"); !errors.Is(err, ErrChallengeNotFound) {
		t.Fatalf("user: err = %v", err)
	}
}

func TestWebAuthnService_VerifyClientData(t *testing.T) {
	svc := &WebAuthnService{RPOrigin: "https://login.example.com"}
	cdj := func(typ, challenge, origin string) []byte {
		b, _ := json.Marshal(clientData{Type: typ, Challenge: challenge, Origin: origin})
		return b
	}

	ok := cdj("webauthn.create", "chal", "https://login.example.com")
	if err := svc.verifyClientData(ok, "webauthn.create", "chal"); err != nil {
		t.Fatalf("err: %v", err)
	}
	for name, raw := range map[string][]byte{
		"tipo":      cdj("webauthn.get", "chal", "https://login.example.com"),
		"challenge": cdj("webauthn.create", "otro", "https://login.example.com"),
		"origin":    cdj("webauthn.create", "chal", "https://evil.example.com"),
		"json":      []byte("{"),
	} {
		if err := svc.verifyClientData(raw, "webauthn.create", "chal"); !errors.Is(err, ErrClientDataMismatch) {
			t.Fatalf("%s: err = %v", name, err)
		}
	}
}

// ---------- resolveClientID ----------

func TestResolveClientID(t *testing.T) {
	post := func(values url.Values, header string) string {
		r := httptest.NewRequest("POST", "/v2/oauth/token", strings.NewReader(values.Encode()))
		r.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		if header != "" {
			r.Header.Set("Authorization", header)
		}
		return resolveClientID(r)
	}

	basic := "Basic " + base64.StdEncoding.EncodeToString([]byte("web-app:secreto"))
	if got := post(nil, basic); got != "web-app" {
		t.Fatalf("basic: %q", got)
	}
	if got := post(url.Values{"client_id": {"spa"}}, ""); got != "spa" {
		t.Fatalf("form: %q", got)
	}

	assertion := hmacAssertion(t, "s", stdClaims("svc"))
	if got := post(url.Values{"client_assertion": {assertion}}, ""); got != "svc" {
		t.Fatalf("assertion: %q", got)
	}

	if got := post(nil, ""); got != "" {
		t.Fatalf("vacío: %q", got)
	}
}
