package jwt

import (
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func testIssuer(t *testing.T) *Issuer {
	t.Helper()
	ks, err := NewDevEd25519("test-1")
	if err != nil {
		t.Fatal(err)
	}
	return NewIssuer("https://login.example.com", ks)
}

func TestIssuer_ResetTokenRoundTrip(t *testing.T) {
	iss := testIssuer(t)
	tok, err := iss.SignResetToken("u1", "web-app", "/v2/auth/authorize?client_id=web-app")
	if err != nil {
		t.Fatal(err)
	}
	userID, clientID, err := iss.ParseResetToken(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != "u1" || clientID != "web-app" {
		t.Fatalf("got %q/%q", userID, clientID)
	}
}

func TestIssuer_RememberMeRoundTrip(t *testing.T) {
	iss := testIssuer(t)
	tok, err := iss.SignRememberMe("u1")
	if err != nil {
		t.Fatal(err)
	}
	sub, err := iss.ParseRememberMe(tok)
	if err != nil || sub != "u1" {
		t.Fatalf("got %q, %v", sub, err)
	}
}

func TestIssuer_DeviceTokenRoundTrip(t *testing.T) {
	iss := testIssuer(t)
	tok, err := iss.SignDeviceToken("u1", "d-abc")
	if err != nil {
		t.Fatal(err)
	}
	userID, deviceID, err := iss.ParseDeviceToken(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != "u1" || deviceID != "d-abc" {
		t.Fatalf("got %q/%q", userID, deviceID)
	}
}

func TestIssuer_MFAChallengeRoundTrip(t *testing.T) {
	iss := testIssuer(t)
	tok, err := iss.SignMFAChallenge("u1", "otp")
	if err != nil {
		t.Fatal(err)
	}
	userID, factor, err := iss.ParseMFAChallenge(tok)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if userID != "u1" || factor != "otp" {
		t.Fatalf("got %q/%q", userID, factor)
	}
}

func TestIssuer_PurposeIsEnforced(t *testing.T) {
	iss := testIssuer(t)
	// Un remember-me no sirve como token de reset ni de device.
	tok, err := iss.SignRememberMe("u1")
	if err != nil {
		t.Fatal(err)
	}
	if _, _, err := iss.ParseResetToken(tok); !errors.Is(err, ErrWrongPurpose) {
		t.Fatalf("reset: err = %v", err)
	}
	if _, _, err := iss.ParseDeviceToken(tok); !errors.Is(err, ErrWrongPurpose) {
		t.Fatalf("device: err = %v", err)
	}
}

func TestIssuer_Expiry(t *testing.T) {
	iss := testIssuer(t)
	iss.RememberMeTTL = -time.Minute // más allá del leeway
	tok, err := iss.SignRememberMe("u1")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := iss.ParseRememberMe(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v", err)
	}
}

func TestIssuer_WrongIssuer(t *testing.T) {
	a := testIssuer(t)
	tok, err := a.SignRememberMe("u1")
	if err != nil {
		t.Fatal(err)
	}
	b := NewIssuer("https://otro.example.com", a.Keys)
	if _, err := b.ParseRememberMe(tok); !errors.Is(err, ErrInvalidIssuer) {
		t.Fatalf("err = %v", err)
	}
}

func TestIssuer_WrongKey(t *testing.T) {
	a := testIssuer(t)
	tok, err := a.SignRememberMe("u1")
	if err != nil {
		t.Fatal(err)
	}
	b := testIssuer(t) // otra clave, mismo kid no importa: la firma no valida
	if _, err := b.ParseRememberMe(tok); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v", err)
	}
}

func TestIssuer_GarbageToken(t *testing.T) {
	iss := testIssuer(t)
	if _, err := iss.ParseRememberMe("no-es-un-jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("err = %v", err)
	}
}

func TestLoadOrCreate_PersistsSeed(t *testing.T) {
	path := filepath.Join(t.TempDir(), "signing.seed")
	first, err := LoadOrCreate(path, "gj-1")
	if err != nil {
		t.Fatal(err)
	}
	second, err := LoadOrCreate(path, "gj-1")
	if err != nil {
		t.Fatal(err)
	}
	if !first.Pub.Equal(second.Pub) {
		t.Fatal("la seed persistida debe producir la misma clave")
	}
}

func TestKeySet_JWKSJSON(t *testing.T) {
	ks, err := NewDevEd25519("test-1")
	if err != nil {
		t.Fatal(err)
	}
	got := string(ks.JWKSJSON())
	for _, want := range []string{`"kid":"test-1"`, `"kty":"OKP"`, `"crv":"Ed25519"`, `"alg":"EdDSA"`} {
		if !strings.Contains(got, want) {
			t.Fatalf("JWKS %s no contiene %s", got, want)
		}
	}
}
