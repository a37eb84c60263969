package password

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestHashVerify_RoundTrip(t *testing.T) {
	phc, err := Hash(Default, "Correct-Horse-7")
	if err != nil {
		t.Fatal(err)
	}
	if !strings.HasPrefix(phc, "$argon2id$v=19$") {
		t.Fatalf("formato PHC inesperado: %s", phc)
	}
	if !Verify("Correct-Horse-7", phc) {
		t.Fatal("el password original debe verificar")
	}
	if Verify("otra-cosa", phc) {
		t.Fatal("un password distinto no debe verificar")
	}
}

func TestHash_RejectsEmpty(t *testing.T) {
	if _, err := Hash(Default, ""); err == nil {
		t.Fatal("password vacío debe fallar")
	}
}

func TestVerify_MalformedPHC(t *testing.T) {
	for _, phc := range []string{
		"",
		"no-es-phc",
		"$argon2i$v=19$m=65536,t=3,p=1$c2FsdA$ZGs",
		"$argon2id$v=18$m=65536,t=3,p=1$c2FsdA$ZGs",
		"$argon2id$v=19$m=65536,t=3,p=1$!!!$ZGs",
		"$argon2id$v=19$m=65536,t=3,p=1$c2FsdA",
	} {
		if Verify("x", phc) {
			t.Fatalf("Verify(%q) debe ser false", phc)
		}
	}
}

func TestPolicy_Validate(t *testing.T) {
	policy := Policy{MinLength: 8, RequireUpper: true, RequireLower: true, RequireDigit: true}

	cases := []struct {
		pwd     string
		ok      bool
		reasons []string
	}{
		{"Abcdef12", true, nil},
		{"Ab1", false, []string{"too_short"}},
		{"abcdef12", false, []string{"missing_upper"}},
		{"ABCDEF12", false, []string{"missing_lower"}},
		{"Abcdefgh", false, []string{"missing_digit"}},
		{"ab1", false, []string{"too_short", "missing_upper"}},
	}
	for _, c := range cases {
		ok, reasons := policy.Validate(c.pwd)
		if ok != c.ok {
			t.Fatalf("Validate(%q) ok = %v", c.pwd, ok)
		}
		for _, want := range c.reasons {
			found := false
			for _, r := range reasons {
				if r == want {
					found = true
				}
			}
			if !found {
				t.Fatalf("Validate(%q) reasons = %v, falta %s", c.pwd, reasons, want)
			}
		}
	}
}

func TestPolicy_Symbol(t *testing.T) {
	policy := Policy{MinLength: 1, RequireSymbol: true}
	if ok, _ := policy.Validate("abc"); ok {
		t.Fatal("sin símbolo debe fallar")
	}
	if ok, reasons := policy.Validate("abc!"); !ok {
		t.Fatalf("reasons = %v", reasons)
	}
}

func TestBlacklist(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blacklist.txt")
	content := "# comunes\npassword\n 123456 \nQwErTy\n\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatal(err)
	}
	bl, err := LoadBlacklist(path)
	if err != nil {
		t.Fatal(err)
	}
	for _, pwd := range []string{"password", "PASSWORD", "123456", "qwerty", " password "} {
		if !bl.Contains(pwd) {
			t.Fatalf("Contains(%q) = false", pwd)
		}
	}
	if bl.Contains("# comunes") {
		t.Fatal("los comentarios no entran en la lista")
	}
	if bl.Contains("hunter2") {
		t.Fatal("hunter2 no está en la lista")
	}
}

func TestBlacklist_EmptyPath(t *testing.T) {
	bl, err := LoadBlacklist("")
	if err != nil {
		t.Fatal(err)
	}
	if bl.Contains("password") {
		t.Fatal("lista vacía no contiene nada")
	}
}

func TestBlacklist_NilReceiver(t *testing.T) {
	var bl *Blacklist
	if bl.Contains("x") {
		t.Fatal("nil blacklist nunca matchea")
	}
}
