package validation

import "testing"

func TestValidScopeName_Valid(t *testing.T) {
	valids := []string{
		"a",
		"ab",
		"profile",
		"profile:read",
		"email:read:e2e123",
		"a_b-c.d:scope2",
		// 64 chars (start/end alnum)
		mkLen("a", 62) + "b", // a + 62 x 'a' + b
	}
	for _, v := range valids {
		if !ValidScopeName(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
}

func TestValidScopeName_Invalid(t *testing.T) {
	invalids := []string{
		"",               // empty
		":lead",          // starts with non-alnum
		"trail:",         // ends with non-alnum
		"bad space",      // space
		"UPPER",          // uppercase
		"semicolon;hack", // semicolon
		mkLen("a", 65),   // > 64
	}
	for _, v := range invalids {
		if ValidScopeName(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestValidClientID(t *testing.T) {
	valids := []string{"a", "Web-App", "svc:billing", "A1", mkLen("a", 128)}
	for _, v := range valids {
		if !ValidClientID(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
	invalids := []string{"", ":x", "x:", "con espacio", "a;b", mkLen("a", 129)}
	for _, v := range invalids {
		if ValidClientID(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

func TestValidReturnURL(t *testing.T) {
	valids := []string{"/", "/v2/auth/authorize?client_id=demo", "/dashboard"}
	for _, v := range valids {
		if !ValidReturnURL(v) {
			t.Fatalf("expected valid: %q", v)
		}
	}
	// Absolutos y protocol-relative son open redirects.
	invalids := []string{"", "https://evil.example.com", "//evil.example.com", `/\evil.example.com`, "dashboard"}
	for _, v := range invalids {
		if ValidReturnURL(v) {
			t.Fatalf("expected invalid: %q", v)
		}
	}
}

// mkLen builds a string of exactly n 'a' characters, optionally with given prefix if provided in future.
func mkLen(prefix string, total int) string {
	if total <= len(prefix) {
		return prefix[:total]
	}
	out := make([]byte, total)
	copy(out, []byte(prefix))
	for i := len(prefix); i < total; i++ {
		out[i] = 'a'
	}
	return string(out)
}
