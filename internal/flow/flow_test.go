package flow

import (
	"context"
	"errors"
	"net/http/httptest"
	"testing"
)

// fakeStep registra si fue evaluado y devuelve un outcome fijo.
type fakeStep struct {
	name    string
	outcome Outcome
	err     error
	called  bool
}

func (s *fakeStep) Name() string { return s.name }
func (s *fakeStep) Evaluate(_ context.Context, _ *ExecutionContext) (Outcome, error) {
	s.called = true
	return s.outcome, s.err
}

func newEC() *ExecutionContext {
	r := httptest.NewRequest("GET", "/v2/auth/authorize?client_id=x", nil)
	return NewExecutionContext(r, nil, nil, nil)
}

func TestChain_RunsInOrderUntilExit(t *testing.T) {
	a := &fakeStep{name: "A", outcome: Continue()}
	b := &fakeStep{name: "B", outcome: Exit(Redirect("/login"))}
	c := &fakeStep{name: "C", outcome: Continue()}

	res, err := NewChain(a, b, c).Run(context.Background(), newEC())
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if res.ExitedAt != "B" {
		t.Fatalf("ExitedAt = %q, want B", res.ExitedAt)
	}
	if res.Action == nil || res.Action.RedirectURL != "/login" {
		t.Fatalf("unexpected action: %+v", res.Action)
	}
	if !a.called || !b.called {
		t.Fatal("A and B should have run")
	}
	if c.called {
		t.Fatal("C must not run after B exited")
	}
}

func TestChain_AllContinue(t *testing.T) {
	a := &fakeStep{name: "A", outcome: Continue()}
	b := &fakeStep{name: "B", outcome: Continue()}

	res, err := NewChain(a, b).Run(context.Background(), newEC())
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if res.ExitedAt != "" || res.Action != nil {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestChain_ExitWithoutAction(t *testing.T) {
	// Exit(nil) es pass-through: corta la cadena sin redirect.
	a := &fakeStep{name: "A", outcome: Exit(nil)}
	b := &fakeStep{name: "B", outcome: Continue()}

	res, err := NewChain(a, b).Run(context.Background(), newEC())
	if err != nil {
		t.Fatalf("Run err: %v", err)
	}
	if res.ExitedAt != "A" || res.Action != nil {
		t.Fatalf("expected pass-through exit at A, got %+v", res)
	}
	if b.called {
		t.Fatal("B must not run")
	}
}

func TestChain_StepErrorIsFatal(t *testing.T) {
	boom := errors.New("boom")
	a := &fakeStep{name: "A", err: boom}
	b := &fakeStep{name: "B", outcome: Continue()}

	res, err := NewChain(a, b).Run(context.Background(), newEC())
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want boom", err)
	}
	if res != nil {
		t.Fatalf("result should be nil on error, got %+v", res)
	}
	if b.called {
		t.Fatal("B must not run after fatal error")
	}
}

func TestAction_WithParam(t *testing.T) {
	a := Redirect("/mfa").WithParam("token", "t1").WithParam("hint", "h")
	if a.Params["token"] != "t1" || a.Params["hint"] != "h" {
		t.Fatalf("params = %v", a.Params)
	}
}

func TestSessionState_MapRoundTrip(t *testing.T) {
	s := &SessionState{
		StrongAuthCompleted: true,
		WebAuthnSkipped:     true,
		EnrolledFactor:      "totp-1",
		ReturnURL:           "/orig?client_id=x",
	}
	m := s.ToMap()
	if _, ok := m[KeyMFASkipped]; ok {
		t.Fatal("campos en false no se emiten")
	}
	got := SessionFromMap(m)
	if *got != *s {
		t.Fatalf("round trip: got %+v want %+v", got, s)
	}
}

func TestSessionFromMap_Nil(t *testing.T) {
	s := SessionFromMap(nil)
	if *s != (SessionState{}) {
		t.Fatalf("expected zero state, got %+v", s)
	}
}

func TestExecutionContext_ClearCookies(t *testing.T) {
	ec := newEC()
	ec.ClearCookie("gj_remember")
	ec.ClearCookie("gj_device")
	got := ec.ClearedCookies()
	if len(got) != 2 || got[0] != "gj_remember" || got[1] != "gj_device" {
		t.Fatalf("cleared = %v", got)
	}
}
