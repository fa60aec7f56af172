package gate

import (
	"context"
	"errors"
	"testing"

	"github.com/ziadkadry99/folio/internal/auth"
)

type recordingView struct {
	calls    []string
	revealed bool
}

func (v *recordingView) ShowLogin() { v.calls = append(v.calls, "login") }

func (v *recordingView) Deny(email string) { v.calls = append(v.calls, "deny:"+email) }

func (v *recordingView) RevealAdmin(string) {
	v.calls = append(v.calls, "reveal")
	v.revealed = true
}

func TestAllowlist(t *testing.T) {
	a := NewAllowlist("Owner@Example.com ", "", "second@example.com")
	if a.Len() != 2 {
		t.Errorf("Len = %d, want 2", a.Len())
	}
	if !a.Allowed("owner@example.com") {
		t.Error("expected case-insensitive match")
	}
	if a.Allowed("attacker@example.com") {
		t.Error("attacker must not be allowed")
	}
	var nilList *Allowlist
	if nilList.Allowed("owner@example.com") {
		t.Error("nil allowlist must deny")
	}
}

func TestInitialStateLoggedOut(t *testing.T) {
	g := New(NewAllowlist(), &recordingView{}, nil, nil)
	if g.State() != LoggedOut {
		t.Errorf("initial state = %v, want %v", g.State(), LoggedOut)
	}
}

func TestNoIdentityShowsLogin(t *testing.T) {
	view := &recordingView{}
	g := New(NewAllowlist("owner@example.com"), view, nil, nil)

	state, err := g.Handle(context.Background(), nil)
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if state != LoggedOut {
		t.Errorf("state = %v, want %v", state, LoggedOut)
	}
	if len(view.calls) != 1 || view.calls[0] != "login" {
		t.Errorf("view calls = %v", view.calls)
	}
}

func TestUnauthorizedIdentityIsSignedOut(t *testing.T) {
	view := &recordingView{}
	signedOut := 0
	loads := 0
	var g *Gate
	g = New(NewAllowlist("owner@example.com"), view,
		func(ctx context.Context) error {
			signedOut++
			// Sign-out publishes a nil identity; the gate sees it next.
			return nil
		},
		func(ctx context.Context) error {
			loads++
			return nil
		},
	)

	state, err := g.Handle(context.Background(), &auth.Identity{Email: "attacker@example.com"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if state != Unauthorized {
		t.Errorf("state = %v, want %v", state, Unauthorized)
	}
	if signedOut != 1 {
		t.Errorf("sign-out calls = %d, want 1", signedOut)
	}
	if loads != 0 {
		t.Errorf("load calls = %d, want 0", loads)
	}
	if view.revealed {
		t.Error("admin content must never be revealed")
	}
	if view.calls[0] != "deny:attacker@example.com" {
		t.Errorf("view calls = %v", view.calls)
	}

	state, _ = g.Handle(context.Background(), nil)
	if state != LoggedOut {
		t.Errorf("after sign-out event state = %v, want %v", state, LoggedOut)
	}
	if view.revealed {
		t.Error("admin content must never be revealed")
	}
}

func TestAuthorizedIdentityLoads(t *testing.T) {
	view := &recordingView{}
	loads := 0
	g := New(NewAllowlist("owner@example.com"), view, nil, func(ctx context.Context) error {
		loads++
		return nil
	})

	state, err := g.Handle(context.Background(), &auth.Identity{Email: "OWNER@example.com"})
	if err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if state != Authorized {
		t.Errorf("state = %v, want %v", state, Authorized)
	}
	if !view.revealed || loads != 1 {
		t.Errorf("revealed = %v, loads = %d", view.revealed, loads)
	}
}

func TestLoadFailureKeepsAuthorized(t *testing.T) {
	g := New(NewAllowlist("owner@example.com"), &recordingView{}, nil, func(ctx context.Context) error {
		return errors.New("backend down")
	})
	state, err := g.Handle(context.Background(), &auth.Identity{Email: "owner@example.com"})
	if err == nil {
		t.Error("expected load error to be reported")
	}
	if state != Authorized {
		t.Errorf("state = %v, want %v", state, Authorized)
	}
}

func TestStateString(t *testing.T) {
	if Authorized.String() != "authorized" || Unauthorized.String() != "unauthorized" || LoggedOut.String() != "logged_out" {
		t.Error("unexpected state names")
	}
}
