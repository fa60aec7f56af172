// Package gate is the admin console's authorization gate: a small state
// machine driven by identity events.
//
// The gate is a presentation check only. It decides what the console shows,
// but any caller can talk to the backend directly, so the backend must
// enforce the same Policy on its own. gateway.Guarded does that for every
// document and blob write; keep both in sync by injecting one Policy into
// both.
package gate

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ziadkadry99/folio/internal/auth"
)

// Policy decides which identities may administer the site.
type Policy interface {
	Allowed(email string) bool
}

// Allowlist is a fixed set of admin email addresses, compared
// case-insensitively.
type Allowlist struct {
	emails map[string]struct{}
}

// NewAllowlist builds an Allowlist. Blank entries are ignored.
func NewAllowlist(emails ...string) *Allowlist {
	a := &Allowlist{emails: make(map[string]struct{}, len(emails))}
	for _, e := range emails {
		if e = normalize(e); e != "" {
			a.emails[e] = struct{}{}
		}
	}
	return a
}

func normalize(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Allowed reports whether email is on the list.
func (a *Allowlist) Allowed(email string) bool {
	if a == nil {
		return false
	}
	_, ok := a.emails[normalize(email)]
	return ok
}

// Len returns the number of admins.
func (a *Allowlist) Len() int { return len(a.emails) }

// State is the gate's current state.
type State int

const (
	LoggedOut State = iota
	Unauthorized
	Authorized
)

func (s State) String() string {
	switch s {
	case LoggedOut:
		return "logged_out"
	case Unauthorized:
		return "unauthorized"
	case Authorized:
		return "authorized"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// View is the UI the gate drives.
type View interface {
	// ShowLogin shows the login affordance and hides admin content.
	ShowLogin()
	// Deny shows a blocking notice naming the rejected email. Admin content
	// stays hidden.
	Deny(email string)
	// RevealAdmin shows admin content for email.
	RevealAdmin(email string)
}

// Gate consumes identity events. It is safe for concurrent use.
type Gate struct {
	policy  Policy
	view    View
	signOut func(ctx context.Context) error
	load    func(ctx context.Context) error

	mu    sync.Mutex
	state State
}

// New creates a Gate in the LoggedOut state. signOut forces the current
// session out; load fetches the active category after authorization.
// Either may be nil.
func New(policy Policy, view View, signOut, load func(ctx context.Context) error) *Gate {
	return &Gate{policy: policy, view: view, signOut: signOut, load: load, state: LoggedOut}
}

// State returns the current state.
func (g *Gate) State() State {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// Handle applies one identity event and returns the resulting state. A
// rejected identity is signed out before Handle returns; the returned error
// reports a failed sign-out or load, and never changes the decision.
func (g *Gate) Handle(ctx context.Context, id *auth.Identity) (State, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	switch {
	case id == nil:
		g.state = LoggedOut
		g.view.ShowLogin()
		return g.state, nil

	case !g.policy.Allowed(id.Email):
		g.state = Unauthorized
		g.view.Deny(id.Email)
		if g.signOut != nil {
			if err := g.signOut(ctx); err != nil {
				return g.state, fmt.Errorf("signing out %s: %w", id.Email, err)
			}
		}
		return g.state, nil

	default:
		g.state = Authorized
		g.view.RevealAdmin(id.Email)
		if g.load != nil {
			if err := g.load(ctx); err != nil {
				return g.state, fmt.Errorf("loading admin data: %w", err)
			}
		}
		return g.state, nil
	}
}

// DenyMessage is the notice shown to a rejected identity.
func DenyMessage(email string) string {
	return fmt.Sprintf("Access denied. Your account (%s) is not authorized to use this admin panel.", email)
}
