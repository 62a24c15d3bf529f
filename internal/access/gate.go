package access

import (
	"errors"

	"github.com/foxzi/statboard/internal/session"
)

var (
	ErrSignInRequired = errors.New("not signed in: run `statboard signin` first")
	ErrAdminRequired  = errors.New("admin privileges required")
	ErrUnresolved     = errors.New("session not resolved yet")
)

// Requirement is the privilege a view needs
type Requirement int

const (
	RequireUser Requirement = iota
	RequireAdmin
)

// Outcome of a gate evaluation
type Outcome int

const (
	Loading Outcome = iota
	RedirectSignIn
	RedirectDefault
	Allow
)

func (o Outcome) String() string {
	switch o {
	case RedirectSignIn:
		return "redirect_signin"
	case RedirectDefault:
		return "redirect_default"
	case Allow:
		return "allow"
	default:
		return "loading"
	}
}

// Decision is the result of evaluating the gate
type Decision struct {
	Outcome  Outcome
	Location string // redirect target, empty unless redirecting
}

// Err maps a non-Allow decision to an error for non-interactive callers
func (d Decision) Err() error {
	switch d.Outcome {
	case Allow:
		return nil
	case RedirectSignIn:
		return ErrSignInRequired
	case RedirectDefault:
		return ErrAdminRequired
	default:
		return ErrUnresolved
	}
}

// Gate holds the redirect targets
type Gate struct {
	SignInPath  string
	DefaultPath string
}

// Default is the gate used by the served dashboard
var Default = Gate{SignInPath: "/", DefaultPath: "/dashboard"}

// Evaluate decides whether a protected view may render. Only the role is
// enforced here; account status is the backend's concern.
func (g Gate) Evaluate(snap session.Snapshot, req Requirement) Decision {
	switch snap.State {
	case session.StateUnresolved:
		return Decision{Outcome: Loading}
	case session.StateAnonymous:
		return Decision{Outcome: RedirectSignIn, Location: g.SignInPath}
	}

	if snap.Identity == nil {
		return Decision{Outcome: RedirectSignIn, Location: g.SignInPath}
	}
	if req == RequireAdmin && !snap.Identity.IsAdmin() {
		return Decision{Outcome: RedirectDefault, Location: g.DefaultPath}
	}
	return Decision{Outcome: Allow}
}

// Evaluate uses the Default gate
func Evaluate(snap session.Snapshot, req Requirement) Decision {
	return Default.Evaluate(snap, req)
}

// Source is what Watch observes
type Source interface {
	Snapshot() session.Snapshot
	Subscribe(fn func(session.Snapshot)) func()
}

// Watch evaluates the gate now and again after every session transition,
// calling fn with each decision. The returned func stops watching.
func (g Gate) Watch(src Source, req Requirement, fn func(Decision)) func() {
	stop := src.Subscribe(func(snap session.Snapshot) {
		fn(g.Evaluate(snap, req))
	})
	fn(g.Evaluate(src.Snapshot(), req))
	return stop
}
