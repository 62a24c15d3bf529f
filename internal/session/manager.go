// Package session owns the signed-in identity of a client instance and the
// transitions between unresolved, authenticated and anonymous.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/foxzi/statboard/internal/credential"
	"github.com/foxzi/statboard/internal/metrics"
	"github.com/foxzi/statboard/internal/models"
)

// ErrNotAuthenticated is returned by RefreshProfile outside Authenticated
var ErrNotAuthenticated = errors.New("not authenticated")

// State of the session
type State int

const (
	StateUnresolved State = iota
	StateAuthenticated
	StateAnonymous
)

func (s State) String() string {
	switch s {
	case StateAuthenticated:
		return "authenticated"
	case StateAnonymous:
		return "anonymous"
	default:
		return "unresolved"
	}
}

// Snapshot is a point-in-time copy of the session
type Snapshot struct {
	State    State
	Identity *models.Identity
}

// Authenticated reports whether an identity is present
func (s Snapshot) Authenticated() bool {
	return s.State == StateAuthenticated && s.Identity != nil
}

// Backend is the part of the gateway the manager needs
type Backend interface {
	SignIn(ctx context.Context, email, password string) (*models.SignInResponse, error)
	SignUp(ctx context.Context, email, password string) (*models.SignUpResponse, error)
	ForgotPassword(ctx context.Context, email string) (*models.MessageResponse, error)
	Profile(ctx context.Context) (*models.Identity, error)
}

// Manager is the single writer of the credential and the current identity
type Manager struct {
	backend Backend
	creds   credential.Store
	logger  *slog.Logger

	mu       sync.RWMutex
	state    State
	identity *models.Identity

	subMu     sync.Mutex
	nextSubID int
	subs      map[int]func(Snapshot)
}

// NewManager creates a manager in the Unresolved state
func NewManager(backend Backend, creds credential.Store, logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{
		backend: backend,
		creds:   creds,
		logger:  logger,
		state:   StateUnresolved,
		subs:    make(map[int]func(Snapshot)),
	}
}

// Snapshot returns the current state and a copy of the identity
func (m *Manager) Snapshot() Snapshot {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return Snapshot{State: m.state, Identity: copyIdentity(m.identity)}
}

// Subscribe registers fn to be called after every transition.
// The returned func removes the subscription.
func (m *Manager) Subscribe(fn func(Snapshot)) func() {
	m.subMu.Lock()
	id := m.nextSubID
	m.nextSubID++
	m.subs[id] = fn
	m.subMu.Unlock()

	return func() {
		m.subMu.Lock()
		delete(m.subs, id)
		m.subMu.Unlock()
	}
}

// Bootstrap resolves the initial state from the stored credential. It never
// fails: an unusable credential is cleared and the session becomes Anonymous.
func (m *Manager) Bootstrap(ctx context.Context) Snapshot {
	token, ok, err := m.creds.Load()
	if err != nil {
		m.logger.Warn("failed to read stored credential", "error", err)
	}
	if err != nil || !ok || token == "" {
		m.setAnonymous()
		return m.Snapshot()
	}

	profile, err := m.backend.Profile(ctx)
	if err != nil {
		m.logger.Debug("stored credential rejected, signing out", "error", err)
		m.clearCredential()
		m.setAnonymous()
		return m.Snapshot()
	}

	m.setAuthenticated(profile)
	return m.Snapshot()
}

// SignIn authenticates, persists the token and loads the full profile. On any
// failure the credential is cleared, the session is Anonymous and the backend
// error is returned as is.
func (m *Manager) SignIn(ctx context.Context, email, password string) error {
	resp, err := m.backend.SignIn(ctx, email, password)
	if err != nil {
		m.clearCredential()
		m.setAnonymous()
		return err
	}

	if err := m.creds.Save(resp.AccessToken); err != nil {
		m.clearCredential()
		m.setAnonymous()
		return fmt.Errorf("failed to store credential: %w", err)
	}

	profile, err := m.backend.Profile(ctx)
	if err != nil {
		// No token may outlive a failed profile fetch
		m.clearCredential()
		m.setAnonymous()
		return err
	}

	m.setAuthenticated(profile)
	m.logger.Info("signed in", "email", profile.Email, "role", profile.Role)
	return nil
}

// SignUp creates a pending account. The session state does not change.
func (m *Manager) SignUp(ctx context.Context, email, password string) (*models.SignUpResponse, error) {
	return m.backend.SignUp(ctx, email, password)
}

// ForgotPassword starts a password reset. The session state does not change.
func (m *Manager) ForgotPassword(ctx context.Context, email string) (*models.MessageResponse, error) {
	return m.backend.ForgotPassword(ctx, email)
}

// SignOut drops the credential and identity without contacting the backend
func (m *Manager) SignOut() {
	m.clearCredential()
	m.setAnonymous()
}

// RefreshProfile re-reads the identity. A failure signs the session out.
func (m *Manager) RefreshProfile(ctx context.Context) error {
	if m.Snapshot().State != StateAuthenticated {
		return ErrNotAuthenticated
	}

	profile, err := m.backend.Profile(ctx)
	if err != nil {
		m.logger.Warn("profile refresh failed, signing out", "error", err)
		m.SignOut()
		return err
	}

	m.setAuthenticated(profile)
	return nil
}

func (m *Manager) clearCredential() {
	if err := m.creds.Clear(); err != nil {
		m.logger.Error("failed to clear credential", "error", err)
	}
}

func (m *Manager) setAuthenticated(profile *models.Identity) {
	m.transition(StateAuthenticated, copyIdentity(profile))
}

func (m *Manager) setAnonymous() {
	m.transition(StateAnonymous, nil)
}

func (m *Manager) transition(state State, identity *models.Identity) {
	m.mu.Lock()
	prev := m.state
	m.state = state
	m.identity = identity
	snap := Snapshot{State: state, Identity: copyIdentity(identity)}
	m.mu.Unlock()

	if prev != state {
		m.logger.Debug("session state changed", "from", prev.String(), "to", state.String())
	}
	metrics.IncSessionTransition(state.String())
	m.notify(snap)
}

func (m *Manager) notify(snap Snapshot) {
	m.subMu.Lock()
	fns := make([]func(Snapshot), 0, len(m.subs))
	for _, fn := range m.subs {
		fns = append(fns, fn)
	}
	m.subMu.Unlock()

	for _, fn := range fns {
		fn(snap)
	}
}

func copyIdentity(id *models.Identity) *models.Identity {
	if id == nil {
		return nil
	}
	c := *id
	return &c
}
