package session

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/foxzi/statboard/internal/backend"
	"github.com/foxzi/statboard/internal/credential"
	"github.com/foxzi/statboard/internal/models"
)

type fakeBackend struct {
	signInErr  error
	profileErr error
	token      string
	profile    *models.Identity

	signInCalls  int
	profileCalls int
	signUpCalls  int
}

func (f *fakeBackend) SignIn(ctx context.Context, email, password string) (*models.SignInResponse, error) {
	f.signInCalls++
	if f.signInErr != nil {
		return nil, f.signInErr
	}
	return &models.SignInResponse{AccessToken: f.token, User: models.AccountStub{ID: f.profile.ID, Email: email}}, nil
}

func (f *fakeBackend) SignUp(ctx context.Context, email, password string) (*models.SignUpResponse, error) {
	f.signUpCalls++
	return &models.SignUpResponse{Message: "Registration successful", User: models.AccountStub{ID: "9", Email: email, Role: "user"}}, nil
}

func (f *fakeBackend) ForgotPassword(ctx context.Context, email string) (*models.MessageResponse, error) {
	return &models.MessageResponse{Message: "sent"}, nil
}

func (f *fakeBackend) Profile(ctx context.Context) (*models.Identity, error) {
	f.profileCalls++
	if f.profileErr != nil {
		return nil, f.profileErr
	}
	p := *f.profile
	return &p, nil
}

func newTestManager(b *fakeBackend) (*Manager, *credential.MemoryStore) {
	store := credential.NewMemoryStore()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewManager(b, store, logger), store
}

var approvedUser = &models.Identity{ID: "1", Email: "a@b.com", Role: models.RoleUser, Status: models.StatusApproved}

func TestNewManager_Unresolved(t *testing.T) {
	m, _ := newTestManager(&fakeBackend{profile: approvedUser})
	if got := m.Snapshot().State; got != StateUnresolved {
		t.Errorf("initial state = %v, want unresolved", got)
	}
}

func TestSignIn_Success(t *testing.T) {
	b := &fakeBackend{token: "tok", profile: approvedUser}
	m, store := newTestManager(b)

	if err := m.SignIn(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatalf("SignIn failed: %v", err)
	}

	snap := m.Snapshot()
	if snap.State != StateAuthenticated || !snap.Authenticated() {
		t.Fatalf("state = %v, want authenticated", snap.State)
	}
	if snap.Identity.Email != "a@b.com" {
		t.Errorf("identity = %+v", snap.Identity)
	}
	if token, ok, _ := store.Load(); !ok || token != "tok" {
		t.Errorf("stored token = %q, %v", token, ok)
	}
	if b.profileCalls != 1 {
		t.Errorf("profile fetched %d times, want 1", b.profileCalls)
	}
}

func TestSignIn_InvalidCredentials(t *testing.T) {
	apiErr := &backend.Error{Kind: backend.KindAuth, Message: "Invalid credentials", StatusCode: 401}
	b := &fakeBackend{signInErr: apiErr, profile: approvedUser}
	m, store := newTestManager(b)

	err := m.SignIn(context.Background(), "a@b.com", "wrong")
	if backend.MessageOr(err, "") != "Invalid credentials" {
		t.Errorf("error message = %v, want backend message", err)
	}
	if got := m.Snapshot().State; got != StateAnonymous {
		t.Errorf("state = %v, want anonymous", got)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("no credential may be persisted after failed sign-in")
	}
	if b.profileCalls != 0 {
		t.Error("profile must not be fetched when sign-in fails")
	}
}

func TestSignIn_ProfileFailureClearsToken(t *testing.T) {
	b := &fakeBackend{token: "tok", profile: approvedUser, profileErr: &backend.Error{Kind: backend.KindServer, Message: "down", StatusCode: 500}}
	m, store := newTestManager(b)

	if err := m.SignIn(context.Background(), "a@b.com", "x"); err == nil {
		t.Fatal("expected error")
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("token must be cleared when profile fetch fails")
	}
	snap := m.Snapshot()
	if snap.State != StateAnonymous || snap.Identity != nil {
		t.Errorf("snapshot = %+v, want anonymous without identity", snap)
	}
}

func TestBootstrap(t *testing.T) {
	t.Run("no credential", func(t *testing.T) {
		b := &fakeBackend{profile: approvedUser}
		m, _ := newTestManager(b)

		if got := m.Bootstrap(context.Background()).State; got != StateAnonymous {
			t.Errorf("state = %v, want anonymous", got)
		}
		if b.profileCalls != 0 {
			t.Error("profile must not be fetched without a credential")
		}
	})

	t.Run("valid credential", func(t *testing.T) {
		b := &fakeBackend{profile: approvedUser}
		m, store := newTestManager(b)
		store.Save("tok")

		snap := m.Bootstrap(context.Background())
		if snap.State != StateAuthenticated || snap.Identity.ID != "1" {
			t.Errorf("snapshot = %+v, want authenticated", snap)
		}
	})

	t.Run("rejected credential", func(t *testing.T) {
		b := &fakeBackend{profile: approvedUser, profileErr: &backend.Error{Kind: backend.KindAuth, Message: "Unauthorized", StatusCode: 401}}
		m, store := newTestManager(b)
		store.Save("expired")

		snap := m.Bootstrap(context.Background())
		if snap.State != StateAnonymous {
			t.Errorf("state = %v, want anonymous", snap.State)
		}
		if _, ok, _ := store.Load(); ok {
			t.Error("rejected credential must be cleared")
		}
	})
}

func TestSignUp_DoesNotAuthenticate(t *testing.T) {
	b := &fakeBackend{profile: approvedUser}
	m, store := newTestManager(b)
	m.Bootstrap(context.Background())

	resp, err := m.SignUp(context.Background(), "new@b.com", "secret")
	if err != nil {
		t.Fatalf("SignUp failed: %v", err)
	}
	if resp.User.Email != "new@b.com" {
		t.Errorf("unexpected response %+v", resp)
	}
	if got := m.Snapshot().State; got != StateAnonymous {
		t.Errorf("state = %v, want anonymous", got)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("sign-up must not store a credential")
	}
}

func TestSignOut(t *testing.T) {
	b := &fakeBackend{token: "tok", profile: approvedUser}
	m, store := newTestManager(b)
	if err := m.SignIn(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatal(err)
	}

	m.SignOut()

	snap := m.Snapshot()
	if snap.State != StateAnonymous || snap.Identity != nil {
		t.Errorf("snapshot = %+v, want anonymous", snap)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("credential must be cleared")
	}
}

func TestRefreshProfile(t *testing.T) {
	b := &fakeBackend{token: "tok", profile: approvedUser}
	m, store := newTestManager(b)

	if err := m.RefreshProfile(context.Background()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("RefreshProfile before sign-in = %v, want ErrNotAuthenticated", err)
	}

	if err := m.SignIn(context.Background(), "a@b.com", "x"); err != nil {
		t.Fatal(err)
	}

	b.profile = &models.Identity{ID: "1", Email: "a@b.com", Role: models.RoleAdmin, Status: models.StatusApproved}
	if err := m.RefreshProfile(context.Background()); err != nil {
		t.Fatalf("RefreshProfile failed: %v", err)
	}
	if !m.Snapshot().Identity.IsAdmin() {
		t.Error("refreshed identity should be admin")
	}

	b.profileErr = &backend.Error{Kind: backend.KindAuth, Message: "revoked", StatusCode: 401}
	if err := m.RefreshProfile(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	if got := m.Snapshot().State; got != StateAnonymous {
		t.Errorf("state = %v, want anonymous after failed refresh", got)
	}
	if _, ok, _ := store.Load(); ok {
		t.Error("credential must be cleared after failed refresh")
	}
}

func TestSnapshot_IsCopy(t *testing.T) {
	b := &fakeBackend{token: "tok", profile: approvedUser}
	m, _ := newTestManager(b)
	m.SignIn(context.Background(), "a@b.com", "x")

	snap := m.Snapshot()
	snap.Identity.Role = models.RoleAdmin

	if m.Snapshot().Identity.IsAdmin() {
		t.Error("mutating a snapshot must not change the session")
	}
}

func TestSubscribe(t *testing.T) {
	b := &fakeBackend{token: "tok", profile: approvedUser}
	m, _ := newTestManager(b)

	var states []State
	unsubscribe := m.Subscribe(func(s Snapshot) {
		states = append(states, s.State)
	})

	m.SignIn(context.Background(), "a@b.com", "x")
	m.SignOut()
	unsubscribe()
	m.SignOut()

	want := []State{StateAuthenticated, StateAnonymous}
	if len(states) != len(want) {
		t.Fatalf("notified states = %v, want %v", states, want)
	}
	for i := range want {
		if states[i] != want[i] {
			t.Errorf("state %d = %v, want %v", i, states[i], want[i])
		}
	}
}
