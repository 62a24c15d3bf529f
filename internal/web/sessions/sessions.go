// Package sessions scopes the dashboard's session manager to a browser. Each
// signed-in browser holds its own manager and in-memory credential, keyed by
// an HttpOnly cookie; a request without a valid cookie is served by a fresh
// anonymous session that is never stored.
package sessions

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/foxzi/statboard/internal/access"
	"github.com/foxzi/statboard/internal/credential"
	"github.com/foxzi/statboard/internal/dashboard"
	"github.com/foxzi/statboard/internal/metrics"
	"github.com/foxzi/statboard/internal/session"
)

// CookieName carries the session ID
const CookieName = "session"

// Gateway is the backend surface one browser session talks through
type Gateway interface {
	session.Backend
	dashboard.StatisticsSource
	dashboard.UsersSource
}

// Factory builds the gateway for a session around its credential
type Factory func(creds credential.Store) Gateway

// Session is one browser's view of the backend
type Session struct {
	Manager *session.Manager
	Gateway Gateway

	// guarded by Registry.mu
	id       string
	lastSeen time.Time
}

// Registry holds the signed-in browser sessions
type Registry struct {
	newGateway Factory
	ttl        time.Duration
	secure     bool
	logger     *slog.Logger
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*Session
}

// NewRegistry creates an empty registry. Sessions idle for longer than ttl
// are dropped; secure marks the cookie for HTTPS only.
func NewRegistry(newGateway Factory, ttl time.Duration, secure bool, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{
		newGateway: newGateway,
		ttl:        ttl,
		secure:     secure,
		logger:     logger,
		now:        time.Now,
		entries:    make(map[string]*Session),
	}
}

type sessionKey struct{}

// FromContext returns the session Middleware attached to the request
func FromContext(ctx context.Context) *Session {
	s, _ := ctx.Value(sessionKey{}).(*Session)
	return s
}

// Source is the gate source for r
func Source(r *http.Request) access.Source {
	return FromContext(r.Context()).Manager
}

// Middleware attaches the browser's session, or a fresh anonymous one
func (reg *Registry) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, ok := reg.lookup(r)
		if !ok {
			s = reg.anonymous(r.Context())
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), sessionKey{}, s)))
	})
}

// Start stores s under a new ID and hands the cookie to the browser. It is
// called once the session has signed in; a previous ID of s stops working.
func (reg *Registry) Start(w http.ResponseWriter, s *Session) {
	id := uuid.New().String()

	reg.mu.Lock()
	stored := s.id != ""
	if stored {
		delete(reg.entries, s.id)
	}
	s.id = id
	s.lastSeen = reg.now()
	reg.entries[id] = s
	n := len(reg.entries)
	reg.mu.Unlock()

	if !stored {
		// A session that falls back to anonymous is no longer worth keeping
		s.Manager.Subscribe(func(snap session.Snapshot) {
			if snap.State == session.StateAnonymous {
				reg.forget(s)
			}
		})
	}
	metrics.SetWebSessions(n)

	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		Secure:   reg.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// End drops s and expires the browser's cookie
func (reg *Registry) End(w http.ResponseWriter, s *Session) {
	reg.forget(s)
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   reg.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Len returns the number of stored sessions
func (reg *Registry) Len() int {
	reg.mu.Lock()
	defer reg.mu.Unlock()
	return len(reg.entries)
}

// Sweep drops idle sessions and returns how many were removed
func (reg *Registry) Sweep() int {
	reg.mu.Lock()
	now := reg.now()
	removed := 0
	for id, s := range reg.entries {
		if reg.expired(s, now) {
			delete(reg.entries, id)
			s.id = ""
			removed++
		}
	}
	n := len(reg.entries)
	reg.mu.Unlock()

	if removed > 0 {
		reg.logger.Debug("expired browser sessions dropped", "removed", removed, "remaining", n)
		metrics.SetWebSessions(n)
	}
	return removed
}

// Run sweeps idle sessions until ctx is cancelled
func (reg *Registry) Run(ctx context.Context) {
	interval := min(reg.ttl, 5*time.Minute)
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			reg.Sweep()
		}
	}
}

func (reg *Registry) lookup(r *http.Request) (*Session, bool) {
	c, err := r.Cookie(CookieName)
	if err != nil || c.Value == "" {
		return nil, false
	}

	reg.mu.Lock()
	defer reg.mu.Unlock()

	s, ok := reg.entries[c.Value]
	if !ok {
		return nil, false
	}
	now := reg.now()
	if reg.expired(s, now) {
		delete(reg.entries, s.id)
		s.id = ""
		return nil, false
	}
	s.lastSeen = now
	return s, true
}

func (reg *Registry) expired(s *Session, now time.Time) bool {
	return reg.ttl > 0 && now.Sub(s.lastSeen) > reg.ttl
}

func (reg *Registry) anonymous(ctx context.Context) *Session {
	store := credential.NewMemoryStore()
	gw := reg.newGateway(store)
	mgr := session.NewManager(gw, store, reg.logger)
	// An empty store resolves to Anonymous without a backend call
	mgr.Bootstrap(ctx)
	return &Session{Manager: mgr, Gateway: gw}
}

func (reg *Registry) forget(s *Session) {
	reg.mu.Lock()
	if s.id == "" {
		reg.mu.Unlock()
		return
	}
	delete(reg.entries, s.id)
	s.id = ""
	n := len(reg.entries)
	reg.mu.Unlock()

	metrics.SetWebSessions(n)
}
