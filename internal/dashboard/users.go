package dashboard

import (
	"context"
	"log/slog"
	"sync"

	"github.com/foxzi/statboard/internal/backend"
	"github.com/foxzi/statboard/internal/models"
)

const (
	MsgApproved = "User approved successfully!"
	MsgRejected = "User rejected successfully"

	msgLoadPending = "Failed to load pending users"
	msgApprove     = "Failed to approve user"
	msgReject      = "Failed to reject user"
)

// UsersSource is the part of the gateway user management needs
type UsersSource interface {
	PendingUsers(ctx context.Context) ([]models.Identity, error)
	ApproveUser(ctx context.Context, id string) error
	RejectUser(ctx context.Context, id string) error
}

// UsersState is a copy of the user management view state
type UsersState struct {
	Loading bool
	Users   []models.Identity
	Success string
	Err     *Error
}

// UsersView lists pending accounts and approves or rejects them. The list is
// fetched again after every action.
type UsersView struct {
	src    UsersSource
	logger *slog.Logger
	live   *Liveness

	mu    sync.RWMutex
	state UsersState
}

func NewUsersView(src UsersSource, logger *slog.Logger) *UsersView {
	if logger == nil {
		logger = slog.Default()
	}
	return &UsersView{
		src:    src,
		logger: logger,
		live:   &Liveness{},
		state:  UsersState{Loading: true},
	}
}

// Liveness returns the token guarding state writes of v
func (v *UsersView) Liveness() *Liveness {
	return v.live
}

// Unmount discards the results of any call still in flight
func (v *UsersView) Unmount() {
	v.live.End()
}

// Load fetches the pending accounts
func (v *UsersView) Load(ctx context.Context) error {
	if !v.apply(func(s *UsersState) {
		s.Loading = true
		s.Err = nil
	}) {
		return ErrUnmounted
	}

	users, err := v.src.PendingUsers(ctx)

	var loadErr *Error
	if err != nil {
		loadErr = &Error{Message: backend.MessageOr(err, msgLoadPending), Err: err}
	}

	if !v.apply(func(s *UsersState) {
		s.Loading = false
		if loadErr != nil {
			s.Err = loadErr
			return
		}
		s.Users = users
	}) {
		return ErrUnmounted
	}

	if loadErr != nil {
		return loadErr
	}
	return nil
}

// Approve approves id and reloads the list
func (v *UsersView) Approve(ctx context.Context, id string) error {
	return v.act(ctx, id, v.src.ApproveUser, MsgApproved, msgApprove)
}

// Reject rejects id and reloads the list
func (v *UsersView) Reject(ctx context.Context, id string) error {
	return v.act(ctx, id, v.src.RejectUser, MsgRejected, msgReject)
}

func (v *UsersView) act(ctx context.Context, id string, call func(context.Context, string) error, success, fallback string) error {
	if !v.apply(func(s *UsersState) {
		s.Success = ""
		s.Err = nil
	}) {
		return ErrUnmounted
	}

	if err := call(ctx, id); err != nil {
		actErr := &Error{Message: backend.MessageOr(err, fallback), Err: err}
		if !v.apply(func(s *UsersState) { s.Err = actErr }) {
			return ErrUnmounted
		}
		return actErr
	}

	v.logger.Info(success, "user_id", id)
	if !v.apply(func(s *UsersState) { s.Success = success }) {
		return ErrUnmounted
	}
	return v.Load(ctx)
}

func (v *UsersView) apply(fn func(*UsersState)) bool {
	v.mu.Lock()
	defer v.mu.Unlock()
	if !v.live.Alive() {
		return false
	}
	fn(&v.state)
	return true
}

// State returns a copy of the current state
func (v *UsersView) State() UsersState {
	v.mu.RLock()
	defer v.mu.RUnlock()
	s := v.state
	s.Users = append([]models.Identity(nil), v.state.Users...)
	return s
}

// Pending returns the loaded accounts whose status is still pending
func (v *UsersView) Pending() []models.Identity {
	users := v.State().Users
	out := make([]models.Identity, 0, len(users))
	for i := range users {
		if users[i].IsPending() {
			out = append(out, users[i])
		}
	}
	return out
}
