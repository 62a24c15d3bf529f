package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/foxzi/statboard/internal/access"
	"github.com/foxzi/statboard/internal/dashboard"
	"github.com/foxzi/statboard/internal/models"
)

type usersData struct {
	Users []models.Identity
}

// Users lists accounts awaiting approval
func (h *Handlers) Users(w http.ResponseWriter, r *http.Request) {
	view, stop := h.mountUsers(r)
	defer stop()

	err := view.Load(r.Context())
	if errors.Is(err, dashboard.ErrUnmounted) {
		h.redirectByGate(w, r, access.RequireAdmin)
		return
	}
	h.renderUsers(w, r, view, nil)
}

// ApproveUser approves the account in the path and shows the refreshed list
func (h *Handlers) ApproveUser(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, (*dashboard.UsersView).Approve)
}

// RejectUser rejects the account in the path and shows the refreshed list
func (h *Handlers) RejectUser(w http.ResponseWriter, r *http.Request) {
	h.userAction(w, r, (*dashboard.UsersView).Reject)
}

func (h *Handlers) userAction(w http.ResponseWriter, r *http.Request, action func(*dashboard.UsersView, context.Context, string) error) {
	id := chi.URLParam(r, "id")

	view, stop := h.mountUsers(r)
	defer stop()

	err := action(view, r.Context(), id)
	if errors.Is(err, dashboard.ErrUnmounted) {
		h.redirectByGate(w, r, access.RequireAdmin)
		return
	}
	var failure *dashboard.Error
	if err != nil {
		h.logger.Warn("user action failed", "user_id", id, "error", err)
		errors.As(err, &failure)
		// The list shown with the error is the current one
		if err := view.Load(r.Context()); err != nil {
			h.logger.Warn("failed to reload pending users", "user_id", id, "error", err)
		}
	}
	h.renderUsers(w, r, view, failure)
}

func (h *Handlers) mountUsers(r *http.Request) (*dashboard.UsersView, func()) {
	s := current(r)
	view := dashboard.NewUsersView(s.Gateway, h.logger)
	stop := dashboard.Guard(view.Liveness(), access.Default, s.Manager, access.RequireAdmin)
	return view, func() {
		stop()
		view.Unmount()
	}
}

// renderUsers shows the list; failure, when set, is the action error to show
// instead of the load state's
func (h *Handlers) renderUsers(w http.ResponseWriter, r *http.Request, view *dashboard.UsersView, failure *dashboard.Error) {
	state := view.State()
	pending := view.Pending()

	p := h.newPage(r, "User Management", "users", usersData{Users: pending})
	p.PendingCount = len(pending)
	p.Success = state.Success
	if state.Err != nil {
		p.Error = state.Err.Message
	}
	if failure != nil {
		p.Error = failure.Message
	}
	h.render(w, http.StatusOK, "users", p)
}
