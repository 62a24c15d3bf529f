package handlers

import (
	"net/http"
	"strings"

	"github.com/foxzi/statboard/internal/backend"
)

const (
	msgSignInFailed   = "Invalid email or password"
	msgSignUpDone     = "Registration successful. Please wait for admin approval."
	msgSignUpFailed   = "Registration failed"
	msgResetSent      = "If an account exists for this email, a reset link has been sent"
	msgResetFailed    = "Failed to send reset link"
	msgInvalidRequest = "Invalid form data"
)

type authForm struct {
	Email string
}

// SignInPage renders the sign-in form, or moves a signed-in visitor on to the dashboard
func (h *Handlers) SignInPage(w http.ResponseWriter, r *http.Request) {
	if current(r).Manager.Snapshot().Authenticated() {
		http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
		return
	}
	h.render(w, http.StatusOK, "signin", h.newPage(r, "Sign In", "", authForm{}))
}

// SignIn handles sign-in form submission. Only this browser's session is
// touched; on success it is stored and the session cookie issued.
func (h *Handlers) SignIn(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAuthError(w, r, http.StatusBadRequest, "signin", "Sign In", authForm{}, msgInvalidRequest)
		return
	}

	form := authForm{Email: strings.TrimSpace(r.FormValue("email"))}
	s := current(r)
	if err := s.Manager.SignIn(r.Context(), form.Email, r.FormValue("password")); err != nil {
		h.logger.Info("sign-in failed", "email", form.Email, "ip", r.RemoteAddr, "error", err)
		h.renderAuthError(w, r, http.StatusUnauthorized, "signin", "Sign In", form, backend.MessageOr(err, msgSignInFailed))
		return
	}

	h.sessions.Start(w, s)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// SignUpPage renders the registration form
func (h *Handlers) SignUpPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "signup", h.newPage(r, "Sign Up", "", authForm{}))
}

// SignUp creates a pending account. The visitor is not signed in.
func (h *Handlers) SignUp(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAuthError(w, r, http.StatusBadRequest, "signup", "Sign Up", authForm{}, msgInvalidRequest)
		return
	}

	form := authForm{Email: strings.TrimSpace(r.FormValue("email"))}
	resp, err := current(r).Manager.SignUp(r.Context(), form.Email, r.FormValue("password"))
	if err != nil {
		h.renderAuthError(w, r, statusFor(err), "signup", "Sign Up", form, backend.MessageOr(err, msgSignUpFailed))
		return
	}

	p := h.newPage(r, "Sign Up", "", authForm{})
	p.Success = msgSignUpDone
	if resp != nil && resp.Message != "" {
		p.Success = resp.Message
	}
	h.render(w, http.StatusOK, "signup", p)
}

// ForgotPasswordPage renders the reset request form
func (h *Handlers) ForgotPasswordPage(w http.ResponseWriter, r *http.Request) {
	h.render(w, http.StatusOK, "forgot", h.newPage(r, "Forgot Password", "", authForm{}))
}

// ForgotPassword asks the backend to send a reset link
func (h *Handlers) ForgotPassword(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		h.renderAuthError(w, r, http.StatusBadRequest, "forgot", "Forgot Password", authForm{}, msgInvalidRequest)
		return
	}

	form := authForm{Email: strings.TrimSpace(r.FormValue("email"))}
	resp, err := current(r).Manager.ForgotPassword(r.Context(), form.Email)
	if err != nil {
		h.renderAuthError(w, r, statusFor(err), "forgot", "Forgot Password", form, backend.MessageOr(err, msgResetFailed))
		return
	}

	p := h.newPage(r, "Forgot Password", "", authForm{})
	p.Success = msgResetSent
	if resp != nil && resp.Message != "" {
		p.Success = resp.Message
	}
	h.render(w, http.StatusOK, "forgot", p)
}

// SignOut clears this browser's session and returns to the sign-in page
func (h *Handlers) SignOut(w http.ResponseWriter, r *http.Request) {
	s := current(r)
	s.Manager.SignOut()
	h.sessions.End(w, s)
	http.Redirect(w, r, "/", http.StatusSeeOther)
}

func (h *Handlers) renderAuthError(w http.ResponseWriter, r *http.Request, status int, name, title string, form authForm, message string) {
	p := h.newPage(r, title, "", form)
	p.Error = message
	h.render(w, status, name, p)
}

// statusFor maps a gateway failure to the status of the re-rendered form
func statusFor(err error) int {
	e, ok := backend.AsError(err)
	if !ok {
		return http.StatusInternalServerError
	}
	switch e.Kind {
	case backend.KindValidation, backend.KindAuth:
		return e.StatusCode
	default:
		return http.StatusBadGateway
	}
}
