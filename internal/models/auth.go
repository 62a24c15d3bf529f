package models

// SignInRequest is the body of POST /auth/signin
type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignInResponse is returned by POST /auth/signin
type SignInResponse struct {
	AccessToken string      `json:"access_token"`
	User        AccountStub `json:"user"`
}

// SignUpRequest is the body of POST /auth/signup
type SignUpRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// SignUpResponse is returned by POST /auth/signup
type SignUpResponse struct {
	Message string      `json:"message"`
	User    AccountStub `json:"user"`
}

// ForgotPasswordRequest is the body of POST /auth/forgot-password
type ForgotPasswordRequest struct {
	Email string `json:"email"`
}

// MessageResponse is a bare {message} reply
type MessageResponse struct {
	Message string `json:"message"`
}

// AccountStub is the partial user object embedded in auth replies
type AccountStub struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Role  string `json:"role,omitempty"`
}
