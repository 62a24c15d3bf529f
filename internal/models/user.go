package models

// Role is the privilege level of an account
type Role string

const (
	RoleAdmin Role = "admin"
	RoleUser  Role = "user"
)

// Valid reports whether r is a known role
func (r Role) Valid() bool {
	return r == RoleAdmin || r == RoleUser
}

// Status is the approval state of an account
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
)

// Valid reports whether s is a known status
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected:
		return true
	}
	return false
}

// Identity is an account as reported by the backend profile and user endpoints
type Identity struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Role      Role   `json:"role"`
	Status    Status `json:"status"`
	CreatedAt string `json:"createdAt,omitempty"`
	UpdatedAt string `json:"updatedAt,omitempty"`
}

// IsAdmin reports whether the identity carries the admin role
func (i *Identity) IsAdmin() bool {
	return i != nil && i.Role == RoleAdmin
}

// IsPending reports whether the account still awaits approval
func (i *Identity) IsPending() bool {
	return i != nil && i.Status == StatusPending
}

// Initial returns the upper-cased first letter of the email, used as an avatar
func (i *Identity) Initial() string {
	if i == nil || i.Email == "" {
		return "?"
	}
	r := []rune(i.Email)[0]
	if r >= 'a' && r <= 'z' {
		r -= 'a' - 'A'
	}
	return string(r)
}
