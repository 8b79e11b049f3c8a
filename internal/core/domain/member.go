package domain

import "time"

// Role is fixed when a member registers; there is no way to change it.
type Role string

const (
	RoleStudent   Role = "student"
	RoleOrganizer Role = "organizer"
)

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return r == RoleStudent || r == RoleOrganizer
}

// Member models an account that can authenticate.
type Member struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is what a verified session token proves about the caller. The
// role is the one embedded at issuance and is not refreshed from storage.
type Identity struct {
	SubjectID string
	Role      Role
}
