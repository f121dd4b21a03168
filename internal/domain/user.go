package domain

import "time"

// Role is a site-wide user role. Group-level roles live on the membership.
type Role string

const (
	RoleMember Role = "member"
	RoleAdmin  Role = "admin"
)

// User is the domain representation of an onboarded user.
type User struct {
	ID         UserID
	ExternalID ExternalID

	DisplayName string
	Phone       string
	Role        Role

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsAdmin reports whether the user holds the site admin role.
func (u User) IsAdmin() bool { return u.Role == RoleAdmin }
