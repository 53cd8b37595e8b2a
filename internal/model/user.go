package model

import "time"

// RoleAdmin is the only elevated role. A user with a NULL role is a regular
// member.
const RoleAdmin = "admin"

type User struct {
	ID        int64     `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Role      *string   `json:"role"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role != nil && *u.Role == RoleAdmin
}
