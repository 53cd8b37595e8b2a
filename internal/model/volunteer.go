package model

import "time"

// Volunteer is a standalone interest signup; it is not linked to a user
// account.
type Volunteer struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	CreatedAt time.Time `json:"created_at"`
}
