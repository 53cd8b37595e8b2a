package model

import "time"

// Parent is the club profile attached to a user account. There is at most one
// per user, enforced by the unique constraint on user_id.
type Parent struct {
	ID        int64     `json:"id"`
	UserID    int64     `json:"user_id"`
	Name      string    `json:"name"`
	Phone     string    `json:"phone"`
	Email     string    `json:"email"`
	Volunteer bool      `json:"volunteer"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Child belongs to exactly one parent. Names are unique within a parent's
// children. Grade is nil when the submitted value didn't parse.
type Child struct {
	ID        int64     `json:"id"`
	ParentID  int64     `json:"parent_id"`
	Name      string    `json:"name"`
	Grade     *int      `json:"grade"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
