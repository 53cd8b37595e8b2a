package model

import "time"

// AttendanceStatus is a pure last-write-wins field; every status may move to
// any other with no ordering.
type AttendanceStatus string

const (
	StatusAttending    AttendanceStatus = "attending"
	StatusNotAttending AttendanceStatus = "not_attending"
	StatusTBD          AttendanceStatus = "tbd"
)

// Valid reports whether s is one of the three known statuses.
func (s AttendanceStatus) Valid() bool {
	switch s {
	case StatusAttending, StatusNotAttending, StatusTBD:
		return true
	}
	return false
}

// AttendanceRecord is one person's intent for one event. The key is either
// (user_id, event_id) or (child_id, event_id) depending on who attends.
type AttendanceRecord struct {
	EventID   int64            `json:"event_id"`
	Status    AttendanceStatus `json:"status"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// AttendeeRef names who an attendance record is for: a parent (keyed by the
// owning user id) or a child (keyed by child id). Both map onto the same
// upsert, just against different tables.
type AttendeeRef struct {
	userID  int64
	childID int64
}

// ParentAttendee refers to the parent identified by their user id.
func ParentAttendee(userID int64) AttendeeRef {
	return AttendeeRef{userID: userID}
}

// ChildAttendee refers to a child row.
func ChildAttendee(childID int64) AttendeeRef {
	return AttendeeRef{childID: childID}
}

// IsChild reports whether the reference names a child.
func (r AttendeeRef) IsChild() bool { return r.childID != 0 }

// UserID returns the parent key; zero for child refs.
func (r AttendeeRef) UserID() int64 { return r.userID }

// ChildID returns the child key; zero for parent refs.
func (r AttendeeRef) ChildID() int64 { return r.childID }
