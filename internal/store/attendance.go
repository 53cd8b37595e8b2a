package store

import (
	"database/sql"
	"fmt"

	"github.com/rookery-club/rookery/internal/model"
)

// AttendanceStore reads and writes attendance for both parent and child
// attendees. The two tables share one semantic shape, so every operation is
// parameterized by the attendee reference rather than duplicated per table.
type AttendanceStore struct {
	db *sql.DB
}

func NewAttendanceStore(db *sql.DB) *AttendanceStore {
	return &AttendanceStore{db: db}
}

// GetStatus returns the stored status for (ref, event), or StatusTBD when no
// row exists. Absence is never an error.
func (s *AttendanceStore) GetStatus(ref model.AttendeeRef, eventID int64) (model.AttendanceStatus, error) {
	var query string
	var key int64
	if ref.IsChild() {
		query = `SELECT status FROM child_attendance WHERE child_id = ? AND event_id = ?`
		key = ref.ChildID()
	} else {
		query = `SELECT status FROM parent_attendance WHERE user_id = ? AND event_id = ?`
		key = ref.UserID()
	}

	var status model.AttendanceStatus
	err := s.db.QueryRow(query, key, eventID).Scan(&status)
	if err == sql.ErrNoRows {
		return model.StatusTBD, nil
	}
	if err != nil {
		return "", fmt.Errorf("get attendance status: %w", err)
	}
	return status, nil
}

// SetStatus upserts the status keyed on the composite (attendee, event) key.
// The ON CONFLICT clause guarantees at most one row per key no matter how
// calls interleave; the last completed write wins.
func (s *AttendanceStore) SetStatus(ref model.AttendeeRef, eventID int64, status model.AttendanceStatus) error {
	var query string
	var key int64
	if ref.IsChild() {
		query = `INSERT INTO child_attendance (child_id, event_id, status, updated_at)
		         VALUES (?, ?, ?, datetime('now'))
		         ON CONFLICT(child_id, event_id) DO UPDATE SET
		             status = excluded.status,
		             updated_at = datetime('now')`
		key = ref.ChildID()
	} else {
		query = `INSERT INTO parent_attendance (user_id, event_id, status, updated_at)
		         VALUES (?, ?, ?, datetime('now'))
		         ON CONFLICT(user_id, event_id) DO UPDATE SET
		             status = excluded.status,
		             updated_at = datetime('now')`
		key = ref.UserID()
	}

	if _, err := s.db.Exec(query, key, eventID, status); err != nil {
		return fmt.Errorf("upsert attendance status: %w", err)
	}
	return nil
}

// CountRows returns the number of attendance rows for (ref, event). Used in
// tests to assert the at-most-one-row-per-key invariant.
func (s *AttendanceStore) CountRows(ref model.AttendeeRef, eventID int64) (int, error) {
	var query string
	var key int64
	if ref.IsChild() {
		query = `SELECT COUNT(*) FROM child_attendance WHERE child_id = ? AND event_id = ?`
		key = ref.ChildID()
	} else {
		query = `SELECT COUNT(*) FROM parent_attendance WHERE user_id = ? AND event_id = ?`
		key = ref.UserID()
	}

	var count int
	if err := s.db.QueryRow(query, key, eventID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count attendance rows: %w", err)
	}
	return count, nil
}

// ListAttendingUserIDs returns the user ids of families with anyone marked
// attending for the event: parents attending themselves plus owners of
// attending children. Feeds the reminder scheduler.
func (s *AttendanceStore) ListAttendingUserIDs(eventID int64) ([]int64, error) {
	rows, err := s.db.Query(
		`SELECT user_id FROM parent_attendance WHERE event_id = ? AND status = ?
		 UNION
		 SELECT p.user_id FROM child_attendance ca
		     JOIN children c ON c.id = ca.child_id
		     JOIN parents p ON p.id = c.parent_id
		 WHERE ca.event_id = ? AND ca.status = ?`,
		eventID, model.StatusAttending, eventID, model.StatusAttending,
	)
	if err != nil {
		return nil, fmt.Errorf("query attending users: %w", err)
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan user id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
