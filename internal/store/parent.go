package store

import (
	"database/sql"
	"fmt"

	"github.com/rookery-club/rookery/internal/model"
)

type ParentStore struct {
	db *sql.DB
}

func NewParentStore(db *sql.DB) *ParentStore {
	return &ParentStore{db: db}
}

func scanParent(scanner interface{ Scan(...any) error }) (*model.Parent, error) {
	var p model.Parent
	var volunteer int
	err := scanner.Scan(&p.ID, &p.UserID, &p.Name, &p.Phone, &p.Email, &volunteer, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	p.Volunteer = volunteer != 0
	return &p, nil
}

const parentCols = `id, user_id, name, phone, email, volunteer, created_at, updated_at`

// Upsert inserts or overwrites the parent row keyed on user_id. Repeated
// registrations for the same user update the profile in place; the row count
// per user never exceeds one.
func (s *ParentStore) Upsert(userID int64, name, phone, email string, volunteer bool) (*model.Parent, error) {
	var volunteerInt int
	if volunteer {
		volunteerInt = 1
	}

	_, err := s.db.Exec(
		`INSERT INTO parents (user_id, name, phone, email, volunteer)
		 VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT(user_id) DO UPDATE SET
		     name = excluded.name,
		     phone = excluded.phone,
		     email = excluded.email,
		     volunteer = excluded.volunteer,
		     updated_at = datetime('now')`,
		userID, name, phone, email, volunteerInt,
	)
	if err != nil {
		return nil, fmt.Errorf("upsert parent: %w", err)
	}

	return s.GetByUserID(userID)
}

func (s *ParentStore) GetByID(id int64) (*model.Parent, error) {
	row := s.db.QueryRow(`SELECT `+parentCols+` FROM parents WHERE id = ?`, id)
	p, err := scanParent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get parent: %w", err)
	}
	return p, nil
}

func (s *ParentStore) GetByUserID(userID int64) (*model.Parent, error) {
	row := s.db.QueryRow(`SELECT `+parentCols+` FROM parents WHERE user_id = ?`, userID)
	p, err := scanParent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get parent by user id: %w", err)
	}
	return p, nil
}

// SetVolunteer flips the volunteer flag on an existing parent row.
func (s *ParentStore) SetVolunteer(userID int64, volunteer bool) error {
	var volunteerInt int
	if volunteer {
		volunteerInt = 1
	}
	_, err := s.db.Exec(
		`UPDATE parents SET volunteer = ?, updated_at = datetime('now') WHERE user_id = ?`,
		volunteerInt, userID,
	)
	if err != nil {
		return fmt.Errorf("set volunteer: %w", err)
	}
	return nil
}

// CountForUser returns the number of parent rows for a user. Used in tests to
// assert the one-row-per-user invariant.
func (s *ParentStore) CountForUser(userID int64) (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM parents WHERE user_id = ?`, userID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count parents: %w", err)
	}
	return count, nil
}
