package store

import (
	"database/sql"
	"fmt"

	"github.com/rookery-club/rookery/internal/model"
)

type VolunteerStore struct {
	db *sql.DB
}

func NewVolunteerStore(db *sql.DB) *VolunteerStore {
	return &VolunteerStore{db: db}
}

func (s *VolunteerStore) Create(name, email, phone string) (*model.Volunteer, error) {
	result, err := s.db.Exec(
		`INSERT INTO volunteers (name, email, phone) VALUES (?, ?, ?)`,
		name, email, phone,
	)
	if err != nil {
		return nil, fmt.Errorf("insert volunteer: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}

	var v model.Volunteer
	err = s.db.QueryRow(
		`SELECT id, name, email, phone, created_at FROM volunteers WHERE id = ?`, id,
	).Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("get volunteer: %w", err)
	}
	return &v, nil
}

func (s *VolunteerStore) List() ([]model.Volunteer, error) {
	rows, err := s.db.Query(`SELECT id, name, email, phone, created_at FROM volunteers ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query volunteers: %w", err)
	}
	defer rows.Close()

	var volunteers []model.Volunteer
	for rows.Next() {
		var v model.Volunteer
		if err := rows.Scan(&v.ID, &v.Name, &v.Email, &v.Phone, &v.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan volunteer: %w", err)
		}
		volunteers = append(volunteers, v)
	}
	return volunteers, rows.Err()
}
