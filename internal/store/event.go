package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/rookery-club/rookery/internal/model"
)

type EventStore struct {
	db *sql.DB
}

func NewEventStore(db *sql.DB) *EventStore {
	return &EventStore{db: db}
}

func scanEvent(scanner interface{ Scan(...any) error }) (*model.Event, error) {
	var e model.Event
	err := scanner.Scan(&e.ID, &e.Name, &e.Description, &e.StartsAt, &e.Location, &e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

const eventCols = `id, name, description, starts_at, location, created_at, updated_at`

func (s *EventStore) Create(name, description string, startsAt time.Time, location string) (*model.Event, error) {
	result, err := s.db.Exec(
		`INSERT INTO events (name, description, starts_at, location) VALUES (?, ?, ?, ?)`,
		name, description, startsAt.UTC(), location,
	)
	if err != nil {
		return nil, fmt.Errorf("insert event: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	return s.GetByID(id)
}

func (s *EventStore) GetByID(id int64) (*model.Event, error) {
	row := s.db.QueryRow(`SELECT `+eventCols+` FROM events WHERE id = ?`, id)
	e, err := scanEvent(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get event: %w", err)
	}
	return e, nil
}

func (s *EventStore) ListByDateRange(start, end time.Time) ([]model.Event, error) {
	rows, err := s.db.Query(
		`SELECT `+eventCols+` FROM events WHERE starts_at >= ? AND starts_at < ? ORDER BY starts_at`,
		start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("query events: %w", err)
	}
	defer rows.Close()

	var events []model.Event
	for rows.Next() {
		e, err := scanEvent(rows)
		if err != nil {
			return nil, fmt.Errorf("scan event: %w", err)
		}
		events = append(events, *e)
	}
	return events, rows.Err()
}

// ListStartingWithin returns events starting between now and now+window.
// Feeds the reminder scheduler.
func (s *EventStore) ListStartingWithin(window time.Duration) ([]model.Event, error) {
	now := time.Now().UTC()
	return s.ListByDateRange(now, now.Add(window))
}
