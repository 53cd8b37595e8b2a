package store

import (
	"database/sql"
	"fmt"

	"github.com/rookery-club/rookery/internal/model"
)

type ChildStore struct {
	db *sql.DB
}

func NewChildStore(db *sql.DB) *ChildStore {
	return &ChildStore{db: db}
}

func scanChild(scanner interface{ Scan(...any) error }) (*model.Child, error) {
	var c model.Child
	var grade sql.NullInt64
	err := scanner.Scan(&c.ID, &c.ParentID, &c.Name, &grade, &c.CreatedAt, &c.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if grade.Valid {
		g := int(grade.Int64)
		c.Grade = &g
	}
	return &c, nil
}

const childCols = `id, parent_id, name, grade, created_at, updated_at`

// NewChild is a child row to be inserted.
type NewChild struct {
	Name  string
	Grade *int
}

// InsertBatch inserts all children for a parent in one transaction. If any
// insert trips the (parent_id, name) unique constraint the whole batch is
// rolled back and the duplicate names are returned; no partial insertion is
// possible. The constraint is the only duplicate check — there is no separate
// read, so concurrent registrations cannot race past it.
func (s *ChildStore) InsertBatch(parentID int64, children []NewChild) ([]string, error) {
	if len(children) == 0 {
		return nil, nil
	}

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`INSERT INTO children (parent_id, name, grade) VALUES (?, ?, ?)`)
	if err != nil {
		return nil, fmt.Errorf("prepare stmt: %w", err)
	}
	defer stmt.Close()

	var duplicates []string
	for _, c := range children {
		var grade sql.NullInt64
		if c.Grade != nil {
			grade = sql.NullInt64{Int64: int64(*c.Grade), Valid: true}
		}
		if _, err := stmt.Exec(parentID, c.Name, grade); err != nil {
			if IsUniqueViolation(err) {
				duplicates = append(duplicates, c.Name)
				continue
			}
			return nil, fmt.Errorf("insert child %q: %w", c.Name, err)
		}
	}

	if len(duplicates) > 0 {
		// Rollback via the deferred call; report every offending name.
		return duplicates, nil
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit children: %w", err)
	}
	return nil, nil
}

func (s *ChildStore) GetByID(id int64) (*model.Child, error) {
	row := s.db.QueryRow(`SELECT `+childCols+` FROM children WHERE id = ?`, id)
	c, err := scanChild(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get child: %w", err)
	}
	return c, nil
}

func (s *ChildStore) ListByParent(parentID int64) ([]model.Child, error) {
	rows, err := s.db.Query(
		`SELECT `+childCols+` FROM children WHERE parent_id = ? ORDER BY name`,
		parentID,
	)
	if err != nil {
		return nil, fmt.Errorf("query children: %w", err)
	}
	defer rows.Close()

	var children []model.Child
	for rows.Next() {
		c, err := scanChild(rows)
		if err != nil {
			return nil, fmt.Errorf("scan child: %w", err)
		}
		children = append(children, *c)
	}
	return children, rows.Err()
}
