// Package attendance sets and reads per-event attendance for parents and
// children. Writes are composite-key upserts, so repeated calls never create
// a second row for the same (person, event) pair and the last write wins.
package attendance

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rookery-club/rookery/internal/auth"
	"github.com/rookery-club/rookery/internal/model"
	"github.com/rookery-club/rookery/internal/store"
)

var (
	// ErrInvalidStatus means the submitted status is not one of the three
	// known values.
	ErrInvalidStatus = errors.New("invalid attendance status")

	// ErrNotOwned means the child does not belong to the acting user's
	// family. Caller-supplied linkage is never trusted; ownership is always
	// resolved through user -> parent -> child.
	ErrNotOwned = errors.New("child does not belong to this account")

	// ErrEventNotFound means the event id does not exist.
	ErrEventNotFound = errors.New("event not found")
)

type Service struct {
	attendance *store.AttendanceStore
	parents    *store.ParentStore
	children   *store.ChildStore
	events     *store.EventStore
	logger     *slog.Logger
}

func NewService(as *store.AttendanceStore, ps *store.ParentStore, cs *store.ChildStore, es *store.EventStore, logger *slog.Logger) *Service {
	return &Service{attendance: as, parents: ps, children: cs, events: es, logger: logger}
}

// Get returns the status for (ref, event); a missing record reads as tbd.
func (s *Service) Get(ref model.AttendeeRef, eventID int64) (model.AttendanceStatus, error) {
	return s.attendance.GetStatus(ref, eventID)
}

// SetForParent records the acting user's own attendance for an event.
func (s *Service) SetForParent(current auth.AuthContext, eventID int64, status model.AttendanceStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := s.checkEvent(eventID); err != nil {
		return err
	}
	if err := s.attendance.SetStatus(model.ParentAttendee(current.UserID), eventID, status); err != nil {
		return fmt.Errorf("set parent attendance: %w", err)
	}
	return nil
}

// SetForChild records attendance for a child after verifying the child
// belongs to the acting user: user -> parent row -> child.parent_id must all
// line up, regardless of what the caller claimed.
func (s *Service) SetForChild(current auth.AuthContext, childID, eventID int64, status model.AttendanceStatus) error {
	if !status.Valid() {
		return ErrInvalidStatus
	}
	if err := s.checkEvent(eventID); err != nil {
		return err
	}

	parent, err := s.parents.GetByUserID(current.UserID)
	if err != nil {
		return fmt.Errorf("look up parent: %w", err)
	}
	if parent == nil {
		return ErrNotOwned
	}

	child, err := s.children.GetByID(childID)
	if err != nil {
		return fmt.Errorf("look up child: %w", err)
	}
	if child == nil || child.ParentID != parent.ID {
		return ErrNotOwned
	}

	if err := s.attendance.SetStatus(model.ChildAttendee(childID), eventID, status); err != nil {
		return fmt.Errorf("set child attendance: %w", err)
	}
	return nil
}

// FamilyStatuses returns the statuses for the acting user and each of their
// children for one event. Used by the calendar page.
func (s *Service) FamilyStatuses(current auth.AuthContext, eventID int64) (model.AttendanceStatus, map[int64]model.AttendanceStatus, error) {
	own, err := s.attendance.GetStatus(model.ParentAttendee(current.UserID), eventID)
	if err != nil {
		return "", nil, err
	}

	parent, err := s.parents.GetByUserID(current.UserID)
	if err != nil {
		return "", nil, fmt.Errorf("look up parent: %w", err)
	}

	byChild := make(map[int64]model.AttendanceStatus)
	if parent == nil {
		return own, byChild, nil
	}

	children, err := s.children.ListByParent(parent.ID)
	if err != nil {
		return "", nil, fmt.Errorf("list children: %w", err)
	}
	for _, c := range children {
		status, err := s.attendance.GetStatus(model.ChildAttendee(c.ID), eventID)
		if err != nil {
			return "", nil, err
		}
		byChild[c.ID] = status
	}
	return own, byChild, nil
}

func (s *Service) checkEvent(eventID int64) error {
	event, err := s.events.GetByID(eventID)
	if err != nil {
		return fmt.Errorf("look up event: %w", err)
	}
	if event == nil {
		return ErrEventNotFound
	}
	return nil
}
