// Package roles is the admin surface for listing accounts and granting or
// revoking the admin role. It cannot create, rename, or delete accounts.
package roles

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/rookery-club/rookery/internal/auth"
	"github.com/rookery-club/rookery/internal/model"
	"github.com/rookery-club/rookery/internal/store"
)

var (
	// ErrNotAdmin means the acting user does not hold the admin role.
	ErrNotAdmin = errors.New("admin role required")

	// ErrSelfDemotion means an admin tried to revoke their own admin role.
	ErrSelfDemotion = errors.New("admins cannot revoke their own role")

	// ErrUserNotFound means the target user id does not exist.
	ErrUserNotFound = errors.New("user not found")
)

type Service struct {
	users  *store.UserStore
	logger *slog.Logger
}

func NewService(us *store.UserStore, logger *slog.Logger) *Service {
	return &Service{users: us, logger: logger}
}

// List returns all accounts. Admin only.
func (s *Service) List(current auth.AuthContext) ([]model.User, error) {
	if !current.IsAdmin() {
		return nil, ErrNotAdmin
	}
	return s.users.List()
}

// Set assigns or clears a role on the target user. Admin only, and an admin
// may not remove their own admin role through this path.
func (s *Service) Set(current auth.AuthContext, targetID int64, role *string) error {
	if !current.IsAdmin() {
		return ErrNotAdmin
	}
	if targetID == current.UserID && (role == nil || *role != model.RoleAdmin) {
		return ErrSelfDemotion
	}

	target, err := s.users.GetByID(targetID)
	if err != nil {
		return fmt.Errorf("look up target user: %w", err)
	}
	if target == nil {
		return ErrUserNotFound
	}

	if err := s.users.SetRole(targetID, role); err != nil {
		return err
	}

	roleName := "none"
	if role != nil {
		roleName = *role
	}
	s.logger.Info("role updated", "target_id", targetID, "role", roleName, "by", current.UserID)
	return nil
}
