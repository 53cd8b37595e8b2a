// Package registration implements family signup: account creation or reuse,
// the parent profile upsert, and child insertion. Each attempt either fully
// succeeds or returns one typed failure; re-submitting after a failure is safe
// because the parent write is an upsert and child inserts are guarded by the
// (parent_id, name) unique constraint.
package registration

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/rookery-club/rookery/internal/auth"
	"github.com/rookery-club/rookery/internal/model"
	"github.com/rookery-club/rookery/internal/store"
)

var (
	// ErrPasswordRequired means no session existed and no password was given,
	// so a new account could not be created.
	ErrPasswordRequired = errors.New("password is required for new registration")

	// ErrEmailRequired means no session existed and no email was given.
	ErrEmailRequired = errors.New("email is required for new registration")

	// ErrEmailTaken means signup failed because the email already has an
	// account. The caller should log in first and re-submit.
	ErrEmailTaken = errors.New("an account with this email already exists")
)

// DuplicateChildrenError reports child names already registered under the
// parent (or repeated within one submission). No children are inserted when
// this is returned.
type DuplicateChildrenError struct {
	Names []string
}

func (e *DuplicateChildrenError) Error() string {
	return fmt.Sprintf("children already registered: %s", strings.Join(e.Names, ", "))
}

// ChildInput is one child row from the registration form. Grade is the raw
// form value; values that don't parse as integers are stored as NULL rather
// than rejected, matching the form's lenient handling.
type ChildInput struct {
	Name  string
	Grade string
}

// Input is a registration submission.
type Input struct {
	ParentName  string
	Phone       string
	Email       string
	Password    string
	IsVolunteer bool
	Children    []ChildInput
}

// Service orchestrates the registration workflow over the user, parent, and
// child stores.
type Service struct {
	users    *store.UserStore
	parents  *store.ParentStore
	children *store.ChildStore
	logger   *slog.Logger
}

func NewService(us *store.UserStore, ps *store.ParentStore, cs *store.ChildStore, logger *slog.Logger) *Service {
	return &Service{users: us, parents: ps, children: cs, logger: logger}
}

// Register runs the full workflow. current is the resolved session identity,
// or nil when the caller is not signed in; in that case a new account is
// created from the submitted email and password. On success the acting user
// is returned.
//
// Step order: resolve identity, upsert parent, insert children. A failure at
// any step is terminal for this attempt and nothing is retried.
func (s *Service) Register(current *auth.AuthContext, in Input) (*model.User, error) {
	user, err := s.resolveUser(current, in)
	if err != nil {
		return nil, err
	}

	parent, err := s.parents.Upsert(user.ID, strings.TrimSpace(in.ParentName), strings.TrimSpace(in.Phone), user.Email, in.IsVolunteer)
	if err != nil {
		return nil, fmt.Errorf("save parent profile: %w", err)
	}
	if parent == nil {
		return nil, errors.New("parent upsert returned no row")
	}

	children := normalizeChildren(in.Children)
	if len(children) == 0 {
		// Nothing to insert; registering a parent alone is fine.
		return user, nil
	}

	duplicates, err := s.children.InsertBatch(parent.ID, children)
	if err != nil {
		return nil, fmt.Errorf("register children: %w", err)
	}
	if len(duplicates) > 0 {
		return nil, &DuplicateChildrenError{Names: duplicates}
	}

	s.logger.Info("family registered", "user_id", user.ID, "children", len(children))
	return user, nil
}

// resolveUser reuses the session identity when present, otherwise signs up a
// new account. Identity creation happens at most once per attempt.
func (s *Service) resolveUser(current *auth.AuthContext, in Input) (*model.User, error) {
	if current != nil {
		user, err := s.users.GetByID(current.UserID)
		if err != nil {
			return nil, fmt.Errorf("look up current user: %w", err)
		}
		if user == nil {
			return nil, errors.New("session user no longer exists")
		}
		return user, nil
	}

	email := strings.TrimSpace(in.Email)
	if email == "" {
		return nil, ErrEmailRequired
	}
	if in.Password == "" {
		return nil, ErrPasswordRequired
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user, err := s.users.Create(email, string(hash), strings.TrimSpace(in.ParentName))
	if err != nil {
		if store.IsUniqueViolation(err) {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("sign up: %w", err)
	}
	return user, nil
}

// normalizeChildren trims names and drops entries left empty by the form's
// "add another child" rows. Grades that fail to parse become nil.
func normalizeChildren(in []ChildInput) []store.NewChild {
	var out []store.NewChild
	for _, c := range in {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		nc := store.NewChild{Name: name}
		if g, err := strconv.Atoi(strings.TrimSpace(c.Grade)); err == nil {
			nc.Grade = &g
		}
		out = append(out, nc)
	}
	return out
}
