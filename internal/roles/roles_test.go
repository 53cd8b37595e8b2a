package roles

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/rookery-club/rookery/internal/auth"
	"github.com/rookery-club/rookery/internal/database"
	"github.com/rookery-club/rookery/internal/model"
	"github.com/rookery-club/rookery/internal/store"
)

func setup(t *testing.T) (*Service, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	us := store.NewUserStore(db)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewService(us, logger), us
}

func admin(t *testing.T, us *store.UserStore, email string) auth.AuthContext {
	t.Helper()
	u, err := us.Create(email, "hash", "Admin")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	role := model.RoleAdmin
	if err := us.SetRole(u.ID, &role); err != nil {
		t.Fatalf("set role: %v", err)
	}
	return auth.AuthContext{UserID: u.ID, Email: email, Role: model.RoleAdmin}
}

func TestListRequiresAdmin(t *testing.T) {
	svc, us := setup(t)

	u, _ := us.Create("parent@example.com", "hash", "Parent")
	_, err := svc.List(auth.AuthContext{UserID: u.ID, Email: u.Email})
	if !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("err = %v, want ErrNotAdmin", err)
	}
}

func TestGrantAdminVisibleInList(t *testing.T) {
	svc, us := setup(t)

	actor := admin(t, us, "admin@example.com")
	target, _ := us.Create("parent@example.com", "hash", "Parent")

	role := model.RoleAdmin
	if err := svc.Set(actor, target.ID, &role); err != nil {
		t.Fatalf("grant admin: %v", err)
	}

	users, err := svc.List(actor)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	admins := 0
	for _, u := range users {
		if u.IsAdmin() {
			admins++
		}
	}
	if admins != 2 {
		t.Errorf("admins = %d, want 2", admins)
	}
}

func TestRevokeRole(t *testing.T) {
	svc, us := setup(t)

	actor := admin(t, us, "admin@example.com")
	target := admin(t, us, "other@example.com")

	if err := svc.Set(actor, target.UserID, nil); err != nil {
		t.Fatalf("revoke: %v", err)
	}

	u, _ := us.GetByID(target.UserID)
	if u.IsAdmin() {
		t.Error("expected role cleared")
	}
}

func TestSelfDemotionBlocked(t *testing.T) {
	svc, us := setup(t)

	actor := admin(t, us, "admin@example.com")

	if err := svc.Set(actor, actor.UserID, nil); !errors.Is(err, ErrSelfDemotion) {
		t.Fatalf("err = %v, want ErrSelfDemotion", err)
	}

	other := "coordinator"
	if err := svc.Set(actor, actor.UserID, &other); !errors.Is(err, ErrSelfDemotion) {
		t.Fatalf("err = %v, want ErrSelfDemotion for role change away from admin", err)
	}

	// Re-granting admin to yourself is a no-op, not a demotion.
	role := model.RoleAdmin
	if err := svc.Set(actor, actor.UserID, &role); err != nil {
		t.Fatalf("self re-grant: %v", err)
	}

	u, _ := us.GetByID(actor.UserID)
	if !u.IsAdmin() {
		t.Error("actor should still be admin")
	}
}

func TestSetUnknownUser(t *testing.T) {
	svc, us := setup(t)

	actor := admin(t, us, "admin@example.com")
	role := model.RoleAdmin
	if err := svc.Set(actor, 9999, &role); !errors.Is(err, ErrUserNotFound) {
		t.Fatalf("err = %v, want ErrUserNotFound", err)
	}
}

func TestSetRequiresAdmin(t *testing.T) {
	svc, us := setup(t)

	u, _ := us.Create("parent@example.com", "hash", "Parent")
	role := model.RoleAdmin
	err := svc.Set(auth.AuthContext{UserID: u.ID}, u.ID, &role)
	if !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("err = %v, want ErrNotAdmin", err)
	}
}
