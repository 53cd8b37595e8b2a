package registration

import (
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/rookery-club/rookery/internal/auth"
	"github.com/rookery-club/rookery/internal/database"
	"github.com/rookery-club/rookery/internal/store"
)

type fixture struct {
	svc      *Service
	users    *store.UserStore
	parents  *store.ParentStore
	children *store.ChildStore
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		t.Fatalf("enable foreign keys: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	us := store.NewUserStore(db)
	ps := store.NewParentStore(db)
	cs := store.NewChildStore(db)
	return fixture{
		svc:      NewService(us, ps, cs, logger),
		users:    us,
		parents:  ps,
		children: cs,
	}
}

func TestRegisterNewFamily(t *testing.T) {
	f := setup(t)

	user, err := f.svc.Register(nil, Input{
		ParentName: "Alice",
		Phone:      "555-0100",
		Email:      "alice@example.com",
		Password:   "hunter22",
		Children: []ChildInput{
			{Name: "Sam", Grade: "3"},
			{Name: "Riley", Grade: "K"},
		},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if user.Email != "alice@example.com" {
		t.Errorf("email = %q, want alice@example.com", user.Email)
	}

	parent, err := f.parents.GetByUserID(user.ID)
	if err != nil || parent == nil {
		t.Fatalf("get parent: %v", err)
	}

	children, err := f.children.ListByParent(parent.ID)
	if err != nil {
		t.Fatalf("list children: %v", err)
	}
	if len(children) != 2 {
		t.Fatalf("len = %d, want 2", len(children))
	}
	// "K" doesn't parse as an integer, so Riley's grade is stored empty.
	for _, c := range children {
		switch c.Name {
		case "Sam":
			if c.Grade == nil || *c.Grade != 3 {
				t.Errorf("Sam grade = %v, want 3", c.Grade)
			}
		case "Riley":
			if c.Grade != nil {
				t.Errorf("Riley grade = %v, want nil", *c.Grade)
			}
		}
	}
}

func TestRegisterWithoutPasswordWritesNothing(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Register(nil, Input{
		ParentName: "Alice",
		Email:      "alice@example.com",
		Children:   []ChildInput{{Name: "Sam"}},
	})
	if !errors.Is(err, ErrPasswordRequired) {
		t.Fatalf("err = %v, want ErrPasswordRequired", err)
	}

	user, _ := f.users.GetByEmail("alice@example.com")
	if user != nil {
		t.Error("no account should exist after a validation failure")
	}
}

func TestRegisterWithoutEmail(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Register(nil, Input{ParentName: "Alice", Password: "hunter22"})
	if !errors.Is(err, ErrEmailRequired) {
		t.Fatalf("err = %v, want ErrEmailRequired", err)
	}
}

func TestRegisterEmailTaken(t *testing.T) {
	f := setup(t)

	if _, err := f.svc.Register(nil, Input{ParentName: "Alice", Email: "alice@example.com", Password: "hunter22"}); err != nil {
		t.Fatalf("first register: %v", err)
	}

	_, err := f.svc.Register(nil, Input{ParentName: "Imposter", Email: "alice@example.com", Password: "other"})
	if !errors.Is(err, ErrEmailTaken) {
		t.Fatalf("err = %v, want ErrEmailTaken", err)
	}
}

func TestRegisterAgainUpdatesProfileInPlace(t *testing.T) {
	f := setup(t)

	user, err := f.svc.Register(nil, Input{ParentName: "Alice", Phone: "555-0100", Email: "alice@example.com", Password: "hunter22"})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	current := &auth.AuthContext{UserID: user.ID, Email: user.Email}
	if _, err := f.svc.Register(current, Input{ParentName: "Alice", Phone: "555-0199"}); err != nil {
		t.Fatalf("second register: %v", err)
	}

	count, _ := f.parents.CountForUser(user.ID)
	if count != 1 {
		t.Errorf("parent rows = %d, want 1", count)
	}
	parent, _ := f.parents.GetByUserID(user.ID)
	if parent.Phone != "555-0199" {
		t.Errorf("phone = %q, want updated value", parent.Phone)
	}
}

func TestRegisterDuplicateChildrenBlocksWholeBatch(t *testing.T) {
	f := setup(t)

	user, err := f.svc.Register(nil, Input{
		ParentName: "Alice",
		Email:      "alice@example.com",
		Password:   "hunter22",
		Children:   []ChildInput{{Name: "Sam"}, {Name: "Riley"}},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	current := &auth.AuthContext{UserID: user.ID, Email: user.Email}
	_, err = f.svc.Register(current, Input{
		ParentName: "Alice",
		Children:   []ChildInput{{Name: "Sam"}, {Name: "Jo"}, {Name: "Riley"}},
	})

	var dup *DuplicateChildrenError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateChildrenError", err)
	}
	if len(dup.Names) != 2 {
		t.Errorf("names = %v, want both Sam and Riley reported", dup.Names)
	}

	parent, _ := f.parents.GetByUserID(user.ID)
	children, _ := f.children.ListByParent(parent.ID)
	if len(children) != 2 {
		t.Errorf("len = %d, want 2: Jo must not be inserted alongside duplicates", len(children))
	}
}

func TestRegisterRepeatedNameInOneSubmission(t *testing.T) {
	f := setup(t)

	_, err := f.svc.Register(nil, Input{
		ParentName: "Alice",
		Email:      "alice@example.com",
		Password:   "hunter22",
		Children:   []ChildInput{{Name: "Sam"}, {Name: "Sam"}},
	})

	var dup *DuplicateChildrenError
	if !errors.As(err, &dup) {
		t.Fatalf("err = %v, want DuplicateChildrenError", err)
	}

	// The account itself was created; only the children were rejected.
	user, _ := f.users.GetByEmail("alice@example.com")
	if user == nil {
		t.Fatal("account should exist")
	}
	parent, _ := f.parents.GetByUserID(user.ID)
	children, _ := f.children.ListByParent(parent.ID)
	if len(children) != 0 {
		t.Errorf("len = %d, want 0", len(children))
	}
}

func TestRegisterSkipsBlankChildRows(t *testing.T) {
	f := setup(t)

	user, err := f.svc.Register(nil, Input{
		ParentName: "Alice",
		Email:      "alice@example.com",
		Password:   "hunter22",
		Children:   []ChildInput{{Name: "  "}, {Name: "Sam"}, {Name: ""}},
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}

	parent, _ := f.parents.GetByUserID(user.ID)
	children, _ := f.children.ListByParent(parent.ID)
	if len(children) != 1 {
		t.Errorf("len = %d, want 1 (blank rows dropped)", len(children))
	}
}
