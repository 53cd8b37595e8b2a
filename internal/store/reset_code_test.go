package store

import "testing"

func TestResetCodeCreate(t *testing.T) {
	rcs := NewResetCodeStore(setupTestDB(t))

	rc, err := rcs.Create("alice@example.com")
	if err != nil {
		t.Fatalf("create reset code: %v", err)
	}
	if len(rc.Code) != 6 {
		t.Errorf("code length = %d, want 6", len(rc.Code))
	}
	if rc.Attempts != 0 {
		t.Errorf("attempts = %d, want 0", rc.Attempts)
	}
}

func TestResetCodeCreateInvalidatesPrevious(t *testing.T) {
	rcs := NewResetCodeStore(setupTestDB(t))

	first, _ := rcs.Create("alice@example.com")
	second, _ := rcs.Create("alice@example.com")

	latest, err := rcs.GetLatestByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest == nil {
		t.Fatal("expected a code")
	}
	if latest.ID != second.ID {
		t.Errorf("latest id = %d, want %d", latest.ID, second.ID)
	}
	if latest.ID == first.ID {
		t.Error("first code should have been invalidated")
	}
}

func TestResetCodeMarkUsed(t *testing.T) {
	rcs := NewResetCodeStore(setupTestDB(t))

	rc, _ := rcs.Create("alice@example.com")
	if err := rcs.MarkUsed(rc.ID); err != nil {
		t.Fatalf("mark used: %v", err)
	}

	latest, err := rcs.GetLatestByEmail("alice@example.com")
	if err != nil {
		t.Fatalf("get latest: %v", err)
	}
	if latest != nil {
		t.Error("expected nil after code used")
	}
}

func TestResetCodeIncrementAttempts(t *testing.T) {
	rcs := NewResetCodeStore(setupTestDB(t))

	rc, _ := rcs.Create("alice@example.com")

	for want := 1; want <= 3; want++ {
		got, err := rcs.IncrementAttempts(rc.ID)
		if err != nil {
			t.Fatalf("increment attempts: %v", err)
		}
		if got != want {
			t.Errorf("attempts = %d, want %d", got, want)
		}
	}
}
