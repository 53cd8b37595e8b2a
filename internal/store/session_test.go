package store

import "testing"

func TestSessionCreate(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	userID := createTestUser(t, NewUserStore(db), "alice@example.com")

	sess, err := ss.Create(userID)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if len(sess.Token) != 64 { // 32 bytes hex-encoded
		t.Errorf("token length = %d, want 64", len(sess.Token))
	}
	if sess.UserID != userID {
		t.Errorf("user_id = %d, want %d", sess.UserID, userID)
	}
}

func TestSessionGetByToken(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	userID := createTestUser(t, NewUserStore(db), "alice@example.com")

	created, _ := ss.Create(userID)

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess == nil {
		t.Fatal("expected session, got nil")
	}
	if sess.ID != created.ID {
		t.Errorf("id = %d, want %d", sess.ID, created.ID)
	}
}

func TestSessionGetByTokenNotFound(t *testing.T) {
	ss := NewSessionStore(setupTestDB(t))

	sess, err := ss.GetByToken("nonexistent")
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for nonexistent token")
	}
}

func TestSessionDeleteForUser(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	userID := createTestUser(t, NewUserStore(db), "alice@example.com")

	s1, _ := ss.Create(userID)
	s2, _ := ss.Create(userID)

	if err := ss.DeleteForUser(userID); err != nil {
		t.Fatalf("delete for user: %v", err)
	}

	for _, token := range []string{s1.Token, s2.Token} {
		sess, err := ss.GetByToken(token)
		if err != nil {
			t.Fatalf("get after delete: %v", err)
		}
		if sess != nil {
			t.Error("expected nil after DeleteForUser")
		}
	}
}

func TestSessionExpiredNotReturned(t *testing.T) {
	db := setupTestDB(t)
	ss := NewSessionStore(db)
	userID := createTestUser(t, NewUserStore(db), "alice@example.com")

	created, _ := ss.Create(userID)

	// Force the session into the past.
	if _, err := db.Exec(`UPDATE sessions SET expires_at = datetime('now', '-1 hour') WHERE id = ?`, created.ID); err != nil {
		t.Fatalf("expire session: %v", err)
	}

	sess, err := ss.GetByToken(created.Token)
	if err != nil {
		t.Fatalf("get by token: %v", err)
	}
	if sess != nil {
		t.Error("expected nil for expired session")
	}

	deleted, err := ss.DeleteExpired()
	if err != nil {
		t.Fatalf("delete expired: %v", err)
	}
	if deleted != 1 {
		t.Errorf("deleted = %d, want 1", deleted)
	}
}
