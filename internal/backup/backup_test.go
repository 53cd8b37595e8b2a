package backup

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/rookery-club/rookery/internal/database"
)

type fakeS3 struct {
	mu      sync.Mutex
	keys    []string
	objects [][]byte
}

func (f *fakeS3) PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	data, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	f.mu.Lock()
	f.keys = append(f.keys, *input.Key)
	f.objects = append(f.objects, data)
	f.mu.Unlock()
	return &s3.PutObjectOutput{}, nil
}

func (f *fakeS3) uploads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.keys)
}

func TestConfigEnabled(t *testing.T) {
	cfg := Config{Bucket: "b", AccessKey: "a", SecretKey: "s", Passphrase: "p"}
	if !cfg.Enabled() {
		t.Error("fully configured should be enabled")
	}

	cfg.Passphrase = ""
	if cfg.Enabled() {
		t.Error("missing passphrase should disable backups")
	}
}

func TestRunOnceUploadsDecryptableSnapshot(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fake := &fakeS3{}
	r := &Runner{
		cfg:    Config{Bucket: "backups", Passphrase: "pass"},
		db:     db,
		client: fake,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	if err := r.RunOnce(context.Background()); err != nil {
		t.Fatalf("run once: %v", err)
	}

	if len(fake.keys) != 1 {
		t.Fatalf("uploads = %d, want 1", len(fake.keys))
	}
	if !strings.HasPrefix(fake.keys[0], "rookery/") || !strings.HasSuffix(fake.keys[0], ".db.enc") {
		t.Errorf("key = %q, want rookery/<timestamp>.db.enc", fake.keys[0])
	}

	plain, err := Open(fake.objects[0], "pass")
	if err != nil {
		t.Fatalf("decrypt snapshot: %v", err)
	}
	// SQLite database files start with this header.
	if !strings.HasPrefix(string(plain), "SQLite format 3") {
		t.Error("decrypted snapshot is not a SQLite database")
	}
}

func TestStartTakesImmediateSnapshot(t *testing.T) {
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	fake := &fakeS3{}
	r := &Runner{
		cfg:    Config{Bucket: "backups", Passphrase: "pass"},
		db:     db,
		client: fake,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}

	r.Start(context.Background())
	t.Cleanup(r.Stop)

	// The first snapshot runs on start, not a day later.
	deadline := time.Now().Add(5 * time.Second)
	for fake.uploads() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("no snapshot uploaded after Start")
		}
		time.Sleep(10 * time.Millisecond)
	}
}

func TestRunOnceUnconfigured(t *testing.T) {
	r := &Runner{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	if err := r.RunOnce(context.Background()); err == nil {
		t.Fatal("expected error when not configured")
	}
}
