// Package backup uploads encrypted database snapshots to S3-compatible
// storage on a daily schedule. It is disabled unless fully configured.
package backup

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// s3Client is the subset of the S3 API the runner uses, for testability.
type s3Client interface {
	PutObject(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds S3 and encryption settings.
type Config struct {
	Endpoint   string
	Bucket     string
	Region     string
	AccessKey  string
	SecretKey  string
	Passphrase string
	DBPath     string
}

// Enabled reports whether backups are fully configured.
func (c Config) Enabled() bool {
	return c.Bucket != "" && c.AccessKey != "" && c.SecretKey != "" && c.Passphrase != ""
}

// Runner snapshots the database, encrypts the snapshot, and uploads it.
type Runner struct {
	cfg    Config
	db     *sql.DB
	client s3Client
	logger *slog.Logger

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRunner(cfg Config, db *sql.DB, logger *slog.Logger) *Runner {
	r := &Runner{cfg: cfg, db: db, logger: logger}
	if cfg.Enabled() {
		opts := s3.Options{
			Region:       cfg.Region,
			Credentials:  credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
			UsePathStyle: true,
		}
		if cfg.Endpoint != "" {
			opts.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		r.client = s3.New(opts)
	}
	return r
}

// Start begins the daily backup loop. The first snapshot is taken right
// away, so a freshly configured instance is covered the same day rather than
// a full tick later. No-op when not configured.
func (r *Runner) Start(ctx context.Context) {
	if r.client == nil {
		r.logger.Info("backups disabled: missing configuration")
		return
	}

	ctx, r.cancel = context.WithCancel(ctx)
	r.done = make(chan struct{})

	go func() {
		defer close(r.done)

		if err := r.RunOnce(ctx); err != nil {
			r.logger.Error("initial backup", "error", err)
		}

		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if err := r.RunOnce(ctx); err != nil {
					r.logger.Error("scheduled backup", "error", err)
				}
			}
		}
	}()
}

// Stop cancels the loop and waits for it to exit.
func (r *Runner) Stop() {
	if r.cancel != nil {
		r.cancel()
	}
	if r.done != nil {
		<-r.done
	}
}

// RunOnce takes one snapshot, encrypts it, and uploads it. The snapshot uses
// VACUUM INTO so the live database is never copied mid-write.
func (r *Runner) RunOnce(ctx context.Context) error {
	if r.client == nil {
		return fmt.Errorf("backup not configured")
	}

	tmpDir, err := os.MkdirTemp("", "rookery-backup-*")
	if err != nil {
		return fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tmpDir)

	snapshot := filepath.Join(tmpDir, "snapshot.db")
	if _, err := r.db.ExecContext(ctx, fmt.Sprintf("VACUUM INTO '%s'", snapshot)); err != nil {
		return fmt.Errorf("vacuum into snapshot: %w", err)
	}

	plaintext, err := os.ReadFile(snapshot)
	if err != nil {
		return fmt.Errorf("read snapshot: %w", err)
	}

	sealed, err := Seal(plaintext, r.cfg.Passphrase)
	if err != nil {
		return fmt.Errorf("encrypt snapshot: %w", err)
	}

	key := fmt.Sprintf("rookery/%s.db.enc", time.Now().UTC().Format("2006-01-02T15-04-05Z"))
	_, err = r.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(r.cfg.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(sealed),
	})
	if err != nil {
		return fmt.Errorf("upload backup: %w", err)
	}

	r.logger.Info("backup uploaded", "key", key, "bytes", len(sealed))
	return nil
}
