package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rookery-club/rookery/internal/backup"
	"github.com/rookery-club/rookery/internal/database"
	"github.com/rookery-club/rookery/internal/email"
	"github.com/rookery-club/rookery/internal/logging"
	"github.com/rookery-club/rookery/internal/push"
	"github.com/rookery-club/rookery/internal/server"
)

func main() {
	logger := logging.Setup(os.Getenv("ROOKERY_LOG_LEVEL"))

	port := os.Getenv("ROOKERY_PORT")
	if port == "" {
		port = "8080"
	}

	dbPath := os.Getenv("ROOKERY_DB_PATH")
	if dbPath == "" {
		dbPath = "rookery.db"
	}

	db, err := database.Open(dbPath)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	emailClient := email.NewClient(
		os.Getenv("ROOKERY_POSTMARK_TOKEN"),
		os.Getenv("ROOKERY_FROM_EMAIL"),
	)

	pushCfg := push.Config{
		VAPIDPublicKey:  os.Getenv("ROOKERY_VAPID_PUBLIC_KEY"),
		VAPIDPrivateKey: os.Getenv("ROOKERY_VAPID_PRIVATE_KEY"),
		Subscriber:      os.Getenv("ROOKERY_VAPID_SUBSCRIBER"),
	}

	srv := server.New(db, emailClient, pushCfg, logger)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if sched := srv.PushScheduler(); sched != nil {
		sched.Start(ctx)
		defer sched.Stop()
	}

	backupCfg := backup.Config{
		Endpoint:   os.Getenv("ROOKERY_S3_ENDPOINT"),
		Bucket:     os.Getenv("ROOKERY_S3_BUCKET"),
		Region:     os.Getenv("ROOKERY_S3_REGION"),
		AccessKey:  os.Getenv("ROOKERY_S3_ACCESS_KEY"),
		SecretKey:  os.Getenv("ROOKERY_S3_SECRET_KEY"),
		Passphrase: os.Getenv("ROOKERY_BACKUP_PASSPHRASE"),
		DBPath:     dbPath,
	}
	backupRunner := backup.NewRunner(backupCfg, db, logger.With("component", "backup"))
	backupRunner.Start(ctx)
	defer backupRunner.Stop()

	// Hourly cleanup of expired sessions, reset codes, and rate limit entries.
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := srv.SessionStore().DeleteExpired(); err != nil {
					logger.Error("session cleanup", "error", err)
				}
				if _, err := srv.ResetCodeStore().DeleteExpired(); err != nil {
					logger.Error("reset code cleanup", "error", err)
				}
				srv.RateLimiter().Cleanup()
			}
		}
	}()

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      srv.Router(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		fmt.Printf("Rookery running at http://localhost:%s\n", port)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	fmt.Println("\nShutting down...")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
