// File: cmd/server/main.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"gorm.io/gorm/logger"

	"github.com/iyunix/go-docchat/internal/config"
	"github.com/iyunix/go-docchat/internal/database"
	"github.com/iyunix/go-docchat/internal/services"
)

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}
	appLogger := services.NewLogger("docchat", cfg.Environment, cfg.LogLevel)

	if err := run(cfg, appLogger); err != nil {
		appLogger.Error("[Server] exiting", "error", err)
		os.Exit(1)
	}
}

// run serves until a signal or a listen failure. Everything it opens is
// released by its defers before it returns.
func run(cfg *config.Config, appLogger services.Logger) error {
	db, err := database.OpenAndMigrate(cfg.DBPath, logger.Default.LogMode(logger.Warn))
	if err != nil {
		return fmt.Errorf("database unavailable at %s: %w", cfg.DBPath, err)
	}
	defer func() {
		if err := database.Close(db); err != nil {
			appLogger.Warn("[Server] database close failed", "error", err)
		}
	}()

	application, cleanup, err := InitializeApplication(cfg, appLogger, db)
	if err != nil {
		return fmt.Errorf("initialize application: %w", err)
	}
	defer cleanup()

	srv := &http.Server{
		Addr:              net.JoinHostPort(cfg.ServerHost, cfg.ServerPort),
		Handler:           application.Router,
		ReadHeaderTimeout: 10 * time.Second,
		// Loading a document waits on two completions; leave room for the
		// configured per-attempt timeout and its retries.
		WriteTimeout: cfg.AITimeout*time.Duration(cfg.AIMaxRetries+1) + 30*time.Second,
		IdleTimeout:  120 * time.Second,
	}

	appLogger.Info("[Server] starting", "addr", srv.Addr, "db", cfg.DBPath,
		"ai_provider", cfg.AIProvider, "upload_dir", cfg.UploadDir, "docs_dir", cfg.DocsDir)

	// --- Graceful Shutdown ---
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(stop)

	return serve(srv, stop, 15*time.Second, appLogger)
}

// serve runs srv until it fails to listen or stop fires, then shuts it
// down within grace.
func serve(srv *http.Server, stop <-chan os.Signal, grace time.Duration, appLogger services.Logger) error {
	serveErr := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			return fmt.Errorf("listen on %s: %w", srv.Addr, err)
		}
		return nil
	case <-stop:
	}

	appLogger.Info("[Server] shutting down gracefully")
	ctx, cancel := context.WithTimeout(context.Background(), grace)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("shutdown: %w", err)
	}
	appLogger.Info("[Server] stopped")
	return nil
}
