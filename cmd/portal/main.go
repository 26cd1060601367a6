package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/mrpdigital/office-portal/internal/config"
	"github.com/mrpdigital/office-portal/internal/domain/letter"
	"github.com/mrpdigital/office-portal/internal/domain/user"
	"github.com/mrpdigital/office-portal/internal/reconcile"
	"github.com/mrpdigital/office-portal/internal/remote"
	"github.com/mrpdigital/office-portal/internal/sqlite"
	"github.com/mrpdigital/office-portal/internal/transport"
	"github.com/mrpdigital/office-portal/migrations"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Log.Level),
	}))

	if err := ensureDBDir(cfg.DB.Path); err != nil {
		logger.Error("failed to prepare database path", "error", err)
		os.Exit(1)
	}

	db, err := sqlite.New(cfg.DB.Path)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := runEmbeddedMigrations(db); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	letterRepo := sqlite.NewLetterRepository(db)
	userRepo := sqlite.NewUserRepository(db)
	settings := sqlite.NewSettingsRepository(db, cfg.Remote)

	client := remote.NewClient(settings, nil, logger)
	controller := reconcile.NewController(letterRepo, client, 30*time.Second, logger)

	letterSvc := letter.NewService(letterRepo, controller, client, logger)
	userSvc := user.NewService(userRepo, logger)

	startupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	if err := userSvc.EnsureDefaults(startupCtx); err != nil {
		logger.Error("failed to seed users", "error", err)
		os.Exit(1)
	}

	// Hydration is awaited so the allocator starts from the freshest
	// remote base. A failed pull is not fatal: the portal runs on the
	// local archive until a manual refresh succeeds.
	if err := controller.Hydrate(startupCtx); err != nil {
		logger.Warn("starting in offline mode", "error", err)
	}

	router := transport.NewServer(letterSvc, userSvc, controller, settings, logger)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	httpServer := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		logger.Info("server listening", "addr", addr)
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("server error", "error", err)
		}
	}()

	waitForShutdown(logger, httpServer, controller)
}

func runEmbeddedMigrations(db *sqlite.DB) error {
	// Fresh databases get the full schema; an existing one is left as
	// is. SQLite reports "table letters already exists" on re-apply.
	var applied bool
	err := db.QueryRow(
		`SELECT EXISTS(SELECT 1 FROM sqlite_master WHERE type = 'table' AND name = 'letters')`,
	).Scan(&applied)
	if err != nil {
		return fmt.Errorf("inspect schema: %w", err)
	}
	if applied {
		return nil
	}

	data, err := migrations.FS.ReadFile("001_initial_schema.up.sql")
	if err != nil {
		return fmt.Errorf("read migrations: %w", err)
	}
	if _, err := db.Exec(string(data)); err != nil {
		return fmt.Errorf("apply migrations: %w", err)
	}
	return nil
}

func ensureDBDir(path string) error {
	if path == ":memory:" || path == "" {
		return nil
	}
	dir := filepath.Dir(path)
	if dir == "." {
		return nil
	}
	return os.MkdirAll(dir, 0o755)
}

func waitForShutdown(logger *slog.Logger, server *http.Server, controller *reconcile.Controller) {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	logger.Info("shutting down")
	if err := server.Shutdown(ctx); err != nil {
		logger.Error("shutdown error", "error", err)
	}
	// Let in-flight push dispatches drain so a just-saved letter's
	// mirror isn't cut off.
	controller.Flush()
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
