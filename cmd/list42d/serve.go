package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/dukerupert/list42/internal/config"
	"github.com/dukerupert/list42/internal/database"
	"github.com/dukerupert/list42/internal/logging"
	"github.com/dukerupert/list42/internal/server"
)

const (
	cleanupInterval = 10 * time.Minute
	shutdownTimeout = 5 * time.Second
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the list store",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadServer(configFile)
	if err != nil {
		return err
	}
	logger := logging.Setup(cfg.LogLevel, cfg.LogFormat)
	logger.Debug("configuration loaded", "config", cfg.String())

	db, err := database.Open(cfg.DBPath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	srv := server.New(db, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go srv.RateLimiter().RunCleanup(ctx, cleanupInterval)
	go cleanupSessions(ctx, srv, logger)

	httpServer := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errc := make(chan error, 1)
	go func() {
		logger.Info("list42d running", "url", cfg.PublicURL, "db", cfg.DBPath)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errc <- err
		}
	}()

	select {
	case err := <-errc:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	fmt.Fprintln(os.Stderr, "\nShutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown error: %w", err)
	}
	return nil
}

func cleanupSessions(ctx context.Context, srv *server.Server, logger *slog.Logger) {
	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			n, err := srv.SessionStore().DeleteExpired()
			if err != nil {
				logger.Error("delete expired sessions", "error", err)
				continue
			}
			if n > 0 {
				logger.Info("expired sessions deleted", "count", n)
			}
		case <-ctx.Done():
			return
		}
	}
}
