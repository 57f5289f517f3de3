package main

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"shorts/internal/server/auth"
	"shorts/internal/server/config"
	"shorts/internal/server/database"
	"shorts/internal/server/service"
	"shorts/internal/server/web"
)

func main() {
	// Structured logging
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
	slog.SetDefault(logger)

	// Load config
	cfg := config.Load()
	slog.Info("configuration loaded",
		"port", cfg.Port,
		"database_path", cfg.DatabasePath,
		"session_ttl", cfg.SessionTTL,
	)
	if cfg.InviteCode == "" {
		slog.Warn("SHORTS_INVITE is not set; registration is disabled")
	}

	secret := []byte(cfg.SessionSecret)
	if len(secret) == 0 {
		// Sessions will not survive a restart without a configured secret.
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			slog.Error("failed to generate session secret", "error", err)
			os.Exit(1)
		}
		secret = []byte(hex.EncodeToString(buf))
		slog.Warn("SESSION_SECRET is not set; using a random per-process secret")
	}

	// Open the store; a schema or location failure is fatal
	ctx := context.Background()
	db, err := database.Open(ctx, cfg.DatabasePath)
	if err != nil {
		slog.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	// Wire services and handlers
	repo := database.NewRepository(db)
	sessions := auth.NewSessions(secret, cfg.SessionTTL)
	links := service.NewLinkService(repo)
	accounts := service.NewAccountService(repo, cfg.InviteCode, cfg.BcryptCost)

	handler := web.NewHandler(links, accounts, sessions, db)
	e := web.SetupRouter(handler)
	e.Server.ReadTimeout = 5 * time.Second
	e.Server.WriteTimeout = 10 * time.Second

	// Start server in a goroutine
	go func() {
		addr := fmt.Sprintf(":%s", cfg.Port)
		slog.Info("starting server", "addr", addr, "base_url", cfg.BaseURL)
		if err := e.Start(addr); err != nil {
			slog.Info("server stopped", "reason", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutting down", "signal", sig)

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		slog.Error("server forced to shutdown", "error", err)
	}

	slog.Info("server exited cleanly")
}
