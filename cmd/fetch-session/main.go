package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/blockedby/megamd/internal/config"
	"github.com/blockedby/megamd/internal/logger"
	"github.com/blockedby/megamd/internal/session"
)

// fetch-session downloads the credential file for a session id and exits.
// Usage: fetch-session [SESSION_ID]
func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// stdout carries only the credential path
	log := logger.NewWithWriter(cfg.LogLevel, zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"})

	id := cfg.SessionID
	if len(os.Args) > 1 {
		id = os.Args[1]
	}
	if id == "" {
		fmt.Fprintln(os.Stderr, "usage: fetch-session <SESSION_ID> (or set SESSION_ID)")
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	boot := session.NewBootstrapper(session.Config{
		Dir:          cfg.SessionDir,
		FileName:     cfg.SessionFile,
		DefaultOwner: cfg.SessionGistOwner,
		Timeout:      cfg.SessionFetchTimeout,
	}, log.Component("session"))

	path, err := boot.FetchAndStore(ctx, id)
	if err != nil {
		log.Error().Err(err).Msg("session download failed")
		os.Exit(1)
	}
	fmt.Println(path)
}
