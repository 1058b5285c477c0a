package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/blockedby/megamd/internal/bot"
	"github.com/blockedby/megamd/internal/channelinfo"
	"github.com/blockedby/megamd/internal/commands/short"
	"github.com/blockedby/megamd/internal/config"
	"github.com/blockedby/megamd/internal/logger"
	"github.com/blockedby/megamd/internal/publisher"
	"github.com/blockedby/megamd/internal/session"
	"github.com/blockedby/megamd/internal/shortener"
	"github.com/blockedby/megamd/internal/web"
	"github.com/blockedby/megamd/internal/whatsapp"
)

func main() {
	// 1. Load .env (optional) and config
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		panic("failed to load config: " + err.Error())
	}

	// 2. Initialize logger
	if err := logger.Init(cfg.LogLevel, cfg.LogFile); err != nil {
		panic("failed to init logger: " + err.Error())
	}
	log := logger.Get()
	log.Info().Msg("starting bot")

	// 3. Setup context with graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigChan
		log.Info().Msg("received shutdown signal")
		cancel()
	}()

	// 4. Download credentials when a session id is configured.
	// The file is left for external consumers; login uses the device store below.
	if cfg.SessionID != "" {
		boot := session.NewBootstrapper(session.Config{
			Dir:          cfg.SessionDir,
			FileName:     cfg.SessionFile,
			DefaultOwner: cfg.SessionGistOwner,
			Timeout:      cfg.SessionFetchTimeout,
		}, log.Component("session"))

		if _, err := boot.FetchAndStore(ctx, cfg.SessionID); err != nil {
			log.Fatal().Err(err).Msg("failed to bootstrap session credentials")
		}
	}
	if err := os.MkdirAll(cfg.SessionDir, 0755); err != nil {
		log.Fatal().Err(err).Str("dir", cfg.SessionDir).Msg("failed to create session directory")
	}

	// 5. Connect to NATS (optional)
	var events bot.EventPublisher
	var eventsConn web.ConnectionChecker
	if cfg.NatsURL != "" {
		pub, err := publisher.Connect(cfg.NatsURL)
		if err != nil {
			log.Warn().Err(err).Msg("failed to connect to nats, command events disabled")
		} else {
			defer pub.Close()
			events = pub
			eventsConn = pub
		}
	}

	// 6. Register commands
	registry := bot.NewRegistry()
	registry.MustRegister(
		short.New(shortener.NewClient(shortener.Config{
			BaseURL: cfg.ShortenerBaseURL,
			APIKey:  cfg.ShortenerAPIKey,
			Timeout: cfg.ShortenerTimeout,
		}), log.Component("short")),
	)

	// 7. Initialize WhatsApp client and dispatcher
	meta := channelinfo.New(cfg.NewsletterName)
	waCfg := whatsapp.Config{
		DBDialect: cfg.WADBDialect,
		DBAddress: cfg.WADBAddress,
		SendRPS:   cfg.WASendRPS,
	}
	if cfg.ForwardAsChannel {
		waCfg.Channel = &meta
	}

	wa, err := whatsapp.New(ctx, waCfg, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize whatsapp client")
	}
	defer wa.Stop()

	dispatcher := bot.NewDispatcher(registry, cfg.CommandPrefix, wa, events, log.Component("bot"))
	wa.SetHandler(dispatcher)

	if err := wa.Start(ctx); err != nil {
		log.Fatal().Err(err).Msg("failed to connect to whatsapp")
	}

	// 8. Status server
	var server *web.Server
	if cfg.HTTPPort > 0 {
		server = web.NewServer(&web.Config{Port: cfg.HTTPPort}, web.Deps{
			WhatsApp: wa,
			Events:   eventsConn,
			Commands: registry,
			Channel:  waCfg.Channel,
		})

		log.Info().Int("port", cfg.HTTPPort).Msg("starting status server")
		go func() {
			if err := server.Start(); err != nil && err != http.ErrServerClosed {
				log.Error().Err(err).Msg("status server error")
			}
		}()
	}

	// 9. Wait for shutdown
	<-ctx.Done()
	log.Info().Msg("shutting down...")

	if server != nil {
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer shutdownCancel()
		_ = server.Stop(shutdownCtx)
	}

	log.Info().Msg("shutdown complete")
}
