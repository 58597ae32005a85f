package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/mrwolf/yojeum-server/internal/api"
	"github.com/mrwolf/yojeum-server/internal/config"
	"github.com/mrwolf/yojeum-server/internal/db"
	"github.com/mrwolf/yojeum-server/internal/logging"
	"github.com/mrwolf/yojeum-server/internal/metrics"
	"github.com/mrwolf/yojeum-server/internal/scheduler"
	"github.com/mrwolf/yojeum-server/internal/sharecard"
	"github.com/mrwolf/yojeum-server/internal/summary"
	"github.com/mrwolf/yojeum-server/internal/telegram"
	"github.com/mrwolf/yojeum-server/internal/vault"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		bootLog := logging.New("prod")
		bootLog.Fatal().Err(err).Msg("failed to load config")
	}

	log := logging.New(cfg.AppEnv)
	log.Info().Str("env", cfg.AppEnv).Msg("starting yojeum-server")

	// Open database
	database, err := db.Open(cfg.DBPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to open database")
	}

	v := vault.NewVault(cfg.VaultPath)

	fonts, err := sharecard.LoadFontSet(cfg.FontPath)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load font")
	}
	if fonts.Fallback {
		log.Warn().Msg("YOJEUM_FONT_PATH not set, cards use the built-in bitmap font")
	}

	svc := summary.NewService(database, cfg.Location(), log)
	svc.SetLookback(cfg.LookbackDays)

	metrics.MustRegister(prometheus.DefaultRegisterer)

	sched, err := scheduler.New(database, v, svc, fonts, scheduler.Config{
		Timezone:   cfg.Location(),
		LetterHour: cfg.LetterHour,
	}, log)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to create scheduler")
	}
	if err := sched.Start(); err != nil {
		log.Fatal().Err(err).Msg("failed to start scheduler")
	}

	router := api.NewRouter(api.Deps{
		Config:    cfg,
		DB:        database,
		Vault:     v,
		Summaries: svc,
		Fonts:     fonts,
		Sharer:    connectSharer(cfg, log),
		Letters:   sched,
		Gatherer:  prometheus.DefaultGatherer,
		Log:       log,
	})

	addr := ":" + cfg.Port
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful shutdown
	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		log.Info().Str("addr", addr).Msg("listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	<-done
	log.Info().Msg("shutting down gracefully")

	// Give ongoing requests 10 seconds to complete
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		log.Error().Err(err).Msg("http server shutdown")
	}
	if err := sched.Stop(); err != nil {
		log.Error().Err(err).Msg("scheduler shutdown")
	}
	if err := database.Close(); err != nil {
		log.Error().Err(err).Msg("database close")
	}

	log.Info().Msg("shutdown complete")
}

// connectSharer returns nil when sharing is off or the bot cannot be reached,
// so shares fall through to downloads
func connectSharer(cfg *config.Config, log zerolog.Logger) sharecard.Sharer {
	if !cfg.SharingEnabled() {
		return nil
	}
	s, err := telegram.Connect(cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramTextOnly, log)
	if err != nil {
		log.Warn().Err(err).Msg("telegram unavailable, shares will download instead")
		return nil
	}
	return s
}
