package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/mrwolf/yojeum-server/internal/config"
	"github.com/mrwolf/yojeum-server/internal/db"
	"github.com/mrwolf/yojeum-server/internal/logging"
	"github.com/mrwolf/yojeum-server/internal/scheduler"
	"github.com/mrwolf/yojeum-server/internal/sharecard"
	"github.com/mrwolf/yojeum-server/internal/summary"
	"github.com/mrwolf/yojeum-server/internal/telegram"
	"github.com/mrwolf/yojeum-server/internal/vault"
)

// Version is set via -ldflags at build time.
var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.LoadLocal()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		return 1
	}

	log := logging.NewWithWriter(cfg.AppEnv, os.Stderr)

	database, err := db.Open(cfg.DBPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "database:", err)
		return 1
	}
	defer database.Close()

	fonts, err := sharecard.LoadFontSet(cfg.FontPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "font:", err)
		return 1
	}

	v := vault.NewVault(cfg.VaultPath)
	svc := summary.NewService(database, cfg.Location(), log)
	svc.SetLookback(cfg.LookbackDays)

	// Not started; only GenerateNow is used.
	sched, err := scheduler.New(database, v, svc, fonts, scheduler.Config{
		Timezone:   cfg.Location(),
		LetterHour: cfg.LetterHour,
	}, log)
	if err != nil {
		fmt.Fprintln(os.Stderr, "scheduler:", err)
		return 1
	}

	env := &cliEnv{
		db:        database,
		vault:     v,
		summaries: svc,
		fonts:     fonts,
		letters:   sched,
		clipboard: sharecard.SystemClipboard{},
		surfaces:  sharecard.OSC52Surfaces{Out: os.Stderr},
		loc:       cfg.Location(),
		now:       time.Now,
		log:       log,
	}
	if cfg.SharingEnabled() {
		s, err := telegram.Connect(cfg.TelegramToken, cfg.TelegramChatID, cfg.TelegramTextOnly, log)
		if err != nil {
			log.Warn().Err(err).Msg("telegram unavailable, share will download instead")
		} else {
			env.sharer = s
		}
	}

	// Ctrl-C during a share counts as the user dismissing it.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newCLIApp(env).RunContext(ctx, os.Args); err != nil {
		if msg := err.Error(); msg != "" {
			fmt.Fprintln(os.Stderr, msg)
		}
		return 1
	}
	return 0
}
