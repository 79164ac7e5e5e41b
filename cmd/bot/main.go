package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sashakosti/Go_Bot_Marceline/internal/config"
	"github.com/sashakosti/Go_Bot_Marceline/internal/service"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage"
	"github.com/sashakosti/Go_Bot_Marceline/internal/storage/memory"
	"github.com/sashakosti/Go_Bot_Marceline/internal/telegram"
	"github.com/sashakosti/Go_Bot_Marceline/internal/wizard"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	log := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("bot exited with error", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	store, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeStore()

	wizards, closeWizards, err := openWizardStore(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer closeWizards()

	seeds, err := service.LoadSeedRoasts(cfg.RoastsSeedPath)
	if err != nil {
		log.Warn("failed to read roast seeds", "path", cfg.RoastsSeedPath, "error", err)
	}

	api, err := telegram.NewBotAPI(cfg.TelegramToken, cfg.Debug)
	if err != nil {
		return err
	}

	svc := telegram.Services{
		Sessions: service.NewSessionService(store, store, time.Now),
		Stats:    service.NewStatsService(store, store, wizards, time.Now),
		Members:  service.NewMembersService(store, time.Now),
		Vault:    service.NewVaultService(store),
		Roasts:   service.NewRoastService(store, seeds),
		Admin:    service.NewAdminService(cfg.SuperAdminID, store, store, store),
	}
	handler := telegram.NewHandler(api, svc, log)

	reaper := service.NewReaper(store, telegram.Deleter{Bot: api}, cfg.ReapInterval, cfg.ReapDelay, log.With("component", "reaper"))
	go reaper.Run(ctx)

	telegram.NewBot(api, handler, log).Run(ctx)
	return nil
}

// openStore - PostgreSQL, если задан DSN, иначе хранилище в памяти.
func openStore(ctx context.Context, cfg config.Config, log *slog.Logger) (service.Store, func(), error) {
	if cfg.PostgresDSN == "" {
		log.Warn("POSTGRES_DSN is not set, data will be kept in memory only")
		return memory.New(), func() {}, nil
	}

	db, err := storage.New(ctx, cfg.PostgresDSN, cfg.DBMaxConns)
	if err != nil {
		return nil, nil, err
	}
	if err := db.Ping(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	if err := db.Migrate(ctx); err != nil {
		db.Close()
		return nil, nil, err
	}
	log.Info("connected to Postgres")
	return db, db.Close, nil
}

// openWizardStore - Redis, если задан REDIS_URL, иначе память процесса.
func openWizardStore(ctx context.Context, cfg config.Config, log *slog.Logger) (service.WizardStore, func(), error) {
	if cfg.RedisURL == "" {
		return wizard.NewMemoryStore(), func() {}, nil
	}
	rs, err := wizard.NewRedisStore(ctx, cfg.RedisURL)
	if err != nil {
		return nil, nil, err
	}
	log.Info("connected to Redis")
	return rs, func() {
		if err := rs.Close(); err != nil {
			log.Warn("failed to close redis", "error", err)
		}
	}, nil
}
