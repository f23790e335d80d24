package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"docguard/config"
	telegram "docguard/internal/api"
	"docguard/internal/container"
	"docguard/internal/domain/policy"
	"docguard/internal/infrastructure/storage"
	"docguard/internal/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	log := logger.New(cfg.LogLevel)

	if err := cfg.Validate(); err != nil {
		log.Error("invalid config", "error", err)
		os.Exit(1)
	}
	if cfg.TelegramToken == "" {
		log.Error("TELEGRAM_TOKEN is required")
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Переопределения политик из файла, с перечитыванием при изменении
	store := policy.NewStore(cfg.PolicyFile)
	if err := store.Load(); err != nil {
		log.Error("load policy file", "path", cfg.PolicyFile, "error", err)
		os.Exit(1)
	}
	if cfg.WatchPolicy {
		if err := store.Watch(); err != nil {
			log.Error("watch policy file", "error", err)
			os.Exit(1)
		}
		store.OnChange(func(*policy.Overrides) {
			log.Info("policy overrides reloaded", "path", cfg.PolicyFile)
		})
		go func() {
			for {
				select {
				case <-ctx.Done():
					return
				case err := <-store.Errors():
					log.Warn("policy reload failed, keeping previous overrides", "error", err)
				}
			}
		}()
	}
	defer store.Close()

	// Создаём хранилище пользователей
	userRepo := storage.NewMemoryUserRepository()

	// Собираем сервисы приложения
	appContainer := container.New(cfg, userRepo, store, log)

	// Создаём бота
	bot, err := telegram.NewBot(cfg.TelegramToken, appContainer, log.With("component", "bot"))
	if err != nil {
		log.Error("create bot", "error", err)
		os.Exit(1)
	}

	log.Info("bot is running", "policy", cfg.Policy, "workers", cfg.Workers)
	if err := bot.Run(ctx); err != nil {
		log.Error("bot stopped", "error", err)
		os.Exit(1)
	}
	log.Info("bot stopped")
}
