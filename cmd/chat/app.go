package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"

	"github.com/Rrens/admission-chat/internal/answer"
	"github.com/Rrens/admission-chat/internal/chat"
	"github.com/Rrens/admission-chat/internal/config"
	"github.com/Rrens/admission-chat/internal/domain"
	"github.com/Rrens/admission-chat/internal/logger"
	"github.com/Rrens/admission-chat/internal/repository"
	"github.com/Rrens/admission-chat/internal/session"
	"github.com/Rrens/admission-chat/internal/store"
)

// app wires the chat stack against the same storage the server uses
type app struct {
	cfg        *config.Config
	kv         domain.KVStore
	sessions   *session.Repository
	controller *chat.Controller
	closers    []func() error
}

func openApp(ctx context.Context) (*app, error) {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	// keep log lines out of the conversation unless something goes wrong
	logCfg := cfg.Logging
	if logCfg.Level == "" || logCfg.Level == "info" || logCfg.Level == "debug" || logCfg.Level == "trace" {
		logCfg.Level = "warn"
	}
	logCloser, err := logger.Setup(logCfg, os.Getenv("ENV") == "production")
	if err != nil {
		return nil, err
	}

	kv, err := repository.Open(ctx, cfg)
	if err != nil {
		logCloser.Close()
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}

	answers, err := answer.NewClient(cfg.Answer)
	if err != nil {
		kv.Close()
		logCloser.Close()
		return nil, err
	}

	sessions := session.NewRepository(ctx, store.New(kv, cfg.Storage.Key, domain.EmptySessionState))

	return &app{
		cfg:        cfg,
		kv:         kv,
		sessions:   sessions,
		controller: chat.NewController(sessions, answers),
		closers:    []func() error{kv.Close, logCloser.Close},
	}, nil
}

func (a *app) Close() {
	a.controller.Cancel()
	a.controller.Wait()
	for _, c := range a.closers {
		c()
	}
}
