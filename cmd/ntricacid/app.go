package main

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/abdul-hamid-achik/ntricacid/internal/config"
	"github.com/abdul-hamid-achik/ntricacid/internal/conversation"
	"github.com/abdul-hamid-achik/ntricacid/internal/llm"
	"github.com/abdul-hamid-achik/ntricacid/internal/logging"
	"github.com/abdul-hamid-achik/ntricacid/internal/speech"
	"github.com/abdul-hamid-achik/ntricacid/internal/storage"
)

// app holds what every conversation command shares
type app struct {
	cfg     *config.Config
	log     *logging.Logger
	store   storage.Store
	gateway llm.Gateway
}

// openStore opens the configured key-value store
func openStore(cfg *config.Config) (storage.Store, error) {
	store, err := storage.Open(cfg.Storage.Backend, cfg.StoragePath())
	if err != nil {
		return nil, fmt.Errorf("failed to open storage: %w", err)
	}
	return store, nil
}

// openApp opens storage and builds the gateway. The API key is required.
func openApp(ctx context.Context, cfg *config.Config, log *logging.Logger) (*app, error) {
	if err := cfg.RequireAPIKey(); err != nil {
		return nil, err
	}
	store, err := openStore(cfg)
	if err != nil {
		return nil, err
	}
	gw, err := llm.New(ctx, cfg, log)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("failed to create %s gateway: %w", cfg.Provider, err)
	}
	return &app{cfg: cfg, log: log, store: store, gateway: gw}, nil
}

// controller loads the session from storage. onChange may be nil.
func (a *app) controller(ctx context.Context, onChange func(conversation.State)) (*conversation.Controller, error) {
	return conversation.New(ctx, conversation.Config{
		Gateway:  a.gateway,
		Store:    a.store,
		Logger:   a.log,
		Speaker:  speech.NewPlayer(a.cfg, a.log),
		OnChange: onChange,
	})
}

// setWaitCallback renders pacing delays when the gateway is paced
func (a *app) setWaitCallback(cb llm.WaitCallback) {
	if paced, ok := a.gateway.(interface{ SetWaitCallback(llm.WaitCallback) }); ok {
		paced.SetWaitCallback(cb)
	}
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		a.log.Warn("closing storage", logging.Error(err))
	}
}

// chatModel names the model answering chat for the configured provider
func chatModel(cfg *config.Config) string {
	if cfg.Provider == config.ProviderAnthropic {
		return cfg.Models.Anthropic
	}
	return cfg.Models.Chat
}

// termHistoryFile keeps line editing history for the research terminal
func termHistoryFile(cfg *config.Config) string {
	return filepath.Join(cfg.DataDir, "term_history")
}
