package wire

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/mithrel/classkit/internal/chat"
	"github.com/mithrel/classkit/internal/config"
	"github.com/mithrel/classkit/internal/db"
	"github.com/mithrel/classkit/internal/llm"
	xlog "github.com/mithrel/classkit/internal/log"
	"github.com/mithrel/classkit/internal/questionnaire"
)

// App aggregates the major services for easy injection.
type App struct {
	Cfg      *viper.Viper
	Log      *zap.Logger
	Store    db.Store
	LLM      llm.Client
	ChatOpts chat.Options
	Sessions *chat.Registry
	Quest    *questionnaire.Service
}

// BuildApp wires dependencies with the provided config.
func BuildApp(ctx context.Context, v *viper.Viper) (*App, error) {
	if err := config.CheckConfigValidity(v); err != nil {
		return nil, err
	}
	logger, err := xlog.New(v.GetString("log.level"), v.GetString("log.format"), os.Stderr)
	if err != nil {
		return nil, err
	}

	dbPath := config.ResolveDBPath(v)
	store, err := db.Open(ctx, "sqlite://"+dbPath)
	if err != nil {
		return nil, fmt.Errorf("open store %s: %w", dbPath, err)
	}

	client, err := llm.New(v)
	if err != nil {
		if !errors.Is(err, llm.ErrMissingAPIKey) {
			_ = store.Close()
			return nil, err
		}
		logger.Warn("llm disabled", zap.Error(err))
		client = llm.Unavailable(err)
	}

	chatOpts := chat.Options{
		Temperature: v.GetFloat64("llm.temperature"),
		MaxTokens:   v.GetInt("llm.max_tokens"),
		Logger:      logger.Named("chat"),
	}

	return &App{
		Cfg:      v,
		Log:      logger,
		Store:    store,
		LLM:      client,
		ChatOpts: chatOpts,
		Sessions: chat.NewRegistry(client, chatOpts),
		Quest:    questionnaire.New(v, store, logger),
	}, nil
}

// Close flushes pending draft edits and releases the store.
func (a *App) Close(ctx context.Context) error {
	err := a.Quest.Close(ctx)
	if cerr := a.Store.Close(); err == nil {
		err = cerr
	}
	_ = a.Log.Sync()
	return err
}
