package cli

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/dshills/folio/internal/api"
	"github.com/dshills/folio/internal/auth"
	"github.com/dshills/folio/internal/config"
	"github.com/dshills/folio/internal/logging"
	"github.com/dshills/folio/internal/store"
)

// app holds the collaborators shared by commands that talk to the store or API.
type app struct {
	cfg    config.Config
	logger *slog.Logger
	store  store.Store
	auth   *auth.Holder
	api    *api.Client

	closeLog func() error
}

func newApp(cmd *cobra.Command) (*app, error) {
	cfg, err := config.Load(buildOverrides())
	if err != nil {
		return nil, err
	}
	level, err := config.ParseLevel(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	closeLog, err := logging.Setup(cmd.ErrOrStderr(), logging.Options{
		Level:  level,
		Format: cfg.LogFormat,
		File:   cfg.LogFile,
	})
	if err != nil {
		return nil, err
	}
	logger := slog.Default()

	st, err := store.Open(cfg.Store, cfg.CacheDir)
	if err != nil {
		closeLog()
		return nil, fmt.Errorf("opening store: %w", err)
	}
	holder := auth.NewHolder(st, logger)
	client := api.NewClient(api.Config{
		BaseURL: cfg.APIURL,
		Auth:    holder,
		Store:   st,
		Logger:  logger,
	})
	return &app{
		cfg:      cfg,
		logger:   logger,
		store:    st,
		auth:     holder,
		api:      client,
		closeLog: closeLog,
	}, nil
}

func (a *app) Close() {
	a.api.Close()
	if err := store.Close(a.store); err != nil {
		a.logger.Warn("Failed to close store", slog.Any("error", err))
	}
	a.closeLog()
}

// requireLogin fails early for admin commands without a session.
func (a *app) requireLogin() error {
	if a.auth.Session() == nil {
		return errNotLoggedIn
	}
	return nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, usagef("invalid id %q", s)
	}
	return id, nil
}

// withApp adapts a command body that needs an app into a cobra RunE.
func withApp(fn func(cmd *cobra.Command, a *app, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd)
		if err != nil {
			return err
		}
		defer a.Close()
		return fn(cmd, a, args)
	}
}
