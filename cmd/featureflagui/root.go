package main

import (
	"io"
	"net/http"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/spf13/cobra"

	"github.com/geekyind/FeatureFlagPracticeUI/config"
	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/remote"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/store"
)

func newRootCommand(stdout, stderr io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:          "featureflagui",
		Short:        "Feature flag practice UI for university authorization",
		SilenceUsage: true,
	}
	cmd.SetOut(stdout)
	cmd.SetErr(stderr)
	config.AddFlags(cmd.PersistentFlags())
	cmd.AddCommand(newServeCommand(), newListCommand())
	return cmd
}

// loadConfig resolves the configuration of cmd, and returns it with a
// logger filtered at the configured level.
func loadConfig(cmd *cobra.Command) (config.Config, log.Logger, error) {
	base := newLogger(cmd.ErrOrStderr())

	v, err := config.NewViper(cmd.Flags())
	if err != nil {
		return config.Config{}, nil, err
	}
	cfg, err := config.Load(v, level.NewFilter(base, level.AllowInfo()))
	if err != nil {
		level.Error(base).Log("during", "config", "err", err)
		return config.Config{}, nil, err
	}
	opt, err := cfg.LevelOption()
	if err != nil {
		return config.Config{}, nil, err
	}
	return cfg, level.NewFilter(base, opt), nil
}

func newLogger(w io.Writer) log.Logger {
	var logger log.Logger
	{
		logger = log.NewLogfmtLogger(log.NewSyncWriter(w))
		logger = log.With(logger, "ts", log.DefaultTimestampUTC)
		logger = log.With(logger, "caller", log.DefaultCaller)
	}
	return logger
}

// clientOptions returns the options shared by every backend client.
func clientOptions(cfg config.Config) []kithttp.ClientOption {
	return []kithttp.ClientOption{
		kithttp.SetClient(&http.Client{Timeout: cfg.Timeout}),
	}
}

// newHydrator returns a hydrator filling s from the configured backend, or
// nil if hydration is disabled.
func newHydrator(cfg config.Config, s *store.Store, logger log.Logger) (*remote.Hydrator, error) {
	if !cfg.Hydrate || cfg.APIBaseURL == "" {
		return nil, nil
	}
	logger = log.With(logger, "component", "hydration")
	source, err := remote.NewHTTPSource(
		cfg.APIBaseURL,
		remote.NewKeyMap(flags.Authorization, nil),
		logger,
		clientOptions(cfg)...,
	)
	if err != nil {
		return nil, err
	}
	return remote.NewHydrator(source, s, logger, remote.WithPrecedence(cfg.Precedence, cfg.Overrides)), nil
}

func newStore(cfg config.Config, logger log.Logger) *store.Store {
	return store.New(
		store.WithOverrides(cfg.Overrides),
		store.WithLogger(log.With(logger, "component", "store")),
	)
}
