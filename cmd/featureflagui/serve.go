package main

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	kitprometheus "github.com/go-kit/kit/metrics/prometheus"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/oklog/pkg/group"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/geekyind/FeatureFlagPracticeUI/authz"
	"github.com/geekyind/FeatureFlagPracticeUI/config"
	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/remote"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/store"
	"github.com/geekyind/FeatureFlagPracticeUI/server"
	"github.com/geekyind/FeatureFlagPracticeUI/ui"
)

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the dashboard, the panel and the JSON API over HTTP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			a, err := newApp(cfg, logger, stdprometheus.DefaultRegisterer)
			if err != nil {
				return err
			}
			return a.run(cfg.HTTPAddr)
		},
	}
}

// app is one running instance: a single store shared by every request.
type app struct {
	store    *store.Store
	hydrator *remote.Hydrator
	handler  http.Handler
	logger   log.Logger
}

func newApp(cfg config.Config, logger log.Logger, reg stdprometheus.Registerer) (*app, error) {
	// Our metrics are dependencies, here we create them.
	var (
		requestCount = stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
			Namespace: "featureflags",
			Subsystem: "server",
			Name:      "request_count",
			Help:      "Number of requests received.",
		}, []string{"method"})
		requestLatency = stdprometheus.NewSummaryVec(stdprometheus.SummaryOpts{
			Namespace: "featureflags",
			Subsystem: "server",
			Name:      "request_latency_seconds",
			Help:      "Total duration of requests in seconds.",
		}, []string{"method"})
		flagEnabled = stdprometheus.NewGaugeVec(stdprometheus.GaugeOpts{
			Namespace: "featureflags",
			Subsystem: "store",
			Name:      "enabled",
			Help:      "1 if the flag is enabled, 0 otherwise.",
		}, []string{"flag"})
		flagChanges = stdprometheus.NewCounterVec(stdprometheus.CounterOpts{
			Namespace: "featureflags",
			Subsystem: "store",
			Name:      "changes_total",
			Help:      "Number of times the flag value changed.",
		}, []string{"flag"})
	)
	for _, c := range []stdprometheus.Collector{requestCount, requestLatency, flagEnabled, flagChanges} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}

	s := newStore(cfg, logger)
	store.Instrument(s, kitprometheus.NewGauge(flagEnabled), kitprometheus.NewCounter(flagChanges))

	var client authz.Service
	if cfg.APIBaseURL != "" {
		c, err := authz.NewHTTPClient(cfg.APIBaseURL, log.With(logger, "component", "authz"), clientOptions(cfg)...)
		if err != nil {
			return nil, err
		}
		client = c
	}

	h, err := newHydrator(cfg, s, logger)
	if err != nil {
		return nil, err
	}
	var builderOptions []ui.BuilderOption
	if h != nil {
		builderOptions = append(builderOptions, ui.HydratedAt(h.Last))
	}

	var svc server.Service
	{
		svc = server.NewService()
		svc = server.LoggingMiddleware(log.With(logger, "component", "server"))(svc)
		svc = server.InstrumentingMiddleware(
			kitprometheus.NewCounter(requestCount),
			kitprometheus.NewSummary(requestLatency),
		)(svc)
	}
	var (
		pages     = ui.NewBuilder(client, log.With(logger, "component", "ui"), builderOptions...)
		endpoints = server.New(svc, pages, s.Booler(flags.JitAccessProvisioning))
		handler   = server.NewHTTPHandler(endpoints, s, log.With(logger, "component", "http"))
	)
	return &app{store: s, hydrator: h, handler: handler, logger: logger}, nil
}

type interrupt struct {
	sig os.Signal
}

func (i interrupt) Error() string { return fmt.Sprintf("received signal %s", i.sig) }

// run serves until an interrupt or a listener failure.
func (a *app) run(addr string) error {
	var g group.Group
	{
		httpListener, err := net.Listen("tcp", addr)
		if err != nil {
			level.Error(a.logger).Log("transport", "HTTP", "during", "Listen", "err", err)
			return err
		}
		srv := &http.Server{Handler: a.handler, ReadHeaderTimeout: 10 * time.Second}
		g.Add(func() error {
			level.Info(a.logger).Log("transport", "HTTP", "addr", httpListener.Addr())
			return srv.Serve(httpListener)
		}, func(error) {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		})
	}
	if a.hydrator != nil {
		ctx, cancel := context.WithCancel(context.Background())
		g.Add(func() error {
			a.hydrator.Hydrate(ctx) // failures are logged; defaults stay in effect
			<-ctx.Done()
			return nil
		}, func(error) {
			cancel()
		})
	}
	{
		cancelInterrupt := make(chan struct{})
		g.Add(func() error {
			c := make(chan os.Signal, 1)
			signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
			select {
			case sig := <-c:
				return interrupt{sig}
			case <-cancelInterrupt:
				return nil
			}
		}, func(error) {
			close(cancelInterrupt)
		})
	}

	err := g.Run()
	level.Info(a.logger).Log("exit", err)
	var i interrupt
	if errors.As(err, &i) {
		return nil
	}
	return err
}
