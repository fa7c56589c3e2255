// Package server exposes the flag store and the pages built from it over
// HTTP: an HTML application and a small JSON API.
package server

import (
	"context"
	"time"

	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/log"

	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/binding"
)

// Service operates on the flag store in scope of the request context.
// Unknown flag names are ignored, as the store does.
type Service interface {
	Flags(ctx context.Context) ([]FlagStatus, error)
	Toggle(ctx context.Context, name flags.Name) error
	Set(ctx context.Context, name flags.Name, enabled bool) error
	Reset(ctx context.Context) error
}

// FlagStatus is a flag definition joined with its current value.
type FlagStatus struct {
	Name        flags.Name `json:"name"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
	Default     bool       `json:"default"`
	Enabled     bool       `json:"enabled"`
}

// Middleware describes a service (as opposed to endpoint) middleware.
type Middleware func(Service) Service

// NewService returns a basic Service.
func NewService() Service {
	return basicService{}
}

type basicService struct{}

func (basicService) Flags(ctx context.Context) ([]FlagStatus, error) {
	acc, err := binding.Current(ctx)
	if err != nil {
		return nil, err
	}
	values := acc.Values()
	defs := acc.Catalog().List()
	out := make([]FlagStatus, 0, len(defs))
	for _, d := range defs {
		out = append(out, FlagStatus{
			Name:        d.Name,
			Label:       d.Label,
			Description: d.Description,
			Default:     d.Default,
			Enabled:     values[d.Name],
		})
	}
	return out, nil
}

func (basicService) Toggle(ctx context.Context, name flags.Name) error {
	acc, err := binding.Current(ctx)
	if err != nil {
		return err
	}
	acc.Toggle(name)
	return nil
}

func (basicService) Set(ctx context.Context, name flags.Name, enabled bool) error {
	acc, err := binding.Current(ctx)
	if err != nil {
		return err
	}
	acc.Set(name, enabled)
	return nil
}

func (basicService) Reset(ctx context.Context) error {
	acc, err := binding.Current(ctx)
	if err != nil {
		return err
	}
	acc.Reset()
	return nil
}

// LoggingMiddleware takes a logger as a dependency
// and returns a service Middleware.
func LoggingMiddleware(logger log.Logger) Middleware {
	return func(next Service) Service {
		return loggingMiddleware{logger, next}
	}
}

type loggingMiddleware struct {
	logger log.Logger
	next   Service
}

func (mw loggingMiddleware) Flags(ctx context.Context) (v []FlagStatus, err error) {
	defer func() {
		mw.logger.Log("method", "Flags", "n", len(v), "err", err)
	}()
	return mw.next.Flags(ctx)
}

func (mw loggingMiddleware) Toggle(ctx context.Context, name flags.Name) (err error) {
	defer func() {
		mw.logger.Log("method", "Toggle", "flag", name, "err", err)
	}()
	return mw.next.Toggle(ctx, name)
}

func (mw loggingMiddleware) Set(ctx context.Context, name flags.Name, enabled bool) (err error) {
	defer func() {
		mw.logger.Log("method", "Set", "flag", name, "enabled", enabled, "err", err)
	}()
	return mw.next.Set(ctx, name, enabled)
}

func (mw loggingMiddleware) Reset(ctx context.Context) (err error) {
	defer func() {
		mw.logger.Log("method", "Reset", "err", err)
	}()
	return mw.next.Reset(ctx)
}

// InstrumentingMiddleware returns a service middleware that counts requests
// and observes their latency, labeled by method.
func InstrumentingMiddleware(requestCount metrics.Counter, requestLatency metrics.Histogram) Middleware {
	return func(next Service) Service {
		return instrumentingMiddleware{
			requestCount:   requestCount,
			requestLatency: requestLatency,
			next:           next,
		}
	}
}

type instrumentingMiddleware struct {
	requestCount   metrics.Counter
	requestLatency metrics.Histogram
	next           Service
}

func (mw instrumentingMiddleware) observe(method string, begin time.Time) {
	mw.requestCount.With("method", method).Add(1)
	mw.requestLatency.With("method", method).Observe(time.Since(begin).Seconds())
}

func (mw instrumentingMiddleware) Flags(ctx context.Context) ([]FlagStatus, error) {
	defer mw.observe("flags", time.Now())
	return mw.next.Flags(ctx)
}

func (mw instrumentingMiddleware) Toggle(ctx context.Context, name flags.Name) error {
	defer mw.observe("toggle", time.Now())
	return mw.next.Toggle(ctx, name)
}

func (mw instrumentingMiddleware) Set(ctx context.Context, name flags.Name, enabled bool) error {
	defer mw.observe("set", time.Now())
	return mw.next.Set(ctx, name, enabled)
}

func (mw instrumentingMiddleware) Reset(ctx context.Context) error {
	defer mw.observe("reset", time.Now())
	return mw.next.Reset(ctx)
}
