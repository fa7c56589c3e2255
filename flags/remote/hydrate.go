package remote

import (
	"context"
	"sync"
	"time"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/store"
)

// Precedence decides which side wins when a hydrated value and a
// caller-supplied override name the same flag.
type Precedence string

const (
	// PrecedenceHydration lets hydrated values replace overrides.
	PrecedenceHydration Precedence = "hydration"
	// PrecedenceOverrides keeps overrides; hydration only fills the rest.
	PrecedenceOverrides Precedence = "overrides"
)

// Valid reports whether p is a recognized precedence.
func (p Precedence) Valid() bool {
	return p == PrecedenceHydration || p == PrecedenceOverrides
}

// Hydrator copies remote values into a store.
type Hydrator struct {
	source     Fetcher
	store      *store.Store
	precedence Precedence
	overrides  flags.State
	logger     log.Logger
	now        func() time.Time

	mtx  sync.Mutex
	last time.Time
}

// HydratorOption sets an optional parameter for hydrators.
type HydratorOption func(*Hydrator)

// WithPrecedence sets the precedence between hydrated values and the
// overrides the store was initialized with. The default is
// PrecedenceHydration.
func WithPrecedence(p Precedence, overrides flags.State) HydratorOption {
	return func(h *Hydrator) {
		h.precedence = p
		h.overrides = overrides
	}
}

// NewHydrator returns a Hydrator filling s from source.
func NewHydrator(source Fetcher, s *store.Store, logger log.Logger, options ...HydratorOption) *Hydrator {
	h := &Hydrator{
		source:     source,
		store:      s,
		precedence: PrecedenceHydration,
		logger:     logger,
		now:        time.Now,
	}
	for _, option := range options {
		option(h)
	}
	return h
}

// Hydrate fetches remote values once and merges them into the store in a
// single commit. On failure the store is left untouched; the error is logged
// and returned for information only. A result arriving after ctx is done is
// discarded.
func (h *Hydrator) Hydrate(ctx context.Context) error {
	values, err := h.source.Fetch(ctx)
	if err != nil {
		level.Warn(h.logger).Log("msg", "hydration skipped", "err", err)
		return err
	}
	if err := ctx.Err(); err != nil {
		level.Debug(h.logger).Log("msg", "discarding late hydration result", "err", err)
		return err
	}
	if h.precedence == PrecedenceOverrides {
		for name := range h.overrides {
			delete(values, name)
		}
	}
	applied := h.store.Merge(values)
	h.mtx.Lock()
	h.last = h.now()
	h.mtx.Unlock()
	level.Info(h.logger).Log("msg", "hydrated feature flags", "applied", applied)
	return nil
}

// Last returns the time of the last successful hydration, or the zero time.
func (h *Hydrator) Last() time.Time {
	h.mtx.Lock()
	defer h.mtx.Unlock()
	return h.last
}
