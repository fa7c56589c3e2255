package ui

import (
	"context"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/go-kit/log"

	"github.com/geekyind/FeatureFlagPracticeUI/authz"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/binding"
)

// Page is everything shown on one render of the application.
type Page struct {
	Title   string
	Tagline string
	Rows    []Row
	Panel   PanelView
	// Hydrated describes when flags were last loaded from the backend, or
	// is empty if they never were.
	Hydrated string
}

// Builder assembles pages from the store in scope of a request.
type Builder struct {
	client   authz.Service
	logger   log.Logger
	hydrated func() time.Time
	options  []PanelOption
}

// BuilderOption sets an optional parameter for builders.
type BuilderOption func(*Builder)

// HydratedAt sets the function reporting the last successful hydration.
func HydratedAt(f func() time.Time) BuilderOption {
	return func(b *Builder) { b.hydrated = f }
}

// WithPanelOptions passes options to every panel the builder creates.
func WithPanelOptions(options ...PanelOption) BuilderOption {
	return func(b *Builder) { b.options = append(b.options, options...) }
}

// NewBuilder returns a Builder. client may be nil.
func NewBuilder(client authz.Service, logger log.Logger, options ...BuilderOption) *Builder {
	b := &Builder{
		client:   client,
		logger:   logger,
		hydrated: func() time.Time { return time.Time{} },
	}
	for _, option := range options {
		option(b)
	}
	return b
}

// Build renders a page for the store in scope of ctx. It fails with
// binding.ErrNotBound if there is none.
func (b *Builder) Build(ctx context.Context) (Page, error) {
	acc, err := binding.Current(ctx)
	if err != nil {
		return Page{}, err
	}
	p := Page{
		Title:   "University Authorization — Feature Flags",
		Tagline: "Toggle feature flags below to see how authorization behaviour changes across the platform.",
		Rows:    NewDashboard(acc).Rows(),
		Panel:   b.Panel(acc).Load(ctx),
	}
	if t := b.hydrated(); !t.IsZero() {
		p.Hydrated = humanize.Time(t)
	}
	return p, nil
}

// Panel returns a panel for acc, configured like the builder's own.
func (b *Builder) Panel(acc *binding.Accessor) *Panel {
	return NewPanel(acc, b.client, b.logger, b.options...)
}
