// Package binding binds presentation code to one live flag store.
//
// A store is put in scope by NewContext (or, for HTTP handlers, by
// ServerBefore and Middleware), and recovered with Current. Using an accessor
// without a store in scope is a wiring defect, reported as ErrNotBound.
package binding

import (
	"context"
	"errors"
	"net/http"

	kithttp "github.com/go-kit/kit/transport/http"

	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/store"
)

// ErrNotBound is returned when an accessor is requested without a store.
var ErrNotBound = errors.New("accessor used outside an active store scope")

// contextKey type is unexported, unique to this package
type contextKey int

// storeKey is what marks the Store in the context
const storeKey contextKey = 0

// Accessor exposes the current values and the operations of one store.
type Accessor struct {
	s *store.Store
}

// New returns an accessor bound to s. It fails with ErrNotBound if s is nil.
func New(s *store.Store) (*Accessor, error) {
	if s == nil {
		return nil, ErrNotBound
	}
	return &Accessor{s: s}, nil
}

// NewContext returns a copy of ctx with s in scope.
func NewContext(ctx context.Context, s *store.Store) context.Context {
	return context.WithValue(ctx, storeKey, s)
}

// Current returns an accessor bound to the store in scope of ctx.
func Current(ctx context.Context) (*Accessor, error) {
	s, _ := ctx.Value(storeKey).(*store.Store)
	return New(s)
}

// ServerBefore returns a go-kit RequestFunc putting s in scope of every
// request served.
func ServerBefore(s *store.Store) kithttp.RequestFunc {
	return func(ctx context.Context, _ *http.Request) context.Context {
		return NewContext(ctx, s)
	}
}

// Middleware puts s in scope of every request served by next.
func Middleware(s *store.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
		})
	}
}

// Values returns a snapshot of every flag value.
func (a *Accessor) Values() flags.State { return a.s.Snapshot() }

// IsEnabled reports whether name is enabled; unknown names are disabled.
func (a *Accessor) IsEnabled(name flags.Name) bool { return a.s.Read(name) }

// Toggle flips name.
func (a *Accessor) Toggle(name flags.Name) { a.s.Toggle(name) }

// Set assigns v to name.
func (a *Accessor) Set(name flags.Name, v bool) { a.s.Set(name, v) }

// Reset restores every flag to its default.
func (a *Accessor) Reset() { a.s.Reset() }

// Catalog returns the catalog of the bound store.
func (a *Accessor) Catalog() *flags.Catalog { return a.s.Catalog() }
