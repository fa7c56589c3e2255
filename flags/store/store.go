// Package store holds the current value of every flag in a catalog. A Store
// is the single source of truth shared by all consumers within one running
// instance; construct it once and pass it by reference.
package store

import (
	"context"
	"sync"

	"github.com/go-kit/log"
	"github.com/go-kit/log/level"

	"github.com/geekyind/FeatureFlagPracticeUI/flags"
)

// Listener is called after a mutation commits, with a snapshot of the state
// it produced. The snapshot is owned by the listener.
type Listener func(flags.State)

// Store holds flag values for one catalog. Its key set is always exactly the
// catalog's key set: operations on names outside the catalog are ignored.
type Store struct {
	catalog *flags.Catalog
	logger  log.Logger

	mtx         sync.RWMutex
	state       flags.State
	pending     []flags.State // committed, not yet delivered; commit order
	dispatching bool

	lmtx      sync.Mutex
	listeners []subscription
	nextID    int
}

type subscription struct {
	id int
	fn Listener
}

// Option sets an optional parameter for stores.
type Option func(*options)

type options struct {
	catalog   *flags.Catalog
	overrides flags.State
	logger    log.Logger
}

// WithCatalog sets the catalog the store is built from. By default,
// flags.Authorization is used.
func WithCatalog(c *flags.Catalog) Option {
	return func(o *options) { o.catalog = c }
}

// WithOverrides merges the given values over the catalog defaults at
// initialization. Names outside the catalog are ignored.
func WithOverrides(overrides flags.State) Option {
	return func(o *options) { o.overrides = overrides }
}

// WithLogger sets the logger used to report ignored names.
func WithLogger(logger log.Logger) Option {
	return func(o *options) { o.logger = logger }
}

// New returns a store initialized to the catalog defaults, with any
// overrides applied.
func New(opts ...Option) *Store {
	o := options{
		catalog: flags.Authorization,
		logger:  log.NewNopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	s := &Store{
		catalog: o.catalog,
		logger:  o.logger,
		state:   o.catalog.Defaults(),
	}
	for name, v := range o.overrides {
		if !s.catalog.Known(name) {
			level.Debug(s.logger).Log("msg", "ignoring override", "flag", name)
			continue
		}
		s.state[name] = v
	}
	return s
}

// Catalog returns the catalog the store was built from.
func (s *Store) Catalog() *flags.Catalog {
	return s.catalog
}

// Read returns the current value of name, or false if name is unknown.
func (s *Store) Read(name flags.Name) bool {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.state[name]
}

// Snapshot returns a copy of the current state.
func (s *Store) Snapshot() flags.State {
	s.mtx.RLock()
	defer s.mtx.RUnlock()
	return s.state.Clone()
}

// Toggle flips the value of name. Unknown names are ignored.
func (s *Store) Toggle(name flags.Name) {
	s.update(func(state flags.State) bool {
		if !s.catalog.Known(name) {
			return false
		}
		state[name] = !state[name]
		return true
	})
}

// Set assigns v to name. Unknown names are ignored.
func (s *Store) Set(name flags.Name, v bool) {
	s.update(func(state flags.State) bool {
		if !s.catalog.Known(name) {
			return false
		}
		if state[name] == v {
			return false
		}
		state[name] = v
		return true
	})
}

// Reset restores every flag to its catalog default, discarding overrides
// and prior mutations.
func (s *Store) Reset() {
	s.update(func(state flags.State) bool {
		changed := false
		for name, v := range s.catalog.Defaults() {
			if state[name] != v {
				state[name] = v
				changed = true
			}
		}
		return changed
	})
}

// Merge assigns every known name in values in a single commit, so listeners
// never observe a partially merged state. It returns the number of names
// that belonged to the catalog.
func (s *Store) Merge(values flags.State) int {
	var applied int
	s.update(func(state flags.State) bool {
		changed := false
		for name, v := range values {
			if !s.catalog.Known(name) {
				level.Debug(s.logger).Log("msg", "ignoring merged value", "flag", name)
				continue
			}
			applied++
			if state[name] != v {
				state[name] = v
				changed = true
			}
		}
		return changed
	})
	return applied
}

// Subscribe registers fn to be called after every mutation that changes the
// state. Listeners are called synchronously, in subscription order, and see
// every committed state in commit order. A mutation made while another
// goroutine (or a listener) is delivering notifications is delivered by that
// goroutine, after the notification in progress. The returned function
// removes fn; it is safe to call more than once.
func (s *Store) Subscribe(fn Listener) (unsubscribe func()) {
	s.lmtx.Lock()
	defer s.lmtx.Unlock()
	id := s.nextID
	s.nextID++
	s.listeners = append(s.listeners, subscription{id: id, fn: fn})

	var once sync.Once
	return func() {
		once.Do(func() {
			s.lmtx.Lock()
			defer s.lmtx.Unlock()
			for i, sub := range s.listeners {
				if sub.id == id {
					s.listeners = append(s.listeners[:i:i], s.listeners[i+1:]...)
					return
				}
			}
		})
	}
}

// Booler returns a flags.Booler reporting the live value of name.
func (s *Store) Booler(name flags.Name) flags.Booler {
	return flags.BoolerFunc(func(context.Context) bool {
		return s.Read(name)
	})
}

// update applies fn under the write lock. If fn reports a change, the
// committed state is queued and delivered to listeners in commit order by
// whichever goroutine is already delivering, or by this one.
func (s *Store) update(fn func(flags.State) bool) {
	s.mtx.Lock()
	if !fn(s.state) {
		s.mtx.Unlock()
		return
	}
	s.pending = append(s.pending, s.state.Clone())
	if s.dispatching {
		s.mtx.Unlock()
		return
	}
	s.dispatching = true
	for len(s.pending) > 0 {
		snapshot := s.pending[0]
		s.pending = s.pending[1:]
		s.mtx.Unlock()
		s.notify(snapshot)
		s.mtx.Lock()
	}
	s.dispatching = false
	s.mtx.Unlock()
}

func (s *Store) notify(snapshot flags.State) {
	s.lmtx.Lock()
	listeners := make([]Listener, len(s.listeners))
	for i, sub := range s.listeners {
		listeners[i] = sub.fn
	}
	s.lmtx.Unlock()

	for _, fn := range listeners {
		fn(snapshot.Clone())
	}
}
