package store

import (
	"sync"

	"github.com/go-kit/kit/metrics"

	"github.com/geekyind/FeatureFlagPracticeUI/flags"
)

// Instrument exports the store through go-kit metrics. The gauge, labeled
// by "flag", holds 1 for enabled flags and 0 otherwise; the counter, labeled
// by "flag", counts value changes. It returns the unsubscribe function of
// the underlying listener.
func Instrument(s *Store, enabled metrics.Gauge, changes metrics.Counter) (unsubscribe func()) {
	var (
		mtx  sync.Mutex
		prev flags.State
	)
	// Notifications wait until the gauge is seeded.
	mtx.Lock()
	defer mtx.Unlock()
	unsubscribe = s.Subscribe(func(state flags.State) {
		mtx.Lock()
		defer mtx.Unlock()
		for name, v := range state {
			if prev[name] == v {
				continue
			}
			enabled.With("flag", string(name)).Set(boolToFloat(v))
			changes.With("flag", string(name)).Add(1)
		}
		prev = state
	})
	prev = s.Snapshot()
	for name, v := range prev {
		enabled.With("flag", string(name)).Set(boolToFloat(v))
	}
	return unsubscribe
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
