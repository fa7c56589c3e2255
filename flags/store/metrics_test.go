package store_test

import (
	"sync"
	"testing"

	"github.com/go-kit/kit/metrics"

	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/store"
)

func TestInstrument(t *testing.T) {
	var (
		s       = store.New()
		gauges  = newValues()
		changes = newValues()
	)
	unsubscribe := store.Instrument(s, labeledGauge{v: gauges}, labeledCounter{v: changes})

	if want, have := 1.0, gauges.get(string(flags.MfaEnforcement)); want != have {
		t.Errorf("initial %s gauge: want %v, have %v", flags.MfaEnforcement, want, have)
	}
	if want, have := 0.0, gauges.get(string(flags.EnhancedRbac)); want != have {
		t.Errorf("initial %s gauge: want %v, have %v", flags.EnhancedRbac, want, have)
	}

	s.Toggle(flags.EnhancedRbac)
	s.Toggle(flags.EnhancedRbac)
	s.Toggle(flags.EnhancedRbac)
	if want, have := 1.0, gauges.get(string(flags.EnhancedRbac)); want != have {
		t.Errorf("gauge: want %v, have %v", want, have)
	}
	if want, have := 3.0, changes.get(string(flags.EnhancedRbac)); want != have {
		t.Errorf("changes: want %v, have %v", want, have)
	}
	if want, have := 0.0, changes.get(string(flags.MfaEnforcement)); want != have {
		t.Errorf("untouched flag counted changes: %v", have)
	}

	unsubscribe()
	s.Toggle(flags.EnhancedRbac)
	if want, have := 3.0, changes.get(string(flags.EnhancedRbac)); want != have {
		t.Errorf("counted after unsubscribe: want %v, have %v", want, have)
	}
}

func TestInstrumentDuringDelivery(t *testing.T) {
	s := store.New()
	var (
		once    sync.Once
		entered = make(chan struct{})
		release = make(chan struct{})
	)
	s.Subscribe(func(flags.State) {
		once.Do(func() {
			close(entered)
			<-release
		})
	})

	done := make(chan struct{})
	go func() {
		defer close(done)
		s.Set(flags.EnhancedRbac, true)
	}()
	<-entered

	gauges, changes := newValues(), newValues()
	store.Instrument(s, labeledGauge{v: gauges}, labeledCounter{v: changes})
	if want, have := 1.0, gauges.get(string(flags.EnhancedRbac)); want != have {
		t.Errorf("seeded gauge: want %v, have %v", want, have)
	}

	s.Set(flags.EnhancedRbac, false)
	close(release)
	<-done

	if want, have := 0.0, gauges.get(string(flags.EnhancedRbac)); want != have {
		t.Errorf("gauge: want %v, have %v", want, have)
	}
	if want, have := 1.0, changes.get(string(flags.EnhancedRbac)); want != have {
		t.Errorf("changes: want %v, have %v", want, have)
	}
}

type values struct {
	mtx sync.Mutex
	m   map[string]float64
}

func newValues() *values { return &values{m: map[string]float64{}} }

func (v *values) get(flag string) float64 {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	return v.m[flag]
}

func (v *values) set(flag string, f float64) {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	v.m[flag] = f
}

func (v *values) add(flag string, f float64) {
	v.mtx.Lock()
	defer v.mtx.Unlock()
	v.m[flag] += f
}

// labeledGauge and labeledCounter record values keyed by the "flag" label.
type labeledGauge struct {
	v    *values
	flag string
}

func (g labeledGauge) With(lvs ...string) metrics.Gauge {
	return labeledGauge{v: g.v, flag: flagLabel(lvs)}
}

func (g labeledGauge) Set(f float64) { g.v.set(g.flag, f) }

func (g labeledGauge) Add(f float64) { g.v.add(g.flag, f) }

type labeledCounter struct {
	v    *values
	flag string
}

func (c labeledCounter) With(lvs ...string) metrics.Counter {
	return labeledCounter{v: c.v, flag: flagLabel(lvs)}
}

func (c labeledCounter) Add(f float64) { c.v.add(c.flag, f) }

func flagLabel(lvs []string) string {
	for i := 0; i+1 < len(lvs); i += 2 {
		if lvs[i] == "flag" {
			return lvs[i+1]
		}
	}
	return ""
}
