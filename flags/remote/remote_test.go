package remote_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-kit/log"
	"github.com/google/go-cmp/cmp"

	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/remote"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/store"
)

func TestKeyMapDefaults(t *testing.T) {
	m := remote.NewKeyMap(flags.Authorization, nil)
	for _, tc := range []struct {
		key  string
		want flags.Name
	}{
		{"enhancedRbac", flags.EnhancedRbac},
		{"EnhancedRbac", flags.EnhancedRbac},
		{"jitAccessProvisioning", flags.JitAccessProvisioning},
		{"mfaEnforcement", flags.MfaEnforcement},
	} {
		have, ok := m.Name(tc.key)
		if !ok {
			t.Errorf("%q: not mapped", tc.key)
			continue
		}
		if have != tc.want {
			t.Errorf("%q: want %q, have %q", tc.key, tc.want, have)
		}
	}
	for _, key := range []string{"enhancedrbac", "enhanced_rbac", "ENHANCEDRBAC", ""} {
		if _, ok := m.Name(key); ok {
			t.Errorf("%q: should not be mapped", key)
		}
	}
	if have, _ := m.Remote(flags.DetailedAuditLogging); have != "detailedAuditLogging" {
		t.Errorf("want %q, have %q", "detailedAuditLogging", have)
	}
}

func TestKeyMapExplicit(t *testing.T) {
	m := remote.NewKeyMap(flags.Authorization, map[flags.Name]string{
		flags.ExternalIdentityProviders: "externalIdPs",
	})
	if have, ok := m.Name("externalIdPs"); !ok || have != flags.ExternalIdentityProviders {
		t.Errorf("explicit key not mapped: %q %v", have, ok)
	}
	if _, ok := m.Name("externalIdentityProviders"); ok {
		t.Errorf("explicit key should replace the derived one")
	}
	state, unknown := m.Translate(map[string]bool{"externalIdPs": true, "somethingElse": true})
	if diff := cmp.Diff(flags.State{flags.ExternalIdentityProviders: true}, state); diff != "" {
		t.Errorf("state mismatch (-want +have):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"somethingElse"}, unknown); diff != "" {
		t.Errorf("unknown mismatch (-want +have):\n%s", diff)
	}
}

func TestKeyMapRemoteKeyWins(t *testing.T) {
	m := remote.NewKeyMap(flags.Authorization, nil)
	for i := 0; i < 50; i++ {
		state, unknown := m.Translate(map[string]bool{
			"enhancedRbac":   true,
			"EnhancedRbac":   false,
			"MfaEnforcement": false,
			"mfaEnforcement": true,
		})
		want := flags.State{flags.EnhancedRbac: true, flags.MfaEnforcement: true}
		if diff := cmp.Diff(want, state); diff != "" {
			t.Fatalf("state mismatch (-want +have):\n%s", diff)
		}
		if len(unknown) != 0 {
			t.Fatalf("want no unknown keys, have %v", unknown)
		}
	}
}

func TestHydrate(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if want, have := remote.Path, r.URL.Path; want != have {
			t.Errorf("want path %q, have %q", want, have)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"enhancedRbac":true,"MfaEnforcement":false,"unknownFlag":true,"detailedAuditLogging":"yes"}`))
	}))
	defer server.Close()

	s := store.New()
	var notifications int
	s.Subscribe(func(flags.State) { notifications++ })

	h := remote.NewHydrator(mustSource(t, server.URL), s, log.NewNopLogger())
	if !h.Last().IsZero() {
		t.Errorf("want zero hydration time before hydrating, have %v", h.Last())
	}
	if err := h.Hydrate(context.Background()); err != nil {
		t.Fatal(err)
	}
	if h.Last().IsZero() {
		t.Errorf("want hydration time recorded, have zero")
	}

	want := flags.Defaults()
	want[flags.EnhancedRbac] = true
	want[flags.MfaEnforcement] = false
	if diff := cmp.Diff(want, s.Snapshot()); diff != "" {
		t.Errorf("state mismatch (-want +have):\n%s", diff)
	}
	if want, have := 1, notifications; want != have {
		t.Errorf("want %d notification, have %d", want, have)
	}
}

func TestHydrateHTTPError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	s := store.New(store.WithOverrides(flags.State{flags.EnhancedRbac: true}))
	before := s.Snapshot()

	h := remote.NewHydrator(mustSource(t, server.URL), s, log.NewNopLogger())
	if err := h.Hydrate(context.Background()); err == nil {
		t.Errorf("want error, have none")
	}
	if diff := cmp.Diff(before, s.Snapshot()); diff != "" {
		t.Errorf("state changed after failed hydration (-want +have):\n%s", diff)
	}
	if !h.Last().IsZero() {
		t.Errorf("want zero hydration time after failure, have %v", h.Last())
	}
}

func TestHydrateTransportError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	s := store.New()
	h := remote.NewHydrator(mustSource(t, url), s, log.NewNopLogger())
	if err := h.Hydrate(context.Background()); err == nil {
		t.Errorf("want error, have none")
	}
	if !s.Snapshot().Equal(flags.Defaults()) {
		t.Errorf("state changed after failed hydration")
	}
}

func TestHydrateMalformedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`[true, false]`))
	}))
	defer server.Close()

	s := store.New()
	h := remote.NewHydrator(mustSource(t, server.URL), s, log.NewNopLogger())
	if err := h.Hydrate(context.Background()); err == nil {
		t.Errorf("want error, have none")
	}
	if !s.Snapshot().Equal(flags.Defaults()) {
		t.Errorf("state changed after failed hydration")
	}
}

func TestHydratePrecedence(t *testing.T) {
	fetcher := fetcherFunc(func(context.Context) (flags.State, error) {
		return flags.State{flags.EnhancedRbac: false, flags.JitAccessProvisioning: true}, nil
	})
	overrides := flags.State{flags.EnhancedRbac: true}

	for _, tc := range []struct {
		precedence remote.Precedence
		wantRbac   bool
	}{
		{remote.PrecedenceHydration, false},
		{remote.PrecedenceOverrides, true},
	} {
		s := store.New(store.WithOverrides(overrides))
		h := remote.NewHydrator(fetcher, s, log.NewNopLogger(), remote.WithPrecedence(tc.precedence, overrides))
		if err := h.Hydrate(context.Background()); err != nil {
			t.Fatalf("%s: %v", tc.precedence, err)
		}
		if want, have := tc.wantRbac, s.Read(flags.EnhancedRbac); want != have {
			t.Errorf("%s: %s want %v, have %v", tc.precedence, flags.EnhancedRbac, want, have)
		}
		if !s.Read(flags.JitAccessProvisioning) {
			t.Errorf("%s: %s not hydrated", tc.precedence, flags.JitAccessProvisioning)
		}
	}
}

func TestHydrateDiscardsLateResult(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	fetcher := fetcherFunc(func(context.Context) (flags.State, error) {
		cancel() // the view that asked is gone by the time the result lands
		return flags.State{flags.EnhancedRbac: true}, nil
	})

	s := store.New()
	h := remote.NewHydrator(fetcher, s, log.NewNopLogger())
	if err := h.Hydrate(ctx); err != context.Canceled {
		t.Errorf("want %v, have %v", context.Canceled, err)
	}
	if s.Read(flags.EnhancedRbac) {
		t.Errorf("late result was merged")
	}
}

func TestPrecedenceValid(t *testing.T) {
	for p, want := range map[remote.Precedence]bool{
		remote.PrecedenceHydration: true,
		remote.PrecedenceOverrides: true,
		"":                         false,
		"defaults":                 false,
	} {
		if have := p.Valid(); have != want {
			t.Errorf("%q: want %v, have %v", p, want, have)
		}
	}
}

type fetcherFunc func(context.Context) (flags.State, error)

func (f fetcherFunc) Fetch(ctx context.Context) (flags.State, error) { return f(ctx) }

func mustSource(t *testing.T, instance string) *remote.Source {
	t.Helper()
	src, err := remote.NewHTTPSource(instance, remote.NewKeyMap(flags.Authorization, nil), log.NewNopLogger())
	if err != nil {
		t.Fatal(err)
	}
	return src
}
