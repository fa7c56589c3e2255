package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/go-kit/log"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/geekyind/FeatureFlagPracticeUI/config"
	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/remote"
)

func newBackend(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != remote.Path {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"enhancedRbac":true,"jitAccessProvisioning":true}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func execute(t *testing.T, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	defer func(v bool) { color.NoColor = v }(color.NoColor)
	color.NoColor = true

	var out, errb bytes.Buffer
	cmd := newRootCommand(&out, &errb)
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errb.String(), err
}

func countOn(out string) int {
	var n int
	for _, field := range strings.Fields(out) {
		if field == "ON" {
			n++
		}
	}
	return n
}

func TestList(t *testing.T) {
	out, _, err := execute(t, "list", "--hydrate=false", "--overrides", "EnhancedRbac=true")
	require.NoError(t, err)
	assert.Contains(t, out, "Enhanced RBAC (EnhancedRbac)")
	// MFA and audit logging are on by default.
	assert.Equal(t, 3, countOn(out), out)
}

func TestListHydrated(t *testing.T) {
	backend := newBackend(t)
	out, _, err := execute(t, "list", "--api-base-url", backend.URL)
	require.NoError(t, err)
	assert.Equal(t, 4, countOn(out), out)
}

func TestListBackendDown(t *testing.T) {
	backend := httptest.NewServer(http.NotFoundHandler())
	url := backend.URL
	backend.Close()

	out, logs, err := execute(t, "list", "--api-base-url", url, "--timeout", "1s")
	require.NoError(t, err, "hydration failures must not fail the command")
	assert.Equal(t, 2, countOn(out), out)
	assert.Contains(t, logs, "hydration skipped")
}

func TestListInvalidConfig(t *testing.T) {
	_, _, err := execute(t, "list", "--precedence", "nobody")
	assert.Error(t, err)
}

func TestApp(t *testing.T) {
	backend := newBackend(t)
	cfg := config.Config{
		APIBaseURL: backend.URL,
		Hydrate:    true,
		Precedence: remote.PrecedenceHydration,
		Timeout:    time.Second,
		Overrides:  flags.State{flags.EnhancedRbac: false},
	}
	reg := stdprometheus.NewRegistry()
	a, err := newApp(cfg, log.NewNopLogger(), reg)
	require.NoError(t, err)
	require.NotNil(t, a.hydrator)
	assert.False(t, a.store.Read(flags.EnhancedRbac))

	require.NoError(t, a.hydrator.Hydrate(context.Background()))
	assert.True(t, a.store.Read(flags.EnhancedRbac), "hydration wins over overrides by default")

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/api/flags", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Flags []struct {
			Name    flags.Name `json:"name"`
			Enabled bool       `json:"enabled"`
		} `json:"flags"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Flags, 7)
	assert.Equal(t, flags.EnhancedRbac, resp.Flags[0].Name)
	assert.True(t, resp.Flags[0].Enabled)

	rec = httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Flags loaded from the backend")
	assert.Contains(t, rec.Body.String(), `data-testid="jit-access-card"`)

	families, err := reg.Gather()
	require.NoError(t, err)
	names := map[string]bool{}
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["featureflags_store_enabled"])
	assert.True(t, names["featureflags_store_changes_total"])
	assert.True(t, names["featureflags_server_request_count"])

	_, err = newApp(cfg, log.NewNopLogger(), reg)
	assert.Error(t, err, "metrics can only be registered once per registry")
}

func TestAppWithoutBackend(t *testing.T) {
	a, err := newApp(config.Config{
		Precedence: remote.PrecedenceHydration,
		Timeout:    time.Second,
	}, log.NewNopLogger(), stdprometheus.NewRegistry())
	require.NoError(t, err)
	assert.Nil(t, a.hydrator)

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotContains(t, rec.Body.String(), "Flags loaded from the backend")
}
