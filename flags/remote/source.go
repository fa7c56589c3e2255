// Package remote hydrates a flag store from a remote source, the
// GET /api/featureflags endpoint of the authorization backend.
package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"

	"github.com/geekyind/FeatureFlagPracticeUI/flags"
)

// Path is the path of the feature flag endpoint, relative to the API base.
const Path = "/api/featureflags"

// Fetcher fetches flag values keyed by catalog name.
type Fetcher interface {
	Fetch(ctx context.Context) (flags.State, error)
}

// Source is a Fetcher backed by the remote feature flag endpoint.
type Source struct {
	fetch  endpoint.Endpoint
	keys   *KeyMap
	logger log.Logger
}

// NewHTTPSource returns a Source for the API rooted at instance. Values are
// translated through keys.
func NewHTTPSource(instance string, keys *KeyMap, logger log.Logger, options ...kithttp.ClientOption) (*Source, error) {
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	u, err := url.Parse(strings.TrimRight(instance, "/") + Path)
	if err != nil {
		return nil, errors.Wrap(err, "parsing API base URL")
	}

	var e endpoint.Endpoint
	e = kithttp.NewClient("GET", u, encodeFetchRequest, decodeFetchResponse, options...).Endpoint()
	e = circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name: "featureflags",
	}))(e)

	return &Source{
		fetch:  e,
		keys:   keys,
		logger: logger,
	}, nil
}

// Fetch retrieves the remote values. Keys the key map does not know are
// dropped and logged.
func (s *Source) Fetch(ctx context.Context) (flags.State, error) {
	response, err := s.fetch(ctx, nil)
	if err != nil {
		return nil, errors.Wrap(err, "fetching feature flags")
	}
	state, unknown := s.keys.Translate(response.(map[string]bool))
	for _, key := range unknown {
		level.Debug(s.logger).Log("msg", "ignoring unmapped remote flag", "key", key)
	}
	return state, nil
}

func encodeFetchRequest(_ context.Context, r *http.Request, _ interface{}) error {
	r.Header.Set("Accept", "application/json")
	return nil
}

// decodeFetchResponse treats any non-2xx status as an error. Non-boolean
// values are skipped rather than failing the whole document.
func decodeFetchResponse(_ context.Context, r *http.Response) (interface{}, error) {
	if r.StatusCode < 200 || r.StatusCode > 299 {
		return nil, errors.Errorf("unexpected status %s", r.Status)
	}
	var raw map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		return nil, errors.Wrap(err, "decoding feature flags")
	}
	values := make(map[string]bool, len(raw))
	for k, v := range raw {
		if b, ok := v.(bool); ok {
			values[k] = b
		}
	}
	return values, nil
}
