package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/transport"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/go-kit/log"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/geekyind/FeatureFlagPracticeUI/authz"
	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/binding"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/store"
	"github.com/geekyind/FeatureFlagPracticeUI/ui"
)

var (
	// ErrBadRouting is returned when an expected path variable is missing.
	// It always indicates programmer error.
	ErrBadRouting = errors.New("inconsistent mapping between route and handler (programmer error)")
	// ErrBadRequest is returned for requests whose parameters can't be parsed.
	ErrBadRequest = errors.New("bad request")
)

// NewHTTPHandler returns an HTTP handler that makes a set of endpoints
// available on predefined paths. Every request is served with s in scope.
//
//	GET  /                         application page
//	POST /flags/reset              reset all flags, back to the page
//	POST /flags/{name}/toggle      toggle a flag, back to the page
//	POST /flags/{name}             set a flag from form value "enabled"
//	POST /elevate                  submit the JIT access form
//	GET  /api/flags                list flags
//	POST /api/flags/reset          reset all flags
//	POST /api/flags/{name}/toggle  toggle a flag
//	PUT  /api/flags/{name}         set a flag from {"enabled": bool}
//	GET  /metrics                  Prometheus metrics
func NewHTTPHandler(endpoints Set, s *store.Store, logger log.Logger) http.Handler {
	htmlOptions := []kithttp.ServerOption{
		kithttp.ServerBefore(binding.ServerBefore(s)),
		kithttp.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		kithttp.ServerErrorEncoder(encodeHTMLError),
	}
	jsonOptions := []kithttp.ServerOption{
		kithttp.ServerBefore(binding.ServerBefore(s)),
		kithttp.ServerErrorHandler(transport.NewLogErrorHandler(logger)),
		kithttp.ServerErrorEncoder(encodeJSONError),
	}

	r := mux.NewRouter()

	r.Methods("GET").Path("/").Handler(kithttp.NewServer(
		endpoints.PageEndpoint,
		decodeEmptyRequest,
		encodePageResponse,
		htmlOptions...,
	))
	r.Methods("POST").Path("/flags/reset").Handler(kithttp.NewServer(
		endpoints.ResetEndpoint,
		decodeEmptyRequest,
		encodeRedirectResponse,
		htmlOptions...,
	))
	r.Methods("POST").Path("/flags/{name}/toggle").Handler(kithttp.NewServer(
		endpoints.ToggleEndpoint,
		decodeToggleRequest,
		encodeRedirectResponse,
		htmlOptions...,
	))
	r.Methods("POST").Path("/flags/{name}").Handler(kithttp.NewServer(
		endpoints.SetEndpoint,
		decodeFormSetRequest,
		encodeRedirectResponse,
		htmlOptions...,
	))
	r.Methods("POST").Path("/elevate").Handler(kithttp.NewServer(
		endpoints.ElevateEndpoint,
		decodeElevateRequest,
		encodePageResponse,
		htmlOptions...,
	))

	r.Methods("GET").Path("/api/flags").Handler(kithttp.NewServer(
		endpoints.FlagsEndpoint,
		decodeEmptyRequest,
		encodeJSONResponse,
		jsonOptions...,
	))
	r.Methods("POST").Path("/api/flags/reset").Handler(kithttp.NewServer(
		endpoints.ResetEndpoint,
		decodeEmptyRequest,
		encodeJSONResponse,
		jsonOptions...,
	))
	r.Methods("POST").Path("/api/flags/{name}/toggle").Handler(kithttp.NewServer(
		endpoints.ToggleEndpoint,
		decodeToggleRequest,
		encodeJSONResponse,
		jsonOptions...,
	))
	r.Methods("PUT").Path("/api/flags/{name}").Handler(kithttp.NewServer(
		endpoints.SetEndpoint,
		decodeJSONSetRequest,
		encodeJSONResponse,
		jsonOptions...,
	))

	r.Methods("GET").Path("/metrics").Handler(promhttp.Handler())
	return r
}

func decodeEmptyRequest(_ context.Context, _ *http.Request) (interface{}, error) {
	return struct{}{}, nil
}

func flagName(r *http.Request) (flags.Name, error) {
	name, ok := mux.Vars(r)["name"]
	if !ok {
		return "", ErrBadRouting
	}
	return flags.Name(name), nil
}

func decodeToggleRequest(_ context.Context, r *http.Request) (interface{}, error) {
	name, err := flagName(r)
	if err != nil {
		return nil, err
	}
	return ToggleRequest{Name: name}, nil
}

func decodeFormSetRequest(_ context.Context, r *http.Request) (interface{}, error) {
	name, err := flagName(r)
	if err != nil {
		return nil, err
	}
	enabled, err := strconv.ParseBool(r.FormValue("enabled"))
	if err != nil {
		return nil, ErrBadRequest
	}
	return SetRequest{Name: name, Enabled: enabled}, nil
}

func decodeJSONSetRequest(_ context.Context, r *http.Request) (interface{}, error) {
	name, err := flagName(r)
	if err != nil {
		return nil, err
	}
	var body struct {
		Enabled *bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Enabled == nil {
		return nil, ErrBadRequest
	}
	return SetRequest{Name: name, Enabled: *body.Enabled}, nil
}

// decodeElevateRequest reads the JIT access form. A duration that doesn't
// parse is left at zero, so the request fails validation and the user sees
// why on the page.
func decodeElevateRequest(_ context.Context, r *http.Request) (interface{}, error) {
	if err := r.ParseForm(); err != nil {
		return nil, ErrBadRequest
	}
	hours, _ := strconv.Atoi(strings.TrimSpace(r.PostForm.Get("durationHours")))
	return ElevateRequest{ElevationRequest: authz.ElevationRequest{
		ResourceID:    strings.TrimSpace(r.PostForm.Get("resourceId")),
		DurationHours: hours,
		Justification: strings.TrimSpace(r.PostForm.Get("justification")),
	}}, nil
}

func encodeJSONResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		encodeJSONError(ctx, f.Failed(), w)
		return nil
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	return json.NewEncoder(w).Encode(response)
}

func encodePageResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	resp := response.(PageResponse)
	if resp.Err != nil {
		encodeHTMLError(ctx, resp.Err, w)
		return nil
	}
	var buf bytes.Buffer
	if err := ui.RenderHTML(&buf, resp.Page); err != nil {
		return err
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, err := buf.WriteTo(w)
	return err
}

// encodeRedirectResponse sends the browser back to the page after a
// mutation, so reloading it doesn't repeat the mutation.
func encodeRedirectResponse(ctx context.Context, w http.ResponseWriter, response interface{}) error {
	if f, ok := response.(endpoint.Failer); ok && f.Failed() != nil {
		encodeHTMLError(ctx, f.Failed(), w)
		return nil
	}
	w.Header().Set("Location", "/")
	w.WriteHeader(http.StatusSeeOther)
	return nil
}

func encodeJSONError(_ context.Context, err error, w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(err2code(err))
	json.NewEncoder(w).Encode(errorWrapper{Error: err.Error()})
}

func encodeHTMLError(_ context.Context, err error, w http.ResponseWriter) {
	code := err2code(err)
	msg := err.Error()
	if code == http.StatusInternalServerError {
		msg = http.StatusText(code)
	}
	http.Error(w, msg, code)
}

func err2code(err error) int {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, ErrBadRouting):
		return http.StatusBadRequest
	case errors.Is(err, flags.ErrFeatureDisabled):
		return http.StatusNotFound
	}
	return http.StatusInternalServerError
}

type errorWrapper struct {
	Error string `json:"error"`
}
