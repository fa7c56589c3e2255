package authz

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-kit/kit/circuitbreaker"
	"github.com/go-kit/kit/endpoint"
	"github.com/go-kit/kit/ratelimit"
	kithttp "github.com/go-kit/kit/transport/http"
	"github.com/go-kit/log"
	"github.com/pborman/uuid"
	"github.com/pkg/errors"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

// Paths of the authorization backend, relative to the API base.
const (
	PermissionsPath      = "/api/authorization/permissions"
	AdvancedPoliciesPath = "/api/authorization/beta/advanced-policies"
	MFAStatusPath        = "/api/authorization/mfa-status"
	ElevatePath          = "/api/authorization/elevate"
)

// RequestIDHeader carries a fresh request ID on every outgoing call.
const RequestIDHeader = "X-Request-Id"

// NewHTTPClient returns a Service backed by the API rooted at instance. Each
// endpoint gets its own circuit breaker and rate limiter, so a failing or
// slow call does not hold the others back. The options are applied to every
// endpoint's client.
func NewHTTPClient(instance string, logger log.Logger, options ...kithttp.ClientOption) (Service, error) {
	if !strings.HasPrefix(instance, "http") {
		instance = "http://" + instance
	}
	base, err := url.Parse(strings.TrimRight(instance, "/"))
	if err != nil {
		return nil, errors.Wrap(err, "parsing API base URL")
	}

	// Sample data is fetched once per render, so a small budget is plenty.
	limiter := func() endpoint.Middleware {
		return ratelimit.NewErroringLimiter(rate.NewLimiter(rate.Every(100*time.Millisecond), 20))
	}
	breaker := func(name string) endpoint.Middleware {
		return circuitbreaker.Gobreaker(gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    name,
			Timeout: 30 * time.Second,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Log("breaker", name, "from", from, "to", to)
			},
		}))
	}
	options = append([]kithttp.ClientOption{kithttp.ClientBefore(setRequestID)}, options...)

	var permissionsEndpoint endpoint.Endpoint
	{
		permissionsEndpoint = kithttp.NewClient(
			"GET",
			copyURL(base, PermissionsPath),
			encodeGetRequest,
			decodePermissionsResponse,
			options...,
		).Endpoint()
		permissionsEndpoint = limiter()(permissionsEndpoint)
		permissionsEndpoint = breaker("permissions")(permissionsEndpoint)
	}

	var policiesEndpoint endpoint.Endpoint
	{
		policiesEndpoint = kithttp.NewClient(
			"GET",
			copyURL(base, AdvancedPoliciesPath),
			encodeGetRequest,
			decodePoliciesResponse,
			options...,
		).Endpoint()
		policiesEndpoint = limiter()(policiesEndpoint)
		policiesEndpoint = breaker("advanced-policies")(policiesEndpoint)
	}

	var mfaStatusEndpoint endpoint.Endpoint
	{
		mfaStatusEndpoint = kithttp.NewClient(
			"GET",
			copyURL(base, MFAStatusPath),
			encodeGetRequest,
			decodeMFAStatusResponse,
			options...,
		).Endpoint()
		mfaStatusEndpoint = limiter()(mfaStatusEndpoint)
		mfaStatusEndpoint = breaker("mfa-status")(mfaStatusEndpoint)
	}

	// Elevation is user driven: a rejected request must reach the user as
	// is, so it gets a limiter but no breaker.
	var elevateEndpoint endpoint.Endpoint
	{
		elevateEndpoint = kithttp.NewClient(
			"POST",
			copyURL(base, ElevatePath),
			encodeJSONRequest,
			decodeElevateResponse,
			options...,
		).Endpoint()
		elevateEndpoint = limiter()(elevateEndpoint)
	}

	return Endpoints{
		PermissionsEndpoint:      permissionsEndpoint,
		AdvancedPoliciesEndpoint: policiesEndpoint,
		MFAStatusEndpoint:        mfaStatusEndpoint,
		ElevateEndpoint:          elevateEndpoint,
	}, nil
}

func copyURL(base *url.URL, path string) *url.URL {
	next := *base
	next.Path = strings.TrimRight(base.Path, "/") + path
	return &next
}

func setRequestID(ctx context.Context, r *http.Request) context.Context {
	r.Header.Set(RequestIDHeader, uuid.New())
	return ctx
}

func encodeGetRequest(_ context.Context, r *http.Request, _ interface{}) error {
	r.Header.Set("Accept", "application/json")
	return nil
}

// encodeJSONRequest is a transport/http.EncodeRequestFunc that JSON-encodes
// any request to the request body.
func encodeJSONRequest(_ context.Context, r *http.Request, request interface{}) error {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(request); err != nil {
		return err
	}
	r.Header.Set("Content-Type", "application/json; charset=utf-8")
	r.Header.Set("Accept", "application/json")
	r.ContentLength = int64(buf.Len())
	r.Body = io.NopCloser(&buf)
	return nil
}

// decodePermissionsResponse is a transport/http.DecodeResponseFunc that
// decodes a JSON-encoded permissions response. If the response has a non-2xx
// status code, it is returned as a StatusError.
func decodePermissionsResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp permissionsResponse
	err := decodeJSONResponse(r, &resp)
	return resp, err
}

// decodePoliciesResponse decodes a JSON-encoded advanced policies response.
func decodePoliciesResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp policiesResponse
	err := decodeJSONResponse(r, &resp)
	return resp, err
}

// decodeMFAStatusResponse decodes a JSON-encoded MFA status response.
func decodeMFAStatusResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp mfaStatusResponse
	err := decodeJSONResponse(r, &resp)
	return resp, err
}

// decodeElevateResponse decodes a JSON-encoded elevation response.
func decodeElevateResponse(_ context.Context, r *http.Response) (interface{}, error) {
	var resp elevateResponse
	err := decodeJSONResponse(r, &resp)
	return resp, err
}

func decodeJSONResponse(r *http.Response, v interface{}) error {
	if r.StatusCode < 200 || r.StatusCode > 299 {
		return decodeStatusError(r)
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return errors.Wrap(err, "decoding response")
	}
	return nil
}

// errorWrapper covers the error shapes of the backend, including ASP.NET
// problem details.
type errorWrapper struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Detail  string `json:"detail"`
	Title   string `json:"title"`
}

func decodeStatusError(r *http.Response) error {
	msg := strings.TrimSpace(http.StatusText(r.StatusCode))
	body, _ := io.ReadAll(io.LimitReader(r.Body, 64<<10))
	var w errorWrapper
	if json.Unmarshal(body, &w) == nil {
		for _, s := range []string{w.Error, w.Message, w.Detail, w.Title} {
			if s != "" {
				msg = s
				break
			}
		}
	} else if s := strings.TrimSpace(string(body)); s != "" && len(s) < 200 {
		msg = s
	}
	return StatusError{StatusCode: r.StatusCode, Message: msg}
}
