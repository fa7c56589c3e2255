package server

import (
	"context"

	"github.com/go-kit/kit/endpoint"

	"github.com/geekyind/FeatureFlagPracticeUI/authz"
	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/binding"
	"github.com/geekyind/FeatureFlagPracticeUI/ui"
)

// Set collects all of the endpoints that compose the application. It's
// meant to be used as a helper struct, to collect all of the endpoints into
// a single parameter.
type Set struct {
	FlagsEndpoint   endpoint.Endpoint
	ToggleEndpoint  endpoint.Endpoint
	SetEndpoint     endpoint.Endpoint
	ResetEndpoint   endpoint.Endpoint
	PageEndpoint    endpoint.Endpoint
	ElevateEndpoint endpoint.Endpoint
}

// New returns a Set that wraps the provided service and page builder. The
// elevate endpoint only accepts requests while jit answers true.
func New(svc Service, pages *ui.Builder, jit flags.Booler) Set {
	return Set{
		FlagsEndpoint:   MakeFlagsEndpoint(svc),
		ToggleEndpoint:  MakeToggleEndpoint(svc),
		SetEndpoint:     MakeSetEndpoint(svc),
		ResetEndpoint:   MakeResetEndpoint(svc),
		PageEndpoint:    MakePageEndpoint(pages),
		ElevateEndpoint: flags.Gate(jit)(MakeElevateEndpoint(pages)),
	}
}

// MakeFlagsEndpoint constructs a Flags endpoint wrapping the service.
func MakeFlagsEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		v, err := s.Flags(ctx)
		return FlagsResponse{Flags: v, Err: err}, nil
	}
}

// MakeToggleEndpoint constructs a Toggle endpoint wrapping the service. It
// responds with the state after the toggle.
func MakeToggleEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ToggleRequest)
		if err := s.Toggle(ctx, req.Name); err != nil {
			return FlagsResponse{Err: err}, nil
		}
		v, err := s.Flags(ctx)
		return FlagsResponse{Flags: v, Err: err}, nil
	}
}

// MakeSetEndpoint constructs a Set endpoint wrapping the service. It
// responds with the state after the assignment.
func MakeSetEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(SetRequest)
		if err := s.Set(ctx, req.Name, req.Enabled); err != nil {
			return FlagsResponse{Err: err}, nil
		}
		v, err := s.Flags(ctx)
		return FlagsResponse{Flags: v, Err: err}, nil
	}
}

// MakeResetEndpoint constructs a Reset endpoint wrapping the service. It
// responds with the state after the reset.
func MakeResetEndpoint(s Service) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		if err := s.Reset(ctx); err != nil {
			return FlagsResponse{Err: err}, nil
		}
		v, err := s.Flags(ctx)
		return FlagsResponse{Flags: v, Err: err}, nil
	}
}

// MakePageEndpoint constructs an endpoint rendering the application page.
func MakePageEndpoint(pages *ui.Builder) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		p, err := pages.Build(ctx)
		return PageResponse{Page: p, Err: err}, nil
	}
}

// MakeElevateEndpoint constructs an endpoint submitting an elevation request
// and rendering the page with its outcome. A rejected elevation is part of
// the page, not an endpoint error.
func MakeElevateEndpoint(pages *ui.Builder) endpoint.Endpoint {
	return func(ctx context.Context, request interface{}) (interface{}, error) {
		req := request.(ElevateRequest)
		acc, err := binding.Current(ctx)
		if err != nil {
			return PageResponse{Err: err}, nil
		}
		result := pages.Panel(acc).Elevate(ctx, req.ElevationRequest)
		p, err := pages.Build(ctx)
		if err != nil {
			return PageResponse{Err: err}, nil
		}
		if p.Panel.JitAccess != nil {
			p.Panel.JitAccess.Result = &result
		}
		return PageResponse{Page: p}, nil
	}
}

// compile time assertions for our response types implementing endpoint.Failer.
var (
	_ endpoint.Failer = FlagsResponse{}
	_ endpoint.Failer = PageResponse{}
)

// ToggleRequest collects the request parameters for the Toggle method.
type ToggleRequest struct {
	Name flags.Name
}

// SetRequest collects the request parameters for the Set method.
type SetRequest struct {
	Name    flags.Name
	Enabled bool
}

// ElevateRequest wraps an elevation request submitted from the page.
type ElevateRequest struct {
	authz.ElevationRequest
}

// FlagsResponse collects the response values of the flag methods.
type FlagsResponse struct {
	Flags []FlagStatus `json:"flags"`
	Err   error        `json:"-"` // should be intercepted by Failed/errorEncoder
}

// Failed implements endpoint.Failer.
func (r FlagsResponse) Failed() error { return r.Err }

// PageResponse carries a rendered page.
type PageResponse struct {
	Page ui.Page
	Err  error
}

// Failed implements endpoint.Failer.
func (r PageResponse) Failed() error { return r.Err }
