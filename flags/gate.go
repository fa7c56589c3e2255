package flags

import (
	"context"
	"errors"

	"github.com/go-kit/kit/endpoint"
)

// ErrFeatureDisabled is returned by gated endpoints while their flag is off.
var ErrFeatureDisabled = errors.New("feature disabled")

// Gate returns a middleware that only lets requests through while the flag
// answers true. Otherwise the request is aborted with ErrFeatureDisabled.
func Gate(flag Booler) endpoint.Middleware {
	return func(next endpoint.Endpoint) endpoint.Endpoint {
		return func(ctx context.Context, request interface{}) (interface{}, error) {
			if !flag.Bool(ctx) {
				return nil, ErrFeatureDisabled
			}
			return next(ctx, request)
		}
	}
}
