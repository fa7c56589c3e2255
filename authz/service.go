// Package authz is a client for the sample data served by the authorization
// backend. Every call is independent and optional: callers are expected to
// keep placeholder content when a call fails.
package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// Service describes the authorization backend.
type Service interface {
	// Permissions returns the role hierarchy in effect.
	Permissions(ctx context.Context) ([]Role, error)
	// AdvancedPolicies returns the beta authorization policies.
	AdvancedPolicies(ctx context.Context) ([]Policy, error)
	// MFAStatus returns the MFA compliance status of the current user.
	MFAStatus(ctx context.Context) (string, error)
	// Elevate requests temporary elevated access and returns the backend's
	// confirmation message.
	Elevate(ctx context.Context, req ElevationRequest) (string, error)
}

// Role is one level of the role hierarchy.
type Role struct {
	Name       string  `json:"name"`
	Level      int     `json:"level"`
	ParentRole *string `json:"parentRole"`
}

// Parent returns the name of the parent role, or "" for a root role.
func (r Role) Parent() string {
	if r.ParentRole == nil {
		return ""
	}
	return *r.ParentRole
}

// Policy is an experimental authorization policy.
type Policy struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Limits on the duration of an elevation, in hours.
const (
	MinElevationHours = 1
	MaxElevationHours = 8
)

var (
	// ErrInvalidResourceID is returned for elevation requests without a resource.
	ErrInvalidResourceID = errors.New("resource ID is required")
	// ErrInvalidDuration is returned for elevation durations out of range.
	ErrInvalidDuration = fmt.Errorf("duration must be between %d and %d hours", MinElevationHours, MaxElevationHours)
)

// ElevationRequest asks for temporary elevated access to a resource.
type ElevationRequest struct {
	ResourceID    string `json:"resourceId"`
	DurationHours int    `json:"durationHours"`
	Justification string `json:"justification"`
}

// Validate checks the request before it is sent.
func (r ElevationRequest) Validate() error {
	if strings.TrimSpace(r.ResourceID) == "" {
		return ErrInvalidResourceID
	}
	if r.DurationHours < MinElevationHours || r.DurationHours > MaxElevationHours {
		return ErrInvalidDuration
	}
	return nil
}

// StatusError is returned when the backend answers with a non-2xx status.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e StatusError) Error() string {
	return fmt.Sprintf("authorization backend: %d %s", e.StatusCode, e.Message)
}
