package authz

import (
	"context"

	"github.com/go-kit/kit/endpoint"
)

// Endpoints collects the endpoints of the authorization backend. It
// implements Service, so it is what NewHTTPClient returns.
type Endpoints struct {
	PermissionsEndpoint      endpoint.Endpoint
	AdvancedPoliciesEndpoint endpoint.Endpoint
	MFAStatusEndpoint        endpoint.Endpoint
	ElevateEndpoint          endpoint.Endpoint
}

// Permissions implements Service.
func (e Endpoints) Permissions(ctx context.Context) ([]Role, error) {
	response, err := e.PermissionsEndpoint(ctx, nil)
	if err != nil {
		return nil, err
	}
	return response.(permissionsResponse).HierarchicalRoles, nil
}

// AdvancedPolicies implements Service.
func (e Endpoints) AdvancedPolicies(ctx context.Context) ([]Policy, error) {
	response, err := e.AdvancedPoliciesEndpoint(ctx, nil)
	if err != nil {
		return nil, err
	}
	return response.(policiesResponse).Policies, nil
}

// MFAStatus implements Service.
func (e Endpoints) MFAStatus(ctx context.Context) (string, error) {
	response, err := e.MFAStatusEndpoint(ctx, nil)
	if err != nil {
		return "", err
	}
	return response.(mfaStatusResponse).ComplianceStatus, nil
}

// Elevate implements Service. Invalid requests are rejected without a round
// trip.
func (e Endpoints) Elevate(ctx context.Context, req ElevationRequest) (string, error) {
	if err := req.Validate(); err != nil {
		return "", err
	}
	response, err := e.ElevateEndpoint(ctx, req)
	if err != nil {
		return "", err
	}
	return response.(elevateResponse).Message, nil
}

type permissionsResponse struct {
	HierarchicalRoles []Role `json:"hierarchicalRoles"`
}

type policiesResponse struct {
	Policies []Policy `json:"policies"`
}

type mfaStatusResponse struct {
	ComplianceStatus string `json:"complianceStatus"`
}

type elevateResponse struct {
	Message string `json:"message"`
}
