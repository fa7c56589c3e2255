package ui_test

import (
	"context"
	"sync"

	"github.com/geekyind/FeatureFlagPracticeUI/authz"
)

// fakeAuthz is an in-memory authz.Service. When block is set, calls wait
// for the context to be done.
type fakeAuthz struct {
	roles    []authz.Role
	policies []authz.Policy
	mfa      string
	elevate  string
	err      error
	rolesErr error
	block    bool

	mtx sync.Mutex
	n   int
}

func (f *fakeAuthz) enter(ctx context.Context) error {
	f.mtx.Lock()
	f.n++
	f.mtx.Unlock()
	if f.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.err
}

func (f *fakeAuthz) calls() int {
	f.mtx.Lock()
	defer f.mtx.Unlock()
	return f.n
}

func (f *fakeAuthz) Permissions(ctx context.Context) ([]authz.Role, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	if f.rolesErr != nil {
		return nil, f.rolesErr
	}
	return f.roles, nil
}

func (f *fakeAuthz) AdvancedPolicies(ctx context.Context) ([]authz.Policy, error) {
	if err := f.enter(ctx); err != nil {
		return nil, err
	}
	return f.policies, nil
}

func (f *fakeAuthz) MFAStatus(ctx context.Context) (string, error) {
	if err := f.enter(ctx); err != nil {
		return "", err
	}
	return f.mfa, nil
}

func (f *fakeAuthz) Elevate(ctx context.Context, req authz.ElevationRequest) (string, error) {
	if err := f.enter(ctx); err != nil {
		return "", err
	}
	return f.elevate, nil
}
