package ui

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize/english"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"golang.org/x/sync/errgroup"

	"github.com/geekyind/FeatureFlagPracticeUI/authz"
	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/binding"
)

// Panel section identifiers, in display order.
const (
	SectionEnhancedRbac      = "enhanced-rbac"
	SectionMFA               = "mfa"
	SectionConditionalAccess = "conditional-access"
	SectionBetaFeatures      = "beta-features"
	SectionAuditLogging      = "audit-logging"
	SectionJitAccess         = "jit-access"
	SectionExternalIdP       = "external-idp"
)

// AuditTimeLayout formats the timestamp of audit rows.
const AuditTimeLayout = "2006-01-02 15:04:05"

// PanelView is the authorization panel for one render. A nil section is
// hidden because its flag is off.
type PanelView struct {
	EnhancedRbac      *RBACSection
	MFA               MFASection
	ConditionalAccess *ConditionalAccessSection
	BetaFeatures      *BetaSection
	AuditLogging      *AuditSection
	JitAccess         *JitSection
	ExternalIdP       *ExternalIdPSection
}

// Sections returns the identifiers of the visible sections, in display order.
func (v PanelView) Sections() []string {
	var ids []string
	if v.EnhancedRbac != nil {
		ids = append(ids, SectionEnhancedRbac)
	}
	ids = append(ids, SectionMFA)
	if v.ConditionalAccess != nil {
		ids = append(ids, SectionConditionalAccess)
	}
	if v.BetaFeatures != nil {
		ids = append(ids, SectionBetaFeatures)
	}
	if v.AuditLogging != nil {
		ids = append(ids, SectionAuditLogging)
	}
	if v.JitAccess != nil {
		ids = append(ids, SectionJitAccess)
	}
	if v.ExternalIdP != nil {
		ids = append(ids, SectionExternalIdP)
	}
	return ids
}

// RBACSection shows the role hierarchy. Live is set once Roles come from
// the backend rather than the built-in placeholder.
type RBACSection struct {
	Roles []authz.Role
	Live  bool
}

// MFASection is always shown; its content depends on MfaEnforcement.
type MFASection struct {
	Enforced         bool
	ComplianceStatus string
	Live             bool
}

// ConditionalAccessSection lists the contextual signals considered.
type ConditionalAccessSection struct {
	Signals []string
}

// BetaSection lists the experimental policies.
type BetaSection struct {
	Policies []authz.Policy
	Live     bool
}

// AuditSection shows sample audit records.
type AuditSection struct {
	Records []AuditRecord
}

// AuditRecord is one authorization decision.
type AuditRecord struct {
	Timestamp string
	User      string
	Resource  string
	Decision  string
}

// JitSection holds the elevation request form and the outcome of the last
// submission, if any.
type JitSection struct {
	MinHours     int
	MaxHours     int
	DefaultHours int
	Result       *ElevationResult
}

// ExternalIdPSection lists the additional sign-in methods.
type ExternalIdPSection struct {
	Providers []string
}

// ElevationResult is the inline outcome of an elevation request.
type ElevationResult struct {
	Message string
	Failed  bool
}

// UnknownComplianceStatus is shown until the backend reports a status.
const UnknownComplianceStatus = "unknown"

// Panel builds the authorization panel from the flags in scope. Sample data
// comes from an optional authorization backend.
type Panel struct {
	acc    *binding.Accessor
	client authz.Service
	logger log.Logger
	now    func() time.Time
}

// PanelOption sets an optional parameter for panels.
type PanelOption func(*Panel)

// PanelClock sets the clock used to stamp sample audit records.
func PanelClock(now func() time.Time) PanelOption {
	return func(p *Panel) { p.now = now }
}

// NewPanel returns a panel bound to acc. client may be nil, in which case
// placeholder content is shown.
func NewPanel(acc *binding.Accessor, client authz.Service, logger log.Logger, options ...PanelOption) *Panel {
	p := &Panel{
		acc:    acc,
		client: client,
		logger: logger,
		now:    time.Now,
	}
	for _, option := range options {
		option(p)
	}
	return p
}

// Load renders the panel. Sections whose flag is off are left out. Visible
// sections start with placeholder content; each one backed by the
// authorization backend fetches its data concurrently with the others, and
// keeps the placeholder if its fetch fails. Failures are logged, never
// returned. Results arriving once ctx is done are discarded.
func (p *Panel) Load(ctx context.Context) PanelView {
	var v PanelView
	v.MFA = MFASection{
		Enforced:         p.acc.IsEnabled(flags.MfaEnforcement),
		ComplianceStatus: UnknownComplianceStatus,
	}
	if p.acc.IsEnabled(flags.EnhancedRbac) {
		v.EnhancedRbac = &RBACSection{Roles: placeholderRoles()}
	}
	if p.acc.IsEnabled(flags.ConditionalAccessPolicies) {
		v.ConditionalAccess = &ConditionalAccessSection{Signals: []string{
			"Geographic location",
			"Device compliance status",
			"Time-of-day restrictions",
			"Network trust level",
		}}
	}
	if p.acc.IsEnabled(flags.BetaAuthorizationFeatures) {
		v.BetaFeatures = &BetaSection{Policies: placeholderPolicies()}
	}
	if p.acc.IsEnabled(flags.DetailedAuditLogging) {
		v.AuditLogging = &AuditSection{Records: []AuditRecord{{
			Timestamp: p.now().UTC().Format(AuditTimeLayout),
			User:      "demo@university.edu",
			Resource:  authz.PermissionsPath,
			Decision:  "ALLOW",
		}}}
	}
	if p.acc.IsEnabled(flags.JitAccessProvisioning) {
		v.JitAccess = &JitSection{
			MinHours:     authz.MinElevationHours,
			MaxHours:     authz.MaxElevationHours,
			DefaultHours: authz.MinElevationHours,
		}
	}
	if p.acc.IsEnabled(flags.ExternalIdentityProviders) {
		v.ExternalIdP = &ExternalIdPSection{Providers: []string{"Google", "GitHub"}}
	}

	if p.client == nil {
		return v
	}

	// Each goroutine writes to its own section only.
	var g errgroup.Group
	if s := v.EnhancedRbac; s != nil {
		g.Go(func() error {
			roles, err := p.client.Permissions(ctx)
			if err != nil {
				p.fetchFailed(SectionEnhancedRbac, err)
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			if len(roles) > 0 {
				s.Roles, s.Live = roles, true
			}
			return nil
		})
	}
	if v.MFA.Enforced {
		s := &v.MFA
		g.Go(func() error {
			status, err := p.client.MFAStatus(ctx)
			if err != nil {
				p.fetchFailed(SectionMFA, err)
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			if status != "" {
				s.ComplianceStatus, s.Live = status, true
			}
			return nil
		})
	}
	if s := v.BetaFeatures; s != nil {
		g.Go(func() error {
			policies, err := p.client.AdvancedPolicies(ctx)
			if err != nil {
				p.fetchFailed(SectionBetaFeatures, err)
				return nil
			}
			if ctx.Err() != nil {
				return nil
			}
			if len(policies) > 0 {
				s.Policies, s.Live = policies, true
			}
			return nil
		})
	}
	g.Wait()
	return v
}

// Elevate submits an elevation request. The outcome is meant to be shown
// inline; it is never returned as an error.
func (p *Panel) Elevate(ctx context.Context, req authz.ElevationRequest) ElevationResult {
	if err := req.Validate(); err != nil {
		return ElevationResult{Message: err.Error(), Failed: true}
	}
	if p.client == nil {
		return ElevationResult{Message: "The elevation service is not configured.", Failed: true}
	}
	msg, err := p.client.Elevate(ctx, req)
	if err != nil {
		level.Info(p.logger).Log("msg", "elevation request failed", "resource", req.ResourceID, "err", err)
		return ElevationResult{Message: err.Error(), Failed: true}
	}
	if msg == "" {
		msg = fmt.Sprintf("Elevated access to %s requested for %s.", req.ResourceID, english.Plural(req.DurationHours, "hour", "hours"))
	}
	return ElevationResult{Message: msg}
}

func (p *Panel) fetchFailed(section string, err error) {
	level.Warn(p.logger).Log("msg", "keeping placeholder content", "section", section, "err", err)
}

func placeholderRoles() []authz.Role {
	parent := func(s string) *string { return &s }
	return []authz.Role{
		{Name: "University Admin", Level: 1},
		{Name: "Department Head", Level: 2, ParentRole: parent("University Admin")},
		{Name: "Professor", Level: 3, ParentRole: parent("Department Head")},
		{Name: "Teaching Assistant", Level: 4, ParentRole: parent("Professor")},
		{Name: "Student", Level: 5},
	}
}

func placeholderPolicies() []authz.Policy {
	return []authz.Policy{
		{Name: "TimeBasedAccess", Description: "Restrict access based on time of day"},
		{Name: "LocationBasedAccess", Description: "Restrict access based on geographic location"},
		{Name: "DeviceCompliance", Description: "Require device compliance for access"},
	}
}
