package flags

import (
	"strings"

	orderedmap "github.com/wk8/go-ordered-map/v2"
)

// Name identifies a flag. Names are stable keys; they are also the keys used
// by the backend FeatureManagement configuration.
type Name string

// Authorization feature flag names.
const (
	// EnhancedRbac enables role-based access control with hierarchical roles.
	EnhancedRbac Name = "EnhancedRbac"
	// MfaEnforcement enables multi-factor authentication for sensitive operations.
	MfaEnforcement Name = "MfaEnforcement"
	// ConditionalAccessPolicies enables access policies based on user context.
	ConditionalAccessPolicies Name = "ConditionalAccessPolicies"
	// BetaAuthorizationFeatures enables beta features for specific user groups.
	BetaAuthorizationFeatures Name = "BetaAuthorizationFeatures"
	// DetailedAuditLogging enables audit logging of every authorization decision.
	DetailedAuditLogging Name = "DetailedAuditLogging"
	// JitAccessProvisioning enables just-in-time elevated access requests.
	JitAccessProvisioning Name = "JitAccessProvisioning"
	// ExternalIdentityProviders enables sign-in through external identity providers.
	ExternalIdentityProviders Name = "ExternalIdentityProviders"
)

// Definition is the immutable description of a single flag.
type Definition struct {
	Name        Name
	Label       string
	Description string
	Default     bool
}

// Catalog is a closed, ordered set of flag definitions.
type Catalog struct {
	defs *orderedmap.OrderedMap[Name, Definition]
}

// NewCatalog builds a catalog from defs, in the order given. A definition
// whose name was already declared replaces the earlier one in place.
func NewCatalog(defs ...Definition) *Catalog {
	c := &Catalog{defs: orderedmap.New[Name, Definition]()}
	for _, d := range defs {
		c.defs.Set(d.Name, d)
	}
	return c
}

// List returns every definition in declaration order. The returned slice is
// fresh on every call.
func (c *Catalog) List() []Definition {
	out := make([]Definition, 0, c.defs.Len())
	for pair := c.defs.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Value)
	}
	return out
}

// Names returns every flag name in declaration order.
func (c *Catalog) Names() []Name {
	out := make([]Name, 0, c.defs.Len())
	for pair := c.defs.Oldest(); pair != nil; pair = pair.Next() {
		out = append(out, pair.Key)
	}
	return out
}

// Defaults returns a fresh State with every flag at its declared default.
func (c *Catalog) Defaults() State {
	s := make(State, c.defs.Len())
	for pair := c.defs.Oldest(); pair != nil; pair = pair.Next() {
		s[pair.Key] = pair.Value.Default
	}
	return s
}

// Lookup returns the definition for name.
func (c *Catalog) Lookup(name Name) (Definition, bool) {
	return c.defs.Get(name)
}

// Known reports whether name is declared in the catalog.
func (c *Catalog) Known(name Name) bool {
	_, ok := c.defs.Get(name)
	return ok
}

// LookupFold finds the definition whose name equals s under Unicode case
// folding. It exists for configuration sources that do not preserve key case.
func (c *Catalog) LookupFold(s string) (Definition, bool) {
	if d, ok := c.defs.Get(Name(s)); ok {
		return d, true
	}
	for pair := c.defs.Oldest(); pair != nil; pair = pair.Next() {
		if strings.EqualFold(string(pair.Key), s) {
			return pair.Value, true
		}
	}
	return Definition{}, false
}

// Len returns the number of flags in the catalog.
func (c *Catalog) Len() int {
	return c.defs.Len()
}

// Authorization is the catalog of authorization feature flags. Defaults mirror
// the backend appsettings.json.
var Authorization = NewCatalog(
	Definition{
		Name:        EnhancedRbac,
		Label:       "Enhanced RBAC",
		Description: "Enables hierarchical role-based access control with parent–child role relationships.",
		Default:     false,
	},
	Definition{
		Name:        MfaEnforcement,
		Label:       "MFA Enforcement",
		Description: "Requires multi-factor authentication for sensitive operations.",
		Default:     true,
	},
	Definition{
		Name:        ConditionalAccessPolicies,
		Label:       "Conditional Access Policies",
		Description: "Restricts access based on user context such as location, device, or network.",
		Default:     false,
	},
	Definition{
		Name:        BetaAuthorizationFeatures,
		Label:       "Beta Authorization Features",
		Description: "Unlocks beta authorization features for BetaTester / Admin roles and @university.edu addresses.",
		Default:     false,
	},
	Definition{
		Name:        DetailedAuditLogging,
		Label:       "Detailed Audit Logging",
		Description: "Records every authorization decision with full context for compliance reporting.",
		Default:     true,
	},
	Definition{
		Name:        JitAccessProvisioning,
		Label:       "JIT Access Provisioning",
		Description: "Allows users to request temporary elevated access on a just-in-time basis.",
		Default:     false,
	},
	Definition{
		Name:        ExternalIdentityProviders,
		Label:       "External Identity Providers",
		Description: "Enables sign-in through external IdPs (e.g., Google, GitHub) in addition to MS Identity.",
		Default:     false,
	},
)

// List returns the definitions of the Authorization catalog.
func List() []Definition { return Authorization.List() }

// Defaults returns a fresh State holding the Authorization catalog defaults.
func Defaults() State { return Authorization.Defaults() }
