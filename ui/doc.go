// Package ui renders the feature flag dashboard and the authorization panel.
//
// Views hold no state of their own. They are derived on every render from
// the store in scope (see package flags/binding) and, for the panel, from
// sample data fetched from the authorization backend.
package ui
