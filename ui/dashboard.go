package ui

import (
	"github.com/geekyind/FeatureFlagPracticeUI/flags"
	"github.com/geekyind/FeatureFlagPracticeUI/flags/binding"
)

// Row is one flag as shown on the dashboard.
type Row struct {
	Name        flags.Name
	Label       string
	Description string
	Enabled     bool
}

// Status is the binary status indicator of the row.
func (r Row) Status() string {
	if r.Enabled {
		return "ON"
	}
	return "OFF"
}

// ControlID is the identifier of the row's toggle control.
func (r Row) ControlID() string {
	return "flag-" + string(r.Name)
}

// Dashboard lists every flag of the catalog with its live value.
type Dashboard struct {
	acc *binding.Accessor
}

// NewDashboard returns a dashboard bound to acc.
func NewDashboard(acc *binding.Accessor) *Dashboard {
	return &Dashboard{acc: acc}
}

// Rows returns one row per catalog flag, in declaration order.
func (d *Dashboard) Rows() []Row {
	values := d.acc.Values()
	defs := d.acc.Catalog().List()
	rows := make([]Row, 0, len(defs))
	for _, def := range defs {
		rows = append(rows, Row{
			Name:        def.Name,
			Label:       def.Label,
			Description: def.Description,
			Enabled:     values[def.Name],
		})
	}
	return rows
}

// Toggle is the action behind a row's toggle control.
func (d *Dashboard) Toggle(name flags.Name) { d.acc.Toggle(name) }

// Reset is the action behind the dashboard's reset control.
func (d *Dashboard) Reset() { d.acc.Reset() }
