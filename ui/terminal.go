package ui

import (
	"fmt"
	"io"

	"github.com/fatih/color"
	"github.com/gosuri/uitable"
)

var (
	onColor  = color.New(color.FgGreen, color.Bold)
	offColor = color.New(color.FgHiBlack)
)

// WriteTable writes the dashboard rows as a text table.
func WriteTable(w io.Writer, rows []Row) error {
	table := uitable.New()
	table.MaxColWidth = 60
	table.Wrap = true
	table.AddRow("FLAG", "STATUS", "DESCRIPTION")
	for _, r := range rows {
		status := offColor.Sprint(r.Status())
		if r.Enabled {
			status = onColor.Sprint(r.Status())
		}
		table.AddRow(r.Label+" ("+string(r.Name)+")", status, r.Description)
	}
	_, err := fmt.Fprintln(w, table)
	return err
}
