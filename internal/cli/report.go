package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/Veraticus/clearance/internal/health"
	"github.com/Veraticus/clearance/internal/model"
)

// RenderFindings writes a table of findings, one row per issue. Row numbers are 1-based.
func RenderFindings(w io.Writer, title string, findings []health.Finding) error {
	if _, err := fmt.Fprintln(w, FormatTitle(title)); err != nil {
		return err
	}

	if len(findings) == 0 {
		_, err := fmt.Fprintln(w, FormatSuccess("All line items are healthy"))
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if _, err := fmt.Fprintln(tw, "ROW\tPRODUCT\tSEVERITY\tFIELD\tISSUE"); err != nil {
		return err
	}

	for _, f := range findings {
		name := f.Item.Name()
		if name == "" {
			name = SubtleStyle.Render("(unnamed)")
		}
		for _, issue := range f.Issues {
			if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n",
				f.Index+1, name, issue.Severity, issue.Field, issue.Message); err != nil {
				return err
			}
		}
	}

	if err := tw.Flush(); err != nil {
		return err
	}

	_, err := fmt.Fprintln(w, "\n"+Summary(findings))
	return err
}

// Summary is a one-line count of findings by status.
func Summary(findings []health.Finding) string {
	critical, warning := health.Counts(findings)
	parts := []string{}
	if critical > 0 {
		parts = append(parts, CriticalStyle.Render(fmt.Sprintf("%d critical", critical)))
	}
	if warning > 0 {
		parts = append(parts, WarningStyle.Render(fmt.Sprintf("%d warning", warning)))
	}
	if len(parts) == 0 {
		return FormatSuccess("No findings")
	}
	return ChartIcon + " " + strings.Join(parts, ", ")
}

// RenderItems writes a compact line-item table.
func RenderItems(w io.Writer, items []model.LineItem) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	if _, err := fmt.Fprintln(tw, "ROW\tPRODUCT\tQTY\tUNIT PRICE\tTOTAL\tGROSS KG\tNET KG\tCBM\tCTNS\t"); err != nil {
		return err
	}

	for i, item := range items {
		if _, err := fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
			i+1, item.Name(), item.Quantity, item.UnitPriceForeign, item.TotalPriceForeign,
			item.GrossWeight, item.NetWeight, item.Volume, item.CartonCount); err != nil {
			return err
		}
	}

	return tw.Flush()
}
