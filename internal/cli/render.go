package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/estimator"
	"github.com/rshade/footprint/internal/greenops"
	"github.com/rshade/footprint/internal/normalizer"
)

// Table layout.
const (
	tableMinWidth = 0
	tableTabWidth = 8
	tablePadding  = 2
)

// registerOutputFlag adds --output to cmd.
func registerOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", "", "output format: table, json or ndjson (default from config)")
}

// outputFormat returns the validated --output value or the configured default.
func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	if format == "" {
		format = config.GetDefaultOutputFormat()
	}
	switch format {
	case config.OutputFormatTable, config.OutputFormatJSON, config.OutputFormatNDJSON:
		return format, nil
	default:
		return "", fmt.Errorf("%w: got %q", config.ErrInvalidOutputFormat, format)
	}
}

// writeJSON writes v as indented JSON.
func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// writeNDJSON writes one compact JSON document per item.
func writeNDJSON[T any](w io.Writer, items []T) error {
	enc := json.NewEncoder(w)
	for _, item := range items {
		if err := enc.Encode(item); err != nil {
			return err
		}
	}
	return nil
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, tableMinWidth, tableTabWidth, tablePadding, ' ', 0)
}

// kg formats a quantity with the configured precision and thousands grouping.
func kg(v float64) string {
	p := message.NewPrinter(language.English)
	return p.Sprintf("%.*f", config.GetOutputPrecision(), v)
}

// heading renders a section title, styled on terminals.
func heading(w io.Writer, title string) string {
	if !isWriterTerminal(w) {
		return title
	}
	return lipgloss.NewStyle().Bold(true).Foreground(boxTitleColor()).Render(title)
}

// renderBreakdown prints the per-category totals, the per-item details and
// an equivalency line.
func renderBreakdown(w io.Writer, date string, b estimator.Breakdown) error {
	if _, err := fmt.Fprintln(w, heading(w, "EMISSIONS "+date)); err != nil {
		return err
	}
	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tKG CO2E")
	fmt.Fprintf(tw, "Transportation\t%s\n", kg(b.Transport))
	fmt.Fprintf(tw, "Electricity\t%s\n", kg(b.Electricity))
	fmt.Fprintf(tw, "Food\t%s\n", kg(b.Food))
	fmt.Fprintf(tw, "Total\t%s\n", kg(b.Total))
	if err := tw.Flush(); err != nil {
		return err
	}

	if len(b.Trips) > 0 || len(b.Meals) > 0 {
		fmt.Fprintln(w)
		tw = newTable(w)
		fmt.Fprintln(tw, "ITEM\tAMOUNT\tFACTOR\tKG CO2E")
		for _, t := range b.Trips {
			fmt.Fprintf(tw, "%s\t%s km\t%g\t%s\n",
				normalizer.ModeLabel(t.Mode), kg(t.DistanceKm), t.Factor, kg(t.Emissions))
		}
		for _, m := range b.Meals {
			fmt.Fprintf(tw, "%s meals\t%d\t%g\t%s\n",
				normalizer.DietLabel(m.MealType), m.Servings, m.Factor, kg(m.Emissions))
		}
		if err := tw.Flush(); err != nil {
			return err
		}
	}

	if b.Total > 0 {
		eq := greenops.ForBreakdown(b)
		if eq.DisplayText != "" {
			fmt.Fprintln(w)
			fmt.Fprintln(w, eq.DisplayText)
		}
	}
	return nil
}
