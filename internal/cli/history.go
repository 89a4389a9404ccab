package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/cli/pagination"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/logging"
)

// historyOutput is the JSON shape of history.
type historyOutput struct {
	engine.Report
	Pagination *pagination.Meta `json:"pagination,omitempty"`
}

// NewHistoryCmd creates the history command.
func NewHistoryCmd() *cobra.Command {
	var (
		from, to string
		page     pagination.Params
	)

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Summarize logged days over a date range",
		Long: `Prints one row per logged day plus totals, averages and the highest
category for the range. Reports are cached until the user's logs or the
emission factors change.

Totals always cover the whole range; --limit, --offset, --page and --sort only
select which day rows are shown.`,
		Example: `  # This year's days, highest first
  footprint history --from 2024-01-01 --sort total:desc

  # Second page of ten rows as JSON
  footprint history --page 2 --page-size 10 --output json

  # One JSON document per day
  footprint history --output ndjson`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runHistory(cmd, from, to, page)
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date, inclusive")
	cmd.Flags().StringVar(&to, "to", "", "last date, inclusive")
	cmd.Flags().IntVar(&page.Limit, "limit", 0, "maximum day rows to show (0 = all)")
	cmd.Flags().IntVar(&page.Offset, "offset", 0, "day rows to skip")
	cmd.Flags().IntVar(&page.Page, "page", 0, "1-based page of day rows")
	cmd.Flags().IntVar(&page.PageSize, "page-size", 0, "day rows per page (requires --page)")
	cmd.Flags().StringVar(&page.Sort, "sort", "",
		"sort day rows: date, total, transport, electricity or food, with optional :asc or :desc")
	registerOutputFlag(cmd)
	return cmd
}

func runHistory(cmd *cobra.Command, from, to string, page pagination.Params) error {
	ctx := cmd.Context()
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}
	if err = page.Validate(); err != nil {
		return err
	}

	eng, cleanup, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	report, err := eng.History(ctx, resolveUser(cmd), from, to)
	if err != nil {
		return err
	}

	field, order, err := pagination.ParseSort(page.Sort)
	if err != nil {
		return err
	}
	rows, err := pagination.NewDaySorter().Sort(report.Days, field, order)
	if err != nil {
		return err
	}
	total := len(rows)
	report.Days = pagination.Apply(page, rows)

	out := historyOutput{Report: report}
	if page.Limit > 0 || page.IsPageBased() || page.Offset > 0 {
		meta := pagination.NewMeta(page, total)
		out.Pagination = &meta
	}

	switch format {
	case config.OutputFormatJSON:
		return writeJSON(cmd.OutOrStdout(), out)
	case config.OutputFormatNDJSON:
		return writeNDJSON(cmd.OutOrStdout(), report.Days)
	}
	return renderHistory(cmd, out)
}

func renderHistory(cmd *cobra.Command, out historyOutput) error {
	w := cmd.OutOrStdout()
	r := out.Report

	title := "HISTORY"
	if r.From != "" || r.To != "" {
		title = fmt.Sprintf("HISTORY %s .. %s", orOpen(r.From), orOpen(r.To))
	}
	fmt.Fprintln(w, heading(w, title))

	if r.DaysLogged == 0 {
		fmt.Fprintln(w, "No logs found")
		return nil
	}

	tw := newTable(w)
	fmt.Fprintln(tw, "DATE\tTRANSPORT\tELECTRICITY\tFOOD\tTOTAL\tHIGHEST")
	for _, d := range r.Days {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			d.Date, kg(d.Transport), kg(d.Electricity), kg(d.Food), kg(d.Total), d.Highest)
	}
	fmt.Fprintf(tw, "TOTAL\t%s\t%s\t%s\t%s\t%s\n",
		kg(r.Transport), kg(r.Electricity), kg(r.Food), kg(r.Total), r.HighestCategory)
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintf(w, "\n%d days logged, %s kg CO2e per day on average, %d trips, %d meals\n",
		r.DaysLogged, kg(r.AverageDailyKg), r.Trips, r.Meals)
	if out.Pagination != nil {
		fmt.Fprintf(w, "Page %d of %d (%d days)\n",
			out.Pagination.CurrentPage, out.Pagination.TotalPages, out.Pagination.TotalItems)
	}
	if r.Cached {
		logging.FromContext(cmd.Context()).Debug().Ctx(cmd.Context()).
			Str("user", r.UserID).Msg("history report served from cache")
	}
	return nil
}

func orOpen(d string) string {
	if d == "" {
		return "*"
	}
	return d
}
