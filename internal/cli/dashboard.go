package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/config"
)

// NewDashboardCmd creates the dashboard command.
func NewDashboardCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show today, last 7 days and last 30 days at a glance",
		Long: `Prints emission totals per category for today, the last 7 days and the
last 30 days, each ending today. Averages divide by the days that have a log.
A period with no emissions reports "none" as its highest category.`,
		Example: `  # Your dashboard
  footprint dashboard

  # Another user's dashboard as JSON
  footprint dashboard --user alice --output json`,
		RunE: runDashboard,
	}
	registerOutputFlag(cmd)
	return cmd
}

func runDashboard(cmd *cobra.Command, _ []string) error {
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	eng, cleanup, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	d, err := eng.Dashboard(cmd.Context(), resolveUser(cmd))
	if err != nil {
		return err
	}

	switch format {
	case config.OutputFormatJSON:
		return writeJSON(cmd.OutOrStdout(), d)
	case config.OutputFormatNDJSON:
		return writeNDJSON(cmd.OutOrStdout(), d.Periods())
	}

	w := cmd.OutOrStdout()
	fmt.Fprintln(w, heading(w, "DASHBOARD "+d.Date))
	tw := newTable(w)
	fmt.Fprintln(tw, "PERIOD\tDAYS\tTRANSPORT\tELECTRICITY\tFOOD\tTOTAL\tDAILY AVG\tHIGHEST")
	for _, p := range d.Periods() {
		fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\n",
			p.Period, p.DaysLogged, kg(p.Transport), kg(p.Electricity), kg(p.Food),
			kg(p.Total), kg(p.AverageDailyKg), p.HighestCategory)
	}
	return tw.Flush()
}
