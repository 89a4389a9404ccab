package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/normalizer"
)

// NewLogAddCmd creates the log add command. Saving a date that already has a
// log replaces it.
func NewLogAddCmd() *cobra.Command {
	var flags activityFlags

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Save a day's activities, replacing any log for that date",
		Example: `  # Save today's commute and dinner
  footprint log add --trip "Bus=12" --trip "Bicycle=4" --meal "Vegetarian=1"

  # Save a past day from an editable JSON file
  footprint log add --date 2024-01-15 --file day.json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogAdd(cmd, &flags)
		},
	}
	flags.register(cmd)
	registerOutputFlag(cmd)
	return cmd
}

func runLogAdd(cmd *cobra.Command, flags *activityFlags) error {
	ctx := cmd.Context()
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	eng, cleanup, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	ea, date, err := flags.activities(cmd.InOrStdin(), eng.Today())
	if err != nil {
		return err
	}

	user := resolveUser(cmd)
	audit := newAuditContext(ctx, "log add", map[string]string{"user": user, "date": date})
	res, err := eng.Submit(ctx, user, date, ea)
	if err != nil {
		audit.logFailure(ctx, err)
		return err
	}
	audit.logSuccess(ctx, 1, res.Log.TotalEmissions)

	switch format {
	case config.OutputFormatJSON:
		return writeJSON(cmd.OutOrStdout(), res)
	case config.OutputFormatNDJSON:
		return writeNDJSON(cmd.OutOrStdout(), []engine.SubmitResult{res})
	}

	verb := "Saved"
	if res.Replaced {
		verb = "Replaced"
	}
	cmd.Printf("%s log for %s on %s\n\n", verb, user, res.Log.Date)
	return renderBreakdown(cmd.OutOrStdout(), res.Log.Date, res.Breakdown)
}

// NewLogShowCmd creates the log show command.
func NewLogShowCmd() *cobra.Command {
	var (
		date     string
		editable bool
	)
	cmd := &cobra.Command{
		Use:   "show",
		Short: "Show the stored log for a date",
		Example: `  # Show today's log
  footprint log show

  # Print a day in editable form, ready to change and pass to 'log add --file'
  footprint log show --date 2024-01-15 --editable`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			date = orToday(date, eng.Today())
			ea, stored, err := eng.Load(cmd.Context(), resolveUser(cmd), date)
			if err != nil {
				return fmt.Errorf("loading %s: %w", date, err)
			}
			if editable {
				return writeJSON(cmd.OutOrStdout(), activity.DatedActivities{Date: stored.Date, Activities: ea})
			}
			switch format {
			case config.OutputFormatJSON:
				return writeJSON(cmd.OutOrStdout(), stored)
			case config.OutputFormatNDJSON:
				return writeNDJSON(cmd.OutOrStdout(), []activity.StoredLog{stored})
			}
			return renderStoredLog(cmd, stored)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	cmd.Flags().BoolVar(&editable, "editable", false, "print the editable JSON form")
	registerOutputFlag(cmd)
	return cmd
}

func renderStoredLog(cmd *cobra.Command, s activity.StoredLog) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, heading(w, "LOG "+s.Date))
	tw := newTable(w)
	fmt.Fprintf(tw, "User\t%s\n", s.UserID)
	fmt.Fprintf(tw, "ID\t%s\n", s.ID)
	fmt.Fprintf(tw, "Updated\t%s\n", s.UpdatedAt.Format("2006-01-02 15:04:05"))
	for _, t := range s.Transportation {
		fmt.Fprintf(tw, "Trip\t%s, %s km\n", normalizer.ModeLabel(t.Mode), kg(t.DistanceKm))
	}
	if s.ElectricityKwh > 0 {
		fmt.Fprintf(tw, "Electricity\t%s kWh\n", kg(s.ElectricityKwh))
	}
	for _, m := range s.Food {
		fmt.Fprintf(tw, "Meals\t%s x%d\n", normalizer.DietLabel(m.MealType), m.MealsCount)
	}
	fmt.Fprintf(tw, "Transportation\t%s kg\n", kg(s.TransportEmissions))
	fmt.Fprintf(tw, "Electricity CO2e\t%s kg\n", kg(s.ElectricityEmissions))
	fmt.Fprintf(tw, "Food CO2e\t%s kg\n", kg(s.FoodEmissions))
	fmt.Fprintf(tw, "Total\t%s kg\n", kg(s.TotalEmissions))
	return tw.Flush()
}

// NewLogListCmd creates the log list command.
func NewLogListCmd() *cobra.Command {
	var from, to string
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored logs in a date range",
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			logs, err := eng.List(cmd.Context(), resolveUser(cmd), from, to)
			if err != nil {
				return err
			}
			switch format {
			case config.OutputFormatJSON:
				return writeJSON(cmd.OutOrStdout(), logs)
			case config.OutputFormatNDJSON:
				return writeNDJSON(cmd.OutOrStdout(), logs)
			}
			if len(logs) == 0 {
				cmd.Println("No logs found")
				return nil
			}
			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "DATE\tTRIPS\tKWH\tMEALS\tTOTAL KG")
			for _, l := range logs {
				meals := 0
				for _, m := range l.Food {
					meals += m.MealsCount
				}
				fmt.Fprintf(tw, "%s\t%d\t%s\t%d\t%s\n",
					l.Date, len(l.Transportation), kg(l.ElectricityKwh), meals, kg(l.TotalEmissions))
			}
			return tw.Flush()
		},
	}
	cmd.Flags().StringVar(&from, "from", "", "first date, inclusive")
	cmd.Flags().StringVar(&to, "to", "", "last date, inclusive")
	registerOutputFlag(cmd)
	return cmd
}

// NewLogDeleteCmd creates the log delete command. Logs cannot be deleted;
// the command explains how to replace one instead.
func NewLogDeleteCmd() *cobra.Command {
	var date string
	cmd := &cobra.Command{
		Use:   "delete",
		Short: "Deleting logs is not supported; replace the day instead",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			eng, cleanup, err := openEngine(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			date = orToday(date, eng.Today())
			user := resolveUser(cmd)
			err = eng.Delete(ctx, user, date)
			newAuditContext(ctx, "log delete", map[string]string{"user": user, "date": date}).logFailure(ctx, err)
			return err
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	return cmd
}
