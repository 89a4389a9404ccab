package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/recommend"
)

// recommendOutput is the JSON shape of recommend.
type recommendOutput struct {
	Date            string                     `json:"date"`
	TotalEmissions  float64                    `json:"total_emissions"`
	Recommendations []recommend.Recommendation `json:"recommendations"`
	TotalSavingsKg  float64                    `json:"total_potential_savings_kg"`
}

// NewRecommendCmd creates the recommend command.
func NewRecommendCmd() *cobra.Command {
	var date string

	cmd := &cobra.Command{
		Use:   "recommend",
		Short: "Suggest ways to cut a logged day's emissions",
		Long: `Reads the stored log for a date and suggests actions for every category
above its threshold, with the emissions each action could save. Days with no
category over its threshold get general tips.`,
		Example: `  # Suggestions for today
  footprint recommend

  # Suggestions for a past day as JSON
  footprint recommend --date 2024-01-15 --output json`,
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
			recs, stored, err := eng.Recommend(cmd.Context(), resolveUser(cmd), date)
			if err != nil {
				return fmt.Errorf("recommendations for %s: %w", date, err)
			}

			switch format {
			case config.OutputFormatJSON:
				return writeJSON(cmd.OutOrStdout(), recommendOutput{
					Date:            stored.Date,
					TotalEmissions:  stored.TotalEmissions,
					Recommendations: recs,
					TotalSavingsKg:  recommend.TotalSavings(recs),
				})
			case config.OutputFormatNDJSON:
				return writeNDJSON(cmd.OutOrStdout(), recs)
			}
			return renderRecommendations(cmd, stored, recs)
		},
	}
	cmd.Flags().StringVar(&date, "date", "", "date as YYYY-MM-DD (default today)")
	registerOutputFlag(cmd)
	return cmd
}

func renderRecommendations(cmd *cobra.Command, stored activity.StoredLog, recs []recommend.Recommendation) error {
	w := cmd.OutOrStdout()
	fmt.Fprintln(w, heading(w, "RECOMMENDATIONS "+stored.Date))
	fmt.Fprintf(w, "Total emissions: %s kg CO2e\n\n", kg(stored.TotalEmissions))

	tw := newTable(w)
	fmt.Fprintln(tw, "CATEGORY\tACTION\tSAVES KG")
	for _, r := range recs {
		savings := "-"
		if r.PotentialSavingsKg > 0 {
			savings = kg(r.PotentialSavingsKg)
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\n", r.Category, r.Title, savings)
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	fmt.Fprintln(w)
	for _, r := range recs {
		fmt.Fprintf(w, "- %s: %s\n", r.Title, r.Description)
	}
	if total := recommend.TotalSavings(recs); total > 0 {
		fmt.Fprintf(w, "\nPotential savings: %s kg CO2e\n", kg(total))
	}
	return nil
}
