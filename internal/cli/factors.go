package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/normalizer"
)

// factorRow is one line of the factor table.
type factorRow struct {
	Category string  `json:"category"`
	Key      string  `json:"key"`
	Label    string  `json:"label"`
	Unit     string  `json:"unit"`
	KgCO2e   float64 `json:"kg_co2e"`
}

// NewFactorsCmd creates the factors command, which prints the emission
// factor table in effect, including overrides from config.
func NewFactorsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "factors",
		Short: "Show the emission factors in effect",
		Example: `  footprint factors
  footprint factors --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			f, err := config.GetGlobalConfig().EmissionFactors()
			if err != nil {
				return fmt.Errorf("invalid emission factors: %w", err)
			}

			rows := make([]factorRow, 0, len(f.Transport)+2) //nolint:mnd // electricity and food rows
			for _, m := range f.SortedModes() {
				rows = append(rows, factorRow{
					Category: "transportation",
					Key:      string(m),
					Label:    normalizer.ModeLabel(m),
					Unit:     "km",
					KgCO2e:   f.TransportFactor(m),
				})
			}
			rows = append(rows,
				factorRow{Category: "electricity", Key: "electricity", Label: "Electricity", Unit: "kWh", KgCO2e: f.ElectricityPerKwh},
				factorRow{Category: "food", Key: "food", Label: "Meal", Unit: "serving", KgCO2e: f.FoodPerServing},
			)

			switch format {
			case config.OutputFormatJSON:
				return writeJSON(cmd.OutOrStdout(), rows)
			case config.OutputFormatNDJSON:
				return writeNDJSON(cmd.OutOrStdout(), rows)
			}

			tw := newTable(cmd.OutOrStdout())
			fmt.Fprintln(tw, "CATEGORY\tMODE\tLABEL\tKG CO2E\tPER")
			for _, r := range rows {
				fmt.Fprintf(tw, "%s\t%s\t%s\t%g\t%s\n", r.Category, r.Key, r.Label, r.KgCO2e, r.Unit)
			}
			if err = tw.Flush(); err != nil {
				return err
			}
			cmd.Printf("\nTransport labels: %d accepted, meal types: %d accepted\n",
				len(normalizer.TransportLabels()), len(normalizer.MealLabels()))
			return nil
		},
	}
	registerOutputFlag(cmd)
	return cmd
}
