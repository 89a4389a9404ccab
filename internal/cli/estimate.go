package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/activity"
	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/engine"
	"github.com/rshade/footprint/internal/estimator"
	"github.com/rshade/footprint/internal/greenops"
	"github.com/rshade/footprint/internal/normalizer"
)

// estimateOutput is the JSON shape of estimate.
type estimateOutput struct {
	Date          string                     `json:"date"`
	Payload       activity.SubmissionPayload `json:"payload"`
	Breakdown     estimator.Breakdown        `json:"breakdown"`
	Equivalencies greenops.EquivalencyOutput `json:"equivalencies"`
}

// NewEstimateCmd creates the estimate command, which previews a day without
// saving it.
func NewEstimateCmd() *cobra.Command {
	var flags activityFlags

	cmd := &cobra.Command{
		Use:   "estimate",
		Short: "Estimate a day's emissions without saving",
		Long: `Normalizes the given activities exactly as 'log add' would and prints the
estimated emissions. The log store is never opened, so estimates work
without a usable store. With --output json the canonical payload that would
be submitted is included.`,
		Example: `  # Preview a flight
  footprint estimate --trip "Flight=1000"

  # Preview an editable JSON day
  footprint estimate --file day.json --output json`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}
			factors, err := config.GetGlobalConfig().EmissionFactors()
			if err != nil {
				return fmt.Errorf("invalid emission factors: %w", err)
			}

			ea, date, err := flags.activities(cmd.InOrStdin(), activity.Today(time.Now()))
			if err != nil {
				return err
			}
			log, b, err := engine.Preview(ea, date, factors)
			if err != nil {
				return err
			}

			out := estimateOutput{
				Date:          date,
				Payload:       activity.NewSubmission(normalizer.Sanitize(log)),
				Breakdown:     b,
				Equivalencies: greenops.ForBreakdown(b),
			}
			switch format {
			case config.OutputFormatJSON:
				return writeJSON(cmd.OutOrStdout(), out)
			case config.OutputFormatNDJSON:
				return writeNDJSON(cmd.OutOrStdout(), []estimateOutput{out})
			}
			return renderBreakdown(cmd.OutOrStdout(), date, b)
		},
	}
	flags.register(cmd)
	registerOutputFlag(cmd)
	return cmd
}
