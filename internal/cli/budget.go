package cli

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
	"golang.org/x/term"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rshade/footprint/internal/config"
	"github.com/rshade/footprint/internal/engine"
)

// Budget rendering constants.
const (
	defaultBoxWidth     = 44
	minBoxWidth         = 30
	progressBarWidth    = 30
	minProgressBarWidth = 10
	progressFilledChar  = "█"
	progressEmptyChar   = "░"
	narrowTerminalWidth = 40
	boxPaddingWidth     = 4
	layoutWidthPercent  = 0.8
	barPaddingWidth     = 14

	thresholdPercent100 = 100
	thresholdPercent80  = 80
)

func boxBorderColor() lipgloss.Color { return lipgloss.Color("240") }

func boxTitleColor() lipgloss.Color { return lipgloss.Color("39") }

func colorWarning() lipgloss.Color { return lipgloss.Color("214") }

func colorApproaching() lipgloss.Color { return lipgloss.Color("220") }

func progressOKColor() lipgloss.Color { return lipgloss.Color("42") }

func progressExceededColor() lipgloss.Color { return lipgloss.Color("196") }

// BudgetExitError carries a non-zero exit code out of a command when a
// budget threshold is exceeded and exit_on_threshold is set.
type BudgetExitError struct {
	ExitCode int
	Reason   string
}

func (e *BudgetExitError) Error() string {
	return e.Reason
}

// budgetFlags override the configured exit behavior.
type budgetFlags struct {
	exitOnThreshold bool
	exitCode        int
}

// NewBudgetStatusCmd creates the budget status command.
func NewBudgetStatusCmd() *cobra.Command {
	var flags budgetFlags

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Compare this month's emissions with the carbon budget",
		Long: `Sums the emissions logged so far this month and compares them with the
monthly budget, which is budget.daily_kg times the number of days in the month.
A linear forecast projects the month-end total.

With --exit-on-threshold (or budget.exit_on_threshold) the command exits with
budget.exit_code when any alert threshold is exceeded.`,
		Example: `  # Show the budget box
  footprint budget status

  # Fail a script when over an alert threshold
  footprint budget status --exit-on-threshold --exit-code 3`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBudgetStatus(cmd, flags)
		},
	}
	cmd.Flags().BoolVar(&flags.exitOnThreshold, "exit-on-threshold", false,
		"exit non-zero when an alert threshold is exceeded")
	cmd.Flags().IntVar(&flags.exitCode, "exit-code", 1, "exit code used when a threshold is exceeded (0-255)")
	registerOutputFlag(cmd)
	return cmd
}

func runBudgetStatus(cmd *cobra.Command, flags budgetFlags) error {
	ctx := cmd.Context()
	format, err := outputFormat(cmd)
	if err != nil {
		return err
	}

	budget := config.GetGlobalConfig().Budget
	if cmd.Flags().Changed("exit-on-threshold") {
		budget.ExitOnThreshold = flags.exitOnThreshold
	}
	if cmd.Flags().Changed("exit-code") {
		budget.ExitCode = flags.exitCode
	}
	if err = budget.Validate(); err != nil {
		return fmt.Errorf("invalid budget configuration: %w", err)
	}

	eng, cleanup, err := openEngine(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	status, err := eng.EvaluateBudget(ctx, resolveUser(cmd), budget)
	if errors.Is(err, engine.ErrBudgetDisabled) {
		return fmt.Errorf("%w: set one with 'footprint config set budget.daily_kg <kg>'", err)
	}
	if err != nil {
		return err
	}

	switch format {
	case config.OutputFormatJSON:
		err = writeJSON(cmd.OutOrStdout(), status)
	case config.OutputFormatNDJSON:
		err = writeNDJSON(cmd.OutOrStdout(), []*engine.BudgetStatus{status})
	default:
		err = RenderBudgetStatus(cmd.OutOrStdout(), status)
	}
	if err != nil {
		return err
	}
	return checkBudgetExit(cmd, status)
}

// checkBudgetExit returns a BudgetExitError when status calls for a non-zero
// exit.
func checkBudgetExit(cmd *cobra.Command, status *engine.BudgetStatus) error {
	code := status.ExitCode()
	if code == 0 {
		return nil
	}
	reason := fmt.Sprintf("budget threshold exceeded: %.0f%%", status.HighestExceededThreshold())
	if d := cmd.Flag("debug"); d != nil && d.Changed {
		cmd.PrintErrf("DEBUG: %s (exit code %d)\n", reason, code)
	}
	return &BudgetExitError{ExitCode: code, Reason: reason}
}

// RenderBudgetStatus writes a bordered box on terminals and plain text
// otherwise. A nil status writes nothing.
func RenderBudgetStatus(w io.Writer, status *engine.BudgetStatus) error {
	if status == nil {
		return nil
	}
	if isWriterTerminal(w) {
		return renderStyledBudget(w, status)
	}
	return renderPlainBudget(w, status)
}

// isWriterTerminal reports whether w is an *os.File attached to a terminal.
func isWriterTerminal(w io.Writer) bool {
	if f, ok := w.(*os.File); ok {
		return isTerminal(f)
	}
	return false
}

func renderStyledBudget(w io.Writer, status *engine.BudgetStatus) error {
	width := getTerminalWidth(w)
	boxWidth := calculateBoxWidth(width)
	barWidth := calculateProgressBarWidth(boxWidth)

	titleStyle := lipgloss.NewStyle().
		Bold(true).
		Foreground(boxTitleColor())

	borderStyle := lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(boxBorderColor()).
		Padding(0, 1).
		Width(boxWidth)

	var content strings.Builder
	p := message.NewPrinter(language.English)

	content.WriteString(titleStyle.Render("CARBON BUDGET"))
	content.WriteString("\n")
	content.WriteString(strings.Repeat("─", boxWidth-boxPaddingWidth))
	content.WriteString("\n\n")

	content.WriteString(p.Sprintf("Period: %s to %s\n", status.PeriodStart, status.PeriodEnd))
	content.WriteString(p.Sprintf("Budget: %.2f kg (%.2f kg/day)\n", status.BudgetKg, status.Budget.DailyKg))
	content.WriteString(p.Sprintf("Emitted: %.2f kg (%.1f%%)\n", status.CurrentKg, status.Percentage))
	content.WriteString(p.Sprintf("Days logged: %d\n\n", status.DaysLogged))

	content.WriteString(renderProgressBar(status, barWidth))
	content.WriteString("\n")

	if alerts := renderAlertMessages(status); alerts != "" {
		content.WriteString("\n")
		content.WriteString(alerts)
	}

	if status.ForecastedKg > 0 {
		content.WriteString("\n")
		forecastStyle := lipgloss.NewStyle().Italic(true).Foreground(lipgloss.Color("246"))
		content.WriteString(forecastStyle.Render(
			p.Sprintf("Forecast: %.2f kg (%.1f%%)", status.ForecastedKg, status.ForecastPercentage)))
	}

	_, err := fmt.Fprintln(w, borderStyle.Render(content.String()))
	return err
}

func renderPlainBudget(w io.Writer, status *engine.BudgetStatus) error {
	p := message.NewPrinter(language.English)
	lines := []string{
		"CARBON BUDGET",
		"=============",
		p.Sprintf("Period: %s to %s", status.PeriodStart, status.PeriodEnd),
		p.Sprintf("Budget: %.2f kg (%.2f kg/day)", status.BudgetKg, status.Budget.DailyKg),
		p.Sprintf("Emitted: %.2f kg (%.1f%%)", status.CurrentKg, status.Percentage),
		p.Sprintf("Days logged: %d", status.DaysLogged),
		"Health: " + string(status.Health),
		"Status: " + getStatusMessage(status),
	}
	if status.ForecastedKg > 0 {
		lines = append(lines, p.Sprintf("Forecast: %.2f kg (%.1f%%)", status.ForecastedKg, status.ForecastPercentage))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// renderProgressBar draws the capped utilization bar with a percentage label.
func renderProgressBar(status *engine.BudgetStatus, width int) string {
	filledWidth := int(status.CappedPercentage() / thresholdPercent100 * float64(width))
	emptyWidth := width - filledWidth

	filledStyle := lipgloss.NewStyle().Foreground(determineProgressBarColor(status.Percentage))
	emptyStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("240"))

	filled := filledStyle.Render(strings.Repeat(progressFilledChar, filledWidth))
	empty := emptyStyle.Render(strings.Repeat(progressEmptyChar, emptyWidth))

	percentLabel := fmt.Sprintf(" %.0f%%", status.Percentage)
	if status.IsOverBudget() {
		percentLabel = lipgloss.NewStyle().
			Foreground(progressExceededColor()).
			Bold(true).
			Render(percentLabel)
	}
	return filled + empty + percentLabel
}

func determineProgressBarColor(percentage float64) lipgloss.Color {
	switch {
	case percentage >= thresholdPercent100:
		return progressExceededColor()
	case percentage >= thresholdPercent80:
		return colorWarning()
	default:
		return progressOKColor()
	}
}

func renderAlertMessages(status *engine.BudgetStatus) string {
	var messages []string
	for _, alert := range status.Alerts {
		switch alert.Status {
		case engine.ThresholdStatusExceeded:
			style := lipgloss.NewStyle().Foreground(colorWarning()).Bold(true)
			messages = append(messages, style.Render("⚠ "+formatAlertMessage(alert, "WARNING")))
		case engine.ThresholdStatusApproaching:
			style := lipgloss.NewStyle().Foreground(colorApproaching())
			messages = append(messages, style.Render("◉ "+formatAlertMessage(alert, "APPROACHING")))
		case engine.ThresholdStatusOK:
		}
	}
	return strings.Join(messages, "\n")
}

// formatAlertMessage reads "<prefix> - emissions exceed 80% threshold".
func formatAlertMessage(alert engine.ThresholdStatus, prefix string) string {
	typeStr := "emissions"
	if alert.Type == config.AlertTypeForecasted {
		typeStr = "forecasted emissions"
	}
	return fmt.Sprintf("%s - %s exceed %.0f%% threshold", prefix, typeStr, alert.Threshold)
}

func getStatusMessage(status *engine.BudgetStatus) string {
	if status.HasExceededAlerts() {
		return fmt.Sprintf("WARNING - Exceeds %.0f%% threshold", status.HighestExceededThreshold())
	}
	if status.HasApproachingAlerts() {
		return "APPROACHING - Near budget threshold"
	}
	return "OK - Within budget"
}

// getTerminalWidth returns the width of w's terminal, or a fallback.
func getTerminalWidth(w io.Writer) int {
	if f, ok := w.(*os.File); ok {
		width, _, err := term.GetSize(int(f.Fd()))
		if err == nil && width > 0 {
			return width
		}
	}
	return defaultBoxWidth + boxPaddingWidth
}

func calculateBoxWidth(termWidth int) int {
	if termWidth < narrowTerminalWidth {
		return minBoxWidth
	}
	boxWidth := int(float64(termWidth) * layoutWidthPercent)
	boxWidth = min(boxWidth, defaultBoxWidth)
	return max(boxWidth, minBoxWidth)
}

func calculateProgressBarWidth(boxWidth int) int {
	barWidth := boxWidth - barPaddingWidth
	barWidth = max(barWidth, minProgressBarWidth)
	return min(barWidth, progressBarWidth)
}
