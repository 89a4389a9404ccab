// Command footprint logs daily activities and estimates their carbon
// emissions.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/rshade/footprint/internal/cli"
	"github.com/rshade/footprint/pkg/version"
)

func main() {
	os.Exit(run())
}

func run() int {
	root := cli.NewRootCmd(version.GetVersion())
	err := root.ExecuteContext(context.Background())
	if err == nil {
		return 0
	}

	var budgetErr *cli.BudgetExitError
	if !errors.As(err, &budgetErr) {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return extractBudgetExitCode(err)
}

// extractBudgetExitCode returns the exit code carried by a BudgetExitError,
// 1 for any other error and 0 for nil.
func extractBudgetExitCode(err error) int {
	if err == nil {
		return 0
	}
	var budgetErr *cli.BudgetExitError
	if errors.As(err, &budgetErr) {
		return budgetErr.ExitCode
	}
	return 1
}
