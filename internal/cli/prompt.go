package cli

import (
	"errors"
	"os"

	"github.com/spf13/cobra"

	"github.com/rshade/footprint/internal/migration"
)

// ErrNotConfirmed is returned when a destructive action is declined or cannot
// be confirmed.
var ErrNotConfirmed = errors.New("not confirmed: rerun with --yes to proceed")

// confirmAction asks the user to confirm prompt. yes skips the question.
// Without a terminal on stdin there is nobody to ask, so the answer is no
// unless the command's input has been replaced (as in tests and pipes
// through SetIn).
//
// The prompt defaults to "No" when the user presses Enter without input.
func confirmAction(cmd *cobra.Command, yes bool, prompt string) error {
	if yes {
		return nil
	}
	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && !isTerminal(f) {
		return ErrNotConfirmed
	}
	if !migration.Confirm(cmd.OutOrStdout(), in, prompt) {
		return ErrNotConfirmed
	}
	return nil
}
