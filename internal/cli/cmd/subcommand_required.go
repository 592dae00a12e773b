package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

// requireSubcommand prints the group help to stderr and fails with an input
// error, so `events hook` without a lifecycle point exits 4.
func requireSubcommand(cmd *cobra.Command, group string) error {
	message := group + " requires a subcommand"
	if cmd == nil {
		return &printedError{err: invalidInput(errors.New(message))}
	}

	cmd.SilenceErrors = true
	cmd.SilenceUsage = true
	stderr := cmd.ErrOrStderr()
	_, _ = fmt.Fprintln(stderr, message)

	stdout := cmd.OutOrStdout()
	if stdout != stderr {
		cmd.SetOut(stderr)
		defer cmd.SetOut(stdout)
	}
	if err := cmd.Help(); err != nil {
		return &printedError{err: invalidInput(fmt.Errorf("%s: print help: %w", message, err))}
	}
	return &printedError{err: invalidInput(errors.New(message))}
}
