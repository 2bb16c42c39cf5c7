package main

import (
	"github.com/spf13/cobra"

	"github.com/forkful/recipegen/internal/bootstrap"
)

// Exit codes for the CLI.
const (
	exitCodeSuccess = 0
	exitCodeError   = 1
)

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "recipegen-session",
		Short: "Keep a recipegen session credential in sync with the identity provider",
		// Errors are logged by execute; usage is only useful for flag mistakes.
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newWatchCmd())
	return root
}

func execute() int {
	logger := bootstrap.InitLogger()
	if err := newRootCmd().Execute(); err != nil {
		logger.Error("command failed", "error", err)
		return exitCodeError
	}
	return exitCodeSuccess
}
