package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"
)

// Execute builds the command tree and runs it against os.Args.
func Execute() error {
	return newRootCmd().Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "benchseed",
		Short: "Provision and tear down a synthetic benchmark dataset",
		Long: `benchseed drives the resumable provisioning pipeline one call at a time.

Each call runs a single operation of a scenario. Chunked operations return a
checkpoint; "run" persists it and keeps calling until the scenario is done,
"step" issues exactly one call and prints the continuation.

Process settings are read from BENCHSEED_* environment variables.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newInitCmd(),
		newStatusCmd(),
		newScenariosCmd(),
		newStepCmd(),
		newRunCmd(),
		newCleanCmd(),
		newPendingCmd(),
		newResumeCmd(),
	)
	return root
}

// withApp loads settings, opens the app for the duration of fn, and closes
// it afterwards.
func withApp(cmd *cobra.Command, fn func(ctx context.Context, a *app) error) error {
	s, err := loadSettings()
	if err != nil {
		return err
	}
	logger, err := newLogger(s, cmd.ErrOrStderr())
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := openApp(ctx, s, logger)
	if err != nil {
		return err
	}
	defer a.Close()

	return fn(ctx, a)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
