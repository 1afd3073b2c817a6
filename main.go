package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"parsebench/bench"
	"parsebench/config"
)

func main() {
	// A pass always runs to completion; an interrupt terminates the process.
	if err := newRootCommand().ExecuteContext(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "parsebench",
		Short: "Compare literal SQL against a prepared statement for random point lookups",
		Long: `parsebench looks up random rows of a table by primary key, once with SQL text
built per lookup ("trouble") and once with a single prepared statement ("normal"),
and reports the wall clock time of each pass.

The database password is read from the environment variable named by --password-env.`,
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runComparison(cmd.Context(), cfg, logger, cmd.OutOrStdout())
		},
	}
	config.RegisterFlags(root.PersistentFlags())
	root.AddCommand(newSeedCommand())
	return root
}

func newSeedCommand() *cobra.Command {
	var rows, batch int
	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Append synthetic rows to the existing lookup table",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cmd.Flags())
			if err != nil {
				return err
			}
			logger, err := newLogger(cfg.LogLevel)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()
			return runSeed(cmd.Context(), cfg, rows, batch, logger, cmd.OutOrStdout())
		},
	}
	cmd.Flags().IntVar(&rows, "rows", 10000, "Rows to insert")
	cmd.Flags().IntVar(&batch, "batch", bench.DefaultSeedBatch, "Rows per transaction")
	return cmd
}
