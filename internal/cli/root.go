// Package cli implements adctl, the operator command line for admetrics.
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/okian/admetrics/pkg/logger"
)

// Version is set at build time with -ldflags "-X".
var Version = "dev"

// Execute runs adctl with os.Args until it finishes or is interrupted.
func Execute() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return newRootCmd().ExecuteContext(ctx)
}

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string

	rootCmd := &cobra.Command{
		Use:           "adctl",
		Short:         "Operator CLI for the admetrics service",
		Long:          "adctl replays campaign history into a running admetrics server, exports it back out, and runs attribution and budget allocation offline.",
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := logger.InitWith(cmd.ErrOrStderr(), logFormat); err != nil {
				return err
			}
			return logger.SetLevelString(logLevel)
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "Log level (debug, info, warn, error)")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", logger.FormatText, "Log format (text, json)")

	rootCmd.AddCommand(
		newVersionCmd(),
		newReplayCmd(),
		newExportCmd(),
		newAttributeCmd(),
		newAllocateCmd(),
	)
	return rootCmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), Version)
			return err
		},
	}
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}
