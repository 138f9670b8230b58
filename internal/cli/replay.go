package cli

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/admetrics/internal/replay"
)

func newReplayCmd() *cobra.Command {
	var cfg replay.Config
	var verify bool
	var verifyTimeout time.Duration

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Post a history file to a running service",
		Long:  "replay reads an .xlsx or .csv campaign-day sheet and posts it to /history in concurrent batches, retrying on backpressure.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			stats, err := replay.Replay(ctx, cfg, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			out := map[string]any{"replay": stats}
			if verify {
				vctx, cancel := context.WithTimeout(ctx, verifyTimeout)
				defer cancel()
				missing, err := replay.VerifyFile(vctx, cfg, 0)
				if err != nil {
					return err
				}
				out["missing"] = missing
			}
			return writeJSON(cmd.OutOrStdout(), out)
		},
	}

	cmd.Flags().StringVar(&cfg.File, "file", "", "History file (.xlsx or .csv)")
	cmd.Flags().StringVar(&cfg.BaseURL, "url", replay.DefaultBaseURL, "Service base URL")
	cmd.Flags().IntVar(&cfg.BatchSize, "batch", replay.DefaultBatchSize, "Records per request")
	cmd.Flags().IntVar(&cfg.Workers, "workers", 0, "Concurrent requests (default: number of CPUs)")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", replay.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().IntVar(&cfg.MaxRetries, "retries", replay.DefaultMaxRetries, "Retries per batch on 429 (negative disables)")
	cmd.Flags().DurationVar(&cfg.RetryDelay, "retry-delay", replay.DefaultRetryDelay, "First retry delay, doubled per retry")
	cmd.Flags().BoolVar(&verify, "verify", false, "Wait until every record is stored")
	cmd.Flags().DurationVar(&verifyTimeout, "verify-timeout", 30*time.Second, "How long --verify waits")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}

func newExportCmd() *cobra.Command {
	var cfg replay.Config
	var out, channel string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Download stored history into an .xlsx or .csv file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := replay.Export(cmd.Context(), cfg, channel, out)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), map[string]any{"path": out, "records": n})
		},
	}

	cmd.Flags().StringVar(&cfg.BaseURL, "url", replay.DefaultBaseURL, "Service base URL")
	cmd.Flags().DurationVar(&cfg.Timeout, "timeout", replay.DefaultTimeout, "HTTP request timeout")
	cmd.Flags().StringVar(&out, "out", "", "Output file (.xlsx or .csv)")
	cmd.Flags().StringVar(&channel, "channel", "", "Only export one channel")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}
