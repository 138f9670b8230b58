package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/okian/admetrics/internal/domain/allocation"
	"github.com/okian/admetrics/internal/domain/model"
	"github.com/okian/admetrics/pkg/logger"
)

// allocationFile accepts either {"total_budget": ..., "channels": {...}} or a
// bare channel map.
type allocationFile struct {
	TotalBudget float64                             `json:"total_budget"`
	Channels    map[string]model.ChannelPerformance `json:"channels"`
}

func loadAllocationFile(path string) (allocationFile, error) {
	var f allocationFile
	if err := readJSON(path, &f); err != nil {
		return f, err
	}
	if len(f.Channels) > 0 {
		return f, nil
	}
	var bare map[string]model.ChannelPerformance
	if err := readJSON(path, &bare); err != nil {
		return f, err
	}
	f.Channels = bare
	return f, nil
}

func newAllocateCmd() *cobra.Command {
	var file string
	var budget, minShare, maxShare float64

	cmd := &cobra.Command{
		Use:   "allocate",
		Short: "Split a budget across channels offline",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			f, err := loadAllocationFile(file)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("budget") || f.TotalBudget == 0 {
				f.TotalBudget = budget
			}

			alloc, err := allocation.New(allocation.WithShareBounds(minShare, maxShare))
			if err != nil {
				return err
			}
			plan, err := alloc.Allocate(f.TotalBudget, f.Channels)
			if err != nil {
				return fmt.Errorf("allocate %g: %w", f.TotalBudget, err)
			}
			if plan.CapBreached {
				logger.Named("allocation").Warn(cmd.Context(), "correction breached share bounds",
					logger.String("channel", plan.Adjusted),
					logger.Float64("adjustment", plan.Adjustment))
			}
			return writeJSON(cmd.OutOrStdout(), plan)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Channel performance JSON file")
	cmd.Flags().Float64Var(&budget, "budget", 0, "Total budget (overrides total_budget in the file)")
	cmd.Flags().Float64Var(&minShare, "min-share", allocation.DefaultMinShare, "Minimum share per channel")
	cmd.Flags().Float64Var(&maxShare, "max-share", allocation.DefaultMaxShare, "Maximum share per channel")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
