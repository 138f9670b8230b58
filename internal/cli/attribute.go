package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/okian/admetrics/internal/domain/attribution"
	"github.com/okian/admetrics/pkg/logger"
)

// modelAll runs every model side by side.
const modelAll = "all"

func newAttributeCmd() *cobra.Command {
	var file, modelName string
	var halfLife, firstLast float64
	var lookbackDays int
	var permissive bool

	cmd := &cobra.Command{
		Use:   "attribute",
		Short: "Credit a customer journey offline",
		Long:  "attribute reads a journey ({\"touchpoints\": [...], \"conversion_at\": ...}) and prints the credits of one model, or of every model with --model all.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			var j attribution.Journey
			if err := readJSON(file, &j); err != nil {
				return err
			}
			engine, err := attribution.NewEngine(
				attribution.WithLookback(time.Duration(lookbackDays)*24*time.Hour),
				attribution.WithHalfLife(halfLife),
				attribution.WithFirstLastWeight(firstLast),
				attribution.WithPermissiveUShaped(permissive),
				attribution.WithLogger(logger.Named("attribution")),
			)
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			if modelName == modelAll {
				reports, err := engine.Compare(ctx, j)
				if err != nil {
					return err
				}
				return writeJSON(cmd.OutOrStdout(), map[string]any{"reports": reports})
			}
			kind, err := attribution.ParseKind(modelName)
			if err != nil {
				return err
			}
			report, err := engine.Attribute(ctx, kind, j)
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), report)
		},
	}

	cmd.Flags().StringVar(&file, "file", "", "Journey JSON file")
	cmd.Flags().StringVar(&modelName, "model", string(attribution.KindLinear), "Model: first_click, last_click, linear, time_decay, u_shaped or all")
	cmd.Flags().Float64Var(&halfLife, "half-life", attribution.DefaultHalfLife, "Time-decay half-life in touchpoint positions")
	cmd.Flags().Float64Var(&firstLast, "first-last-weight", attribution.DefaultFirstLastWeight, "U-shaped weight of the first and last touchpoints")
	cmd.Flags().IntVar(&lookbackDays, "lookback-days", int(attribution.DefaultLookback/(24*time.Hour)), "Days before conversion_at to keep")
	cmd.Flags().BoolVar(&permissive, "permissive", false, "Accept u-shaped weights above 0.5 with a warning")
	_ = cmd.MarkFlagRequired("file")

	return cmd
}
