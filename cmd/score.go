package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/vertiops/evtol-ops/core/risk"
)

var (
	scoreCondition string
	scoreTemp      float64
	scoreWind      float64
	scoreVehicles  int
	scoreSpeed     float64
)

var scoreCmd = &cobra.Command{
	Use:   "score",
	Short: "Assess flight conditions with the safety model",
	RunE:  runScore,
}

func init() {
	scoreCmd.Flags().StringVar(&scoreCondition, "condition", "Clear", "weather condition")
	scoreCmd.Flags().Float64Var(&scoreTemp, "temperature", 15, "temperature in celsius")
	scoreCmd.Flags().Float64Var(&scoreWind, "wind", 10, "wind speed in km/h")
	scoreCmd.Flags().IntVar(&scoreVehicles, "vehicles", 0, "observed vehicle count on the route")
	scoreCmd.Flags().Float64Var(&scoreSpeed, "speed", 100, "average route speed in km/h")
	rootCmd.AddCommand(scoreCmd)
}

func runScore(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	if svc.Scorer == nil {
		return risk.ErrModelUnavailable
	}
	a, err := svc.Scorer.Score(scoreCondition, scoreTemp, scoreWind, scoreVehicles, scoreSpeed)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "risk: %s (low=%.3f medium=%.3f high=%.3f)\n",
		a.Level, a.Probabilities[0], a.Probabilities[1], a.Probabilities[2])
	return nil
}
