package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vertiops/evtol-ops/core/model"
)

var fleetCmd = &cobra.Command{
	Use:   "fleet",
	Short: "Fleet registry commands",
}

var fleetLsCmd = &cobra.Command{
	Use:   "ls",
	Short: "List registered vehicles",
	RunE:  runFleetLs,
}

var (
	onboardBattery  float64
	onboardModel    string
	onboardMaxRange float64
)

var fleetOnboardCmd = &cobra.Command{
	Use:   "onboard <vehicle-id>",
	Short: "Register a new vehicle",
	Args:  cobra.ExactArgs(1),
	RunE:  runFleetOnboard,
}

var fleetMaintainCmd = &cobra.Command{
	Use:   "maintenance",
	Short: "Maintenance state commands",
}

var fleetMaintainCompleteCmd = &cobra.Command{
	Use:   "complete <vehicle-id>",
	Short: "Mark maintenance as completed",
	Args:  cobra.ExactArgs(1),
	RunE:  runMaintenanceComplete,
}

var fleetMaintainDegradeCmd = &cobra.Command{
	Use:   "degrade <vehicle-id> <Warning|Critical>",
	Short: "Degrade the maintenance status",
	Args:  cobra.ExactArgs(2),
	RunE:  runMaintenanceDegrade,
}

func init() {
	fleetOnboardCmd.Flags().Float64Var(&onboardBattery, "battery", 100, "battery level in percent")
	fleetOnboardCmd.Flags().StringVar(&onboardModel, "model", "", "vehicle model type")
	fleetOnboardCmd.Flags().Float64Var(&onboardMaxRange, "max-range", 100, "maximum range in km")
	fleetMaintainCmd.AddCommand(fleetMaintainCompleteCmd, fleetMaintainDegradeCmd)
	fleetCmd.AddCommand(fleetLsCmd, fleetOnboardCmd, fleetMaintainCmd)
	rootCmd.AddCommand(fleetCmd)
}

func runFleetLs(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	vehicles, err := svc.Registry.Snapshot(ctx)
	if err != nil {
		return err
	}
	for _, v := range vehicles {
		line := fmt.Sprintf("%s\t%s\t%.1f%%\t%s\tusage=%d", v.ID, v.ModelType, v.BatteryLevel, v.Maintenance, v.UsageCount)
		if v.ReservedBy != "" {
			line += "\treserved_by=" + v.ReservedBy
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}
	return nil
}

func runFleetOnboard(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	v := model.EVTOL{
		ID:           args[0],
		BatteryLevel: onboardBattery,
		Maintenance:  model.MaintenanceOK,
		ModelType:    onboardModel,
		MaxRange:     onboardMaxRange,
	}
	if err := svc.Registry.Onboard(ctx, v); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "onboarded %s\n", v.ID)
	return nil
}

func runMaintenanceComplete(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Registry.CompleteMaintenance(ctx, args[0]); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s is operational\n", args[0])
	return nil
}

func runMaintenanceDegrade(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := svc.Registry.DegradeMaintenance(ctx, args[0], model.MaintenanceStatus(args[1])); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s degraded to %s\n", args[0], args[1])
	return nil
}
