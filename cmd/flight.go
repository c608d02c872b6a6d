package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vertiops/evtol-ops/core/dispatch"
)

var flightCmd = &cobra.Command{
	Use:   "flight",
	Short: "Flight lifecycle commands",
}

var (
	scheduleEnergy     float64
	scheduleMinBattery float64
)

var flightScheduleCmd = &cobra.Command{
	Use:   "schedule <origin> <destination>",
	Short: "Reserve a vehicle and schedule a flight",
	Args:  cobra.ExactArgs(2),
	RunE:  runFlightSchedule,
}

var flightStartCmd = &cobra.Command{
	Use:   "start <flight-id>",
	Short: "Move a scheduled flight to In Progress",
	Args:  cobra.ExactArgs(1),
	RunE:  transitionRunner("start"),
}

var flightCompleteCmd = &cobra.Command{
	Use:   "complete <flight-id>",
	Short: "Complete an in-progress flight",
	Args:  cobra.ExactArgs(1),
	RunE:  transitionRunner("complete"),
}

var flightCancelCmd = &cobra.Command{
	Use:   "cancel <flight-id>",
	Short: "Cancel a scheduled or in-progress flight",
	Args:  cobra.ExactArgs(1),
	RunE:  transitionRunner("cancel"),
}

var flightActiveCmd = &cobra.Command{
	Use:   "active",
	Short: "List flights currently in the air",
	RunE:  runFlightActive,
}

func init() {
	flightScheduleCmd.Flags().Float64Var(&scheduleEnergy, "energy", 0, "estimated energy consumption in kWh")
	flightScheduleCmd.Flags().Float64Var(&scheduleMinBattery, "min-battery", 0, "battery eligibility threshold in percent")
	flightCmd.AddCommand(flightScheduleCmd, flightStartCmd, flightCompleteCmd, flightCancelCmd, flightActiveCmd)
	rootCmd.AddCommand(flightCmd)
}

func runFlightSchedule(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	f, err := svc.Dispatcher.ScheduleFlight(ctx, dispatch.ScheduleRequest{
		Origin:         args[0],
		Destination:    args[1],
		EnergyEstimate: scheduleEnergy,
		MinBattery:     scheduleMinBattery,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%s scheduled on %s\n", f.FlightID, f.VehicleID)
	return nil
}

func transitionRunner(action string) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		svc, err := openService()
		if err != nil {
			return err
		}
		defer func() { _ = svc.Close() }()

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		switch action {
		case "start":
			err = svc.Dispatcher.StartFlight(ctx, args[0])
		case "complete":
			err = svc.Dispatcher.CompleteFlight(ctx, args[0])
		case "cancel":
			err = svc.Dispatcher.CancelFlight(ctx, args[0])
		}
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: %s\n", action, args[0])
		return nil
	}
}

func runFlightActive(cmd *cobra.Command, args []string) error {
	svc, err := openService()
	if err != nil {
		return err
	}
	defer func() { _ = svc.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	flights, err := svc.Dispatcher.ActiveFlights(ctx)
	if err != nil && len(flights) == 0 {
		return err
	}
	for _, f := range flights {
		fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s -> %s\t%s\n", f.FlightID, f.Origin, f.Destination, f.VehicleID)
	}
	return nil
}
