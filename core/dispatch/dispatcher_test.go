package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/vertiops/evtol-ops/core/fleet"
	"github.com/vertiops/evtol-ops/core/metrics"
	"github.com/vertiops/evtol-ops/core/model"
	"github.com/vertiops/evtol-ops/infra/logger"
	"github.com/vertiops/evtol-ops/infra/store"
	"github.com/vertiops/evtol-ops/internal/eventbus"
)

func setup(t *testing.T, vehicles ...model.EVTOL) (*Dispatcher, *fleet.Registry, *store.MemoryStore) {
	t.Helper()
	ms := store.NewMemoryStore()
	for _, v := range vehicles {
		if err := ms.InsertVehicle(context.Background(), v); err != nil {
			t.Fatalf("insert %s: %v", v.ID, err)
		}
	}
	reg, err := fleet.New(ms, logger.NopLogger{})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	d, err := New(reg, ms, eventbus.New(), nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}
	return d, reg, ms
}

func okVehicle(id string, battery float64) model.EVTOL {
	return model.EVTOL{ID: id, BatteryLevel: battery, Maintenance: model.MaintenanceOK, MaxRange: 150, ModelType: "Model-A"}
}

func TestScheduleFlightPicksLowestEligibleID(t *testing.T) {
	d, _, _ := setup(t,
		okVehicle("E2", 90),
		okVehicle("E1", 50),
		okVehicle("E3", 15), // below default threshold
	)
	f, err := d.ScheduleFlight(context.Background(), ScheduleRequest{Origin: "Heliport-A", Destination: "Vertiport-X", EnergyEstimate: 10})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if f.VehicleID != "E1" {
		t.Fatalf("tie-break must pick ascending id, got %s", f.VehicleID)
	}
	if f.Status != model.FlightScheduled {
		t.Fatalf("new flight must be Scheduled, got %s", f.Status)
	}
	if f.FlightID == "" || f.CreatedAt.IsZero() {
		t.Fatalf("incomplete flight record: %#v", f)
	}
}

func TestScheduleFlightNeverPicksIneligible(t *testing.T) {
	d, _, _ := setup(t,
		model.EVTOL{ID: "E1", BatteryLevel: 95, Maintenance: model.MaintenanceWarning, MaxRange: 150},
		okVehicle("E2", 19.9),
	)
	_, err := d.ScheduleFlight(context.Background(), ScheduleRequest{Origin: "A", Destination: "B", EnergyEstimate: 10})
	if !errors.Is(err, model.ErrNoEligibleVehicle) {
		t.Fatalf("expected ErrNoEligibleVehicle, got %v", err)
	}
}

func TestScheduleFlightCustomThreshold(t *testing.T) {
	d, _, _ := setup(t, okVehicle("E1", 30))
	_, err := d.ScheduleFlight(context.Background(), ScheduleRequest{Origin: "A", Destination: "B", MinBattery: 50})
	if !errors.Is(err, model.ErrNoEligibleVehicle) {
		t.Fatalf("expected ErrNoEligibleVehicle at threshold 50, got %v", err)
	}
}

func TestScheduleFlightConfiguredDefaultThreshold(t *testing.T) {
	d, _, _ := setup(t, okVehicle("E1", 30))
	d.SetDefaultMinBattery(40)
	_, err := d.ScheduleFlight(context.Background(), ScheduleRequest{Origin: "A", Destination: "B"})
	if !errors.Is(err, model.ErrNoEligibleVehicle) {
		t.Fatalf("expected ErrNoEligibleVehicle at configured threshold 40, got %v", err)
	}

	// A request-level threshold still wins over the configured default.
	if _, err := d.ScheduleFlight(context.Background(), ScheduleRequest{Origin: "A", Destination: "B", MinBattery: 25}); err != nil {
		t.Fatalf("request threshold must override the default: %v", err)
	}
}

func TestLifecycleCompleteReleasesAndCounts(t *testing.T) {
	ctx := context.Background()
	d, reg, ms := setup(t, okVehicle("E1", 50))

	f, err := d.ScheduleFlight(ctx, ScheduleRequest{Origin: "A", Destination: "B", EnergyEstimate: 10})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	if err := d.StartFlight(ctx, f.FlightID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := d.CompleteFlight(ctx, f.FlightID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	v, _ := ms.Vehicle(ctx, "E1")
	if v.UsageCount != 1 {
		t.Fatalf("usage count must be 1 after completion, got %d", v.UsageCount)
	}
	ids, _ := reg.ListEligible(ctx, 20)
	if len(ids) != 1 || ids[0] != "E1" {
		t.Fatalf("E1 must be eligible again after completion, got %v", ids)
	}
	got, _ := ms.Flight(ctx, f.FlightID)
	if got.Status != model.FlightCompleted {
		t.Fatalf("flight status not persisted: %s", got.Status)
	}
}

func TestCancelDoesNotCount(t *testing.T) {
	ctx := context.Background()
	d, reg, ms := setup(t, okVehicle("E1", 50))

	f, _ := d.ScheduleFlight(ctx, ScheduleRequest{Origin: "A", Destination: "B"})
	if err := d.CancelFlight(ctx, f.FlightID); err != nil {
		t.Fatalf("cancel scheduled: %v", err)
	}
	v, _ := ms.Vehicle(ctx, "E1")
	if v.UsageCount != 0 {
		t.Fatalf("cancel must not change usage count, got %d", v.UsageCount)
	}
	ids, _ := reg.ListEligible(ctx, 20)
	if len(ids) != 1 {
		t.Fatalf("vehicle must be released after cancel, got %v", ids)
	}

	// Cancelling mid-air is also legal.
	f2, _ := d.ScheduleFlight(ctx, ScheduleRequest{Origin: "A", Destination: "B"})
	if err := d.StartFlight(ctx, f2.FlightID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := d.CancelFlight(ctx, f2.FlightID); err != nil {
		t.Fatalf("cancel in progress: %v", err)
	}
}

func TestIllegalTransitionsLeaveStateUnchanged(t *testing.T) {
	ctx := context.Background()
	d, _, ms := setup(t, okVehicle("E1", 50))
	f, _ := d.ScheduleFlight(ctx, ScheduleRequest{Origin: "A", Destination: "B"})

	// Scheduled -> Completed skips In Progress.
	err := d.CompleteFlight(ctx, f.FlightID)
	var it *model.InvalidTransitionError
	if !errors.As(err, &it) {
		t.Fatalf("expected InvalidTransitionError, got %v", err)
	}
	got, _ := ms.Flight(ctx, f.FlightID)
	if got.Status != model.FlightScheduled {
		t.Fatalf("state changed on failed transition: %s", got.Status)
	}

	if err := d.StartFlight(ctx, f.FlightID); err != nil {
		t.Fatalf("start: %v", err)
	}
	if err := d.CompleteFlight(ctx, f.FlightID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	// Terminal states admit nothing.
	if err := d.CancelFlight(ctx, f.FlightID); !errors.As(err, &it) {
		t.Fatalf("expected InvalidTransitionError from Completed, got %v", err)
	}
	if err := d.StartFlight(ctx, f.FlightID); !errors.As(err, &it) {
		t.Fatalf("expected InvalidTransitionError from Completed, got %v", err)
	}
}

func TestTransitionUnknownFlight(t *testing.T) {
	d, _, _ := setup(t)
	err := d.StartFlight(context.Background(), "FLnope")
	var nf *model.NotFoundError
	if !errors.As(err, &nf) || nf.ID != "FLnope" {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

// Two schedulers racing for the last eligible vehicle: one wins, the other
// gets ErrNoEligibleVehicle, and the vehicle is never double-booked.
func TestScheduleConcurrentLastVehicle(t *testing.T) {
	ctx := context.Background()
	d, _, _ := setup(t, okVehicle("E1", 50))

	var wg sync.WaitGroup
	results := make([]error, 2)
	flights := make([]model.Flight, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			flights[i], results[i] = d.ScheduleFlight(ctx, ScheduleRequest{Origin: "A", Destination: "B"})
		}(i)
	}
	wg.Wait()

	var wins, losses int
	for i, err := range results {
		switch {
		case err == nil:
			wins++
			if flights[i].VehicleID != "E1" {
				t.Fatalf("winner bound to %s", flights[i].VehicleID)
			}
		case errors.Is(err, model.ErrNoEligibleVehicle):
			losses++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if wins != 1 || losses != 1 {
		t.Fatalf("expected one winner and one loser, got %d/%d", wins, losses)
	}
}

// racingPool loses the first reservation attempt, as if a concurrent
// scheduler claimed the candidate between the snapshot and the reserve.
type racingPool struct {
	VehiclePool
	stolen bool
}

func (p *racingPool) Reserve(ctx context.Context, id, flightID string, minBattery float64) error {
	if !p.stolen {
		p.stolen = true
		return &model.AlreadyReservedError{ID: id}
	}
	return p.VehiclePool.Reserve(ctx, id, flightID, minBattery)
}

func TestScheduleRetriesNextCandidate(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	for _, v := range []model.EVTOL{okVehicle("E1", 50), okVehicle("E2", 60)} {
		if err := ms.InsertVehicle(ctx, v); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
	reg, err := fleet.New(ms, logger.NopLogger{})
	if err != nil {
		t.Fatalf("registry: %v", err)
	}
	d, err := New(&racingPool{VehiclePool: reg}, ms, nil, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}

	f, err := d.ScheduleFlight(ctx, ScheduleRequest{Origin: "A", Destination: "B"})
	if err != nil {
		t.Fatalf("schedule should recover a lost reservation: %v", err)
	}
	if f.VehicleID != "E2" {
		t.Fatalf("expected fallback to E2, got %s", f.VehicleID)
	}
}

func TestFlightEventsPublished(t *testing.T) {
	ctx := context.Background()
	ms := store.NewMemoryStore()
	if err := ms.InsertVehicle(ctx, okVehicle("E1", 50)); err != nil {
		t.Fatalf("insert: %v", err)
	}
	reg, _ := fleet.New(ms, logger.NopLogger{})
	bus := eventbus.New()
	sub := bus.Subscribe()
	d, err := New(reg, ms, bus, nil, logger.NopLogger{})
	if err != nil {
		t.Fatalf("dispatcher: %v", err)
	}

	f, err := d.ScheduleFlight(ctx, ScheduleRequest{Origin: "A", Destination: "B"})
	if err != nil {
		t.Fatalf("schedule: %v", err)
	}
	ev, ok := (<-sub).(metrics.FlightEvent)
	if !ok {
		t.Fatalf("unexpected event type %T", ev)
	}
	if ev.FlightID != f.FlightID || ev.VehicleID != "E1" || ev.Status != string(model.FlightScheduled) {
		t.Fatalf("unexpected event %#v", ev)
	}

	if err := d.StartFlight(ctx, f.FlightID); err != nil {
		t.Fatalf("start: %v", err)
	}
	ev = (<-sub).(metrics.FlightEvent)
	if ev.Status != string(model.FlightInProgress) {
		t.Fatalf("expected In Progress event, got %#v", ev)
	}
}
