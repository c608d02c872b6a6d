// Package dispatch matches flight requests to eligible eVTOLs and drives the
// flight lifecycle state machine.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/vertiops/evtol-ops/core/metrics"
	"github.com/vertiops/evtol-ops/core/model"
	"github.com/vertiops/evtol-ops/core/storage"
	"github.com/vertiops/evtol-ops/infra/logger"
	"github.com/vertiops/evtol-ops/internal/eventbus"
)

// DefaultMinBattery is the battery threshold applied when a schedule request
// does not specify one.
const DefaultMinBattery = 20.0

// VehiclePool is the slice of the fleet registry the dispatcher needs.
type VehiclePool interface {
	ListEligible(ctx context.Context, minBattery float64) ([]string, error)
	Reserve(ctx context.Context, id, flightID string, minBattery float64) error
	Release(ctx context.Context, id string, outcome model.FlightStatus) error
}

// ScheduleRequest describes an incoming flight request.
type ScheduleRequest struct {
	Origin         string
	Destination    string
	EnergyEstimate float64          // kWh
	Path           model.FlightPath // optional planned route
	MinBattery     float64          // percent; zero means DefaultMinBattery
}

// Dispatcher creates flights against reserved vehicles and mediates every
// status transition. Transitions are exclusive per flight id and independent
// across flights.
type Dispatcher struct {
	pool    VehiclePool
	flights storage.FlightStore
	bus     eventbus.EventBus
	sink    metrics.MetricsSink
	log     logger.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex

	minBattery float64
	now        func() time.Time
}

// New creates a Dispatcher. The event bus and metrics sink are optional.
func New(pool VehiclePool, flights storage.FlightStore, bus eventbus.EventBus, sink metrics.MetricsSink, log logger.Logger) (*Dispatcher, error) {
	if pool == nil || flights == nil {
		return nil, fmt.Errorf("dispatch: nil parameter provided to New")
	}
	if sink == nil {
		sink = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Dispatcher{
		pool:       pool,
		flights:    flights,
		bus:        bus,
		sink:       sink,
		log:        log,
		locks:      map[string]*sync.Mutex{},
		minBattery: DefaultMinBattery,
		now:        time.Now,
	}, nil
}

// SetDefaultMinBattery overrides the fallback eligibility threshold used when
// a schedule request does not carry one.
func (d *Dispatcher) SetDefaultMinBattery(v float64) {
	if v > 0 {
		d.minBattery = v
	}
}

// ScheduleFlight reserves an eligible vehicle and creates a flight in state
// Scheduled. Candidates are tried in ascending id order; a reservation lost
// to a concurrent scheduler or to a maintenance downgrade moves on to the
// next candidate. When no candidate can be claimed the request fails with
// ErrNoEligibleVehicle.
func (d *Dispatcher) ScheduleFlight(ctx context.Context, req ScheduleRequest) (model.Flight, error) {
	if req.Origin == "" || req.Destination == "" {
		return model.Flight{}, fmt.Errorf("schedule: origin and destination are required")
	}
	minBattery := req.MinBattery
	if minBattery <= 0 {
		minBattery = d.minBattery
	}

	candidates, err := d.pool.ListEligible(ctx, minBattery)
	if err != nil {
		return model.Flight{}, fmt.Errorf("schedule: list eligible: %w", err)
	}

	now := d.now().UTC()
	flightID := model.NewFlightID(now)
	for _, id := range candidates {
		err := d.pool.Reserve(ctx, id, flightID, minBattery)
		if err != nil {
			var reserved *model.AlreadyReservedError
			var ineligible *model.NotEligibleError
			if errors.As(err, &reserved) || errors.As(err, &ineligible) {
				// Snapshot went stale, try the next candidate.
				d.log.Debugw("reservation lost, retrying", map[string]any{"vehicle_id": id, "flight_id": flightID})
				continue
			}
			return model.Flight{}, fmt.Errorf("schedule: reserve %s: %w", id, err)
		}

		f := model.Flight{
			FlightID:          flightID,
			Origin:            req.Origin,
			Destination:       req.Destination,
			Path:              req.Path,
			EnergyConsumption: req.EnergyEstimate,
			Status:            model.FlightScheduled,
			CreatedAt:         now,
			VehicleID:         id,
		}
		if err := d.flights.InsertFlight(ctx, f); err != nil {
			// The reservation must not leak when persistence fails.
			if rerr := d.pool.Release(ctx, id, model.FlightCancelled); rerr != nil {
				d.log.Errorf("release after failed insert: %v", rerr)
			}
			return model.Flight{}, fmt.Errorf("schedule: insert flight: %w", err)
		}
		d.log.Infof("flight %s scheduled on %s (%s -> %s)", flightID, id, req.Origin, req.Destination)
		d.emit(f)
		return f, nil
	}
	return model.Flight{}, model.ErrNoEligibleVehicle
}

// StartFlight moves a Scheduled flight to In Progress.
func (d *Dispatcher) StartFlight(ctx context.Context, flightID string) error {
	return d.transition(ctx, flightID, model.FlightInProgress)
}

// CompleteFlight moves an In Progress flight to Completed and releases its
// vehicle, incrementing the usage counter.
func (d *Dispatcher) CompleteFlight(ctx context.Context, flightID string) error {
	return d.transition(ctx, flightID, model.FlightCompleted)
}

// CancelFlight moves a Scheduled or In Progress flight to Cancelled and
// releases its vehicle without touching the usage counter. Operator aborts
// are expressed through this transition, not as asynchronous interrupts.
func (d *Dispatcher) CancelFlight(ctx context.Context, flightID string) error {
	return d.transition(ctx, flightID, model.FlightCancelled)
}

// ActiveFlights returns flights currently in the air, newest first.
func (d *Dispatcher) ActiveFlights(ctx context.Context) ([]model.Flight, error) {
	return d.flights.FlightsByStatus(ctx, model.FlightInProgress)
}

func (d *Dispatcher) lockFor(flightID string) *sync.Mutex {
	d.mu.Lock()
	defer d.mu.Unlock()
	l, ok := d.locks[flightID]
	if !ok {
		l = &sync.Mutex{}
		d.locks[flightID] = l
	}
	return l
}

func (d *Dispatcher) transition(ctx context.Context, flightID string, to model.FlightStatus) error {
	l := d.lockFor(flightID)
	l.Lock()
	defer l.Unlock()

	f, err := d.flights.Flight(ctx, flightID)
	if err != nil {
		return err
	}
	if !f.Status.CanTransitionTo(to) {
		return &model.InvalidTransitionError{
			Kind: "flight", ID: flightID,
			From: string(f.Status), To: string(to),
		}
	}
	if err := d.flights.SetFlightStatus(ctx, flightID, to); err != nil {
		return fmt.Errorf("flight %s: set status: %w", flightID, err)
	}
	f.Status = to

	if to.Terminal() {
		if err := d.pool.Release(ctx, f.VehicleID, to); err != nil {
			return fmt.Errorf("flight %s: release %s: %w", flightID, f.VehicleID, err)
		}
	}
	d.log.Infof("flight %s -> %s", flightID, to)
	d.emit(f)
	return nil
}

// emit publishes the transition on the bus and records it on the sink.
func (d *Dispatcher) emit(f model.Flight) {
	ev := metrics.FlightEvent{
		FlightID:    f.FlightID,
		VehicleID:   f.VehicleID,
		Origin:      f.Origin,
		Destination: f.Destination,
		Status:      string(f.Status),
		EnergyKWh:   f.EnergyConsumption,
		Time:        d.now().UTC(),
	}
	if d.bus != nil {
		d.bus.Publish(ev)
	}
	if err := d.sink.RecordFlightEvent(ev); err != nil {
		d.log.Errorf("metrics error: %v", err)
	}
}
