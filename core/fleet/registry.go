// Package fleet holds the eVTOL registry: availability queries, the
// reservation flag and the maintenance state machine.
package fleet

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/vertiops/evtol-ops/core/model"
	"github.com/vertiops/evtol-ops/core/storage"
	"github.com/vertiops/evtol-ops/infra/logger"
)

// VehicleStatus pairs a fleet record with its live reservation state. It is
// the read-only snapshot consumed by the visualization layer.
type VehicleStatus struct {
	model.EVTOL
	ReservedBy string `json:"reserved_by,omitempty"` // flight id holding the reservation
}

// Registry tracks the fleet and serializes reservation and maintenance
// mutations per vehicle id. A global lock guards only the entry map;
// conflicting operations on distinct vehicles do not block each other.
type Registry struct {
	store storage.VehicleStore
	log   logger.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

type entry struct {
	mu         sync.Mutex
	reservedBy string // flight id, empty when free
}

// New creates a Registry backed by the given vehicle store.
func New(store storage.VehicleStore, log logger.Logger) (*Registry, error) {
	if store == nil {
		return nil, fmt.Errorf("fleet: nil store provided to New")
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Registry{store: store, log: log, entries: map[string]*entry{}}, nil
}

func (r *Registry) entryFor(id string) *entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.entries[id]
	if !ok {
		e = &entry{}
		r.entries[id] = e
	}
	return e
}

// Onboard registers a new vehicle in the fleet.
func (r *Registry) Onboard(ctx context.Context, v model.EVTOL) error {
	if err := v.Validate(); err != nil {
		return fmt.Errorf("onboard %s: %w", v.ID, err)
	}
	if err := r.store.InsertVehicle(ctx, v); err != nil {
		return err
	}
	r.log.Infof("onboarded vehicle %s (%s)", v.ID, v.ModelType)
	return nil
}

// ListEligible returns ids of vehicles with maintenance status OK, battery
// at or above minBattery and no outstanding reservation, ordered by id
// ascending. The result is a snapshot and may be stale by the time Reserve
// is attempted.
func (r *Registry) ListEligible(ctx context.Context, minBattery float64) ([]string, error) {
	vehicles, err := r.store.Vehicles(ctx)
	if err != nil {
		return nil, err
	}
	var ids []string
	for _, v := range vehicles {
		if !v.Eligible(minBattery) {
			continue
		}
		e := r.entryFor(v.ID)
		e.mu.Lock()
		free := e.reservedBy == ""
		e.mu.Unlock()
		if free {
			ids = append(ids, v.ID)
		}
	}
	return ids, nil
}

// Reserve atomically claims the vehicle for the given flight. It fails with
// AlreadyReservedError when another flight holds the reservation and with
// NotEligibleError when the vehicle no longer meets the criteria, which can
// happen when a maintenance downgrade races the eligibility snapshot.
func (r *Registry) Reserve(ctx context.Context, id, flightID string, minBattery float64) error {
	e := r.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.reservedBy != "" {
		return &model.AlreadyReservedError{ID: id}
	}
	v, err := r.store.Vehicle(ctx, id)
	if err != nil {
		return err
	}
	if !v.Eligible(minBattery) {
		return &model.NotEligibleError{ID: id}
	}
	e.reservedBy = flightID
	r.log.Debugw("vehicle reserved", map[string]any{"vehicle_id": id, "flight_id": flightID})
	return nil
}

// Release clears the reservation. A Completed outcome increments the usage
// counter by exactly one; Cancelled leaves it untouched.
func (r *Registry) Release(ctx context.Context, id string, outcome model.FlightStatus) error {
	e := r.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	e.reservedBy = ""
	if outcome == model.FlightCompleted {
		if err := r.store.IncrementUsage(ctx, id); err != nil {
			return err
		}
	}
	r.log.Debugw("vehicle released", map[string]any{"vehicle_id": id, "outcome": string(outcome)})
	return nil
}

// CompleteMaintenance resets the vehicle to OK and refreshes the
// last-maintenance timestamp.
func (r *Registry) CompleteMaintenance(ctx context.Context, id string) error {
	e := r.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	if _, err := r.store.Vehicle(ctx, id); err != nil {
		return err
	}
	if err := r.store.SetMaintenance(ctx, id, model.MaintenanceOK, time.Now().UTC()); err != nil {
		return err
	}
	r.log.Infof("maintenance completed for vehicle %s", id)
	return nil
}

// DegradeMaintenance applies an administrative downgrade reported by
// external monitoring. Only OK→Warning, OK→Critical and Warning→Critical
// are allowed; recovery goes through CompleteMaintenance.
func (r *Registry) DegradeMaintenance(ctx context.Context, id string, status model.MaintenanceStatus) error {
	e := r.entryFor(id)
	e.mu.Lock()
	defer e.mu.Unlock()

	v, err := r.store.Vehicle(ctx, id)
	if err != nil {
		return err
	}
	if status == model.MaintenanceOK || !v.Maintenance.CanTransitionTo(status) {
		return &model.InvalidTransitionError{
			Kind: "vehicle", ID: id,
			From: string(v.Maintenance), To: string(status),
		}
	}
	if err := r.store.SetMaintenance(ctx, id, status, time.Time{}); err != nil {
		return err
	}
	r.log.Warnf("vehicle %s degraded to %s", id, status)
	return nil
}

// Snapshot returns the whole fleet with live reservation state, ordered by
// id ascending.
func (r *Registry) Snapshot(ctx context.Context) ([]VehicleStatus, error) {
	vehicles, err := r.store.Vehicles(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]VehicleStatus, 0, len(vehicles))
	for _, v := range vehicles {
		e := r.entryFor(v.ID)
		e.mu.Lock()
		by := e.reservedBy
		e.mu.Unlock()
		out = append(out, VehicleStatus{EVTOL: v, ReservedBy: by})
	}
	return out, nil
}
