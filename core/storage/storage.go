// Package storage defines the persistence contracts of the operations core.
// Implementations decode rows into typed records exactly once, at this
// boundary.
package storage

import (
	"context"
	"time"

	"github.com/vertiops/evtol-ops/core/model"
)

// VehicleStore persists the eVTOL fleet.
type VehicleStore interface {
	InsertVehicle(ctx context.Context, v model.EVTOL) error
	Vehicle(ctx context.Context, id string) (model.EVTOL, error)
	// Vehicles returns the whole fleet ordered by id ascending.
	Vehicles(ctx context.Context) ([]model.EVTOL, error)
	// SetMaintenance updates the maintenance status and, when ts is
	// non-zero, the last-maintenance timestamp.
	SetMaintenance(ctx context.Context, id string, status model.MaintenanceStatus, ts time.Time) error
	// IncrementUsage adds one completed flight to the vehicle counter.
	IncrementUsage(ctx context.Context, id string) error
}

// FlightStore persists flight records. Flights are never deleted.
type FlightStore interface {
	InsertFlight(ctx context.Context, f model.Flight) error
	Flight(ctx context.Context, id string) (model.Flight, error)
	SetFlightStatus(ctx context.Context, id string, status model.FlightStatus) error
	// FlightsByStatus returns flights in the given status, newest first.
	FlightsByStatus(ctx context.Context, status model.FlightStatus) ([]model.Flight, error)
	// FlightsSince returns flights created in [since, now], newest first.
	FlightsSince(ctx context.Context, since time.Time) ([]model.Flight, error)
}

// WeatherStore is the append-only weather telemetry table.
type WeatherStore interface {
	AppendWeather(ctx context.Context, r model.WeatherReading) (int64, error)
	// WeatherWindow returns readings with Time in [from, to], newest first.
	WeatherWindow(ctx context.Context, from, to time.Time) ([]model.WeatherReading, error)
}

// TrafficStore is the append-only traffic telemetry table.
type TrafficStore interface {
	AppendTraffic(ctx context.Context, r model.TrafficReading) (int64, error)
	// TrafficWindow returns readings with Timestamp in [from, to], newest first.
	TrafficWindow(ctx context.Context, from, to time.Time) ([]model.TrafficReading, error)
}

// Store aggregates the four tables behind a single durable backend.
type Store interface {
	VehicleStore
	FlightStore
	WeatherStore
	TrafficStore
	Close() error
}
