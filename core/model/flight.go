package model

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// FlightStatus describes where a flight is in its lifecycle. Values match
// the persisted schema.
type FlightStatus string

const (
	FlightScheduled  FlightStatus = "Scheduled"
	FlightInProgress FlightStatus = "In Progress"
	FlightCompleted  FlightStatus = "Completed"
	FlightCancelled  FlightStatus = "Cancelled"
)

// Valid reports whether the status is one of the known values.
func (s FlightStatus) Valid() bool {
	switch s {
	case FlightScheduled, FlightInProgress, FlightCompleted, FlightCancelled:
		return true
	}
	return false
}

// Terminal reports whether the status admits no further transitions.
func (s FlightStatus) Terminal() bool {
	return s == FlightCompleted || s == FlightCancelled
}

// CanTransitionTo reports whether the flight state machine allows moving
// from s to next. The only legal edges are Scheduled→In Progress,
// In Progress→Completed and the Cancelled escape from either non-terminal
// state.
func (s FlightStatus) CanTransitionTo(next FlightStatus) bool {
	switch s {
	case FlightScheduled:
		return next == FlightInProgress || next == FlightCancelled
	case FlightInProgress:
		return next == FlightCompleted || next == FlightCancelled
	}
	return false
}

// Flight is a dispatched trip bound to one reserved eVTOL. Flights are a
// historical record: they are never deleted, only moved through the state
// machine.
type Flight struct {
	FlightID          string
	Origin            string
	Destination       string
	Path              FlightPath // optional, may be nil
	EnergyConsumption float64    // kWh estimate
	Status            FlightStatus
	CreatedAt         time.Time
	VehicleID         string // non-owning reference to the reserved eVTOL
}

// Validate checks that the flight record is sound.
func (f Flight) Validate() error {
	if f.FlightID == "" {
		return fmt.Errorf("flight id is required")
	}
	if f.Origin == "" || f.Destination == "" {
		return fmt.Errorf("origin and destination are required")
	}
	if !f.Status.Valid() {
		return fmt.Errorf("unknown flight status %q", f.Status)
	}
	return nil
}

// NewFlightID generates a unique flight identifier. The timestamp prefix
// keeps ids sortable by creation time; the uuid suffix avoids collisions
// between flights scheduled within the same second.
func NewFlightID(now time.Time) string {
	return fmt.Sprintf("FL%s-%s", now.UTC().Format("20060102150405"), uuid.NewString()[:8])
}
