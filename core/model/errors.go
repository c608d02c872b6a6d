package model

import (
	"errors"
	"fmt"
)

// ErrNoEligibleVehicle is returned when no vehicle meets the maintenance and
// battery criteria for a new flight.
var ErrNoEligibleVehicle = errors.New("no eligible vehicle")

// NotFoundError reports an unknown vehicle or flight id.
type NotFoundError struct {
	Kind string // "vehicle" or "flight"
	ID   string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %s not found", e.Kind, e.ID)
}

// InvalidTransitionError reports an illegal state change request.
type InvalidTransitionError struct {
	Kind string
	ID   string
	From string
	To   string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("%s %s: illegal transition %s -> %s", e.Kind, e.ID, e.From, e.To)
}

// AlreadyReservedError reports a reservation attempt on a vehicle that is
// already claimed by another flight.
type AlreadyReservedError struct {
	ID string
}

func (e *AlreadyReservedError) Error() string {
	return fmt.Sprintf("vehicle %s already reserved", e.ID)
}

// NotEligibleError reports a reservation attempt on a vehicle that no longer
// meets the eligibility criteria, typically after a concurrent maintenance
// downgrade.
type NotEligibleError struct {
	ID string
}

func (e *NotEligibleError) Error() string {
	return fmt.Sprintf("vehicle %s not eligible", e.ID)
}
