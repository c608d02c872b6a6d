package model

import (
	"fmt"
	"time"
)

// MaintenanceStatus describes the service state of an eVTOL.
type MaintenanceStatus string

const (
	MaintenanceOK       MaintenanceStatus = "OK"
	MaintenanceWarning  MaintenanceStatus = "Warning"
	MaintenanceCritical MaintenanceStatus = "Critical"
)

// Valid reports whether the status is one of the known values.
func (s MaintenanceStatus) Valid() bool {
	switch s {
	case MaintenanceOK, MaintenanceWarning, MaintenanceCritical:
		return true
	}
	return false
}

// CanTransitionTo reports whether the maintenance state machine allows
// moving from s to next. Allowed: OK→Warning, OK→Critical, Warning→Critical
// and any state→OK after service.
func (s MaintenanceStatus) CanTransitionTo(next MaintenanceStatus) bool {
	if !s.Valid() || !next.Valid() {
		return false
	}
	if next == MaintenanceOK {
		return true
	}
	switch s {
	case MaintenanceOK:
		return next == MaintenanceWarning || next == MaintenanceCritical
	case MaintenanceWarning:
		return next == MaintenanceCritical
	}
	return false
}

// EVTOL represents an electric vertical takeoff and landing vehicle in the
// fleet. It is the dispatchable resource unit.
type EVTOL struct {
	ID              string
	BatteryLevel    float64 // percent of charge, always within [0,100]
	Maintenance     MaintenanceStatus
	UsageCount      int // completed flights
	LastMaintenance time.Time
	ModelType       string
	MaxRange        float64 // km
}

// Validate checks that the vehicle record is sound.
func (e EVTOL) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("vehicle id is required")
	}
	if e.BatteryLevel < 0 || e.BatteryLevel > 100 {
		return fmt.Errorf("battery level %.1f out of range [0,100]", e.BatteryLevel)
	}
	if !e.Maintenance.Valid() {
		return fmt.Errorf("unknown maintenance status %q", e.Maintenance)
	}
	if e.UsageCount < 0 {
		return fmt.Errorf("usage count must not be negative")
	}
	if e.MaxRange <= 0 {
		return fmt.Errorf("max range must be positive")
	}
	return nil
}

// Eligible reports whether the vehicle can accept a new flight given the
// caller's minimum battery threshold.
func (e EVTOL) Eligible(minBattery float64) bool {
	return e.Maintenance == MaintenanceOK && e.BatteryLevel >= minBattery
}
