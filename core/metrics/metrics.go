// Package metrics defines the observability contracts of the operations
// core. Concrete sinks live under infra/metrics.
package metrics

import "time"

// FlightEvent records one flight lifecycle transition.
type FlightEvent struct {
	FlightID    string
	VehicleID   string
	Origin      string
	Destination string
	Status      string // lifecycle state after the transition
	EnergyKWh   float64
	Time        time.Time
}

// TelemetryEvent records one appended telemetry reading.
type TelemetryEvent struct {
	Stream   string // "weather" or "traffic"
	Label    string // condition or congestion level
	Location string // location or route tag
	Time     time.Time
}

// ScoreEvent records one risk assessment served by the scorer.
type ScoreEvent struct {
	Condition string
	Level     string
	Time      time.Time
}

// MetricsSink records flight lifecycle events for observability purposes.
type MetricsSink interface {
	RecordFlightEvent(ev FlightEvent) error
}

// TelemetryRecorder records telemetry ingest events.
type TelemetryRecorder interface {
	RecordTelemetry(ev TelemetryEvent) error
}

// ScoreRecorder records risk scorer outputs.
type ScoreRecorder interface {
	RecordScore(ev ScoreEvent) error
}

// FleetSizeRecorder records the current fleet size.
type FleetSizeRecorder interface {
	RecordFleetSize(size int) error
}

// NopSink discards all events.
type NopSink struct{}

func (NopSink) RecordFlightEvent(FlightEvent) error { return nil }
func (NopSink) RecordTelemetry(TelemetryEvent) error { return nil }
func (NopSink) RecordScore(ScoreEvent) error         { return nil }
func (NopSink) RecordFleetSize(int) error            { return nil }
