package metrics

import (
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	coremetrics "github.com/vertiops/evtol-ops/core/metrics"
)

func TestPromSink_RecordFlightEvent(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	ev := coremetrics.FlightEvent{
		FlightID: "FL1", VehicleID: "E1", Status: "Scheduled", Time: time.Now(),
	}
	if err := sink.RecordFlightEvent(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	ev.Status = "Completed"
	if err := sink.RecordFlightEvent(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}

	expected := `
# HELP flight_events_total Total number of flight lifecycle transitions
# TYPE flight_events_total counter
flight_events_total{status="Completed"} 1
flight_events_total{status="Scheduled"} 1
`
	if err := testutil.CollectAndCompare(sink.flights, strings.NewReader(expected)); err != nil {
		t.Errorf("unexpected metrics: %v", err)
	}
}

func TestPromSink_RecordTelemetryAndScores(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink, err := NewPromSinkWithRegistry(reg)
	if err != nil {
		t.Fatalf("create sink: %v", err)
	}
	if err := sink.RecordTelemetry(coremetrics.TelemetryEvent{Stream: "weather"}); err != nil {
		t.Fatalf("telemetry error: %v", err)
	}
	if err := sink.RecordScore(coremetrics.ScoreEvent{Condition: "Storm", Level: "High"}); err != nil {
		t.Fatalf("score error: %v", err)
	}
	if c := testutil.CollectAndCount(sink.telemetry); c == 0 {
		t.Errorf("telemetry not recorded")
	}
	if c := testutil.CollectAndCount(sink.scores); c == 0 {
		t.Errorf("score not recorded")
	}

	if err := sink.RecordFleetSize(7); err != nil {
		t.Fatalf("fleet size error: %v", err)
	}
	expectedFleet := `
# HELP fleet_vehicles_total Number of vehicles registered in the fleet
# TYPE fleet_vehicles_total gauge
fleet_vehicles_total 7
`
	if err := testutil.CollectAndCompare(sink.fleet, strings.NewReader(expectedFleet)); err != nil {
		t.Errorf("unexpected fleet metric: %v", err)
	}
}

func TestPromSinkReRegister(t *testing.T) {
	reg := prometheus.NewRegistry()
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("first registration: %v", err)
	}
	if _, err := NewPromSinkWithRegistry(reg); err != nil {
		t.Fatalf("second registration must reuse collectors: %v", err)
	}
}
