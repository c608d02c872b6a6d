// Package metrics provides the concrete observability sinks of the service.
package metrics

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	coremetrics "github.com/vertiops/evtol-ops/core/metrics"
)

// PromSink records flight, telemetry and scoring events in Prometheus metrics.
type PromSink struct {
	flights   *prometheus.CounterVec
	telemetry *prometheus.CounterVec
	scores    *prometheus.CounterVec
	fleet     prometheus.Gauge
}

// NewPromSink registers the metrics on the default Prometheus registerer.
// The Prometheus server should be started separately using cfg.PrometheusPort.
func NewPromSink() (*PromSink, error) {
	return NewPromSinkWithRegistry(prometheus.DefaultRegisterer)
}

// NewPromSinkWithRegistry registers metrics on the provided registerer.
// A nil registerer defaults to the global Prometheus registerer.
func NewPromSinkWithRegistry(reg prometheus.Registerer) (*PromSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	flights := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "flight_events_total",
		Help: "Total number of flight lifecycle transitions",
	}, []string{"status"})
	telemetry := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "telemetry_readings_total",
		Help: "Total number of telemetry readings ingested",
	}, []string{"stream"})
	scores := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "risk_assessments_total",
		Help: "Total number of risk assessments served",
	}, []string{"level"})
	fleet := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "fleet_vehicles_total",
		Help: "Number of vehicles registered in the fleet",
	})

	if err := reg.Register(flights); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			flights = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(telemetry); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			telemetry = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(scores); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			scores = are.ExistingCollector.(*prometheus.CounterVec)
		} else {
			return nil, err
		}
	}
	if err := reg.Register(fleet); err != nil {
		if are, ok := err.(prometheus.AlreadyRegisteredError); ok {
			fleet = are.ExistingCollector.(prometheus.Gauge)
		} else {
			return nil, err
		}
	}

	return &PromSink{flights: flights, telemetry: telemetry, scores: scores, fleet: fleet}, nil
}

// RecordFlightEvent increments the transition counter for the flight status.
func (s *PromSink) RecordFlightEvent(ev coremetrics.FlightEvent) error {
	s.flights.WithLabelValues(ev.Status).Inc()
	return nil
}

// RecordTelemetry increments the ingest counter for the stream.
func (s *PromSink) RecordTelemetry(ev coremetrics.TelemetryEvent) error {
	s.telemetry.WithLabelValues(ev.Stream).Inc()
	return nil
}

// RecordScore increments the assessment counter for the risk level.
func (s *PromSink) RecordScore(ev coremetrics.ScoreEvent) error {
	s.scores.WithLabelValues(ev.Level).Inc()
	return nil
}

// RecordFleetSize sets the gauge to the number of registered vehicles.
func (s *PromSink) RecordFleetSize(size int) error {
	if s.fleet != nil {
		s.fleet.Set(float64(size))
	}
	return nil
}

// StartPromServer starts an HTTP server exposing Prometheus metrics on the
// given address. The server runs until the provided context is canceled.
// A dedicated ServeMux is used to avoid interfering with other handlers.
func StartPromServer(ctx context.Context, addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}
