// Package app wires the stores, core components and servers into a running
// service.
package app

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	apianalytics "github.com/vertiops/evtol-ops/api/analytics"
	apifleet "github.com/vertiops/evtol-ops/api/fleet"
	apiflights "github.com/vertiops/evtol-ops/api/flights"
	apirisk "github.com/vertiops/evtol-ops/api/risk"
	"github.com/vertiops/evtol-ops/config"
	"github.com/vertiops/evtol-ops/core/analytics"
	"github.com/vertiops/evtol-ops/core/dispatch"
	"github.com/vertiops/evtol-ops/core/fleet"
	coremetrics "github.com/vertiops/evtol-ops/core/metrics"
	"github.com/vertiops/evtol-ops/core/risk"
	"github.com/vertiops/evtol-ops/core/storage"
	"github.com/vertiops/evtol-ops/infra/artifacts"
	"github.com/vertiops/evtol-ops/infra/ingest"
	"github.com/vertiops/evtol-ops/infra/logger"
	"github.com/vertiops/evtol-ops/infra/metrics"
	"github.com/vertiops/evtol-ops/infra/store"
	"github.com/vertiops/evtol-ops/internal/eventbus"
)

// Service owns every long-lived component of the operations stack.
type Service struct {
	Store      storage.Store
	Registry   *fleet.Registry
	Dispatcher *dispatch.Dispatcher
	Aggregator *analytics.Aggregator
	Scorer     *risk.Scorer // nil while the model artifact is unavailable

	cfg  *config.Config
	bus  *eventbus.Bus
	sink *coremetrics.MultiSink
	sub  *ingest.Subscriber
	log  logger.Logger
}

// New creates a Service from the configuration. A missing or corrupt model
// artifact disables only the scorer.
func New(cfg *config.Config) (*Service, error) {
	logg := logger.New("service")

	var st storage.Store
	var err error
	switch cfg.Store.Backend {
	case "memory":
		st = store.NewMemoryStore()
	default:
		st, err = store.NewSQLiteStore(cfg.Store.Path)
		if err != nil {
			return nil, fmt.Errorf("open store: %w", err)
		}
	}

	var sinks []coremetrics.MetricsSink
	if cfg.Metrics.PrometheusEnabled {
		sink, err := metrics.NewPromSink()
		if err != nil {
			return nil, fmt.Errorf("prom sink: %w", err)
		}
		sinks = append(sinks, sink)
	}
	if cfg.Metrics.InfluxEnabled {
		sinks = append(sinks, metrics.NewInfluxSinkWithFallback(
			cfg.Metrics.InfluxURL, cfg.Metrics.InfluxToken, cfg.Metrics.InfluxOrg, cfg.Metrics.InfluxBucket))
	}
	sink := coremetrics.NewMultiSink(sinks...)

	bus := eventbus.New()
	registry, err := fleet.New(st, logger.New("fleet"))
	if err != nil {
		return nil, err
	}
	dispatcher, err := dispatch.New(registry, st, bus, sink, logger.New("dispatch"))
	if err != nil {
		return nil, err
	}
	dispatcher.SetDefaultMinBattery(cfg.Dispatch.MinBatteryLevel)
	aggregator, err := analytics.New(st)
	if err != nil {
		return nil, err
	}

	svc := &Service{
		Store:      st,
		Registry:   registry,
		Dispatcher: dispatcher,
		Aggregator: aggregator,
		cfg:        cfg,
		bus:        bus,
		sink:       sink,
		log:        logg,
	}

	if bundle, err := artifacts.Load(cfg.Model.Path); err != nil {
		logg.Warnf("safety model unavailable, scoring disabled: %v", err)
	} else {
		scorer, err := risk.NewScorer(bundle.Encoder, bundle.Scaler, bundle.Classifier)
		if err != nil {
			return nil, fmt.Errorf("scorer: %w", err)
		}
		svc.Scorer = scorer
	}

	if cfg.Ingest.Enabled {
		sub, err := ingest.NewSubscriber(cfg.Ingest, st, sink, logger.New("ingest"))
		if err != nil {
			return nil, fmt.Errorf("ingest: %w", err)
		}
		svc.sub = sub
	}
	return svc, nil
}

// Handler builds the HTTP API routing table.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/api/fleet", apifleet.NewSnapshotHandler(s.Registry))
	mux.Handle("/api/flights/active", apiflights.NewActiveHandler(s.Dispatcher))
	mux.Handle("/api/analytics/", apianalytics.NewHandler(s.Aggregator))
	var scorer apirisk.Scorer
	if s.Scorer != nil {
		scorer = s.Scorer
	}
	mux.Handle("/api/risk/score", apirisk.NewScoreHandler(scorer, s.sink))
	return mux
}

// Run starts the servers and the telemetry subscriber and blocks until the
// context is cancelled.
func (s *Service) Run(ctx context.Context) error {
	if vehicles, err := s.Store.Vehicles(ctx); err == nil {
		if err := s.sink.RecordFleetSize(len(vehicles)); err != nil {
			s.log.Warnf("record fleet size: %v", err)
		}
	}

	g, ctx := errgroup.WithContext(ctx)

	srv := &http.Server{Addr: s.cfg.API.Listen, Handler: s.Handler()}
	g.Go(func() error {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("api server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if s.cfg.Metrics.PrometheusEnabled {
		g.Go(func() error {
			return metrics.StartPromServer(ctx, ":"+s.cfg.Metrics.PrometheusPort)
		})
	}
	if s.sub != nil {
		if err := s.sub.Start(); err != nil {
			s.log.Errorf("telemetry ingest unavailable: %v", err)
		}
	}

	s.log.Infof("service listening on %s", s.cfg.API.Listen)
	return g.Wait()
}

// Close releases resources held by the service.
func (s *Service) Close() error {
	if s.sub != nil {
		s.sub.Close()
	}
	s.bus.Close()
	return s.Store.Close()
}
