package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/vertiops/evtol-ops/core/model"
)

// MemoryStore is an in-memory implementation of storage.Store. It backs
// tests and ephemeral runs where durability is not required.
type MemoryStore struct {
	mu       sync.RWMutex
	vehicles map[string]model.EVTOL
	flights  map[string]model.Flight
	weather  []model.WeatherReading
	traffic  []model.TrafficReading
	nextID   int64
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		vehicles: map[string]model.EVTOL{},
		flights:  map[string]model.Flight{},
	}
}

func (s *MemoryStore) InsertVehicle(_ context.Context, v model.EVTOL) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[v.ID] = v
	return nil
}

func (s *MemoryStore) Vehicle(_ context.Context, id string) (model.EVTOL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.vehicles[id]
	if !ok {
		return model.EVTOL{}, &model.NotFoundError{Kind: "vehicle", ID: id}
	}
	return v, nil
}

func (s *MemoryStore) Vehicles(_ context.Context) ([]model.EVTOL, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]model.EVTOL, 0, len(s.vehicles))
	for _, v := range s.vehicles {
		out = append(out, v)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *MemoryStore) SetMaintenance(_ context.Context, id string, status model.MaintenanceStatus, ts time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return &model.NotFoundError{Kind: "vehicle", ID: id}
	}
	v.Maintenance = status
	if !ts.IsZero() {
		v.LastMaintenance = ts
	}
	s.vehicles[id] = v
	return nil
}

func (s *MemoryStore) IncrementUsage(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.vehicles[id]
	if !ok {
		return &model.NotFoundError{Kind: "vehicle", ID: id}
	}
	v.UsageCount++
	s.vehicles[id] = v
	return nil
}

func (s *MemoryStore) InsertFlight(_ context.Context, f model.Flight) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flights[f.FlightID] = f
	return nil
}

func (s *MemoryStore) Flight(_ context.Context, id string) (model.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.flights[id]
	if !ok {
		return model.Flight{}, &model.NotFoundError{Kind: "flight", ID: id}
	}
	return f, nil
}

func (s *MemoryStore) SetFlightStatus(_ context.Context, id string, status model.FlightStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.flights[id]
	if !ok {
		return &model.NotFoundError{Kind: "flight", ID: id}
	}
	f.Status = status
	s.flights[id] = f
	return nil
}

func (s *MemoryStore) FlightsByStatus(_ context.Context, status model.FlightStatus) ([]model.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Flight
	for _, f := range s.flights {
		if f.Status == status {
			out = append(out, f)
		}
	}
	sortFlights(out)
	return out, nil
}

func (s *MemoryStore) FlightsSince(_ context.Context, since time.Time) ([]model.Flight, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.Flight
	for _, f := range s.flights {
		if !f.CreatedAt.Before(since) {
			out = append(out, f)
		}
	}
	sortFlights(out)
	return out, nil
}

func sortFlights(fs []model.Flight) {
	sort.Slice(fs, func(i, j int) bool {
		if fs[i].CreatedAt.Equal(fs[j].CreatedAt) {
			return fs[i].FlightID > fs[j].FlightID
		}
		return fs[i].CreatedAt.After(fs[j].CreatedAt)
	})
}

func (s *MemoryStore) AppendWeather(_ context.Context, r model.WeatherReading) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	s.weather = append(s.weather, r)
	return r.ID, nil
}

func (s *MemoryStore) WeatherWindow(_ context.Context, from, to time.Time) ([]model.WeatherReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.WeatherReading
	for _, r := range s.weather {
		if !r.Time.Before(from) && !r.Time.After(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.After(out[j].Time) })
	return out, nil
}

func (s *MemoryStore) AppendTraffic(_ context.Context, r model.TrafficReading) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	r.ID = s.nextID
	s.traffic = append(s.traffic, r)
	return r.ID, nil
}

func (s *MemoryStore) TrafficWindow(_ context.Context, from, to time.Time) ([]model.TrafficReading, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []model.TrafficReading
	for _, r := range s.traffic {
		if !r.Timestamp.Before(from) && !r.Timestamp.After(to) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Timestamp.After(out[j].Timestamp) })
	return out, nil
}

// Close implements storage.Store.
func (s *MemoryStore) Close() error { return nil }
