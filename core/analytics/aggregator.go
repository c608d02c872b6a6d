// Package analytics produces read-only rollups over fleet, flight and
// telemetry data for the visualization layer.
package analytics

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/vertiops/evtol-ops/core/model"
	"github.com/vertiops/evtol-ops/core/storage"
)

// FleetMetrics summarizes the current fleet.
type FleetMetrics struct {
	Total               int     `json:"total"`
	Operational         int     `json:"operational"` // maintenance status OK
	CriticalMaintenance int     `json:"critical_maintenance"`
	AverageBattery      float64 `json:"average_battery"`
	LowBattery          int     `json:"low_battery"` // below 20 percent
}

// DailyEnergy is the average energy consumption of flights created on a day.
type DailyEnergy struct {
	Date   string  `json:"date"` // YYYY-MM-DD, UTC
	AvgKWh float64 `json:"avg_kwh"`
}

// RouteHourLoad is the average vehicle count seen on a route during one hour
// of day.
type RouteHourLoad struct {
	Route       string  `json:"route"`
	Hour        int     `json:"hour"` // 0-23, UTC
	AvgVehicles float64 `json:"avg_vehicles"`
}

// RouteCongestion counts readings of one congestion level on a route.
type RouteCongestion struct {
	Route string                `json:"route"`
	Level model.CongestionLevel `json:"level"`
	Count int                   `json:"count"`
}

// ModelMaintenance aggregates maintenance pressure per vehicle model type.
type ModelMaintenance struct {
	ModelType        string  `json:"model_type"`
	Vehicles         int     `json:"vehicles"`
	AvgUsage         float64 `json:"avg_usage"`
	NeedsMaintenance int     `json:"needs_maintenance"`
}

// Aggregator computes rollups from the durable store. It holds no state and
// never mutates anything.
type Aggregator struct {
	store storage.Store
}

// New creates an Aggregator over the given store.
func New(store storage.Store) (*Aggregator, error) {
	if store == nil {
		return nil, fmt.Errorf("analytics: nil store provided to New")
	}
	return &Aggregator{store: store}, nil
}

// FleetMetrics summarizes battery and maintenance state across the fleet.
func (a *Aggregator) FleetMetrics(ctx context.Context) (FleetMetrics, error) {
	vehicles, err := a.store.Vehicles(ctx)
	if err != nil {
		return FleetMetrics{}, err
	}
	m := FleetMetrics{Total: len(vehicles)}
	if len(vehicles) == 0 {
		return m, nil
	}
	var sum float64
	for _, v := range vehicles {
		sum += v.BatteryLevel
		if v.Maintenance == model.MaintenanceOK {
			m.Operational++
		}
		if v.Maintenance == model.MaintenanceCritical {
			m.CriticalMaintenance++
		}
		if v.BatteryLevel < 20 {
			m.LowBattery++
		}
	}
	m.AverageBattery = sum / float64(len(vehicles))
	return m, nil
}

// FlightStats counts flights created since the given time, grouped by status.
func (a *Aggregator) FlightStats(ctx context.Context, since time.Time) (map[model.FlightStatus]int, error) {
	flights, err := a.store.FlightsSince(ctx, since)
	if err != nil && len(flights) == 0 {
		return nil, err
	}
	out := map[model.FlightStatus]int{}
	for _, f := range flights {
		out[f.Status]++
	}
	return out, nil
}

// EnergyTrend averages flight energy estimates per creation day, oldest day
// first.
func (a *Aggregator) EnergyTrend(ctx context.Context, since time.Time) ([]DailyEnergy, error) {
	flights, err := a.store.FlightsSince(ctx, since)
	if err != nil && len(flights) == 0 {
		return nil, err
	}
	sums := map[string]float64{}
	counts := map[string]int{}
	for _, f := range flights {
		day := f.CreatedAt.UTC().Format("2006-01-02")
		sums[day] += f.EnergyConsumption
		counts[day]++
	}
	out := make([]DailyEnergy, 0, len(sums))
	for day, sum := range sums {
		out = append(out, DailyEnergy{Date: day, AvgKWh: sum / float64(counts[day])})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date < out[j].Date })
	return out, nil
}

// HourlyTraffic averages vehicle counts per route and hour of day over the
// window [since, now].
func (a *Aggregator) HourlyTraffic(ctx context.Context, since time.Time) ([]RouteHourLoad, error) {
	readings, err := a.store.TrafficWindow(ctx, since, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	type key struct {
		route string
		hour  int
	}
	sums := map[key]int{}
	counts := map[key]int{}
	for _, r := range readings {
		k := key{route: r.Route, hour: r.Timestamp.UTC().Hour()}
		sums[k] += r.VehicleCount
		counts[k]++
	}
	out := make([]RouteHourLoad, 0, len(sums))
	for k, sum := range sums {
		out = append(out, RouteHourLoad{
			Route:       k.route,
			Hour:        k.hour,
			AvgVehicles: float64(sum) / float64(counts[k]),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Route != out[j].Route {
			return out[i].Route < out[j].Route
		}
		return out[i].Hour < out[j].Hour
	})
	return out, nil
}

// CongestionByRoute counts congestion labels per route over the window.
func (a *Aggregator) CongestionByRoute(ctx context.Context, since time.Time) ([]RouteCongestion, error) {
	readings, err := a.store.TrafficWindow(ctx, since, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	type key struct {
		route string
		level model.CongestionLevel
	}
	counts := map[key]int{}
	for _, r := range readings {
		counts[key{route: r.Route, level: r.Congestion}]++
	}
	out := make([]RouteCongestion, 0, len(counts))
	for k, n := range counts {
		out = append(out, RouteCongestion{Route: k.route, Level: k.level, Count: n})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Route != out[j].Route {
			return out[i].Route < out[j].Route
		}
		return out[i].Level < out[j].Level
	})
	return out, nil
}

// RiskDistribution counts the historical risk labels of weather readings in
// the window [since, now].
func (a *Aggregator) RiskDistribution(ctx context.Context, since time.Time) (map[model.RiskLevel]int, error) {
	readings, err := a.store.WeatherWindow(ctx, since, time.Now().UTC())
	if err != nil {
		return nil, err
	}
	out := map[model.RiskLevel]int{}
	for _, r := range readings {
		out[r.RiskLevel]++
	}
	return out, nil
}

// MaintenanceByModel aggregates usage and outstanding maintenance per model
// type, ordered by model type.
func (a *Aggregator) MaintenanceByModel(ctx context.Context) ([]ModelMaintenance, error) {
	vehicles, err := a.store.Vehicles(ctx)
	if err != nil {
		return nil, err
	}
	byModel := map[string]*ModelMaintenance{}
	usage := map[string]int{}
	for _, v := range vehicles {
		m, ok := byModel[v.ModelType]
		if !ok {
			m = &ModelMaintenance{ModelType: v.ModelType}
			byModel[v.ModelType] = m
		}
		m.Vehicles++
		usage[v.ModelType] += v.UsageCount
		if v.Maintenance != model.MaintenanceOK {
			m.NeedsMaintenance++
		}
	}
	out := make([]ModelMaintenance, 0, len(byModel))
	for mt, m := range byModel {
		m.AvgUsage = float64(usage[mt]) / float64(m.Vehicles)
		out = append(out, *m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ModelType < out[j].ModelType })
	return out, nil
}
