package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vertiops/evtol-ops/core/model"
	"github.com/vertiops/evtol-ops/infra/store"
)

func seed(t *testing.T) (*Aggregator, *store.MemoryStore) {
	t.Helper()
	ctx := context.Background()
	ms := store.NewMemoryStore()

	vehicles := []model.EVTOL{
		{ID: "E1", BatteryLevel: 80, Maintenance: model.MaintenanceOK, UsageCount: 10, ModelType: "Model-A", MaxRange: 150},
		{ID: "E2", BatteryLevel: 15, Maintenance: model.MaintenanceOK, UsageCount: 30, ModelType: "Model-A", MaxRange: 150},
		{ID: "E3", BatteryLevel: 60, Maintenance: model.MaintenanceCritical, UsageCount: 50, ModelType: "Model-B", MaxRange: 200},
	}
	for _, v := range vehicles {
		require.NoError(t, ms.InsertVehicle(ctx, v))
	}

	base := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	flights := []model.Flight{
		{FlightID: "FL1", Origin: "A", Destination: "B", EnergyConsumption: 100, Status: model.FlightCompleted, CreatedAt: base},
		{FlightID: "FL2", Origin: "A", Destination: "B", EnergyConsumption: 50, Status: model.FlightCancelled, CreatedAt: base.Add(time.Hour)},
		{FlightID: "FL3", Origin: "A", Destination: "B", EnergyConsumption: 60, Status: model.FlightCompleted, CreatedAt: base.Add(25 * time.Hour)},
	}
	for _, f := range flights {
		require.NoError(t, ms.InsertFlight(ctx, f))
	}

	for i, r := range []model.TrafficReading{
		{Route: "Route1", Congestion: model.CongestionHigh, Timestamp: base, VehicleCount: 10, AverageSpeed: 60},
		{Route: "Route1", Congestion: model.CongestionHigh, Timestamp: base.Add(10 * time.Minute), VehicleCount: 20, AverageSpeed: 50},
		{Route: "Route2", Congestion: model.CongestionLow, Timestamp: base.Add(time.Hour), VehicleCount: 4, AverageSpeed: 110},
	} {
		_, err := ms.AppendTraffic(ctx, r)
		require.NoError(t, err, "reading %d", i)
	}

	for _, r := range []model.WeatherReading{
		{Time: base, Location: "Zone-A", Condition: model.ConditionStorm, RiskLevel: model.RiskHigh, Temperature: 5, WindSpeed: 70},
		{Time: base.Add(time.Hour), Location: "Zone-A", Condition: model.ConditionClear, RiskLevel: model.RiskLow, Temperature: 20, WindSpeed: 5},
		{Time: base.Add(2 * time.Hour), Location: "Zone-B", Condition: model.ConditionRain, RiskLevel: model.RiskLow, Temperature: 12, WindSpeed: 25},
	} {
		_, err := ms.AppendWeather(ctx, r)
		require.NoError(t, err)
	}

	agg, err := New(ms)
	require.NoError(t, err)
	return agg, ms
}

func TestFleetMetrics(t *testing.T) {
	agg, _ := seed(t)
	m, err := agg.FleetMetrics(context.Background())
	require.NoError(t, err)
	require.Equal(t, 3, m.Total)
	require.Equal(t, 2, m.Operational)
	require.Equal(t, 1, m.CriticalMaintenance)
	require.Equal(t, 1, m.LowBattery)
	require.InDelta(t, (80.0+15.0+60.0)/3.0, m.AverageBattery, 1e-9)
}

func TestFleetMetricsEmpty(t *testing.T) {
	agg, err := New(store.NewMemoryStore())
	require.NoError(t, err)
	m, err := agg.FleetMetrics(context.Background())
	require.NoError(t, err)
	require.Equal(t, FleetMetrics{}, m)
}

func TestFlightStats(t *testing.T) {
	agg, _ := seed(t)
	stats, err := agg.FlightStats(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 2, stats[model.FlightCompleted])
	require.Equal(t, 1, stats[model.FlightCancelled])

	// Window excludes the first day.
	stats, err = agg.FlightStats(context.Background(), time.Date(2024, 6, 2, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 1, stats[model.FlightCompleted])
	require.Zero(t, stats[model.FlightCancelled])
}

func TestEnergyTrend(t *testing.T) {
	agg, _ := seed(t)
	trend, err := agg.EnergyTrend(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, trend, 2)
	require.Equal(t, "2024-06-01", trend[0].Date)
	require.InDelta(t, 75.0, trend[0].AvgKWh, 1e-9)
	require.Equal(t, "2024-06-02", trend[1].Date)
	require.InDelta(t, 60.0, trend[1].AvgKWh, 1e-9)
}

func TestHourlyTraffic(t *testing.T) {
	agg, _ := seed(t)
	load, err := agg.HourlyTraffic(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, load, 2)
	require.Equal(t, "Route1", load[0].Route)
	require.Equal(t, 9, load[0].Hour)
	require.InDelta(t, 15.0, load[0].AvgVehicles, 1e-9)
	require.Equal(t, "Route2", load[1].Route)
	require.Equal(t, 10, load[1].Hour)
}

func TestCongestionByRoute(t *testing.T) {
	agg, _ := seed(t)
	rc, err := agg.CongestionByRoute(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Len(t, rc, 2)
	require.Equal(t, RouteCongestion{Route: "Route1", Level: model.CongestionHigh, Count: 2}, rc[0])
	require.Equal(t, RouteCongestion{Route: "Route2", Level: model.CongestionLow, Count: 1}, rc[1])
}

func TestRiskDistribution(t *testing.T) {
	agg, _ := seed(t)
	dist, err := agg.RiskDistribution(context.Background(), time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	require.Equal(t, 2, dist[model.RiskLow])
	require.Equal(t, 1, dist[model.RiskHigh])
}

func TestMaintenanceByModel(t *testing.T) {
	agg, _ := seed(t)
	mm, err := agg.MaintenanceByModel(context.Background())
	require.NoError(t, err)
	require.Len(t, mm, 2)
	require.Equal(t, "Model-A", mm[0].ModelType)
	require.Equal(t, 2, mm[0].Vehicles)
	require.InDelta(t, 20.0, mm[0].AvgUsage, 1e-9)
	require.Zero(t, mm[0].NeedsMaintenance)
	require.Equal(t, "Model-B", mm[1].ModelType)
	require.Equal(t, 1, mm[1].NeedsMaintenance)
}
