package model

import (
	"fmt"
	"time"
)

// Condition is a categorical weather condition label.
type Condition string

const (
	ConditionClear Condition = "Clear"
	ConditionRain  Condition = "Rain"
	ConditionSnow  Condition = "Snow"
	ConditionFog   Condition = "Fog"
	ConditionStorm Condition = "Storm"
)

// Valid reports whether the condition is one of the known values.
func (c Condition) Valid() bool {
	switch c {
	case ConditionClear, ConditionRain, ConditionSnow, ConditionFog, ConditionStorm:
		return true
	}
	return false
}

// RiskLevel is a categorical safety classification. It appears both as a
// historical label on weather readings and as the live scorer output.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Valid reports whether the level is one of the known values.
func (r RiskLevel) Valid() bool {
	return r == RiskLow || r == RiskMedium || r == RiskHigh
}

// CongestionLevel is a categorical traffic density label.
type CongestionLevel string

const (
	CongestionLow    CongestionLevel = "Low"
	CongestionMedium CongestionLevel = "Medium"
	CongestionHigh   CongestionLevel = "High"
)

// Valid reports whether the level is one of the known values.
func (c CongestionLevel) Valid() bool {
	return c == CongestionLow || c == CongestionMedium || c == CongestionHigh
}

// WeatherReading is one immutable weather telemetry sample. RiskLevel here
// is an input label used for historical analytics, not a scorer output.
type WeatherReading struct {
	ID          int64
	Time        time.Time
	Location    string
	Condition   Condition
	RiskLevel   RiskLevel
	Temperature float64 // °C
	WindSpeed   float64 // km/h, never negative
}

// Validate checks that the reading is sound before it is appended.
func (w WeatherReading) Validate() error {
	if w.Location == "" {
		return fmt.Errorf("location is required")
	}
	if !w.Condition.Valid() {
		return fmt.Errorf("unknown condition %q", w.Condition)
	}
	if !w.RiskLevel.Valid() {
		return fmt.Errorf("unknown risk level %q", w.RiskLevel)
	}
	if w.WindSpeed < 0 {
		return fmt.Errorf("wind speed must not be negative")
	}
	return nil
}

// TrafficReading is one immutable traffic telemetry sample for a route.
type TrafficReading struct {
	ID           int64
	Route        string
	Congestion   CongestionLevel
	Timestamp    time.Time
	VehicleCount int
	AverageSpeed float64 // km/h, never negative
}

// Validate checks that the reading is sound before it is appended.
func (t TrafficReading) Validate() error {
	if t.Route == "" {
		return fmt.Errorf("route is required")
	}
	if !t.Congestion.Valid() {
		return fmt.Errorf("unknown congestion level %q", t.Congestion)
	}
	if t.VehicleCount < 0 {
		return fmt.Errorf("vehicle count must not be negative")
	}
	if t.AverageSpeed < 0 {
		return fmt.Errorf("average speed must not be negative")
	}
	return nil
}
