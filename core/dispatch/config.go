package dispatch

import "fmt"

// Config holds the dispatch tuning knobs.
type Config struct {
	// MinBatteryLevel is the eligibility threshold in percent applied to
	// schedule requests that do not carry their own.
	MinBatteryLevel float64 `json:"min_battery_level"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.MinBatteryLevel == 0 {
		c.MinBatteryLevel = DefaultMinBattery
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if c.MinBatteryLevel < 0 || c.MinBatteryLevel > 100 {
		return fmt.Errorf("min_battery_level must be within [0,100]")
	}
	return nil
}
