package config

// APIConfig defines the HTTP API listener.
type APIConfig struct {
	Listen string `json:"listen"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
}
