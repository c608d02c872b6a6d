package config

// ModelConfig points at the exported safety model artifact bundle.
type ModelConfig struct {
	Path string `json:"path"`
}

// SetDefaults applies sane defaults.
func (c *ModelConfig) SetDefaults() {
	if c.Path == "" {
		c.Path = "models/safety_model.json"
	}
}
