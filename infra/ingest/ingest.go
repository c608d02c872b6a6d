// Package ingest subscribes to telemetry topics on an MQTT broker and
// appends decoded weather and traffic readings to the durable store.
package ingest

import (
	"crypto/tls"
	"crypto/x509"
	"fmt"
	"os"
)

// Config defines the connection parameters for the telemetry subscriber.
type Config struct {
	Enabled      bool   `json:"enabled"`
	Broker       string `json:"broker"`
	ClientID     string `json:"client_id"`
	Username     string `json:"username"`
	Password     string `json:"password"`
	WeatherTopic string `json:"weather_topic"`
	TrafficTopic string `json:"traffic_topic"`
	QoS          byte   `json:"qos"`
	UseTLS       bool   `json:"use_tls"`
	ClientCert   string `json:"client_cert"`
	ClientKey    string `json:"client_key"`
	CABundle     string `json:"ca_bundle"`
}

// SetDefaults applies sane defaults.
func (c *Config) SetDefaults() {
	if c.ClientID == "" {
		c.ClientID = "evtol-ingest"
	}
	if c.WeatherTopic == "" {
		c.WeatherTopic = "telemetry/weather"
	}
	if c.TrafficTopic == "" {
		c.TrafficTopic = "telemetry/traffic"
	}
}

// Validate checks mandatory fields.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if c.Broker == "" {
		return fmt.Errorf("broker is required when ingest is enabled")
	}
	return nil
}

// LoadTLSConfig loads the TLS configuration from the file paths in the config.
func (c Config) LoadTLSConfig() (*tls.Config, error) {
	if c.ClientCert == "" || c.ClientKey == "" || c.CABundle == "" {
		return nil, fmt.Errorf("tls config requires client_cert, client_key and ca_bundle")
	}
	cert, err := tls.LoadX509KeyPair(c.ClientCert, c.ClientKey)
	if err != nil {
		return nil, fmt.Errorf("load cert: %w", err)
	}
	caBytes, err := os.ReadFile(c.CABundle)
	if err != nil {
		return nil, fmt.Errorf("read ca: %w", err)
	}
	pool := x509.NewCertPool()
	pool.AppendCertsFromPEM(caBytes)
	return &tls.Config{Certificates: []tls.Certificate{cert}, RootCAs: pool, MinVersion: tls.VersionTLS12}, nil
}
