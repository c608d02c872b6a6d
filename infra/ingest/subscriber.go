package ingest

import (
	"context"
	"encoding/json"
	"time"

	paho "github.com/eclipse/paho.mqtt.golang"

	"github.com/vertiops/evtol-ops/core/metrics"
	"github.com/vertiops/evtol-ops/core/model"
	"github.com/vertiops/evtol-ops/core/storage"
	"github.com/vertiops/evtol-ops/infra/logger"
)

type pahoClient interface {
	IsConnected() bool
	Connect() paho.Token
	Disconnect(quiesce uint)
	Subscribe(topic string, qos byte, callback paho.MessageHandler) paho.Token
}

var newMQTTClient = func(opts *paho.ClientOptions) pahoClient {
	return paho.NewClient(opts)
}

const writeTimeout = 5 * time.Second

// Subscriber consumes weather and traffic readings published on MQTT topics
// and persists them.
type Subscriber struct {
	cfg    Config
	store  storage.Store
	rec    metrics.TelemetryRecorder
	logger logger.Logger
	cli    pahoClient
}

// NewSubscriber builds a telemetry subscriber. It does not connect yet.
func NewSubscriber(cfg Config, store storage.Store, rec metrics.TelemetryRecorder, log logger.Logger) (*Subscriber, error) {
	cfg.SetDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rec == nil {
		rec = metrics.NopSink{}
	}
	if log == nil {
		log = logger.NopLogger{}
	}
	return &Subscriber{cfg: cfg, store: store, rec: rec, logger: log}, nil
}

// Start connects to the broker and subscribes to both telemetry topics.
func (s *Subscriber) Start() error {
	opts := paho.NewClientOptions().AddBroker(s.cfg.Broker).SetClientID(s.cfg.ClientID)
	opts.AutoReconnect = true
	if s.cfg.Username != "" {
		opts.SetUsername(s.cfg.Username)
	}
	if s.cfg.Password != "" {
		opts.SetPassword(s.cfg.Password)
	}
	if s.cfg.UseTLS {
		tlsCfg, err := s.cfg.LoadTLSConfig()
		if err != nil {
			return err
		}
		opts.SetTLSConfig(tlsCfg)
	}
	opts.OnConnect = func(c paho.Client) {
		s.logger.Infof("MQTT connected, subscribing to telemetry topics")
		if token := c.Subscribe(s.cfg.WeatherTopic, s.cfg.QoS, s.onWeather); token.Wait() && token.Error() != nil {
			s.logger.Errorf("subscribe %s: %v", s.cfg.WeatherTopic, token.Error())
		}
		if token := c.Subscribe(s.cfg.TrafficTopic, s.cfg.QoS, s.onTraffic); token.Wait() && token.Error() != nil {
			s.logger.Errorf("subscribe %s: %v", s.cfg.TrafficTopic, token.Error())
		}
	}
	opts.OnConnectionLost = func(_ paho.Client, err error) {
		s.logger.Errorf("connection lost: %v", err)
	}

	cli := newMQTTClient(opts)
	if token := cli.Connect(); token.Wait() && token.Error() != nil {
		return token.Error()
	}
	s.cli = cli
	return nil
}

func (s *Subscriber) onWeather(_ paho.Client, msg paho.Message) {
	var payload struct {
		Time        time.Time `json:"time"`
		Location    string    `json:"location"`
		Condition   string    `json:"condition"`
		RiskLevel   string    `json:"risk_level"`
		Temperature float64   `json:"temperature"`
		WindSpeed   float64   `json:"wind_speed"`
	}
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		s.logger.Errorf("decode weather reading: %v", err)
		return
	}
	r := model.WeatherReading{
		Time:        payload.Time,
		Location:    payload.Location,
		Condition:   model.Condition(payload.Condition),
		RiskLevel:   model.RiskLevel(payload.RiskLevel),
		Temperature: payload.Temperature,
		WindSpeed:   payload.WindSpeed,
	}
	if r.Time.IsZero() {
		r.Time = time.Now().UTC()
	}
	if err := r.Validate(); err != nil {
		s.logger.Errorf("invalid weather reading: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if _, err := s.store.AppendWeather(ctx, r); err != nil {
		s.logger.Errorf("append weather reading: %v", err)
		return
	}
	if err := s.rec.RecordTelemetry(metrics.TelemetryEvent{
		Stream: "weather", Label: string(r.Condition), Location: r.Location, Time: r.Time,
	}); err != nil {
		s.logger.Warnf("record weather event: %v", err)
	}
	s.logger.Debugf("weather reading stored for %s", r.Location)
}

func (s *Subscriber) onTraffic(_ paho.Client, msg paho.Message) {
	var payload struct {
		Route        string    `json:"route"`
		Congestion   string    `json:"congestion_level"`
		Timestamp    time.Time `json:"timestamp"`
		VehicleCount int       `json:"vehicle_count"`
		AverageSpeed float64   `json:"average_speed"`
	}
	if err := json.Unmarshal(msg.Payload(), &payload); err != nil {
		s.logger.Errorf("decode traffic reading: %v", err)
		return
	}
	r := model.TrafficReading{
		Route:        payload.Route,
		Congestion:   model.CongestionLevel(payload.Congestion),
		Timestamp:    payload.Timestamp,
		VehicleCount: payload.VehicleCount,
		AverageSpeed: payload.AverageSpeed,
	}
	if r.Timestamp.IsZero() {
		r.Timestamp = time.Now().UTC()
	}
	if err := r.Validate(); err != nil {
		s.logger.Errorf("invalid traffic reading: %v", err)
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
	defer cancel()
	if _, err := s.store.AppendTraffic(ctx, r); err != nil {
		s.logger.Errorf("append traffic reading: %v", err)
		return
	}
	if err := s.rec.RecordTelemetry(metrics.TelemetryEvent{
		Stream: "traffic", Label: string(r.Congestion), Location: r.Route, Time: r.Timestamp,
	}); err != nil {
		s.logger.Warnf("record traffic event: %v", err)
	}
	s.logger.Debugf("traffic reading stored for %s", r.Route)
}

// Close disconnects from the broker.
func (s *Subscriber) Close() {
	if s.cli != nil && s.cli.IsConnected() {
		s.cli.Disconnect(250)
	}
}
