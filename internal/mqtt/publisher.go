package mqtt

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/sony/gobreaker"

	"weather-dashboard/internal/station"
)

const (
	discoveryPrefix = "homeassistant"

	defaultConnectTimeout = 10 * time.Second
)

// client is the subset of mqtt.Client the publisher uses.
type client interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
	IsConnected() bool
	Disconnect(quiesce uint)
}

type Publisher struct {
	client      client
	breaker     *gobreaker.CircuitBreaker
	logger      *slog.Logger
	topicPrefix string
	stationID   string
	stationName string
	enabled     bool
}

type PublisherConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
	StationID   string
	StationName string
	Enabled     bool

	// ConnectTimeout bounds the initial connect; zero means 10s.
	ConnectTimeout time.Duration
}

func NewPublisher(cfg PublisherConfig, logger *slog.Logger) (*Publisher, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if !cfg.Enabled {
		return &Publisher{enabled: false, logger: logger}, nil
	}

	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	// The first connect must succeed or fail within timeout; only an
	// established session reconnects in the background.
	opts := mqtt.NewClientOptions().
		AddBroker(cfg.Broker).
		SetClientID(cfg.ClientID).
		SetConnectTimeout(timeout).
		SetAutoReconnect(true).
		SetConnectRetry(false).
		SetConnectionLostHandler(func(c mqtt.Client, err error) {
			logger.Warn("mqtt connection lost", "error", err)
		}).
		SetOnConnectHandler(func(c mqtt.Client) {
			logger.Info("mqtt connected", "broker", cfg.Broker)
		})

	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
		opts.SetPassword(cfg.Password)
	}

	c := mqtt.NewClient(opts)
	token := c.Connect()
	if !token.WaitTimeout(timeout) {
		c.Disconnect(0)
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: timed out after %s", cfg.Broker, timeout)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker %s: %w", cfg.Broker, err)
	}

	return newPublisher(c, cfg, logger), nil
}

func newPublisher(c client, cfg PublisherConfig, logger *slog.Logger) *Publisher {
	return &Publisher{
		client: c,
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "mqtt",
			MaxRequests: 1,
			Interval:    1 * time.Minute,
			Timeout:     30 * time.Second,
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("circuit breaker state changed", "breaker", name, "from", from.String(), "to", to.String())
			},
		}),
		logger:      logger,
		topicPrefix: cfg.TopicPrefix,
		stationID:   cfg.StationID,
		stationName: cfg.StationName,
		enabled:     true,
	}
}

func (p *Publisher) Name() string {
	return "mqtt"
}

// Topic returns the state topic for one field of the station.
func (p *Publisher) Topic(field string) string {
	return fmt.Sprintf("%s/%s/%s", p.topicPrefix, p.stationID, field)
}

type fieldValue struct {
	field string
	value string
}

func fieldValues(snap *station.Snapshot) []fieldValue {
	c := snap.Current
	return []fieldValue{
		{"temperature", strconv.Itoa(c.Temp)},
		{"feels_like", strconv.Itoa(c.FeelsLike)},
		{"humidity", strconv.Itoa(c.Humidity)},
		{"wind_speed", strconv.Itoa(c.WindSpeed)},
		{"uv_index", strconv.Itoa(c.UVIndex)},
		{"visibility", strconv.Itoa(c.Visibility)},
		{"pressure", strconv.Itoa(c.Pressure)},
		{"condition", string(c.Condition)},
		{"last_updated", snap.LastUpdated},
	}
}

// Record publishes every field of snap plus the retained JSON state.
// Once the broker has failed repeatedly the breaker opens and Record fails
// fast with gobreaker.ErrOpenState.
func (p *Publisher) Record(ctx context.Context, snap *station.Snapshot) error {
	if !p.enabled || snap == nil {
		return nil
	}

	_, err := p.breaker.Execute(func() (interface{}, error) {
		return nil, p.publishSnapshot(ctx, snap)
	})
	return err
}

func (p *Publisher) publishSnapshot(ctx context.Context, snap *station.Snapshot) error {
	for _, fv := range fieldValues(snap) {
		if err := p.publish(ctx, p.Topic(fv.field), false, fv.value); err != nil {
			return err
		}
	}

	stateJSON, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("failed to marshal state: %w", err)
	}
	return p.publish(ctx, p.Topic("state"), true, stateJSON)
}

func (p *Publisher) publish(ctx context.Context, topic string, retained bool, payload interface{}) error {
	token := p.client.Publish(topic, 0, retained, payload)
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish to %s: %w", topic, ctx.Err())
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", topic, err)
	}
	return nil
}

type discoverySensor struct {
	Name        string
	Field       string
	Unit        string
	DeviceClass string
}

var discoverySensors = []discoverySensor{
	{"Temperature", "temperature", "°C", "temperature"},
	{"Feels Like", "feels_like", "°C", "temperature"},
	{"Humidity", "humidity", "%", "humidity"},
	{"Wind Speed", "wind_speed", "km/h", "wind_speed"},
	{"UV Index", "uv_index", "", ""},
	{"Visibility", "visibility", "km", "distance"},
	{"Pressure", "pressure", "hPa", "atmospheric_pressure"},
}

// DiscoveryConfig is the Home Assistant MQTT discovery payload for one sensor.
type DiscoveryConfig struct {
	Topic   string
	Payload map[string]interface{}
}

func (p *Publisher) discoveryConfigs() []DiscoveryConfig {
	configs := make([]DiscoveryConfig, 0, len(discoverySensors))
	for _, sensor := range discoverySensors {
		payload := map[string]interface{}{
			"name":        fmt.Sprintf("%s %s", p.stationName, sensor.Name),
			"unique_id":   fmt.Sprintf("%s_%s", p.stationID, sensor.Field),
			"state_topic": p.Topic(sensor.Field),
			"device": map[string]interface{}{
				"identifiers":  []string{"weather_dashboard_" + p.stationID},
				"name":         p.stationName + " Weather",
				"manufacturer": "weather-dashboard",
				"model":        "Simulated station",
			},
		}
		if sensor.Unit != "" {
			payload["unit_of_measurement"] = sensor.Unit
		}
		if sensor.DeviceClass != "" {
			payload["device_class"] = sensor.DeviceClass
		}

		configs = append(configs, DiscoveryConfig{
			Topic:   fmt.Sprintf("%s/sensor/%s/%s/config", discoveryPrefix, p.stationID, sensor.Field),
			Payload: payload,
		})
	}
	return configs
}

// PublishHomeAssistantDiscovery announces the numeric sensors so Home
// Assistant creates entities for them.
func (p *Publisher) PublishHomeAssistantDiscovery(ctx context.Context) error {
	if !p.enabled {
		return nil
	}

	for _, cfg := range p.discoveryConfigs() {
		payload, err := json.Marshal(cfg.Payload)
		if err != nil {
			return fmt.Errorf("failed to marshal discovery config: %w", err)
		}
		if err := p.publish(ctx, cfg.Topic, true, payload); err != nil {
			return err
		}
	}

	p.logger.Info("published home assistant discovery", "sensors", len(discoverySensors))
	return nil
}

func (p *Publisher) IsConnected() bool {
	if !p.enabled {
		return false
	}
	return p.client.IsConnected()
}

func (p *Publisher) Close() {
	if p.enabled && p.client != nil {
		p.client.Disconnect(1000)
	}
}
