package config

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const envPrefix = "WEATHER_DASHBOARD"

type Config struct {
	Station  StationConfig  `mapstructure:"station"`
	API      APIConfig      `mapstructure:"api"`
	Database DatabaseConfig `mapstructure:"database"`
	MQTT     MQTTConfig     `mapstructure:"mqtt"`
	Modbus   ModbusConfig   `mapstructure:"modbus"`
	Log      LogConfig      `mapstructure:"log"`
}

type StationConfig struct {
	ID        string  `mapstructure:"id" validate:"required"`
	City      string  `mapstructure:"city" validate:"required"`
	LocalName string  `mapstructure:"local_name"`
	Latitude  float64 `mapstructure:"latitude" validate:"gte=-90,lte=90"`
	Longitude float64 `mapstructure:"longitude" validate:"gte=-180,lte=180"`
	// Timezone is an IANA name; empty means look it up from the coordinates.
	Timezone string `mapstructure:"timezone"`
}

type APIConfig struct {
	Enabled bool `mapstructure:"enabled"`
	Port    int  `mapstructure:"port" validate:"min=1,max=65535"`
}

type DatabaseConfig struct {
	Enabled       bool          `mapstructure:"enabled"`
	URL           string        `mapstructure:"url" validate:"required_if=Enabled true"`
	Retention     time.Duration `mapstructure:"retention" validate:"gt=0"`
	PruneInterval time.Duration `mapstructure:"prune_interval" validate:"gt=0"`
}

type MQTTConfig struct {
	Enabled     bool          `mapstructure:"enabled"`
	Broker      string        `mapstructure:"broker" validate:"required_if=Enabled true"`
	TopicPrefix string        `mapstructure:"topic_prefix" validate:"required_if=Enabled true"`
	ClientID    string        `mapstructure:"client_id" validate:"required_if=Enabled true"`
	Username    string        `mapstructure:"username"`
	Password    string        `mapstructure:"password"`
	Timeout     time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type ModbusConfig struct {
	Enabled bool          `mapstructure:"enabled"`
	Listen  string        `mapstructure:"listen" validate:"required_if=Enabled true"`
	UnitID  uint8         `mapstructure:"unit_id"`
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0"`
}

type LogConfig struct {
	Level  string `mapstructure:"level" validate:"oneof=debug info warn warning error"`
	Format string `mapstructure:"format" validate:"oneof=text json"`
}

var validate = validator.New()

// Load reads .env, then the YAML config file, then WEATHER_DASHBOARD_*
// environment overrides, and validates the result.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	v := viper.New()
	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/weather-dashboard")
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var configFileNotFoundError viper.ConfigFileNotFoundError
		if !errors.As(err, &configFileNotFoundError) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("station.id", "hong-kong")
	v.SetDefault("station.city", "Hong Kong")
	v.SetDefault("station.local_name", "香港")
	v.SetDefault("station.latitude", 22.3193)
	v.SetDefault("station.longitude", 114.1694)
	v.SetDefault("station.timezone", "")
	v.SetDefault("api.enabled", true)
	v.SetDefault("api.port", 8080)
	v.SetDefault("database.enabled", false)
	v.SetDefault("database.url", "sqlite://weather-dashboard.db")
	v.SetDefault("database.retention", "24h")
	v.SetDefault("database.prune_interval", "1h")
	v.SetDefault("mqtt.enabled", false)
	v.SetDefault("mqtt.broker", "tcp://localhost:1883")
	v.SetDefault("mqtt.topic_prefix", "weather")
	v.SetDefault("mqtt.client_id", "weather-dashboard")
	v.SetDefault("mqtt.username", "")
	v.SetDefault("mqtt.password", "")
	v.SetDefault("mqtt.timeout", "10s")
	v.SetDefault("modbus.enabled", false)
	v.SetDefault("modbus.listen", "0.0.0.0:5502")
	v.SetDefault("modbus.unit_id", 1)
	v.SetDefault("modbus.timeout", "10s")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// Validate checks struct constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

// NewLogger creates a slog.Logger writing to stdout based on the configuration.
func (c *Config) NewLogger() *slog.Logger {
	return c.newLogger(os.Stdout)
}

func (c *Config) newLogger(w io.Writer) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(c.Log.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	switch strings.ToLower(c.Log.Format) {
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}
