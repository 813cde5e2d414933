// Package config loads the daemon configuration from a YAML file with
// environment-variable fallback.
package config

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

// Config is the full daemon configuration.
type Config struct {
	Serial SerialConfig `mapstructure:"serial"`
	MQTT   MQTTConfig   `mapstructure:"mqtt"`
	Poll   PollConfig   `mapstructure:"poll"`
}

// SerialConfig describes the optical head connection.
type SerialConfig struct {
	Device string `mapstructure:"device"`
	Baud   int    `mapstructure:"baud"`
}

// MQTTConfig describes the telemetry broker.
type MQTTConfig struct {
	Broker   string `mapstructure:"broker"`
	ClientID string `mapstructure:"client_id"`
	Username string `mapstructure:"username"`
	Password string `mapstructure:"password"`
	Topic    string `mapstructure:"topic"`
}

// PollConfig describes the sampling and reporting cadence. Reads
// should happen about once per second for useful averaging; reports
// every 15-30 s, and MaxSilence bounds how long we go without
// publishing anything at all.
type PollConfig struct {
	ReadInterval    time.Duration `mapstructure:"read_interval"`
	PublishInterval time.Duration `mapstructure:"publish_interval"`
	MaxSilence      time.Duration `mapstructure:"max_silence"`
}

// Load reads the configuration. With an empty path it looks for
// wattgauge.yaml in the working directory and /etc/wattgauge. Missing
// file is fine: defaults plus environment variables (WATTGAUGE_*)
// apply.
func Load(path string) (*Config, error) {
	v := viper.New()

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("wattgauge")
		v.SetConfigType("yaml")
		v.AddConfigPath(".")
		v.AddConfigPath("/etc/wattgauge")
	}

	v.SetDefault("serial.device", "/dev/ttyUSB0")
	v.SetDefault("serial.baud", 9600)
	v.SetDefault("mqtt.broker", "tcp://127.0.0.1:1883")
	v.SetDefault("mqtt.client_id", "wattgauge")
	v.SetDefault("mqtt.topic", "wattgauge/power")
	v.SetDefault("poll.read_interval", time.Second)
	v.SetDefault("poll.publish_interval", 30*time.Second)
	v.SetDefault("poll.max_silence", 5*time.Minute)

	v.SetEnvPrefix("WATTGAUGE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if path != "" || !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if cfg.Poll.ReadInterval <= 0 {
		return nil, fmt.Errorf("poll.read_interval must be > 0")
	}
	if cfg.Poll.PublishInterval < cfg.Poll.ReadInterval {
		return nil, fmt.Errorf("poll.publish_interval must be >= poll.read_interval")
	}
	return &cfg, nil
}
