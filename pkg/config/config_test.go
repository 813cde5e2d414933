package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	// Run from an empty directory so no stray wattgauge.yaml is found.
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(t.TempDir()))
	t.Cleanup(func() { _ = os.Chdir(wd) })

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyUSB0", cfg.Serial.Device)
	assert.Equal(t, 9600, cfg.Serial.Baud)
	assert.Equal(t, "tcp://127.0.0.1:1883", cfg.MQTT.Broker)
	assert.Equal(t, "wattgauge/power", cfg.MQTT.Topic)
	assert.Equal(t, time.Second, cfg.Poll.ReadInterval)
	assert.Equal(t, 30*time.Second, cfg.Poll.PublishInterval)
	assert.Equal(t, 5*time.Minute, cfg.Poll.MaxSilence)
}

func TestLoad_File(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wattgauge.yaml")
	body := `
serial:
  device: /dev/ttyAMA0
  baud: 300
mqtt:
  broker: tcp://broker.lan:1883
  username: meter
  password: hunter2
  topic: home/meter/power
poll:
  read_interval: 2s
  publish_interval: 15s
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/dev/ttyAMA0", cfg.Serial.Device)
	assert.Equal(t, 300, cfg.Serial.Baud)
	assert.Equal(t, "tcp://broker.lan:1883", cfg.MQTT.Broker)
	assert.Equal(t, "meter", cfg.MQTT.Username)
	assert.Equal(t, "home/meter/power", cfg.MQTT.Topic)
	assert.Equal(t, 2*time.Second, cfg.Poll.ReadInterval)
	assert.Equal(t, 15*time.Second, cfg.Poll.PublishInterval)
	// Unset keys still fall back to defaults.
	assert.Equal(t, "wattgauge", cfg.MQTT.ClientID)
	assert.Equal(t, 5*time.Minute, cfg.Poll.MaxSilence)
}

func TestLoad_MissingExplicitFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoad_RejectsBadCadence(t *testing.T) {
	path := filepath.Join(t.TempDir(), "wattgauge.yaml")
	body := `
poll:
  read_interval: 30s
  publish_interval: 1s
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "publish_interval")
}
