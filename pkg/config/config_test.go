package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	assert.NotNil(t, cfg)
	assert.Equal(t, "", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 300, cfg.Soil.WetMin)
	assert.Equal(t, 650, cfg.Soil.DryMax)
	assert.Equal(t, 500, cfg.Soil.DryThreshold)
	assert.Equal(t, 3*time.Second, cfg.Watering.Duration)
	assert.Equal(t, time.Minute, cfg.Watering.CheckInterval)
	assert.Equal(t, 15*time.Second, cfg.Watering.SettleDelay)
	assert.True(t, cfg.Watering.AutoEnabled)
	assert.Equal(t, "", cfg.Weather.APIKey)
	assert.Equal(t, "London,uk", cfg.Weather.City)
	assert.Equal(t, time.Hour, cfg.Weather.UpdateInterval)
	assert.Equal(t, "", cfg.MQTT.Broker)
	assert.Equal(t, "godrip", cfg.MQTT.ClientID)
	assert.Equal(t, ":5000", cfg.Web.Listen)
	assert.Equal(t, time.Second, cfg.Mock.SampleRate)
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, Default(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 9600

soil:
  wet_min: 280
  dry_max: 700
  dry_threshold: 480

watering:
  duration: 5s
  check_interval: 30s
  settle_delay: 10s
  auto_enabled: false

weather:
  api_key: "abc123"
  city: "Vilnius,lt"
  update_interval: 30m

mqtt:
  broker: "tcp://localhost:1883"
  client_id: "garden-1"
  topic_prefix: "garden"

web:
  listen: ":8080"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 280, cfg.Soil.WetMin)
	assert.Equal(t, 700, cfg.Soil.DryMax)
	assert.Equal(t, 480, cfg.Soil.DryThreshold)
	assert.Equal(t, 5*time.Second, cfg.Watering.Duration)
	assert.Equal(t, 30*time.Second, cfg.Watering.CheckInterval)
	assert.Equal(t, 10*time.Second, cfg.Watering.SettleDelay)
	assert.False(t, cfg.Watering.AutoEnabled)
	assert.Equal(t, "abc123", cfg.Weather.APIKey)
	assert.Equal(t, "Vilnius,lt", cfg.Weather.City)
	assert.Equal(t, 30*time.Minute, cfg.Weather.UpdateInterval)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, "garden-1", cfg.MQTT.ClientID)
	assert.Equal(t, "garden", cfg.MQTT.TopicPrefix)
	assert.Equal(t, ":8080", cfg.Web.Listen)
}

func TestLoad_InvalidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("invalid: yaml: content: [")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_PartialYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	// Should use defaults for missing fields
	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)     // default
	assert.Equal(t, 500, cfg.Soil.DryThreshold)    // default
	assert.True(t, cfg.Watering.AutoEnabled)       // default
	assert.Equal(t, "London,uk", cfg.Weather.City) // default
}

func TestLoad_ZeroValuesBackfilled(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  baud_rate: 0

soil:
  dry_threshold: 0
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)

	assert.Equal(t, 9600, cfg.Serial.BaudRate)
	assert.Equal(t, 500, cfg.Soil.DryThreshold)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Soil.DryThreshold = 480
	cfg.Weather.APIKey = "abc123"

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, 480, loaded.Soil.DryThreshold)
	assert.Equal(t, "abc123", loaded.Weather.APIKey)
}
