package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/godrip/godrip/pkg/wire"
)

// Config represents the daemon configuration.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Soil     SoilConfig     `yaml:"soil"`
	Watering WateringConfig `yaml:"watering"`
	Weather  WeatherConfig  `yaml:"weather"`
	MQTT     MQTTConfig     `yaml:"mqtt"`
	Web      WebConfig      `yaml:"web"`
	Mock     MockConfig     `yaml:"mock"`
}

// SerialConfig contains serial link configuration.
type SerialConfig struct {
	Port     string `yaml:"port"`      // empty selects the first Arduino-looking port
	BaudRate int    `yaml:"baud_rate"` // the firmware is fixed at 9600 8N1
}

// SoilConfig contains the moisture probe calibration. Raw counts rise as the
// soil dries.
type SoilConfig struct {
	WetMin       int `yaml:"wet_min"`       // raw count in saturated soil
	DryMax       int `yaml:"dry_max"`       // raw count in bone-dry soil
	DryThreshold int `yaml:"dry_threshold"` // counts above this mean "needs water"
}

// WateringConfig contains pump and auto-watering parameters.
type WateringConfig struct {
	Duration      time.Duration `yaml:"duration"`       // length of one pump pulse (fixed on the firmware side)
	CheckInterval time.Duration `yaml:"check_interval"` // how often the auto-watering policy runs
	SettleDelay   time.Duration `yaml:"settle_delay"`   // wait after startup before the policy may water
	AutoEnabled   bool          `yaml:"auto_enabled"`
}

// WeatherConfig contains the OpenWeatherMap client configuration. An empty
// API key disables weather lookups entirely.
type WeatherConfig struct {
	APIKey         string        `yaml:"api_key"`
	City           string        `yaml:"city"`
	UpdateInterval time.Duration `yaml:"update_interval"`
}

// MQTTConfig contains the optional telemetry publisher configuration. An
// empty broker URL disables publishing.
type MQTTConfig struct {
	Broker      string `yaml:"broker"` // e.g. tcp://localhost:1883
	ClientID    string `yaml:"client_id"`
	TopicPrefix string `yaml:"topic_prefix"`
}

// WebConfig contains the dashboard HTTP server configuration.
type WebConfig struct {
	Listen string `yaml:"listen"`
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	SampleRate    time.Duration `yaml:"sample_rate"`    // time between simulated reports
	StartMoisture int           `yaml:"start_moisture"` // initial raw count
	DryRate       float64       `yaml:"dry_rate"`       // counts gained per minute while idle
	WetRate       float64       `yaml:"wet_rate"`       // counts lost per second while watering
	NoiseLevel    float64       `yaml:"noise_level"`    // amplitude of the reading noise, in counts
	FaultRate     float64       `yaml:"fault_rate"`     // probability of a climate fault per sample
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:     "", // auto-discover
			BaudRate: wire.BaudRate,
		},
		Soil: SoilConfig{
			WetMin:       300,
			DryMax:       650,
			DryThreshold: 500,
		},
		Watering: WateringConfig{
			Duration:      3 * time.Second,
			CheckInterval: time.Minute,
			SettleDelay:   15 * time.Second,
			AutoEnabled:   true,
		},
		Weather: WeatherConfig{
			APIKey:         "",
			City:           "London,uk",
			UpdateInterval: time.Hour,
		},
		MQTT: MQTTConfig{
			Broker:      "",
			ClientID:    "godrip",
			TopicPrefix: "godrip",
		},
		Web: WebConfig{
			Listen: ":5000",
		},
		Mock: MockConfig{
			SampleRate:    time.Second,
			StartMoisture: 520,
			DryRate:       2.0,
			WetRate:       40.0,
			NoiseLevel:    3.0,
			FaultRate:     0,
		},
	}
}

// Load loads configuration from a YAML file. If the file doesn't exist or
// fields are missing, it uses default values.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	return cfg, nil
}

// Save saves the configuration to a YAML file.
func (c *Config) Save(filename string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// ensureDefaults backfills required fields that were set to zero values.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}

	if c.Soil.WetMin == 0 {
		c.Soil.WetMin = def.Soil.WetMin
	}
	if c.Soil.DryMax == 0 {
		c.Soil.DryMax = def.Soil.DryMax
	}
	if c.Soil.DryThreshold == 0 {
		c.Soil.DryThreshold = def.Soil.DryThreshold
	}

	if c.Watering.Duration == 0 {
		c.Watering.Duration = def.Watering.Duration
	}
	if c.Watering.CheckInterval == 0 {
		c.Watering.CheckInterval = def.Watering.CheckInterval
	}
	if c.Watering.SettleDelay == 0 {
		c.Watering.SettleDelay = def.Watering.SettleDelay
	}

	if c.Weather.City == "" {
		c.Weather.City = def.Weather.City
	}
	if c.Weather.UpdateInterval == 0 {
		c.Weather.UpdateInterval = def.Weather.UpdateInterval
	}

	if c.MQTT.ClientID == "" {
		c.MQTT.ClientID = def.MQTT.ClientID
	}
	if c.MQTT.TopicPrefix == "" {
		c.MQTT.TopicPrefix = def.MQTT.TopicPrefix
	}

	if c.Web.Listen == "" {
		c.Web.Listen = def.Web.Listen
	}

	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.StartMoisture == 0 {
		c.Mock.StartMoisture = def.Mock.StartMoisture
	}
	if c.Mock.DryRate == 0 {
		c.Mock.DryRate = def.Mock.DryRate
	}
	if c.Mock.WetRate == 0 {
		c.Mock.WetRate = def.Mock.WetRate
	}
}
