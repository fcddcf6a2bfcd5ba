package config

import (
	"bytes"
	"encoding"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/itohio/kbtelemetry/pkg/mathx"
	"github.com/itohio/kbtelemetry/pkg/sampler"
	"github.com/pelletier/go-toml"
	"gopkg.in/yaml.v3"
)

// Config represents the application configuration.
type Config struct {
	Serial   SerialConfig    `yaml:"serial" toml:"serial"`
	Sampler  SamplerConfig   `yaml:"sampler" toml:"sampler"`
	Channels []ChannelConfig `yaml:"channels" toml:"channels"`
	Display  DisplayConfig   `yaml:"display" toml:"display"`
	Record   RecordConfig    `yaml:"record" toml:"record"`
	Redis    RedisConfig     `yaml:"redis" toml:"redis"`
	Mock     MockConfig      `yaml:"mock" toml:"mock"`
}

// SerialConfig contains serial port configuration.
type SerialConfig struct {
	Port string `yaml:"port" toml:"port"`
	Baud int    `yaml:"baud" toml:"baud"`
}

// SamplerConfig mirrors the firmware sampler settings. The host uses it for
// the mock device.
type SamplerConfig struct {
	Interval Duration `yaml:"interval" toml:"interval"` // Minimum time between lines
	Alpha    float32  `yaml:"alpha" toml:"alpha"`       // Smoothing factor (0-1]
	Floor    uint16   `yaml:"floor" toml:"floor"`       // Rescaled values below snap to 0
	Ceiling  uint16   `yaml:"ceiling" toml:"ceiling"`   // Rescaled values above snap to 1023
}

// ChannelConfig names one analog channel.
type ChannelConfig struct {
	Name string `yaml:"name" toml:"name"`
}

// DisplayConfig contains scope display parameters.
type DisplayConfig struct {
	WindowSeconds  float64 `yaml:"window_seconds" toml:"window_seconds"`
	AverageSamples int     `yaml:"average_samples" toml:"average_samples"` // Number of frames to average (0 = disabled)
	MaxPoints      int     `yaml:"max_points" toml:"max_points"`
}

// RecordConfig controls the rotating CSV recorder. An empty Path disables it.
type RecordConfig struct {
	Path       string `yaml:"path" toml:"path"`
	MaxSizeMB  int    `yaml:"max_size_mb" toml:"max_size_mb"`
	MaxBackups int    `yaml:"max_backups" toml:"max_backups"`
	MaxAgeDays int    `yaml:"max_age_days" toml:"max_age_days"`
	Compress   bool   `yaml:"compress" toml:"compress"`
}

// RedisConfig controls publishing frames to Redis. An empty Addr disables it.
type RedisConfig struct {
	Addr    string `yaml:"addr" toml:"addr"`
	Channel string `yaml:"channel" toml:"channel"` // PUBLISH channel for raw lines
	Key     string `yaml:"key" toml:"key"`         // Hash holding the latest values
}

// MockConfig contains mock device configuration.
type MockConfig struct {
	Role   string   `yaml:"role" toml:"role"`     // "master" or "slave"
	Noise  float32  `yaml:"noise" toml:"noise"`   // Noise amplitude in raw ADC counts
	Period Duration `yaml:"period" toml:"period"` // Period of the simulated slider sweep
	Tick   Duration `yaml:"tick" toml:"tick"`     // Simulated main loop interval
}

// Mock roles.
const (
	RoleMaster = "master"
	RoleSlave  = "slave"
)

// Duration is a time.Duration that reads and writes as "100ms" in both YAML and TOML.
type Duration time.Duration

var (
	_ encoding.TextUnmarshaler = (*Duration)(nil)
	_ encoding.TextMarshaler   = Duration(0)
)

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(time.Duration(d).String()), nil
}

// Std returns d as a time.Duration.
func (d Duration) Std() time.Duration {
	return time.Duration(d)
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port: "/dev/ttyACM0", // COMx on Windows
			Baud: 115200,
		},
		Sampler: SamplerConfig{
			Interval: Duration(sampler.DefaultInterval * time.Millisecond),
			Alpha:    0.2,
			Floor:    sampler.DefaultFloor,
			Ceiling:  sampler.DefaultCeiling,
		},
		Channels: []ChannelConfig{
			{Name: "A0 (GP29)"},
			{Name: "A1 (GP28)"},
			{Name: "A2 (GP27)"},
			{Name: "A3 (GP26)"},
		},
		Display: DisplayConfig{
			WindowSeconds:  10,
			AverageSamples: 0,
			MaxPoints:      1000,
		},
		Record: RecordConfig{
			MaxSizeMB:  10,
			MaxBackups: 5,
			MaxAgeDays: 30,
		},
		Redis: RedisConfig{
			Channel: "kbtelemetry:lines",
			Key:     "kbtelemetry",
		},
		Mock: MockConfig{
			Role:   RoleMaster,
			Noise:  8,
			Period: Duration(5 * time.Second),
			Tick:   Duration(10 * time.Millisecond),
		},
	}
}

// Load loads configuration from a YAML or TOML file, chosen by extension.
// If the file doesn't exist or fields are missing, default values are used.
func Load(filename string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(filename)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	if isTOML(filename) {
		err = toml.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	} else {
		err = yaml.Unmarshal(data, cfg)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	cfg.ensureDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}

	return cfg, nil
}

// Save saves the configuration to a YAML or TOML file, chosen by extension.
func (c *Config) Save(filename string) error {
	var (
		data []byte
		err  error
	)
	if isTOML(filename) {
		data, err = toml.Marshal(*c)
	} else {
		data, err = yaml.Marshal(c)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate reports the first inconsistent setting.
func (c *Config) Validate() error {
	if len(c.Channels) != sampler.NumChannels {
		return fmt.Errorf("expected %d channels, got %d", sampler.NumChannels, len(c.Channels))
	}
	if c.Sampler.Interval.Std() < time.Millisecond {
		return fmt.Errorf("sampler interval %v below 1ms", c.Sampler.Interval.Std())
	}
	if c.Sampler.Alpha <= 0 || !mathx.Between(c.Sampler.Alpha, 0, 1) {
		return fmt.Errorf("sampler alpha %v outside (0, 1]", c.Sampler.Alpha)
	}
	if c.Sampler.Floor >= c.Sampler.Ceiling || !mathx.Between(c.Sampler.Ceiling, 0, sampler.FilteredMax) {
		return fmt.Errorf("sampler floor %d / ceiling %d invalid", c.Sampler.Floor, c.Sampler.Ceiling)
	}
	if c.Mock.Tick.Std() < time.Millisecond {
		return fmt.Errorf("mock tick %v below 1ms", c.Mock.Tick.Std())
	}
	if c.Mock.Period <= 0 {
		return fmt.Errorf("mock period must be positive")
	}
	if c.Mock.Role != RoleMaster && c.Mock.Role != RoleSlave {
		return fmt.Errorf("mock role %q must be %q or %q", c.Mock.Role, RoleMaster, RoleSlave)
	}
	return nil
}

// Sampler converts the sampler section to the sampler package config.
func (s SamplerConfig) Sampler() sampler.Config {
	return sampler.Config{
		Interval: uint32(s.Interval.Std().Milliseconds()),
		Alpha:    sampler.RatioFromFloat(s.Alpha),
		Floor:    s.Floor,
		Ceiling:  s.Ceiling,
	}
}

// ChannelNames returns the configured channel names.
func (c *Config) ChannelNames() [sampler.NumChannels]string {
	var names [sampler.NumChannels]string
	for i := range names {
		if i < len(c.Channels) {
			names[i] = c.Channels[i].Name
		}
	}
	return names
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.Port == "" {
		c.Serial.Port = def.Serial.Port
	}
	if c.Serial.Baud == 0 {
		c.Serial.Baud = def.Serial.Baud
	}

	if c.Sampler.Interval == 0 {
		c.Sampler.Interval = def.Sampler.Interval
	}
	if c.Sampler.Alpha == 0 {
		c.Sampler.Alpha = def.Sampler.Alpha
	}
	if c.Sampler.Floor == 0 && c.Sampler.Ceiling == 0 {
		c.Sampler.Floor = def.Sampler.Floor
		c.Sampler.Ceiling = def.Sampler.Ceiling
	}

	if len(c.Channels) == 0 {
		c.Channels = def.Channels
	}

	if c.Display.WindowSeconds == 0 {
		c.Display.WindowSeconds = def.Display.WindowSeconds
	}
	if c.Display.MaxPoints == 0 {
		c.Display.MaxPoints = def.Display.MaxPoints
	}

	if c.Record.MaxSizeMB == 0 {
		c.Record.MaxSizeMB = def.Record.MaxSizeMB
	}

	if c.Redis.Channel == "" {
		c.Redis.Channel = def.Redis.Channel
	}
	if c.Redis.Key == "" {
		c.Redis.Key = def.Redis.Key
	}

	if c.Mock.Role == "" {
		c.Mock.Role = def.Mock.Role
	}
	if c.Mock.Period == 0 {
		c.Mock.Period = def.Mock.Period
	}
	if c.Mock.Tick == 0 {
		c.Mock.Tick = def.Mock.Tick
	}
}

func isTOML(filename string) bool {
	return strings.EqualFold(filepath.Ext(filename), ".toml")
}
