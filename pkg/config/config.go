package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Wire formats accepted in Protocol.Format.
const (
	FormatCSV    = "csv"
	FormatBinary = "binary"
)

// Config represents the application configuration.
type Config struct {
	Serial   SerialConfig   `yaml:"serial"`
	Protocol ProtocolConfig `yaml:"protocol"`
	Buffer   BufferConfig   `yaml:"buffer"`
	Display  DisplayConfig  `yaml:"display"`
	Mock     MockConfig     `yaml:"mock"`
	API      APIConfig      `yaml:"api"`
	Log      LogConfig      `yaml:"log"`
}

// SerialConfig contains serial port settings applied when a port is opened.
type SerialConfig struct {
	Port        string        `yaml:"port"`         // Preferred port, pre-selected when present
	BaudRate    int           `yaml:"baud_rate"`    // Line speed
	DataBits    int           `yaml:"data_bits"`    // 5..8
	Parity      string        `yaml:"parity"`       // none, odd, even, mark, space (empty = none)
	StopBits    string        `yaml:"stop_bits"`    // 1, 1.5, 2
	ReadTimeout time.Duration `yaml:"read_timeout"` // Per-read timeout, keeps a tick from blocking
}

// ProtocolConfig selects and parameterizes the wire format.
type ProtocolConfig struct {
	Format      string  `yaml:"format"`       // csv or binary
	Delimiter   string  `yaml:"delimiter"`    // CSV frame terminator (single byte)
	ADCRange    int     `yaml:"adc_range"`    // Binary: exclusive upper bound of valid raw values
	MaxPhysical float64 `yaml:"max_physical"` // Binary: physical value of ADCRange-1
}

// BufferConfig sizes the sample history and the raw read window.
type BufferConfig struct {
	Samples    int `yaml:"samples"`
	ReadWindow int `yaml:"read_window"`
}

// DisplayConfig contains waveform display parameters.
type DisplayConfig struct {
	Refresh time.Duration `yaml:"refresh"` // Acquisition tick interval
	YMax    float64       `yaml:"y_max"`   // Fixed upper bound of the plot, 0 = format default
}

// MockConfig contains simulated device configuration.
type MockConfig struct {
	Frequency  float64       `yaml:"frequency"`   // Waveform frequency (Hz)
	Amplitude  float64       `yaml:"amplitude"`   // Peak amplitude (ADC counts)
	Offset     float64       `yaml:"offset"`      // DC offset (ADC counts)
	Noise      float64       `yaml:"noise"`       // Noise amplitude (ADC counts)
	SampleRate time.Duration `yaml:"sample_rate"` // Interval between generated samples
}

// APIConfig contains the status API configuration.
type APIConfig struct {
	Listen string `yaml:"listen"` // e.g. ":8080", empty disables the API
}

// LogConfig contains logging configuration.
type LogConfig struct {
	Debug bool `yaml:"debug"`
}

// Default returns a default configuration with sensible values.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Port:        "",
			BaudRate:    9600,
			DataBits:    8,
			StopBits:    "1",
			ReadTimeout: 10 * time.Millisecond,
		},
		Protocol: ProtocolConfig{
			Format:      FormatCSV,
			Delimiter:   ",",
			ADCRange:    1024,
			MaxPhysical: 5.0,
		},
		Buffer: BufferConfig{
			Samples:    128,
			ReadWindow: 128,
		},
		Display: DisplayConfig{
			Refresh: 16 * time.Millisecond, // ~60 FPS
		},
		Mock: MockConfig{
			Frequency:  1.0,
			Amplitude:  400,
			Offset:     512,
			Noise:      8,
			SampleRate: 10 * time.Millisecond,
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

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file %s: %w", filename, err)
	}

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

// Validate reports the first setting that cannot be used to open a port or
// decode its stream.
func (c *Config) Validate() error {
	switch strings.ToLower(c.Protocol.Format) {
	case FormatCSV, FormatBinary:
	default:
		return fmt.Errorf("protocol.format: unknown format %q", c.Protocol.Format)
	}
	if c.Serial.BaudRate <= 0 {
		return fmt.Errorf("serial.baud_rate: must be positive, got %d", c.Serial.BaudRate)
	}
	if c.Serial.DataBits < 5 || c.Serial.DataBits > 8 {
		return fmt.Errorf("serial.data_bits: must be 5..8, got %d", c.Serial.DataBits)
	}
	switch strings.ToLower(c.ParityName()) {
	case "none", "odd", "even", "mark", "space":
	default:
		return fmt.Errorf("serial.parity: unknown parity %q", c.Serial.Parity)
	}
	switch c.Serial.StopBits {
	case "1", "1.5", "2":
	default:
		return fmt.Errorf("serial.stop_bits: unknown stop bits %q", c.Serial.StopBits)
	}
	if len(c.Protocol.Delimiter) != 1 {
		return fmt.Errorf("protocol.delimiter: must be a single byte, got %q", c.Protocol.Delimiter)
	}
	if d := c.Protocol.Delimiter[0]; d == 0 || (d >= '0' && d <= '9') {
		return fmt.Errorf("protocol.delimiter: %q collides with digits or padding", c.Protocol.Delimiter)
	}
	if c.Protocol.ADCRange < 2 || c.Protocol.ADCRange > 65535 {
		return fmt.Errorf("protocol.adc_range: must be 2..65535, got %d", c.Protocol.ADCRange)
	}
	if c.Protocol.MaxPhysical <= 0 {
		return fmt.Errorf("protocol.max_physical: must be positive, got %g", c.Protocol.MaxPhysical)
	}
	if c.Buffer.Samples <= 0 {
		return fmt.Errorf("buffer.samples: must be positive, got %d", c.Buffer.Samples)
	}
	if c.Buffer.ReadWindow <= 0 {
		return fmt.Errorf("buffer.read_window: must be positive, got %d", c.Buffer.ReadWindow)
	}
	return nil
}

// ParityName returns the configured parity, or none when unset. The bundled
// firmware runs 8N1 in both wire formats; older binary samplers that run
// 8E1 need parity: even.
func (c *Config) ParityName() string {
	if c.Serial.Parity != "" {
		return c.Serial.Parity
	}
	return "none"
}

// PlotMax returns the upper bound of the waveform plot.
func (c *Config) PlotMax() float64 {
	if c.Display.YMax > 0 {
		return c.Display.YMax
	}
	if strings.EqualFold(c.Protocol.Format, FormatBinary) {
		return c.Protocol.MaxPhysical
	}
	return float64(c.Protocol.ADCRange - 1)
}

// ensureDefaults ensures that all required fields have default values if missing.
func (c *Config) ensureDefaults() {
	def := Default()

	if c.Serial.BaudRate == 0 {
		c.Serial.BaudRate = def.Serial.BaudRate
	}
	if c.Serial.DataBits == 0 {
		c.Serial.DataBits = def.Serial.DataBits
	}
	if c.Serial.StopBits == "" {
		c.Serial.StopBits = def.Serial.StopBits
	}
	if c.Serial.ReadTimeout == 0 {
		c.Serial.ReadTimeout = def.Serial.ReadTimeout
	}

	if c.Protocol.Format == "" {
		c.Protocol.Format = def.Protocol.Format
	}
	if c.Protocol.Delimiter == "" {
		c.Protocol.Delimiter = def.Protocol.Delimiter
	}
	if c.Protocol.ADCRange == 0 {
		c.Protocol.ADCRange = def.Protocol.ADCRange
	}
	if c.Protocol.MaxPhysical == 0 {
		c.Protocol.MaxPhysical = def.Protocol.MaxPhysical
	}

	if c.Buffer.Samples == 0 {
		c.Buffer.Samples = def.Buffer.Samples
	}
	if c.Buffer.ReadWindow == 0 {
		c.Buffer.ReadWindow = def.Buffer.ReadWindow
	}

	if c.Display.Refresh == 0 {
		c.Display.Refresh = def.Display.Refresh
	}

	if c.Mock.SampleRate == 0 {
		c.Mock.SampleRate = def.Mock.SampleRate
	}
	if c.Mock.Frequency == 0 {
		c.Mock.Frequency = def.Mock.Frequency
	}
}
