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
	assert.Equal(t, 8, cfg.Serial.DataBits)
	assert.Equal(t, "1", cfg.Serial.StopBits)
	assert.Equal(t, 10*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.Equal(t, FormatCSV, cfg.Protocol.Format)
	assert.Equal(t, ",", cfg.Protocol.Delimiter)
	assert.Equal(t, 1024, cfg.Protocol.ADCRange)
	assert.Equal(t, 5.0, cfg.Protocol.MaxPhysical)
	assert.Equal(t, 128, cfg.Buffer.Samples)
	assert.Equal(t, 128, cfg.Buffer.ReadWindow)
	assert.Equal(t, 16*time.Millisecond, cfg.Display.Refresh)
	assert.Empty(t, cfg.API.Listen)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_FileNotExists(t *testing.T) {
	cfg, err := Load("nonexistent.yaml")
	require.NoError(t, err)
	assert.NotNil(t, cfg)
	assert.Equal(t, 9600, cfg.Serial.BaudRate)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	yamlContent := `
serial:
  port: "/dev/ttyACM0"
  baud_rate: 115200
  parity: odd
  stop_bits: "2"
  read_timeout: 5ms

protocol:
  format: binary
  adc_range: 4096
  max_physical: 3.3

buffer:
  samples: 512
  read_window: 64

display:
  refresh: 33ms
  y_max: 4

api:
  listen: ":8080"

log:
  debug: true
`

	_, err = tmpfile.WriteString(yamlContent)
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.NotNil(t, cfg)

	assert.Equal(t, "/dev/ttyACM0", cfg.Serial.Port)
	assert.Equal(t, 115200, cfg.Serial.BaudRate)
	assert.Equal(t, "odd", cfg.ParityName())
	assert.Equal(t, "2", cfg.Serial.StopBits)
	assert.Equal(t, 5*time.Millisecond, cfg.Serial.ReadTimeout)
	assert.Equal(t, FormatBinary, cfg.Protocol.Format)
	assert.Equal(t, 4096, cfg.Protocol.ADCRange)
	assert.Equal(t, 3.3, cfg.Protocol.MaxPhysical)
	assert.Equal(t, 512, cfg.Buffer.Samples)
	assert.Equal(t, 64, cfg.Buffer.ReadWindow)
	assert.Equal(t, 33*time.Millisecond, cfg.Display.Refresh)
	assert.Equal(t, 4.0, cfg.PlotMax())
	assert.Equal(t, ":8080", cfg.API.Listen)
	assert.True(t, cfg.Log.Debug)
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

func TestLoad_InvalidValues(t *testing.T) {
	tmpfile, err := os.CreateTemp("", "test_config_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	_, err = tmpfile.WriteString("protocol:\n  format: morse\n")
	require.NoError(t, err)
	require.NoError(t, tmpfile.Close())

	cfg, err := Load(tmpfile.Name())
	assert.ErrorContains(t, err, "protocol.format")
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
	assert.Equal(t, 9600, cfg.Serial.BaudRate) // default
	assert.Equal(t, 128, cfg.Buffer.Samples)   // default
	assert.Equal(t, FormatCSV, cfg.Protocol.Format)
}

func TestSave(t *testing.T) {
	cfg := Default()
	cfg.Serial.Port = "/dev/ttyUSB0"
	cfg.Protocol.Format = FormatBinary

	tmpfile, err := os.CreateTemp("", "test_save_*.yaml")
	require.NoError(t, err)
	defer os.Remove(tmpfile.Name())

	err = cfg.Save(tmpfile.Name())
	require.NoError(t, err)

	// Load it back and verify
	loaded, err := Load(tmpfile.Name())
	require.NoError(t, err)
	assert.Equal(t, "/dev/ttyUSB0", loaded.Serial.Port)
	assert.Equal(t, FormatBinary, loaded.Protocol.Format)
}

func TestParityName(t *testing.T) {
	tests := []struct {
		name   string
		format string
		parity string
		want   string
	}{
		{"csv default", FormatCSV, "", "none"},
		{"binary default matches firmware", FormatBinary, "", "none"},
		{"explicit binary", FormatBinary, "even", "even"},
		{"explicit csv", FormatCSV, "odd", "odd"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			cfg.Protocol.Format = tt.format
			cfg.Serial.Parity = tt.parity
			assert.Equal(t, tt.want, cfg.ParityName())
		})
	}
}

func TestValidate_Limits(t *testing.T) {
	cfg := Default()
	cfg.Protocol.ADCRange = 65535
	assert.NoError(t, cfg.Validate())
	assert.NoError(t, Default().Validate())
}

func TestPlotMax(t *testing.T) {
	cfg := Default()
	assert.Equal(t, 1023.0, cfg.PlotMax())

	cfg.Protocol.Format = FormatBinary
	assert.Equal(t, 5.0, cfg.PlotMax())
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
		field  string
	}{
		{"baud", func(c *Config) { c.Serial.BaudRate = -1 }, "serial.baud_rate"},
		{"data bits", func(c *Config) { c.Serial.DataBits = 9 }, "serial.data_bits"},
		{"parity", func(c *Config) { c.Serial.Parity = "sometimes" }, "serial.parity"},
		{"stop bits", func(c *Config) { c.Serial.StopBits = "3" }, "serial.stop_bits"},
		{"long delimiter", func(c *Config) { c.Protocol.Delimiter = ",," }, "protocol.delimiter"},
		{"digit delimiter", func(c *Config) { c.Protocol.Delimiter = "7" }, "protocol.delimiter"},
		{"adc range", func(c *Config) { c.Protocol.ADCRange = 1 << 20 }, "protocol.adc_range"},
		{"adc range above 16 bits", func(c *Config) { c.Protocol.ADCRange = 65536 }, "protocol.adc_range"},
		{"negative max physical", func(c *Config) { c.Protocol.MaxPhysical = -5 }, "protocol.max_physical"},
		{"zero max physical", func(c *Config) { c.Protocol.MaxPhysical = 0 }, "protocol.max_physical"},
		{"samples", func(c *Config) { c.Buffer.Samples = -5 }, "buffer.samples"},
		{"window", func(c *Config) { c.Buffer.ReadWindow = -1 }, "buffer.read_window"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.modify(cfg)
			assert.ErrorContains(t, cfg.Validate(), tt.field)
		})
	}
}
