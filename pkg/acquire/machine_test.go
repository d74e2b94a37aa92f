package acquire

import (
	"testing"
	"time"

	"github.com/itohio/goscope/pkg/config"
	"github.com/itohio/goscope/pkg/decoder"
	"github.com/itohio/goscope/pkg/transport"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMachine(t *testing.T, tr *fakeTransport, opts Options) (*Machine, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	m := New(tr, opts)
	m.now = clock.now
	return m, clock
}

func TestNew_Enumerates(t *testing.T) {
	tr := newFakeTransport("COM1", "COM3")
	m, _ := newTestMachine(t, tr, Options{PreferredPort: "com3"})

	assert.Equal(t, SelectingPort, m.State())
	ports, err := m.Ports()
	require.NoError(t, err)
	assert.Len(t, ports, 2)
	assert.Equal(t, 1, m.Selected(), "preferred port is pre-selected")
	assert.NoError(t, m.LastError())
}

func TestNew_EnumerationError(t *testing.T) {
	tr := newFakeTransport()
	tr.portsErr = errBusy
	m, _ := newTestMachine(t, tr, Options{})

	assert.Equal(t, SelectingPort, m.State())
	_, err := m.Ports()
	assert.ErrorIs(t, err, errBusy)

	assert.ErrorIs(t, m.Open(), ErrNoDevice)
	assert.Empty(t, tr.opened)
}

func TestOpen_NoPorts(t *testing.T) {
	tr := newFakeTransport()
	m, _ := newTestMachine(t, tr, Options{})

	v := m.View(nil)
	assert.True(t, v.NoDevice())

	err := m.Open()
	assert.ErrorIs(t, err, ErrNoDevice)
	assert.Equal(t, SelectingPort, m.State())
	assert.ErrorIs(t, m.LastError(), ErrNoDevice)
	assert.Empty(t, tr.opened, "no open is attempted without a device")
}

func TestOpen_Failure(t *testing.T) {
	tr := newFakeTransport("COM1", "COM2")
	tr.openErr = errBusy
	m, _ := newTestMachine(t, tr, Options{})
	require.NoError(t, m.SelectPort(1))

	err := m.Open()
	assert.ErrorIs(t, err, errBusy)
	assert.Equal(t, SelectingPort, m.State())
	assert.ErrorIs(t, m.LastError(), errBusy)
	assert.Equal(t, 1, m.Selected(), "selection survives a failed open")

	// Retry succeeds once the device is free.
	tr.openErr = nil
	require.NoError(t, m.Open())
	assert.Equal(t, Reading, m.State())
	assert.NoError(t, m.LastError())
	assert.Equal(t, []string{"COM2", "COM2"}, tr.opened)
}

func TestOpen_PassesMode(t *testing.T) {
	tr := newFakeTransport("COM1")
	mode := transport.Mode{BaudRate: 9600, DataBits: 8, Parity: transport.EvenParity, StopBits: transport.OneStopBit}
	m, _ := newTestMachine(t, tr, Options{Mode: mode, Format: decoder.FormatBinary})

	require.NoError(t, m.Open())
	assert.Equal(t, []transport.Mode{mode}, tr.modes)
	assert.ErrorIs(t, m.Open(), ErrAlreadyReading)
}

func TestSelectPort(t *testing.T) {
	tr := newFakeTransport("COM1", "COM2")
	m, _ := newTestMachine(t, tr, Options{})

	require.NoError(t, m.SelectPort(1))
	assert.Equal(t, 1, m.Selected())
	assert.ErrorIs(t, m.SelectPort(2), ErrInvalidSelection)
	assert.ErrorIs(t, m.SelectPort(-1), ErrInvalidSelection)
	assert.Equal(t, 1, m.Selected())

	require.NoError(t, m.Open())
	assert.ErrorIs(t, m.SelectPort(0), ErrAlreadyReading)
}

func TestTick_CSV(t *testing.T) {
	tr := newFakeTransport("COM1")
	m, clock := newTestMachine(t, tr, Options{Samples: 4})
	require.NoError(t, m.Open())

	tr.handle.feed("5,32")
	require.NoError(t, m.Tick())
	tr.handle.feed(",1")
	require.NoError(t, m.Tick())

	v := m.View(nil)
	assert.Equal(t, Reading, v.State)
	assert.Equal(t, "COM1", v.Port)
	assert.NotEmpty(t, v.SessionID)
	assert.Equal(t, decoder.FormatCSV, v.Format)
	assert.Equal(t, []float64{5, 23, 0, 0}, v.Samples)
	assert.Equal(t, 2, v.Cursor)
	assert.Equal(t, 1, v.Pending)
	assert.Equal(t, decoder.DefaultWindowSize, v.Window)
	assert.Equal(t, 0, v.Rate, "no window has completed yet")

	clock.advance(time.Second)
	require.NoError(t, m.Tick())
	assert.Equal(t, 2, m.View(nil).Rate)
}

func TestTick_Binary(t *testing.T) {
	tr := newFakeTransport("COM1")
	m, _ := newTestMachine(t, tr, Options{Format: decoder.FormatBinary, Samples: 3})
	require.NoError(t, m.Open())

	tr.handle.feed("\xFF\x03\x00\x04\x00\x00")
	require.NoError(t, m.Tick())

	v := m.View(nil)
	require.Len(t, v.Samples, 3)
	assert.InDelta(t, 5.0, v.Samples[0], 1e-9)
	assert.Equal(t, 0.0, v.Samples[1])
	assert.Equal(t, 2, v.Cursor, "out-of-range frame is not stored")
	assert.Equal(t, 1, v.Stats.OutOfRange)
	assert.Zero(t, v.Window)
}

func TestTick_SelectingIsNoop(t *testing.T) {
	tr := newFakeTransport("COM1")
	m, _ := newTestMachine(t, tr, Options{})
	assert.NoError(t, m.Tick())
	assert.Equal(t, SelectingPort, m.State())
}

func TestTick_ReadError(t *testing.T) {
	tr := newFakeTransport("COM1", "COM2")
	m, _ := newTestMachine(t, tr, Options{})
	require.NoError(t, m.SelectPort(1))
	require.NoError(t, m.Open())

	h := tr.handle
	h.err = errUnplugged
	err := m.Tick()

	var rerr *ReadError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, "COM2", rerr.Port)
	assert.ErrorIs(t, err, errUnplugged)

	assert.Equal(t, SelectingPort, m.State())
	assert.True(t, h.closed)
	assert.ErrorIs(t, m.LastError(), errUnplugged)
	assert.Equal(t, 1, m.Selected(), "failed port stays selected for a retry")
	assert.Nil(t, m.View(nil).Samples)
}

func TestReload_DiscardsSession(t *testing.T) {
	tr := newFakeTransport("COM1")
	m, _ := newTestMachine(t, tr, Options{Samples: 4})
	require.NoError(t, m.Open())

	first := tr.handle
	first.feed("9,9,9")
	require.NoError(t, m.Tick())
	firstID := m.View(nil).SessionID

	m.Reload()
	assert.Equal(t, SelectingPort, m.State())
	assert.True(t, first.closed)

	require.NoError(t, m.Open())
	v := m.View(nil)
	assert.Equal(t, []float64{0, 0, 0, 0}, v.Samples, "fresh session starts with an empty ring buffer")
	assert.Zero(t, v.Pending, "carried partial frame is discarded")
	assert.NotEqual(t, firstID, v.SessionID)

	// The discarded "9" must not prefix the next frame.
	tr.handle.feed("1,")
	require.NoError(t, m.Tick())
	assert.Equal(t, 1.0, m.View(nil).Samples[0])
}

func TestReload_Reenumerates(t *testing.T) {
	tr := newFakeTransport()
	m, _ := newTestMachine(t, tr, Options{})
	assert.ErrorIs(t, m.Open(), ErrNoDevice)

	tr.ports = []transport.PortInfo{{Name: "/dev/ttyACM0"}}
	m.Reload()

	assert.NoError(t, m.LastError())
	require.NoError(t, m.Open())
	assert.Equal(t, Reading, m.State())
}

func TestClose(t *testing.T) {
	tr := newFakeTransport("COM1")
	m, _ := newTestMachine(t, tr, Options{})
	m.Close()
	assert.Equal(t, SelectingPort, m.State())

	require.NoError(t, m.Open())
	m.Close()
	assert.Equal(t, SelectingPort, m.State())
	assert.True(t, tr.handle.closed)
}

func TestView_ReusesDestination(t *testing.T) {
	tr := newFakeTransport("COM1")
	m, _ := newTestMachine(t, tr, Options{Samples: 4})
	require.NoError(t, m.Open())

	dst := make([]float64, 0, 16)
	v := m.View(dst)
	assert.Len(t, v.Samples, 4)
	assert.Equal(t, 16, cap(v.Samples))
}

func TestOptionsFromConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Serial.Port = "COM7"
	cfg.Protocol.Format = "binary"
	cfg.Protocol.ADCRange = 4096
	cfg.Buffer.Samples = 256

	opts, err := OptionsFromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, decoder.FormatBinary, opts.Format)
	assert.Equal(t, transport.NoParity, opts.Mode.Parity)
	assert.Equal(t, uint16(4096), opts.Decoder.ADCRange)
	assert.Equal(t, byte(','), opts.Decoder.Delimiter)
	assert.Equal(t, 256, opts.Samples)
	assert.Equal(t, "COM7", opts.PreferredPort)

	cfg.Protocol.ADCRange = 65536
	_, err = OptionsFromConfig(cfg, nil)
	assert.ErrorContains(t, err, "protocol.adc_range", "a 16-bit range is not silently clamped")
	cfg.Protocol.ADCRange = 4096

	cfg.Protocol.Format = "morse"
	_, err = OptionsFromConfig(cfg, nil)
	assert.Error(t, err)
}

func TestMachine_WithMockTransport(t *testing.T) {
	cfg := config.Default()
	mock := transport.NewMock(&cfg.Mock, decoder.FormatCSV, nil)

	opts, err := OptionsFromConfig(cfg, nil)
	require.NoError(t, err)
	m := New(mock, opts)
	require.NoError(t, m.Open())

	// Real-time mock: nothing is due immediately, and ticks never block.
	for range 5 {
		require.NoError(t, m.Tick())
	}
	assert.Equal(t, Reading, m.State())
	assert.Equal(t, transport.MockPortName, m.View(nil).Port)
}

func TestState_String(t *testing.T) {
	assert.Equal(t, "selecting", SelectingPort.String())
	assert.Equal(t, "reading", Reading.String())
	assert.Equal(t, "State(7)", State(7).String())
}
