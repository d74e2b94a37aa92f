package transport

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/itohio/goscope/pkg/config"
	"github.com/itohio/goscope/pkg/decoder"
	"github.com/itohio/goscope/pkg/logging"
)

// MockPortName is the single port offered by Mock.
const MockPortName = "mock"

// Mock simulates a sampler board streaming a sine wave in one of the wire
// formats. Frames are generated lazily from elapsed time on each Read so a
// read never blocks.
type Mock struct {
	cfg    *config.MockConfig
	format decoder.Format
	now    func() time.Time
	log    logging.Logger
}

// NewMock creates a simulated transport emitting format.
func NewMock(cfg *config.MockConfig, format decoder.Format, log logging.Logger) *Mock {
	if cfg == nil {
		cfg = &config.Default().Mock
	}

	return &Mock{
		cfg:    cfg,
		format: format,
		now:    time.Now,
		log:    logging.OrNull(log),
	}
}

// Ports returns the simulated port.
func (m *Mock) Ports() ([]PortInfo, error) {
	return []PortInfo{{Name: MockPortName, Description: fmt.Sprintf("simulated %s sampler", m.format)}}, nil
}

// Open opens the simulated port. The mode is accepted as is.
func (m *Mock) Open(name string, mode Mode) (Handle, error) {
	if name != MockPortName {
		return nil, fmt.Errorf("failed to open %s: no such simulated port", name)
	}
	start := m.now()
	return &mockHandle{
		mock:  m,
		start: start,
		last:  start,
	}, nil
}

type mockHandle struct {
	mock *Mock

	mu      sync.Mutex
	closed  bool
	start   time.Time
	last    time.Time // time of the last generated sample
	dropped int       // samples lost to a full backlog
	pending []byte
}

// Read returns pending frame bytes, at most len(p), generating samples due
// since the previous call first.
func (h *mockHandle) Read(p []byte) (int, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return 0, ErrClosed
	}

	h.generate(h.mock.now())

	n := copy(p, h.pending)
	h.pending = h.pending[:copy(h.pending, h.pending[n:])]
	return n, nil
}

func (h *mockHandle) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed = true
	h.pending = nil
	if h.dropped > 0 {
		h.mock.log.Warnf("Simulated port dropped %d samples while the reader was behind", h.dropped)
	}
	return nil
}

// generate appends every sample due up to now.
func (h *mockHandle) generate(now time.Time) {
	cfg := h.mock.cfg
	if cfg.SampleRate <= 0 {
		return
	}
	for !h.last.Add(cfg.SampleRate).After(now) {
		h.last = h.last.Add(cfg.SampleRate)
		// A full FIFO drops whole frames while the reader is behind.
		if len(h.pending) >= maxMockBacklog {
			h.dropped++
			continue
		}
		h.pending = decoder.AppendFrame(h.pending, h.mock.format, h.value(h.last.Sub(h.start)))
	}
}

const maxMockBacklog = 4096

// value returns the raw ADC value at elapsed, clamped to 10 bits.
func (h *mockHandle) value(elapsed time.Duration) uint16 {
	cfg := h.mock.cfg
	t := elapsed.Seconds()

	v := cfg.Offset + cfg.Amplitude*math.Sin(2*math.Pi*cfg.Frequency*t)
	// Deterministic pseudo-noise
	v += (math.Sin(t*1000) + math.Cos(t*1300)) * cfg.Noise * 0.5

	v = math.Round(v)
	if v < 0 {
		v = 0
	} else if v > 1023 {
		v = 1023
	}
	return uint16(v)
}
