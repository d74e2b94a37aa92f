package acquire

import (
	"time"

	"github.com/itohio/goscope/pkg/decoder"
	"github.com/itohio/goscope/pkg/transport"
)

// View is a copy of the state a display layer renders on one tick.
// Fields after LastErr are only set while Reading.
type View struct {
	State    State
	Ports    []transport.PortInfo
	PortsErr error
	Selected int
	LastErr  error

	Port      string
	SessionID string
	Format    decoder.Format
	Samples   []float64 // Ring buffer contents in storage order
	Cursor    int       // Slot the next sample is written to
	Rate      int       // Samples per second over the last completed window
	Elapsed   time.Duration
	Pending   int // Bytes carried in the raw window
	Window    int // Raw window capacity, 0 for formats without one
	Stats     decoder.Stats
}

// NoDevice reports whether enumeration succeeded but found nothing.
func (v *View) NoDevice() bool {
	return v.State == SelectingPort && v.PortsErr == nil && len(v.Ports) == 0
}

// windowed is implemented by decoders that carry bytes between passes.
type windowed interface {
	Pending() []byte
	WindowSize() int
}

// View returns the current state. Samples reuses dst when it is large enough.
func (m *Machine) View(dst []float64) View {
	v := View{
		State:    m.state,
		Ports:    append([]transport.PortInfo(nil), m.ports...),
		PortsErr: m.portsErr,
		Selected: m.selected,
		LastErr:  m.lastErr,
	}

	s := m.session
	if m.state != Reading || s == nil {
		return v
	}

	v.Port = s.port
	v.SessionID = s.id.String()
	v.Format = s.decoder.Format()
	v.Samples = s.samples.Snapshot(dst)
	v.Cursor = s.samples.Cursor()
	v.Rate = s.rate.Rate()
	v.Elapsed = s.timer.ElapsedTime()
	v.Stats = s.decoder.Stats()
	if w, ok := s.decoder.(windowed); ok {
		v.Pending = len(w.Pending())
		v.Window = w.WindowSize()
	}

	return v
}
