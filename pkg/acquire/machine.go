package acquire

import (
	"fmt"
	"strings"
	"time"

	"github.com/fatih/stopwatch"
	"github.com/google/uuid"
	"github.com/itohio/goscope/pkg/config"
	"github.com/itohio/goscope/pkg/decoder"
	"github.com/itohio/goscope/pkg/logging"
	"github.com/itohio/goscope/pkg/rate"
	"github.com/itohio/goscope/pkg/ring"
	"github.com/itohio/goscope/pkg/transport"
)

// State is the connection state tag.
type State int

const (
	// SelectingPort lists ports and waits for an open request.
	SelectingPort State = iota
	// Reading owns an open port and decodes it on every tick.
	Reading
)

func (s State) String() string {
	switch s {
	case SelectingPort:
		return "selecting"
	case Reading:
		return "reading"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Options configure a Machine.
type Options struct {
	Format        decoder.Format
	Mode          transport.Mode
	Decoder       decoder.Options
	Samples       int    // Ring buffer capacity
	PreferredPort string // Pre-selected after enumeration when present
	Logger        logging.Logger
}

// OptionsFromConfig builds machine options from the configuration.
func OptionsFromConfig(cfg *config.Config, log logging.Logger) (Options, error) {
	if err := cfg.Validate(); err != nil {
		return Options{}, err
	}
	format, err := decoder.ParseFormat(cfg.Protocol.Format)
	if err != nil {
		return Options{}, err
	}
	mode, err := transport.ModeFromConfig(cfg)
	if err != nil {
		return Options{}, err
	}

	var delim byte = decoder.DefaultDelimiter
	if cfg.Protocol.Delimiter != "" {
		delim = cfg.Protocol.Delimiter[0]
	}
	return Options{
		Format: format,
		Mode:   mode,
		Decoder: decoder.Options{
			WindowSize:  cfg.Buffer.ReadWindow,
			Delimiter:   delim,
			ADCRange:    uint16(cfg.Protocol.ADCRange),
			MaxPhysical: cfg.Protocol.MaxPhysical,
			Logger:      log,
		},
		Samples:       cfg.Buffer.Samples,
		PreferredPort: cfg.Serial.Port,
		Logger:        log,
	}, nil
}

// Machine is the connection state machine. It is driven synchronously from
// a single goroutine: intents and Tick must not be called concurrently.
type Machine struct {
	transport transport.Transport
	opts      Options
	log       logging.Logger
	now       func() time.Time

	state State

	// SelectingPort
	ports    []transport.PortInfo
	portsErr error
	selected int
	lastErr  error

	// Reading
	session *session
}

// session is everything owned by the Reading state. It is dropped as a
// whole on leaving Reading, including any carried partial frame.
type session struct {
	id      uuid.UUID
	port    string
	handle  transport.Handle
	decoder decoder.Decoder
	samples *ring.Buffer
	rate    *rate.Monitor
	timer   *stopwatch.Stopwatch
	scratch []float64
}

// New creates a Machine in SelectingPort, enumerating ports immediately.
// An enumeration failure is kept in the state, not returned.
func New(t transport.Transport, opts Options) *Machine {
	if opts.Samples <= 0 {
		opts.Samples = ring.DefaultCapacity
	}
	if opts.Format == "" {
		opts.Format = decoder.FormatCSV
	}

	m := &Machine{
		transport: t,
		opts:      opts,
		log:       logging.OrNull(opts.Logger),
		now:       time.Now,
	}
	m.enumerate("")
	return m
}

// State returns the current state tag.
func (m *Machine) State() State {
	return m.state
}

// Ports returns the last enumeration result.
func (m *Machine) Ports() ([]transport.PortInfo, error) {
	return m.ports, m.portsErr
}

// Selected returns the selected port index.
func (m *Machine) Selected() int {
	return m.selected
}

// LastError returns the error of the last failed open or reading session.
func (m *Machine) LastError() error {
	return m.lastErr
}

// SelectPort selects the port to open by index into Ports.
func (m *Machine) SelectPort(index int) error {
	if m.state != SelectingPort {
		return ErrAlreadyReading
	}
	if index < 0 || index >= len(m.ports) {
		return fmt.Errorf("%w: %d of %d ports", ErrInvalidSelection, index, len(m.ports))
	}
	m.selected = index
	return nil
}

// Open opens the selected port and enters Reading with a fresh session.
// On failure the machine stays in SelectingPort with the error recorded.
func (m *Machine) Open() error {
	if m.state != SelectingPort {
		return ErrAlreadyReading
	}
	if m.portsErr != nil || len(m.ports) == 0 {
		m.lastErr = ErrNoDevice
		return ErrNoDevice
	}

	name := m.ports[m.selected].Name
	handle, err := m.transport.Open(name, m.opts.Mode)
	if err != nil {
		m.lastErr = err
		m.log.Warnf("Failed to open %s: %v", name, err)
		return err
	}

	dec, err := decoder.New(m.opts.Format, m.opts.Decoder)
	if err != nil {
		handle.Close()
		m.lastErr = err
		return err
	}

	m.session = &session{
		id:      uuid.New(),
		port:    name,
		handle:  handle,
		decoder: dec,
		samples: ring.New(m.opts.Samples),
		rate:    rate.New(m.now()),
		timer:   stopwatch.Start(0),
	}
	m.state = Reading
	m.lastErr = nil
	m.log.Infof("Reading %s (%s, %s) session %s", name, m.opts.Mode, m.opts.Format, m.session.id)

	return nil
}

// Reload discards any session, re-enumerates ports and returns to SelectingPort.
func (m *Machine) Reload() {
	m.closeSession()
	m.lastErr = nil
	m.enumerate("")
}

// Tick performs one acquisition pass while Reading: a bounded drain of the
// port, decoded samples pushed to the ring buffer, and a rate monitor tick.
// A read error ends the session: the machine returns to SelectingPort with
// the *ReadError recorded and returned. Tick is a no-op in SelectingPort.
func (m *Machine) Tick() error {
	if m.state != Reading {
		return nil
	}

	s := m.session
	var err error
	s.scratch, err = s.decoder.Decode(s.handle, s.scratch[:0])
	s.samples.PushAll(s.scratch)
	s.rate.RecordN(len(s.scratch))
	s.rate.Tick(m.now())

	if err != nil {
		rerr := &ReadError{Port: s.port, Err: err}
		m.log.Errorf("Session %s ended: %v", s.id, rerr)
		port := s.port
		m.closeSession()
		m.enumerate(port)
		m.lastErr = rerr
		return rerr
	}

	return nil
}

// Close releases the port, if any. The machine stays usable.
func (m *Machine) Close() {
	if m.state == Reading {
		m.closeSession()
		m.enumerate("")
	}
}

func (m *Machine) closeSession() {
	if m.session == nil {
		m.state = SelectingPort
		return
	}
	s := m.session
	s.timer.Stop()
	if err := s.handle.Close(); err != nil {
		m.log.Warnf("Error closing %s: %v", s.port, err)
	}
	m.log.Infof("Closed %s after %s", s.port, s.timer.ElapsedTime().Round(time.Millisecond))
	m.session = nil
	m.state = SelectingPort
}

// enumerate lists ports and selects prefer, the preferred port, or the first.
func (m *Machine) enumerate(prefer string) {
	m.state = SelectingPort
	m.ports, m.portsErr = m.transport.Ports()
	m.selected = 0
	if m.portsErr != nil {
		m.log.Warnf("Failed to enumerate ports: %v", m.portsErr)
		return
	}

	for _, name := range []string{prefer, m.opts.PreferredPort} {
		if name == "" {
			continue
		}
		for i, p := range m.ports {
			if strings.EqualFold(p.Name, name) {
				m.selected = i
				return
			}
		}
	}
}
