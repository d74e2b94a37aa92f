package transport

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/itohio/goscope/pkg/config"
)

// ErrClosed is returned by reads on a closed handle.
var ErrClosed = errors.New("port closed")

// PortInfo describes an enumerated port.
type PortInfo struct {
	Name        string
	Description string
}

// Label returns the name, with the description when it adds information.
func (p PortInfo) Label() string {
	if p.Description == "" || p.Description == p.Name {
		return p.Name
	}
	return fmt.Sprintf("%s (%s)", p.Name, p.Description)
}

// Parity is the line parity setting.
type Parity int

const (
	NoParity Parity = iota
	OddParity
	EvenParity
	MarkParity
	SpaceParity
)

func (p Parity) String() string {
	switch p {
	case OddParity:
		return "odd"
	case EvenParity:
		return "even"
	case MarkParity:
		return "mark"
	case SpaceParity:
		return "space"
	default:
		return "none"
	}
}

// StopBits is the number of stop bits.
type StopBits int

const (
	OneStopBit StopBits = iota
	OnePointFiveStopBits
	TwoStopBits
)

func (s StopBits) String() string {
	switch s {
	case OnePointFiveStopBits:
		return "1.5"
	case TwoStopBits:
		return "2"
	default:
		return "1"
	}
}

// Mode holds the fixed line settings a port is opened with.
type Mode struct {
	BaudRate    int
	DataBits    int
	Parity      Parity
	StopBits    StopBits
	ReadTimeout time.Duration // 0 blocks until data arrives
}

func (m Mode) String() string {
	return fmt.Sprintf("%d %d%c%s", m.BaudRate, m.DataBits, strings.ToUpper(m.Parity.String())[0], m.StopBits)
}

// Handle is an open port. Read returns 0, nil when the read timeout
// elapses without data; any error is a hard failure. A Handle is owned by
// a single reader.
type Handle interface {
	io.Reader
	io.Closer
}

// Transport enumerates and opens ports.
type Transport interface {
	Ports() ([]PortInfo, error)
	Open(name string, mode Mode) (Handle, error)
}

var (
	_ Transport = (*Serial)(nil)
	_ Transport = (*Mock)(nil)
)

// ParseParity parses a parity name.
func ParseParity(s string) (Parity, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "none", "n":
		return NoParity, nil
	case "odd", "o":
		return OddParity, nil
	case "even", "e":
		return EvenParity, nil
	case "mark", "m":
		return MarkParity, nil
	case "space", "s":
		return SpaceParity, nil
	}
	return NoParity, fmt.Errorf("unknown parity %q", s)
}

// ParseStopBits parses a stop bit count.
func ParseStopBits(s string) (StopBits, error) {
	switch strings.TrimSpace(s) {
	case "", "1":
		return OneStopBit, nil
	case "1.5":
		return OnePointFiveStopBits, nil
	case "2":
		return TwoStopBits, nil
	}
	return OneStopBit, fmt.Errorf("unknown stop bits %q", s)
}

// ModeFromConfig builds the open parameters from the serial section.
func ModeFromConfig(cfg *config.Config) (Mode, error) {
	parity, err := ParseParity(cfg.ParityName())
	if err != nil {
		return Mode{}, err
	}
	stopBits, err := ParseStopBits(cfg.Serial.StopBits)
	if err != nil {
		return Mode{}, err
	}
	return Mode{
		BaudRate:    cfg.Serial.BaudRate,
		DataBits:    cfg.Serial.DataBits,
		Parity:      parity,
		StopBits:    stopBits,
		ReadTimeout: cfg.Serial.ReadTimeout,
	}, nil
}
