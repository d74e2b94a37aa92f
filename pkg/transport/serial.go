package transport

import (
	"fmt"
	"sort"

	"go.bug.st/serial"
	"go.bug.st/serial/enumerator"
)

// Serial opens OS serial ports.
type Serial struct{}

// NewSerial creates a serial transport.
func NewSerial() *Serial {
	return &Serial{}
}

// Ports returns a list of available serial ports, sorted by name.
// USB ports are described by product name and VID:PID.
func (s *Serial) Ports() ([]PortInfo, error) {
	details, err := enumerator.GetDetailedPortsList()
	if err != nil {
		// Fall back to plain names when detailed enumeration is unsupported.
		names, lerr := serial.GetPortsList()
		if lerr != nil {
			return nil, fmt.Errorf("failed to list serial ports: %w", lerr)
		}
		result := make([]PortInfo, 0, len(names))
		for _, name := range names {
			result = append(result, PortInfo{Name: name, Description: name})
		}
		sortPorts(result)
		return result, nil
	}

	result := make([]PortInfo, 0, len(details))
	for _, d := range details {
		desc := d.Name
		if d.IsUSB {
			desc = fmt.Sprintf("USB %s:%s", d.VID, d.PID)
			if d.Product != "" {
				desc = fmt.Sprintf("%s, %s", d.Product, desc)
			}
		}
		result = append(result, PortInfo{Name: d.Name, Description: desc})
	}
	sortPorts(result)
	return result, nil
}

// Open opens the named port with mode and applies the read timeout.
func (s *Serial) Open(name string, mode Mode) (Handle, error) {
	port, err := serial.Open(name, &serial.Mode{
		BaudRate: mode.BaudRate,
		DataBits: mode.DataBits,
		Parity:   serialParity(mode.Parity),
		StopBits: serialStopBits(mode.StopBits),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", name, err)
	}

	timeout := mode.ReadTimeout
	if timeout <= 0 {
		timeout = serial.NoTimeout
	}
	if err := port.SetReadTimeout(timeout); err != nil {
		port.Close()
		return nil, fmt.Errorf("failed to set read timeout on %s: %w", name, err)
	}

	return port, nil
}

func sortPorts(ports []PortInfo) {
	sort.Slice(ports, func(i, j int) bool { return ports[i].Name < ports[j].Name })
}

func serialParity(p Parity) serial.Parity {
	switch p {
	case OddParity:
		return serial.OddParity
	case EvenParity:
		return serial.EvenParity
	case MarkParity:
		return serial.MarkParity
	case SpaceParity:
		return serial.SpaceParity
	default:
		return serial.NoParity
	}
}

func serialStopBits(s StopBits) serial.StopBits {
	switch s {
	case OnePointFiveStopBits:
		return serial.OnePointFiveStopBits
	case TwoStopBits:
		return serial.TwoStopBits
	default:
		return serial.OneStopBit
	}
}
