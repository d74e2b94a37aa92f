package acquire

import (
	"errors"
	"time"

	"github.com/itohio/goscope/pkg/transport"
)

var (
	errBusy      = errors.New("device busy")
	errUnplugged = errors.New("device unplugged")
)

// fakeTransport hands out fakeHandles fed by the test.
type fakeTransport struct {
	ports    []transport.PortInfo
	portsErr error
	openErr  error

	opened []string
	modes  []transport.Mode
	handle *fakeHandle
}

func newFakeTransport(names ...string) *fakeTransport {
	t := &fakeTransport{}
	for _, n := range names {
		t.ports = append(t.ports, transport.PortInfo{Name: n, Description: n})
	}
	return t
}

func (t *fakeTransport) Ports() ([]transport.PortInfo, error) {
	if t.portsErr != nil {
		return nil, t.portsErr
	}
	return t.ports, nil
}

func (t *fakeTransport) Open(name string, mode transport.Mode) (transport.Handle, error) {
	t.opened = append(t.opened, name)
	t.modes = append(t.modes, mode)
	if t.openErr != nil {
		return nil, t.openErr
	}
	t.handle = &fakeHandle{}
	return t.handle, nil
}

// fakeHandle returns one queued chunk per Read, then 0, nil or err.
type fakeHandle struct {
	chunks [][]byte
	err    error
	closed bool
}

func (h *fakeHandle) feed(s string) {
	h.chunks = append(h.chunks, []byte(s))
}

func (h *fakeHandle) Read(p []byte) (int, error) {
	if h.closed {
		return 0, transport.ErrClosed
	}
	if len(h.chunks) == 0 {
		return 0, h.err
	}
	n := copy(p, h.chunks[0])
	if n < len(h.chunks[0]) {
		h.chunks[0] = h.chunks[0][n:]
	} else {
		h.chunks = h.chunks[1:]
	}
	return n, nil
}

func (h *fakeHandle) Close() error {
	h.closed = true
	return nil
}

type fakeClock struct {
	t time.Time
}

func (c *fakeClock) now() time.Time { return c.t }

func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }
