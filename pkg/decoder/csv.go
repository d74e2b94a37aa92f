package decoder

import (
	"io"

	"github.com/itohio/goscope/pkg/logging"
)

// CSV decodes delimiter-terminated decimal frames whose digits arrive
// least-significant first: "32," decodes to 23.
//
// Bytes of a frame that is not yet terminated stay in the raw window,
// left-aligned, and are decoded again once the rest of the frame arrives.
type CSV struct {
	window []byte // len is bytes held, cap is the window capacity
	delim  byte
	stats  Stats
	log    logging.Logger

	// strayTail is set when the carried frame already contained unrecognized bytes.
	strayTail bool
}

// NewCSV creates a CSV decoder with an empty window.
func NewCSV(opts Options) *CSV {
	size := opts.WindowSize
	if size <= 0 {
		size = DefaultWindowSize
	}
	delim := opts.Delimiter
	if delim == 0 {
		delim = DefaultDelimiter
	}
	return &CSV{
		window: make([]byte, 0, size),
		delim:  delim,
		log:    logging.OrNull(opts.Logger),
	}
}

// Decode performs a single read into the free part of the window and decodes it.
// A read of zero bytes is a no-op pass.
func (d *CSV) Decode(r io.Reader, dst []float64) ([]float64, error) {
	held := len(d.window)
	n, err := r.Read(d.window[held:cap(d.window)])
	if n > 0 {
		d.window = d.window[:held+n]
		dst = d.scan(dst)
	}
	return dst, err
}

// Feed decodes bytes that were already read from the transport.
func (d *CSV) Feed(p []byte, dst []float64) []float64 {
	for len(p) > 0 {
		held := len(d.window)
		n := copy(d.window[held:cap(d.window)], p)
		d.window = d.window[:held+n]
		p = p[n:]
		dst = d.scan(dst)
	}
	return dst
}

// Pending returns the carried bytes of the unterminated trailing frame.
// The slice aliases the window and is only valid until the next call.
func (d *CSV) Pending() []byte {
	return d.window
}

// WindowSize returns the raw window capacity.
func (d *CSV) WindowSize() int {
	return cap(d.window)
}

func (d *CSV) Reset() {
	d.window = d.window[:0]
	d.strayTail = false
}

func (d *CSV) Stats() Stats {
	return d.stats
}

func (d *CSV) Format() Format {
	return FormatCSV
}

// scan decodes every terminated frame in the window and compacts the
// digits of the unterminated tail to offset 0.
func (d *CSV) scan(dst []float64) []float64 {
	var (
		value float64
		place float64 = 1
		// digits and stray count bytes of the frame being accumulated.
		digits int
		stray  int
		keep   int
	)
	if d.strayTail {
		stray = 1
	}

	for i, c := range d.window {
		switch {
		case c >= '0' && c <= '9':
			value += float64(c-'0') * place
			place *= 10
			digits++
		case c == d.delim:
			// A frame made only of unrecognized bytes carries no value.
			if digits > 0 || stray == 0 {
				dst = append(dst, value)
				d.stats.Frames++
			}
			value, place, digits, stray = 0, 1, 0, 0
			keep = i + 1
		case c == 0:
			d.stats.Padding++
		default:
			// Bytes in the tail are dropped below, so each is reported once.
			d.stats.Unrecognized++
			stray++
			d.log.Debugf("unrecognized byte %q at window offset %d", c, i)
		}
	}

	n := 0
	for _, c := range d.window[keep:] {
		if c >= '0' && c <= '9' {
			d.window[n] = c
			n++
		}
	}

	d.strayTail = stray > 0
	if n == cap(d.window) {
		d.stats.Overflows++
		d.log.Warnf("dropping %d byte frame: no delimiter within window capacity", n)
		n = 0
		d.strayTail = false
	}
	d.window = d.window[:n]

	return dst
}
