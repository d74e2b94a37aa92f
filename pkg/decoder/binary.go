package decoder

import (
	"encoding/binary"
	"io"

	"github.com/itohio/goscope/pkg/logging"
)

// FrameSize is the width of one binary frame in bytes.
const FrameSize = 2

// Binary decodes 2-byte little-endian unsigned frames and scales them to
// physical units: raw * MaxPhysical / (ADCRange-1). Frames at or above
// ADCRange are sensor noise and are discarded without being reported.
type Binary struct {
	window      []byte // len is bytes held (0 or 1), cap is MaxFrames frames
	adcRange    uint16
	maxPhysical float64
	stats       Stats
	log         logging.Logger
}

// NewBinary creates a binary decoder.
func NewBinary(opts Options) *Binary {
	d := &Binary{
		adcRange:    opts.ADCRange,
		maxPhysical: opts.MaxPhysical,
		log:         logging.OrNull(opts.Logger),
	}
	if d.adcRange < 2 {
		d.adcRange = DefaultADCRange
	}
	if d.maxPhysical == 0 {
		d.maxPhysical = DefaultMaxPhysical
	}
	maxFrames := opts.MaxFrames
	if maxFrames <= 0 {
		maxFrames = DefaultMaxFrames
	}
	d.window = make([]byte, 0, maxFrames*FrameSize)
	return d
}

// Decode performs a single read of at most MaxFrames frames and decodes
// every complete frame in it. An odd trailing byte is kept and completed
// by the next pass.
func (d *Binary) Decode(r io.Reader, dst []float64) ([]float64, error) {
	held := len(d.window)
	n, err := r.Read(d.window[held:cap(d.window)])
	if n <= 0 {
		return dst, err
	}
	d.window = d.window[:held+n]

	frames := len(d.window) / FrameSize
	for i := range frames {
		dst = d.emit(dst, d.window[i*FrameSize:])
	}
	d.window = d.window[:copy(d.window, d.window[frames*FrameSize:])]

	return dst, err
}

// Scale converts a raw ADC value to physical units.
func (d *Binary) Scale(raw uint16) float64 {
	return float64(raw) * d.maxPhysical / float64(d.adcRange-1)
}

func (d *Binary) emit(dst []float64, frame []byte) []float64 {
	raw := binary.LittleEndian.Uint16(frame)
	if raw >= d.adcRange {
		d.stats.OutOfRange++
		return dst
	}
	d.stats.Frames++
	return append(dst, d.Scale(raw))
}

func (d *Binary) Reset() {
	d.window = d.window[:0]
}

func (d *Binary) Stats() Stats {
	return d.stats
}

func (d *Binary) Format() Format {
	return FormatBinary
}
