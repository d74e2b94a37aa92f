package decoder

import (
	"fmt"
	"io"
	"strings"

	"github.com/itohio/goscope/pkg/logging"
)

// Format selects one of the two wire encodings.
type Format string

const (
	// FormatCSV is least-significant-digit-first ASCII decimal frames
	// terminated by a delimiter.
	FormatCSV Format = "csv"
	// FormatBinary is 2-byte little-endian unsigned frames.
	FormatBinary Format = "binary"
)

const (
	// DefaultWindowSize is the raw read window capacity of the CSV decoder.
	DefaultWindowSize = 128
	// DefaultDelimiter terminates CSV frames.
	DefaultDelimiter = ','
	// DefaultADCRange is the exclusive upper bound of valid binary frames.
	DefaultADCRange = 1024
	// DefaultMaxPhysical is the physical value of the largest valid binary frame.
	DefaultMaxPhysical = 5.0
	// DefaultMaxFrames bounds the binary frames decoded in one pass.
	DefaultMaxFrames = 1024
)

// ParseFormat parses a format name, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatCSV, FormatBinary:
		return f, nil
	default:
		return "", fmt.Errorf("unknown wire format %q (want %q or %q)", s, FormatCSV, FormatBinary)
	}
}

// Decoder turns transport bytes into samples.
type Decoder interface {
	// Decode drains what r can presently supply and appends decoded samples
	// to dst. Samples decoded before a read error are returned along with it.
	Decode(r io.Reader, dst []float64) ([]float64, error)
	// Reset drops any carried partial frame.
	Reset()
	// Stats returns the diagnostic counters accumulated so far.
	Stats() Stats
	// Format returns the wire format handled by the decoder.
	Format() Format
}

var (
	_ Decoder = (*CSV)(nil)
	_ Decoder = (*Binary)(nil)
)

// Stats are decoder diagnostics. None of them stop decoding.
type Stats struct {
	Frames       int // Samples emitted
	Unrecognized int // Bytes that are neither digit, delimiter nor padding (CSV)
	Padding      int // Null bytes skipped (CSV)
	Overflows    int // Partial frames dropped because they filled the window (CSV)
	OutOfRange   int // Frames at or above the ADC range (binary)
}

// Options configure decoder construction. Zero values select defaults.
type Options struct {
	WindowSize  int            // CSV raw window capacity
	Delimiter   byte           // CSV frame terminator
	ADCRange    uint16         // Binary exclusive upper bound
	MaxPhysical float64        // Binary scale for ADCRange-1
	MaxFrames   int            // Binary frames per pass
	Logger      logging.Logger // Diagnostics sink
}

// New creates the decoder for format.
func New(format Format, opts Options) (Decoder, error) {
	switch format {
	case FormatCSV:
		return NewCSV(opts), nil
	case FormatBinary:
		return NewBinary(opts), nil
	default:
		return nil, fmt.Errorf("unknown wire format %q", format)
	}
}
