package decoder

import "encoding/binary"

// AppendCSV appends v as a CSV frame: decimal digits least-significant
// first, then the delimiter. Zero is encoded as a single '0' digit.
func AppendCSV(dst []byte, v uint, delim byte) []byte {
	for {
		dst = append(dst, byte('0'+v%10))
		v /= 10
		if v == 0 {
			break
		}
	}
	return append(dst, delim)
}

// AppendBinary appends v as a little-endian binary frame.
func AppendBinary(dst []byte, v uint16) []byte {
	return binary.LittleEndian.AppendUint16(dst, v)
}

// AppendFrame appends v in the given format. Unknown formats append nothing.
func AppendFrame(dst []byte, format Format, v uint16) []byte {
	switch format {
	case FormatCSV:
		return AppendCSV(dst, uint(v), DefaultDelimiter)
	case FormatBinary:
		return AppendBinary(dst, v)
	}
	return dst
}
