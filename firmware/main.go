//go:build tinygo

//go:generate tinygo flash -target=arduino

package main

import (
	"machine"
	"time"
)

var (
	adc  machine.ADC
	uart = machine.UART0

	// Timing
	lastADCRead time.Time

	// Output buffer for one frame
	frame [8]byte
)

func main() {
	PIN_ADC.Configure(machine.PinConfig{Mode: machine.PinInput})

	adc = machine.ADC{Pin: PIN_ADC}
	adc.Configure(machine.ADCConfig{
		Reference:  ADC_REFERENCE_MV,
		Resolution: ADC_RESOLUTION,
	})

	uart.Configure(machine.UARTConfig{
		BaudRate: UART_BAUD_RATE,
	})

	lastADCRead = time.Now()

	for {
		now := time.Now()
		if now.Sub(lastADCRead) >= time.Duration(SAMPLE_INTERVAL_MS)*time.Millisecond {
			writeSample(readADC())
			lastADCRead = now
		}

		time.Sleep(100 * time.Microsecond)
	}
}

// readADC returns the sample scaled down to ADC_RESOLUTION bits.
// machine.ADC.Get always reports a 16-bit value.
func readADC() uint16 {
	return adc.Get() >> (16 - ADC_RESOLUTION)
}

func writeSample(v uint16) {
	var out []byte
	switch FORMAT {
	case FORMAT_BINARY:
		out = appendBinary(frame[:0], v)
	default:
		out = appendCSV(frame[:0], v, DELIMITER)
	}
	uart.Write(out)
}

// appendCSV writes decimal digits least-significant first, then the delimiter.
// "1023" goes out as "3201,".
func appendCSV(dst []byte, v uint16, delim byte) []byte {
	for {
		dst = append(dst, byte('0'+v%10))
		v /= 10
		if v == 0 {
			break
		}
	}
	return append(dst, delim)
}

// appendBinary writes v little-endian.
func appendBinary(dst []byte, v uint16) []byte {
	return append(dst, byte(v), byte(v>>8))
}
