//go:build tinygo

package main

import "machine"

const (
	// Sampling configuration
	SAMPLE_INTERVAL_MS = 10 // ADC read interval in milliseconds

	// ADC configuration
	ADC_REFERENCE_MV = 5000 // Reference voltage in millivolts (5V)
	ADC_RESOLUTION   = 10   // ADC resolution in bits (10-bit = 0-1023)

	// Wire format: FORMAT_CSV or FORMAT_BINARY
	FORMAT    = FORMAT_CSV
	DELIMITER = ','

	// ADC pin
	PIN_ADC = machine.ADC0

	// Serial configuration
	// CSV: at most 5 bytes per frame ("3201,"), 100 frames/sec = 500 bytes/sec.
	// UART 8N1 in both formats: 10 bits/byte = 5,000 baud, 9600 leaves ~2x headroom.
	UART_BAUD_RATE = 9600
)

const (
	FORMAT_CSV = iota
	FORMAT_BINARY
)
