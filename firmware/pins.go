//go:build rp2040

package main

import "machine"

const (
	// ADC configuration
	ADC_REFERENCE_MV = 3300 // Reference voltage in millivolts (3.3V)
	ADC_RESOLUTION   = 12   // ADC resolution in bits (12-bit = 0-4095)

	// TinyGo scales ADC.Get to 16 bits regardless of resolution.
	ADC_SHIFT = 16 - ADC_RESOLUTION

	// Analog pins in channel order. Channel 0 is GP29, channel 3 is GP26.
	PIN_A0 = machine.GPIO29
	PIN_A1 = machine.GPIO28
	PIN_A2 = machine.GPIO27
	PIN_A3 = machine.GPIO26

	// High when this half is powered from USB, which makes it the master.
	PIN_VBUS_SENSE = machine.GPIO24

	// Status LED, a single ws2812 pixel.
	PIN_STATUS_LED = machine.GPIO16

	// Main loop idle time. The sampler rate limits itself.
	LOOP_DELAY_MS = 1
)

var analogPins = [...]machine.Pin{PIN_A0, PIN_A1, PIN_A2, PIN_A3}
