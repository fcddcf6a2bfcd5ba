//go:build rp2040

package main

import (
	"io"
	"machine"
	"runtime"

	"tinygo.org/x/drivers/ws2812"
)

// activityWriter forwards lines to the serial port and blinks the status
// LED on every line.
type activityWriter struct {
	out io.Writer
	led ws2812.Device
	on  bool
}

func newActivityWriter(out io.Writer, ledPin machine.Pin) *activityWriter {
	ledPin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	w := &activityWriter{
		out: out,
		led: ws2812.New(ledPin),
	}
	w.set(false)
	return w
}

func (w *activityWriter) Write(b []byte) (int, error) {
	n, err := w.out.Write(b)
	w.set(!w.on)
	runtime.Gosched()
	return n, err
}

func (w *activityWriter) set(on bool) {
	w.on = on
	if on {
		writeLEDRGB(w.led, 0, 16, 0) // dim green
	} else {
		writeLEDRGB(w.led, 0, 0, 0)
	}
}

func writeLEDRGB(led ws2812.Device, r, g, b uint8) {
	// ws2812 expects GRB order
	led.WriteByte(g)
	led.WriteByte(r)
	led.WriteByte(b)
}
