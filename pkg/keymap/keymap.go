// Package keymap holds the static tables of the split 60-key keyboard: the
// LED layout used by the lighting engine, the four keymap layers and the
// rotary encoder actions.
//
// The firmware framework consumes these tables as-is; host tooling uses this
// package to validate and print them.
package keymap

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"
)

// Validate checks the tables for internal consistency.
func Validate() error {
	var seen [NumLEDs]bool
	for row := range MatrixRows {
		for col := range MatrixCols {
			idx, ok := LEDAt(row, col)
			if !ok {
				continue
			}
			if idx >= NumLEDs {
				return fmt.Errorf("matrix [%d][%d]: LED index %d out of range", row, col, idx)
			}
			if seen[idx] {
				return fmt.Errorf("matrix [%d][%d]: LED index %d used twice", row, col, idx)
			}
			seen[idx] = true
		}
	}
	for i, ok := range seen {
		if !ok {
			return fmt.Errorf("LED %d is not mapped to any matrix position", i)
		}
	}

	for _, led := range Layout() {
		if int(led.X) > GridWidth || int(led.Y) > GridHeight {
			return fmt.Errorf("LED %d at (%d,%d) outside %dx%d grid", led.Index, led.X, led.Y, GridWidth, GridHeight)
		}
	}

	for l, layer := range Layers {
		for pos, k := range layer {
			if target, ok := k.Momentary(); ok && target >= NumLayers {
				return fmt.Errorf("layer %d key %d: %s targets missing layer", l, pos, k)
			}
		}
	}
	for pos, k := range Layers[0] {
		if k == Transparent {
			return fmt.Errorf("base layer key %d is transparent", pos)
		}
	}
	return nil
}

// WriteLayer prints layer l as a grid of key names.
func WriteLayer(w io.Writer, l int) error {
	if l < 0 || l >= NumLayers {
		return fmt.Errorf("layer %d out of range", l)
	}

	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintf(tw, "layer %d\n", l)
	layer := Layers[l]
	for row := range 5 {
		keys := make([]string, 12)
		for col := range 12 {
			keys[col] = layer[row*12+col].String()
		}
		fmt.Fprintln(tw, strings.Join(keys, "\t")+"\t")
	}
	enc := make([]string, NumEncoders)
	for i := range NumEncoders {
		a := Encoders[l][i]
		enc[i] = fmt.Sprintf("%s [%s/%s]", layer[60+i], a.CCW, a.CW)
	}
	fmt.Fprintln(tw, strings.Join(enc, "\t")+"\t")
	return tw.Flush()
}

// WriteLEDs prints the LED layout, one LED per line.
func WriteLEDs(w io.Writer) error {
	tw := tabwriter.NewWriter(w, 0, 0, 1, ' ', 0)
	fmt.Fprintln(tw, "index\tside\tx\ty\tflags\t")
	for _, led := range Layout() {
		side := "right"
		if IsLeft(int(led.Index)) {
			side = "left"
		}
		fmt.Fprintf(tw, "%d\t%s\t%d\t%d\t0x%02x\t\n", led.Index, side, led.X, led.Y, led.Flags)
	}
	return tw.Flush()
}
