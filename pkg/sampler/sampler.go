// Package sampler implements the analog telemetry sampler that runs on the
// master half of the keyboard.
//
// Every main-loop iteration the runtime calls Poll. At most once per Interval
// the sampler reads four 12-bit ADC channels, rescales them to 10 bits,
// smooths them with a single-pole low-pass filter and writes one line of the
// form "f1|f2|f3|f4\r\n" to the virtual serial port.
//
// All state lives in State, which the caller owns. Hardware access goes
// through the Host capability interfaces so the same code runs under TinyGo
// and in host-side tests and simulations.
package sampler

import (
	"io"

	"github.com/itohio/kbtelemetry/pkg/mathx"
)

const (
	// NumChannels is the number of analog channels sampled per run.
	NumChannels = 4

	// RawMax is the full-scale reading of the 12-bit ADC.
	RawMax = 4095
	// FilteredMax is the full-scale value of the rescaled 10-bit domain.
	FilteredMax = 1023

	// DefaultInterval is the minimum time between two runs in milliseconds.
	DefaultInterval = 100
	// DefaultFloor: rescaled values below it snap the filter to 0.
	DefaultFloor = 10
	// DefaultCeiling: rescaled values above it snap the filter to FilteredMax.
	DefaultCeiling = 1005

	// LineCapacity is the size of the line buffer used by Sampler.
	// The widest line is "1023|1023|1023|1023\r\n" (21 bytes).
	LineCapacity = 64
)

// Role reports which half of a split keyboard the code runs on.
type Role interface {
	// IsMaster returns true on the half that talks to the host.
	IsMaster() bool
}

// Analog reads raw ADC values.
type Analog interface {
	// ReadChannel returns the 12-bit reading (0-4095) of channel ch.
	// The runtime binds each channel to a fixed pin.
	ReadChannel(ch int) uint16
}

// Clock is a monotonic millisecond clock. It may wrap around.
type Clock interface {
	Millis() uint32
}

// Host bundles the capabilities the sampler needs from the runtime.
type Host interface {
	Role
	Analog
	Clock
}

// State is the persistent sampler state. The zero value is the initial state.
type State struct {
	// Filtered holds the smoothed value of each channel, always in [0, FilteredMax].
	Filtered [NumChannels]uint16
	// LastRun is the clock reading of the last accepted run.
	LastRun uint32
}

// Config tunes the sampler. Use DefaultConfig for the stock keyboard values.
type Config struct {
	Interval uint32 // minimum ms between runs
	Alpha    Ratio  // smoothing factor
	Floor    uint16
	Ceiling  uint16
}

// DefaultConfig returns 100ms interval, alpha 0.2 and 10/1005 clamp thresholds.
func DefaultConfig() Config {
	return Config{
		Interval: DefaultInterval,
		Alpha:    Ratio{Num: 1, Den: 5},
		Floor:    DefaultFloor,
		Ceiling:  DefaultCeiling,
	}
}

// Rescale converts a 12-bit ADC reading into the 10-bit domain using
// raw*1023/4095 with integer truncation. Readings above RawMax are clamped.
func Rescale(raw uint16) uint16 {
	return mathx.MapU16(raw, 0, RawMax, 0, FilteredMax)
}

// Smooth applies the clamp-and-filter step to one channel.
//
// Values below cfg.Floor force 0 and values above cfg.Ceiling force
// FilteredMax. Anything in between moves prev toward rescaled by Alpha.
// The result is truncated, so the filter settles slightly below some targets.
func Smooth(cfg Config, prev, rescaled uint16) uint16 {
	switch {
	case rescaled < cfg.Floor:
		return 0
	case rescaled > cfg.Ceiling:
		return FilteredMax
	}

	alpha := cfg.Alpha
	if !alpha.Valid() {
		alpha = DefaultConfig().Alpha
	}
	v := alpha.Blend(rescaled, prev)
	return mathx.Clamp[uint16](v, 0, FilteredMax)
}

// Poll runs one sampler step against st.
//
// It does nothing unless h reports the master role and at least cfg.Interval
// milliseconds passed since st.LastRun. Otherwise it records the new LastRun,
// updates every channel and writes the formatted line to out. Write errors are
// ignored. buf is scratch space for the line and may be nil.
//
// Poll returns true when a line was written.
func Poll(st *State, cfg Config, h Host, out io.Writer, buf []byte) bool {
	if !h.IsMaster() {
		return false
	}

	now := h.Millis()
	if now-st.LastRun < cfg.Interval {
		return false
	}
	st.LastRun = now

	for ch := range NumChannels {
		rescaled := Rescale(h.ReadChannel(ch))
		st.Filtered[ch] = Smooth(cfg, st.Filtered[ch], rescaled)
	}

	line := AppendLine(buf[:0], st.Filtered)
	_, _ = out.Write(line)
	return true
}

// Sampler owns a State, its Config and a fixed line buffer.
type Sampler struct {
	state State
	cfg   Config
	host  Host
	out   io.Writer
	buf   [LineCapacity]byte
}

// New creates a sampler that reads from host and writes lines to out.
func New(cfg Config, host Host, out io.Writer) *Sampler {
	return &Sampler{
		cfg:  cfg,
		host: host,
		out:  out,
	}
}

// Poll runs one step. See the package level Poll.
func (s *Sampler) Poll() bool {
	return Poll(&s.state, s.cfg, s.host, s.out, s.buf[:])
}

// Values returns the current filtered values.
func (s *Sampler) Values() [NumChannels]uint16 {
	return s.state.Filtered
}

// State returns a copy of the sampler state.
func (s *Sampler) State() State {
	return s.state
}

// Reset returns the sampler to its initial state.
func (s *Sampler) Reset() {
	s.state = State{}
}
