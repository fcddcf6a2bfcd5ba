package sampler

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeHost is a scripted Host.
type fakeHost struct {
	master bool
	now    uint32
	raw    [NumChannels]uint16
	reads  int
}

func (h *fakeHost) IsMaster() bool { return h.master }

func (h *fakeHost) ReadChannel(ch int) uint16 {
	h.reads++
	return h.raw[ch]
}

func (h *fakeHost) Millis() uint32 { return h.now }

// lineRecorder counts writes and keeps their content.
type lineRecorder struct {
	lines []string
}

func (r *lineRecorder) Write(p []byte) (int, error) {
	r.lines = append(r.lines, string(p))
	return len(p), nil
}

func TestRescale(t *testing.T) {
	tests := []struct {
		raw  uint16
		want uint16
	}{
		{raw: 0, want: 0},
		{raw: 40, want: 9},
		{raw: 45, want: 11},
		{raw: 2048, want: 511},
		{raw: 4095, want: 1023},
		{raw: 65535, want: 1023},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Rescale(tt.raw), "raw=%d", tt.raw)
	}
}

func TestRescale_MatchesTruncatedFormula(t *testing.T) {
	for raw := uint32(0); raw <= RawMax; raw++ {
		want := uint16(raw * FilteredMax / RawMax)
		if got := Rescale(uint16(raw)); got != want {
			t.Fatalf("Rescale(%d) = %d, want %d", raw, got, want)
		}
	}
}

func TestSmooth_FloorClamp(t *testing.T) {
	cfg := DefaultConfig()
	for r := uint16(0); r < DefaultFloor; r++ {
		for _, prev := range []uint16{0, 1, 500, 1023} {
			assert.Equal(t, uint16(0), Smooth(cfg, prev, r), "r=%d prev=%d", r, prev)
		}
	}
}

func TestSmooth_CeilingClamp(t *testing.T) {
	cfg := DefaultConfig()
	for r := uint16(DefaultCeiling + 1); r <= FilteredMax; r++ {
		for _, prev := range []uint16{0, 1, 500, 1023} {
			assert.Equal(t, uint16(FilteredMax), Smooth(cfg, prev, r), "r=%d prev=%d", r, prev)
		}
	}
}

func TestSmooth_FilterIsTruncatedEMA(t *testing.T) {
	cfg := DefaultConfig()
	for r := uint16(DefaultFloor); r <= DefaultCeiling; r++ {
		for prev := uint16(0); prev <= FilteredMax; prev++ {
			want := uint16(math.Floor((float64(r) + 4*float64(prev)) / 5))
			got := Smooth(cfg, prev, r)
			if got != want {
				t.Fatalf("Smooth(prev=%d, r=%d) = %d, want %d", prev, r, got, want)
			}
			if got > FilteredMax {
				t.Fatalf("Smooth(prev=%d, r=%d) = %d out of range", prev, r, got)
			}
		}
	}
}

func TestSmooth_SettlesBelowOddTarget(t *testing.T) {
	cfg := DefaultConfig()
	var v uint16
	for range 200 {
		v = Smooth(cfg, v, 511)
	}
	// Truncation stops the approach a few counts short of the target.
	assert.Less(t, v, uint16(511))
	assert.GreaterOrEqual(t, v, uint16(507))
}

func TestSmooth_InvalidAlphaFallsBackToDefault(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Alpha = Ratio{}
	assert.Equal(t, uint16(102), Smooth(cfg, 0, 511))

	// A denominator this large would wrap the blend arithmetic.
	cfg.Alpha = Ratio{Num: 1 << 21, Den: 1 << 23}
	assert.Equal(t, uint16(102), Smooth(cfg, 0, 511))
}

func TestAppendLine(t *testing.T) {
	assert.Equal(t, "0|0|0|0\r\n", string(AppendLine(nil, [NumChannels]uint16{})))
	assert.Equal(t, "1023|1023|0|102\r\n", string(AppendLine(nil, [NumChannels]uint16{1023, 1023, 0, 102})))

	widest := AppendLine(nil, [NumChannels]uint16{1023, 1023, 1023, 1023})
	assert.Equal(t, "1023|1023|1023|1023\r\n", string(widest))
	assert.Less(t, len(widest), LineCapacity)
}

func TestAppendLine_ReusesBuffer(t *testing.T) {
	var buf [LineCapacity]byte
	line := AppendLine(buf[:0], [NumChannels]uint16{1, 2, 3, 4})
	assert.Equal(t, "1|2|3|4\r\n", string(line))
	assert.Same(t, &buf[0], &line[0])
}

func TestPoll_EndToEnd(t *testing.T) {
	host := &fakeHost{master: true, now: 100, raw: [NumChannels]uint16{4095, 4095, 0, 2048}}
	var out bytes.Buffer
	var st State

	sent := Poll(&st, DefaultConfig(), host, &out, nil)

	require.True(t, sent)
	assert.Equal(t, "1023|1023|0|102\r\n", out.String())
	assert.Equal(t, [NumChannels]uint16{1023, 1023, 0, 102}, st.Filtered)
	assert.Equal(t, uint32(100), st.LastRun)
}

func TestPoll_RoleGuard(t *testing.T) {
	host := &fakeHost{master: false, raw: [NumChannels]uint16{2048, 2048, 2048, 2048}}
	rec := &lineRecorder{}
	var st State

	for now := uint32(0); now < 10_000; now += 50 {
		host.now = now
		assert.False(t, Poll(&st, DefaultConfig(), host, rec, nil))
	}

	assert.Empty(t, rec.lines)
	assert.Zero(t, host.reads)
	assert.Equal(t, State{}, st)
}

func TestPoll_RateGate(t *testing.T) {
	tests := []struct {
		name      string
		first     uint32
		second    uint32
		wantLines int
	}{
		{name: "same instant", first: 1000, second: 1000, wantLines: 1},
		{name: "within window", first: 1000, second: 1099, wantLines: 1},
		{name: "exactly one interval", first: 1000, second: 1100, wantLines: 2},
		{name: "well apart", first: 1000, second: 5000, wantLines: 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			host := &fakeHost{master: true, raw: [NumChannels]uint16{2048, 2048, 2048, 2048}}
			rec := &lineRecorder{}
			var st State
			cfg := DefaultConfig()

			host.now = tt.first
			Poll(&st, cfg, host, rec, nil)
			host.now = tt.second
			Poll(&st, cfg, host, rec, nil)

			assert.Len(t, rec.lines, tt.wantLines)
		})
	}
}

func TestPoll_BeforeFirstInterval(t *testing.T) {
	host := &fakeHost{master: true, now: 99}
	rec := &lineRecorder{}
	var st State

	assert.False(t, Poll(&st, DefaultConfig(), host, rec, nil))
	assert.Empty(t, rec.lines)
}

func TestPoll_IdempotentWithinWindow(t *testing.T) {
	host := &fakeHost{master: true, now: 500, raw: [NumChannels]uint16{1000, 2000, 3000, 4000}}
	rec := &lineRecorder{}
	var st State
	cfg := DefaultConfig()

	require.True(t, Poll(&st, cfg, host, rec, nil))
	after := st

	host.now = 550
	host.raw = [NumChannels]uint16{0, 0, 0, 0}
	assert.False(t, Poll(&st, cfg, host, rec, nil))

	assert.Equal(t, after, st)
	assert.Len(t, rec.lines, 1)
}

func TestPoll_ClockWrapAround(t *testing.T) {
	host := &fakeHost{master: true, raw: [NumChannels]uint16{2048, 2048, 2048, 2048}}
	rec := &lineRecorder{}
	st := State{LastRun: math.MaxUint32 - 50}
	cfg := DefaultConfig()

	host.now = 20 // 71ms after LastRun
	assert.False(t, Poll(&st, cfg, host, rec, nil))

	host.now = 49 // 100ms after LastRun
	assert.True(t, Poll(&st, cfg, host, rec, nil))
	assert.Equal(t, uint32(49), st.LastRun)
}

func TestPoll_IgnoresWriteErrors(t *testing.T) {
	host := &fakeHost{master: true, now: 200, raw: [NumChannels]uint16{2048, 2048, 2048, 2048}}
	var st State

	assert.True(t, Poll(&st, DefaultConfig(), host, failingWriter{}, nil))
	assert.Equal(t, [NumChannels]uint16{102, 102, 102, 102}, st.Filtered)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, assert.AnError }

func TestSampler(t *testing.T) {
	host := &fakeHost{master: true, raw: [NumChannels]uint16{2048, 2048, 2048, 2048}}
	var out bytes.Buffer
	s := New(DefaultConfig(), host, &out)

	var sent int
	for now := uint32(0); now <= 1000; now += 10 {
		host.now = now
		if s.Poll() {
			sent++
		}
	}

	// Runs at 100, 200, ..., 1000.
	assert.Equal(t, 10, sent)
	assert.Equal(t, uint32(1000), s.State().LastRun)
	var want uint16
	for range sent {
		want = Smooth(DefaultConfig(), want, 511)
	}
	assert.Equal(t, [NumChannels]uint16{want, want, want, want}, s.Values())

	s.Reset()
	assert.Equal(t, State{}, s.State())
}

func TestFuncs(t *testing.T) {
	var out bytes.Buffer
	host := Funcs{
		Read: func(ch int) uint16 { return uint16(ch) * 1000 },
		Now:  func() uint32 { return 100 },
	}
	s := New(DefaultConfig(), host, &out)

	require.True(t, s.Poll())
	// Rescaled: 0, 249, 499, 749
	assert.Equal(t, "0|49|99|149\r\n", out.String())
}
