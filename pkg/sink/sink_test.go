package sink

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/itohio/kbtelemetry/pkg/sampler"
	"github.com/itohio/kbtelemetry/pkg/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordSink struct {
	frames []telemetry.Frame
	err    error
	closed bool
}

func (r *recordSink) Write(_ context.Context, f telemetry.Frame) error {
	if r.err != nil {
		return r.err
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *recordSink) Close() error {
	r.closed = true
	return r.err
}

type closeBuffer struct {
	bytes.Buffer
	closed bool
}

func (b *closeBuffer) Close() error {
	b.closed = true
	return nil
}

func frame(vals ...uint16) telemetry.Frame {
	var f telemetry.Frame
	f.Timestamp = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	copy(f.Values[:], vals)
	return f
}

func TestWriter(t *testing.T) {
	var buf closeBuffer
	w := NewWriter(&buf)

	require.NoError(t, w.Write(context.Background(), frame(1023, 1023, 0, 102)))
	require.NoError(t, w.Write(context.Background(), frame(1, 2, 3, 4)))
	assert.Equal(t, "1023|1023|0|102\r\n1|2|3|4\r\n", buf.String())

	require.NoError(t, w.Close())
	assert.True(t, buf.closed)
}

func TestWriter_NotCloser(t *testing.T) {
	var buf bytes.Buffer
	assert.NoError(t, NewWriter(&buf).Close())
}

func TestMulti(t *testing.T) {
	a := &recordSink{}
	b := &recordSink{err: assert.AnError}
	c := &recordSink{}
	m := Multi{a, b, c}

	err := m.Write(context.Background(), frame(1, 2, 3, 4))
	assert.ErrorIs(t, err, assert.AnError)
	assert.Len(t, a.frames, 1, "failure of one sink must not stop the others")
	assert.Len(t, c.frames, 1)

	assert.ErrorIs(t, m.Close(), assert.AnError)
	assert.True(t, a.closed)
	assert.True(t, c.closed)
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, Multi{}.Write(context.Background(), frame()))
	assert.NoError(t, Multi{}.Close())
}

func TestDrain(t *testing.T) {
	in := make(chan telemetry.Frame, 3)
	in <- frame(1)
	in <- frame(2)
	in <- frame(3)
	close(in)

	rec := &recordSink{}
	n := Drain(context.Background(), in, rec)

	assert.Equal(t, 3, n)
	require.Len(t, rec.frames, 3)
	assert.Equal(t, uint16(3), rec.frames[2].Values[0])
}

func TestDrain_ContinuesOnError(t *testing.T) {
	in := make(chan telemetry.Frame, 2)
	in <- frame(1)
	in <- frame(2)
	close(in)

	assert.Equal(t, 0, Drain(context.Background(), in, &recordSink{err: assert.AnError}))
	assert.Empty(t, in, "all frames consumed")
}

func TestDrain_ContextCancel(t *testing.T) {
	in := make(chan telemetry.Frame)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan int)
	go func() {
		done <- Drain(ctx, in, &recordSink{})
	}()

	cancel()
	select {
	case n := <-done:
		assert.Equal(t, 0, n)
	case <-time.After(2 * time.Second):
		t.Fatal("Drain did not stop on context cancel")
	}
}

func TestHashFields(t *testing.T) {
	f := frame(1023, 1023, 0, 102)
	fields := hashFields(f)

	assert.Len(t, fields, sampler.NumChannels+1)
	assert.Equal(t, uint16(1023), fields["ch0"])
	assert.Equal(t, uint16(102), fields["ch3"])
	assert.Equal(t, f.Timestamp.UnixMilli(), fields["timestamp"])
}
