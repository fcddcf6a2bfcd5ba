package daemon

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/itohio/kbtelemetry/pkg/sampler"
	"github.com/itohio/kbtelemetry/pkg/telemetry"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// chanDevice is a Device fed by the test.
type chanDevice struct {
	frames     chan telemetry.Frame
	connectErr error
	closeOnce  sync.Once
	mu         sync.Mutex
	connected  bool
}

func newChanDevice() *chanDevice {
	return &chanDevice{frames: make(chan telemetry.Frame, 10)}
}

func (d *chanDevice) Connect() error {
	if d.connectErr != nil {
		return d.connectErr
	}
	d.mu.Lock()
	d.connected = true
	d.mu.Unlock()
	return nil
}

func (d *chanDevice) Close() error {
	d.closeOnce.Do(func() { close(d.frames) })
	d.mu.Lock()
	d.connected = false
	d.mu.Unlock()
	return nil
}

func (d *chanDevice) Frames() <-chan telemetry.Frame { return d.frames }

func (d *chanDevice) IsConnected() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.connected
}

// memSink records frames.
type memSink struct {
	mu     sync.Mutex
	frames []telemetry.Frame
	err    error
	closed bool
}

func (s *memSink) Write(_ context.Context, f telemetry.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.frames = append(s.frames, f)
	return nil
}

func (s *memSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *memSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.frames)
}

func TestRun_ForwardsUntilDisconnect(t *testing.T) {
	dev := newChanDevice()
	mem := &memSink{}
	d := NewWithDevice(config.Default(), discardLogger(), dev, mem)

	dev.frames <- telemetry.Frame{Values: [sampler.NumChannels]uint16{1023, 1023, 0, 102}}
	dev.frames <- telemetry.Frame{Values: [sampler.NumChannels]uint16{1, 2, 3, 4}}
	dev.Close()

	err := d.Run(context.Background())

	assert.ErrorIs(t, err, ErrDisconnected)
	require.Len(t, mem.frames, 2)
	assert.Equal(t, uint16(102), mem.frames[0].Values[3])
	assert.True(t, mem.closed)
}

func TestRun_ContextCancel(t *testing.T) {
	dev := newChanDevice()
	mem := &memSink{}
	d := NewWithDevice(config.Default(), discardLogger(), dev, mem)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- d.Run(ctx) }()

	dev.frames <- telemetry.Frame{}
	require.Eventually(t, func() bool { return mem.count() == 1 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not return after cancel")
	}
	assert.False(t, dev.IsConnected())
	assert.True(t, mem.closed)
}

func TestRun_ConnectFailure(t *testing.T) {
	dev := newChanDevice()
	dev.connectErr = errors.New("no such port")
	mem := &memSink{}
	d := NewWithDevice(config.Default(), discardLogger(), dev, mem)

	err := d.Run(context.Background())

	assert.ErrorContains(t, err, "failed to connect device")
	assert.ErrorContains(t, err, "no such port")
	assert.True(t, mem.closed)
}

func TestRun_SinkErrorsDoNotStop(t *testing.T) {
	dev := newChanDevice()
	mem := &memSink{err: assert.AnError}
	d := NewWithDevice(config.Default(), discardLogger(), dev, mem)

	dev.frames <- telemetry.Frame{}
	dev.frames <- telemetry.Frame{}
	dev.Close()

	assert.ErrorIs(t, d.Run(context.Background()), ErrDisconnected)
}

func TestNew_Mock(t *testing.T) {
	cfg := config.Default()
	cfg.Record.Path = filepath.Join(t.TempDir(), "rec.csv")

	var out bytes.Buffer
	d, err := New(cfg, discardLogger(), Options{Mock: true, Stdout: &out})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
	defer cancel()

	err = d.Run(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	// Mock ticks 10ms per 10ms of wall time, so the sampler emits about
	// every 100ms.
	lines := bytes.Count(out.Bytes(), []byte("\r\n"))
	assert.GreaterOrEqual(t, lines, 1)
	assert.FileExists(t, cfg.Record.Path)
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.Default()
	cfg.Channels = cfg.Channels[:2]

	_, err := New(cfg, discardLogger(), Options{Mock: true})
	assert.ErrorContains(t, err, "invalid configuration")
}

func TestNew_NegativeMockTick(t *testing.T) {
	cfg := config.Default()
	cfg.Mock.Tick = config.Duration(-5 * time.Millisecond)

	_, err := New(cfg, discardLogger(), Options{Mock: true})
	assert.ErrorContains(t, err, "mock tick")
}

func TestNew_RedisUnreachable(t *testing.T) {
	cfg := config.Default()
	cfg.Redis.Addr = "127.0.0.1:1"

	_, err := New(cfg, discardLogger(), Options{Mock: true})
	assert.ErrorContains(t, err, "redis at 127.0.0.1:1")
}
