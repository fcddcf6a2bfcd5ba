package telemetry

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/itohio/kbtelemetry/pkg/mathx"
	"github.com/itohio/kbtelemetry/pkg/sampler"
)

// Mock simulates the keyboard for testing and development. It runs the real
// sampler against simulated analog inputs and parses the lines it writes, so
// frames travel through the same wire format as on hardware.
type Mock struct {
	cfg *config.Config

	frames    chan Frame
	mu        sync.RWMutex
	ctx       context.Context
	cancel    context.CancelFunc
	done      chan struct{}
	connected bool

	host    *simHost
	sampler *sampler.Sampler
}

// NewMock creates a new mocked device instance. A nil cfg uses config.Default.
func NewMock(cfg *config.Config) *Mock {
	if cfg == nil {
		cfg = config.Default()
	}

	ctx, cancel := context.WithCancel(context.Background())

	m := &Mock{
		cfg:    cfg,
		frames: make(chan Frame, DefaultBufferSize),
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
		host:   newSimHost(cfg.Mock),
	}
	m.sampler = sampler.New(cfg.Sampler.Sampler(), m.host, lineParser{m: m})
	return m
}

// Connect starts generating frames.
func (m *Mock) Connect() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.connected {
		return fmt.Errorf("already connected")
	}
	if m.ctx.Err() != nil {
		return fmt.Errorf("device closed")
	}
	if tick := m.cfg.Mock.Tick.Std(); tick < time.Millisecond {
		return fmt.Errorf("mock tick %v below 1ms", tick)
	}

	m.connected = true
	go m.run()

	return nil
}

// Close stops the mocked device and closes the frames channel.
func (m *Mock) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.connected {
		return nil
	}

	m.cancel()
	<-m.done
	m.connected = false

	return nil
}

// Frames returns the channel for reading frames.
func (m *Mock) Frames() <-chan Frame {
	return m.frames
}

// IsConnected returns whether the device is currently connected.
func (m *Mock) IsConnected() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.connected
}

// run advances the simulated main loop once per tick.
func (m *Mock) run() {
	defer close(m.done)
	defer close(m.frames)

	ticker := time.NewTicker(m.cfg.Mock.Tick.Std())
	defer ticker.Stop()

	for {
		select {
		case <-m.ctx.Done():
			return
		case <-ticker.C:
			m.step()
		}
	}
}

// step advances the simulated clock by one tick and polls the sampler.
// It returns true when the sampler emitted a line.
func (m *Mock) step() bool {
	m.host.advance(uint32(m.cfg.Mock.Tick.Std().Milliseconds()))
	return m.sampler.Poll()
}

// lineParser receives the sampler output and turns it back into frames.
type lineParser struct {
	m *Mock
}

func (p lineParser) Write(b []byte) (int, error) {
	vals, err := ParseLine(string(b))
	if err != nil {
		return 0, err
	}
	emit(p.m.ctx, p.m.frames, Frame{Timestamp: time.Now(), Values: vals})
	return len(b), nil
}

// simHost simulates four sliders sweeping with a quarter period phase shift.
type simHost struct {
	master bool
	noise  float32
	period float32 // ms
	ms     uint32
	rnd    *rand.Rand
}

func newSimHost(cfg config.MockConfig) *simHost {
	period := float32(cfg.Period.Std().Milliseconds())
	if period <= 0 {
		period = 1
	}
	return &simHost{
		master: cfg.Role != config.RoleSlave,
		noise:  cfg.Noise,
		period: period,
		rnd:    rand.New(rand.NewPCG(1, 2)),
	}
}

func (h *simHost) advance(ms uint32) {
	h.ms += ms
}

func (h *simHost) IsMaster() bool {
	return h.master
}

func (h *simHost) Millis() uint32 {
	return h.ms
}

func (h *simHost) ReadChannel(ch int) uint16 {
	const half = sampler.RawMax / 2.0

	phase := 2*math32.Pi*float32(h.ms)/h.period + float32(ch)*math32.Pi/2
	v := half * (1 + math32.Sin(phase))
	v += h.noise * (2*h.rnd.Float32() - 1)

	return uint16(mathx.Clamp(v, 0, sampler.RawMax))
}
