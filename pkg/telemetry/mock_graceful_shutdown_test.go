package telemetry

import (
	"testing"
	"time"

	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/stretchr/testify/assert"
)

// TestMock_GracefulShutdown tests that Mock device closes the frames channel
// when Close() is called.
func TestMock_GracefulShutdown(t *testing.T) {
	cfg := config.Default()
	cfg.Mock.Tick = config.Duration(10 * time.Millisecond)
	cfg.Sampler.Interval = config.Duration(20 * time.Millisecond)

	mock := NewMock(cfg)
	err := mock.Connect()
	assert.NoError(t, err)

	frames := mock.Frames()

	received := 0
	done := make(chan struct{})
	go func() {
		defer close(done)
		for range frames {
			received++
			if received == 3 {
				mock.Close()
			}
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Frames channel did not close within timeout")
	}

	assert.GreaterOrEqual(t, received, 3, "Should receive frames before channel closes")
	assert.False(t, mock.IsConnected())

	_, ok := <-frames
	assert.False(t, ok, "Channel should be closed")
}

// TestMock_ReconnectAfterClose tests that a closed mock refuses to restart.
func TestMock_ReconnectAfterClose(t *testing.T) {
	mock := NewMock(nil)
	assert.NoError(t, mock.Connect())
	assert.Error(t, mock.Connect(), "already connected")
	assert.NoError(t, mock.Close())
	assert.Error(t, mock.Connect(), "device closed")
}
