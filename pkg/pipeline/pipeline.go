// Package pipeline chains a telemetry device into the display window and the
// optional recorder.
package pipeline

import (
	"context"
	"log"

	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/itohio/kbtelemetry/pkg/sample"
	"github.com/itohio/kbtelemetry/pkg/sink"
	"github.com/itohio/kbtelemetry/pkg/telemetry"
	"github.com/itohio/kbtelemetry/pkg/window"
)

// BufSize sizes every stage channel.
const BufSize = 500

// Chain tracks the components of a running pipeline for graceful shutdown.
type Chain struct {
	device   telemetry.Device
	window   *window.Window
	recorder sink.Sink
	cancel   context.CancelFunc

	windowDone   chan struct{} // Closed when the window goroutine exits
	recorderDone chan struct{} // Closed when the recorder goroutine exits
}

// Start wires device frames into w, and into the recorder when one is
// configured:
//
//	device -> tee -> converter -> [averaging] -> window
//	              \-> recorder
//
// A nil w gets a fresh window sized from cfg. A window from a closed chain
// keeps its history and callbacks. The device must already be connected.
func Start(cfg *config.Config, device telemetry.Device, w *window.Window) (*Chain, error) {
	var recorder sink.Sink
	if cfg.Record.Path != "" {
		f, err := sink.NewFile(cfg.Record, cfg.ChannelNames())
		if err != nil {
			return nil, err
		}
		recorder = f
	}

	if w == nil {
		w = window.New(cfg)
	}
	w.ResetShutdown()

	ctx, cancel := context.WithCancel(context.Background())
	c := &Chain{
		device:       device,
		window:       w,
		recorder:     recorder,
		cancel:       cancel,
		windowDone:   make(chan struct{}),
		recorderDone: make(chan struct{}),
	}
	toScope, toRecorder := Tee(device.Frames(), recorder != nil)

	stream := sample.NewConverter(BufSize)(toScope)
	if cfg.Display.AverageSamples > 0 {
		stream = sample.NewAveragingConverter(cfg.Display.AverageSamples, BufSize, sample.DefaultAverageEvery)(stream)
	}

	go func() {
		defer close(c.windowDone)
		c.window.ProcessSamples(stream)
	}()

	go func() {
		defer close(c.recorderDone)
		if toRecorder == nil {
			return
		}
		n := sink.Drain(ctx, toRecorder, recorder)
		log.Printf("Recorded %d frames to %s", n, cfg.Record.Path)
	}()

	return c, nil
}

// Window returns the window fed by the chain.
func (c *Chain) Window() *window.Window {
	return c.window
}

// Close stops the device and waits for every stage to drain.
// A nil chain is a no-op.
func (c *Chain) Close() {
	if c == nil {
		return
	}

	// Closing the device closes the frames channel, which drains the stages.
	if err := c.device.Close(); err != nil {
		log.Printf("Error closing device: %v", err)
	}

	<-c.windowDone
	<-c.recorderDone
	c.cancel()

	if c.recorder != nil {
		if err := c.recorder.Close(); err != nil {
			log.Printf("Error closing recorder: %v", err)
		}
	}
}

// Tee duplicates in. The second output is nil unless withSecond is set.
// Both outputs close when in closes.
func Tee(in <-chan telemetry.Frame, withSecond bool) (<-chan telemetry.Frame, <-chan telemetry.Frame) {
	first := make(chan telemetry.Frame, BufSize)
	var second chan telemetry.Frame
	if withSecond {
		second = make(chan telemetry.Frame, BufSize)
	}

	go func() {
		defer close(first)
		if second != nil {
			defer close(second)
		}
		for f := range in {
			first <- f
			if second != nil {
				select {
				case second <- f:
				default:
					log.Printf("Recorder falling behind, dropping frame")
				}
			}
		}
	}()

	if second == nil {
		return first, nil
	}
	return first, second
}
