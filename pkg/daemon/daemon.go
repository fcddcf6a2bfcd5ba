// Package daemon connects a telemetry device to the configured sinks.
package daemon

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/itohio/kbtelemetry/pkg/sink"
	"github.com/itohio/kbtelemetry/pkg/telemetry"
	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"
)

// ErrDisconnected is returned by Run when the device stops sending frames
// before the context is canceled.
var ErrDisconnected = errors.New("device disconnected")

// redisPingTimeout bounds the startup connectivity check.
const redisPingTimeout = 3 * time.Second

// Options select the outputs that are not part of the config file.
type Options struct {
	Mock   bool      // Use the simulated keyboard instead of the serial port
	Stdout io.Writer // Echo lines in wire format; nil disables
}

// Daemon forwards frames from one device to a set of sinks.
type Daemon struct {
	cfg    *config.Config
	logger *slog.Logger
	device telemetry.Device
	sink   sink.Sink
}

// New creates a daemon from cfg. It opens the recorder and checks Redis,
// but does not connect the device.
func New(cfg *config.Config, logger *slog.Logger, opts Options) (*Daemon, error) {
	if err := cfg.Validate(); err != nil {
		return nil, errors.Wrap(err, "invalid configuration")
	}

	var device telemetry.Device
	if opts.Mock {
		device = telemetry.NewMock(cfg)
	} else {
		device = telemetry.New(cfg.Serial.Port, cfg.Serial.Baud, telemetry.DefaultBufferSize)
	}

	sinks, err := openSinks(cfg, logger, opts)
	if err != nil {
		return nil, err
	}

	return NewWithDevice(cfg, logger, device, sinks), nil
}

// NewWithDevice creates a daemon around an existing device and sink.
func NewWithDevice(cfg *config.Config, logger *slog.Logger, device telemetry.Device, s sink.Sink) *Daemon {
	return &Daemon{
		cfg:    cfg,
		logger: logger,
		device: device,
		sink:   s,
	}
}

func openSinks(cfg *config.Config, logger *slog.Logger, opts Options) (sink.Multi, error) {
	var sinks sink.Multi

	if opts.Stdout != nil {
		sinks = append(sinks, sink.NewWriter(opts.Stdout))
	}

	if cfg.Record.Path != "" {
		f, err := sink.NewFile(cfg.Record, cfg.ChannelNames())
		if err != nil {
			return nil, errors.Wrap(err, "failed to open recorder")
		}
		logger.Debug("recording frames", "path", cfg.Record.Path)
		sinks = append(sinks, f)
	}

	if cfg.Redis.Addr != "" {
		r, err := sink.NewRedis(cfg.Redis)
		if err != nil {
			sinks.Close()
			return nil, errors.Wrap(err, "failed to create redis sink")
		}

		ctx, cancel := context.WithTimeout(context.Background(), redisPingTimeout)
		err = r.Ping(ctx)
		cancel()
		if err != nil {
			r.Close()
			sinks.Close()
			return nil, errors.Wrapf(err, "redis at %s", cfg.Redis.Addr)
		}
		logger.Debug("publishing frames", "addr", cfg.Redis.Addr, "channel", cfg.Redis.Channel)
		sinks = append(sinks, r)
	}

	return sinks, nil
}

// Run connects the device and forwards frames until ctx is canceled or the
// device goes away. Sinks are closed on return.
func (d *Daemon) Run(ctx context.Context) error {
	defer func() {
		if err := d.sink.Close(); err != nil {
			d.logger.Warn("failed to close sinks", "err", err)
		}
	}()

	if err := d.device.Connect(); err != nil {
		return errors.Wrap(err, "failed to connect device")
	}

	errg, ctx := errgroup.WithContext(ctx)
	errg.Go(func() error {
		<-ctx.Done()
		d.logger.Debug("closing device")
		if err := d.device.Close(); err != nil {
			return errors.Wrap(err, "failed to close device")
		}
		return ctx.Err()
	})

	errg.Go(func() error {
		return d.forward(ctx)
	})

	return errg.Wait()
}

// forward copies frames to the sink. It returns ErrDisconnected when the
// frames channel closes while ctx is still live.
func (d *Daemon) forward(ctx context.Context) error {
	frames := d.device.Frames()
	var count, failed uint64

	for {
		select {
		case <-ctx.Done():
			d.logger.Debug("forwarding stopped", "frames", count, "failed", failed)
			return ctx.Err()

		case f, ok := <-frames:
			if !ok {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				return ErrDisconnected
			}

			count++
			if err := d.sink.Write(ctx, f); err != nil {
				failed++
				d.logger.Warn("failed to write frame", "err", err)
				continue
			}
			d.logger.Debug("frame", "values", f.Values)
		}
	}
}
