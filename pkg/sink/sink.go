// Package sink fans telemetry frames out to files, streams and Redis.
package sink

import (
	"context"
	"errors"
	"io"
	"log"
	"sync"

	"github.com/itohio/kbtelemetry/pkg/telemetry"
)

// Sink consumes frames.
type Sink interface {
	Write(ctx context.Context, f telemetry.Frame) error
	Close() error
}

var (
	_ Sink = (*Writer)(nil)
	_ Sink = (*File)(nil)
	_ Sink = (*Redis)(nil)
	_ Sink = (Multi)(nil)
)

// Writer writes frames in wire format to an io.Writer.
type Writer struct {
	mu sync.Mutex
	w  io.Writer
}

// NewWriter wraps w. If w is also an io.Closer, Close closes it.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

func (s *Writer) Write(_ context.Context, f telemetry.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := io.WriteString(s.w, f.Line())
	return err
}

func (s *Writer) Close() error {
	if c, ok := s.w.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

// Multi writes every frame to all sinks and joins their errors.
type Multi []Sink

func (m Multi) Write(ctx context.Context, f telemetry.Frame) error {
	var errs []error
	for _, s := range m {
		if err := s.Write(ctx, f); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Drain writes frames from in to s until in closes or ctx is done.
// Write errors are logged and do not stop the loop. It returns the number
// of frames written successfully.
func Drain(ctx context.Context, in <-chan telemetry.Frame, s Sink) int {
	written := 0
	for {
		select {
		case <-ctx.Done():
			return written
		case f, ok := <-in:
			if !ok {
				return written
			}
			if err := s.Write(ctx, f); err != nil {
				log.Printf("Sink write failed: %v", err)
				continue
			}
			written++
		}
	}
}
