package sink

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/itohio/kbtelemetry/pkg/sampler"
	"github.com/itohio/kbtelemetry/pkg/telemetry"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	megabyte = 1024 * 1024
	// defaultMaxSizeMB mirrors lumberjack's own default for MaxSize 0.
	defaultMaxSizeMB = 100
)

// File records frames as CSV rows into a size-rotated log file.
// Row format: RFC3339 timestamp followed by the four channel values.
// Every file, including rotated ones, starts with the header row.
type File struct {
	mu     sync.Mutex
	logger *lumberjack.Logger
	buf    bytes.Buffer
	csv    *csv.Writer // encodes into buf
	header []string
	max    int64
	size   int64 // bytes in the current file; -1 until the first write
}

// NewFile creates a recorder from the record section. names label the
// channel columns of the header row.
func NewFile(cfg config.RecordConfig, names [sampler.NumChannels]string) (*File, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("record path is empty")
	}

	l := &lumberjack.Logger{
		Filename:   cfg.Path,
		MaxSize:    cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		MaxAge:     cfg.MaxAgeDays,
		Compress:   cfg.Compress,
	}

	maxMB := cfg.MaxSizeMB
	if maxMB <= 0 {
		maxMB = defaultMaxSizeMB
	}

	header := make([]string, 0, sampler.NumChannels+1)
	header = append(header, "timestamp")
	header = append(header, names[:]...)

	s := &File{
		logger: l,
		header: header,
		max:    int64(maxMB) * megabyte,
		size:   -1,
	}
	s.csv = csv.NewWriter(&s.buf)
	return s, nil
}

// Write appends one row. Rotation happens here, before lumberjack would
// rotate on its own, so the header can lead the new file.
func (s *File) Write(_ context.Context, f telemetry.Frame) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.size < 0 {
		s.size = fileSize(s.logger.Filename)
	}

	var row [sampler.NumChannels + 1]string
	row[0] = f.Timestamp.Format(time.RFC3339Nano)
	for i, v := range f.Values {
		row[i+1] = strconv.FormatUint(uint64(v), 10)
	}

	out, err := s.encode(s.size == 0, row[:])
	if err != nil {
		return err
	}
	if s.size > 0 && s.size+int64(len(out)) >= s.max {
		if err := s.logger.Rotate(); err != nil {
			return fmt.Errorf("failed to rotate: %w", err)
		}
		s.size = 0
		if out, err = s.encode(true, row[:]); err != nil {
			return err
		}
	}

	// One write per frame so a crash loses at most one row.
	n, err := s.logger.Write(out)
	s.size += int64(n)
	if err != nil {
		return fmt.Errorf("failed to write row: %w", err)
	}
	return nil
}

// encode renders the row, preceded by the header when withHeader is set.
func (s *File) encode(withHeader bool, row []string) ([]byte, error) {
	s.buf.Reset()
	if withHeader {
		if err := s.csv.Write(s.header); err != nil {
			return nil, fmt.Errorf("failed to write header: %w", err)
		}
	}
	if err := s.csv.Write(row); err != nil {
		return nil, fmt.Errorf("failed to write row: %w", err)
	}
	s.csv.Flush()
	if err := s.csv.Error(); err != nil {
		return nil, err
	}
	return s.buf.Bytes(), nil
}

// Rotate closes the current file and starts a new one.
func (s *File) Rotate() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.size = 0
	return s.logger.Rotate()
}

func (s *File) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.logger.Close()
}

func fileSize(path string) int64 {
	info, err := os.Stat(path)
	if err != nil {
		return 0
	}
	return info.Size()
}
