package sink

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewFile_EmptyPath(t *testing.T) {
	_, err := NewFile(config.RecordConfig{}, config.Default().ChannelNames())
	assert.Error(t, err)
}

func TestFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "telemetry.csv")
	cfg := config.Default().Record
	cfg.Path = path

	s, err := NewFile(cfg, [4]string{"a", "b", "c", "d"})
	require.NoError(t, err)

	require.NoError(t, s.Write(context.Background(), frame(1023, 1023, 0, 102)))
	require.NoError(t, s.Write(context.Background(), frame(1, 2, 3, 4)))
	require.NoError(t, s.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,a,b,c,d", lines[0])
	assert.Equal(t, "2024-05-01T12:00:00Z,1023,1023,0,102", lines[1])
	assert.Equal(t, "2024-05-01T12:00:00Z,1,2,3,4", lines[2])
}

func TestFile_RotateWritesNewHeader(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default().Record
	cfg.Path = filepath.Join(dir, "telemetry.csv")

	s, err := NewFile(cfg, config.Default().ChannelNames())
	require.NoError(t, err)
	defer s.Close()

	require.NoError(t, s.Write(context.Background(), frame(1)))
	require.NoError(t, s.Rotate())
	require.NoError(t, s.Write(context.Background(), frame(2)))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 2, "current file plus one backup")

	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "timestamp,A0 (GP29)"))
}

func TestFile_SizeRotationKeepsHeader(t *testing.T) {
	dir := t.TempDir()
	cfg := config.Default().Record
	cfg.Path = filepath.Join(dir, "telemetry.csv")
	cfg.MaxSizeMB = 1
	cfg.MaxBackups = 0
	cfg.Compress = false

	s, err := NewFile(cfg, [4]string{"a", "b", "c", "d"})
	require.NoError(t, err)

	// Roughly 1.6MB of rows forces at least one rotation.
	for i := range 40000 {
		v := uint16(i % 1024)
		require.NoError(t, s.Write(context.Background(), frame(v, v, v, v)))
	}
	require.NoError(t, s.Close())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(entries), 2, "current file plus backups")

	for _, e := range entries {
		path := filepath.Join(dir, e.Name())
		data, err := os.ReadFile(path)
		require.NoError(t, err)

		assert.LessOrEqual(t, len(data), megabyte, e.Name())
		first, _, _ := strings.Cut(string(data), "\n")
		assert.Equal(t, "timestamp,a,b,c,d", first, e.Name())
		assert.Equal(t, 1, strings.Count(string(data), "timestamp"), e.Name())
	}
}

func TestFile_AppendSkipsHeader(t *testing.T) {
	cfg := config.Default().Record
	cfg.Path = filepath.Join(t.TempDir(), "telemetry.csv")
	names := [4]string{"a", "b", "c", "d"}

	for _, v := range []uint16{1, 2} {
		s, err := NewFile(cfg, names)
		require.NoError(t, err)
		require.NoError(t, s.Write(context.Background(), frame(v)))
		require.NoError(t, s.Close())
	}

	data, err := os.ReadFile(cfg.Path)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "timestamp,a,b,c,d", lines[0])
	assert.True(t, strings.HasSuffix(lines[2], ",2,0,0,0"))
}
