package main

import (
	"bytes"
	"testing"

	"github.com/itohio/kbtelemetry/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPrintKeymap(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, printKeymap(&buf))

	out := buf.String()
	assert.Contains(t, out, "layer 0")
	assert.Contains(t, out, "layer 3")
	assert.Contains(t, out, "index")
}

func TestApplyFlags(t *testing.T) {
	defer func() { port, record, redisAddr = "", "", "" }()

	cfg := config.Default()
	applyFlags(cfg)
	assert.Equal(t, config.Default().Serial.Port, cfg.Serial.Port)
	assert.Empty(t, cfg.Record.Path)

	port, record, redisAddr = "/dev/ttyACM3", "out.csv", "localhost:6379"
	applyFlags(cfg)
	assert.Equal(t, "/dev/ttyACM3", cfg.Serial.Port)
	assert.Equal(t, "out.csv", cfg.Record.Path)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
}
