package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RejectsUnknownLevel(t *testing.T) {
	_, err := New(Config{Level: "verbose"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "verbose")
}

func TestNew_LevelGatesOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "warn", Output: &buf})
	require.NoError(t, err)

	log.Info().Msg("suppressed")
	assert.Zero(t, buf.Len())

	log.Warn().Msg("visible")
	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "warn", entry["level"])
	assert.Equal(t, "visible", entry["message"])
}

func TestNew_DefaultsToInfo(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Output: &buf})
	require.NoError(t, err)

	log.Debug().Msg("suppressed")
	assert.Zero(t, buf.Len())

	log.Info().Msg("visible")
	assert.Contains(t, buf.String(), "visible")
}

func TestNew_PrettyConsoleOutput(t *testing.T) {
	var buf bytes.Buffer
	log, err := New(Config{Level: "info", Pretty: true, Output: &buf})
	require.NoError(t, err)

	log.Info().Str("component", "pricing").Msg("started")
	out := buf.String()
	assert.Contains(t, out, "started")
	assert.Contains(t, out, "component=")
}