package logger

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger_WritesJSONWithAttributes(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "debug").With("component", "cache")

	log.Warn("cache degraded", "key", "outlets:uid:R-1")

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "WARN", entry["level"])
	assert.Equal(t, "cache degraded", entry["msg"])
	assert.Equal(t, "cache", entry["component"])
	assert.Equal(t, "outlets:uid:R-1", entry["key"])
}

func TestLogger_LevelFilters(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, "error")

	log.Info("ignored")
	log.Debug("ignored")
	assert.Zero(t, buf.Len())

	log.Error("kept")
	assert.Contains(t, buf.String(), "kept")
}
