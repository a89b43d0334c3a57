package audit

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoggerRecentNewestFirst(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "audit", "events.db")
	logger := NewLogger(dbPath)
	require.NotEmpty(t, logger.RunID)

	require.NoError(t, logger.LogEvent("cli", "refresh_started", map[string]any{"target": "2024"}))
	require.NoError(t, logger.LogEvent("cli", "refresh_finished", map[string]any{"teams": 3}))

	events, err := logger.Recent(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, events, 2)

	assert.Equal(t, "refresh_finished", events[0].Type)
	assert.Equal(t, "refresh_started", events[1].Type)
	for _, ev := range events {
		assert.Equal(t, logger.RunID, ev.RunID)
		assert.Equal(t, "cli", ev.Actor)
		assert.False(t, ev.TS.IsZero())
	}

	var payload map[string]int
	require.NoError(t, json.Unmarshal(events[0].Payload, &payload))
	assert.Equal(t, 3, payload["teams"])
}

func TestLoggerRecentLimit(t *testing.T) {
	logger := NewLogger(filepath.Join(t.TempDir(), "events.db"))
	for i := 0; i < 5; i++ {
		require.NoError(t, logger.LogEvent("cli", "tick", i))
	}
	events, err := logger.Recent(context.Background(), 2)
	require.NoError(t, err)
	assert.Len(t, events, 2)
}

func TestLoggerUsesEnvPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "env.db")
	t.Setenv(EnvDBPath, dbPath)

	var logger *Logger
	require.NoError(t, logger.LogEvent("cli", "init", nil))

	events, err := NewLogger(dbPath).Recent(context.Background(), 0)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "init", events[0].Type)
	assert.NotEmpty(t, events[0].RunID)
}
