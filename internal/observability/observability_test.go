package observability

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTurnContext_LogsBaseFields(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	turn := NewTurnContext(logger, "thread-1", "user-1")
	turn.Route = "email"
	turn.Info("turn finished", slog.Int64(LogFieldDuration, 12))

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	assert.Equal(t, "turn finished", record["msg"])
	assert.Equal(t, "thread-1", record[LogFieldThreadID])
	assert.Equal(t, "user-1", record[LogFieldUserID])
	assert.Equal(t, "email", record[LogFieldRoute])
	assert.NotEmpty(t, record[LogFieldRequestID])
}

func TestTurnContext_RoundTripThroughContext(t *testing.T) {
	turn := NewTurnContext(nil, "t", "u")
	ctx := WithTurnContext(context.Background(), turn)

	got, ok := FromContext(ctx)
	require.True(t, ok)
	assert.Same(t, turn, got)

	_, ok = FromContext(context.Background())
	assert.False(t, ok)
	assert.NotNil(t, LoggerFromContext(context.Background()))
}

func TestMetrics_Snapshot(t *testing.T) {
	m := NewMetrics()
	m.RecordTurn("email", 100*time.Millisecond)
	m.RecordTurn("email", 300*time.Millisecond)
	m.RecordTurn("end", 10*time.Millisecond)
	m.RecordFailure("email")
	m.RecordMemoryFailure()

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TurnTotal)
	assert.Equal(t, int64(1), snap.TurnFailed)
	assert.Equal(t, int64(1), snap.MemoryFailures)
	require.Len(t, snap.Routes, 2)
	assert.Equal(t, "email", snap.Routes[0].Route)
	assert.Equal(t, int64(2), snap.Routes[0].Count)
	assert.Equal(t, int64(1), snap.Routes[0].ErrorCount)
	assert.Equal(t, int64(200), snap.Routes[0].AverageDurationMs)
	assert.InDelta(t, 66.67, snap.SuccessRate(), 0.01)

	m.Reset()
	assert.Equal(t, int64(0), m.Snapshot().TurnTotal)
	assert.InDelta(t, 100.0, m.Snapshot().SuccessRate(), 0.001)
}

func TestMetrics_ToolCalls(t *testing.T) {
	m := NewMetrics()
	ctx := context.Background()
	m.RecordToolCall(ctx, "send_email", 40*time.Millisecond, true)
	m.RecordToolCall(ctx, "send_email", 60*time.Millisecond, false)
	m.RecordToolCall(ctx, "get_budget", 5*time.Millisecond, true)

	snap := m.Snapshot()
	require.Len(t, snap.Tools, 2)
	assert.Equal(t, "get_budget", snap.Tools[0].Tool)
	assert.Equal(t, ToolSnapshot{Tool: "send_email", Calls: 2, Failures: 1, TotalDurationMs: 100}, snap.Tools[1])

	m.Reset()
	assert.Empty(t, m.Snapshot().Tools)
}
