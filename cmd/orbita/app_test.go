package main

import (
	"bytes"
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/orbita/internal/profile"
	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/plugin/ai/manager"
	"github.com/hrygo/orbita/plugin/ai/memory"
)

func testProfile(t *testing.T) *profile.Profile {
	t.Helper()
	dir := t.TempDir()
	prof := &profile.Profile{Mode: "dev", Data: dir, Driver: "sqlite", DSN: filepath.Join(dir, "orbita.db")}
	prof.FromEnv()
	prof.EmailAddress = ""
	prof.SePayAPIToken = ""
	prof.CalendarBackend = "local"
	require.NoError(t, prof.Validate())
	return prof
}

func TestNewApp_TurnPersists(t *testing.T) {
	ctx := context.Background()
	llm := ai.NewMockLLMService()
	llm.ChatFunc = func(ctx context.Context, messages []ai.Message) (string, error) {
		return "Hello! How can I help?", nil
	}
	llm.ChatJSONFunc = func(ctx context.Context, messages []ai.Message, schema ai.JSONSchema) (string, error) {
		return `{"name":"Quang","preferred_tone":"","primary_interests":[]}`, nil
	}

	a, err := newApp(ctx, testProfile(t), llm)
	require.NoError(t, err)
	defer a.Close()

	cfg := manager.SessionConfig{ThreadID: "t1", UserID: "u1"}
	res, err := a.conversation.Send(ctx, cfg, "Hi, my name is Quang")
	require.NoError(t, err)
	assert.Equal(t, "Hello! How can I help?", res.Reply)

	history, err := a.conversation.History(ctx, "t1")
	require.NoError(t, err)
	assert.Len(t, history, 2)

	entries, err := a.memory.Search(ctx, memory.NewNamespace(memory.CategoryProfile, "u1"))
	require.NoError(t, err)
	assert.NotEmpty(t, entries)
}

func TestNewApp_RejectsBadRules(t *testing.T) {
	prof := testProfile(t)
	prof.RouterRules = []profile.RouterRule{{Route: "weather", Expr: "true"}}

	_, err := newApp(context.Background(), prof, ai.NewMockLLMService())
	assert.Error(t, err)
}

func TestWriteMemoryYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, writeMemoryYAML(&buf, "u1", &memory.Context{}))
	assert.Contains(t, buf.String(), "nothing remembered for u1")

	buf.Reset()
	mc := &memory.Context{
		Profile:     &memory.Profile{Name: "Quang", PreferredTone: "formal"},
		Preferences: []memory.Preference{{Type: "email", Value: "short replies", Importance: 7}},
	}
	require.NoError(t, writeMemoryYAML(&buf, "u1", mc))
	out := buf.String()
	assert.Contains(t, out, "user_id: u1")
	assert.Contains(t, out, "name: Quang")
	assert.Contains(t, out, "short replies")
}
