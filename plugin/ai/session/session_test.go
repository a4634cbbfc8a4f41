package session

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hrygo/orbita/plugin/ai"
	"github.com/hrygo/orbita/store/test"
)

func checkpointServices(t *testing.T) map[string]CheckpointService {
	return map[string]CheckpointService{
		"memory": NewMemoryCheckpointService(),
		"store":  NewStoreCheckpointService(test.NewTestingStore(context.Background(), t)),
	}
}

func TestCheckpointService_RoundTrip(t *testing.T) {
	for name, svc := range checkpointServices(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			loaded, err := svc.Load(ctx, "new-thread")
			require.NoError(t, err)
			assert.Nil(t, loaded)

			transcript := []ai.Message{
				ai.UserMessage("what's my budget?"),
				{Role: ai.RoleAssistant, ToolCalls: []ai.ToolCall{{ID: "c1", Name: "get_budget", Arguments: `{"account_number":"1"}`}}},
				ai.ToolMessage("c1", "get_budget", "1000000"),
				ai.AssistantMessage("You have 1,000,000 VND."),
			}
			require.NoError(t, svc.Save(ctx, "t1", "u1", transcript))

			loaded, err = svc.Load(ctx, "t1")
			require.NoError(t, err)
			assert.Equal(t, transcript, loaded)

			// Mutating the loaded copy leaves the checkpoint intact.
			loaded[0].Content = "changed"
			again, err := svc.Load(ctx, "t1")
			require.NoError(t, err)
			assert.Equal(t, "what's my budget?", again[0].Content)
		})
	}
}

func TestCheckpointService_List(t *testing.T) {
	for name, svc := range checkpointServices(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			require.NoError(t, svc.Save(ctx, "t1", "u1", []ai.Message{ai.UserMessage("hi"), ai.AssistantMessage("hello")}))
			require.NoError(t, svc.Save(ctx, "t2", "u2", []ai.Message{ai.UserMessage("other")}))

			list, err := svc.List(ctx, "u1", 10)
			require.NoError(t, err)
			require.Len(t, list, 1)
			assert.Equal(t, "t1", list[0].ThreadID)
			assert.Equal(t, "hello", list[0].LastMessage)
			assert.Equal(t, 2, list[0].Messages)
		})
	}
}

func TestCheckpointService_Owner(t *testing.T) {
	for name, svc := range checkpointServices(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			owner, err := svc.Owner(ctx, "missing")
			require.NoError(t, err)
			assert.Empty(t, owner)

			require.NoError(t, svc.Save(ctx, "t1", "u1", []ai.Message{ai.UserMessage("hi")}))
			owner, err = svc.Owner(ctx, "t1")
			require.NoError(t, err)
			assert.Equal(t, "u1", owner)
		})
	}
}

func TestStoreCheckpointService_OwnerFromDatabase(t *testing.T) {
	ctx := context.Background()
	ts := test.NewTestingStore(ctx, t)
	require.NoError(t, NewStoreCheckpointService(ts).Save(ctx, "t1", "u1", []ai.Message{ai.UserMessage("hi")}))

	// A fresh service has an empty cache and reads the owner from the table.
	owner, err := NewStoreCheckpointService(ts).Owner(ctx, "t1")
	require.NoError(t, err)
	assert.Equal(t, "u1", owner)
}
