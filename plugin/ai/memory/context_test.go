package memory

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoader_NewUserRendersEmpty(t *testing.T) {
	mc, err := NewLoader(NewInMemoryStore()).Load(context.Background(), "brand-new")
	require.NoError(t, err)

	assert.True(t, mc.IsEmpty())
	assert.Equal(t, "", mc.Render())
	assert.Equal(t, "", mc.Name())
}

func TestLoader_RendersSections(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	user := "u1"

	require.NoError(t, s.Put(ctx, NewNamespace(CategoryProfile, user), ProfileKey, Profile{
		Name:             "Quang",
		PrimaryInterests: []string{"budget"},
	}))
	pref := Preference{Type: "verbosity", Value: "short answers", Importance: 8}
	require.NoError(t, s.Put(ctx, NewNamespace(CategoryPreferences, user), pref.Key(), pref))
	active := Instruction{Type: "routing", Text: "check email first", CreatedAt: time.Now(), Active: true}
	inactive := Instruction{Type: "routing", Text: "ignore calendar", CreatedAt: time.Now(), Active: false}
	require.NoError(t, s.Put(ctx, NewNamespace(CategoryInstructions, user), active.Key(), active))
	require.NoError(t, s.Put(ctx, NewNamespace(CategoryInstructions, user), inactive.Key(), inactive))

	mc, err := NewLoader(s).Load(ctx, user)
	require.NoError(t, err)

	assert.Equal(t, "Quang", mc.Name())
	rendered := mc.Render()
	assert.Contains(t, rendered, "<user_profile>\nname: Quang\npreferred_tone: friendly")
	assert.Contains(t, rendered, "<user_preferences>\n- verbosity: short answers (importance 8)\n</user_preferences>")
	assert.Contains(t, rendered, "- [routing] check email first")
	assert.NotContains(t, rendered, "ignore calendar")
}

func TestLoader_OmitsEmptySections(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.Put(ctx, NewNamespace(CategoryPreferences, "u"), "k", Preference{Type: "tone", Value: "warm", Importance: 5}))

	mc, err := NewLoader(s).Load(ctx, "u")
	require.NoError(t, err)

	rendered := mc.Render()
	assert.NotContains(t, rendered, "<user_profile>")
	assert.NotContains(t, rendered, "<system_instructions>")
	assert.Contains(t, rendered, "<user_preferences>")
}

func TestLoader_SkipsUndecodableEntries(t *testing.T) {
	ctx := context.Background()
	s := NewInMemoryStore()
	require.NoError(t, s.Put(ctx, NewNamespace(CategoryPreferences, "u"), "bad", "not an object"))

	mc, err := NewLoader(s).Load(ctx, "u")
	require.NoError(t, err)
	assert.Empty(t, mc.Preferences)
}

func TestLoader_StoreFailure(t *testing.T) {
	_, err := NewLoader(FailingStore{}).Load(context.Background(), "u")
	assert.ErrorIs(t, err, ErrStoreUnavailable)
}
