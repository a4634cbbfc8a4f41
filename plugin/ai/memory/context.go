package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
)

// Context is the memory loaded for one user at the start of a turn.
type Context struct {
	Profile      *Profile
	Preferences  []Preference
	Instructions []Instruction
}

// Name returns the stored user name, if any.
func (c *Context) Name() string {
	if c == nil || c.Profile == nil {
		return ""
	}
	return c.Profile.Name
}

// IsEmpty reports whether nothing is known about the user.
func (c *Context) IsEmpty() bool {
	return c == nil || (c.Profile.IsZero() && len(c.Preferences) == 0 && len(c.activeInstructions()) == 0)
}

// Render formats the memory as prompt sections. Empty sections are
// omitted, so a user with no memory renders as "".
func (c *Context) Render() string {
	if c == nil {
		return ""
	}
	var sections []string

	if !c.Profile.IsZero() {
		sections = append(sections, "<user_profile>\n"+renderProfile(c.Profile)+"\n</user_profile>")
	}

	if len(c.Preferences) > 0 {
		lines := make([]string, 0, len(c.Preferences))
		for _, p := range c.Preferences {
			lines = append(lines, fmt.Sprintf("- %s: %s (importance %d)", p.Type, p.Value, p.Importance))
		}
		sections = append(sections, "<user_preferences>\n"+strings.Join(lines, "\n")+"\n</user_preferences>")
	}

	if active := c.activeInstructions(); len(active) > 0 {
		lines := make([]string, 0, len(active))
		for _, i := range active {
			lines = append(lines, fmt.Sprintf("- [%s] %s", i.Type, i.Text))
		}
		sections = append(sections, "<system_instructions>\n"+strings.Join(lines, "\n")+"\n</system_instructions>")
	}

	return strings.Join(sections, "\n\n")
}

func (c *Context) activeInstructions() []Instruction {
	var out []Instruction
	for _, i := range c.Instructions {
		if i.Active {
			out = append(out, i)
		}
	}
	return out
}

func renderProfile(p *Profile) string {
	var lines []string
	if p.Name != "" {
		lines = append(lines, "name: "+p.Name)
	}
	lines = append(lines, "preferred_tone: "+p.Tone())
	if len(p.PrimaryInterests) > 0 {
		lines = append(lines, "primary_interests: "+strings.Join(p.PrimaryInterests, ", "))
	}
	if len(p.FavoriteHandlers) > 0 {
		lines = append(lines, "favorite_handlers: "+strings.Join(p.FavoriteHandlers, ", "))
	}
	if len(p.UsageFrequency) > 0 {
		keys := make([]string, 0, len(p.UsageFrequency))
		for k := range p.UsageFrequency {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		usage := make([]string, 0, len(keys))
		for _, k := range keys {
			usage = append(usage, fmt.Sprintf("%s=%d", k, p.UsageFrequency[k]))
		}
		lines = append(lines, "usage_frequency: "+strings.Join(usage, ", "))
	}
	if p.LastSeen != nil {
		lines = append(lines, "last_seen: "+p.LastSeen.Format("2006-01-02 15:04"))
	}
	return strings.Join(lines, "\n")
}

// Loader reads a user's memory from a Store.
type Loader struct {
	store Store
}

// NewLoader creates a loader over store.
func NewLoader(store Store) *Loader {
	return &Loader{store: store}
}

// Load reads the three namespaces of userID. Entries that fail to decode
// are skipped.
func (l *Loader) Load(ctx context.Context, userID string) (*Context, error) {
	mc := &Context{}

	profiles, err := l.store.Search(ctx, NewNamespace(CategoryProfile, userID))
	if err != nil {
		return nil, fmt.Errorf("load profile: %w", err)
	}
	mc.Profile = profileFromEntries(profiles)

	prefs, err := l.store.Search(ctx, NewNamespace(CategoryPreferences, userID))
	if err != nil {
		return nil, fmt.Errorf("load preferences: %w", err)
	}
	for _, e := range prefs {
		var p Preference
		if err := e.Decode(&p); err != nil {
			slog.Warn("skipping undecodable preference", "user_id", userID, "key", e.Key, "error", err)
			continue
		}
		mc.Preferences = append(mc.Preferences, p)
	}

	instrs, err := l.store.Search(ctx, NewNamespace(CategoryInstructions, userID))
	if err != nil {
		return nil, fmt.Errorf("load instructions: %w", err)
	}
	for _, e := range instrs {
		var i Instruction
		if err := e.Decode(&i); err != nil {
			slog.Warn("skipping undecodable instruction", "user_id", userID, "key", e.Key, "error", err)
			continue
		}
		mc.Instructions = append(mc.Instructions, i)
	}

	return mc, nil
}

// profileFromEntries returns the singleton profile, or nil when absent.
func profileFromEntries(entries []Entry) *Profile {
	for _, e := range entries {
		if e.Key != ProfileKey {
			continue
		}
		var p Profile
		if err := e.Decode(&p); err != nil {
			slog.Warn("skipping undecodable profile", "error", err)
			return nil
		}
		return &p
	}
	return nil
}
