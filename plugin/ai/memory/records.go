package memory

import (
	"crypto/sha256"
	"encoding/hex"
	"slices"
	"strings"
	"time"
)

// ProfileKey is the key of the per-user profile singleton.
const ProfileKey = "0"

// DefaultTone is the tone assumed until the user states one.
const DefaultTone = "friendly"

// Profile is what the assistant knows about the user.
type Profile struct {
	Name             string         `json:"name,omitempty" yaml:"name,omitempty"`
	PreferredTone    string         `json:"preferred_tone,omitempty" yaml:"preferred_tone,omitempty"`
	PrimaryInterests []string       `json:"primary_interests,omitempty" yaml:"primary_interests,omitempty"`
	FavoriteHandlers []string       `json:"favorite_handlers,omitempty" yaml:"favorite_handlers,omitempty"`
	UsageFrequency   map[string]int `json:"usage_frequency,omitempty" yaml:"usage_frequency,omitempty"`
	LastSeen         *time.Time     `json:"last_seen,omitempty" yaml:"last_seen,omitempty"`
}

// IsZero reports whether the profile carries no information.
func (p *Profile) IsZero() bool {
	return p == nil || (p.Name == "" && p.PreferredTone == "" &&
		len(p.PrimaryInterests) == 0 && len(p.FavoriteHandlers) == 0 &&
		len(p.UsageFrequency) == 0 && p.LastSeen == nil)
}

// Merge returns p updated with the non-empty fields of update.
// Scalars overwrite, lists union in first-seen order, usage counters
// overwrite per key and LastSeen keeps the later time. p is not modified.
func (p *Profile) Merge(update *Profile) *Profile {
	merged := p.clone()
	if update == nil {
		return merged
	}
	if name := strings.TrimSpace(update.Name); name != "" {
		merged.Name = name
	}
	if tone := strings.TrimSpace(update.PreferredTone); tone != "" {
		merged.PreferredTone = tone
	}
	merged.PrimaryInterests = union(merged.PrimaryInterests, update.PrimaryInterests)
	merged.FavoriteHandlers = union(merged.FavoriteHandlers, update.FavoriteHandlers)
	for k, v := range update.UsageFrequency {
		if merged.UsageFrequency == nil {
			merged.UsageFrequency = make(map[string]int)
		}
		merged.UsageFrequency[k] = v
	}
	if update.LastSeen != nil && (merged.LastSeen == nil || update.LastSeen.After(*merged.LastSeen)) {
		t := *update.LastSeen
		merged.LastSeen = &t
	}
	return merged
}

// Tone returns the preferred tone or the default.
func (p *Profile) Tone() string {
	if p == nil || p.PreferredTone == "" {
		return DefaultTone
	}
	return p.PreferredTone
}

func (p *Profile) clone() *Profile {
	if p == nil {
		return &Profile{}
	}
	c := *p
	c.PrimaryInterests = slices.Clone(p.PrimaryInterests)
	c.FavoriteHandlers = slices.Clone(p.FavoriteHandlers)
	if p.UsageFrequency != nil {
		c.UsageFrequency = make(map[string]int, len(p.UsageFrequency))
		for k, v := range p.UsageFrequency {
			c.UsageFrequency[k] = v
		}
	}
	if p.LastSeen != nil {
		t := *p.LastSeen
		c.LastSeen = &t
	}
	return &c
}

func union(base, add []string) []string {
	out := base
	for _, v := range add {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		if !slices.ContainsFunc(out, func(s string) bool { return strings.EqualFold(s, v) }) {
			out = append(out, v)
		}
	}
	return out
}

// Preference is a standing preference about how the assistant behaves.
type Preference struct {
	Type       string `json:"preference_type" yaml:"preference_type"`
	Value      string `json:"preference_value" yaml:"preference_value"`
	Importance int    `json:"importance" yaml:"importance"`
}

// Normalize trims fields and clamps importance to 1..10 (default 5).
func (p Preference) Normalize() Preference {
	p.Type = strings.TrimSpace(p.Type)
	p.Value = strings.TrimSpace(p.Value)
	switch {
	case p.Importance == 0:
		p.Importance = 5
	case p.Importance < 1:
		p.Importance = 1
	case p.Importance > 10:
		p.Importance = 10
	}
	return p
}

// Key is derived from the content so restating a preference overwrites it.
func (p Preference) Key() string {
	return contentKey(p.Type, p.Value)
}

// Instruction is a standing directive, e.g. "always answer briefly".
type Instruction struct {
	Type      string    `json:"instruction_type" yaml:"instruction_type"`
	Text      string    `json:"instruction_text" yaml:"instruction_text"`
	CreatedAt time.Time `json:"created_date" yaml:"created_date"`
	Active    bool      `json:"active" yaml:"active"`
}

// Key is derived from the content so restating an instruction overwrites it.
func (i Instruction) Key() string {
	return contentKey(i.Type, i.Text)
}

func contentKey(kind, value string) string {
	kind = normalize(kind)
	sum := sha256.Sum256([]byte(kind + "|" + normalize(value)))
	if kind == "" {
		kind = "general"
	}
	return strings.ReplaceAll(kind, " ", "_") + "_" + hex.EncodeToString(sum[:])[:16]
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
