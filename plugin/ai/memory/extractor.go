package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/sashabaranov/go-openai/jsonschema"

	"github.com/hrygo/orbita/plugin/ai"
)

// ErrExtractionFailed is returned when the model output cannot be parsed.
var ErrExtractionFailed = errors.New("memory extraction failed")

// Extraction holds the records proposed for one category.
type Extraction struct {
	Profile      *Profile
	Preferences  []Preference
	Instructions []Instruction
}

// Count returns the number of proposed records.
func (e *Extraction) Count() int {
	if e == nil {
		return 0
	}
	n := len(e.Preferences) + len(e.Instructions)
	if !e.Profile.IsZero() {
		n++
	}
	return n
}

// Extractor proposes memory records for one category from the tail of a
// transcript. Existing entries are context, not constraints.
type Extractor interface {
	Extract(ctx context.Context, category Category, tail []ai.Message, existing []Entry) (*Extraction, error)
}

// LLMExtractor extracts records with a JSON-schema constrained completion.
type LLMExtractor struct {
	llm ai.LLMService
}

var _ Extractor = (*LLMExtractor)(nil)

// NewLLMExtractor creates an extractor backed by llm.
func NewLLMExtractor(llm ai.LLMService) *LLMExtractor {
	return &LLMExtractor{llm: llm}
}

func (x *LLMExtractor) Extract(ctx context.Context, category Category, tail []ai.Message, existing []Entry) (*Extraction, error) {
	conversation := ai.FormatTranscript(tail)
	if conversation == "" {
		return &Extraction{}, nil
	}

	spec, ok := extractionSpecs[category]
	if !ok {
		return nil, fmt.Errorf("unknown memory category %q", category)
	}

	messages := []ai.Message{
		ai.SystemMessage(spec.prompt + renderExisting(existing)),
		ai.UserMessage("Conversation:\n" + conversation),
	}
	raw, err := x.llm.ChatJSON(ctx, messages, ai.JSONSchema{Name: spec.name, Schema: spec.schema})
	if err != nil {
		return nil, err
	}

	out, err := spec.parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrExtractionFailed, category, err)
	}
	return out, nil
}

func renderExisting(existing []Entry) string {
	if len(existing) == 0 {
		return "\n\nThere are no existing memories."
	}
	var sb strings.Builder
	sb.WriteString("\n\nExisting memories (update them rather than repeating them):")
	for _, e := range existing {
		sb.WriteString("\n- ")
		sb.WriteString(e.Key)
		sb.WriteString(": ")
		sb.Write(e.Value)
	}
	return sb.String()
}

type extractionSpec struct {
	name   string
	prompt string
	schema *jsonschema.Definition
	parse  func(raw string) (*Extraction, error)
}

var (
	stringList = jsonschema.Definition{Type: jsonschema.Array, Items: &jsonschema.Definition{Type: jsonschema.String}}

	extractionSpecs = map[Category]extractionSpec{
		CategoryProfile: {
			name: "profile",
			prompt: "Extract durable facts about the user from the conversation: their name, " +
				"preferred communication tone (formal, casual, friendly), topics they ask about most " +
				"and handlers they favor (email, budget, calendar). Leave a field empty or the list " +
				"empty when the conversation does not state it.",
			schema: strictObject(map[string]jsonschema.Definition{
				"name":              {Type: jsonschema.String},
				"preferred_tone":    {Type: jsonschema.String},
				"primary_interests": stringList,
				"favorite_handlers": stringList,
			}),
			parse: parseProfile,
		},
		CategoryPreferences: {
			name: "user_preferences",
			prompt: "Extract preferences the user expresses about how the assistant should behave, " +
				"such as response style or verbosity. Each preference has a type, a value and an " +
				"importance from 1 to 10. Return an empty list when there are none.",
			schema: strictObject(map[string]jsonschema.Definition{
				"preferences": {Type: jsonschema.Array, Items: strictObject(map[string]jsonschema.Definition{
					"preference_type":  {Type: jsonschema.String},
					"preference_value": {Type: jsonschema.String},
					"importance":       {Type: jsonschema.Integer},
				})},
			}),
			parse: parsePreferences,
		},
		CategoryInstructions: {
			name: "system_instructions",
			prompt: "Extract standing instructions the user gives about how to route requests or use " +
				"tools, for example \"always answer briefly\". Each instruction has a type and its text. " +
				"Return an empty list when there are none.",
			schema: strictObject(map[string]jsonschema.Definition{
				"instructions": {Type: jsonschema.Array, Items: strictObject(map[string]jsonschema.Definition{
					"instruction_type": {Type: jsonschema.String},
					"instruction_text": {Type: jsonschema.String},
				})},
			}),
			parse: parseInstructions,
		},
	}
)

// strictObject builds an object schema that requires every property,
// as strict structured outputs demand.
func strictObject(props map[string]jsonschema.Definition) *jsonschema.Definition {
	required := make([]string, 0, len(props))
	for name := range props {
		required = append(required, name)
	}
	sort.Strings(required)
	return &jsonschema.Definition{
		Type:                 jsonschema.Object,
		Properties:           props,
		Required:             required,
		AdditionalProperties: false,
	}
}

func parseProfile(raw string) (*Extraction, error) {
	var p Profile
	if err := json.Unmarshal([]byte(raw), &p); err != nil {
		return nil, err
	}
	// Usage and recency are tracked by the updater, never extracted.
	p.UsageFrequency = nil
	p.LastSeen = nil
	if p.IsZero() {
		return &Extraction{}, nil
	}
	return &Extraction{Profile: &p}, nil
}

func parsePreferences(raw string) (*Extraction, error) {
	var payload struct {
		Preferences []Preference `json:"preferences"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, err
	}
	out := &Extraction{}
	for _, p := range payload.Preferences {
		p = p.Normalize()
		if p.Type == "" || p.Value == "" {
			continue
		}
		out.Preferences = append(out.Preferences, p)
	}
	return out, nil
}

func parseInstructions(raw string) (*Extraction, error) {
	var payload struct {
		Instructions []Instruction `json:"instructions"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return nil, err
	}
	out := &Extraction{}
	for _, i := range payload.Instructions {
		i.Type = strings.TrimSpace(i.Type)
		i.Text = strings.TrimSpace(i.Text)
		if i.Text == "" {
			continue
		}
		out.Instructions = append(out.Instructions, i)
	}
	return out, nil
}
