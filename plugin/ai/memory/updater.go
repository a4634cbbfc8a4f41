package memory

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"slices"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/hrygo/orbita/plugin/ai"
)

// UpdatePolicy decides which categories are extracted after a turn.
type UpdatePolicy string

const (
	// PolicyAlways runs every extractor every turn.
	PolicyAlways UpdatePolicy = "always"
	// PolicyKeywords runs an extractor only when the last user message
	// contains one of its trigger phrases.
	PolicyKeywords UpdatePolicy = "keywords"
)

// FavoriteThreshold is the usage count at which a handler becomes a favorite.
const FavoriteThreshold = 3

var policyKeywords = map[Category][]string{
	CategoryProfile:      {"my name is", "i am from", "i work as", "i'm a"},
	CategoryPreferences:  {"prefer", "like", "don't like", "want", "please"},
	CategoryInstructions: {"always", "never", "when", "how to"},
}

// ShouldUpdate reports whether the policy selects category for a turn whose
// last user message is lastUserMessage.
func (p UpdatePolicy) ShouldUpdate(category Category, lastUserMessage string) bool {
	if p != PolicyKeywords {
		return true
	}
	msg := strings.ToLower(lastUserMessage)
	for _, kw := range policyKeywords[category] {
		if strings.Contains(msg, kw) {
			return true
		}
	}
	return false
}

// UpdateReport summarizes one memory update.
type UpdateReport struct {
	Written map[Category]int
	Skipped []Category
	Errors  map[Category]error
}

// Err joins the per-category errors, or returns nil.
func (r *UpdateReport) Err() error {
	var errs []error
	for _, c := range Categories {
		if err := r.Errors[c]; err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", c, err))
		}
	}
	return errors.Join(errs...)
}

// Updater writes extracted records back to the store.
type Updater struct {
	store     Store
	extractor Extractor
	policy    UpdatePolicy
	now       func() time.Time
}

// UpdaterOption configures an Updater.
type UpdaterOption func(*Updater)

// WithPolicy sets the update policy.
func WithPolicy(policy UpdatePolicy) UpdaterOption {
	return func(u *Updater) {
		if policy != "" {
			u.policy = policy
		}
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) UpdaterOption {
	return func(u *Updater) {
		u.now = now
	}
}

// NewUpdater creates an updater.
func NewUpdater(store Store, extractor Extractor, opts ...UpdaterOption) *Updater {
	u := &Updater{
		store:     store,
		extractor: extractor,
		policy:    PolicyAlways,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(u)
	}
	return u
}

// Update runs the extractors for userID over the transcript and records
// usage of handlerRoute (empty when the turn ended without a handler).
// Categories run concurrently; a failing category never affects the others.
// Update never returns an error: failures are in the report.
func (u *Updater) Update(ctx context.Context, userID string, transcript []ai.Message, handlerRoute string) *UpdateReport {
	report := &UpdateReport{
		Written: make(map[Category]int, len(Categories)),
		Errors:  make(map[Category]error),
	}
	lastUser := ai.LastUserMessage(transcript)

	written := make([]int, len(Categories))
	errs := make([]error, len(Categories))
	skipped := make([]bool, len(Categories))

	var g errgroup.Group
	for i, category := range Categories {
		g.Go(func() error {
			run := u.policy.ShouldUpdate(category, lastUser)
			skipped[i] = !run
			if run {
				written[i], errs[i] = u.UpdateCategory(ctx, userID, category, transcript)
			}
			// Usage tracking writes the same singleton as profile
			// extraction, so it runs on the profile goroutine.
			if category == CategoryProfile {
				if err := u.TouchProfile(ctx, userID, handlerRoute); err != nil {
					errs[i] = errors.Join(errs[i], err)
				}
			}
			return nil
		})
	}
	_ = g.Wait()

	for i, category := range Categories {
		report.Written[category] = written[i]
		if skipped[i] {
			report.Skipped = append(report.Skipped, category)
		}
		if errs[i] != nil {
			report.Errors[category] = errs[i]
			slog.Warn("memory update failed",
				"user_id", userID,
				"category", category,
				"error", errs[i])
		}
	}
	return report
}

// UpdateCategory extracts and writes records for one category and returns
// how many entries were written.
func (u *Updater) UpdateCategory(ctx context.Context, userID string, category Category, transcript []ai.Message) (int, error) {
	ns := NewNamespace(category, userID)
	existing, err := u.store.Search(ctx, ns)
	if err != nil {
		return 0, err
	}

	// Tool traffic is not conversation: the window counts user and
	// assistant text only, so the user's request stays in view.
	tail := ai.Tail(ai.Conversational(transcript), category.Window())
	extraction, err := u.extractor.Extract(ctx, category, tail, existing)
	if err != nil {
		return 0, err
	}
	if extraction == nil {
		return 0, nil
	}

	switch category {
	case CategoryProfile:
		return u.writeProfile(ctx, ns, existing, extraction.Profile)
	case CategoryPreferences:
		return u.writePreferences(ctx, ns, extraction.Preferences)
	case CategoryInstructions:
		return u.writeInstructions(ctx, ns, existing, extraction.Instructions)
	}
	return 0, fmt.Errorf("unknown memory category %q", category)
}

func (u *Updater) writeProfile(ctx context.Context, ns Namespace, existing []Entry, update *Profile) (int, error) {
	if update.IsZero() {
		return 0, nil
	}
	current := profileFromEntries(existing)
	merged := current.Merge(update)
	if current != nil && reflect.DeepEqual(current, merged) {
		return 0, nil
	}
	if err := u.store.Put(ctx, ns, ProfileKey, merged); err != nil {
		return 0, err
	}
	return 1, nil
}

func (u *Updater) writePreferences(ctx context.Context, ns Namespace, prefs []Preference) (int, error) {
	n := 0
	for _, p := range prefs {
		p = p.Normalize()
		if err := u.store.Put(ctx, ns, p.Key(), p); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

func (u *Updater) writeInstructions(ctx context.Context, ns Namespace, existing []Entry, instrs []Instruction) (int, error) {
	prior := make(map[string]Instruction, len(existing))
	for _, e := range existing {
		var i Instruction
		if err := e.Decode(&i); err == nil {
			prior[e.Key] = i
		}
	}

	n := 0
	for _, i := range instrs {
		key := i.Key()
		if old, ok := prior[key]; ok {
			i.CreatedAt = old.CreatedAt
			i.Active = old.Active
		} else {
			i.CreatedAt = u.now()
			i.Active = true
		}
		if err := u.store.Put(ctx, ns, key, i); err != nil {
			return n, err
		}
		n++
	}
	return n, nil
}

// TouchProfile stamps LastSeen and, for handler routes, bumps the usage
// counter and promotes the handler to a favorite at FavoriteThreshold.
func (u *Updater) TouchProfile(ctx context.Context, userID, handlerRoute string) error {
	ns := NewNamespace(CategoryProfile, userID)
	existing, err := u.store.Search(ctx, ns)
	if err != nil {
		return err
	}

	p := profileFromEntries(existing).Merge(nil)
	now := u.now()
	p.LastSeen = &now
	if handlerRoute != "" {
		if p.UsageFrequency == nil {
			p.UsageFrequency = make(map[string]int)
		}
		p.UsageFrequency[handlerRoute]++
		if p.UsageFrequency[handlerRoute] >= FavoriteThreshold && !slices.Contains(p.FavoriteHandlers, handlerRoute) {
			p.FavoriteHandlers = append(p.FavoriteHandlers, handlerRoute)
		}
	}
	return u.store.Put(ctx, ns, ProfileKey, p)
}
