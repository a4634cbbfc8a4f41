// Package memory provides per-user long-term memory for the manager:
// a namespaced entry store, structured records, context loading for
// routing prompts and best-effort extraction of new facts after each turn.
package memory

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Scope is the owner segment of every manager namespace.
const Scope = "manager"

// Category is a memory partition for one kind of record.
type Category string

const (
	CategoryProfile      Category = "profile"
	CategoryPreferences  Category = "preferences"
	CategoryInstructions Category = "instructions"
)

// Categories lists every category in load order.
var Categories = []Category{CategoryProfile, CategoryPreferences, CategoryInstructions}

// Window returns how many trailing transcript messages the category's
// extractor sees. Identity facts surface less often than feedback.
func (c Category) Window() int {
	if c == CategoryProfile {
		return 5
	}
	return 3
}

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryProfile, CategoryPreferences, CategoryInstructions:
		return true
	}
	return false
}

// Namespace identifies one memory partition: one user, one category.
type Namespace struct {
	Scope    string
	Category Category
	UserID   string
}

// NewNamespace returns the manager namespace for a user and category.
func NewNamespace(category Category, userID string) Namespace {
	return Namespace{Scope: Scope, Category: category, UserID: userID}
}

// String renders the namespace as "manager/<category>/<user_id>".
func (ns Namespace) String() string {
	return fmt.Sprintf("%s/%s/%s", ns.Scope, ns.Category, ns.UserID)
}

// ParseNamespace parses the String form of a namespace.
func ParseNamespace(s string) (Namespace, error) {
	parts := strings.SplitN(s, "/", 3)
	if len(parts) != 3 || parts[0] == "" || parts[2] == "" {
		return Namespace{}, fmt.Errorf("invalid namespace %q", s)
	}
	ns := Namespace{Scope: parts[0], Category: Category(parts[1]), UserID: parts[2]}
	if !ns.Category.Valid() {
		return Namespace{}, fmt.Errorf("invalid namespace %q: unknown category %q", s, parts[1])
	}
	return ns, nil
}

// Entry is a stored memory value.
type Entry struct {
	Key       string          `json:"key"`
	Value     json.RawMessage `json:"value"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

// Decode unmarshals the entry value into v.
func (e Entry) Decode(v any) error {
	return json.Unmarshal(e.Value, v)
}
