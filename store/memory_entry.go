package store

// MemoryEntry is one key/value pair in a memory namespace.
// Value holds a JSON document.
type MemoryEntry struct {
	ID        int32
	Namespace string
	Key       string
	Value     string
	CreatedTs int64
	UpdatedTs int64
}

type FindMemoryEntry struct {
	Namespace *string
	Key       *string
}
