package store

// Checkpoint is the persisted transcript of one conversation thread.
// Transcript holds a JSON array of messages.
type Checkpoint struct {
	ThreadID   string
	UserID     string
	Transcript string
	CreatedTs  int64
	UpdatedTs  int64
}

type FindCheckpoint struct {
	ThreadID *string
	UserID   *string
	Limit    *int
}

type DeleteCheckpoint struct {
	ThreadID string
}
