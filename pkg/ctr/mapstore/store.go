package mapstore

import "context"

// Mapping is one learned association from a normalized label key to a
// canonical company name.
type Mapping struct {
	Key  string `json:"key"`
	Name string `json:"name"`
}

// Outcome reports what an Insert did, so overwrites stay observable.
type Outcome int

const (
	OutcomeCreated Outcome = iota
	OutcomeUpdated
	OutcomeUnchanged
)

func (o Outcome) String() string {
	switch o {
	case OutcomeCreated:
		return "created"
	case OutcomeUpdated:
		return "updated"
	case OutcomeUnchanged:
		return "unchanged"
	default:
		return "unknown"
	}
}

// Store persists learned key→name mappings across runs. Lookup and
// Insert are in-memory operations for file-backed implementations;
// Flush writes the table out. Implementations degrade to an empty
// table on unreadable state instead of failing the caller.
type Store interface {
	Close() error

	Lookup(ctx context.Context, key string) (string, bool, error)
	Insert(ctx context.Context, key, name string) (Outcome, error)
	All(ctx context.Context) ([]Mapping, error)
	Len(ctx context.Context) (int, error)

	// Flush persists pending entries. A no-op for stores that write
	// through on Insert.
	Flush(ctx context.Context) error
}
