package history

import (
	"context"
	"fmt"
)

// Persister is the durable record of the history. Every call is independently
// durable; the Store never batches.
type Persister interface {
	// LoadAll returns every decodable item, newest first. Records that fail
	// to decode are skipped by the implementation.
	LoadAll(ctx context.Context) ([]Item, error)
	Upsert(ctx context.Context, it Item) error
	UpdatePin(ctx context.Context, id string, pinned bool) error
	// UpdateTags stores the comma-joined tag string produced by EncodeTags.
	UpdateTags(ctx context.Context, id, tags string) error
	Delete(ctx context.Context, id string) error
	DeleteAll(ctx context.Context) error
}

// WriteError reports a failed durable write. The Store logs it and keeps its
// in-memory state as the source of truth.
type WriteError struct {
	Op  string
	ID  string
	Err error
}

func (e *WriteError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("history: %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("history: %s %s: %v", e.Op, e.ID, e.Err)
}

func (e *WriteError) Unwrap() error { return e.Err }

// nopPersister keeps nothing. Used when a Store is built without a Persister.
type nopPersister struct{}

func (nopPersister) LoadAll(context.Context) ([]Item, error)         { return nil, nil }
func (nopPersister) Upsert(context.Context, Item) error              { return nil }
func (nopPersister) UpdatePin(context.Context, string, bool) error   { return nil }
func (nopPersister) UpdateTags(context.Context, string, string) error { return nil }
func (nopPersister) Delete(context.Context, string) error            { return nil }
func (nopPersister) DeleteAll(context.Context) error                 { return nil }
