// Package history implements the clipboard history store: an ordered,
// capacity-bounded collection of items with pin and tag metadata, backed by a
// Persister and observable through Subscribe.
//
// Ordering: pinned items precede unpinned items; within each partition items
// are ordered newest first by timestamp, then by insertion order. The number
// of unpinned items is capped; inserting beyond the cap evicts the oldest
// unpinned items. Pinned items are never evicted.
//
// A Store is not safe for concurrent use. It is owned by a single goroutine
// (see package engine) and every call must be made from it.
package history

import (
	"context"
	"log/slog"
	"slices"
	"strings"
	"time"

	"go.klb.dev/clipstash/internal/content"
	"go.klb.dev/clipstash/internal/tagindex"
)

// DefaultCapacity is the maximum number of unpinned items.
const DefaultCapacity = 50

type config struct {
	capacity int
	newID    IDGenerator
	now      func() time.Time
}

// Option customises New.
type Option func(*config)

// WithCapacity sets the unpinned-item cap. Values below 1 are ignored.
func WithCapacity(n int) Option {
	return func(c *config) {
		if n >= 1 {
			c.capacity = n
		}
	}
}

// WithClock replaces time.Now as the source of item timestamps.
func WithClock(now func() time.Time) Option { return func(c *config) { c.now = now } }

// WithIDGenerator replaces the UUIDv7 item id generator.
func WithIDGenerator(gen IDGenerator) Option { return func(c *config) { c.newID = gen } }

// Store is the in-memory clipboard history.
type Store struct {
	cfg       config
	persister Persister

	byID  map[string]Item
	order []string
	seq   uint64
	tags  *tagindex.Index

	observers    map[int]Observer
	nextObserver int

	writeFailures int
}

// New returns an empty Store writing through p. A nil p keeps the history in
// memory only. Call Load to populate it from p.
func New(p Persister, opts ...Option) *Store {
	cfg := config{
		capacity: DefaultCapacity,
		newID:    UUIDv7(),
		now:      time.Now,
	}
	for _, o := range opts {
		o(&cfg)
	}
	if p == nil {
		p = nopPersister{}
	}
	return &Store{
		cfg:       cfg,
		persister: p,
		byID:      make(map[string]Item),
		tags:      tagindex.New(),
		observers: make(map[int]Observer),
	}
}

// Capacity returns the unpinned-item cap.
func (s *Store) Capacity() int { return s.cfg.capacity }

// Load replaces the in-memory history with the persisted one. A failing load
// is logged and leaves the Store empty. The ordering and the capacity cap are
// re-applied; items evicted by the cap are deleted from the Persister.
func (s *Store) Load(ctx context.Context) {
	items, err := s.persister.LoadAll(ctx)
	if err != nil {
		slog.Error("history load failed, starting with an empty history", "err", err)
		items = nil
	}

	s.byID = make(map[string]Item, len(items))
	s.order = s.order[:0]
	s.seq = 0

	// items arrive newest first: the first one gets the highest seq.
	for i := len(items) - 1; i >= 0; i-- {
		it := items[i]
		if it.ID == "" || it.Content == nil {
			continue
		}
		if _, dup := s.byID[it.ID]; dup {
			continue
		}
		s.seq++
		it.seq = s.seq
		it.Tags = normalizeTags(it.Tags)
		s.byID[it.ID] = it
		s.order = append(s.order, it.ID)
	}
	s.sort()

	evicted := s.evictOverflow()
	s.dropEvicted(ctx, evicted)

	slog.Info("history loaded", "items", len(s.order), "evicted", len(evicted))
	s.emit(EventItemsChanged)
	s.rebuildTags()
}

// Insert records c as a new unpinned, untagged item at the front of the
// unpinned partition and returns it.
func (s *Store) Insert(ctx context.Context, c content.Content) Item {
	s.seq++
	it := Item{
		ID:        s.cfg.newID(),
		Content:   c,
		Timestamp: s.insertTime(),
		seq:       s.seq,
	}
	s.byID[it.ID] = it
	s.order = append(s.order, it.ID)
	s.sort()

	evicted := s.evictOverflow()

	s.write(ctx, "upsert", it.ID, func(ctx context.Context) error {
		return s.persister.Upsert(ctx, it)
	})
	s.dropEvicted(ctx, evicted)

	logInsert(it, evicted)
	s.emit(EventItemsChanged)
	if len(evicted) > 0 {
		s.rebuildTags()
	}
	return it.clone()
}

// insertTime returns now, or the newest item timestamp if the clock is behind
// it, so a new item always sorts to the front of the unpinned partition.
func (s *Store) insertTime() time.Time {
	now := s.cfg.now()
	for _, it := range s.byID {
		if it.Timestamp.After(now) {
			now = it.Timestamp
		}
	}
	return now
}

// TogglePin flips the pin flag of the item with id. Unknown ids are ignored.
// Unpinning re-applies the cap, evicting the oldest unpinned items.
func (s *Store) TogglePin(ctx context.Context, id string) {
	it, ok := s.byID[id]
	if !ok {
		slog.Debug("toggle pin: unknown item", "id", id)
		return
	}
	it.Pinned = !it.Pinned
	s.byID[id] = it
	s.sort()

	evicted := s.evictOverflow()

	if _, kept := s.byID[id]; kept {
		s.write(ctx, "update pin", id, func(ctx context.Context) error {
			return s.persister.UpdatePin(ctx, id, it.Pinned)
		})
	}
	s.dropEvicted(ctx, evicted)

	slog.Debug("item pin toggled", "id", id, "pinned", it.Pinned, "evicted", len(evicted))
	s.emit(EventItemsChanged)
	if len(evicted) > 0 {
		s.rebuildTags()
	}
}

func (s *Store) dropEvicted(ctx context.Context, evicted []Item) {
	for _, e := range evicted {
		s.write(ctx, "delete", e.ID, func(ctx context.Context) error {
			return s.persister.Delete(ctx, e.ID)
		})
	}
}

// AddTag adds tag to the item with id. The tag is trimmed first; empty tags
// and tags containing a comma return ErrInvalidTag. Unknown ids and tags the
// item already has are no-ops.
func (s *Store) AddTag(ctx context.Context, id, tag string) error {
	tag, err := NormalizeTag(tag)
	if err != nil {
		return err
	}
	it, ok := s.byID[id]
	if !ok {
		slog.Debug("add tag: unknown item", "id", id)
		return nil
	}
	if it.HasTag(tag) {
		return nil
	}
	tags := append(slices.Clone(it.Tags), tag)
	slices.Sort(tags)
	s.setTags(ctx, it, tags)
	return nil
}

// RemoveTag removes tag from the item with id. Validation matches AddTag;
// unknown ids and absent tags are no-ops.
func (s *Store) RemoveTag(ctx context.Context, id, tag string) error {
	tag, err := NormalizeTag(tag)
	if err != nil {
		return err
	}
	it, ok := s.byID[id]
	if !ok {
		slog.Debug("remove tag: unknown item", "id", id)
		return nil
	}
	if !it.HasTag(tag) {
		return nil
	}
	tags := slices.DeleteFunc(slices.Clone(it.Tags), func(t string) bool { return t == tag })
	s.setTags(ctx, it, tags)
	return nil
}

func (s *Store) setTags(ctx context.Context, it Item, tags []string) {
	if len(tags) == 0 {
		tags = nil
	}
	it.Tags = tags
	s.byID[it.ID] = it

	encoded := EncodeTags(tags)
	s.write(ctx, "update tags", it.ID, func(ctx context.Context) error {
		return s.persister.UpdateTags(ctx, it.ID, encoded)
	})
	slog.Debug("item tags updated", "id", it.ID, "tags", tags)
	s.emit(EventItemsChanged)
	s.rebuildTags()
}

// ClearAll removes every item, pinned ones included, from memory and from the
// Persister.
func (s *Store) ClearAll(ctx context.Context) {
	n := len(s.order)
	s.byID = make(map[string]Item)
	s.order = s.order[:0]

	s.write(ctx, "delete all", "", s.persister.DeleteAll)
	slog.Info("history cleared", "items", n)
	s.emit(EventItemsChanged)
	s.rebuildTags()
}

// Get returns the item with id.
func (s *Store) Get(id string) (Item, bool) {
	it, ok := s.byID[id]
	if !ok {
		return Item{}, false
	}
	return it.clone(), true
}

// Len returns the number of items.
func (s *Store) Len() int { return len(s.order) }

// Pinned returns the number of pinned items.
func (s *Store) Pinned() int { return len(s.order) - s.unpinned() }

// Tags returns the tags in use, sorted.
func (s *Store) Tags() []string { return s.tags.List() }

// WriteFailures returns the number of durable writes that failed since the
// Store was created.
func (s *Store) WriteFailures() int { return s.writeFailures }

// Items returns a snapshot of every item in store order.
func (s *Store) Items() []Item { return s.Query("", nil) }

// Query returns a snapshot, in store order, of the items whose preview
// contains search (case-insensitively) and that carry at least one tag of
// tagFilter. An empty search or an empty filter matches everything.
func (s *Store) Query(search string, tagFilter []string) []Item {
	needle := strings.ToLower(search)
	out := make([]Item, 0, len(s.order))
	for _, id := range s.order {
		it := s.byID[id]
		if needle != "" && !strings.Contains(strings.ToLower(it.Content.Preview()), needle) {
			continue
		}
		if len(tagFilter) > 0 && !slices.ContainsFunc(tagFilter, it.HasTag) {
			continue
		}
		out = append(out, it.clone())
	}
	return out
}

// sort restores the ordering invariant.
func (s *Store) sort() {
	slices.SortStableFunc(s.order, func(a, b string) int {
		x, y := s.byID[a], s.byID[b]
		if x.Pinned != y.Pinned {
			if x.Pinned {
				return -1
			}
			return 1
		}
		if c := y.Timestamp.Compare(x.Timestamp); c != 0 {
			return c
		}
		switch {
		case x.seq > y.seq:
			return -1
		case x.seq < y.seq:
			return 1
		}
		return 0
	})
}

func (s *Store) unpinned() int {
	n := 0
	for _, id := range s.order {
		if !s.byID[id].Pinned {
			n++
		}
	}
	return n
}

// evictOverflow drops the oldest unpinned items until the cap holds. Pinned
// items sort first, so while the cap is exceeded the last item is always the
// oldest unpinned one.
func (s *Store) evictOverflow() []Item {
	var evicted []Item
	for over := s.unpinned() - s.cfg.capacity; over > 0; over-- {
		last := len(s.order) - 1
		id := s.order[last]
		evicted = append(evicted, s.byID[id])
		delete(s.byID, id)
		s.order = s.order[:last]
	}
	return evicted
}

// write runs a durable write. Failures are logged and counted; the in-memory
// state stays authoritative.
func (s *Store) write(ctx context.Context, op, id string, fn func(context.Context) error) {
	if err := fn(ctx); err != nil {
		s.writeFailures++
		werr := &WriteError{Op: op, ID: id, Err: err}
		slog.Error("history write failed", "err", werr)
	}
}

func normalizeTags(tags []string) []string {
	if len(tags) == 0 {
		return nil
	}
	out := make([]string, 0, len(tags))
	for _, t := range tags {
		if n, err := NormalizeTag(t); err == nil {
			out = append(out, n)
		}
	}
	slices.Sort(out)
	out = slices.Compact(out)
	if len(out) == 0 {
		return nil
	}
	return out
}
