package history

// Event tells observers what kind of state changed.
type Event int

const (
	// EventItemsChanged fires after any mutation of the item sequence or of
	// an item's pin flag or tags.
	EventItemsChanged Event = iota + 1
	// EventTagsChanged fires when the set of tags in use changed.
	EventTagsChanged
)

func (e Event) String() string {
	switch e {
	case EventItemsChanged:
		return "items_changed"
	case EventTagsChanged:
		return "tags_changed"
	default:
		return "unknown"
	}
}

// Observer is called synchronously on the goroutine that mutated the Store.
// It must not call back into the Store.
type Observer func(Event)

// Subscribe registers fn and returns a function that removes it.
func (s *Store) Subscribe(fn Observer) (cancel func()) {
	s.nextObserver++
	id := s.nextObserver
	s.observers[id] = fn
	return func() { delete(s.observers, id) }
}

func (s *Store) emit(ev Event) {
	for _, fn := range s.observers {
		fn(ev)
	}
}

// rebuildTags recomputes the tag index and emits EventTagsChanged when the
// set of tags in use changed.
func (s *Store) rebuildTags() {
	sets := make([][]string, 0, len(s.order))
	for _, id := range s.order {
		sets = append(sets, s.byID[id].Tags)
	}
	if s.tags.Rebuild(sets...) {
		s.emit(EventTagsChanged)
	}
}
