// Package tagindex maintains the set of tags currently in use across the
// clipboard history. The index has no identity of its own: it is rebuilt from
// the items every time tags may have changed.
package tagindex

import (
	"maps"
	"slices"
)

// Index is the union of all item tag sets.
type Index struct {
	set map[string]struct{}
}

// New returns an empty index.
func New() *Index {
	return &Index{set: make(map[string]struct{})}
}

// Rebuild recomputes the index from the tag sets of every item and reports
// whether the resulting set differs from the previous one.
func (x *Index) Rebuild(tagSets ...[]string) bool {
	next := make(map[string]struct{}, len(x.set))
	for _, tags := range tagSets {
		for _, t := range tags {
			next[t] = struct{}{}
		}
	}
	changed := !maps.Equal(x.set, next)
	x.set = next
	return changed
}

// Contains reports whether tag is used by at least one item.
func (x *Index) Contains(tag string) bool {
	_, ok := x.set[tag]
	return ok
}

// Len returns the number of distinct tags.
func (x *Index) Len() int { return len(x.set) }

// List returns the tags in lexical order.
func (x *Index) List() []string {
	return slices.Sorted(maps.Keys(x.set))
}
