package history

import (
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"

	"go.klb.dev/clipstash/internal/content"
)

// Item is one clipboard history entry. ID, Content and Timestamp never change
// after creation; only Pinned and Tags are mutated, and only by the Store.
type Item struct {
	ID        string
	Content   content.Content
	Timestamp time.Time
	Pinned    bool
	// Tags is sorted and free of duplicates.
	Tags []string

	// seq orders items created within the same clock tick.
	seq uint64
}

// HasTag reports whether the item carries tag (case-sensitive).
func (it Item) HasTag(tag string) bool {
	_, found := slices.BinarySearch(it.Tags, tag)
	return found
}

func (it Item) clone() Item {
	it.Tags = slices.Clone(it.Tags)
	return it
}

// IDGenerator produces unique item identifiers.
type IDGenerator func() string

// UUIDv7 returns a generator of RFC 9562 version 7 UUIDs. They sort by
// creation time, which keeps the persisted table readable.
func UUIDv7() IDGenerator {
	return func() string {
		return uuid.Must(uuid.NewV7()).String()
	}
}

// ErrInvalidTag is returned for tags that are empty after trimming or that
// contain the persisted tag separator.
var ErrInvalidTag = errors.New("history: invalid tag")

const tagSeparator = ","

// NormalizeTag trims tag and validates it.
func NormalizeTag(tag string) (string, error) {
	tag = strings.TrimSpace(tag)
	if tag == "" || strings.Contains(tag, tagSeparator) {
		return "", ErrInvalidTag
	}
	return tag, nil
}

// EncodeTags joins a tag set into its persisted form.
func EncodeTags(tags []string) string {
	return strings.Join(tags, tagSeparator)
}

// DecodeTags splits a persisted tag string. The empty string is the empty
// set; blank entries are dropped and the result is sorted and deduplicated.
func DecodeTags(s string) []string {
	if s == "" {
		return nil
	}
	var tags []string
	for _, part := range strings.Split(s, tagSeparator) {
		if t := strings.TrimSpace(part); t != "" {
			tags = append(tags, t)
		}
	}
	slices.Sort(tags)
	return slices.Compact(tags)
}
