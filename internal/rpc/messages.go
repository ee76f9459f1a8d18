package rpc

import (
	"time"

	"go.klb.dev/clipstash/internal/content"
	"go.klb.dev/clipstash/internal/engine"
	"go.klb.dev/clipstash/internal/history"
)

// Item is the wire form of a history item. Data carries the raw content
// (base64 in JSON) and is only filled when the request asked for it.
type Item struct {
	ID        string       `json:"id"`
	Kind      content.Kind `json:"kind"`
	Preview   string       `json:"preview"`
	Summary   string       `json:"summary"`
	Data      []byte       `json:"data,omitempty"`
	Timestamp time.Time    `json:"timestamp"`
	Pinned    bool         `json:"pinned"`
	Tags      []string     `json:"tags,omitempty"`
}

// NewItem converts a history item. Data is only set when withData is true.
func NewItem(it history.Item, withData bool) Item {
	kind, data := content.Encode(it.Content)
	out := Item{
		ID:        it.ID,
		Kind:      kind,
		Preview:   it.Content.Preview(),
		Summary:   content.Summary(it.Content),
		Timestamp: it.Timestamp,
		Pinned:    it.Pinned,
		Tags:      it.Tags,
	}
	if withData {
		out.Data = data
	}
	return out
}

// Content decodes the item payload. It fails when Data was not requested.
func (it Item) Content() (content.Content, error) {
	return content.Decode(it.Kind, it.Data)
}

// ListRequest filters the history. An empty Search and no Tags returns every
// item. Limit <= 0 means no limit.
type ListRequest struct {
	Search      string   `json:"search,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Limit       int      `json:"limit,omitempty"`
	IncludeData bool     `json:"include_data,omitempty"`
}

// ListResponse holds items in history order: pinned first, newest first.
type ListResponse struct {
	Items []Item `json:"items"`
}

// RecordRequest adds content to the history as if it had been copied.
type RecordRequest struct {
	Kind content.Kind `json:"kind"`
	Data []byte       `json:"data"`
}

// RecordResponse returns the new item.
type RecordResponse struct {
	Item Item `json:"item"`
}

// ItemRequest addresses a single item.
type ItemRequest struct {
	ID string `json:"id"`
}

// TagRequest addresses a tag on a single item.
type TagRequest struct {
	ID  string `json:"id"`
	Tag string `json:"tag"`
}

// Empty is used by methods without arguments or results.
type Empty struct{}

// TagsResponse lists the tags in use, sorted.
type TagsResponse struct {
	Tags []string `json:"tags"`
}

// StatusResponse describes the daemon.
type StatusResponse struct {
	Backend       string        `json:"backend"`
	Monitoring    bool          `json:"monitoring"`
	Interval      time.Duration `json:"interval"`
	Items         int           `json:"items"`
	Pinned        int           `json:"pinned"`
	Capacity      int           `json:"capacity"`
	Tags          int           `json:"tags"`
	Recorded      int           `json:"recorded"`
	WriteFailures int           `json:"write_failures"`
	StartedAt     time.Time     `json:"started_at"`
	LastChange    time.Time     `json:"last_change,omitzero"`
}

func newStatus(st engine.Status) *StatusResponse {
	return &StatusResponse{
		Backend:       st.Backend,
		Monitoring:    st.Monitoring,
		Interval:      st.Interval,
		Items:         st.Items,
		Pinned:        st.Pinned,
		Capacity:      st.Capacity,
		Tags:          st.Tags,
		Recorded:      st.Recorded,
		WriteFailures: st.WriteFailures,
		StartedAt:     st.StartedAt,
		LastChange:    st.LastChange,
	}
}

// WatchRequest opens an event stream.
type WatchRequest struct{}

// WatchEvent is one history change notification, e.g. "items_changed".
type WatchEvent struct {
	Event string    `json:"event"`
	Time  time.Time `json:"time"`
}
