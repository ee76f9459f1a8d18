package history

import (
	"context"
	"log/slog"

	"go.klb.dev/clipstash/internal/content"
)

// logInsert logs a recorded item at INFO (id, kind, evictions) and a content
// summary at DEBUG.
func logInsert(it Item, evicted []Item) {
	attrs := []any{"id", it.ID, "kind", it.Content.Kind()}
	if len(evicted) > 0 {
		ids := make([]string, len(evicted))
		for i, e := range evicted {
			ids[i] = e.ID
		}
		attrs = append(attrs, "evicted", ids)
	}
	slog.Info("clipboard item recorded", attrs...)

	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	slog.Debug("clipboard item", "id", it.ID, "summary", content.Summary(it.Content))
}
