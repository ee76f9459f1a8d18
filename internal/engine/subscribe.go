package engine

import (
	"context"
	"log/slog"

	"go.klb.dev/clipstash/internal/history"
)

// Subscribe returns a channel receiving every history event, buffered to
// size. Events are dropped rather than block the engine when the buffer is
// full. The channel is closed by cancel or when the engine stops.
func (e *Engine) Subscribe(ctx context.Context, size int) (<-chan history.Event, func(), error) {
	if size < 1 {
		size = 1
	}
	ch := make(chan history.Event, size)
	var id int
	err := e.do(ctx, func() {
		e.nextSub++
		id = e.nextSub
		e.subs[id] = ch
	})
	if err != nil {
		return nil, nil, err
	}
	cancel := func() {
		_ = e.do(context.Background(), func() {
			if _, ok := e.subs[id]; ok {
				delete(e.subs, id)
				close(ch)
			}
		})
	}
	return ch, cancel, nil
}

// fanout delivers ev to every subscriber without blocking.
func (e *Engine) fanout(ev history.Event) {
	for id, ch := range e.subs {
		select {
		case ch <- ev:
		default:
			slog.Warn("subscriber channel full, dropping", "subscriber", id, "event", ev)
		}
	}
}

func (e *Engine) closeSubscribers() {
	for id, ch := range e.subs {
		delete(e.subs, id)
		close(ch)
	}
}
