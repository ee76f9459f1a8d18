package persist

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipstash/internal/content"
	"go.klb.dev/clipstash/internal/history"
)

func testPNG(t *testing.T) content.Image {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewGray(image.Rect(0, 0, 2, 2))))
	return content.Image(buf.Bytes())
}

func TestOpenPragmas(t *testing.T) {
	db := OpenMemory(t, WithBusyTimeout(1234))

	var busy int
	require.NoError(t, db.QueryRow("PRAGMA busy_timeout").Scan(&busy))
	assert.Equal(t, 1234, busy)

	var sync int
	require.NoError(t, db.QueryRow("PRAGMA synchronous").Scan(&sync))
	assert.Equal(t, 1, sync) // NORMAL
}

func TestOpenFileCreatesDirectories(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "dir", "history.db")
	db, err := Open(path, WithMkdirAll())
	require.NoError(t, err)
	defer db.Close()

	var journal string
	require.NoError(t, db.QueryRow("PRAGMA journal_mode").Scan(&journal))
	assert.Equal(t, "wal", journal)
}

func TestOpenOrRecoverCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	garbage := bytes.Repeat([]byte("not a database "), 100)
	require.NoError(t, os.WriteFile(path, garbage, 0o600))

	_, err := Open(path)
	require.Error(t, err)
	assert.True(t, IsCorrupt(err), "%v", err)

	db, aside, err := OpenOrRecover(path, WithMkdirAll())
	require.NoError(t, err)
	defer db.Close()
	require.NotEmpty(t, aside)

	moved, err := os.ReadFile(aside)
	require.NoError(t, err)
	assert.Equal(t, garbage, moved)

	p := New(db)
	items, err := p.LoadAll(context.Background())
	require.NoError(t, err)
	assert.Empty(t, items)
	require.NoError(t, p.Upsert(context.Background(), history.Item{
		ID:        "fresh",
		Content:   content.Text("fresh"),
		Timestamp: time.Now(),
	}))
}

func TestOpenOrRecoverHealthyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, aside, err := OpenOrRecover(path)
	require.NoError(t, err)
	assert.Empty(t, aside)
	require.NoError(t, db.Close())

	assert.False(t, IsCorrupt(errors.New("disk full")))
	assert.False(t, IsCorrupt(nil))
}

func TestUpsertAndLoad(t *testing.T) {
	p := New(OpenMemory(t))
	ctx := context.Background()
	base := time.Date(2026, 7, 1, 12, 0, 0, 123, time.UTC)

	img := testPNG(t)
	items := []history.Item{
		{ID: "a", Content: content.Text("alpha"), Timestamp: base, Tags: []string{"work"}},
		{ID: "b", Content: img, Timestamp: base.Add(time.Second), Pinned: true},
		{ID: "c", Content: content.File("/tmp/c.txt"), Timestamp: base.Add(2 * time.Second), Tags: []string{"home", "work"}},
	}
	for _, it := range items {
		require.NoError(t, p.Upsert(ctx, it))
	}

	got, err := p.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 3)

	assert.Equal(t, "c", got[0].ID)
	assert.Equal(t, content.File("/tmp/c.txt"), got[0].Content)
	assert.Equal(t, []string{"home", "work"}, got[0].Tags)

	assert.Equal(t, "b", got[1].ID)
	assert.Equal(t, img, got[1].Content)
	assert.True(t, got[1].Pinned)

	assert.Equal(t, "a", got[2].ID)
	assert.True(t, base.Equal(got[2].Timestamp))
	assert.False(t, got[2].Pinned)
}

func TestUpdatesAndDeletes(t *testing.T) {
	p := New(OpenMemory(t))
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, p.Upsert(ctx, history.Item{ID: "a", Content: content.Text("a"), Timestamp: now}))
	require.NoError(t, p.Upsert(ctx, history.Item{ID: "b", Content: content.Text("b"), Timestamp: now}))

	require.NoError(t, p.UpdatePin(ctx, "a", true))
	require.NoError(t, p.UpdateTags(ctx, "a", "x,y"))
	require.NoError(t, p.UpdatePin(ctx, "missing", true))

	got, err := p.LoadAll(ctx)
	require.NoError(t, err)
	byID := map[string]history.Item{}
	for _, it := range got {
		byID[it.ID] = it
	}
	assert.True(t, byID["a"].Pinned)
	assert.Equal(t, []string{"x", "y"}, byID["a"].Tags)
	assert.Empty(t, byID["b"].Tags)

	require.NoError(t, p.Delete(ctx, "a"))
	n, err := p.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, p.DeleteAll(ctx))
	got, err = p.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoadSkipsUndecodableRows(t *testing.T) {
	db := OpenMemory(t)
	p := New(db)
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, p.Upsert(ctx, history.Item{ID: "good", Content: content.Text("ok"), Timestamp: now}))
	_, err := db.Exec(`INSERT INTO clipboard_items (id, kind, content, created_at) VALUES
		('bad-text', 'text', x'fffe', 1),
		('bad-image', 'image', x'00010203', 2),
		('bad-kind', 'rtf', x'41', 3)`)
	require.NoError(t, err)

	got, err := p.LoadAll(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "good", got[0].ID)
}

func TestLoadFailsOnBrokenSchema(t *testing.T) {
	db := OpenMemory(t)
	_, err := db.Exec(`DROP TABLE clipboard_items`)
	require.NoError(t, err)

	_, err = New(db).LoadAll(context.Background())
	assert.Error(t, err)

	// The store degrades to an empty history instead of failing.
	s := history.New(New(db))
	s.Load(context.Background())
	assert.Zero(t, s.Len())
}

func TestStoreRoundTrip(t *testing.T) {
	db := OpenMemory(t)
	ctx := context.Background()

	s := history.New(New(db), history.WithCapacity(5))
	s.Load(ctx)

	hello := s.Insert(ctx, content.Text("hello"))
	s.Insert(ctx, testPNG(t))
	s.TogglePin(ctx, hello.ID)
	for i := range 8 {
		it := s.Insert(ctx, content.Text(fmt.Sprintf("clip %d", i)))
		if i%2 == 0 {
			require.NoError(t, s.AddTag(ctx, it.ID, "even"))
		}
	}
	require.NoError(t, s.AddTag(ctx, hello.ID, "greeting"))

	n, err := New(db).Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 6, n, "evicted rows are deleted")

	reloaded := history.New(New(db), history.WithCapacity(5))
	reloaded.Load(ctx)

	want, got := s.Items(), reloaded.Items()
	require.Len(t, got, len(want))
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Content, got[i].Content)
		assert.Equal(t, want[i].Pinned, got[i].Pinned)
		assert.Equal(t, want[i].Tags, got[i].Tags)
		assert.True(t, want[i].Timestamp.Equal(got[i].Timestamp))
	}
	assert.Equal(t, s.Tags(), reloaded.Tags())
	assert.Equal(t, hello.ID, got[0].ID)

	s.ClearAll(ctx)
	cleared := history.New(New(db))
	cleared.Load(ctx)
	assert.Zero(t, cleared.Len())
}
