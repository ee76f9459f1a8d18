package clip

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go.klb.dev/clipstash/internal/content"
)

func TestMemoryChangeCount(t *testing.T) {
	m := NewMemory()
	assert.Zero(t, m.ChangeCount())

	_, ok := m.ReadString()
	assert.False(t, ok)

	text := "hi"
	m.Set(&text, []byte{1}, []string{"/a"})
	assert.Equal(t, int64(1), m.ChangeCount())

	s, ok := m.ReadString()
	require.True(t, ok)
	assert.Equal(t, "hi", s)
	img, ok := m.ReadImage()
	require.True(t, ok)
	assert.Equal(t, []byte{1}, img)
	files, ok := m.ReadFileURLs()
	require.True(t, ok)
	assert.Equal(t, []string{"/a"}, files)

	// Set copies its text argument.
	text = "changed"
	s, _ = m.ReadString()
	assert.Equal(t, "hi", s)
}

func TestWriteByKind(t *testing.T) {
	cases := []struct {
		c     content.Content
		check func(t *testing.T, m *Memory)
	}{
		{content.Text("hello"), func(t *testing.T, m *Memory) {
			s, ok := m.ReadString()
			assert.True(t, ok)
			assert.Equal(t, "hello", s)
			_, ok = m.ReadImage()
			assert.False(t, ok)
		}},
		{content.Image{9, 8, 7}, func(t *testing.T, m *Memory) {
			img, ok := m.ReadImage()
			assert.True(t, ok)
			assert.Equal(t, []byte{9, 8, 7}, img)
			_, ok = m.ReadString()
			assert.False(t, ok)
		}},
		{content.File("/tmp/x.txt"), func(t *testing.T, m *Memory) {
			files, ok := m.ReadFileURLs()
			assert.True(t, ok)
			assert.Equal(t, []string{"/tmp/x.txt"}, files)
			_, ok = m.ReadString()
			assert.False(t, ok)
		}},
	}
	for _, tc := range cases {
		t.Run(string(tc.c.Kind()), func(t *testing.T) {
			m := NewMemory()
			s := "stale"
			m.Set(&s, []byte{1}, []string{"/old"})
			before := m.ChangeCount()

			require.NoError(t, Write(m, tc.c))
			tc.check(t, m)
			assert.Greater(t, m.ChangeCount(), before)
		})
	}
}
