package tagindex

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRebuild(t *testing.T) {
	x := New()
	assert.Empty(t, x.List())

	assert.True(t, x.Rebuild([]string{"work", "home"}, []string{"work"}, nil))
	assert.Equal(t, []string{"home", "work"}, x.List())
	assert.Equal(t, 2, x.Len())
	assert.True(t, x.Contains("work"))
	assert.False(t, x.Contains("Work"))

	// Same union from different sets: unchanged.
	assert.False(t, x.Rebuild([]string{"home"}, []string{"work", "home"}))

	assert.True(t, x.Rebuild([]string{"home"}))
	assert.Equal(t, []string{"home"}, x.List())

	assert.True(t, x.Rebuild())
	assert.Zero(t, x.Len())
	assert.False(t, x.Rebuild())
}
