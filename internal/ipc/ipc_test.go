package ipc

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSocketPathPrecedence(t *testing.T) {
	t.Setenv(EnvSocket, "/from/env.sock")
	assert.Equal(t, "/flag.sock", SocketPath("/flag.sock"))
	assert.Equal(t, "/from/env.sock", SocketPath(""))

	t.Setenv(EnvSocket, "")
	assert.Equal(t, SocketName, filepath.Base(SocketPath("")))
}

func TestListen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run", SocketName)
	assert.False(t, IsRunning(path))

	ln, err := Listen(path)
	require.NoError(t, err)
	assert.True(t, IsRunning(path))

	_, err = Listen(path)
	assert.ErrorIs(t, err, ErrInUse)

	require.NoError(t, ln.Close())
	assert.False(t, IsRunning(path))

	// Listening again replaces whatever the closed listener left behind.
	ln, err = Listen(path)
	require.NoError(t, err)
	require.NoError(t, ln.Close())
}

func TestTarget(t *testing.T) {
	assert.Equal(t, "unix:///tmp/x.sock", Target("/tmp/x.sock"))
}
