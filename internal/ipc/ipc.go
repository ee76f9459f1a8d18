// Package ipc locates and opens the local socket on which the clipstash
// daemon serves its History service. CLI sub-commands dial the same path.
//
// The socket is a Unix domain socket on every platform (Windows 10 and later
// support AF_UNIX). A single listener carries both gRPC and the HTTP/JSON
// gateway; see cmd/clipstash.
package ipc

import (
	"errors"
	"fmt"
	"io/fs"
	"net"
	"os"
	"path/filepath"
	"time"
)

// SocketName is the file name of the socket inside the runtime directory.
const SocketName = "clipstash.sock"

// EnvSocket overrides the socket path.
const EnvSocket = "CLIPSTASH_SOCKET"

// SocketPath returns the socket path. Precedence: override, $CLIPSTASH_SOCKET,
// then the platform runtime directory (see runtimeDir).
func SocketPath(override string) string {
	if override != "" {
		return override
	}
	if s := os.Getenv(EnvSocket); s != "" {
		return s
	}
	return filepath.Join(runtimeDir(), SocketName)
}

// Target returns the gRPC dial target for path.
func Target(path string) string { return "unix://" + path }

// IsRunning reports whether a daemon appears to be listening on path. It does
// a cheap dial-and-close; no data is exchanged.
func IsRunning(path string) bool {
	c, err := net.DialTimeout("unix", path, time.Second)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// ErrInUse is returned by Listen when another daemon owns the socket.
var ErrInUse = errors.New("ipc: socket in use")

// Listen creates a listener on path. A stale socket file from a crashed run is
// removed first; a live one makes Listen fail with ErrInUse.
func Listen(path string) (net.Listener, error) {
	if IsRunning(path) {
		return nil, fmt.Errorf("%w: %s", ErrInUse, path)
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("remove stale socket: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("create socket dir: %w", err)
	}
	ln, err := net.Listen("unix", path)
	if err != nil {
		return nil, err
	}
	// Only the owner may talk to the daemon.
	if err := os.Chmod(path, 0o600); err != nil {
		_ = ln.Close()
		return nil, fmt.Errorf("chmod socket: %w", err)
	}
	return ln, nil
}
