// Package clip provides a unified interface to the system pasteboard across
// platforms. Build constraints select the appropriate implementation:
//
//	clip_darwin.go  : macOS via golang.design/x/clipboard + cgo NSPasteboard (change count, file URLs)
//	clip_windows.go : Windows via golang.design/x/clipboard + GetClipboardSequenceNumber
//	clip_linux.go   : Linux via golang.design/x/clipboard, change count from a content fingerprint
//	clip_other.go   : in-memory pasteboard for headless / container builds
//
// Memory is also used on Linux when no display server is available, and by
// tests.
package clip

import (
	"fmt"

	"go.klb.dev/clipstash/internal/content"
)

// Pasteboard is the interface that all platform clipboard implementations
// satisfy. Implementations are safe for use from multiple goroutines.
type Pasteboard interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ChangeCount returns a counter that changes every time the pasteboard
	// contents change. Only equality is meaningful.
	ChangeCount() int64

	// ReadString returns the plain-text representation, if any.
	ReadString() (string, bool)
	// ReadImage returns the encoded image representation (PNG), if any.
	ReadImage() ([]byte, bool)
	// ReadFileURLs returns the absolute paths of copied files, if any.
	ReadFileURLs() ([]string, bool)

	WriteText(text string) error
	WriteImage(png []byte) error
	WriteFiles(paths []string) error

	// Clear empties the pasteboard.
	Clear() error

	// Close releases any resources held by the backend.
	Close()
}

// Write replaces the pasteboard contents with the representation matching c:
// plain text for Text, an image for Image, a file-reference list for File.
func Write(pb Pasteboard, c content.Content) error {
	if err := pb.Clear(); err != nil {
		return fmt.Errorf("clip: clear: %w", err)
	}
	var err error
	switch v := c.(type) {
	case content.Text:
		err = pb.WriteText(string(v))
	case content.Image:
		err = pb.WriteImage(v.Bytes())
	case content.File:
		err = pb.WriteFiles([]string{string(v)})
	default:
		return fmt.Errorf("clip: unsupported content %T", c)
	}
	if err != nil {
		return fmt.Errorf("clip: write %s: %w", c.Kind(), err)
	}
	return nil
}
