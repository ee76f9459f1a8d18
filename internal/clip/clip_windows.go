//go:build windows

package clip

import (
	"log/slog"
	"strings"

	"golang.design/x/clipboard"
	"golang.org/x/sys/windows"
)

var procGetClipboardSequenceNumber = windows.NewLazySystemDLL("user32.dll").NewProc("GetClipboardSequenceNumber")

type windowsBackend struct{}

// New returns the Windows clipboard backend.
// clipboard.Init is called here rather than in init() so that CLI sub-commands
// that never construct a Pasteboard don't log spurious warnings.
func New() Pasteboard {
	if err := clipboard.Init(); err != nil {
		slog.Warn("clipboard init failed", "err", err)
	}
	return &windowsBackend{}
}

func (b *windowsBackend) Name() string { return "Windows Clipboard" }

// ChangeCount returns the clipboard sequence number maintained by user32.
func (b *windowsBackend) ChangeCount() int64 {
	n, _, _ := procGetClipboardSequenceNumber.Call()
	return int64(uint32(n))
}

func (b *windowsBackend) ReadString() (string, bool) {
	if text := clipboard.Read(clipboard.FmtText); text != nil {
		return string(text), true
	}
	return "", false
}

func (b *windowsBackend) ReadImage() ([]byte, bool) {
	if img := clipboard.Read(clipboard.FmtImage); img != nil {
		return img, true
	}
	return nil, false
}

// ReadFileURLs reports no files; CF_HDROP is not read by
// golang.design/x/clipboard.
func (b *windowsBackend) ReadFileURLs() ([]string, bool) { return nil, false }

func (b *windowsBackend) WriteText(text string) error {
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

func (b *windowsBackend) WriteImage(png []byte) error {
	clipboard.Write(clipboard.FmtImage, png)
	return nil
}

// WriteFiles writes the paths as CRLF-separated text.
func (b *windowsBackend) WriteFiles(paths []string) error {
	clipboard.Write(clipboard.FmtText, []byte(strings.Join(paths, "\r\n")))
	return nil
}

func (b *windowsBackend) Clear() error { return nil }

func (b *windowsBackend) Close() {}
