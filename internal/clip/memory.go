package clip

import (
	"bytes"
	"slices"
	"sync"
)

// Memory is an in-process pasteboard. Each write or clear bumps the change
// count, like NSPasteboard does.
type Memory struct {
	mu    sync.Mutex
	count int64
	text  *string
	image []byte
	files []string
}

var _ Pasteboard = (*Memory)(nil)

// NewMemory returns an empty in-memory pasteboard.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) Name() string { return "in-memory" }

func (m *Memory) ChangeCount() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.count
}

func (m *Memory) ReadString() (string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.text == nil {
		return "", false
	}
	return *m.text, true
}

func (m *Memory) ReadImage() ([]byte, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.image == nil {
		return nil, false
	}
	return bytes.Clone(m.image), true
}

func (m *Memory) ReadFileURLs() ([]string, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.files) == 0 {
		return nil, false
	}
	return slices.Clone(m.files), true
}

func (m *Memory) WriteText(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = &text
	m.count++
	return nil
}

func (m *Memory) WriteImage(png []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.image = bytes.Clone(png)
	m.count++
	return nil
}

func (m *Memory) WriteFiles(paths []string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files = slices.Clone(paths)
	m.count++
	return nil
}

func (m *Memory) Clear() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text, m.image, m.files = nil, nil, nil
	m.count++
	return nil
}

func (m *Memory) Close() {}

// Set replaces all representations at once as a single change, the way
// another application copying multi-format data would. A nil text means no
// text representation.
func (m *Memory) Set(text *string, image []byte, files []string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if text != nil {
		t := *text
		text = &t
	}
	m.text = text
	m.image = bytes.Clone(image)
	m.files = slices.Clone(files)
	m.count++
}
