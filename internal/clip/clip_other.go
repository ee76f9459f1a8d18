//go:build !darwin && !windows && !linux

package clip

// New returns an in-memory pasteboard for platforms without a supported
// clipboard (BSDs, containers, etc.).
func New() Pasteboard {
	return NewMemory()
}
