//go:build windows

package ipc

import (
	"os"
	"path/filepath"
)

func runtimeDir() string {
	if dir := os.Getenv("LOCALAPPDATA"); dir != "" {
		return filepath.Join(dir, "clipstash")
	}
	return os.TempDir()
}
