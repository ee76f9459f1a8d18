package persist

import (
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// IsCorrupt reports whether err says the database file is damaged or is not
// an SQLite database at all.
func IsCorrupt(err error) bool {
	var se *sqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() & 0xff {
	case sqlite3.SQLITE_CORRUPT, sqlite3.SQLITE_NOTADB:
		return true
	}
	return false
}

// OpenOrRecover is Open, except that a corrupt database file is renamed to
// "<path>.corrupt-<unix seconds>" and a fresh database is created in its
// place. The returned string is the path the damaged file was moved to, or
// empty when nothing was moved.
func OpenOrRecover(path string, opts ...Option) (*sql.DB, string, error) {
	db, err := Open(path, opts...)
	if err == nil || !IsCorrupt(err) || path == ":memory:" {
		return db, "", err
	}

	aside := fmt.Sprintf("%s.corrupt-%d", path, time.Now().Unix())
	if rerr := os.Rename(path, aside); rerr != nil {
		return nil, "", fmt.Errorf("%w (move aside: %v)", err, rerr)
	}
	for _, suffix := range []string{"-wal", "-shm"} {
		if rerr := os.Rename(path+suffix, aside+suffix); rerr != nil && !errors.Is(rerr, os.ErrNotExist) {
			slog.Warn("persist: move aside", "file", path+suffix, "err", rerr)
		}
	}
	slog.Warn("persist: corrupt database moved aside, starting a new one",
		"path", path, "moved_to", aside, "err", err)

	db, err = Open(path, opts...)
	if err != nil {
		return nil, aside, err
	}
	return db, aside, nil
}
