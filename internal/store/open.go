package store

import (
	"fmt"
	"strings"
)

// Backend names accepted by Open.
const (
	BackendMemory = "memory"
	BackendSQLite = "sqlite"
)

// Open returns the ResultStore for backend. For the sqlite backend an empty
// path resolves to DefaultDBPath; path is ignored for memory.
func Open(backend, path string) (ResultStore, error) {
	switch strings.ToLower(strings.TrimSpace(backend)) {
	case BackendMemory:
		return NewInMemoryStore(), nil
	case BackendSQLite, "":
		if path == "" {
			p, err := DefaultDBPath()
			if err != nil {
				return nil, storageErr("open", err)
			}
			path = p
		}
		return NewSQLiteStore(path)
	default:
		return nil, fmt.Errorf("%w: %q (want %s or %s)", ErrUnknownBackend, backend, BackendMemory, BackendSQLite)
	}
}
