package storage

import (
	"fmt"
	"io"
)

const (
	KindMemory = "memory"
	KindSQLite = "sqlite"

	// DefaultSQLitePath is where the sqlite backend keeps runs when no path
	// is given.
	DefaultSQLitePath = "tspga.db"
)

// ResolveKind maps an empty backend name to DefaultStoreKind.
func ResolveKind(kind string) string {
	if kind == "" {
		return DefaultStoreKind()
	}
	return kind
}

// NewStore opens the run store named by kind. An empty kind selects
// DefaultStoreKind and an empty sqlitePath selects DefaultSQLitePath.
func NewStore(kind, sqlitePath string) (Store, error) {
	switch resolved := ResolveKind(kind); resolved {
	case KindMemory:
		return NewMemoryStore(), nil
	case KindSQLite:
		if sqlitePath == "" {
			sqlitePath = DefaultSQLitePath
		}
		return newSQLiteStore(sqlitePath)
	default:
		return nil, fmt.Errorf("unsupported store backend %q: want %s or %s", resolved, KindMemory, KindSQLite)
	}
}

// CloseIfSupported releases stores that hold a connection. The memory store
// has nothing to release.
func CloseIfSupported(store Store) error {
	if closer, ok := store.(io.Closer); ok {
		return closer.Close()
	}
	return nil
}
