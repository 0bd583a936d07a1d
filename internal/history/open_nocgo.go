//go:build !cgo

package history

import (
	"context"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

var (
	memStoresMu sync.Mutex
	memStores   = map[string]*MemStore{}
)

// Open returns an in-memory store: KuzuDB needs cgo, so history does not
// survive the process in this build. Every Open of the same path in one
// process shares a store.
func Open(_ context.Context, path string, logger zerolog.Logger) (Store, error) {
	key := path
	if abs, err := filepath.Abs(path); err == nil {
		key = abs
	}

	memStoresMu.Lock()
	defer memStoresMu.Unlock()
	if s, ok := memStores[key]; ok {
		return s, nil
	}
	logger.Warn().Str("path", path).Msg("built without cgo: project history is not persisted")
	s := NewMemStore()
	memStores[key] = s
	return s, nil
}
