//go:build cgo

package history

import (
	"context"

	"github.com/rs/zerolog"
)

// Open returns the persistent store at path with its schema initialized.
func Open(ctx context.Context, path string, _ zerolog.Logger) (Store, error) {
	s, err := NewKuzuFileStore(path)
	if err != nil {
		return nil, err
	}
	if err := s.InitSchema(ctx); err != nil {
		s.Close()
		return nil, err
	}
	return s, nil
}
