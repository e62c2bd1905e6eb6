package ports

import (
	"context"
	"errors"
	"io"
)

var ErrFileNotFound = errors.New("file not found")

// FileStorage keeps uploaded objects under flat names.
// Open and Delete return ErrFileNotFound for unknown names.
type FileStorage interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) error
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Delete(ctx context.Context, name string) error
}
