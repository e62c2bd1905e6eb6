package ports

import (
	"context"
	"mime/multipart"
)

// UploadService validates and stores profile pictures.
type UploadService interface {
	Check(fh *multipart.FileHeader) error
	Save(ctx context.Context, fh *multipart.FileHeader) (string, error)
	Remove(ctx context.Context, publicPath string) error
}
