package ports

import "context"

// MediaStore uploads media files to external object storage and returns a
// public reference. Implementations must not leave partial state visible on
// failure; callers sequence upload-then-persist.
type MediaStore interface {
	Upload(ctx context.Context, folder string, file *FileUpload) (string, error)
}
