// Package blob stores complaint attachments and returns a stable URL for each.
package blob

import (
	"context"
	"io"
	"path"
	"strings"
	"time"

	"github.com/google/uuid"
)

// File is one uploaded attachment.
type File struct {
	Name        string
	ContentType string
	Size        int64
	Content     io.Reader
}

// IsEmpty reports whether f carries no file. An empty file is "no file", not an error.
func (f *File) IsEmpty() bool {
	return f == nil || f.Content == nil || (f.Size == 0 && f.Name == "")
}

// Store puts an object and returns its public URL.
type Store interface {
	Put(ctx context.Context, key, contentType string, r io.Reader, size int64) (string, error)
}

// Uploader turns files into URLs through a Store.
type Uploader struct {
	store Store
}

// NewUploader creates an Uploader over store.
func NewUploader(store Store) *Uploader {
	return &Uploader{store: store}
}

// Upload stores f under prefix and returns its URL. A nil or empty file
// returns "" and no error.
func (u *Uploader) Upload(ctx context.Context, prefix string, f *File) (string, error) {
	if f.IsEmpty() {
		return "", nil
	}
	contentType := f.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return u.store.Put(ctx, ObjectKey(prefix, f.Name, time.Now()), contentType, f.Content, f.Size)
}

// ObjectKey builds prefix/YYYY/MM/<uuid><ext>. The original name only
// contributes its extension.
func ObjectKey(prefix, name string, now time.Time) string {
	ext := strings.ToLower(path.Ext(name))
	if len(ext) > 10 {
		ext = ""
	}
	return path.Join(strings.Trim(prefix, "/"), now.Format("2006/01"), uuid.NewString()+ext)
}
