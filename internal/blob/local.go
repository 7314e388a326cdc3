package blob

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

const allowedImageExts = ".jpg,.jpeg,.png,.gif,.webp"

// Ref points at a stored blob. The core persists and relays only the
// URL; the bytes stay in the blob store.
type Ref struct {
	URL string `json:"url"`
}

// Store saves binary blobs and hands back a retrievable reference
type Store interface {
	Save(originalName string, src io.Reader) (Ref, error)
}

// Local is a blob store backed by a directory on disk, served as
// static files under /uploads
type Local struct {
	dir string
}

// NewLocal creates the upload directory if needed
func NewLocal(dir string) (*Local, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("create upload directory: %w", err)
	}
	return &Local{dir: dir}, nil
}

// Save writes an image blob to disk under a unique name
func (l *Local) Save(originalName string, src io.Reader) (Ref, error) {
	ext := strings.ToLower(filepath.Ext(originalName))
	if ext == "" || !strings.Contains(allowedImageExts, ext) {
		return Ref{}, fmt.Errorf("image format %q not allowed", ext)
	}

	filename := fmt.Sprintf("%s-%d%s", uuid.New().String(), time.Now().Unix(), ext)
	fullPath := filepath.Join(l.dir, filename)

	dst, err := os.Create(fullPath)
	if err != nil {
		return Ref{}, fmt.Errorf("create file: %w", err)
	}
	defer dst.Close()

	if _, err := io.Copy(dst, src); err != nil {
		os.Remove(fullPath)
		return Ref{}, fmt.Errorf("write file: %w", err)
	}

	return Ref{URL: "/uploads/" + filename}, nil
}
