// Package blob is the binary object sink for message attachments. Uploaded
// bytes go in, a retrievable URL comes out. The filesystem is abstracted
// behind afero so tests run against an in-memory tree.
package blob

import (
	"context"
	"fmt"
	"net/http"
	"path"

	"github.com/spf13/afero"
)

// Sink stores attachment payloads and hands back retrievable URLs.
type Sink interface {
	// Save writes data under key and returns the URL clients can fetch it at.
	Save(ctx context.Context, key string, data []byte) (string, error)

	// FileSystem exposes the stored objects for HTTP serving.
	FileSystem() http.FileSystem
}

// FSSink is an afero-backed Sink. Production uses afero.NewOsFs rooted at
// the configured upload directory; tests use afero.NewMemMapFs.
type FSSink struct {
	fs      afero.Fs
	dir     string
	baseURL string
}

// NewFSSink creates a filesystem sink. baseURL prefixes returned URLs
// (empty means relative URLs, fine for same-origin clients).
func NewFSSink(fs afero.Fs, dir, baseURL string) (*FSSink, error) {
	if err := fs.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	return &FSSink{fs: fs, dir: dir, baseURL: baseURL}, nil
}

// Save writes data under key and returns its public URL.
func (s *FSSink) Save(ctx context.Context, key string, data []byte) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if err := afero.WriteFile(s.fs, path.Join(s.dir, key), data, 0o644); err != nil {
		return "", fmt.Errorf("write attachment: %w", err)
	}
	return s.baseURL + "/files/" + key, nil
}

// FileSystem exposes the upload directory for HTTP serving.
func (s *FSSink) FileSystem() http.FileSystem {
	return afero.NewHttpFs(afero.NewBasePathFs(s.fs, s.dir))
}
