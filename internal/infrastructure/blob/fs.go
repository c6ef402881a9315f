// Package blob provides file storage for post attachments.
package blob

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/enxxi/v-board/internal/core/apperror"
	"github.com/enxxi/v-board/internal/core/id"
	"github.com/enxxi/v-board/internal/domain/attachment"
)

// FSStore keeps attachment blobs on the local filesystem and serves them
// under a static URL prefix. Implements attachment.BlobStore.
type FSStore struct {
	root    string
	baseURL string
}

// NewFSStore creates a store rooted at dir, serving files under baseURL.
func NewFSStore(root, baseURL string) (*FSStore, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("create blob root: %w", err)
	}
	return &FSStore{
		root:    root,
		baseURL: strings.TrimSuffix(baseURL, "/"),
	}, nil
}

// Upload stores content under a generated key and returns the public URL.
// The original filename only contributes its extension; the key is a
// fresh id so uploads never collide.
func (s *FSStore) Upload(ctx context.Context, filename string, content []byte) (string, error) {
	if len(content) == 0 {
		return "", apperror.NewValidation("empty file").WithDetail("filename", filename)
	}

	key := id.New().String() + strings.ToLower(filepath.Ext(filename))
	path := filepath.Join(s.root, key)

	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("write blob %s: %w", key, err)
	}

	return s.baseURL + "/" + key, nil
}

// Delete removes the blob behind the URL. A missing blob is not an error:
// the cleanup worker retries events, and a second delivery must succeed.
func (s *FSStore) Delete(ctx context.Context, url string) error {
	key, ok := s.keyFromURL(url)
	if !ok {
		return apperror.NewValidation("url outside blob store").WithDetail("url", url)
	}

	err := os.Remove(filepath.Join(s.root, key))
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove blob %s: %w", key, err)
	}

	return nil
}

// keyFromURL extracts the storage key and rejects URLs that escape the
// root via path traversal.
func (s *FSStore) keyFromURL(url string) (string, bool) {
	if !strings.HasPrefix(url, s.baseURL+"/") {
		return "", false
	}
	key := strings.TrimPrefix(url, s.baseURL+"/")
	if key == "" || key != filepath.Base(key) {
		return "", false
	}
	return key, true
}

var _ attachment.BlobStore = (*FSStore)(nil)
