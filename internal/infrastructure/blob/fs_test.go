package blob

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *FSStore {
	t.Helper()
	store, err := NewFSStore(t.TempDir(), "/static")
	if err != nil {
		t.Fatalf("NewFSStore failed: %v", err)
	}
	return store
}

func TestFSStore_UploadAndDelete(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	url, err := store.Upload(ctx, "photo.PNG", []byte("image-bytes"))
	if err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if !strings.HasPrefix(url, "/static/") {
		t.Errorf("url must live under the base URL, got %s", url)
	}
	if !strings.HasSuffix(url, ".png") {
		t.Errorf("extension must be kept lowercased, got %s", url)
	}

	path := filepath.Join(store.root, strings.TrimPrefix(url, "/static/"))
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("blob not written: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("blob content mismatch: %q", data)
	}

	if err := store.Delete(ctx, url); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("blob still on disk after delete")
	}

	// Second delete of the same URL must succeed for retried events.
	if err := store.Delete(ctx, url); err != nil {
		t.Errorf("repeat delete must be a no-op, got %v", err)
	}
}

func TestFSStore_UploadsNeverCollide(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first, err := store.Upload(ctx, "a.txt", []byte("one"))
	if err != nil {
		t.Fatalf("first Upload failed: %v", err)
	}
	second, err := store.Upload(ctx, "a.txt", []byte("two"))
	if err != nil {
		t.Fatalf("second Upload failed: %v", err)
	}
	if first == second {
		t.Error("same filename must map to distinct keys")
	}
}

func TestFSStore_RejectsEmptyFile(t *testing.T) {
	store := newTestStore(t)

	if _, err := store.Upload(context.Background(), "a.txt", nil); err == nil {
		t.Error("empty upload must fail")
	}
}

func TestFSStore_DeleteRejectsForeignURLs(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	cases := []string{
		"https://elsewhere.example/a.png",
		"/other/a.png",
		"/static/../etc/passwd",
		"/static/",
	}
	for _, url := range cases {
		if err := store.Delete(ctx, url); err == nil {
			t.Errorf("url %q must be rejected", url)
		}
	}
}
