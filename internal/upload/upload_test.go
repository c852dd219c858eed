package upload

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestValidate(t *testing.T) {
	const maxBytes = 5 << 20

	tests := []struct {
		name        string
		contentType string
		size        int64
		wantErr     bool
	}{
		{"jpeg", "image/jpeg", 1024, false},
		{"png", "image/png", 1024, false},
		{"gif", "image/gif", 1024, false},
		{"webp", "image/webp", 1024, false},
		{"at the cap", "image/png", maxBytes, false},
		{"over the cap", "image/png", maxBytes + 1, true},
		{"empty", "image/png", 0, true},
		{"pdf", "application/pdf", 1024, true},
		{"svg", "image/svg+xml", 1024, true},
		{"no type", "", 1024, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.contentType, tt.size, maxBytes)
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate(%q, %d) = %v, wantErr %v", tt.contentType, tt.size, err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, ErrInvalidUpload) {
				t.Errorf("err = %v, want ErrInvalidUpload", err)
			}
		})
	}
}

// memStore records saves for service tests.
type memStore struct {
	saved map[string][]byte
}

func (m *memStore) Save(_ context.Context, name string, content []byte, _ string) (string, error) {
	if m.saved == nil {
		m.saved = make(map[string][]byte)
	}
	m.saved[name] = content
	return "/media/" + name, nil
}

func TestServiceUpload(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, 1024)

	url, err := svc.Upload(context.Background(), []byte("fake image bytes"), "image/png")
	if err != nil {
		t.Fatalf("upload: %v", err)
	}
	if !strings.HasPrefix(url, "/media/") || !strings.HasSuffix(url, ".png") {
		t.Errorf("url = %q, want /media/<uuid>.png", url)
	}
	if len(store.saved) != 1 {
		t.Fatalf("saved %d objects, want 1", len(store.saved))
	}

	// Names are opaque: two uploads of identical bytes must not collide.
	url2, err := svc.Upload(context.Background(), []byte("fake image bytes"), "image/png")
	if err != nil {
		t.Fatalf("second upload: %v", err)
	}
	if url2 == url {
		t.Error("object names collide across uploads")
	}
}

func TestServiceRejectsBeforeStore(t *testing.T) {
	store := &memStore{}
	svc := NewService(store, 16)

	_, err := svc.Upload(context.Background(), []byte("way past the sixteen byte cap"), "image/png")
	if !errors.Is(err, ErrInvalidUpload) {
		t.Fatalf("err = %v, want ErrInvalidUpload", err)
	}
	if len(store.saved) != 0 {
		t.Error("rejected upload reached the store")
	}

	if _, err := svc.Upload(context.Background(), []byte("exe"), "application/octet-stream"); !errors.Is(err, ErrInvalidUpload) {
		t.Errorf("disallowed type err = %v, want ErrInvalidUpload", err)
	}
}

func TestDiskStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "media")

	store, err := NewDiskStore(dir, "/media")
	if err != nil {
		t.Fatalf("new disk store: %v", err)
	}

	url, err := store.Save(context.Background(), "a.png", []byte("bytes"), "image/png")
	if err != nil {
		t.Fatalf("save: %v", err)
	}
	if url != "/media/a.png" {
		t.Errorf("url = %q, want /media/a.png", url)
	}

	content, err := os.ReadFile(filepath.Join(dir, "a.png"))
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	if string(content) != "bytes" {
		t.Errorf("content = %q, want %q", content, "bytes")
	}
}
