package uploads

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestSanitizeFilename(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"photo.png", "photo.png"},
		{"../../etc/passwd", "passwd"},
		{"/tmp/evil.sh", "evil.sh"},
		{"my photo (1).png", "my_photo__1_.png"},
		{"  spaced.jpg  ", "spaced.jpg"},
		{"UPPER_case-ok.JPG", "UPPER_case-ok.JPG"},
	}
	for _, tc := range cases {
		got, err := SanitizeFilename(tc.in)
		if err != nil {
			t.Errorf("SanitizeFilename(%q) error: %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("SanitizeFilename(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizeFilename_Empty(t *testing.T) {
	for _, in := range []string{"", "   ", "...", "../.."} {
		if _, err := SanitizeFilename(in); !errors.Is(err, ErrEmptyFilename) {
			t.Errorf("SanitizeFilename(%q): expected ErrEmptyFilename, got %v", in, err)
		}
	}
}

func TestDiskStore_Save(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error: %v", err)
	}

	path, err := store.Save(context.Background(), "lesion.png", strings.NewReader("image-bytes"))
	if err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if path != filepath.Join("uploads", "lesion.png") {
		t.Errorf("unexpected relative path %q", path)
	}

	content, err := os.ReadFile(filepath.Join(dir, "lesion.png"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(content) != "image-bytes" {
		t.Errorf("unexpected file content %q", content)
	}
}

func TestDiskStore_SaveOverwritesCollidingName(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error: %v", err)
	}

	if _, err := store.Save(context.Background(), "a.png", strings.NewReader("first")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}
	if _, err := store.Save(context.Background(), "a.png", strings.NewReader("second")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	content, err := os.ReadFile(filepath.Join(dir, "a.png"))
	if err != nil {
		t.Fatalf("read saved file: %v", err)
	}
	if string(content) != "second" {
		t.Errorf("expected last writer to win, got %q", content)
	}
}

func TestDiskStore_SaveStripsPathComponents(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "uploads")
	store, err := NewDiskStore(dir)
	if err != nil {
		t.Fatalf("NewDiskStore() error: %v", err)
	}

	if _, err := store.Save(context.Background(), "../escape.png", strings.NewReader("x")); err != nil {
		t.Fatalf("Save() error: %v", err)
	}

	if _, err := os.Stat(filepath.Join(dir, "escape.png")); err != nil {
		t.Errorf("expected file inside uploads dir: %v", err)
	}
}
