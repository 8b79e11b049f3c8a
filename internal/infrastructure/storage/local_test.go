package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLocalStore_Store(t *testing.T) {
	dir := t.TempDir()
	s, err := NewLocalStore(filepath.Join(dir, "uploads"), "/uploads")
	if err != nil {
		t.Fatalf("NewLocalStore: %v", err)
	}

	token, err := s.Store(context.Background(), strings.NewReader("image-bytes"), "Poster.PNG")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if !strings.HasPrefix(token, "/uploads/") || !strings.HasSuffix(token, ".png") {
		t.Fatalf("unexpected token %q", token)
	}

	data, err := os.ReadFile(filepath.Join(s.Dir(), strings.TrimPrefix(token, "/uploads/")))
	if err != nil {
		t.Fatalf("read stored file: %v", err)
	}
	if string(data) != "image-bytes" {
		t.Errorf("unexpected content %q", data)
	}
}

func TestLocalStore_UniqueNames(t *testing.T) {
	s, _ := NewLocalStore(t.TempDir(), "/uploads")

	a, _ := s.Store(context.Background(), strings.NewReader("a"), "x.jpg")
	b, _ := s.Store(context.Background(), strings.NewReader("b"), "x.jpg")
	if a == b {
		t.Fatalf("expected distinct tokens, got %q twice", a)
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("connection reset") }

func TestLocalStore_FailedWriteLeavesNoFile(t *testing.T) {
	dir := t.TempDir()
	s, _ := NewLocalStore(dir, "/uploads")

	if _, err := s.Store(context.Background(), failingReader{}, "x.png"); err == nil {
		t.Fatal("expected error")
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("expected no files left behind, found %d", len(entries))
	}
}

func TestSafeExt(t *testing.T) {
	cases := map[string]string{
		"photo.JPG":        ".jpg",
		"archive.tar.gz":   ".gz",
		"noext":            "",
		"../../etc/passwd": "",
		"evil.p/hp":        "",
		"weird.ph p":       "",
		"long.abcdefghijk": "",
	}
	for in, want := range cases {
		if got := safeExt(in); got != want {
			t.Errorf("safeExt(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestLocalStore_Remove(t *testing.T) {
	s, _ := NewLocalStore(t.TempDir(), "/uploads")

	token, err := s.Store(context.Background(), strings.NewReader("png"), "poster.png")
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	if err := s.Remove(context.Background(), token); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if _, err := os.Stat(filepath.Join(s.Dir(), strings.TrimPrefix(token, "/uploads/"))); !os.IsNotExist(err) {
		t.Errorf("expected file to be gone, stat err = %v", err)
	}
	if err := s.Remove(context.Background(), token); err != nil {
		t.Errorf("second Remove: expected nil, got %v", err)
	}

	for _, bad := range []string{"/uploads/../secret", "/elsewhere/x.png", "/uploads/", "x.png"} {
		if err := s.Remove(context.Background(), bad); err == nil {
			t.Errorf("Remove(%q): expected error", bad)
		}
	}
}
