package storage

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/petems/memo-tray/internal/config"
)

func TestFSPersistReadList(t *testing.T) {
	ctx := context.Background()
	s := NewFS(filepath.Join(t.TempDir(), "recordings"))

	objects, err := s.List(ctx)
	if err != nil || len(objects) != 0 {
		t.Fatalf("expected empty list for missing dir, got %v %v", objects, err)
	}

	if err := s.Persist(ctx, "recording-2.wav", []byte("two")); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if err := s.Persist(ctx, "recording-1.wav", []byte("one!")); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	if err := os.WriteFile(filepath.Join(s.Dir(), "notes.txt"), []byte("x"), 0644); err != nil {
		t.Fatal(err)
	}

	objects, err = s.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(objects) != 2 {
		t.Fatalf("expected 2 recordings, got %+v", objects)
	}
	if objects[0].Name != "recording-1.wav" || objects[0].Size != 4 {
		t.Errorf("unexpected first object %+v", objects[0])
	}

	data, err := s.Read(ctx, "recording-2.wav")
	if err != nil || !bytes.Equal(data, []byte("two")) {
		t.Errorf("unexpected read %q %v", data, err)
	}

	// Overwrite keeps a single file.
	if err := s.Persist(ctx, "recording-2.wav", []byte("again")); err != nil {
		t.Fatalf("Persist failed: %v", err)
	}
	entries, _ := os.ReadDir(s.Dir())
	if len(entries) != 3 {
		t.Errorf("expected no leftover temp files, got %d entries", len(entries))
	}
}

func TestFSDelete(t *testing.T) {
	ctx := context.Background()
	s := NewFS(t.TempDir())

	if err := s.Persist(ctx, "a.wav", []byte("a")); err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(ctx, "a.wav"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	if err := s.Delete(ctx, "a.wav"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.Read(ctx, "a.wav"); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestFSRejectsPathNames(t *testing.T) {
	ctx := context.Background()
	s := NewFS(t.TempDir())

	for _, name := range []string{"", "..", "../x.wav", "sub/x.wav", `a\b.wav`} {
		if err := s.Persist(ctx, name, []byte("x")); err == nil {
			t.Errorf("expected %q to be rejected", name)
		}
	}
}

func TestFSPersistFailure(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "file")
	if err := os.WriteFile(blocker, nil, 0644); err != nil {
		t.Fatal(err)
	}

	s := NewFS(filepath.Join(blocker, "recordings"))
	if err := s.Persist(context.Background(), "a.wav", []byte("x")); err == nil {
		t.Fatal("expected error when the directory cannot be created")
	}
}

func TestOpenFS(t *testing.T) {
	dir := t.TempDir()
	st, err := Open(context.Background(), config.StorageConfig{Backend: config.BackendFS, Dir: dir})
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if fs, ok := st.(*FS); !ok || fs.Dir() != dir {
		t.Fatalf("expected FS store for %s, got %T", dir, st)
	}
	if _, err := Open(context.Background(), config.StorageConfig{Backend: "ftp"}); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestIsRecording(t *testing.T) {
	for name, want := range map[string]bool{"a.wav": true, "B.WAV": true, "a.wav.tmp": false, "a.mp3": false} {
		if got := IsRecording(name); got != want {
			t.Errorf("%s: expected %v, got %v", name, want, got)
		}
	}
}
