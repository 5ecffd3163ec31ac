package library

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/petems/memo-tray/internal/storage"
	"github.com/petems/memo-tray/internal/wavfile"
	"github.com/rs/zerolog"
)

func save(t *testing.T, s storage.Store, name string, audio []byte, tags map[string]string) {
	t.Helper()
	c, err := wavfile.New(44100, 1)
	if err != nil {
		t.Fatal(err)
	}
	c.AppendAudio(audio)
	for k, v := range tags {
		c.SetTag(k, v)
	}
	if err := s.Persist(context.Background(), name, c.Bytes()); err != nil {
		t.Fatal(err)
	}
}

func newLibrary(t *testing.T) (*Library, *storage.FS) {
	t.Helper()
	s := storage.NewFS(t.TempDir())
	l, err := New(s, 8, zerolog.Nop(), nil)
	if err != nil {
		t.Fatal(err)
	}
	return l, s
}

func TestListSummarizesAndSkipsBroken(t *testing.T) {
	l, s := newLibrary(t)
	ctx := context.Background()

	save(t, s, "recording-1.wav", make([]byte, 88200), map[string]string{
		wavfile.TagName:    "Ann",
		wavfile.TagSurname: "Nowak",
		wavfile.TagTitle:   "Demo",
		wavfile.TagDate:    "2024-05-06",
		wavfile.TagTime:    "09:30",
	})
	if err := os.WriteFile(filepath.Join(s.Dir(), "broken.wav"), []byte("short"), 0644); err != nil {
		t.Fatal(err)
	}

	recs, err := l.List(ctx)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(recs) != 1 {
		t.Fatalf("expected 1 recording, got %+v", recs)
	}
	r := recs[0]
	if r.NameSurname != "Ann Nowak" || r.Title != "Demo" || r.Date != "2024-05-06" || r.Time != "09:30" {
		t.Errorf("unexpected summary %+v", r)
	}
	if r.Duration.Seconds() != 1 {
		t.Errorf("expected 1s, got %v", r.Duration)
	}

	// Second listing is served from the cache and must agree.
	again, err := l.List(ctx)
	if err != nil || len(again) != 1 || again[0].NameSurname != r.NameSurname || again[0].Duration != r.Duration {
		t.Errorf("cached listing differs: %+v %v", again, err)
	}
}

func TestListRefreshesChangedRecording(t *testing.T) {
	l, s := newLibrary(t)
	ctx := context.Background()

	save(t, s, "a.wav", []byte{1, 2}, map[string]string{wavfile.TagTitle: "old"})
	if _, err := l.List(ctx); err != nil {
		t.Fatal(err)
	}
	save(t, s, "a.wav", []byte{1, 2, 3, 4}, map[string]string{wavfile.TagTitle: "new"})

	recs, err := l.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if recs[0].Title != "new" {
		t.Errorf("expected refreshed title, got %q", recs[0].Title)
	}
}

func TestMerge(t *testing.T) {
	l, s := newLibrary(t)
	ctx := context.Background()

	save(t, s, "a.wav", []byte{1, 1}, map[string]string{wavfile.TagTitle: "base"})
	save(t, s, "b.wav", []byte{2, 2, 2, 2}, map[string]string{wavfile.TagTitle: "second"})
	save(t, s, "c.wav", []byte{3, 3}, nil)
	save(t, s, "d.wav", []byte{4, 4}, nil)

	if err := l.Merge(ctx, []string{"a.wav", "c.wav", "b.wav"}); err != nil {
		t.Fatalf("Merge failed: %v", err)
	}

	c, err := l.Load(ctx, "a.wav")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	want := []byte{1, 1, 3, 3, 2, 2, 2, 2}
	if !bytes.Equal(c.Audio(), want) {
		t.Errorf("expected %v, got %v", want, c.Audio())
	}
	if c.Tag(wavfile.TagTitle) != "base" {
		t.Errorf("expected base metadata, got %q", c.Tag(wavfile.TagTitle))
	}

	recs, err := l.List(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(recs) != 2 || recs[0].Name != "a.wav" || recs[1].Name != "d.wav" {
		t.Errorf("expected a.wav and d.wav to remain, got %+v", recs)
	}
}

func TestMergeValidation(t *testing.T) {
	l, s := newLibrary(t)
	ctx := context.Background()
	save(t, s, "a.wav", []byte{1, 1}, nil)

	if err := l.Merge(ctx, []string{"a.wav"}); !errors.Is(err, ErrTooFewRecordings) {
		t.Errorf("expected ErrTooFewRecordings, got %v", err)
	}
	if err := l.Merge(ctx, []string{"a.wav", "a.wav"}); err == nil {
		t.Error("expected error for duplicate names")
	}
	if err := l.Merge(ctx, []string{"a.wav", "missing.wav"}); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}

	// A failed merge leaves the base untouched.
	c, err := l.Load(ctx, "a.wav")
	if err != nil || !bytes.Equal(c.Audio(), []byte{1, 1}) {
		t.Errorf("base changed after failed merge: %v %v", c, err)
	}
}

func TestDelete(t *testing.T) {
	l, s := newLibrary(t)
	ctx := context.Background()
	save(t, s, "a.wav", nil, nil)
	save(t, s, "b.wav", nil, nil)

	if err := l.Delete(ctx, "a.wav", "b.wav"); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}
	recs, _ := l.List(ctx)
	if len(recs) != 0 {
		t.Errorf("expected empty library, got %+v", recs)
	}
	if err := l.Delete(ctx, "a.wav"); !errors.Is(err, storage.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
