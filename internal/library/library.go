package library

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/petems/memo-tray/internal/metrics"
	"github.com/petems/memo-tray/internal/storage"
	"github.com/petems/memo-tray/internal/wavfile"
	"github.com/rs/zerolog"
)

// ErrTooFewRecordings is returned by Merge when given fewer than two names.
var ErrTooFewRecordings = errors.New("merge needs at least two recordings")

// Recording summarizes a stored recording and its metadata.
type Recording struct {
	Name        string
	Size        int64
	ModTime     time.Time
	NameSurname string
	Title       string
	Comment     string
	Date        string
	Time        string
	Duration    time.Duration
}

type entry struct {
	size      int64
	modTime   time.Time
	container *wavfile.Container
}

// Library reads, merges and deletes recordings in a Store, caching decoded
// containers between listings.
type Library struct {
	store   storage.Store
	cache   *lru.Cache[string, entry]
	log     zerolog.Logger
	metrics *metrics.Metrics
}

func New(store storage.Store, cacheSize int, log zerolog.Logger, m *metrics.Metrics) (*Library, error) {
	cache, err := lru.New[string, entry](cacheSize)
	if err != nil {
		return nil, fmt.Errorf("create cache: %w", err)
	}
	return &Library{store: store, cache: cache, log: log, metrics: m}, nil
}

// List returns every readable recording. Files that fail to parse are skipped.
func (l *Library) List(ctx context.Context) ([]Recording, error) {
	objects, err := l.store.List(ctx)
	if err != nil {
		return nil, err
	}

	recordings := make([]Recording, 0, len(objects))
	for _, obj := range objects {
		c, err := l.load(ctx, obj)
		if err != nil {
			l.log.Warn().Err(err).Str("file", obj.Name).Msg("Skipping unreadable recording")
			continue
		}
		recordings = append(recordings, summarize(obj, c))
	}
	return recordings, nil
}

// Load decodes one recording.
func (l *Library) Load(ctx context.Context, name string) (*wavfile.Container, error) {
	data, err := l.store.Read(ctx, name)
	if err != nil {
		return nil, err
	}
	c, err := wavfile.FromBytes(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	return c, nil
}

func (l *Library) load(ctx context.Context, obj storage.Object) (*wavfile.Container, error) {
	if e, ok := l.cache.Get(obj.Name); ok && e.size == obj.Size && e.modTime.Equal(obj.ModTime) {
		return e.container, nil
	}
	c, err := l.Load(ctx, obj.Name)
	if err != nil {
		return nil, err
	}
	l.cache.Add(obj.Name, entry{size: obj.Size, modTime: obj.ModTime, container: c})
	return c, nil
}

// Delete removes recordings, stopping at the first failure.
func (l *Library) Delete(ctx context.Context, names ...string) error {
	for _, name := range names {
		l.cache.Remove(name)
		if err := l.store.Delete(ctx, name); err != nil {
			return fmt.Errorf("delete %s: %w", name, err)
		}
		l.log.Info().Str("file", name).Msg("Recording deleted")
	}
	return nil
}

// Merge appends the audio of names[1:] to names[0] in order, keeping the
// first recording's format and metadata, then deletes the others.
func (l *Library) Merge(ctx context.Context, names []string) error {
	if len(names) < 2 {
		return ErrTooFewRecordings
	}
	for i, name := range names {
		for _, other := range names[:i] {
			if name == other {
				return fmt.Errorf("recording %s listed twice", name)
			}
		}
	}

	merged, err := l.Load(ctx, names[0])
	if err != nil {
		return err
	}
	for _, name := range names[1:] {
		c, err := l.Load(ctx, name)
		if err != nil {
			return err
		}
		merged = wavfile.Merge(merged, c)
	}

	l.cache.Remove(names[0])
	if err := l.store.Persist(ctx, names[0], merged.Bytes()); err != nil {
		return fmt.Errorf("persist merged %s: %w", names[0], err)
	}
	l.metrics.Merged()
	l.log.Info().Str("file", names[0]).Int("merged", len(names)-1).Dur("duration", merged.Duration()).Msg("Recordings merged")

	return l.Delete(ctx, names[1:]...)
}

func summarize(obj storage.Object, c *wavfile.Container) Recording {
	return Recording{
		Name:        obj.Name,
		Size:        obj.Size,
		ModTime:     obj.ModTime,
		NameSurname: strings.TrimSpace(c.Tag(wavfile.TagName) + " " + c.Tag(wavfile.TagSurname)),
		Title:       c.Tag(wavfile.TagTitle),
		Comment:     c.Tag(wavfile.TagComment),
		Date:        c.Tag(wavfile.TagDate),
		Time:        c.Tag(wavfile.TagTime),
		Duration:    c.Duration(),
	}
}
