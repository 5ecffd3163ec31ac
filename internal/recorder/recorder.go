package recorder

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/petems/memo-tray/internal/audio"
	"github.com/petems/memo-tray/internal/config"
	"github.com/petems/memo-tray/internal/metrics"
	"github.com/petems/memo-tray/internal/pipeline"
	"github.com/petems/memo-tray/internal/storage"
	"github.com/petems/memo-tray/internal/wavfile"
	"github.com/rs/zerolog"
)

type State int

const (
	Idle State = iota
	Recording
	Paused
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case Recording:
		return "recording"
	case Paused:
		return "paused"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

var (
	// ErrInvalidState is returned when an action is not allowed in the current state.
	ErrInvalidState = errors.New("action not allowed in current state")
	// ErrEmptyRecording is returned by Stop when nothing but silence was captured.
	ErrEmptyRecording = errors.New("recording is empty")
)

const (
	dateFormat = "2006-01-02"
	timeFormat = "15:04"
)

// StatusUpdater is an interface for updating status (e.g., tray icon)
type StatusUpdater interface {
	SetState(State)
	SetLevel(level int)
}

// Details are the user supplied tags of a saved recording.
type Details struct {
	Name    string
	Surname string
	Title   string
	Comment string
}

type Config struct {
	Device        audio.Device
	Sink          storage.Sink
	Audio         config.AudioConfig
	Logger        zerolog.Logger
	Metrics       *metrics.Metrics
	StatusUpdater StatusUpdater // Optional - can be nil
	Now           func() time.Time
}

// Recorder drives capture sessions and turns the accumulated draft into
// saved recordings. Recording again after Stop continues the same draft.
type Recorder struct {
	device  audio.Device
	sink    storage.Sink
	cfg     config.AudioConfig
	log     zerolog.Logger
	metrics *metrics.Metrics
	status  StatusUpdater
	now     func() time.Time

	mu       sync.Mutex
	state    State
	draft    *pipeline.Draft
	session  *pipeline.Session
	source   audio.FrameSource
	lastSave string
}

func New(cfg Config) *Recorder {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	return &Recorder{
		device:  cfg.Device,
		sink:    cfg.Sink,
		cfg:     cfg.Audio,
		log:     cfg.Logger,
		metrics: cfg.Metrics,
		status:  cfg.StatusUpdater,
		now:     now,
		draft:   pipeline.NewDraft(),
	}
}

func (r *Recorder) State() State {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.state
}

// LastSaved returns the name of the most recent successful save.
func (r *Recorder) LastSaved() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.lastSave
}

// Start begins capturing from the configured device.
func (r *Recorder) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Recording {
		return fmt.Errorf("start: %w (%s)", ErrInvalidState, r.state)
	}

	src, err := r.device.Open(r.cfg.DeviceID, r.cfg.SampleRate, r.cfg.BlockSize)
	if err != nil {
		return fmt.Errorf("open input device: %w", err)
	}

	r.log.Info().Str("device", r.cfg.DeviceID).Int("sample_rate", r.cfg.SampleRate).Msg("Starting recording")

	r.source = src
	r.session = pipeline.NewSession(src, r.draft, pipeline.Options{
		QueueSize:        r.cfg.QueueSize,
		SilenceThreshold: r.cfg.SilenceThreshold,
	}, pipeline.ReporterFunc(r.onBlock), r.log, r.metrics)
	r.session.Start(context.Background())

	r.setStateLocked(Recording)
	return nil
}

// onBlock runs on the processing goroutine and must not take r.mu.
func (r *Recorder) onBlock(block audio.Block) {
	if r.status != nil {
		r.status.SetLevel(audio.Level(block))
	}
}

// Stop ends the capture session. The recorder pauses with the draft kept, or
// returns to idle with ErrEmptyRecording when nothing was kept.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Recording {
		return fmt.Errorf("stop: %w (%s)", ErrInvalidState, r.state)
	}

	sessionErr := r.session.Stop()
	if err := r.source.Close(); err != nil {
		r.log.Warn().Err(err).Msg("Failed to close input stream")
	}
	r.session, r.source = nil, nil

	if r.status != nil {
		r.status.SetLevel(0)
	}
	if sessionErr != nil {
		r.log.Error().Err(sessionErr).Msg("Capture session failed")
	}

	if r.draft.Empty() {
		r.log.Info().Msg("Recording is empty")
		r.setStateLocked(Idle)
		return ErrEmptyRecording
	}

	r.log.Info().Int("blocks", r.draft.Len()).Int("bytes", r.draft.Size()).Msg("Recording paused")
	r.setStateLocked(Paused)
	return nil
}

// Save persists the draft and returns the recording name. On failure the
// draft is kept so the save can be retried.
func (r *Recorder) Save(ctx context.Context, d Details) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Paused {
		return "", fmt.Errorf("save: %w (%s)", ErrInvalidState, r.state)
	}

	wav, err := wavfile.New(uint32(r.cfg.SampleRate), 1)
	if err != nil {
		return "", fmt.Errorf("create container: %w", err)
	}
	for _, block := range r.draft.Blocks() {
		wav.AppendAudio(block)
	}

	now := r.now()
	wav.SetTag(wavfile.TagName, d.Name)
	wav.SetTag(wavfile.TagSurname, d.Surname)
	wav.SetTag(wavfile.TagTitle, d.Title)
	wav.SetTag(wavfile.TagComment, d.Comment)
	wav.SetTag(wavfile.TagDate, now.Format(dateFormat))
	wav.SetTag(wavfile.TagTime, now.Format(timeFormat))

	name := fmt.Sprintf("recording-%d.wav", now.UnixMilli())
	data := wav.Bytes()

	if err := r.sink.Persist(ctx, name, data); err != nil {
		r.metrics.SaveFailed()
		r.log.Error().Err(err).Str("file", name).Msg("Failed to save recording")
		return "", fmt.Errorf("save %s: %w", name, err)
	}

	r.metrics.Saved(len(data))
	r.log.Info().Str("file", name).Dur("duration", wav.Duration()).Msg("Recording saved")

	r.draft.Reset()
	r.lastSave = name
	r.setStateLocked(Idle)
	return name, nil
}

// Discard drops the paused draft.
func (r *Recorder) Discard() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state != Paused {
		return fmt.Errorf("discard: %w (%s)", ErrInvalidState, r.state)
	}

	r.draft.Reset()
	r.log.Info().Msg("Recording draft discarded")
	r.setStateLocked(Idle)
	return nil
}

// Shutdown stops an active session. A paused draft is left unsaved.
func (r *Recorder) Shutdown(ctx context.Context) error {
	if r.State() != Recording {
		return nil
	}
	if err := r.Stop(); err != nil && !errors.Is(err, ErrEmptyRecording) {
		return err
	}
	return nil
}

// SetDevice selects the input device for the next session.
func (r *Recorder) SetDevice(id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.state == Recording {
		return fmt.Errorf("cannot change device while recording")
	}
	r.cfg.DeviceID = id
	return nil
}

func (r *Recorder) ListDevices() ([]audio.AudioDevice, error) {
	return r.device.ListDevices()
}

func (r *Recorder) setStateLocked(s State) {
	r.state = s
	if r.status != nil {
		r.status.SetState(s)
	}
}
