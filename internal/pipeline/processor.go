package pipeline

import (
	"context"
	"sync"

	"github.com/petems/memo-tray/internal/audio"
	"github.com/petems/memo-tray/internal/metrics"
	"github.com/rs/zerolog"
)

// LevelReporter receives one representative block per dequeued block.
// Silent blocks are reported as a single zero sample.
type LevelReporter interface {
	OnBlockProcessed(block audio.Block)
}

// ReporterFunc adapts a function to LevelReporter.
type ReporterFunc func(audio.Block)

func (f ReporterFunc) OnBlockProcessed(block audio.Block) { f(block) }

var silentPlaceholder = audio.Block{0}

// Processor drops silent blocks and appends the rest to a Draft as PCM bytes.
type Processor struct {
	in        <-chan audio.Block
	draft     *Draft
	threshold int
	reporter  LevelReporter
	log       zerolog.Logger
	metrics   *metrics.Metrics

	stop     chan struct{}
	stopOnce sync.Once
}

// NewProcessor creates a processing stage. reporter may be nil.
func NewProcessor(in <-chan audio.Block, draft *Draft, threshold int, reporter LevelReporter, log zerolog.Logger, m *metrics.Metrics) *Processor {
	return &Processor{
		in:        in,
		draft:     draft,
		threshold: threshold,
		reporter:  reporter,
		log:       log.With().Str("stage", "processing").Logger(),
		metrics:   m,
		stop:      make(chan struct{}),
	}
}

// Terminate asks Run to return once any block it holds has been handled.
// Blocks still queued are left behind.
func (p *Processor) Terminate() {
	p.stopOnce.Do(func() { close(p.stop) })
}

// Run consumes the queue until terminated, ctx is done, or the queue is closed.
func (p *Processor) Run(ctx context.Context) error {
	for {
		// Honor a pending stop before taking another block.
		select {
		case <-p.stop:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		select {
		case <-p.stop:
			return nil
		case <-ctx.Done():
			return nil
		case block, ok := <-p.in:
			if !ok {
				p.log.Debug().Msg("Queue closed")
				return nil
			}
			p.process(block)
		}
	}
}

func (p *Processor) process(block audio.Block) {
	rep := block
	appended := 0

	silent := audio.IsSilent(block, p.threshold)
	if silent {
		rep = silentPlaceholder
	} else {
		raw := audio.Bytes(block)
		p.draft.Append(raw)
		appended = len(raw)
	}

	p.metrics.BlockProcessed(silent, appended, len(p.in))

	if p.reporter != nil {
		p.reporter.OnBlockProcessed(rep)
	}
}
