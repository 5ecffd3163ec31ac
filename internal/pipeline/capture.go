package pipeline

import (
	"context"
	"errors"
	"sync"

	"github.com/petems/memo-tray/internal/audio"
	"github.com/petems/memo-tray/internal/metrics"
	"github.com/rs/zerolog"
)

// Capture pulls blocks from a FrameSource into the hand-off queue. It is the
// queue's only producer and closes it on exit.
type Capture struct {
	src     audio.FrameSource
	out     chan<- audio.Block
	log     zerolog.Logger
	metrics *metrics.Metrics

	stop     chan struct{}
	stopOnce sync.Once
}

func NewCapture(src audio.FrameSource, out chan<- audio.Block, log zerolog.Logger, m *metrics.Metrics) *Capture {
	return &Capture{
		src:     src,
		out:     out,
		log:     log.With().Str("stage", "capture").Logger(),
		metrics: m,
		stop:    make(chan struct{}),
	}
}

// Terminate asks Run to return. A read already in progress completes but
// its block is not queued. Safe to call from any goroutine, more than once.
func (c *Capture) Terminate() {
	c.stopOnce.Do(func() { close(c.stop) })
}

// Run reads until terminated, ctx is done, or the source reports ErrSourceClosed.
func (c *Capture) Run(ctx context.Context) error {
	defer close(c.out)

	for {
		select {
		case <-c.stop:
			return nil
		case <-ctx.Done():
			return nil
		default:
		}

		block, err := c.src.ReadBlock()
		if errors.Is(err, audio.ErrSourceClosed) {
			c.log.Debug().Msg("Source closed")
			return nil
		}
		if err != nil {
			c.log.Debug().Err(err).Msg("Skipping failed read")
			c.metrics.ReadFailed()
			continue
		}

		// Blocks when the queue is full, which throttles the source.
		select {
		case c.out <- block:
			c.metrics.BlockCaptured(len(c.out))
		case <-c.stop:
			return nil
		case <-ctx.Done():
			return nil
		}
	}
}
