package pipeline

import (
	"context"

	"github.com/petems/memo-tray/internal/audio"
	"github.com/petems/memo-tray/internal/metrics"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

const DefaultQueueSize = 64

type Options struct {
	QueueSize        int
	SilenceThreshold int
}

// Session runs one Capture and one Processor connected by a bounded queue.
type Session struct {
	capture *Capture
	proc    *Processor
	g       errgroup.Group
	log     zerolog.Logger
}

// NewSession wires src into draft. The draft must not be touched until Stop
// or Wait has returned.
func NewSession(src audio.FrameSource, draft *Draft, opts Options, reporter LevelReporter, log zerolog.Logger, m *metrics.Metrics) *Session {
	size := opts.QueueSize
	if size < 1 {
		size = DefaultQueueSize
	}
	queue := make(chan audio.Block, size)

	return &Session{
		capture: NewCapture(src, queue, log, m),
		proc:    NewProcessor(queue, draft, opts.SilenceThreshold, reporter, log, m),
		log:     log,
	}
}

// Start launches both stages. It must be called once.
func (s *Session) Start(ctx context.Context) {
	s.log.Debug().Msg("Starting capture session")
	s.g.Go(func() error { return s.capture.Run(ctx) })
	s.g.Go(func() error { return s.proc.Run(ctx) })
}

// Stop signals both stages and waits for them to exit.
func (s *Session) Stop() error {
	s.capture.Terminate()
	s.proc.Terminate()
	return s.Wait()
}

// Wait blocks until both stages have exited on their own.
func (s *Session) Wait() error {
	err := s.g.Wait()
	s.log.Debug().Msg("Capture session finished")
	return err
}
