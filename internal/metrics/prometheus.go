package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the recorder's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// Capture stage
	BlocksCaptured prometheus.Counter
	ReadErrors     prometheus.Counter
	QueueDepth     prometheus.Gauge

	// Processing stage
	BlocksProcessed prometheus.Counter
	SilentBlocks    prometheus.Counter
	DraftBytes      prometheus.Counter

	// Recordings
	RecordingsSaved prometheus.Counter
	SaveFailures    prometheus.Counter
	RecordingSize   prometheus.Histogram
	Merges          prometheus.Counter
}

// New creates the collectors and registers them with reg
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		BlocksCaptured: f.NewCounter(prometheus.CounterOpts{
			Name: "memo_blocks_captured_total",
			Help: "Total number of audio blocks read from the input device",
		}),
		ReadErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "memo_capture_read_errors_total",
			Help: "Total number of failed block reads",
		}),
		QueueDepth: f.NewGauge(prometheus.GaugeOpts{
			Name: "memo_queue_depth",
			Help: "Blocks waiting between capture and processing",
		}),
		BlocksProcessed: f.NewCounter(prometheus.CounterOpts{
			Name: "memo_blocks_processed_total",
			Help: "Total number of blocks classified by the processing stage",
		}),
		SilentBlocks: f.NewCounter(prometheus.CounterOpts{
			Name: "memo_blocks_silent_total",
			Help: "Total number of blocks discarded as silence",
		}),
		DraftBytes: f.NewCounter(prometheus.CounterOpts{
			Name: "memo_draft_bytes_total",
			Help: "Total PCM bytes appended to recording drafts",
		}),
		RecordingsSaved: f.NewCounter(prometheus.CounterOpts{
			Name: "memo_recordings_saved_total",
			Help: "Total number of recordings persisted",
		}),
		SaveFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "memo_recording_save_failures_total",
			Help: "Total number of failed recording saves",
		}),
		RecordingSize: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "memo_recording_size_bytes",
			Help:    "Size of saved recordings",
			Buckets: prometheus.ExponentialBuckets(16*1024, 4, 8), // 16KB to ~256MB
		}),
		Merges: f.NewCounter(prometheus.CounterOpts{
			Name: "memo_merges_total",
			Help: "Total number of recording merges",
		}),
	}
}

func (m *Metrics) BlockCaptured(queued int) {
	if m == nil {
		return
	}
	m.BlocksCaptured.Inc()
	m.QueueDepth.Set(float64(queued))
}

func (m *Metrics) ReadFailed() {
	if m == nil {
		return
	}
	m.ReadErrors.Inc()
}

// BlockProcessed records one classified block; appended is 0 for silence.
func (m *Metrics) BlockProcessed(silent bool, appended, queued int) {
	if m == nil {
		return
	}
	m.BlocksProcessed.Inc()
	m.QueueDepth.Set(float64(queued))
	if silent {
		m.SilentBlocks.Inc()
		return
	}
	m.DraftBytes.Add(float64(appended))
}

func (m *Metrics) Saved(size int) {
	if m == nil {
		return
	}
	m.RecordingsSaved.Inc()
	m.RecordingSize.Observe(float64(size))
}

func (m *Metrics) SaveFailed() {
	if m == nil {
		return
	}
	m.SaveFailures.Inc()
}

func (m *Metrics) Merged() {
	if m == nil {
		return
	}
	m.Merges.Inc()
}
