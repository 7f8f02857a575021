package tracking

import (
	"context"
	"go.uber.org/zap"
	"parcel-status-relay/config"
	"parcel-status-relay/core"
	"parcel-status-relay/workers/tracking/models"
	"parcel-status-relay/workers/tracking/processors"
	"sync"
	"sync/atomic"
	"time"
)

// Worker polls the tracked parcel and relays status changes to chat. It also
// answers on-demand status queries, which never affect change detection.
type Worker struct {
	logger    *zap.Logger
	config    *config.TrackingConfig
	processor processors.CarrierTrackingProcessor
	notifier  Notifier
	channel   string
	journal   Journal
	metrics   *core.Metrics
	state     *PollerState
	now       func() time.Time

	tickMu sync.Mutex
	busy   atomic.Bool
}

type Option func(*Worker)

func WithJournal(journal Journal) Option {
	return func(w *Worker) { w.journal = journal }
}

func WithMetrics(metrics *core.Metrics) Option {
	return func(w *Worker) { w.metrics = metrics }
}

func WithState(state *PollerState) Option {
	return func(w *Worker) { w.state = state }
}

func NewWorker(logger *zap.Logger, cfg *config.TrackingConfig, processor processors.CarrierTrackingProcessor, notifier Notifier, channel string, opts ...Option) *Worker {
	w := &Worker{
		logger:    logger,
		config:    cfg,
		processor: processor,
		notifier:  notifier,
		channel:   channel,
		state:     NewPollerState(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

func (w *Worker) Name() string {
	return "tracking"
}

func (w *Worker) Schedule() string {
	return w.config.Schedule
}

func (w *Worker) Ready(time.Time) bool {
	return !w.busy.Load()
}

func (w *Worker) Execute(ctx context.Context) {
	if !w.busy.CompareAndSwap(false, true) {
		return
	}
	defer w.busy.Store(false)

	w.Tick(ctx)
}

// State exposes the shared change-detection memory for read access.
func (w *Worker) State() *PollerState {
	return w.state
}

// Tick fetches the current status and notifies the channel when its text
// differs from the last delivered one. It reports whether a notification went out.
func (w *Worker) Tick(ctx context.Context) bool {
	w.tickMu.Lock()
	defer w.tickMu.Unlock()

	record := w.fetch(ctx)

	if ctx.Err() != nil {
		w.logger.Info("Tracking check cancelled, discarding result",
			zap.String("tracking_number", w.config.Number),
		)
		return false
	}

	if record.Absent() {
		w.logger.Debug("No status found, nothing to compare",
			zap.String("tracking_number", w.config.Number),
		)
		return false
	}

	if !w.state.Changed(record.Summary) {
		w.logger.Debug("Tracking status unchanged",
			zap.String("tracking_number", w.config.Number),
			zap.String("kind", string(record.Kind)),
		)
		return false
	}

	err := w.notifier.Notify(ctx, w.channel, record.Summary)
	w.metrics.RecordNotification(err)
	if err != nil {
		w.logger.Error("Failed to deliver status notification",
			zap.String("tracking_number", w.config.Number),
			zap.String("channel", w.channel),
			zap.Error(err),
		)
		return false
	}

	w.state.Record(record.Summary)
	w.logger.Info("Tracking status changed, notification sent 📦",
		zap.String("tracking_number", w.config.Number),
		zap.String("kind", string(record.Kind)),
		zap.String("channel", w.channel),
	)

	w.saveNotification(ctx, record)
	return true
}

// QueryNow fetches and renders the current status for a caller.
func (w *Worker) QueryNow(ctx context.Context) string {
	return w.fetch(ctx).Text()
}

func (w *Worker) fetch(ctx context.Context) models.StatusRecord {
	start := w.now()
	record := w.processor.Process(ctx)
	w.metrics.RecordFetch(w.processor.Name(), string(record.Kind), w.now().Sub(start))
	return record
}

func (w *Worker) saveNotification(ctx context.Context, record models.StatusRecord) {
	if w.journal == nil {
		return
	}

	err := w.journal.SaveNotification(ctx, &models.Notification{
		TrackingNumber: w.config.Number,
		Channel:        w.channel,
		Kind:           string(record.Kind),
		Message:        record.Summary,
		SentAt:         w.now().UTC(),
	})
	if err != nil {
		w.logger.Error("Failed to save notification",
			zap.String("tracking_number", w.config.Number),
			zap.Error(err),
		)
	}
}
