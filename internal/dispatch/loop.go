package dispatch

import (
	"context"
	"time"

	"tweetpilot/internal/approval"
	"tweetpilot/internal/queue"
	"tweetpilot/internal/shared/metrics"
	"tweetpilot/internal/shared/telemetry"
)

// Approver posts a candidate to the approval channel and returns the message
// timestamp identifying the session.
type Approver interface {
	PostApproval(ctx context.Context, text string, index int) (string, error)
}

// Refiller produces fresh candidates when the queue runs dry.
type Refiller interface {
	Refill(ctx context.Context) ([]queue.Candidate, error)
}

// Loop periodically surfaces the queue head for approval. One candidate is
// outstanding at a time; a tick while its session is still open does nothing.
// When the queue is empty the loop asks the refiller for new candidates
// before dispatching.
type Loop struct {
	store    *queue.Store
	tracker  *approval.Tracker
	approver Approver
	refiller Refiller
	interval time.Duration
}

func NewLoop(store *queue.Store, tracker *approval.Tracker, approver Approver, refiller Refiller, interval time.Duration) *Loop {
	return &Loop{
		store:    store,
		tracker:  tracker,
		approver: approver,
		refiller: refiller,
		interval: interval,
	}
}

// Run ticks until the context is canceled. The first dispatch happens
// immediately rather than one interval in. Tick failures are logged and the
// loop keeps going; a transient outage costs one cycle, not the process.
func (l *Loop) Run(ctx context.Context) {
	telemetry.Info("dispatch.started", map[string]any{"interval": l.interval.String()})

	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	l.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			telemetry.Info("dispatch.stopped", nil)
			return
		case <-ticker.C:
			l.tick(ctx)
		}
	}
}

// Tick runs one dispatch cycle. Exported so the one-shot command can drive a
// single cycle without the ticker.
func (l *Loop) Tick(ctx context.Context) {
	l.tick(ctx)
}

func (l *Loop) tick(ctx context.Context) {
	head, ok, err := l.store.Head()
	if err != nil {
		telemetry.Error("dispatch.queue_read_failed", map[string]any{"error": err.Error()})
		return
	}

	if !ok {
		if !l.refill(ctx) {
			return
		}
		head, ok, err = l.store.Head()
		if err != nil || !ok {
			return
		}
	}

	if l.tracker.Pending(head.Tweet) {
		telemetry.Debug("dispatch.awaiting_decision", map[string]any{"text": snippet(head.Tweet)})
		return
	}

	messageTS, err := l.approver.PostApproval(ctx, head.Tweet, head.Index)
	if err != nil {
		telemetry.Error("dispatch.post_failed", map[string]any{"error": err.Error()})
		return
	}

	l.tracker.Register(messageTS, head.Tweet, head.Index)
	metrics.IncTweetsDispatched()
	telemetry.Info("dispatch.posted", map[string]any{
		"message_ts": messageTS,
		"text":       snippet(head.Tweet),
	})
}

func (l *Loop) refill(ctx context.Context) bool {
	if l.refiller == nil {
		return false
	}

	candidates, err := l.refiller.Refill(ctx)
	if err != nil {
		telemetry.Error("dispatch.refill_failed", map[string]any{"error": err.Error()})
		return false
	}
	if len(candidates) == 0 {
		telemetry.Info("dispatch.refill_empty", nil)
		return false
	}
	if err := l.store.Append(candidates...); err != nil {
		telemetry.Error("dispatch.refill_save_failed", map[string]any{"error": err.Error()})
		return false
	}
	telemetry.Info("dispatch.refilled", map[string]any{"count": len(candidates)})
	return true
}

func snippet(s string) string {
	if len(s) <= 50 {
		return s
	}
	return s[:50] + "..."
}
