package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	tweetsGeneratedTotal   atomic.Uint64
	tweetsDispatchedTotal  atomic.Uint64
	tweetsApprovedTotal    atomic.Uint64
	tweetsEditedTotal      atomic.Uint64
	tweetsRejectedTotal    atomic.Uint64
	publishFailedTotal     atomic.Uint64
	verifyRejectedTotal    atomic.Uint64
	correlationMissTotal   atomic.Uint64
	queueWriteFailedTotal  atomic.Uint64
	staleInteractionsTotal atomic.Uint64

	publishDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000})
)

// IncTweetsGenerated increments the generated-candidates counter.
func IncTweetsGenerated() {
	tweetsGeneratedTotal.Add(1)
}

// IncTweetsDispatched increments the sent-for-approval counter.
func IncTweetsDispatched() {
	tweetsDispatchedTotal.Add(1)
}

// IncTweetsApproved increments the approved-and-posted counter.
func IncTweetsApproved() {
	tweetsApprovedTotal.Add(1)
}

// IncTweetsEdited increments the edited-and-posted counter.
func IncTweetsEdited() {
	tweetsEditedTotal.Add(1)
}

// IncTweetsRejected increments the rejected counter.
func IncTweetsRejected() {
	tweetsRejectedTotal.Add(1)
}

// IncPublishFailed increments the publish-failure counter.
func IncPublishFailed() {
	publishFailedTotal.Add(1)
}

// IncVerifyRejected increments the failed-signature counter.
func IncVerifyRejected() {
	verifyRejectedTotal.Add(1)
}

// IncCorrelationMiss counts queue removals that matched nothing. A published
// tweet left sitting in the queue shows up here.
func IncCorrelationMiss() {
	correlationMissTotal.Add(1)
}

// IncQueueWriteFailed increments the queue-file write-failure counter.
func IncQueueWriteFailed() {
	queueWriteFailedTotal.Add(1)
}

// IncStaleInteractions counts events on unknown or already-finalized sessions.
func IncStaleInteractions() {
	staleInteractionsTotal.Add(1)
}

// ObservePublishDurationMs records a publish call duration in milliseconds.
func ObservePublishDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	publishDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "tweets_generated_total", "Total candidate tweets generated", tweetsGeneratedTotal.Load())
	writeCounter(&buf, "tweets_dispatched_total", "Total tweets sent to Slack for approval", tweetsDispatchedTotal.Load())
	writeCounter(&buf, "tweets_approved_total", "Total tweets approved and posted", tweetsApprovedTotal.Load())
	writeCounter(&buf, "tweets_edited_total", "Total tweets edited and posted", tweetsEditedTotal.Load())
	writeCounter(&buf, "tweets_rejected_total", "Total tweets rejected", tweetsRejectedTotal.Load())
	writeCounter(&buf, "publish_failed_total", "Total failed publish calls", publishFailedTotal.Load())
	writeCounter(&buf, "verify_rejected_total", "Total webhook requests rejected by signature verification", verifyRejectedTotal.Load())
	writeCounter(&buf, "queue_correlation_miss_total", "Total queue removals that matched no candidate", correlationMissTotal.Load())
	writeCounter(&buf, "queue_write_failed_total", "Total queue file write failures", queueWriteFailedTotal.Load())
	writeCounter(&buf, "stale_interactions_total", "Total interactions on unknown or finalized sessions", staleInteractionsTotal.Load())
	writeHistogram(&buf, "publish_duration_ms", "Publish call duration in milliseconds", publishDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
