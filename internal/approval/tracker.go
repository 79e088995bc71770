package approval

import (
	"sync"

	"tweetpilot/internal/shared/telemetry"
)

// Status is the lifecycle state of an approval session.
type Status string

const (
	StatusPending  Status = "pending"
	StatusInflight Status = "inflight"
	StatusApproved Status = "approved"
	StatusEdited   Status = "edited"
	StatusRejected Status = "rejected"
)

// Session is the live association between one outstanding Slack approval
// message and the candidate text it carries. Sessions live in memory for the
// process lifetime only; a restart drops them and the queue re-dispatches.
type Session struct {
	MessageTS string
	Text      string
	Index     int
	Status    Status
}

// Tracker maps Slack message timestamps to their sessions. All access is
// serialized through one mutex; no lock is ever held across a network call.
type Tracker struct {
	mu       sync.Mutex
	sessions map[string]*Session
}

// NewTracker returns an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{sessions: make(map[string]*Session)}
}

// Register creates a pending session for the given message timestamp,
// overwriting any prior session with the same timestamp. Slack issues fresh
// timestamps per message, so an overwrite indicates a bug upstream and is
// logged.
func (t *Tracker) Register(messageTS, text string, index int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, exists := t.sessions[messageTS]; exists {
		telemetry.Warn("approval.register_overwrite", map[string]any{"message_ts": messageTS})
	}
	t.sessions[messageTS] = &Session{
		MessageTS: messageTS,
		Text:      text,
		Index:     index,
		Status:    StatusPending,
	}
}

// Lookup returns a copy of the session for the timestamp, if any.
func (t *Tracker) Lookup(messageTS string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[messageTS]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Claim atomically moves a pending session to inflight and returns it. When
// two terminal-causing events race, exactly one caller wins the claim; the
// loser gets ok=false and must treat the event as already processed.
func (t *Tracker) Claim(messageTS string) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[messageTS]
	if !ok || sess.Status != StatusPending {
		return Session{}, false
	}
	sess.Status = StatusInflight
	return *sess, true
}

// Release returns a claimed session to pending so the approver can retry
// after a failed publish. Releasing an unclaimed or unknown session is a
// no-op.
func (t *Tracker) Release(messageTS string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[messageTS]
	if !ok || sess.Status != StatusInflight {
		return
	}
	sess.Status = StatusPending
}

// Finalize records the terminal outcome and removes the session. It is
// idempotent: finalizing an unknown or already-finalized session returns
// false and changes nothing. The outcome is not persisted beyond this log
// line.
func (t *Tracker) Finalize(messageTS string, outcome Status, finalText string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	sess, ok := t.sessions[messageTS]
	if !ok {
		return false
	}
	delete(t.sessions, messageTS)

	text := finalText
	if text == "" {
		text = sess.Text
	}
	telemetry.Info("approval.finalized", map[string]any{
		"message_ts": messageTS,
		"status":     string(outcome),
		"text":       truncate(text, 50),
	})
	return true
}

// Pending reports whether any live session carries the given text. The
// dispatch loop uses this to avoid posting the same queue head twice.
func (t *Tracker) Pending(text string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	for _, sess := range t.sessions {
		if sess.Text == text {
			return true
		}
	}
	return false
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
