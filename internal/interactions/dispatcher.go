package interactions

import (
	"context"
	"strconv"
	"strings"

	"tweetpilot/internal/approval"
	"tweetpilot/internal/shared/metrics"
	"tweetpilot/internal/shared/telemetry"
	"tweetpilot/internal/slack"
)

// Publisher posts an approved tweet and returns its platform ID.
type Publisher interface {
	Post(ctx context.Context, text string) (string, error)
}

// Surface is the subset of the Slack client the dispatcher drives.
type Surface interface {
	UpdateStatus(ctx context.Context, messageTS, status, text string) error
	OpenEditModal(ctx context.Context, triggerID, text string, index int, messageTS string) error
}

// Store removes resolved candidates from the pending queue.
type Store interface {
	RemoveByText(text string) (int, error)
}

// Historian records texts that were actually published.
type Historian interface {
	Add(text string) error
}

// Ack texts returned to Slack for button clicks.
const (
	ackApproved       = "✅ Tweet approved and posted!"
	ackPublishFailed  = "❌ Failed to post tweet. Please try again."
	ackRejected       = "❌ Tweet rejected and removed from queue."
	ackAlreadyHandled = "This tweet has already been processed."
	ackModalFailed    = "❌ Could not open the edit dialog. Please try again."
)

// Dispatcher routes decoded interaction payloads to the approval lifecycle:
// approve publishes and finalizes, reject finalizes without publishing, edit
// opens a modal whose submission publishes the edited text. Each session
// reaches a terminal state at most once.
type Dispatcher struct {
	tracker   *approval.Tracker
	store     Store
	publisher Publisher
	surface   Surface
	history   Historian
}

// NewDispatcher wires the dispatcher to its collaborators.
func NewDispatcher(tracker *approval.Tracker, store Store, publisher Publisher, surface Surface, history Historian) *Dispatcher {
	return &Dispatcher{
		tracker:   tracker,
		store:     store,
		publisher: publisher,
		surface:   surface,
		history:   history,
	}
}

// Dispatch handles one interaction payload and returns the acknowledgment to
// send back to Slack. It never returns an error; failures surface to the
// approver through the ack text so they can retry from the same message.
func (d *Dispatcher) Dispatch(ctx context.Context, p Payload) Ack {
	switch p.Type {
	case TypeBlockActions:
		return d.handleBlockAction(ctx, p)
	case TypeViewSubmission:
		return d.handleViewSubmission(ctx, p)
	default:
		telemetry.Debug("interaction.ignored", map[string]any{"type": p.Type})
		return Ack{Status: "ok"}
	}
}

func (d *Dispatcher) handleBlockAction(ctx context.Context, p Payload) Ack {
	if len(p.Actions) == 0 {
		return Ack{Status: "ok"}
	}
	action := p.Actions[0]
	messageTS := p.Message.TS

	switch {
	case action.ActionID == slack.ActionDisabled:
		metrics.IncStaleInteractions()
		return Ack{Text: ackAlreadyHandled}

	case strings.HasPrefix(action.ActionID, slack.ActionApprovePrefix):
		return d.approve(ctx, messageTS)

	case strings.HasPrefix(action.ActionID, slack.ActionEditPrefix):
		return d.requestEdit(ctx, p.TriggerID, messageTS, action)

	case strings.HasPrefix(action.ActionID, slack.ActionRejectPrefix):
		return d.reject(ctx, messageTS)

	default:
		telemetry.Warn("interaction.unknown_action", map[string]any{
			"action_id":  action.ActionID,
			"message_ts": messageTS,
		})
		return Ack{Status: "ok"}
	}
}

func (d *Dispatcher) approve(ctx context.Context, messageTS string) Ack {
	sess, ok := d.tracker.Claim(messageTS)
	if !ok {
		metrics.IncStaleInteractions()
		return Ack{Text: ackAlreadyHandled}
	}

	tweetID, err := d.publisher.Post(ctx, sess.Text)
	if err != nil {
		d.tracker.Release(messageTS)
		telemetry.Error("interaction.publish_failed", map[string]any{
			"message_ts": messageTS,
			"error":      err.Error(),
		})
		return Ack{Text: ackPublishFailed}
	}

	d.finalize(ctx, messageTS, approval.StatusApproved, sess.Text, sess.Text)
	metrics.IncTweetsApproved()
	telemetry.Info("interaction.approved", map[string]any{
		"message_ts": messageTS,
		"tweet_id":   tweetID,
	})
	return Ack{Text: ackApproved}
}

func (d *Dispatcher) requestEdit(ctx context.Context, triggerID, messageTS string, action Action) Ack {
	sess, ok := d.tracker.Lookup(messageTS)
	if !ok || sess.Status != approval.StatusPending {
		metrics.IncStaleInteractions()
		return Ack{Text: ackAlreadyHandled}
	}

	index := sess.Index
	if n, err := strconv.Atoi(strings.TrimPrefix(action.ActionID, slack.ActionEditPrefix)); err == nil {
		index = n
	}

	if err := d.surface.OpenEditModal(ctx, triggerID, sess.Text, index, messageTS); err != nil {
		telemetry.Error("interaction.modal_failed", map[string]any{
			"message_ts": messageTS,
			"error":      err.Error(),
		})
		return Ack{Text: ackModalFailed}
	}
	return Ack{Status: "ok"}
}

func (d *Dispatcher) reject(ctx context.Context, messageTS string) Ack {
	sess, ok := d.tracker.Claim(messageTS)
	if !ok {
		metrics.IncStaleInteractions()
		return Ack{Text: ackAlreadyHandled}
	}

	d.finalize(ctx, messageTS, approval.StatusRejected, sess.Text, sess.Text)
	metrics.IncTweetsRejected()
	telemetry.Info("interaction.rejected", map[string]any{"message_ts": messageTS})
	return Ack{Text: ackRejected}
}

func (d *Dispatcher) handleViewSubmission(ctx context.Context, p Payload) Ack {
	messageTS, ok := p.View.SessionTS()
	if !ok {
		telemetry.Warn("interaction.bad_callback", map[string]any{"callback_id": p.View.CallbackID})
		return Ack{ResponseAction: "clear"}
	}

	edited, ok := p.View.EditedText()
	if !ok {
		return Ack{
			ResponseAction: "errors",
			Errors:         map[string]string{slack.EditInputBlockID: "Tweet text cannot be empty."},
		}
	}

	sess, claimed := d.tracker.Claim(messageTS)
	if !claimed {
		metrics.IncStaleInteractions()
		return Ack{ResponseAction: "clear"}
	}

	tweetID, err := d.publisher.Post(ctx, edited)
	if err != nil {
		d.tracker.Release(messageTS)
		telemetry.Error("interaction.publish_failed", map[string]any{
			"message_ts": messageTS,
			"error":      err.Error(),
		})
		return Ack{
			ResponseAction: "errors",
			Errors:         map[string]string{slack.EditInputBlockID: ackPublishFailed},
		}
	}

	// The queue still holds the original wording; the edited text never
	// entered it, so removal correlates on the session's text.
	d.finalize(ctx, messageTS, approval.StatusEdited, sess.Text, edited)
	metrics.IncTweetsEdited()
	telemetry.Info("interaction.edited", map[string]any{
		"message_ts": messageTS,
		"tweet_id":   tweetID,
	})
	return Ack{ResponseAction: "clear"}
}

// finalize performs the post-publish bookkeeping shared by every terminal
// transition: drop the candidate from the queue, close the session, rewrite
// the approval message, and record published text in the post history. Each
// step that fails is logged and the rest still run; the session itself is
// already decided.
func (d *Dispatcher) finalize(ctx context.Context, messageTS string, outcome approval.Status, removeText, finalText string) {
	if _, err := d.store.RemoveByText(removeText); err != nil {
		telemetry.Error("interaction.queue_remove_failed", map[string]any{
			"message_ts": messageTS,
			"error":      err.Error(),
		})
	}

	d.tracker.Finalize(messageTS, outcome, finalText)

	if err := d.surface.UpdateStatus(ctx, messageTS, string(outcome), finalText); err != nil {
		telemetry.Warn("interaction.update_failed", map[string]any{
			"message_ts": messageTS,
			"error":      err.Error(),
		})
	}

	if outcome == approval.StatusApproved || outcome == approval.StatusEdited {
		if d.history != nil {
			if err := d.history.Add(finalText); err != nil {
				telemetry.Warn("interaction.history_failed", map[string]any{"error": err.Error()})
			}
		}
	}
}
