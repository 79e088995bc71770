package interactions

import (
	"strings"

	"tweetpilot/internal/slack"
)

// Interaction payload types delivered by the approval surface.
const (
	TypeBlockActions   = "block_actions"
	TypeViewSubmission = "view_submission"
)

// Payload is the decoded interaction description Slack posts to the webhook.
// Only the fields this bot consumes are modeled.
type Payload struct {
	Type      string   `json:"type"`
	TriggerID string   `json:"trigger_id"`
	Actions   []Action `json:"actions"`
	Message   struct {
		TS string `json:"ts"`
	} `json:"message"`
	View View `json:"view"`
}

// Action is one element of a block_actions payload. Value carries the
// candidate text placed on the button when the approval message was posted.
type Action struct {
	ActionID string `json:"action_id"`
	Value    string `json:"value"`
}

// View is the modal state of a view_submission payload.
type View struct {
	CallbackID string `json:"callback_id"`
	State      struct {
		Values map[string]map[string]struct {
			Value string `json:"value"`
		} `json:"values"`
	} `json:"state"`
}

// EditedText extracts the submitted tweet text from the edit modal.
func (v View) EditedText() (string, bool) {
	block, ok := v.State.Values[slack.EditInputBlockID]
	if !ok {
		return "", false
	}
	input, ok := block[slack.EditInputActionID]
	if !ok || strings.TrimSpace(input.Value) == "" {
		return "", false
	}
	return input.Value, true
}

// SessionTS recovers the originating message timestamp embedded in the edit
// modal's callback ID (edit_modal_<index>_<messageTS>).
func (v View) SessionTS() (string, bool) {
	if !strings.HasPrefix(v.CallbackID, slack.EditModalPrefix) {
		return "", false
	}
	idx := strings.LastIndex(v.CallbackID, "_")
	if idx < 0 || idx == len(v.CallbackID)-1 {
		return "", false
	}
	return v.CallbackID[idx+1:], true
}

// Ack is the JSON acknowledgment returned to Slack. Button clicks get a
// text; modal submissions get a response_action; anything else gets status.
type Ack struct {
	Text           string            `json:"text,omitempty"`
	ResponseAction string            `json:"response_action,omitempty"`
	Errors         map[string]string `json:"errors,omitempty"`
	Status         string            `json:"status,omitempty"`
}
