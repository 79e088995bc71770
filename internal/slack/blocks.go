package slack

import "fmt"

// Block Kit payload fragments. Only the shapes this bot sends are modeled.

// TextObject is a Block Kit text element.
type TextObject struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// ButtonElement is an interactive button inside an actions block.
type ButtonElement struct {
	Type     string      `json:"type"`
	Text     *TextObject `json:"text"`
	Style    string      `json:"style,omitempty"`
	ActionID string      `json:"action_id"`
	Value    string      `json:"value"`
}

// InputElement is the plain-text input inside the edit modal.
type InputElement struct {
	Type         string `json:"type"`
	ActionID     string `json:"action_id"`
	Multiline    bool   `json:"multiline"`
	InitialValue string `json:"initial_value"`
	MaxLength    int    `json:"max_length,omitempty"`
}

// Block is a single layout block.
type Block struct {
	Type     string          `json:"type"`
	BlockID  string          `json:"block_id,omitempty"`
	Text     *TextObject     `json:"text,omitempty"`
	Elements []ButtonElement `json:"elements,omitempty"`
	Element  *InputElement   `json:"element,omitempty"`
	Label    *TextObject     `json:"label,omitempty"`
}

// ModalView is the view opened for editing a tweet.
type ModalView struct {
	Type       string      `json:"type"`
	CallbackID string      `json:"callback_id"`
	Title      *TextObject `json:"title"`
	Submit     *TextObject `json:"submit"`
	Close      *TextObject `json:"close"`
	Blocks     []Block     `json:"blocks"`
}

const (
	// Action ID prefixes carried on the approval buttons. The inbound
	// dispatcher classifies events by these.
	ActionApprovePrefix = "approve_tweet_"
	ActionEditPrefix    = "edit_tweet_"
	ActionRejectPrefix  = "reject_tweet_"
	ActionDisabled      = "disabled_button"

	// EditModalPrefix plus "<index>_<messageTS>" forms the modal callback ID,
	// which is how a modal submission finds its way back to the session.
	EditModalPrefix = "edit_modal_"

	// EditInputBlockID and EditInputActionID locate the edited text in a
	// view_submission payload.
	EditInputBlockID  = "tweet_input"
	EditInputActionID = "tweet_text"

	tweetMaxLength = 280
)

func plain(text string) *TextObject {
	return &TextObject{Type: "plain_text", Text: text}
}

func mrkdwn(text string) *TextObject {
	return &TextObject{Type: "mrkdwn", Text: text}
}

func approvalBlocks(text string, index int) []Block {
	return []Block{
		{
			Type: "section",
			Text: mrkdwn(fmt.Sprintf("*🐦 Tweet Ready for Approval*\n\n_%s_", text)),
		},
		{
			Type: "actions",
			Elements: []ButtonElement{
				{
					Type:     "button",
					Text:     plain("✅ Approve & Tweet"),
					Style:    "primary",
					ActionID: fmt.Sprintf("%s%d", ActionApprovePrefix, index),
					Value:    text,
				},
				{
					Type:     "button",
					Text:     plain("✏️ Edit Tweet"),
					ActionID: fmt.Sprintf("%s%d", ActionEditPrefix, index),
					Value:    text,
				},
				{
					Type:     "button",
					Text:     plain("❌ Reject"),
					Style:    "danger",
					ActionID: fmt.Sprintf("%s%d", ActionRejectPrefix, index),
					Value:    text,
				},
			},
		},
	}
}

func statusBlocks(text, status string) []Block {
	var statusText, label, style string
	switch status {
	case "approved":
		statusText = "*✅ Tweet Approved & Posted*"
		label = "✅ Approved"
		style = "primary"
	case "rejected":
		statusText = "*❌ Tweet Rejected*"
		label = "❌ Rejected"
		style = "danger"
	case "edited":
		statusText = "*✏️ Tweet Updated & Posted*"
		label = "✏️ Edited"
	default:
		statusText = fmt.Sprintf("*%s*", status)
		label = "📝 " + status
	}

	return []Block{
		{
			Type: "section",
			Text: mrkdwn(fmt.Sprintf("*🐦 Tweet Ready for Approval*\n\n_%s_", text)),
		},
		{
			Type: "section",
			Text: mrkdwn(statusText),
		},
		{
			Type: "actions",
			Elements: []ButtonElement{
				{
					Type:     "button",
					Text:     plain(label),
					Style:    style,
					ActionID: ActionDisabled,
					Value:    "disabled",
				},
			},
		},
	}
}

func editModalView(text string, index int, messageTS string) ModalView {
	return ModalView{
		Type:       "modal",
		CallbackID: fmt.Sprintf("%s%d_%s", EditModalPrefix, index, messageTS),
		Title:      plain("Edit Tweet"),
		Submit:     plain("Update & Approve"),
		Close:      plain("Cancel"),
		Blocks: []Block{
			{
				Type:    "input",
				BlockID: EditInputBlockID,
				Element: &InputElement{
					Type:         "plain_text_input",
					ActionID:     EditInputActionID,
					Multiline:    true,
					InitialValue: text,
					MaxLength:    tweetMaxLength,
				},
				Label: plain("Tweet Content"),
			},
		},
	}
}
