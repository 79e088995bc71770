package queue

import "github.com/google/uuid"

// Candidate is one generated tweet awaiting a publishing decision. The wire
// name of the text field matches the original queue file so existing queues
// keep working.
type Candidate struct {
	ID    string `json:"id,omitempty"`
	Tweet string `json:"tweet"`
	Index int    `json:"index,omitempty"`
}

// NewCandidate builds a candidate with a fresh ID. The ID is carried for
// logging and diagnostics only; queue removal correlates by exact text match.
func NewCandidate(text string, index int) Candidate {
	return Candidate{
		ID:    uuid.NewString(),
		Tweet: text,
		Index: index,
	}
}
