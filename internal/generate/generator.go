package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"tweetpilot/internal/queue"
	"tweetpilot/internal/shared/config"
	"tweetpilot/internal/shared/metrics"
	"tweetpilot/internal/shared/telemetry"
)

const tweetMaxRunes = 280

// Generator turns source material into a batch of candidate tweets.
type Generator struct {
	llm     LLMClient
	prompts config.PromptConfig
}

// NewGenerator wires the model client and optional prompt overrides.
func NewGenerator(llm LLMClient, prompts config.PromptConfig) (*Generator, error) {
	if llm == nil {
		return nil, errors.New("llm client is required")
	}
	return &Generator{llm: llm, prompts: prompts}, nil
}

type draft struct {
	Tweet string `json:"tweet"`
}

// Generate prompts the model with the source material and returns validated
// candidates: distinct, non-empty, within the platform length cap. Drafts
// that fail validation are dropped with a warning rather than clipped.
func (g *Generator) Generate(ctx context.Context, source string, history []string) ([]queue.Candidate, error) {
	if strings.TrimSpace(source) == "" {
		return nil, errors.New("empty source material")
	}

	system, user := buildPrompts(g.prompts.System, g.prompts.User, source, history)
	raw, err := g.llm.Complete(ctx, system, user)
	if err != nil {
		return nil, fmt.Errorf("llm completion: %w", err)
	}

	drafts, err := parseDrafts(raw)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]bool, len(drafts))
	var candidates []queue.Candidate
	for _, d := range drafts {
		text := strings.TrimSpace(d.Tweet)
		if text == "" {
			continue
		}
		if seen[text] {
			telemetry.Warn("generate.duplicate_dropped", map[string]any{"text": truncate(text, 50)})
			continue
		}
		if utf8.RuneCountInString(text) > tweetMaxRunes {
			telemetry.Warn("generate.too_long_dropped", map[string]any{
				"text":  truncate(text, 50),
				"runes": utf8.RuneCountInString(text),
			})
			continue
		}
		seen[text] = true
		candidates = append(candidates, queue.NewCandidate(text, len(candidates)))
		metrics.IncTweetsGenerated()
	}

	if len(candidates) == 0 {
		return nil, errors.New("model produced no usable drafts")
	}

	telemetry.Info("generate.batch", map[string]any{"count": len(candidates)})
	return candidates, nil
}

// parseDrafts accepts either a bare JSON array or an object wrapping one,
// with or without markdown code fences around it.
func parseDrafts(raw string) ([]draft, error) {
	cleaned := stripCodeFence(raw)

	var drafts []draft
	if err := json.Unmarshal([]byte(cleaned), &drafts); err == nil {
		return drafts, nil
	}

	var wrapped struct {
		Tweets []draft `json:"tweets"`
	}
	if err := json.Unmarshal([]byte(cleaned), &wrapped); err == nil && len(wrapped.Tweets) > 0 {
		return wrapped.Tweets, nil
	}

	return nil, fmt.Errorf("malformed model response: %s", truncate(cleaned, 120))
}

func stripCodeFence(raw string) string {
	s := strings.TrimSpace(raw)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
