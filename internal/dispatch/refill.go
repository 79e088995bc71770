package dispatch

import (
	"context"
	"fmt"

	"tweetpilot/internal/queue"
)

// SourceProvider yields the newsletter text to generate candidates from.
type SourceProvider interface {
	Source(ctx context.Context) (string, error)
}

// CandidateGenerator turns source material into vetted candidates, steering
// away from texts already published.
type CandidateGenerator interface {
	Generate(ctx context.Context, source string, history []string) ([]queue.Candidate, error)
}

// HistoryReader lists previously published texts.
type HistoryReader interface {
	List() ([]string, error)
}

// GeneratorRefiller refills the queue from the latest newsletter issue.
type GeneratorRefiller struct {
	source    SourceProvider
	generator CandidateGenerator
	history   HistoryReader
}

func NewGeneratorRefiller(source SourceProvider, generator CandidateGenerator, history HistoryReader) *GeneratorRefiller {
	return &GeneratorRefiller{source: source, generator: generator, history: history}
}

func (r *GeneratorRefiller) Refill(ctx context.Context) ([]queue.Candidate, error) {
	text, err := r.source.Source(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch source: %w", err)
	}

	var posted []string
	if r.history != nil {
		posted, err = r.history.List()
		if err != nil {
			return nil, fmt.Errorf("read post history: %w", err)
		}
	}

	candidates, err := r.generator.Generate(ctx, text, posted)
	if err != nil {
		return nil, fmt.Errorf("generate candidates: %w", err)
	}
	return candidates, nil
}
