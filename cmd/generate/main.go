// Command generate runs one generation cycle: fetch the newsletter, produce
// candidate tweets, and append them to the queue file. Useful for seeding
// the queue before starting the bot.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"tweetpilot/internal/dispatch"
	"tweetpilot/internal/generate"
	"tweetpilot/internal/newsletter"
	"tweetpilot/internal/queue"
	"tweetpilot/internal/shared/config"
)

func main() {
	sourceFile := flag.String("source", "", "read source text from a file instead of the inbox")
	timeout := flag.Duration("timeout", 3*time.Minute, "overall deadline for the cycle")
	flag.Parse()

	cfg := config.Load()
	if cfg.LLM.APIKey == "" {
		log.Fatal("OPENAI_API_KEY is required")
	}

	llm, err := generate.NewOpenAILLM(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
	if err != nil {
		log.Fatalf("llm client: %v", err)
	}
	generator, err := generate.NewGenerator(llm, cfg.Prompts)
	if err != nil {
		log.Fatalf("generator: %v", err)
	}

	history := newsletter.NewHistory(cfg.HistoryFile)

	var source dispatch.SourceProvider
	if *sourceFile != "" {
		source = fileSource{path: *sourceFile}
	} else {
		if missing := cfg.Validate(); len(missing) > 0 {
			log.Fatalf("missing required configuration: %v", missing)
		}
		source = newsletter.NewFetcher(cfg.Mail)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	refiller := dispatch.NewGeneratorRefiller(source, generator, history)
	candidates, err := refiller.Refill(ctx)
	if err != nil {
		log.Fatalf("generate: %v", err)
	}

	store := queue.NewStore(cfg.QueueFile)
	if err := store.Append(candidates...); err != nil {
		log.Fatalf("save queue: %v", err)
	}

	fmt.Printf("queued %d candidates in %s\n", len(candidates), cfg.QueueFile)
	for _, c := range candidates {
		fmt.Printf("  - %s\n", c.Tweet)
	}
}

type fileSource struct{ path string }

func (f fileSource) Source(ctx context.Context) (string, error) {
	raw, err := os.ReadFile(f.path)
	if err != nil {
		return "", err
	}
	return string(raw), nil
}
