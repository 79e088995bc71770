package bootstrap

import (
	"fmt"

	"github.com/gin-gonic/gin"

	"tweetpilot/internal/approval"
	"tweetpilot/internal/dispatch"
	"tweetpilot/internal/generate"
	"tweetpilot/internal/interactions"
	"tweetpilot/internal/newsletter"
	"tweetpilot/internal/queue"
	"tweetpilot/internal/shared/config"
	"tweetpilot/internal/shared/server"
	"tweetpilot/internal/shared/telemetry"
	"tweetpilot/internal/slack"
	"tweetpilot/internal/twitter"
)

// App holds the wired application: the HTTP surface for Slack interactions
// and the background loop that feeds candidates into it.
type App struct {
	Config  config.Config
	Router  *gin.Engine
	Loop    *dispatch.Loop
	Store   *queue.Store
	Tracker *approval.Tracker
	Slack   *slack.Client
	Twitter *twitter.Client
	History *newsletter.History
}

// Build wires every component from the configuration. It fails fast on
// settings that make the process useless rather than limping along.
func Build(cfg config.Config) (*App, error) {
	if missing := cfg.Validate(); len(missing) > 0 {
		return nil, fmt.Errorf("missing required configuration: %v", missing)
	}
	if cfg.Slack.SigningSecret == "" {
		telemetry.Warn("bootstrap.no_signing_secret", map[string]any{
			"detail": "interaction requests will not be verified",
		})
	}

	store := queue.NewStore(cfg.QueueFile)
	tracker := approval.NewTracker()
	history := newsletter.NewHistory(cfg.HistoryFile)

	slackClient := slack.NewClient(cfg.Slack.BotToken, cfg.Slack.Channel)
	twitterClient := twitter.NewClient(twitter.Credentials{
		APIKey:       cfg.Twitter.APIKey,
		APISecret:    cfg.Twitter.APISecret,
		AccessToken:  cfg.Twitter.AccessToken,
		AccessSecret: cfg.Twitter.AccessSecret,
	})

	llm, err := generate.NewOpenAILLM(cfg.LLM.APIKey, cfg.LLM.Model, cfg.LLM.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("build llm client: %w", err)
	}
	generator, err := generate.NewGenerator(llm, cfg.Prompts)
	if err != nil {
		return nil, fmt.Errorf("build generator: %w", err)
	}

	fetcher := newsletter.NewFetcher(cfg.Mail)
	refiller := dispatch.NewGeneratorRefiller(fetcher, generator, history)
	loop := dispatch.NewLoop(store, tracker, slackClient, refiller, cfg.DispatchInterval)

	dispatcher := interactions.NewDispatcher(tracker, store, twitterClient, slackClient, history)
	handler := interactions.NewHandler(dispatcher, slack.NewVerifier(cfg.Slack.SigningSecret))
	router := server.NewRouter(handler)

	return &App{
		Config:  cfg,
		Router:  router,
		Loop:    loop,
		Store:   store,
		Tracker: tracker,
		Slack:   slackClient,
		Twitter: twitterClient,
		History: history,
	}, nil
}
