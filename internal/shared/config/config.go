package config

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"tweetpilot/internal/shared/telemetry"
)

const configPathEnv = "TWEETPILOT_CONFIG"

// Config holds application configuration.
type Config struct {
	Port             string        `yaml:"port"`
	Env              string        `yaml:"env"`
	QueueFile        string        `yaml:"queueFile"`
	HistoryFile      string        `yaml:"historyFile"`
	DispatchInterval time.Duration `yaml:"dispatchInterval"`

	LLM     LLMConfig     `yaml:"llm"`
	Twitter TwitterConfig `yaml:"twitter"`
	Slack   SlackConfig   `yaml:"slack"`
	Mail    MailConfig    `yaml:"mail"`

	Prompts PromptConfig `yaml:"prompts"`
}

// LLMConfig defines how to contact the completion API.
type LLMConfig struct {
	APIKey  string `yaml:"apiKey"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"baseUrl"`
}

// TwitterConfig carries the OAuth1a user-context credentials.
type TwitterConfig struct {
	APIKey       string `yaml:"apiKey"`
	APISecret    string `yaml:"apiSecret"`
	AccessToken  string `yaml:"accessToken"`
	AccessSecret string `yaml:"accessSecret"`
}

// SlackConfig wires the approval surface.
type SlackConfig struct {
	BotToken      string `yaml:"botToken"`
	Channel       string `yaml:"channel"`
	SigningSecret string `yaml:"signingSecret"`
}

// MailConfig describes the newsletter inbox.
type MailConfig struct {
	User      string `yaml:"user"`
	Password  string `yaml:"password"`
	IMAPAddr  string `yaml:"imapAddr"`
	Sender    string `yaml:"sender"`
	CacheFile string `yaml:"cacheFile"`
}

// PromptConfig allows overriding the generation prompts from the YAML file.
type PromptConfig struct {
	System string `yaml:"system"`
	User   string `yaml:"user"`
}

// Load reads configuration from environment variables with sensible defaults,
// applying overrides from an optional YAML file first.
func Load() Config {
	// Best-effort load of local env files for dev convenience.
	loadEnvFiles(".env", "cmd/.env")

	cfg := Config{
		Port:             getEnv("PORT", "5003"),
		Env:              normalizeEnv(getEnv("ENV", "dev")),
		QueueFile:        getEnv("QUEUE_FILE", "generated_tweets.json"),
		HistoryFile:      getEnv("POST_HISTORY_FILE", "posted_tweets.json"),
		DispatchInterval: getDuration("DISPATCH_INTERVAL", 4*time.Hour),
		LLM: LLMConfig{
			APIKey:  os.Getenv("OPENAI_API_KEY"),
			Model:   getEnv("LLM_MODEL", "gpt-4o-mini"),
			BaseURL: os.Getenv("LLM_BASE_URL"),
		},
		Twitter: TwitterConfig{
			APIKey:       os.Getenv("TWITTER_API_KEY"),
			APISecret:    os.Getenv("TWITTER_API_SECRET"),
			AccessToken:  os.Getenv("TWITTER_ACCESS_TOKEN"),
			AccessSecret: os.Getenv("TWITTER_ACCESS_SECRET"),
		},
		Slack: SlackConfig{
			BotToken:      os.Getenv("SLACK_BOT_TOKEN"),
			Channel:       os.Getenv("SLACK_CHANNEL"),
			SigningSecret: os.Getenv("SLACK_SIGNING_SECRET"),
		},
		Mail: MailConfig{
			User:      os.Getenv("MAIL_USER"),
			Password:  os.Getenv("MAIL_PASSWORD"),
			IMAPAddr:  getEnv("MAIL_IMAP_ADDR", "imap.gmail.com:993"),
			Sender:    os.Getenv("NEWSLETTER_SENDER"),
			CacheFile: getEnv("NEWSLETTER_CACHE", "newsletter_cache.txt"),
		},
	}

	if path := os.Getenv(configPathEnv); path != "" {
		applyYAMLOverrides(&cfg, path)
	}

	return cfg
}

// Validate reports every required setting that is absent. An empty slice
// means the configuration is complete enough to run.
func (c Config) Validate() []string {
	required := []struct {
		name  string
		value string
	}{
		{"OPENAI_API_KEY", c.LLM.APIKey},
		{"TWITTER_API_KEY", c.Twitter.APIKey},
		{"TWITTER_API_SECRET", c.Twitter.APISecret},
		{"TWITTER_ACCESS_TOKEN", c.Twitter.AccessToken},
		{"TWITTER_ACCESS_SECRET", c.Twitter.AccessSecret},
		{"MAIL_USER", c.Mail.User},
		{"MAIL_PASSWORD", c.Mail.Password},
		{"SLACK_BOT_TOKEN", c.Slack.BotToken},
		{"SLACK_CHANNEL", c.Slack.Channel},
	}

	var missing []string
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			missing = append(missing, r.name)
		}
	}
	return missing
}

func applyYAMLOverrides(cfg *Config, path string) {
	raw, err := os.ReadFile(path)
	if err != nil {
		telemetry.Warn("config.file_unreadable", map[string]any{"path": path, "error": err.Error()})
		return
	}
	var fileCfg Config
	if err := yaml.Unmarshal(raw, &fileCfg); err != nil {
		telemetry.Warn("config.file_invalid", map[string]any{"path": path, "error": err.Error()})
		return
	}
	mergeConfig(cfg, fileCfg)
}

// mergeConfig copies non-zero fields from src over dst. The YAML file wins
// over environment values so deployments can pin tunables in one place.
func mergeConfig(dst *Config, src Config) {
	mergeString(&dst.Port, src.Port)
	mergeString(&dst.Env, src.Env)
	mergeString(&dst.QueueFile, src.QueueFile)
	mergeString(&dst.HistoryFile, src.HistoryFile)
	if src.DispatchInterval > 0 {
		dst.DispatchInterval = src.DispatchInterval
	}
	mergeString(&dst.LLM.APIKey, src.LLM.APIKey)
	mergeString(&dst.LLM.Model, src.LLM.Model)
	mergeString(&dst.LLM.BaseURL, src.LLM.BaseURL)
	mergeString(&dst.Twitter.APIKey, src.Twitter.APIKey)
	mergeString(&dst.Twitter.APISecret, src.Twitter.APISecret)
	mergeString(&dst.Twitter.AccessToken, src.Twitter.AccessToken)
	mergeString(&dst.Twitter.AccessSecret, src.Twitter.AccessSecret)
	mergeString(&dst.Slack.BotToken, src.Slack.BotToken)
	mergeString(&dst.Slack.Channel, src.Slack.Channel)
	mergeString(&dst.Slack.SigningSecret, src.Slack.SigningSecret)
	mergeString(&dst.Mail.User, src.Mail.User)
	mergeString(&dst.Mail.Password, src.Mail.Password)
	mergeString(&dst.Mail.IMAPAddr, src.Mail.IMAPAddr)
	mergeString(&dst.Mail.Sender, src.Mail.Sender)
	mergeString(&dst.Mail.CacheFile, src.Mail.CacheFile)
	mergeString(&dst.Prompts.System, src.Prompts.System)
	mergeString(&dst.Prompts.User, src.Prompts.User)
}

func mergeString(dst *string, src string) {
	if strings.TrimSpace(src) != "" {
		*dst = src
	}
}

func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

func getDuration(key string, def time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return def
	}
	parsed, err := time.ParseDuration(raw)
	if err != nil || parsed <= 0 {
		return def
	}
	return parsed
}

func normalizeEnv(raw string) string {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "production", "prod":
		return "production"
	case "staging":
		return "staging"
	case "local":
		return "local"
	default:
		return "dev"
	}
}
