package generate

import (
	"fmt"
	"strings"
)

const defaultSystemPrompt = `You are a social media writer drafting tweets from a newsletter.
Write in first person, natural and engaging, never sounding like AI.
Each tweet must stand alone, be under 280 characters, and contain no numbering or hashtag spam.
Respond with JSON only: an array of objects, each with a single "tweet" field.`

const defaultUserPrompt = `Draft up to 5 tweets from this newsletter content:

%s

Do not repeat any of these previously drafted tweets:
%s`

func buildPrompts(systemOverride, userOverride, source string, history []string) (string, string) {
	system := systemOverride
	if strings.TrimSpace(system) == "" {
		system = defaultSystemPrompt
	}

	userTemplate := userOverride
	if strings.TrimSpace(userTemplate) == "" {
		userTemplate = defaultUserPrompt
	}

	avoid := "(none)"
	if len(history) > 0 {
		var b strings.Builder
		for _, h := range history {
			b.WriteString("- ")
			b.WriteString(h)
			b.WriteString("\n")
		}
		avoid = strings.TrimRight(b.String(), "\n")
	}

	return system, fmt.Sprintf(userTemplate, source, avoid)
}
