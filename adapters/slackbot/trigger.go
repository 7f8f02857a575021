package slackbot

import "strings"

// Trigger decides whether an inbound message asks for the current status.
type Trigger func(text string, mentioned bool) bool

// NewTrigger matches messages containing phrase (case-insensitive) and,
// when onMention is set, any message that mentions the bot.
func NewTrigger(phrase string, onMention bool) Trigger {
	phrase = strings.ToLower(strings.TrimSpace(phrase))
	return func(text string, mentioned bool) bool {
		if onMention && mentioned {
			return true
		}
		return phrase != "" && strings.Contains(strings.ToLower(text), phrase)
	}
}
