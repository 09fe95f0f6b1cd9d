// Package classifier assigns inbound messages to response categories
// using fixed per-language keyword sets and spam patterns.
package classifier

import (
	"regexp"
	"strings"

	"github.com/maksim/feather/internal/domain/message/entity"
)

// Promotional patterns that mark a message as spam regardless of any
// keyword category it would otherwise match
var spamPatterns = []*regexp.Regexp{
	regexp.MustCompile(`https?://\S+`),
	regexp.MustCompile(`follow\s+me`),
	regexp.MustCompile(`check\s+out`),
	regexp.MustCompile(`buy\s+now`),
	regexp.MustCompile(`discount`),
	regexp.MustCompile(`free\s+money`),
}

var keywordSets = map[string]map[entity.MessageType][]string{
	"en": {
		entity.MessageTypeGreeting: {"hello", "hi", "hey", "morning", "evening"},
		entity.MessageTypeQuestion: {"how", "what", "where", "when", "why", "?"},
		entity.MessageTypeHelp:     {"help", "support"},
	},
	"ru": {
		entity.MessageTypeGreeting: {"привет", "hello", "hi", "добро", "утро", "день", "вечер"},
		entity.MessageTypeQuestion: {"как", "что", "где", "когда", "почему", "зачем", "?", "how", "what", "where", "when", "why"},
		entity.MessageTypeHelp:     {"помощь", "help", "поддержка", "support"},
	},
}

// Classifier classifies message text. Safe for concurrent use.
type Classifier struct {
	keywords  map[entity.MessageType][]string
	blacklist []string
}

// New creates a classifier for the given language tag. Unknown
// languages fall back to English keywords. The blacklist extends spam
// detection with operator-supplied words.
func New(language string, blacklist []string) *Classifier {
	kw, ok := keywordSets[language]
	if !ok {
		kw = keywordSets["en"]
	}

	lowered := make([]string, 0, len(blacklist))
	for _, w := range blacklist {
		if w = strings.ToLower(strings.TrimSpace(w)); w != "" {
			lowered = append(lowered, w)
		}
	}

	return &Classifier{keywords: kw, blacklist: lowered}
}

// Classify returns the message category. Spam detection runs first and
// short-circuits: a promotional message containing a greeting word is
// spam, not a greeting. Remaining categories are checked in priority
// order greeting, question, help; first match wins.
func (c *Classifier) Classify(text string) entity.MessageType {
	lower := strings.ToLower(text)

	if c.isSpam(lower) {
		return entity.MessageTypeSpam
	}

	for _, t := range []entity.MessageType{
		entity.MessageTypeGreeting,
		entity.MessageTypeQuestion,
		entity.MessageTypeHelp,
	} {
		for _, kw := range c.keywords[t] {
			if strings.Contains(lower, kw) {
				return t
			}
		}
	}

	return entity.MessageTypeGeneral
}

func (c *Classifier) isSpam(lower string) bool {
	for _, p := range spamPatterns {
		if p.MatchString(lower) {
			return true
		}
	}
	for _, w := range c.blacklist {
		if strings.Contains(lower, w) {
			return true
		}
	}
	return false
}
