package openai

import (
	"context"
	"fmt"
	"math/rand/v2"
	"regexp"
	"strings"
)

// Generator produces posts, threads, and contextual responses on top
// of the completions client. It satisfies the content generator
// contracts of the schedule and message policies.
type Generator struct {
	client *Client

	language      string
	themes        []string
	hashtagCount  int
	maxPostLength int
	maxTokens     int
	temperature   float64
}

// GeneratorConfig holds content generation preferences
type GeneratorConfig struct {
	Language      string
	Themes        []string
	HashtagCount  int
	MaxPostLength int
	MaxTokens     int
	Temperature   float64
}

// NewGenerator creates a generator with the given preferences
func NewGenerator(client *Client, cfg GeneratorConfig) *Generator {
	if cfg.MaxPostLength <= 0 {
		cfg.MaxPostLength = 280
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 150
	}

	return &Generator{
		client:        client,
		language:      cfg.Language,
		themes:        cfg.Themes,
		hashtagCount:  cfg.HashtagCount,
		maxPostLength: cfg.MaxPostLength,
		maxTokens:     cfg.MaxTokens,
		temperature:   cfg.Temperature,
	}
}

var postTemplates = map[string][]string{
	"en": {
		"Write an interesting post about %s for developers. Include a practical tip.",
		"Create a motivational post about %s with personal experience.",
		"Write an educational post about %s with a useful tip.",
		"Create a post about %s that will interest the IT community.",
		"Write an inspiring post about %s for programmers.",
	},
	"ru": {
		"Напиши интересный пост о %s для разработчиков. Включи практический совет.",
		"Создай мотивирующий пост про %s с личным опытом.",
		"Напиши образовательный пост о %s с полезным советом.",
		"Создай пост про %s который заинтересует IT-сообщество.",
		"Напиши вдохновляющий пост о %s для программистов.",
	},
}

var hashtagMaps = map[string]map[string]string{
	"en": {
		"technology": "#technology", "programming": "#programming", "ai": "#AI",
		"devops": "#devops", "automation": "#automation", "coding": "#coding",
		"development": "#development", "software": "#software", "cloud": "#cloud",
		"security": "#security", "data": "#data",
	},
	"ru": {
		"technology": "#технологии", "programming": "#программирование", "ai": "#ии",
		"devops": "#devops", "automation": "#автоматизация", "coding": "#кодинг",
		"development": "#разработка", "software": "#софт", "cloud": "#облако",
		"security": "#безопасность", "data": "#данные",
	},
}

// GeneratePost generates a post on the topic, or on a random
// configured theme when topic is empty
func (g *Generator) GeneratePost(ctx context.Context, topic string) (string, error) {
	if topic == "" {
		if len(g.themes) == 0 {
			return "", fmt.Errorf("no post themes configured")
		}
		topic = g.themes[rand.IntN(len(g.themes))]
	}

	templates := g.templates()
	prompt := fmt.Sprintf(templates[rand.IntN(len(templates))], topic)
	prompt += fmt.Sprintf("\n\nConstraints: at most %d characters, no emoji at the start.", g.maxPostLength)

	system := fmt.Sprintf("You are an expert in %s writing engaging social media posts. Your style is professional but friendly, with practical advice.", topic)

	content, err := g.client.Complete(ctx, system, prompt, g.maxTokens, g.temperature)
	if err != nil {
		return "", fmt.Errorf("generating post: %w", err)
	}

	return g.withHashtags(CleanText(content), topic), nil
}

// GenerateThread generates count logically connected post segments on
// the topic. Hashtags are appended to the last segment when they fit.
func (g *Generator) GenerateThread(ctx context.Context, topic string, count int) ([]string, error) {
	prompt := fmt.Sprintf("Create a thread of %d posts about '%s'.\n", count, topic)
	prompt += "Number each post (1/" + fmt.Sprint(count) + ", 2/" + fmt.Sprint(count) + ", ...) and keep them logically connected.\n"
	prompt += fmt.Sprintf("At most %d characters per post.", g.maxPostLength)

	system := "You write high-quality social media threads. Every post in the thread must be valuable and tied to the common topic."

	content, err := g.client.Complete(ctx, system, prompt, g.maxTokens*count, g.temperature)
	if err != nil {
		return nil, fmt.Errorf("generating thread: %w", err)
	}

	segments := splitThread(content)
	if len(segments) == 0 {
		return nil, fmt.Errorf("thread generation produced no segments")
	}

	last := segments[len(segments)-1]
	tagged := last + "\n\n" + strings.Join(g.hashtags(topic), " ")
	if len(tagged) <= g.maxPostLength {
		segments[len(segments)-1] = tagged
	}

	for i := range segments {
		segments[i] = Truncate(segments[i], g.maxPostLength)
	}
	return segments, nil
}

// GenerateResponse generates a reply to the source text, steered by
// the dispatcher's context hint
func (g *Generator) GenerateResponse(ctx context.Context, sourceText, userID, contextHint string) (string, error) {
	prompt := fmt.Sprintf("Reply to this message from user %s: '%s'\n\n", userID, sourceText)
	prompt += fmt.Sprintf("Constraints: at most %d characters, polite and constructive.", g.maxPostLength)
	if contextHint != "" {
		prompt += "\n\nAdditional context: " + contextHint
	}

	system := "You are a polite and constructive social media user. You answer messages professionally but warmly."

	// Lower temperature for replies
	content, err := g.client.Complete(ctx, system, prompt, g.maxTokens, 0.5)
	if err != nil {
		return "", fmt.Errorf("generating response: %w", err)
	}

	return Truncate(CleanText(content), g.maxPostLength), nil
}

func (g *Generator) templates() []string {
	if t, ok := postTemplates[g.language]; ok {
		return t
	}
	return postTemplates["en"]
}

// hashtags maps a topic to configured hashtags, falling back to the
// topic itself
func (g *Generator) hashtags(topic string) []string {
	tags, ok := hashtagMaps[g.language]
	if !ok {
		tags = hashtagMaps["en"]
	}

	out := []string{}
	if tag, ok := tags[strings.ToLower(topic)]; ok {
		out = append(out, tag)
	} else {
		out = append(out, "#"+strings.ReplaceAll(strings.ToLower(topic), " ", ""))
	}

	for _, theme := range g.themes {
		if len(out) >= g.hashtagCount {
			break
		}
		if strings.EqualFold(theme, topic) {
			continue
		}
		if tag, ok := tags[strings.ToLower(theme)]; ok {
			out = append(out, tag)
		}
	}
	return out
}

// withHashtags appends hashtags to content, shedding tags and then
// truncating content until the post fits the length limit
func (g *Generator) withHashtags(content, topic string) string {
	tags := g.hashtags(topic)
	for len(tags) > 0 {
		post := content + "\n\n" + strings.Join(tags, " ")
		if len(post) <= g.maxPostLength {
			return post
		}
		tags = tags[:len(tags)-1]
	}
	return Truncate(content, g.maxPostLength)
}

var (
	threadNumbering = regexp.MustCompile(`^\d+/\d+`)
	whitespaceRun   = regexp.MustCompile(`\s+`)
)

// splitThread splits a numbered completion into individual segments
func splitThread(content string) []string {
	var segments []string
	var current string

	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if threadNumbering.MatchString(line) {
			if current != "" {
				segments = append(segments, CleanText(current))
			}
			current = line
		} else if current != "" {
			current += " " + line
		} else {
			current = line
		}
	}
	if current != "" {
		segments = append(segments, CleanText(current))
	}
	return segments
}

// CleanText collapses whitespace and strips stray punctuation from the
// edges of generated text
func CleanText(text string) string {
	text = whitespaceRun.ReplaceAllString(strings.TrimSpace(text), " ")
	return strings.Trim(text, `.,!?;:"()[]{}`)
}

// Truncate shortens text to maxLength runes, cutting at the last word
// boundary and appending an ellipsis
func Truncate(text string, maxLength int) string {
	runes := []rune(text)
	if len(runes) <= maxLength {
		return text
	}

	const suffix = "..."
	cut := string(runes[:maxLength-len(suffix)])
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return cut + suffix
}
