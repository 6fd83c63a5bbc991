// Package memory provides pure functions for journal entries.
package memory

import "strings"

// Sentiment is the keyword-derived mood of a memory.
type Sentiment string

const (
	SentimentPositive Sentiment = "positive"
	SentimentNeutral  Sentiment = "neutral"
	SentimentNegative Sentiment = "negative"
)

// DefaultPartners is stored on new memories when no partner list is configured.
var DefaultPartners = []string{"partner_a"}

var positiveWords = map[string]bool{
	"love": true, "happy": true, "joy": true, "wonderful": true, "amazing": true,
	"beautiful": true, "great": true, "fantastic": true, "perfect": true, "best": true,
}

var negativeWords = map[string]bool{
	"sad": true, "angry": true, "frustrated": true, "disappointed": true, "terrible": true,
	"awful": true, "bad": true, "worst": true, "hate": true, "horrible": true,
}

// AnalyzeSentiment counts whole-word keyword hits in text. Punctuation is
// part of the word, so "love!" is not a hit. Ties are neutral.
// This is a PURE function.
func AnalyzeSentiment(text string) Sentiment {
	var pos, neg int
	for _, w := range strings.Fields(strings.ToLower(text)) {
		if positiveWords[w] {
			pos++
		}
		if negativeWords[w] {
			neg++
		}
	}
	switch {
	case pos > neg:
		return SentimentPositive
	case neg > pos:
		return SentimentNegative
	default:
		return SentimentNeutral
	}
}

// SentimentInput joins the fields a memory's sentiment is computed from.
// This is a PURE function.
func SentimentInput(content, description string) string {
	return content + " " + description
}

// RewardActivity describes the coin award for creating a memory.
// This is a PURE function.
func RewardActivity(title string) string {
	return "Created memory: " + title
}
