package summary

import "strings"

// Sentiment is derived from keywords in the day's memo
type Sentiment string

const (
	SentimentNeutral    Sentiment = "neutral"
	SentimentPositive   Sentiment = "positive"
	SentimentDifficult  Sentiment = "difficult"
	SentimentThoughtful Sentiment = "thoughtful"
)

var (
	negativeWords   = []string{"힘들", "피곤", "지침", "어려", "아쉬", "실망", "불안", "버거"}
	positiveWords   = []string{"좋", "행복", "기쁨", "즐거", "만족", "성공", "잘"}
	thoughtfulWords = []string{"생각", "고민", "정리", "계획", "준비"}
)

// ClassifySentiment maps a memo to a sentiment.
// Negative cues beat positive cues, which beat thoughtful cues.
func ClassifySentiment(memo string) Sentiment {
	if memo == "" {
		return SentimentNeutral
	}

	lower := strings.ToLower(memo)
	switch {
	case containsAny(lower, negativeWords):
		return SentimentDifficult
	case containsAny(lower, positiveWords):
		return SentimentPositive
	case containsAny(lower, thoughtfulWords):
		return SentimentThoughtful
	default:
		return SentimentNeutral
	}
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
