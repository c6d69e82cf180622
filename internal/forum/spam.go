package forum

import (
	"regexp"
	"strings"
	"unicode"
)

const (
	spamThreshold        = 50
	maxLinks             = 3
	linkScore            = 30
	promoScore           = 20
	capsScore            = 25
	capsRatioLimit       = 0.3
	repetitionScore      = 40
	repetitionRatioLimit = 0.5
)

const (
	ReasonLinks       = "Excessive external links"
	ReasonPromotional = "Promotional language detected"
	ReasonCaps        = "Excessive capitalization"
	ReasonRepetitive  = "Repetitive content"
)

var linkPattern = regexp.MustCompile(`https?://[^\s]+`)

var promotionalPhrases = []string{
	"buy now",
	"click here",
	"limited time",
	"guaranteed profit",
	"guaranteed returns",
	"free money",
	"get rich quick",
	"risk free",
	"100% win rate",
	"join my telegram",
	"dm me for signals",
}

type SpamResult struct {
	IsSpam     bool     `json:"is_spam"`
	Confidence int      `json:"confidence"`
	Reasons    []string `json:"reasons"`
}

// DetectSpam scores content with independent heuristics. Content with no
// words skips the capitalization and repetition checks.
func DetectSpam(content string) SpamResult {
	score := 0
	reasons := []string{}

	if len(linkPattern.FindAllString(content, -1)) > maxLinks {
		score += linkScore
		reasons = append(reasons, ReasonLinks)
	}

	lower := strings.ToLower(content)
	promoHits := 0
	for _, phrase := range promotionalPhrases {
		if strings.Contains(lower, phrase) {
			promoHits++
		}
	}
	if promoHits > 0 {
		score += promoScore * promoHits
		reasons = append(reasons, ReasonPromotional)
	}

	words := strings.Fields(lower)
	if len(words) > 0 {
		if upperRatio(content) > capsRatioLimit {
			score += capsScore
			reasons = append(reasons, ReasonCaps)
		}
		unique := make(map[string]struct{}, len(words))
		for _, w := range words {
			unique[w] = struct{}{}
		}
		if 1-float64(len(unique))/float64(len(words)) > repetitionRatioLimit {
			score += repetitionScore
			reasons = append(reasons, ReasonRepetitive)
		}
	}

	return SpamResult{
		IsSpam:     score > spamThreshold,
		Confidence: min(score, 100),
		Reasons:    reasons,
	}
}

// upperRatio is uppercase letters over total characters, spaces included.
func upperRatio(s string) float64 {
	total, upper := 0, 0
	for _, r := range s {
		total++
		if unicode.IsUpper(r) {
			upper++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(upper) / float64(total)
}
