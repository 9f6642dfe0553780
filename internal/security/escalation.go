package security

import (
	"strings"
)

// humanReviewThreshold is the score at or above which a message is
// flagged for human judgment.
const humanReviewThreshold = 3

// riskKeywords score one point per occurrence.
var riskKeywords = []string{
	"password",
	"api_key",
	"admin",
	"system",
	"bypass",
	"override",
	"credentials",
	"token",
}

// riskPhrases score two points per occurrence.
var riskPhrases = []string{
	"ignore instructions",
	"developer mode",
	"reveal prompt",
	"system prompt",
	"act as admin",
}

// NeedsHumanReview scores a raw message against the high-risk keyword
// and phrase lists and reports whether it should not be auto-answered.
// It is a routing signal only; callers decide what to do with it.
func NeedsHumanReview(text string) bool {
	return ReviewScore(text) >= humanReviewThreshold
}

// ReviewScore computes the weighted risk score: one point per keyword
// occurrence, two per phrase occurrence, counted as substrings of the
// lower-cased input.
func ReviewScore(text string) int {
	lowered := strings.ToLower(text)

	score := 0
	for _, kw := range riskKeywords {
		score += strings.Count(lowered, kw)
	}
	for _, phrase := range riskPhrases {
		score += 2 * strings.Count(lowered, phrase)
	}
	return score
}
