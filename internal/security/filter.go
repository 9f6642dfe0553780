// Package security screens every piece of text that crosses the
// boundary between end users and the language model: inbound messages
// before they reach the agent, and generated replies before they reach
// the user. All checks are pure text rules with no I/O; any internal
// failure is treated as a block, never a pass.
package security

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

const (
	// MaxInputLength is the cap, in characters, applied to sanitized
	// user input.
	MaxInputLength = 10000
	// MaxOutputLength is the longest model reply, in characters,
	// allowed through.
	MaxOutputLength = 5000

	// OutputRefusal replaces any model reply that fails output validation.
	OutputRefusal = "I'm sorry, I can't share that. Is there something else about our services I can help you with?"

	filteredToken = "[FILTERED]"
)

// injectionRules match explicit prompt-injection phrasings. A match in
// ScreenInput blocks the message outright; during sanitization a late
// match is replaced with the filtered token instead.
var injectionRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)ignore\s+(all\s+|any\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)disregard\s+(all\s+|any\s+)?(previous|prior|above)\s+instructions`),
	regexp.MustCompile(`(?i)developer\s+mode`),
	regexp.MustCompile(`(?i)(reveal|show|print|repeat)\s+(your\s+|the\s+)?(system\s+)?(prompt|instructions)`),
	regexp.MustCompile(`(?i)system\s+override`),
	regexp.MustCompile(`(?i)you\s+are\s+no\s+longer\s+(a|an)\s+`),
	regexp.MustCompile(`(?i)pretend\s+(that\s+)?you\s+(are|have)\s+no\s+(rules|restrictions|instructions)`),
}

// leakageRules match replies that look like they echo system
// instructions or credentials back to the user.
var leakageRules = []*regexp.Regexp{
	regexp.MustCompile(`(?i)SYSTEM\s*:\s*you\s+are`),
	regexp.MustCompile(`(?i)API[_ ]?KEY\s*[:=]\s*\w+`),
	regexp.MustCompile(`(?i)my\s+(system\s+)?instructions\s+(are|say)`),
	regexp.MustCompile(`(?im)^\s*\d+\.\s+(always|never|do not|you must)\b`),
}

// sensitiveRoots are the keywords the typoglycemia check guards. A
// token blocks if it has the same length and boundary letters as a root
// and its interior letters are an anagram of the root's interior.
var sensitiveRoots = []string{
	"ignore",
	"bypass",
	"override",
	"reveal",
	"delete",
	"system",
}

var (
	wordPattern    = regexp.MustCompile(`[a-zA-Z]+`)
	whitespaceRuns = regexp.MustCompile(`\s+`)
)

// ScreenInput validates and sanitizes a user message before it may be
// handed to the agent. It returns the sanitized text and a blocked
// flag; when blocked the returned text is empty and the message must
// not reach the model.
func ScreenInput(text string) (sanitized string, blocked bool) {
	// Fail closed: a panic inside the rules is a block, not a pass.
	defer func() {
		if r := recover(); r != nil {
			sanitized = ""
			blocked = true
		}
	}()

	for _, rule := range injectionRules {
		if rule.MatchString(text) {
			return "", true
		}
	}

	if hasDisguisedKeyword(text) {
		return "", true
	}

	return sanitize(text), false
}

// ScreenOutput validates a model-generated reply before delivery. A
// leakage match or an oversized reply is replaced wholesale with the
// fixed refusal; anything else passes through unchanged.
func ScreenOutput(text string) (out string) {
	defer func() {
		if r := recover(); r != nil {
			out = OutputRefusal
		}
	}()

	if utf8.RuneCountInString(text) > MaxOutputLength {
		return OutputRefusal
	}
	for _, rule := range leakageRules {
		if rule.MatchString(text) {
			return OutputRefusal
		}
	}
	return text
}

// sanitize normalizes input that passed screening. It is idempotent:
// sanitizing already-sanitized text yields the same string.
func sanitize(text string) string {
	text = whitespaceRuns.ReplaceAllString(text, " ")
	text = collapseRepeats(text)

	// Collapsing runs can surface a phrasing the block step missed, so
	// re-apply the rules as substitutions.
	for _, rule := range injectionRules {
		text = rule.ReplaceAllString(text, filteredToken)
	}

	if utf8.RuneCountInString(text) > MaxInputLength {
		text = string([]rune(text)[:MaxInputLength])
	}
	return text
}

// collapseRepeats reduces any run of 4 or more identical consecutive
// runes to a single occurrence. Repetition padding is a cheap way to
// both obfuscate keywords and inflate input size.
func collapseRepeats(text string) string {
	runes := []rune(text)
	if len(runes) < 4 {
		return text
	}

	var b strings.Builder
	b.Grow(len(text))
	for i := 0; i < len(runes); {
		j := i
		for j < len(runes) && runes[j] == runes[i] {
			j++
		}
		if j-i >= 4 {
			b.WriteRune(runes[i])
		} else {
			for k := i; k < j; k++ {
				b.WriteRune(runes[k])
			}
		}
		i = j
	}
	return b.String()
}

// hasDisguisedKeyword reports whether any token is a scrambled variant
// of a sensitive root: same length (>= 3), same first and last letter,
// and the same multiset of interior letters. This catches keywords
// whose middle letters were shuffled to dodge the literal rules.
func hasDisguisedKeyword(text string) bool {
	for _, token := range wordPattern.FindAllString(strings.ToLower(text), -1) {
		for _, root := range sensitiveRoots {
			if isScrambledVariant(token, root) {
				return true
			}
		}
	}
	return false
}

func isScrambledVariant(token, root string) bool {
	if len(token) != len(root) || len(token) < 3 {
		return false
	}
	if token[0] != root[0] || token[len(token)-1] != root[len(root)-1] {
		return false
	}
	return interiorMultiset(token) == interiorMultiset(root)
}

// interiorMultiset returns a canonical form of the characters between
// the first and last byte of a word.
func interiorMultiset(word string) string {
	interior := []byte(word[1 : len(word)-1])
	// Insertion sort; interiors are short.
	for i := 1; i < len(interior); i++ {
		for j := i; j > 0 && interior[j] < interior[j-1]; j-- {
			interior[j], interior[j-1] = interior[j-1], interior[j]
		}
	}
	return string(interior)
}
