package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// CollapseWhitespace trims s and folds every whitespace run into one space.
func CollapseWhitespace(s string) string {
	return strings.TrimSpace(whitespaceRun.ReplaceAllString(s, " "))
}

// Truncate returns at most n runes of s.
func Truncate(s string, n int) string {
	if n <= 0 {
		return ""
	}
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// EstimateTokenCount approximates the token count of text. Each CJK
// ideograph counts as one token; the remaining characters are billed at four
// per token, rounded up. The result is a budget heuristic, not a tokenizer.
func EstimateTokenCount(text string) int {
	var cjk, other int
	for _, r := range text {
		if IsCJK(r) {
			cjk++
		} else {
			other++
		}
	}
	return cjk + (other+3)/4
}

// NormalizeKey lowercases s and replaces every run of non-alphanumeric
// characters with a single underscore, so "Bill Gates" and "bill_gates"
// compare equal.
func NormalizeKey(s string) string {
	var sb strings.Builder
	pendingSep := false
	for _, r := range strings.ToLower(strings.TrimSpace(s)) {
		if r >= 'a' && r <= 'z' || r >= '0' && r <= '9' || IsCJK(r) {
			if pendingSep && sb.Len() > 0 {
				sb.WriteByte('_')
			}
			pendingSep = false
			sb.WriteRune(r)
			continue
		}
		pendingSep = true
	}
	return sb.String()
}
