// Package textutil holds the small text heuristics shared by the mentor table
// pipeline: script-based language detection, token estimation, whitespace
// handling and last-resort field scraping from malformed model output.
package textutil

import "unicode"

// Language is a response language tag.
type Language string

const (
	Chinese Language = "zh-CN"
	English Language = "en"
)

// ParseLanguage maps a requested language tag onto a supported Language.
// Anything that is not recognizably Chinese resolves to English.
func ParseLanguage(tag string) Language {
	switch normalizeTag(tag) {
	case "zh", "zh-cn", "zh_cn", "zh-hans", "cn", "chinese":
		return Chinese
	default:
		return English
	}
}

func normalizeTag(tag string) string {
	out := make([]rune, 0, len(tag))
	for _, r := range tag {
		if unicode.IsSpace(r) {
			continue
		}
		out = append(out, unicode.ToLower(r))
	}
	return string(out)
}

// IsCJK reports whether r falls in the CJK ideograph range U+3400–U+9FFF.
func IsCJK(r rune) bool {
	return r >= 0x3400 && r <= 0x9FFF
}

func isLatinLetter(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z')
}

// DetectLanguage guesses the language of text from its script mix. It
// returns ok=false when text carries neither CJK ideographs nor Latin letters.
//
// Chinese wins whenever the ideograph count is at least 0.8x the Latin letter
// count, so an exact tie resolves to Chinese. English is only chosen when
// Latin letters strictly outnumber ideographs beyond that ratio.
func DetectLanguage(text string) (Language, bool) {
	var cjk, latin int
	for _, r := range text {
		switch {
		case IsCJK(r):
			cjk++
		case isLatinLetter(r):
			latin++
		}
	}
	if cjk == 0 && latin == 0 {
		return "", false
	}
	if cjk > 0 && float64(cjk) >= float64(latin)*0.8 {
		return Chinese, true
	}
	if latin > cjk {
		return English, true
	}
	return "", false
}

// ResolveLanguage prefers the language detected from text and falls back to
// the requested tag when detection is inconclusive.
func ResolveLanguage(text, requested string) Language {
	if lang, ok := DetectLanguage(text); ok {
		return lang
	}
	return ParseLanguage(requested)
}
