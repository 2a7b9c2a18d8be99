package textutil

import (
	"encoding/json"
	"regexp"
	"strings"
	"sync"
)

// ExtractFieldLoosely scrapes the value of the first matching key out of
// text that failed structured JSON parsing. Three patterns are tried in
// order, each across all keys: a quoted value running up to the next key or
// a closing brace, a quoted value running to the end of its line, and a bare
// "key: value" line. Inner quotes need not be escaped. It returns "" when
// nothing matches.
func ExtractFieldLoosely(text string, keys []string) string {
	if strings.TrimSpace(text) == "" || len(keys) == 0 {
		return ""
	}
	for _, extract := range []func(string, string) string{extractStrict, extractSameLine, extractBare} {
		for _, key := range keys {
			if v := strings.TrimSpace(extract(text, key)); v != "" {
				return v
			}
		}
	}
	return ""
}

type patternKind int

const (
	strictPattern patternKind = iota
	sameLinePattern
	barePattern
)

type patternKey struct {
	kind patternKind
	key  string
}

// patterns caches compiled expressions per kind and key.
var patterns sync.Map

// nextKey finds the start of a following "key": on the same line.
var nextKey = regexp.MustCompile(`"\s*,?\s*"[A-Za-z_][A-Za-z0-9_]*"\s*:`)

func pattern(kind patternKind, key string) *regexp.Regexp {
	pk := patternKey{kind: kind, key: key}
	if re, ok := patterns.Load(pk); ok {
		return re.(*regexp.Regexp)
	}
	q := regexp.QuoteMeta(key)
	var expr string
	switch kind {
	case strictPattern:
		expr = `(?is)"` + q + `"\s*:\s*"(.*?)"\s*(?:,\s*"[A-Za-z_][A-Za-z0-9_]*"\s*:|\})`
	case sameLinePattern:
		expr = `(?i)"` + q + `"\s*:\s*"([^\n]+)`
	default:
		expr = `(?im)^[\s\-*]*["']?` + q + `["']?\s*[:：]\s*(.+)$`
	}
	re, _ := patterns.LoadOrStore(pk, regexp.MustCompile(expr))
	return re.(*regexp.Regexp)
}

func extractStrict(text, key string) string {
	m := pattern(strictPattern, key).FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	return unescapeJSONString(m[1])
}

// extractSameLine takes the rest of the line after the opening quote, up to
// a following key, and drops a trailing comma and closing quote.
func extractSameLine(text, key string) string {
	m := pattern(sameLinePattern, key).FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v := m[1]
	if loc := nextKey.FindStringIndex(v); loc != nil {
		v = v[:loc[0]]
	}
	v = strings.TrimRight(v, " \t\r")
	v = strings.TrimSuffix(v, ",")
	v = strings.TrimSuffix(strings.TrimRight(v, " \t"), `"`)
	return unescapeJSONString(v)
}

func extractBare(text, key string) string {
	m := pattern(barePattern, key).FindStringSubmatch(text)
	if m == nil {
		return ""
	}
	v := strings.TrimSpace(m[1])
	v = strings.TrimRight(v, ",")
	v = strings.Trim(v, `"'`)
	return v
}

func unescapeJSONString(s string) string {
	var out string
	if err := json.Unmarshal([]byte(`"`+s+`"`), &out); err == nil {
		return out
	}
	r := strings.NewReplacer(`\n`, "\n", `\t`, "\t", `\"`, `"`, `\\`, `\`)
	return r.Replace(s)
}
