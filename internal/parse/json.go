// Package parse turns whatever a chat model returned into the canonical
// mentor table response. It tolerates code fences, double-encoded JSON,
// arrays, concatenated objects, prose around a JSON body and most of the
// field naming dialects providers produce.
package parse

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/kaptinlin/jsonrepair"
)

var (
	fencedBlock = regexp.MustCompile("(?s)```(?:json|JSON)?\\s*(.*?)```")
	greedyObj   = regexp.MustCompile(`(?s)\{.*\}`)
)

const maxStringUnwrap = 3

// TryParseJSON extracts a JSON object from text. Strategies, in order: a
// fenced code block, the whole text (unwrapping up to three levels of
// string-encoded JSON), a top-level array wrapped as {"replies": [...]},
// several concatenated top-level objects collected into {"replies": [...]},
// the outermost {...} substring, and finally a syntactic repair of that
// substring. It returns false when nothing yields an object.
func TryParseJSON(text string) (map[string]any, bool) {
	trimmed := strings.TrimSpace(text)
	if trimmed == "" {
		return nil, false
	}

	if m := fencedBlock.FindStringSubmatch(trimmed); m != nil {
		if obj, ok := parseDirect(m[1]); ok {
			return obj, true
		}
	}

	if obj, ok := parseDirect(trimmed); ok {
		return obj, true
	}

	if objs := splitTopLevelObjects(trimmed); len(objs) > 1 {
		replies := make([]any, 0, len(objs))
		for _, seg := range objs {
			var v map[string]any
			if err := json.Unmarshal([]byte(seg), &v); err == nil {
				replies = append(replies, v)
			}
		}
		if len(replies) > 0 {
			return map[string]any{"replies": replies}, true
		}
	}

	candidate := greedyObj.FindString(trimmed)
	if candidate == "" {
		return nil, false
	}
	if obj, ok := parseDirect(candidate); ok {
		return obj, true
	}

	repaired, err := jsonrepair.JSONRepair(candidate)
	if err != nil {
		return nil, false
	}
	return parseDirect(repaired)
}

// parseDirect parses s as a JSON object or array, unwrapping values that
// are themselves JSON-encoded strings.
func parseDirect(s string) (map[string]any, bool) {
	var v any
	if err := json.Unmarshal([]byte(strings.TrimSpace(s)), &v); err != nil {
		return nil, false
	}
	for range maxStringUnwrap {
		str, ok := v.(string)
		if !ok {
			break
		}
		if err := json.Unmarshal([]byte(strings.TrimSpace(str)), &v); err != nil {
			return nil, false
		}
	}

	switch t := v.(type) {
	case map[string]any:
		return t, true
	case []any:
		return map[string]any{"replies": t}, true
	}
	return nil, false
}

// splitTopLevelObjects returns every balanced top-level {...} segment of s,
// skipping braces inside string literals.
func splitTopLevelObjects(s string) []string {
	var (
		segs     []string
		depth    int
		start    = -1
		inString bool
		escaped  bool
	)
	for i := 0; i < len(s); i++ {
		c := s[i]
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			if depth > 0 {
				inString = true
			}
		case '{':
			if depth == 0 {
				start = i
			}
			depth++
		case '}':
			if depth == 0 {
				continue
			}
			depth--
			if depth == 0 && start >= 0 {
				segs = append(segs, s[start:i+1])
				start = -1
			}
		}
	}
	return segs
}
