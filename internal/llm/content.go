package llm

import (
	"bytes"
	"encoding/json"
	"strings"
)

// Content returns the assistant content of the first choice. String
// content is returned as is, arrays of parts are joined by newlines and
// objects are re-serialized to JSON text.
func (r *ChatResponse) Content() string {
	if r == nil || len(r.Choices) == 0 {
		return ""
	}
	return ExtractContent(r.Choices[0].Message.Content)
}

// ExtractContent flattens a raw message content value to text.
func ExtractContent(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return ""
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return ""
		}
		return s
	case '[':
		var parts []json.RawMessage
		if err := json.Unmarshal(raw, &parts); err != nil {
			return ""
		}
		var texts []string
		for _, p := range parts {
			if t := partText(p); t != "" {
				texts = append(texts, t)
			}
		}
		return strings.Join(texts, "\n")
	default:
		return string(raw)
	}
}

func partText(raw json.RawMessage) string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var part struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &part); err != nil {
		return ""
	}
	return part.Text
}
