// Package history normalizes the conversation a user has already had with
// the mentor table and compacts it to a bounded window before it is
// embedded in prompts.
package history

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kalambet/mentortable/internal/textutil"
)

// Role is the closed set of conversation roles.
type Role string

const (
	RoleUser   Role = "user"
	RoleMentor Role = "mentor"
	RoleSystem Role = "system"
)

// ParseRole maps a raw role onto the closed set. Anything unrecognized is
// treated as system.
func ParseRole(s string) Role {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleUser:
		return RoleUser
	case RoleMentor:
		return RoleMentor
	}
	return RoleSystem
}

// Entry is one normalized conversation turn.
type Entry struct {
	Role    Role   `json:"role"`
	Speaker string `json:"speaker,omitempty"`
	Text    string `json:"text"`
}

var (
	speakerKeys = []string{"speaker", "name", "mentorName"}
	textKeys    = []string{"text", "content", "message"}
)

// Normalize converts raw history items into entries. Items that are not
// JSON objects, or whose text is empty after whitespace collapsing, are
// dropped. Order is preserved.
func Normalize(raw []json.RawMessage) []Entry {
	out := make([]Entry, 0, len(raw))
	for _, item := range raw {
		var obj map[string]any
		if err := json.Unmarshal(item, &obj); err != nil || obj == nil {
			continue
		}
		role, _ := obj["role"].(string)
		e := Entry{
			Role:    ParseRole(role),
			Speaker: textutil.CollapseWhitespace(stringField(obj, speakerKeys)),
			Text:    textutil.CollapseWhitespace(stringField(obj, textKeys)),
		}
		if e.Text == "" {
			continue
		}
		out = append(out, e)
	}
	return out
}

func stringField(obj map[string]any, keys []string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && strings.TrimSpace(s) != "" {
			return s
		}
	}
	return ""
}

func (e Entry) label() string {
	if e.Speaker != "" {
		return e.Speaker
	}
	return string(e.Role)
}

func (e Entry) line() string {
	return fmt.Sprintf("[%s] %s: %s", e.Role, e.label(), e.Text)
}

// Format renders entries as a 1-indexed list, one per line:
// "{index}. [{role}] {speaker-or-role}: {text}".
func Format(entries []Entry) string {
	var b strings.Builder
	for i, e := range entries {
		if i > 0 {
			b.WriteByte('\n')
		}
		fmt.Fprintf(&b, "%d. %s", i+1, e.line())
	}
	return b.String()
}

func entryWeight(e Entry) int {
	return utf8.RuneCountInString(e.line()) + 1
}

// Weight is the character weight of entries as formatted, excluding the
// list numbering.
func Weight(entries []Entry) int {
	n := 0
	for _, e := range entries {
		n += entryWeight(e)
	}
	return n
}

// GroupRounds splits entries into rounds. Each user entry opens a round
// that absorbs the non-user entries after it. Entries before the first
// user entry form a round of their own.
func GroupRounds(entries []Entry) [][]Entry {
	var (
		rounds  [][]Entry
		current []Entry
	)
	for _, e := range entries {
		if e.Role == RoleUser && len(current) > 0 {
			rounds = append(rounds, current)
			current = nil
		}
		current = append(current, e)
	}
	if len(current) > 0 {
		rounds = append(rounds, current)
	}
	return rounds
}
