package parse

import (
	"sort"

	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/textutil"
)

// Context is what the normalizer knows about the request it parses for.
type Context struct {
	Mentors  []mentor.Profile
	Language textutil.Language
}

// Shape detects one provider payload dialect and extracts its replies. It
// returns nil when the payload is not in that shape or holds no usable reply.
type Shape func(v any, pc Context) []mentor.Reply

// Shapes lists the recognized dialects in the order they are tried.
var Shapes = []struct {
	Name   string
	Detect Shape
}{
	{"mentorReplies", FromMentorReplies},
	{"flat", FromFlatReply},
	{"replies", FromReplies},
	{"responseMap", FromResponseMap},
	{"objectMap", FromObjectMap},
}

// NormalizeProviderPayload coerces a parsed payload into the canonical
// response. It returns nil when no shape yields a reply.
func NormalizeProviderPayload(v any, pc Context) *mentor.Response {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	for _, s := range Shapes {
		if replies := s.Detect(obj, pc); len(replies) > 0 {
			return buildResponse(replies, safetyFrom(obj), disclaimerFrom(obj), pc)
		}
	}
	return nil
}

// ParseAndNormalize parses raw model output. When no structured shape
// matches it falls back to scraping fields out of the text; nil means even
// that found no response text.
func ParseAndNormalize(raw string, pc Context) *mentor.Response {
	if obj, ok := TryParseJSON(raw); ok {
		if resp := NormalizeProviderPayload(obj, pc); resp != nil {
			return resp
		}
	}
	return looseResponse(raw, pc)
}

// FromMentorReplies handles {"mentorReplies": [...]}.
func FromMentorReplies(v any, pc Context) []mentor.Reply {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	arr, ok := firstArray(obj, mentorRepliesKeys)
	if !ok {
		return nil
	}
	return repliesFromArray(arr, pc)
}

// FromFlatReply handles a single reply object such as
// {"MentorId": "bill_gates", "Response": "..."}.
func FromFlatReply(v any, pc Context) []mentor.Reply {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	r, ok := replyFromObject(obj, pc, 0, "")
	if !ok {
		return nil
	}
	return []mentor.Reply{r}
}

// FromReplies handles {"replies": [...]}. Items that are themselves full
// responses contribute their mentorReplies.
func FromReplies(v any, pc Context) []mentor.Reply {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	arr, ok := firstArray(obj, repliesKeys)
	if !ok {
		return nil
	}
	var flat []any
	for _, item := range arr {
		if m, ok := item.(map[string]any); ok {
			if nested, ok := firstArray(m, mentorRepliesKeys); ok {
				flat = append(flat, nested...)
				continue
			}
		}
		flat = append(flat, item)
	}
	return repliesFromArray(flat, pc)
}

// FromResponseMap handles {"response": {"<mentor>": {...}}}.
func FromResponseMap(v any, pc Context) []mentor.Reply {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	inner, ok := firstObject(obj, responseMapKeys)
	if !ok {
		return nil
	}
	return repliesFromMap(inner, pc)
}

// FromObjectMap handles a bare mentor-keyed map {"<mentor>": {...}}.
func FromObjectMap(v any, pc Context) []mentor.Reply {
	obj, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	filtered := make(map[string]any, len(obj))
	for k, val := range obj {
		if isEnvelopeKey(k) {
			continue
		}
		if _, ok := val.(map[string]any); ok {
			filtered[k] = val
		}
	}
	return repliesFromMap(filtered, pc)
}

func isEnvelopeKey(k string) bool {
	switch textutil.NormalizeKey(k) {
	case "safety", "meta", "schemaversion", "schema_version", "language":
		return true
	}
	return false
}

func repliesFromArray(arr []any, pc Context) []mentor.Reply {
	var out []mentor.Reply
	for i, item := range arr {
		m, ok := item.(map[string]any)
		if !ok {
			continue
		}
		if r, ok := replyFromObject(m, pc, i, ""); ok {
			out = append(out, r)
		}
	}
	return out
}

func repliesFromMap(m map[string]any, pc Context) []mentor.Reply {
	var out []mentor.Reply
	for _, k := range orderedKeys(m, pc.Mentors) {
		val, ok := m[k].(map[string]any)
		if !ok {
			continue
		}
		if r, ok := replyFromObject(val, pc, -1, k); ok {
			out = append(out, r)
		}
	}
	return out
}

// orderedKeys lists keys matching requested mentors in request order, then
// the rest sorted, so map-shaped payloads normalize deterministically.
func orderedKeys(m map[string]any, mentors []mentor.Profile) []string {
	seen := make(map[string]bool, len(m))
	var out []string
	for _, p := range mentors {
		for k := range m {
			if seen[k] {
				continue
			}
			if mentorMatches(p, k) {
				out = append(out, k)
				seen[k] = true
			}
		}
	}
	var rest []string
	for k := range m {
		if !seen[k] {
			rest = append(rest, k)
		}
	}
	sort.Strings(rest)
	return append(out, rest...)
}

func mentorMatches(p mentor.Profile, s string) bool {
	k := textutil.NormalizeKey(s)
	if k == "" {
		return false
	}
	return k == textutil.NormalizeKey(p.ID) || k == textutil.NormalizeKey(p.DisplayName) || k == textutil.NormalizeKey(p.ShortLabel)
}

func findMentor(mentors []mentor.Profile, candidates ...string) (mentor.Profile, bool) {
	for _, c := range candidates {
		for _, p := range mentors {
			if mentorMatches(p, c) {
				return p, true
			}
		}
	}
	return mentor.Profile{}, false
}

// replyFromObject resolves aliases on one reply object. index is the
// position within an array (-1 for map values) and key the map key the
// object was found under. Objects without response text are rejected.
func replyFromObject(obj map[string]any, pc Context, index int, key string) (mentor.Reply, bool) {
	text := firstString(obj, likelyResponseKeys)
	if text == "" {
		return mentor.Reply{}, false
	}

	r := mentor.Reply{
		MentorID:       firstString(obj, mentorIDKeys),
		MentorName:     firstString(obj, mentorNameKeys),
		LikelyResponse: text,
		WhyThisFits:    firstString(obj, whyThisFitsKeys),
		OneActionStep:  firstString(obj, actionStepKeys),
		ConfidenceNote: firstString(obj, confidenceKeys),
	}

	p, matched := findMentor(pc.Mentors, r.MentorID, r.MentorName, key)
	if !matched && r.MentorID == "" && r.MentorName == "" && key == "" && index >= 0 && index < len(pc.Mentors) {
		p, matched = pc.Mentors[index], true
	}
	if matched {
		r.MentorID = p.ID
		if r.MentorName == "" || mentorMatches(p, r.MentorName) {
			r.MentorName = p.Name()
		}
	}
	if r.MentorID == "" {
		r.MentorID = key
	}
	if r.MentorName == "" {
		r.MentorName = r.MentorID
	}
	return mentor.Backfill(r, pc.Language), true
}

func safetyFrom(obj map[string]any) mentor.Safety {
	src, ok := firstObject(obj, safetyKeys)
	if !ok {
		src = obj
	}
	s := mentor.Safety{RiskLevel: mentor.RiskLow}
	if lvl, ok := mentor.ParseRiskLevel(firstString(src, riskLevelKeys)); ok {
		s.RiskLevel = lvl
	}
	s.NeedsProfessionalHelp = firstBool(src, professionalHelpKeys)
	s.EmergencyMessage = firstString(src, emergencyKeys)
	return s
}

func disclaimerFrom(obj map[string]any) string {
	meta, ok := firstObject(obj, []string{"meta", "Meta"})
	if !ok {
		return ""
	}
	return firstString(meta, []string{"disclaimer", "Disclaimer"})
}

func buildResponse(replies []mentor.Reply, safety mentor.Safety, disclaimer string, pc Context) *mentor.Response {
	if disclaimer == "" {
		disclaimer = mentor.Disclaimer(pc.Language)
	}
	return &mentor.Response{
		SchemaVersion: mentor.SchemaVersion,
		Language:      pc.Language,
		Safety:        safety,
		MentorReplies: replies,
		Meta:          mentor.Meta{Disclaimer: disclaimer},
	}
}
