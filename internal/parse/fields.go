package parse

import (
	"fmt"
	"strconv"
	"strings"
)

// Field aliases accepted from providers, in priority order.
var (
	mentorIDKeys       = []string{"mentorId", "MentorId", "MentorID", "mentor_id", "id", "Id", "ID", "mentor"}
	mentorNameKeys     = []string{"mentorName", "MentorName", "mentor_name", "name", "Name", "displayName", "display_name"}
	likelyResponseKeys = []string{"likelyResponse", "LikelyResponse", "likely_response", "Response", "response", "message", "Message", "advice", "Advice", "reply", "content", "text"}
	whyThisFitsKeys    = []string{"whyThisFits", "WhyThisFits", "why_this_fits", "why", "reason", "rationale"}
	actionStepKeys     = []string{"oneActionStep", "OneActionStep", "one_action_step", "actionStep", "action_step", "ActionStep", "nextStep", "next_step", "action"}
	confidenceKeys     = []string{"confidenceNote", "ConfidenceNote", "confidence_note", "confidence", "note"}

	mentorRepliesKeys = []string{"mentorReplies", "MentorReplies", "mentor_replies"}
	repliesKeys       = []string{"replies", "Replies"}
	responseMapKeys   = []string{"response", "Response"}

	safetyKeys           = []string{"safety", "Safety"}
	riskLevelKeys        = []string{"riskLevel", "RiskLevel", "risk_level", "risk"}
	professionalHelpKeys = []string{"needsProfessionalHelp", "NeedsProfessionalHelp", "needs_professional_help"}
	emergencyKeys        = []string{"emergencyMessage", "EmergencyMessage", "emergency_message"}
)

// firstString returns the first key in keys whose value is a non-empty
// scalar, rendered as text.
func firstString(obj map[string]any, keys []string) string {
	for _, k := range keys {
		v, ok := obj[k]
		if !ok {
			continue
		}
		if s := scalarText(v); s != "" {
			return s
		}
	}
	return ""
}

func scalarText(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(t)
	case nil:
		return ""
	case map[string]any, []any:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprint(t))
	}
}

func firstBool(obj map[string]any, keys []string) bool {
	for _, k := range keys {
		switch t := obj[k].(type) {
		case bool:
			return t
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(t)); err == nil {
				return b
			}
		}
	}
	return false
}

func firstArray(obj map[string]any, keys []string) ([]any, bool) {
	for _, k := range keys {
		if arr, ok := obj[k].([]any); ok {
			return arr, true
		}
	}
	return nil, false
}

func firstObject(obj map[string]any, keys []string) (map[string]any, bool) {
	for _, k := range keys {
		if m, ok := obj[k].(map[string]any); ok {
			return m, true
		}
	}
	return nil, false
}
