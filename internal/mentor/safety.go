package mentor

import "strings"

// RiskLevel grades how concerning a user's message is.
type RiskLevel string

const (
	RiskNone   RiskLevel = "none"
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Severity orders risk levels: none < low < medium < high. Unknown levels
// rank with none.
func (r RiskLevel) Severity() int {
	switch r {
	case RiskLow:
		return 1
	case RiskMedium:
		return 2
	case RiskHigh:
		return 3
	default:
		return 0
	}
}

// ParseRiskLevel accepts a risk level in any case. ok is false for values
// outside the closed set.
func ParseRiskLevel(s string) (RiskLevel, bool) {
	switch RiskLevel(strings.ToLower(strings.TrimSpace(s))) {
	case RiskNone:
		return RiskNone, true
	case RiskLow:
		return RiskLow, true
	case RiskMedium:
		return RiskMedium, true
	case RiskHigh:
		return RiskHigh, true
	}
	return "", false
}

// Safety is the safety signal attached to a response.
type Safety struct {
	RiskLevel             RiskLevel `json:"riskLevel"`
	NeedsProfessionalHelp bool      `json:"needsProfessionalHelp"`
	EmergencyMessage      string    `json:"emergencyMessage"`
}

// MergeSafety combines two safety signals. The higher risk level wins and
// brings its emergency message along; professional help is requested if
// either side asks for it. On equal levels the first non-empty message is
// kept.
func MergeSafety(a, b Safety) Safety {
	out := Safety{NeedsProfessionalHelp: a.NeedsProfessionalHelp || b.NeedsProfessionalHelp}
	switch {
	case b.RiskLevel.Severity() > a.RiskLevel.Severity():
		out.RiskLevel = b.RiskLevel
		out.EmergencyMessage = b.EmergencyMessage
	case a.RiskLevel.Severity() > b.RiskLevel.Severity():
		out.RiskLevel = a.RiskLevel
		out.EmergencyMessage = a.EmergencyMessage
	default:
		out.RiskLevel = a.RiskLevel
		if out.RiskLevel == "" {
			out.RiskLevel = b.RiskLevel
		}
		out.EmergencyMessage = a.EmergencyMessage
		if out.EmergencyMessage == "" {
			out.EmergencyMessage = b.EmergencyMessage
		}
	}
	return out
}
