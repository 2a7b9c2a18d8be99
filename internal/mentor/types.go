// Package mentor defines the mentor personas and the canonical mentor table
// response: replies, safety signals and response metadata.
package mentor

import "github.com/kalambet/mentortable/internal/textutil"

// SchemaVersion identifies the response contract.
const SchemaVersion = "mentor_table.v1"

// Profile describes a persona whose first-person perspective is simulated.
type Profile struct {
	ID                    string   `json:"id"`
	DisplayName           string   `json:"displayName"`
	ShortLabel            string   `json:"shortLabel"`
	SpeakingStyle         []string `json:"speakingStyle"`
	CoreValues            []string `json:"coreValues"`
	DecisionPatterns      []string `json:"decisionPatterns"`
	KnownExperienceThemes []string `json:"knownExperienceThemes"`
	LikelyBlindSpots      []string `json:"likelyBlindSpots"`
	AvoidClaims           []string `json:"avoidClaims"`

	// aliases are extra normalized names the catalog matches on.
	aliases []string
}

// Name returns the best human-readable name for the profile.
func (p Profile) Name() string {
	switch {
	case p.DisplayName != "":
		return p.DisplayName
	case p.ShortLabel != "":
		return p.ShortLabel
	default:
		return p.ID
	}
}

func (p Profile) clone() Profile {
	out := p
	out.SpeakingStyle = append([]string(nil), p.SpeakingStyle...)
	out.CoreValues = append([]string(nil), p.CoreValues...)
	out.DecisionPatterns = append([]string(nil), p.DecisionPatterns...)
	out.KnownExperienceThemes = append([]string(nil), p.KnownExperienceThemes...)
	out.LikelyBlindSpots = append([]string(nil), p.LikelyBlindSpots...)
	out.AvoidClaims = append([]string(nil), p.AvoidClaims...)
	out.aliases = append([]string(nil), p.aliases...)
	return out
}

// Reply is one mentor's canonical answer.
type Reply struct {
	MentorID       string `json:"mentorId"`
	MentorName     string `json:"mentorName"`
	LikelyResponse string `json:"likelyResponse"`
	WhyThisFits    string `json:"whyThisFits"`
	OneActionStep  string `json:"oneActionStep"`
	ConfidenceNote string `json:"confidenceNote"`
}

// Meta carries response provenance.
type Meta struct {
	Disclaimer  string `json:"disclaimer"`
	GeneratedAt string `json:"generatedAt"`
	Provider    string `json:"provider"`
	Model       string `json:"model"`
}

// Response is the mentor table output contract.
type Response struct {
	SchemaVersion string            `json:"schemaVersion"`
	Language      textutil.Language `json:"language"`
	Safety        Safety            `json:"safety"`
	MentorReplies []Reply           `json:"mentorReplies"`
	Meta          Meta              `json:"meta"`
}
