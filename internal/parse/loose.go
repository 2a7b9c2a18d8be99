package parse

import (
	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/textutil"
)

// looseResponse builds a single-reply response from fields scraped out of
// unparseable text. The reply is attributed to the mentor named in the text
// when one matches, otherwise to the first requested mentor.
func looseResponse(raw string, pc Context) *mentor.Response {
	text := textutil.ExtractFieldLoosely(raw, likelyResponseKeys)
	if text == "" {
		return nil
	}

	r := mentor.Reply{
		MentorID:       textutil.ExtractFieldLoosely(raw, mentorIDKeys),
		MentorName:     textutil.ExtractFieldLoosely(raw, mentorNameKeys),
		LikelyResponse: text,
		WhyThisFits:    textutil.ExtractFieldLoosely(raw, whyThisFitsKeys),
		OneActionStep:  textutil.ExtractFieldLoosely(raw, actionStepKeys),
		ConfidenceNote: textutil.ExtractFieldLoosely(raw, confidenceKeys),
	}
	p, ok := findMentor(pc.Mentors, r.MentorID, r.MentorName)
	if !ok && len(pc.Mentors) > 0 {
		p, ok = pc.Mentors[0], true
	}
	if ok {
		r.MentorID = p.ID
		r.MentorName = p.Name()
	}
	if r.MentorName == "" {
		r.MentorName = r.MentorID
	}

	safety := mentor.Safety{RiskLevel: mentor.RiskLow}
	if lvl, ok := mentor.ParseRiskLevel(textutil.ExtractFieldLoosely(raw, riskLevelKeys)); ok {
		safety.RiskLevel = lvl
	}
	safety.EmergencyMessage = textutil.ExtractFieldLoosely(raw, emergencyKeys)

	return buildResponse([]mentor.Reply{mentor.Backfill(r, pc.Language)}, safety, "", pc)
}
