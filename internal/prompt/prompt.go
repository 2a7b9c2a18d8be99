// Package prompt renders the system, user and repair prompts sent to the
// chat-completion endpoint for each mentor.
package prompt

import (
	"fmt"
	"strings"

	"github.com/kalambet/mentortable/internal/history"
	"github.com/kalambet/mentortable/internal/llm"
	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/textutil"
)

const systemRules = `You are the Mentor Table: you simulate how specific public figures might respond to a person asking for advice.

Priority rules, in order:
1. Safety first. If the user may be at risk of self-harm, abuse or a medical or legal emergency, set safety.riskLevel to "high", set needsProfessionalHelp to true and write a short emergencyMessage pointing to local emergency services or a crisis line.
2. Persona fidelity. Stay consistent with each mentor's speaking style, values, decision patterns and known experience themes below.
3. Distinct voices. Each mentor must sound clearly different from the others.
4. Conversation continuity. Take the earlier conversation into account and do not repeat advice already given.
5. Strict first-person voice. Write likelyResponse as the mentor speaking directly to the user ("I would..."), never "As X, ..." or "If I were X, ...".
6. No impersonation claims. Never claim to actually be the real person, never invent private facts, quotes or events, and respect each mentor's claims to avoid.
7. End every likelyResponse with one concrete action step and repeat it in oneActionStep.
8. Output JSON only, with no prose or markdown around it.
9. Produce exactly one reply per mentor listed, with no duplicates.`

// MentorDirective renders the persona block for one mentor.
func MentorDirective(p mentor.Profile) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Mentor %s]\n", p.ID)
	fmt.Fprintf(&b, "Name: %s\n", p.Name())
	if p.ShortLabel != "" && p.ShortLabel != p.Name() {
		fmt.Fprintf(&b, "Short label: %s\n", p.ShortLabel)
	}
	writeList(&b, "Speaking style", p.SpeakingStyle)
	writeList(&b, "Core values", p.CoreValues)
	writeList(&b, "Decision patterns", p.DecisionPatterns)
	writeList(&b, "Known experience themes", p.KnownExperienceThemes)
	writeList(&b, "Likely blind spots", p.LikelyBlindSpots)
	writeList(&b, "Avoid claiming", p.AvoidClaims)
	return strings.TrimRight(b.String(), "\n")
}

func writeList(b *strings.Builder, label string, items []string) {
	if len(items) == 0 {
		return
	}
	fmt.Fprintf(b, "%s: %s\n", label, strings.Join(items, "; "))
}

func directives(mentors []mentor.Profile) string {
	blocks := make([]string, len(mentors))
	for i, p := range mentors {
		blocks[i] = MentorDirective(p)
	}
	return strings.Join(blocks, "\n\n")
}

// BuildSystemPrompt renders the priority rules followed by one directive
// block per mentor.
func BuildSystemPrompt(mentors []mentor.Profile) string {
	return systemRules + "\n\nMentors:\n\n" + directives(mentors)
}

// BuildUserPrompt renders the problem, the response language, the mentor
// directives, the compacted conversation and the required output template.
func BuildUserPrompt(problem string, lang textutil.Language, mentors []mentor.Profile, conv history.Compacted) string {
	var b strings.Builder
	fmt.Fprintf(&b, "[Problem]\n%s\n\n", strings.TrimSpace(problem))
	fmt.Fprintf(&b, "[Response language]\n%s (write every text field in this language)\n\n", lang)
	fmt.Fprintf(&b, "[Schema version]\n%s\n\n", mentor.SchemaVersion)
	fmt.Fprintf(&b, "[Mentors]\n%s\n\n", directives(mentors))

	b.WriteString("[Conversation summary]\n")
	if conv.UsedLLMCompression {
		b.WriteString("Note: the middle of this conversation was condensed by a summarizer.\n")
	}
	if conv.Summary != "" {
		b.WriteString(conv.Summary)
	} else {
		b.WriteString("No compaction needed.")
	}
	b.WriteString("\n\n[Conversation history]\n")
	if len(conv.Entries) > 0 {
		b.WriteString(history.Format(conv.Entries))
	} else {
		b.WriteString("No prior conversation history.")
	}

	b.WriteString("\n\n[Required output JSON]\n")
	b.WriteString(outputTemplate(lang, mentors))
	fmt.Fprintf(&b, "\n\nmeta.disclaimer must be exactly: %s", mentor.Disclaimer(lang))
	return b.String()
}

func outputTemplate(lang textutil.Language, mentors []mentor.Profile) string {
	replies := make([]string, len(mentors))
	for i, p := range mentors {
		replies[i] = fmt.Sprintf(`    {"mentorId": %q, "mentorName": %q, "likelyResponse": "...", "whyThisFits": "...", "oneActionStep": "...", "confidenceNote": "..."}`, p.ID, p.Name())
	}
	return fmt.Sprintf(`{
  "schemaVersion": %q,
  "language": %q,
  "safety": {"riskLevel": "none|low|medium|high", "needsProfessionalHelp": false, "emergencyMessage": ""},
  "mentorReplies": [
%s
  ],
  "meta": {"disclaimer": %q, "generatedAt": "", "provider": "", "model": ""}
}`, mentor.SchemaVersion, lang, strings.Join(replies, ",\n"), mentor.Disclaimer(lang))
}

// Messages returns the system and user messages for one consultation call.
func Messages(problem string, lang textutil.Language, mentors []mentor.Profile, conv history.Compacted) []llm.Message {
	return []llm.Message{
		{Role: "system", Content: BuildSystemPrompt(mentors)},
		{Role: "user", Content: BuildUserPrompt(problem, lang, mentors, conv)},
	}
}
