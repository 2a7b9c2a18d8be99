package prompt

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/kalambet/mentortable/internal/history"
	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/textutil"
)

func gatesAndJobs(t *testing.T) []mentor.Profile {
	t.Helper()
	var out []mentor.Profile
	for _, id := range []string{mentor.BillGates, mentor.SteveJobs} {
		p, ok := mentor.DefaultCatalog().Lookup(id)
		if !ok {
			t.Fatalf("missing %s", id)
		}
		out = append(out, p)
	}
	return out
}

func TestBuildSystemPrompt(t *testing.T) {
	mentors := gatesAndJobs(t)
	got := BuildSystemPrompt(mentors)
	for _, want := range []string{"Safety first", "first-person", "JSON only", "exactly one reply per mentor", "[Mentor bill_gates]", "[Mentor steve_jobs]", "Name: Steve Jobs"} {
		if !strings.Contains(got, want) {
			t.Errorf("system prompt missing %q", want)
		}
	}
	if !strings.Contains(got, MentorDirective(mentors[0])+"\n\n"+MentorDirective(mentors[1])) {
		t.Error("directive blocks should be joined by a blank line")
	}
}

func TestMentorDirective(t *testing.T) {
	p := mentor.Profile{ID: "x", DisplayName: "Grandma", SpeakingStyle: []string{"warm", "slow"}, AvoidClaims: []string{"medical advice"}}
	got := MentorDirective(p)
	want := "[Mentor x]\nName: Grandma\nSpeaking style: warm; slow\nAvoid claiming: medical advice"
	if got != want {
		t.Errorf("MentorDirective =\n%s\nwant\n%s", got, want)
	}
}

func TestBuildUserPrompt_NoHistory(t *testing.T) {
	got := BuildUserPrompt("  I feel stuck at work ", textutil.English, gatesAndJobs(t), history.Compacted{})
	for _, want := range []string{
		"[Problem]\nI feel stuck at work\n",
		"en (write every text field",
		mentor.SchemaVersion,
		"No compaction needed.",
		"No prior conversation history.",
		`"mentorId": "bill_gates"`,
		`"mentorId": "steve_jobs"`,
		"meta.disclaimer must be exactly: " + mentor.DisclaimerEnglish,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
	if strings.Contains(got, "condensed by a summarizer") {
		t.Error("LLM compaction note should be absent")
	}
}

func TestBuildUserPrompt_WithCompactedHistory(t *testing.T) {
	conv := history.Compacted{
		Entries:            []history.Entry{{Role: history.RoleUser, Text: "earlier question"}, {Role: history.RoleMentor, Speaker: "Bill Gates", Text: "earlier answer"}},
		Summary:            "They talked about burnout.",
		OmittedCount:       4,
		UsedLLMCompression: true,
	}
	got := BuildUserPrompt("问题", textutil.Chinese, gatesAndJobs(t)[:1], conv)
	for _, want := range []string{
		"condensed by a summarizer",
		"They talked about burnout.",
		"1. [user] user: earlier question\n2. [mentor] Bill Gates: earlier answer",
		"zh-CN",
		mentor.DisclaimerChinese,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("user prompt missing %q", want)
		}
	}
	if strings.Contains(got, "No compaction needed.") || strings.Contains(got, "No prior conversation history.") {
		t.Error("placeholders should not appear when history is present")
	}
}

func TestOutputTemplateIsValidJSON(t *testing.T) {
	tmpl := outputTemplate(textutil.English, gatesAndJobs(t))
	var v map[string]any
	if err := json.Unmarshal([]byte(tmpl), &v); err != nil {
		t.Fatalf("template is not valid JSON: %v\n%s", err, tmpl)
	}
	for _, key := range []string{"schemaVersion", "language", "safety", "mentorReplies", "meta"} {
		if _, ok := v[key]; !ok {
			t.Errorf("template missing %q", key)
		}
	}
}

func TestRepairMessages_TruncatesInput(t *testing.T) {
	p := gatesAndJobs(t)[0]
	raw := strings.Repeat("x", MaxRepairInput+500)
	msgs := RepairMessages(raw, textutil.English, p)
	if len(msgs) != 2 || msgs[0].Role != "system" || msgs[1].Role != "user" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if strings.Contains(msgs[1].Content, strings.Repeat("x", MaxRepairInput+1)) {
		t.Error("repair input not truncated")
	}
	if !strings.Contains(msgs[1].Content, strings.Repeat("x", MaxRepairInput)) {
		t.Error("repair input missing")
	}
	for _, key := range []string{"schemaVersion", "language", "safety", "mentorReplies", "meta"} {
		if !strings.Contains(msgs[0].Content, key) {
			t.Errorf("repair system prompt missing %q", key)
		}
	}
}

func TestStrictFormat(t *testing.T) {
	f := StrictFormat()
	if f.Type != "json_schema" || f.JSONSchema == nil || !f.JSONSchema.Strict {
		t.Fatalf("unexpected format %+v", f)
	}
	schema := f.JSONSchema.Schema
	if schema["additionalProperties"] != false {
		t.Error("top level must forbid additional properties")
	}
	required, _ := schema["required"].([]string)
	if strings.Join(required, ",") != "language,mentorReplies,meta,safety,schemaVersion" {
		t.Errorf("required = %v", required)
	}
	if _, err := json.Marshal(f); err != nil {
		t.Errorf("format does not marshal: %v", err)
	}
	if RelaxedFormat().Type != "json_object" {
		t.Error("relaxed format should be json_object")
	}
}
