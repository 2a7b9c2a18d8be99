package table

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/kalambet/mentortable/internal/history"
	"github.com/kalambet/mentortable/internal/llm"
	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/textutil"
)

// mentorIn returns the mentor ID whose directive appears in the system
// prompt of req.
func mentorIn(req llm.ChatRequest) string {
	if len(req.Messages) == 0 {
		return ""
	}
	sys := req.Messages[0].Content
	for _, id := range mentor.DefaultCatalog().IDs() {
		if strings.Contains(sys, "[Mentor "+id+"]") {
			return id
		}
	}
	return ""
}

func isRepair(req llm.ChatRequest) bool {
	return len(req.Messages) > 0 && strings.Contains(req.Messages[0].Content, "malformed model output")
}

func chatBody(content string) string {
	c, _ := json.Marshal(content)
	return fmt.Sprintf(`{"id":"x","choices":[{"index":0,"message":{"role":"assistant","content":%s}}]}`, c)
}

func replyJSON(id, text string) string {
	return fmt.Sprintf(`{"schemaVersion":"mentor_table.v1","language":"en","safety":{"riskLevel":"low","needsProfessionalHelp":false,"emergencyMessage":""},"mentorReplies":[{"mentorId":%q,"mentorName":"","likelyResponse":%q,"whyThisFits":"fits","oneActionStep":"step","confidenceNote":"note"}],"meta":{"disclaimer":"","generatedAt":"","provider":"","model":""}}`, id, text)
}

// mockUpstream runs an OpenAI-compatible endpoint that hands each decoded
// request to handle.
func mockUpstream(t *testing.T, handle func(req llm.ChatRequest) (int, string)) (*httptest.Server, *llm.Client) {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("Authorization = %q", got)
		}
		data, _ := io.ReadAll(r.Body)
		var req llm.ChatRequest
		if err := json.Unmarshal(data, &req); err != nil {
			t.Errorf("bad upstream request: %v", err)
		}
		status, body := handle(req)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		io.WriteString(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv, llm.NewClient("test-key", srv.URL)
}

func newTestService(client Chatter, baseURL string) *Service {
	s := New(client, Options{APIKey: "test-key", BaseURL: baseURL, Model: "test-model", Timeout: 2 * time.Second}, nil)
	s.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return s
}

func requested(ids ...string) []mentor.Profile {
	out := make([]mentor.Profile, len(ids))
	for i, id := range ids {
		out[i] = mentor.Profile{ID: id}
	}
	return out
}

func replyIDs(resp mentor.Response) []string {
	ids := make([]string, len(resp.MentorReplies))
	for i, r := range resp.MentorReplies {
		ids[i] = r.MentorID
	}
	return ids
}

func TestConsult_AllUpstreamFailuresYieldServerFallback(t *testing.T) {
	srv, client := mockUpstream(t, func(llm.ChatRequest) (int, string) {
		return http.StatusInternalServerError, `{"error":"boom"}`
	})
	s := newTestService(client, srv.URL)

	resp, err := s.Consult(context.Background(), Request{
		Problem: "I keep procrastinating.",
		Mentors: requested(mentor.BillGates, mentor.SteveJobs, mentor.ElonMusk),
	})
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	if len(resp.MentorReplies) != 3 {
		t.Fatalf("got %d replies, want 3", len(resp.MentorReplies))
	}
	if resp.Meta.Provider != ProviderServerFallback {
		t.Errorf("provider = %q, want %q", resp.Meta.Provider, ProviderServerFallback)
	}
	if got := strings.Join(replyIDs(resp), ","); got != "bill_gates,steve_jobs,elon_musk" {
		t.Errorf("reply order = %s", got)
	}
	for _, r := range resp.MentorReplies {
		if r.LikelyResponse == "" || r.WhyThisFits == "" || r.OneActionStep == "" || r.ConfidenceNote == "" {
			t.Errorf("incomplete fallback reply %+v", r)
		}
	}
	if resp.SchemaVersion != mentor.SchemaVersion || resp.Meta.Disclaimer != mentor.DisclaimerEnglish {
		t.Errorf("bad envelope: %+v", resp)
	}
	if resp.Meta.GeneratedAt != "2026-03-01T12:00:00Z" || resp.Meta.Model != "test-model" {
		t.Errorf("meta = %+v", resp.Meta)
	}
	if resp.Safety.RiskLevel != mentor.RiskNone {
		t.Errorf("safety should stay at its default, got %+v", resp.Safety)
	}
}

func TestConsult_PartialFailure(t *testing.T) {
	srv, client := mockUpstream(t, func(req llm.ChatRequest) (int, string) {
		if mentorIn(req) == mentor.SteveJobs {
			return http.StatusOK, chatBody(replyJSON(mentor.SteveJobs, "I would cut everything that is not essential."))
		}
		return http.StatusBadGateway, "upstream down"
	})
	s := newTestService(client, srv.URL)

	mentors := requested(mentor.BillGates, mentor.SteveJobs, mentor.WarrenBuffett)
	resp, err := s.Consult(context.Background(), Request{Problem: "Should I quit my job?", Mentors: mentors})
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	if resp.Meta.Provider != ProviderPartialFallback {
		t.Errorf("provider = %q, want %q", resp.Meta.Provider, ProviderPartialFallback)
	}
	if got := resp.MentorReplies[1].LikelyResponse; got != "I would cut everything that is not essential." {
		t.Errorf("succeeding mentor text = %q", got)
	}
	if resp.MentorReplies[1].MentorName != "Steve Jobs" {
		t.Errorf("mentor name = %q", resp.MentorReplies[1].MentorName)
	}
	for _, i := range []int{0, 2} {
		p, _ := mentor.DefaultCatalog().Lookup(resp.MentorReplies[i].MentorID)
		want := mentor.FallbackReply(p, textutil.English)
		if resp.MentorReplies[i] != want {
			t.Errorf("reply %d = %+v, want fallback %+v", i, resp.MentorReplies[i], want)
		}
	}
	if resp.Safety.RiskLevel != mentor.RiskLow {
		t.Errorf("risk = %q, want low from the succeeding mentor", resp.Safety.RiskLevel)
	}
}

func TestConsult_SuccessUsesProviderHostname(t *testing.T) {
	srv, client := mockUpstream(t, func(req llm.ChatRequest) (int, string) {
		return http.StatusOK, chatBody(replyJSON(mentorIn(req), "As Bill Gates, I would focus on the biggest lever first."))
	})
	s := newTestService(client, srv.URL)

	resp, err := s.Consult(context.Background(), Request{Problem: "Where do I start?", Mentors: requested(mentor.BillGates)})
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	if resp.Meta.Provider != "127.0.0.1" {
		t.Errorf("provider = %q, want 127.0.0.1", resp.Meta.Provider)
	}
	if got := resp.MentorReplies[0].LikelyResponse; got != "I would focus on the biggest lever first." {
		t.Errorf("sanitized text = %q", got)
	}
}

func TestConsult_StrictSchemaClientErrorRetriesRelaxed(t *testing.T) {
	var strictCalls, relaxedCalls atomic.Int32
	srv, client := mockUpstream(t, func(req llm.ChatRequest) (int, string) {
		if req.ResponseFormat != nil && req.ResponseFormat.Type == llm.FormatJSONSchema {
			strictCalls.Add(1)
			return http.StatusBadRequest, `{"error":"response_format not supported"}`
		}
		relaxedCalls.Add(1)
		return http.StatusOK, chatBody(replyJSON(mentor.BillGates, "I would read the documentation."))
	})
	s := newTestService(client, srv.URL)

	resp, err := s.Consult(context.Background(), Request{Problem: "How do I learn fast?", Mentors: requested(mentor.BillGates)})
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	if strictCalls.Load() != 1 || relaxedCalls.Load() != 1 {
		t.Errorf("strict=%d relaxed=%d, want 1 and 1", strictCalls.Load(), relaxedCalls.Load())
	}
	if resp.Meta.Provider == ProviderServerFallback {
		t.Error("retry should have succeeded")
	}
}

func TestConsult_ServerErrorIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	srv, client := mockUpstream(t, func(llm.ChatRequest) (int, string) {
		calls.Add(1)
		return http.StatusServiceUnavailable, "busy"
	})
	s := newTestService(client, srv.URL)

	if _, err := s.Consult(context.Background(), Request{Problem: "x", Mentors: requested(mentor.BillGates)}); err != nil {
		t.Fatalf("Consult: %v", err)
	}
	if calls.Load() != 1 {
		t.Errorf("calls = %d, want 1", calls.Load())
	}
}

// mockChatter is a hand mock of Chatter for tests that need to inspect
// requests without HTTP.
type mockChatter struct {
	mu    sync.Mutex
	reqs  []llm.ChatRequest
	reply func(req llm.ChatRequest) (*llm.ChatResponse, error)
}

func (m *mockChatter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	m.mu.Lock()
	m.reqs = append(m.reqs, req)
	m.mu.Unlock()
	return m.reply(req)
}

func contentResponse(content string) *llm.ChatResponse {
	c, _ := json.Marshal(content)
	return &llm.ChatResponse{Choices: []llm.Choice{{Message: llm.ChoiceMessage{Role: "assistant", Content: c}}}}
}

func TestConsult_RelaxedFormatForNonStrictProvider(t *testing.T) {
	m := &mockChatter{reply: func(llm.ChatRequest) (*llm.ChatResponse, error) {
		return nil, &llm.StatusError{StatusCode: 400, Body: "bad"}
	}}
	s := newTestService(m, "https://api.deepseek.com/v1")

	resp, err := s.Consult(context.Background(), Request{Problem: "x", Mentors: requested(mentor.JackMa)})
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	if len(m.reqs) != 1 {
		t.Fatalf("calls = %d, want 1 (no retry without strict schema)", len(m.reqs))
	}
	if f := m.reqs[0].ResponseFormat; f == nil || f.Type != llm.FormatJSONObject {
		t.Errorf("format = %+v, want json_object", f)
	}
	if resp.Meta.Provider != ProviderServerFallback {
		t.Errorf("provider = %q", resp.Meta.Provider)
	}
}

func TestConsult_RepairCall(t *testing.T) {
	m := &mockChatter{reply: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
		if isRepair(req) {
			return contentResponse(replyJSON(mentor.KobeBryant, "I would get in the gym at 4am.")), nil
		}
		return contentResponse("Sorry, here are my thoughts without any structure."), nil
	}}
	s := newTestService(m, "https://api.openai.com/v1")

	resp, err := s.Consult(context.Background(), Request{Problem: "How do I stay disciplined?", Mentors: requested(mentor.KobeBryant)})
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	if len(m.reqs) != 2 || !isRepair(m.reqs[1]) {
		t.Fatalf("expected primary then repair call, got %d calls", len(m.reqs))
	}
	if !strings.Contains(m.reqs[1].Messages[1].Content, "without any structure") {
		t.Error("repair prompt should carry the raw output")
	}
	if got := resp.MentorReplies[0].LikelyResponse; got != "I would get in the gym at 4am." {
		t.Errorf("LikelyResponse = %q", got)
	}
	if resp.Meta.Provider != "api.openai.com" {
		t.Errorf("provider = %q", resp.Meta.Provider)
	}
}

func TestConsult_RepairFailureFallsBack(t *testing.T) {
	m := &mockChatter{reply: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
		if isRepair(req) {
			return contentResponse("still not json"), nil
		}
		return contentResponse("no structure here"), nil
	}}
	s := newTestService(m, "https://api.openai.com/v1")

	resp, err := s.Consult(context.Background(), Request{Problem: "x", Mentors: requested(mentor.OprahWinfrey)})
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	if resp.Meta.Provider != ProviderServerFallback {
		t.Errorf("provider = %q", resp.Meta.Provider)
	}
}

func TestConsultMentor_UnparseableErrorCarriesPreview(t *testing.T) {
	long := strings.Repeat("word ", 100)
	m := &mockChatter{reply: func(llm.ChatRequest) (*llm.ChatResponse, error) {
		return contentResponse(long), nil
	}}
	s := newTestService(m, "https://api.openai.com/v1")
	p, _ := mentor.DefaultCatalog().Lookup(mentor.BillGates)

	o := s.consultMentor(context.Background(), p, "x", textutil.English, history.Compacted{})
	var me *MentorError
	if !errors.As(o.err, &me) || me.MentorID != mentor.BillGates {
		t.Fatalf("err = %v, want MentorError for bill_gates", o.err)
	}
	wantPreview := textutil.Truncate(strings.TrimSpace(long), previewRunes)
	if !strings.Contains(o.err.Error(), wantPreview) {
		t.Errorf("error %q lacks preview", o.err)
	}
	if strings.Contains(o.err.Error(), strings.TrimSpace(long)) {
		t.Error("preview not truncated")
	}
}

func TestConsult_LanguageDetectionOverridesRequest(t *testing.T) {
	m := &mockChatter{reply: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
		if mentorIn(req) == mentor.OprahWinfrey {
			return contentResponse(`{"mentorReplies":[{"mentorId":"oprah_winfrey","likelyResponse":"我理解你的感受。"}]}`), nil
		}
		return nil, errors.New("network down")
	}}
	s := newTestService(m, "https://api.openai.com/v1")

	resp, err := s.Consult(context.Background(), Request{
		Problem:  "我最近很焦虑",
		Language: "en",
		Mentors:  requested(mentor.OprahWinfrey, mentor.BillGates),
	})
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	if resp.Language != textutil.Chinese {
		t.Errorf("language = %q, want zh-CN", resp.Language)
	}
	if resp.Meta.Disclaimer != mentor.DisclaimerChinese {
		t.Errorf("disclaimer = %q", resp.Meta.Disclaimer)
	}
	ok := resp.MentorReplies[0]
	fallback := resp.MentorReplies[1]
	wantAction := mentor.Backfill(mentor.Reply{MentorName: "Oprah Winfrey"}, textutil.Chinese)
	if ok.OneActionStep != wantAction.OneActionStep || ok.ConfidenceNote != wantAction.ConfidenceNote {
		t.Errorf("defaults not Chinese: %+v", ok)
	}
	gates, _ := mentor.DefaultCatalog().Lookup(mentor.BillGates)
	if fallback != mentor.FallbackReply(gates, textutil.Chinese) {
		t.Errorf("fallback not Chinese: %+v", fallback)
	}
	if !strings.Contains(m.reqs[0].Messages[1].Content, "zh-CN") {
		t.Error("user prompt should request zh-CN")
	}
}

func TestConsult_SafetyMerge(t *testing.T) {
	m := &mockChatter{reply: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
		switch mentorIn(req) {
		case mentor.OprahWinfrey:
			return contentResponse(`{"safety":{"riskLevel":"high","needsProfessionalHelp":true,"emergencyMessage":"Please call 988."},"mentorReplies":[{"mentorId":"oprah_winfrey","likelyResponse":"You matter."}]}`), nil
		default:
			return contentResponse(`{"safety":{"riskLevel":"medium","emergencyMessage":"ignored"},"mentorReplies":[{"mentorId":"bill_gates","likelyResponse":"Let's make a plan."}]}`), nil
		}
	}}
	s := newTestService(m, "https://api.openai.com/v1")

	resp, err := s.Consult(context.Background(), Request{Problem: "I feel hopeless", Mentors: requested(mentor.BillGates, mentor.OprahWinfrey)})
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	want := mentor.Safety{RiskLevel: mentor.RiskHigh, NeedsProfessionalHelp: true, EmergencyMessage: "Please call 988."}
	if resp.Safety != want {
		t.Errorf("safety = %+v, want %+v", resp.Safety, want)
	}
}

func TestConsult_SafetyFinalization(t *testing.T) {
	tests := []struct {
		name    string
		payload string
		want    mentor.Safety
	}{
		{
			"high without message gets default",
			`{"safety":{"riskLevel":"high"},"response":"Stay with me."}`,
			mentor.Safety{RiskLevel: mentor.RiskHigh, EmergencyMessage: mentor.DefaultEmergencyMessage(textutil.English)},
		},
		{
			"medium drops message",
			`{"safety":{"riskLevel":"medium","emergencyMessage":"x"},"response":"Breathe."}`,
			mentor.Safety{RiskLevel: mentor.RiskMedium},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := &mockChatter{reply: func(llm.ChatRequest) (*llm.ChatResponse, error) {
				return contentResponse(tt.payload), nil
			}}
			s := newTestService(m, "https://api.openai.com/v1")
			resp, err := s.Consult(context.Background(), Request{Problem: "help", Mentors: requested(mentor.MichelleObama)})
			if err != nil {
				t.Fatalf("Consult: %v", err)
			}
			if resp.Safety != tt.want {
				t.Errorf("safety = %+v, want %+v", resp.Safety, tt.want)
			}
		})
	}
}

func TestConsult_DistinctMentorsInRequestOrder(t *testing.T) {
	m := &mockChatter{reply: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
		// Every mentor answers as the same wrong id; the service must still
		// attribute each reply to the mentor it asked.
		return contentResponse(`{"mentorReplies":[{"mentorId":"elon_musk","likelyResponse":"Think from first principles."}]}`), nil
	}}
	s := newTestService(m, "https://api.openai.com/v1")

	resp, err := s.Consult(context.Background(), Request{
		Problem: "x",
		Mentors: []mentor.Profile{{ID: mentor.JackMa}, {DisplayName: "Grandma"}, {ID: mentor.JackMa}, {ID: mentor.KobeBryant}},
	})
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	ids := replyIDs(resp)
	if len(ids) != 3 {
		t.Fatalf("ids = %v, want 3 distinct mentors", ids)
	}
	seen := map[string]bool{}
	for _, id := range ids {
		if seen[id] {
			t.Errorf("duplicate mentor id %s in %v", id, ids)
		}
		seen[id] = true
	}
	if ids[0] != mentor.JackMa || ids[2] != mentor.KobeBryant {
		t.Errorf("order = %v", ids)
	}
	if resp.MentorReplies[1].MentorName != "Grandma" {
		t.Errorf("synthesized mentor name = %q", resp.MentorReplies[1].MentorName)
	}
}

func TestConsult_PassesCompactedHistory(t *testing.T) {
	m := &mockChatter{reply: func(llm.ChatRequest) (*llm.ChatResponse, error) {
		return contentResponse(`{"response":"ok"}`), nil
	}}
	s := newTestService(m, "https://api.openai.com/v1")

	_, err := s.Consult(context.Background(), Request{
		Problem: "follow-up",
		Mentors: requested(mentor.BillGates),
		History: []history.Entry{{Role: history.RoleUser, Text: "my first worry"}},
	})
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	if !strings.Contains(m.reqs[0].Messages[1].Content, "1. [user] user: my first worry") {
		t.Error("history not rendered into the user prompt")
	}
}

func TestConsult_Validation(t *testing.T) {
	s := newTestService(&mockChatter{}, "https://api.openai.com/v1")
	tests := []struct {
		name string
		req  Request
	}{
		{"missing problem", Request{Mentors: requested(mentor.BillGates)}},
		{"blank problem", Request{Problem: "   ", Mentors: requested(mentor.BillGates)}},
		{"no mentors", Request{Problem: "x"}},
		{"nameless mentors", Request{Problem: "x", Mentors: []mentor.Profile{{}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := s.Consult(context.Background(), tt.req)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Errorf("err = %v, want ValidationError", err)
			}
		})
	}
}

func TestConsult_MissingAPIKey(t *testing.T) {
	s := New(&mockChatter{}, Options{}, nil)
	_, err := s.Consult(context.Background(), Request{Problem: "x", Mentors: requested(mentor.BillGates)})
	if !errors.Is(err, ErrMissingAPIKey) {
		t.Errorf("err = %v, want ErrMissingAPIKey", err)
	}
}

func TestConsult_ContextDeadline(t *testing.T) {
	m := &mockChatter{reply: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
		return nil, context.DeadlineExceeded
	}}
	s := newTestService(m, "https://api.openai.com/v1")

	ctx, cancel := context.WithTimeout(context.Background(), time.Nanosecond)
	defer cancel()
	time.Sleep(time.Millisecond)

	_, err := s.Consult(ctx, Request{Problem: "x", Mentors: requested(mentor.BillGates)})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("err = %v, want DeadlineExceeded", err)
	}
}

func TestConsult_PanicBecomesFallback(t *testing.T) {
	m := &mockChatter{reply: func(req llm.ChatRequest) (*llm.ChatResponse, error) {
		if mentorIn(req) == mentor.ElonMusk {
			panic("boom")
		}
		return contentResponse(`{"response":"fine"}`), nil
	}}
	s := newTestService(m, "https://api.openai.com/v1")

	resp, err := s.Consult(context.Background(), Request{Problem: "x", Mentors: requested(mentor.ElonMusk, mentor.BillGates)})
	if err != nil {
		t.Fatalf("Consult: %v", err)
	}
	if resp.Meta.Provider != ProviderPartialFallback {
		t.Errorf("provider = %q", resp.Meta.Provider)
	}
	if resp.MentorReplies[1].LikelyResponse != "fine" {
		t.Errorf("sibling reply = %q", resp.MentorReplies[1].LikelyResponse)
	}
}
