// Package table runs a mentor table consultation: it compacts the earlier
// conversation, asks every selected mentor concurrently and aggregates the
// outcomes into one schema-conformant response.
package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/kalambet/mentortable/internal/history"
	"github.com/kalambet/mentortable/internal/llm"
	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/metrics"
	"github.com/kalambet/mentortable/internal/textutil"
)

// Provider sentinels reported in meta.provider when replies are canned.
const (
	ProviderServerFallback  = "server-fallback"
	ProviderPartialFallback = "partial-fallback"
)

const (
	DefaultModel     = "gpt-4o-mini"
	DefaultTimeout   = 45 * time.Second
	maxRepairTimeout = 12 * time.Second
)

// Chatter is the chat-completion capability the service depends on.
type Chatter interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// Options configures a Service.
type Options struct {
	APIKey      string
	BaseURL     string
	Model       string
	Temperature float64
	// Timeout bounds each upstream call.
	Timeout time.Duration
	History history.Options
}

// Request is one consultation.
type Request struct {
	Problem  string
	Language string
	Mentors  []mentor.Profile
	History  []history.Entry
}

// Service consults mentors.
type Service struct {
	client    Chatter
	compactor *history.Compactor
	catalog   *mentor.Catalog
	metrics   *metrics.Metrics
	opts      Options
	now       func() time.Time
}

// New creates a Service. m may be nil.
func New(client Chatter, opts Options, m *metrics.Metrics) *Service {
	if opts.BaseURL == "" {
		opts.BaseURL = llm.DefaultBaseURL
	}
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.History.Model == "" {
		opts.History.Model = opts.Model
	}
	var summarizer history.Chatter
	if client != nil {
		summarizer = observedChatter{Chatter: client, metrics: m, purpose: "summary"}
	}
	return &Service{
		client:    client,
		compactor: history.NewCompactor(summarizer, opts.History),
		catalog:   mentor.DefaultCatalog(),
		metrics:   m,
		opts:      opts,
		now:       time.Now,
	}
}

// Catalog returns the mentor catalog the service resolves against.
func (s *Service) Catalog() *mentor.Catalog { return s.catalog }

// Model returns the configured model name.
func (s *Service) Model() string { return s.opts.Model }

// Consult validates req and runs the consultation. Per-mentor failures
// degrade to canned replies; an error is returned only for invalid input,
// a missing API key, or when ctx ends before the mentors settle.
func (s *Service) Consult(ctx context.Context, req Request) (mentor.Response, error) {
	problem := strings.TrimSpace(req.Problem)
	if problem == "" {
		return mentor.Response{}, &ValidationError{Msg: "problem is required"}
	}
	if len(req.Mentors) == 0 {
		return mentor.Response{}, &ValidationError{Msg: "mentors must be a non-empty list"}
	}
	mentors := s.catalog.Resolve(req.Mentors)
	if len(mentors) == 0 {
		return mentor.Response{}, &ValidationError{Msg: "mentors must name at least one mentor"}
	}
	if s.opts.APIKey == "" {
		return mentor.Response{}, ErrMissingAPIKey
	}

	lang := textutil.ResolveLanguage(problem, req.Language)
	conv := s.compactor.Compact(ctx, req.History, lang)
	s.metrics.IncCompaction(conv.Mode())
	slog.Debug("history compacted", "mode", conv.Mode(), "kept", len(conv.Entries), "omitted", conv.OmittedCount, "tokens", conv.EstimatedTokens)

	outcomes := make([]outcome, len(mentors))
	var g errgroup.Group
	for i, p := range mentors {
		g.Go(func() error {
			outcomes[i] = s.consultMentorSafely(ctx, p, problem, lang, conv)
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return mentor.Response{}, fmt.Errorf("consultation aborted: %w", err)
	}

	resp := s.aggregate(mentors, outcomes, lang)
	s.metrics.IncConsultation(resp.Meta.Provider)
	return resp, nil
}

// consultMentorSafely converts a panic in one mentor's pipeline into that
// mentor's failure.
func (s *Service) consultMentorSafely(ctx context.Context, p mentor.Profile, problem string, lang textutil.Language, conv history.Compacted) (out outcome) {
	defer func() {
		if r := recover(); r != nil {
			out = outcome{err: &MentorError{MentorID: p.ID, Err: fmt.Errorf("panic: %v", r)}}
		}
	}()
	return s.consultMentor(ctx, p, problem, lang, conv)
}

func (s *Service) aggregate(mentors []mentor.Profile, outcomes []outcome, lang textutil.Language) mentor.Response {
	safety := mentor.Safety{RiskLevel: mentor.RiskNone}
	replies := make([]mentor.Reply, 0, len(mentors))
	failed := 0

	for i, p := range mentors {
		o := outcomes[i]
		if o.err != nil {
			failed++
			slog.Warn("mentor generation failed", "mentor_id", p.ID, "status", statusOf(o.err), "error", o.err)
			s.metrics.IncMentorOutcome("fallback")
			replies = append(replies, mentor.FallbackReply(p, lang))
			continue
		}
		if o.repaired {
			s.metrics.IncMentorOutcome("repaired")
		} else {
			s.metrics.IncMentorOutcome("ok")
		}
		safety = mentor.MergeSafety(safety, o.safety)
		r := o.reply
		r.MentorID = p.ID
		r.MentorName = p.Name()
		r.LikelyResponse = Sanitize(r.LikelyResponse, p)
		replies = append(replies, finalizeReply(mentor.Backfill(r, lang)))
	}

	if safety.RiskLevel == mentor.RiskHigh {
		if strings.TrimSpace(safety.EmergencyMessage) == "" {
			safety.EmergencyMessage = mentor.DefaultEmergencyMessage(lang)
		}
	} else {
		safety.EmergencyMessage = ""
	}

	provider := llm.ProviderName(s.opts.BaseURL)
	switch {
	case failed == len(mentors):
		provider = ProviderServerFallback
	case failed > 0:
		provider = ProviderPartialFallback
	}

	return mentor.Response{
		SchemaVersion: mentor.SchemaVersion,
		Language:      lang,
		Safety:        safety,
		MentorReplies: replies,
		Meta: mentor.Meta{
			Disclaimer:  mentor.Disclaimer(lang),
			GeneratedAt: s.now().UTC().Format(time.RFC3339),
			Provider:    provider,
			Model:       s.opts.Model,
		},
	}
}

func finalizeReply(r mentor.Reply) mentor.Reply {
	r.WhyThisFits = textutil.CollapseWhitespace(r.WhyThisFits)
	r.OneActionStep = textutil.CollapseWhitespace(r.OneActionStep)
	r.ConfidenceNote = textutil.CollapseWhitespace(r.ConfidenceNote)
	return r
}

func statusOf(err error) int {
	var se *llm.StatusError
	if errors.As(err, &se) {
		return se.StatusCode
	}
	return 0
}
