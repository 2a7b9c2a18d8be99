package table

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/kalambet/mentortable/internal/history"
	"github.com/kalambet/mentortable/internal/llm"
	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/metrics"
	"github.com/kalambet/mentortable/internal/parse"
	"github.com/kalambet/mentortable/internal/prompt"
	"github.com/kalambet/mentortable/internal/textutil"
)

const previewRunes = 180

type outcome struct {
	reply    mentor.Reply
	safety   mentor.Safety
	repaired bool
	err      error
}

// consultMentor runs one mentor: request, optional relaxed-format retry on
// a client error, parse, optional repair call, and reply selection.
func (s *Service) consultMentor(ctx context.Context, p mentor.Profile, problem string, lang textutil.Language, conv history.Compacted) outcome {
	fail := func(err error) outcome {
		return outcome{err: &MentorError{MentorID: p.ID, Err: err}}
	}

	mentors := []mentor.Profile{p}
	msgs := prompt.Messages(problem, lang, mentors, conv)

	strict := llm.SupportsStrictSchema(s.opts.BaseURL)
	format := prompt.RelaxedFormat()
	if strict {
		format = prompt.StrictFormat()
	}

	content, err := s.call(ctx, "mentor", msgs, format, s.opts.Timeout)
	if err != nil && strict && llm.IsClientError(err) {
		content, err = s.call(ctx, "retry", msgs, prompt.RelaxedFormat(), s.opts.Timeout)
	}
	if err != nil {
		return fail(err)
	}

	pc := parse.Context{Mentors: mentors, Language: lang}
	resp := parse.ParseAndNormalize(content, pc)
	repaired := false
	if resp == nil {
		fixed, err := s.call(ctx, "repair", prompt.RepairMessages(content, lang, p), prompt.RelaxedFormat(), min(maxRepairTimeout, s.opts.Timeout))
		if err != nil {
			return fail(fmt.Errorf("repair after unparseable output %q: %w", preview(content), err))
		}
		resp = parse.ParseAndNormalize(fixed, pc)
		repaired = true
	}
	if resp == nil {
		return fail(fmt.Errorf("unparseable model output: %q", preview(content)))
	}

	reply, ok := parse.PickReplyForMentor(resp, p)
	if !ok {
		return fail(errors.New("no reply in model output"))
	}
	return outcome{reply: reply, safety: resp.Safety, repaired: repaired}
}

// call issues one chat completion bounded by timeout and returns the
// assistant content.
func (s *Service) call(ctx context.Context, purpose string, msgs []llm.Message, format *llm.ResponseFormat, timeout time.Duration) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	start := time.Now()
	resp, err := s.client.Chat(ctx, llm.ChatRequest{
		Model:          s.opts.Model,
		Temperature:    s.opts.Temperature,
		ResponseFormat: format,
		Messages:       msgs,
	})
	s.metrics.ObserveUpstream(purpose, statusLabel(err), time.Since(start))
	if err != nil {
		return "", fmt.Errorf("%s call: %w", purpose, err)
	}
	return resp.Content(), nil
}

// observedChatter records calls made outside Service.call, such as the
// history summarizer's.
type observedChatter struct {
	Chatter
	metrics *metrics.Metrics
	purpose string
}

func (o observedChatter) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	start := time.Now()
	resp, err := o.Chatter.Chat(ctx, req)
	o.metrics.ObserveUpstream(o.purpose, statusLabel(err), time.Since(start))
	return resp, err
}

func statusLabel(err error) string {
	if err == nil {
		return "ok"
	}
	if code := statusOf(err); code != 0 {
		return strconv.Itoa(code)
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "timeout"
	}
	return "error"
}

func preview(content string) string {
	return textutil.Truncate(textutil.CollapseWhitespace(content), previewRunes)
}
