package history

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/kalambet/mentortable/internal/llm"
	"github.com/kalambet/mentortable/internal/parse"
	"github.com/kalambet/mentortable/internal/textutil"
)

const (
	maxUserExcerpts  = 3
	userExcerptRunes = 140
	maxSpeakers      = 8
)

// summarizeDropped describes omitted entries without calling a model: how
// many were dropped, the latest user concerns among them and the mentors
// who spoke.
func summarizeDropped(dropped []Entry, lang textutil.Language) string {
	if len(dropped) == 0 {
		return ""
	}

	var excerpts []string
	for i := len(dropped) - 1; i >= 0 && len(excerpts) < maxUserExcerpts; i-- {
		if dropped[i].Role == RoleUser {
			excerpts = append(excerpts, textutil.Truncate(dropped[i].Text, userExcerptRunes))
		}
	}
	for i, j := 0, len(excerpts)-1; i < j; i, j = i+1, j-1 {
		excerpts[i], excerpts[j] = excerpts[j], excerpts[i]
	}

	seen := make(map[string]bool)
	var speakers []string
	for _, e := range dropped {
		if e.Role != RoleMentor || e.Speaker == "" || seen[e.Speaker] {
			continue
		}
		if len(speakers) == maxSpeakers {
			break
		}
		seen[e.Speaker] = true
		speakers = append(speakers, e.Speaker)
	}

	var b strings.Builder
	if lang == textutil.Chinese {
		fmt.Fprintf(&b, "已省略较早的 %d 条对话。", len(dropped))
		if len(excerpts) > 0 {
			b.WriteString("用户此前提到：「" + strings.Join(excerpts, "」；「") + "」。")
		}
		if len(speakers) > 0 {
			b.WriteString("参与回复的导师：" + strings.Join(speakers, "、") + "。")
		}
		return b.String()
	}
	fmt.Fprintf(&b, "%d earlier messages omitted.", len(dropped))
	if len(excerpts) > 0 {
		b.WriteString(` Earlier user concerns: "` + strings.Join(excerpts, `"; "`) + `".`)
	}
	if len(speakers) > 0 {
		b.WriteString(" Mentors who replied: " + strings.Join(speakers, ", ") + ".")
	}
	return b.String()
}

const summarySystemPrompt = `You compress the middle of a mentoring conversation so it can be carried into later prompts.
Keep the user's concerns, facts they shared, advice already given and by whom, and any commitments or open questions.
Do not invent details. Respond with JSON only: {"summary": "<concise summary>"}.`

func summaryUserPrompt(middle []Entry, lang textutil.Language) string {
	return fmt.Sprintf("Write the summary in %s.\n\nConversation excerpt:\n%s",
		languageName(lang), textutil.Truncate(Format(middle), maxSummaryInput))
}

func languageName(lang textutil.Language) string {
	if lang == textutil.Chinese {
		return "Simplified Chinese"
	}
	return "English"
}

// summarize asks the model for a summary of middle, bounded by the
// compress timeout.
func (c *Compactor) summarize(ctx context.Context, middle []Entry, lang textutil.Language) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, c.opts.CompressTimeout)
	defer cancel()

	resp, err := c.client.Chat(ctx, llm.ChatRequest{
		Model:          c.opts.Model,
		Temperature:    summaryTemperature,
		ResponseFormat: &llm.ResponseFormat{Type: llm.FormatJSONObject},
		Messages: []llm.Message{
			{Role: "system", Content: summarySystemPrompt},
			{Role: "user", Content: summaryUserPrompt(middle, lang)},
		},
	})
	if err != nil {
		return "", fmt.Errorf("summary call: %w", err)
	}

	obj, ok := parse.TryParseJSON(resp.Content())
	if !ok {
		return "", errors.New("summary response is not JSON")
	}
	summary, _ := obj["summary"].(string)
	summary = textutil.CollapseWhitespace(summary)
	if summary == "" {
		return "", errors.New("summary response has no summary")
	}
	return summary, nil
}
