package history

import (
	"context"
	"log/slog"
	"time"

	"github.com/kalambet/mentortable/internal/llm"
	"github.com/kalambet/mentortable/internal/textutil"
)

const (
	headKeep           = 4
	minTailBudget      = 1200
	tailBudgetRatio    = 0.68
	minTailItems       = 6
	protectedRounds    = 2
	maxSummaryInput    = 120000
	summaryTemperature = 0.2
)

// Defaults applied to zero-valued Options fields.
const (
	DefaultMaxItems        = 24
	DefaultMaxChars        = 12000
	DefaultTokenThreshold  = 6000
	DefaultCompressTimeout = 15 * time.Second
)

// Chatter is the chat-completion capability the LLM summarizer needs.
type Chatter interface {
	Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error)
}

// Options bounds compaction.
type Options struct {
	MaxItems        int
	MaxChars        int
	TokenThreshold  int
	CompressTimeout time.Duration
	Model           string
}

func (o Options) withDefaults() Options {
	if o.MaxItems <= 0 {
		o.MaxItems = DefaultMaxItems
	}
	if o.MaxChars <= 0 {
		o.MaxChars = DefaultMaxChars
	}
	if o.TokenThreshold <= 0 {
		o.TokenThreshold = DefaultTokenThreshold
	}
	if o.CompressTimeout <= 0 {
		o.CompressTimeout = DefaultCompressTimeout
	}
	return o
}

// Compacted is a bounded view of a conversation.
type Compacted struct {
	Entries            []Entry
	Summary            string
	OmittedCount       int
	UsedLLMCompression bool
	EstimatedTokens    int
}

// Mode names the path that produced c: "none", "deterministic" or "llm".
func (c Compacted) Mode() string {
	switch {
	case c.UsedLLMCompression:
		return "llm"
	case c.OmittedCount > 0:
		return "deterministic"
	}
	return "none"
}

// Compactor reduces conversation history to a bounded window. A nil
// client disables LLM summarization; the deterministic summary is used
// instead.
type Compactor struct {
	client Chatter
	opts   Options
}

// NewCompactor creates a Compactor.
func NewCompactor(client Chatter, opts Options) *Compactor {
	return &Compactor{client: client, opts: opts.withDefaults()}
}

// Compact bounds entries. Short conversations are trimmed deterministically.
// Conversations whose estimated token count reaches the threshold keep their
// first and last two rounds verbatim and have the rounds between them
// summarized by the model, falling back to the deterministic summary on any
// failure.
func (c *Compactor) Compact(ctx context.Context, entries []Entry, lang textutil.Language) Compacted {
	tokens := textutil.EstimateTokenCount(Format(entries))
	if tokens < c.opts.TokenThreshold {
		return c.deterministic(entries, lang)
	}

	rounds := GroupRounds(entries)
	if len(rounds) <= 2*protectedRounds {
		out := c.deterministic(entries, lang)
		out.EstimatedTokens = tokens
		return out
	}

	var kept, middle []Entry
	for _, r := range rounds[:protectedRounds] {
		kept = append(kept, r...)
	}
	for _, r := range rounds[protectedRounds : len(rounds)-protectedRounds] {
		middle = append(middle, r...)
	}
	for _, r := range rounds[len(rounds)-protectedRounds:] {
		kept = append(kept, r...)
	}

	out := Compacted{Entries: kept, OmittedCount: len(middle)}
	if c.client != nil {
		summary, err := c.summarize(ctx, middle, lang)
		if err != nil {
			slog.Debug("history: llm summary failed, using deterministic summary", "omitted", len(middle), "error", err)
		} else if summary != "" {
			out.Summary = summary
			out.UsedLLMCompression = true
		}
	}
	if out.Summary == "" {
		out.Summary = summarizeDropped(middle, lang)
	}
	out.EstimatedTokens = textutil.EstimateTokenCount(out.Summary + "\n" + Format(out.Entries))
	return out
}

// deterministic keeps the earliest entries plus the most recent ones that
// fit the tail budget, never exceeding MaxItems or MaxChars except that at
// least the newest entry survives.
func (c *Compactor) deterministic(entries []Entry, lang textutil.Language) Compacted {
	if len(entries) <= c.opts.MaxItems && Weight(entries) <= c.opts.MaxChars {
		return Compacted{
			Entries:         entries,
			EstimatedTokens: textutil.EstimateTokenCount(Format(entries)),
		}
	}

	head := min(headKeep, len(entries))
	tailBudget := max(minTailBudget, int(tailBudgetRatio*float64(c.opts.MaxChars)))
	tailCap := max(minTailItems, c.opts.MaxItems-head)

	tailStart := len(entries)
	used := 0
	for i := len(entries) - 1; i >= head; i-- {
		w := entryWeight(entries[i])
		if len(entries)-i > tailCap {
			break
		}
		if used+w > tailBudget && tailStart < len(entries) {
			break
		}
		used += w
		tailStart = i
	}

	keptIdx := make([]int, 0, head+len(entries)-tailStart)
	for i := 0; i < head; i++ {
		keptIdx = append(keptIdx, i)
	}
	for i := tailStart; i < len(entries); i++ {
		keptIdx = append(keptIdx, i)
	}
	if len(keptIdx) > c.opts.MaxItems {
		keptIdx = keptIdx[len(keptIdx)-c.opts.MaxItems:]
	}
	for len(keptIdx) > 1 && weightOf(entries, keptIdx) > c.opts.MaxChars {
		keptIdx = keptIdx[1:]
	}

	keep := make(map[int]bool, len(keptIdx))
	kept := make([]Entry, 0, len(keptIdx))
	for _, i := range keptIdx {
		keep[i] = true
		kept = append(kept, entries[i])
	}
	var dropped []Entry
	for i, e := range entries {
		if !keep[i] {
			dropped = append(dropped, e)
		}
	}

	out := Compacted{Entries: kept, OmittedCount: len(dropped)}
	if len(dropped) > 0 {
		out.Summary = summarizeDropped(dropped, lang)
	}
	out.EstimatedTokens = textutil.EstimateTokenCount(out.Summary + "\n" + Format(kept))
	return out
}

func weightOf(entries []Entry, idx []int) int {
	n := 0
	for _, i := range idx {
		n += entryWeight(entries[i])
	}
	return n
}
