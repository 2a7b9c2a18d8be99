package table

import (
	"regexp"
	"strings"

	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/textutil"
)

const maxHedgeStrips = 3

var genericHedges = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^if\s+i\s+(?:were|was)\s+[^,，]{1,80}[,，]\s*`),
	regexp.MustCompile(`(?i)^in\s+an?\s+[^,，]{1,80}?-like\s+way[,，]\s*`),
	regexp.MustCompile(`^如果我是[^，,]{1,30}[，,]\s*`),
}

func nameHedges(p mentor.Profile) []*regexp.Regexp {
	var names []string
	for _, n := range []string{p.DisplayName, p.ShortLabel, p.ID, strings.ReplaceAll(p.ID, "_", " ")} {
		if n = strings.TrimSpace(n); n != "" {
			names = append(names, regexp.QuoteMeta(n))
		}
	}
	if len(names) == 0 {
		return nil
	}
	alt := strings.Join(names, "|")
	return []*regexp.Regexp{
		regexp.MustCompile(`(?i)^as\s+(?:` + alt + `)[,，]\s*`),
		regexp.MustCompile(`(?i)^作为(?:` + alt + `)[,，]\s*`),
	}
}

// Sanitize strips leading hedges such as "If I were X," "As X," or "In an
// X-like way," so the reply reads in p's own first-person voice, then
// collapses whitespace. Text that would become empty is returned collapsed
// but otherwise unchanged.
func Sanitize(text string, p mentor.Profile) string {
	original := textutil.CollapseWhitespace(text)
	out := original
	patterns := append(nameHedges(p), genericHedges...)
	for range maxHedgeStrips {
		before := out
		for _, re := range patterns {
			out = strings.TrimSpace(re.ReplaceAllString(out, ""))
		}
		if out == before {
			break
		}
	}
	if out == "" {
		return original
	}
	return out
}
