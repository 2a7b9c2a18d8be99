package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/kalambet/mentortable/internal/mentor"
	"github.com/kalambet/mentortable/internal/table"
)

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorBold   = "\033[1m"
	colorDim    = "\033[2m"
)

func colorize(color, text string) string {
	if noColor {
		return text
	}
	return color + text + colorReset
}

func printSuccess(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorGreen, "✓ "+msg))
}

func printError(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorRed, "✗ "+msg))
}

func printWarning(format string, args ...any) {
	msg := fmt.Sprintf(format, args...)
	fmt.Fprintln(os.Stderr, colorize(colorYellow, "⚠ "+msg))
}

func printStatus(label string, format string, args ...any) {
	val := fmt.Sprintf(format, args...)
	l := colorize(colorBold, label+":")
	fmt.Fprintf(os.Stderr, "  %s %s\n", l, val)
}

// renderResponse prints a mentor table response for a terminal.
func renderResponse(w io.Writer, resp mentor.Response) {
	if resp.Safety.RiskLevel == mentor.RiskHigh {
		fmt.Fprintln(w, colorize(colorRed+colorBold, "! "+resp.Safety.EmergencyMessage))
		fmt.Fprintln(w)
	} else if resp.Safety.NeedsProfessionalHelp {
		fmt.Fprintln(w, colorize(colorYellow, "Consider talking to a qualified professional about this."))
		fmt.Fprintln(w)
	}

	for i, r := range resp.MentorReplies {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w, colorize(colorBold+colorCyan, r.MentorName))
		fmt.Fprintln(w, indent(r.LikelyResponse))
		fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, "Why:"), r.WhyThisFits)
		fmt.Fprintf(w, "  %s %s\n", colorize(colorBold, "Next step:"), r.OneActionStep)
		fmt.Fprintln(w, "  "+colorize(colorDim, r.ConfidenceNote))
	}

	fmt.Fprintln(w)
	fmt.Fprintln(w, colorize(colorDim, resp.Meta.Disclaimer))

	switch resp.Meta.Provider {
	case table.ProviderServerFallback:
		fmt.Fprintln(w, colorize(colorYellow, "The model could not be reached; these are placeholder replies."))
	case table.ProviderPartialFallback:
		fmt.Fprintln(w, colorize(colorYellow, "Some mentors could not be generated; their replies are placeholders."))
	}
}

func indent(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	for i, l := range lines {
		lines[i] = "  " + l
	}
	return strings.Join(lines, "\n")
}
