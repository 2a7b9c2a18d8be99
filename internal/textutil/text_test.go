package textutil

import "testing"

func TestEstimateTokenCount(t *testing.T) {
	tests := []struct {
		text string
		want int
	}{
		{"", 0},
		{"abcd", 1},
		{"abcde", 2},
		{"我很焦虑", 4},
		{"我很焦虑 ok", 5},
	}
	for _, tt := range tests {
		if got := EstimateTokenCount(tt.text); got != tt.want {
			t.Errorf("EstimateTokenCount(%q) = %d, want %d", tt.text, got, tt.want)
		}
	}
}

func TestCollapseWhitespace(t *testing.T) {
	got := CollapseWhitespace("  hello \n\n  world\t ")
	if got != "hello world" {
		t.Errorf("CollapseWhitespace = %q, want %q", got, "hello world")
	}
}

func TestTruncate(t *testing.T) {
	if got := Truncate("我最近很焦虑", 3); got != "我最近" {
		t.Errorf("Truncate = %q, want %q", got, "我最近")
	}
	if got := Truncate("short", 10); got != "short" {
		t.Errorf("Truncate = %q, want %q", got, "short")
	}
	if got := Truncate("abc", 0); got != "" {
		t.Errorf("Truncate = %q, want empty", got)
	}
}

func TestNormalizeKey(t *testing.T) {
	for in, want := range map[string]string{
		"Bill Gates":   "bill_gates",
		"bill_gates":   "bill_gates",
		"  Steve-Jobs": "steve_jobs",
		"Oprah  ":      "oprah",
		"":             "",
	} {
		if got := NormalizeKey(in); got != want {
			t.Errorf("NormalizeKey(%q) = %q, want %q", in, got, want)
		}
	}
}
