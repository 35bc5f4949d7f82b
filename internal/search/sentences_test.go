package search

import (
	"slices"
	"strings"
	"testing"
	"unicode"
)

func TestSplitSentences(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		text string
		want []string
	}{
		{name: "empty", text: "", want: nil},
		{name: "whitespace only", text: "  \n\t ", want: nil},
		{name: "no delimiter", text: "  a quasar  ", want: []string{"a quasar"}},
		{name: "two sentences", text: "Gravity pulls. Mass bends space!", want: []string{"Gravity pulls.", "Mass bends space!"}},
		{name: "question", text: "Why? Because.", want: []string{"Why?", "Because."}},
		{name: "delimiter run", text: "Really?! Yes...", want: []string{"Really?!", "Yes..."}},
		{name: "decimal stays", text: "Pi is 3.14 roughly. Done.", want: []string{"Pi is 3.14 roughly.", "Done."}},
		{name: "newline splits", text: "line one\nline two", want: []string{"line one", "line two"}},
		{name: "blank lines dropped", text: "a.\n\n\nb.", want: []string{"a.", "b."}},
		{
			name: "code fence kept separate",
			text: "Example:\n```go\nx := 1\n```\nDone.",
			want: []string{"Example:", "```go", "x := 1", "```", "Done."},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got := SplitSentences(tt.text)
			if !slices.Equal(got, tt.want) {
				t.Errorf("SplitSentences(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestSplitSentences_KeepsEveryCharacter(t *testing.T) {
	t.Parallel()

	texts := []string{
		"Gravity pulls. Mass bends space! Does light bend? Yes.",
		"Plain text without any delimiter",
		"Mixed\n\n  spacing .  here !! and?there\n",
		"Numbers 1.5 and 2.75. End",
		"```python\nprint('hi')\n```\nThat prints hi.",
	}
	strip := func(s string) string {
		return strings.Map(func(r rune) rune {
			if unicode.IsSpace(r) {
				return -1
			}
			return r
		}, s)
	}

	for _, text := range texts {
		got := SplitSentences(text)
		if joined := strip(strings.Join(got, "")); joined != strip(text) {
			t.Errorf("SplitSentences(%q) lost characters: %q != %q", text, joined, strip(text))
		}
		for i, s := range got {
			if s == "" || s != strings.TrimSpace(s) {
				t.Errorf("SplitSentences(%q)[%d] = %q, want trimmed non-empty", text, i, s)
			}
		}
	}
}

func TestIsCodeFence(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want bool
	}{
		{"```", true},
		{"```go", true},
		{"```python3", true},
		{"``` go", false},
		{"```go x", false},
		{"x ```", false},
		{"``", false},
	}
	for _, tt := range tests {
		if got := IsCodeFence(tt.in); got != tt.want {
			t.Errorf("IsCodeFence(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}
