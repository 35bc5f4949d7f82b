package search

import (
	"regexp"
	"strings"
	"unicode"
)

var codeFence = regexp.MustCompile("^```(\\w*)$")

// SplitSentences splits an answer into the units spoken by the narrator.
//
// A sentence ends after a run of '.', '!', '?' or newline characters that is
// followed by whitespace or the end of the text, or that contains a newline.
// Delimiters stay attached to their sentence. Fragments are trimmed and empty
// ones dropped, so no non-whitespace character of text is lost or reordered.
func SplitSentences(text string) []string {
	var (
		out      []string
		b        strings.Builder
		inRun    bool
		runHasNL bool
	)
	flush := func() {
		if s := strings.TrimSpace(b.String()); s != "" {
			out = append(out, s)
		}
		b.Reset()
	}

	for _, r := range text {
		if isDelimiter(r) {
			if !inRun {
				inRun, runHasNL = true, false
			}
			if r == '\n' {
				runHasNL = true
			}
			b.WriteRune(r)
			continue
		}
		if inRun && (runHasNL || unicode.IsSpace(r)) {
			flush()
		}
		inRun = false
		b.WriteRune(r)
	}
	flush()
	return out
}

func isDelimiter(r rune) bool {
	return r == '.' || r == '!' || r == '?' || r == '\n'
}

// IsCodeFence reports whether s is a bare markdown code fence marker, with
// or without a language tag. Such fragments are skipped during narration.
func IsCodeFence(s string) bool {
	return codeFence.MatchString(strings.TrimSpace(s))
}
