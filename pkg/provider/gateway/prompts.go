package gateway

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
)

// MaxSuggestions caps the number of suggestions any backend returns.
const MaxSuggestions = 4

// SystemInstruction is sent with every text and image query.
const SystemInstruction = "You are an expert in science and mathematics. When a user asks for a formula or a concept involving one, provide the formula in LaTeX format. Use $$...$$ for block-level display formulas and $...$ for inline formulas. After presenting the formula, provide a brief and clear explanation of the concept."

// ImageStyleSuffix is appended by backends to every image prompt.
const ImageStyleSuffix = ". Style: elegant, celestial, onyx black, gold accents, cosmic, sophisticated, dark fantasy art style, cinematic lighting, detailed textures, refined aesthetic."

// StyledImagePrompt appends [ImageStyleSuffix] to prompt.
func StyledImagePrompt(prompt string) string {
	return prompt + ImageStyleSuffix
}

// SuggestionPrompt builds the instruction that asks a model for suggestions
// completing partial.
func SuggestionPrompt(partial string) string {
	return fmt.Sprintf(`Search engine: "Celestial Onyx" (elegant, dark, gold accents). User query: "%s". Provide 3-4 concise, relevant search suggestions as a JSON array of strings. Example: ["suggestion 1", "suggestion 2"]. Suggestions:`, partial)
}

var jsonFence = regexp.MustCompile("(?s)^```(\\w*)?\\s*\\n?(.*?)\\n?\\s*```$")

// ParseSuggestions normalises a model's suggestion answer. Two shapes are
// accepted, optionally wrapped in a markdown code fence: a bare JSON array of
// strings, or an object holding that array under "suggestions". The result
// is capped at [MaxSuggestions]. ok is false for any other shape, in which
// case the slice is empty.
func ParseSuggestions(raw string) (suggestions []string, ok bool) {
	s := strings.TrimSpace(raw)
	if m := jsonFence.FindStringSubmatch(s); m != nil && m[2] != "" {
		s = strings.TrimSpace(m[2])
	}

	var list []string
	if err := json.Unmarshal([]byte(s), &list); err != nil {
		var wrapped struct {
			Suggestions *[]string `json:"suggestions"`
		}
		if err := json.Unmarshal([]byte(s), &wrapped); err != nil || wrapped.Suggestions == nil {
			return []string{}, false
		}
		list = *wrapped.Suggestions
	}
	if list == nil {
		return []string{}, false
	}
	if len(list) > MaxSuggestions {
		list = list[:MaxSuggestions]
	}
	return list, true
}
