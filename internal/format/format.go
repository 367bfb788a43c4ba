// Package format cleans raw answers before they reach the user: boilerplate
// apology openers are stripped, stale source lines removed, and a single
// provenance tag appended. Formatting is idempotent.
package format

import (
	"fmt"
	"regexp"
	"strings"
)

// FallbackMessage is the terminal answer when every resolution tier failed.
const FallbackMessage = "Sorry, I do not have information for that question right now."

var errorIntroPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(it seems|it looks like|there seems to be)[^.\n]*?(issue|problem|error|difficulty|glitch)[^.\n]*\.\s*`),
	regexp.MustCompile(`(?i)^(sorry|i'm sorry|i am sorry|i apologize|unfortunately)[^.\n]*\.\s*`),
	regexp.MustCompile(`(?i)^(however, )?if you (would like|want)[^.\n]*?(to continue|to expand|more detail|a conclusion)[^.\n]*[.?]\s*`),
}

var (
	sourceLinePattern = regexp.MustCompile(`(?i)^\s*(\(source:.*\)|source\s*:\s*.*)$`)
	blankRunPattern   = regexp.MustCompile(`\n{3,}`)
)

// Format strips boilerplate preambles from raw, collapses excess blank lines
// and appends one provenance tag. The semantic body is never altered.
func Format(raw, source string) string {
	if source == "" {
		source = "ai"
	}
	body := strings.TrimSpace(raw)
	body = stripSourceLines(body)
	body = stripErrorIntros(body)
	body = strings.TrimSpace(blankRunPattern.ReplaceAllString(body, "\n\n"))

	if body == "" {
		body = FallbackMessage
	}
	return fmt.Sprintf("%s\n\n(source: %s)", body, source)
}

func stripSourceLines(text string) string {
	lines := strings.Split(text, "\n")
	kept := lines[:0]
	for _, line := range lines {
		if sourceLinePattern.MatchString(strings.TrimSpace(line)) {
			continue
		}
		kept = append(kept, line)
	}
	return strings.Join(kept, "\n")
}

func stripErrorIntros(text string) string {
	for {
		trimmed := text
		for _, pattern := range errorIntroPatterns {
			trimmed = pattern.ReplaceAllString(trimmed, "")
		}
		trimmed = strings.TrimSpace(trimmed)
		if trimmed == text {
			return text
		}
		// A stripped opener can expose another one behind it.
		text = trimmed
	}
}
