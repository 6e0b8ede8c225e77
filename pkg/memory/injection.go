package memory

import (
	"fmt"
	"strings"
)

// Injection is the structured memory snapshot prepended to a completion
// prompt. Keeping it structured (rather than a flat string) lets the
// execution guard shed the oldest facts first when the combined prompt
// would overflow the context window, without ever touching the user
// prompt.
type Injection struct {
	Summary       string
	Facts         []Fact
	CharsPerToken int
}

// Empty reports whether there is nothing to inject.
func (inj Injection) Empty() bool {
	return inj.Summary == "" && len(inj.Facts) == 0
}

// Render serializes the injection under the fixed template: summary
// block first, then the fact block, then a blank separator line before
// the user prompt.
func (inj Injection) Render() string {
	if inj.Empty() {
		return ""
	}

	var sb strings.Builder
	if inj.Summary != "" {
		fmt.Fprintf(&sb, "[Summary: %s]\n", inj.Summary)
	}
	if len(inj.Facts) > 0 {
		sb.WriteString("[Facts:")
		for _, f := range inj.Facts {
			fmt.Fprintf(&sb, " %s=%s;", f.Key, f.Value)
		}
		sb.WriteString("]\n")
	}
	sb.WriteString("\n")
	return sb.String()
}

// TokenEstimate conservatively estimates the rendered size in tokens
// using the configured characters-per-token ratio, rounding up.
func (inj Injection) TokenEstimate() int {
	return EstimateTokens(inj.Render(), inj.CharsPerToken)
}

// DropOldest returns a copy with the oldest remaining fact removed, or,
// once no facts remain, with the summary cleared. The second return is
// false when there was nothing left to drop.
func (inj Injection) DropOldest() (Injection, bool) {
	if len(inj.Facts) > 0 {
		out := inj
		out.Facts = inj.Facts[1:]
		return out, true
	}
	if inj.Summary != "" {
		out := inj
		out.Summary = ""
		return out, true
	}
	return inj, false
}

// EstimateTokens estimates the token count of text by the conservative
// characters-per-token ratio, rounding up.
func EstimateTokens(text string, charsPerToken int) int {
	if charsPerToken <= 0 {
		charsPerToken = 4
	}
	return (len(text) + charsPerToken - 1) / charsPerToken
}
