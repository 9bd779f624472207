// Package sources classifies a parsed biography's candidate source
// strings and produces the final Judgment: sourced, marked unsourced,
// or possibly unsourced.
package sources

import (
	"regexp"
	"strings"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/biography"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/rules"
)

// Judgment is the validator's verdict for one biography. It is a pure
// function of the parse result, the context flags, and the rule set.
type Judgment struct {
	HasSources        bool
	IsMarkedUnsourced bool
	IsEmpty           bool
	IsUndated         bool
	ValidSources      []string
	InvalidSources    []string
	StyleDefects      []biography.Defect

	sourceLineCount int
}

// HasStyleIssues reports whether any style defect was recorded.
func (j Judgment) HasStyleIssues() bool {
	return len(j.StyleDefects) > 0
}

// PossiblyUnsourced reports whether the biography carries neither an
// explicit unsourced marker nor any valid source.
func (j Judgment) PossiblyUnsourced() bool {
	return !j.IsMarkedUnsourced && !j.HasSources && !j.IsEmpty && !j.IsUndated
}

// SourceLineCount is the candidate-source line count, clamped here at
// the reporting boundary; the underlying derivation may go negative.
func (j Judgment) SourceLineCount() int {
	if j.sourceLineCount < 0 {
		return 0
	}
	return j.sourceLineCount
}

var (
	spanPattern    = regexp.MustCompile(`(?i)<span\s+id\s*=\s*['"]?([^'">\s]+)['"]?\s*>(.*?)</span>`)
	spanRefPattern = regexp.MustCompile(`^\[\[#([^\]]+)\]\]$`)
)

// Validate classifies every candidate source line of a parsed biography
// and returns the Judgment. Validation is skipped entirely for empty,
// marked-unsourced, and undated biographies: absent sources are not a
// defect there.
func Validate(res *biography.Result, ctx biography.Context, rs *rules.RuleSet) Judgment {
	j := Judgment{
		IsMarkedUnsourced: res.IsMarkedUnsourced,
		IsEmpty:           res.IsEmpty,
		IsUndated:         ctx.IsUndated,
		StyleDefects:      append([]biography.Defect(nil), res.Defects...),
		sourceLineCount:   res.PossibleSourceLineCount,
	}

	if res.IsEmpty || res.IsMarkedUnsourced || ctx.IsUndated {
		return j
	}

	// A globally valid phrase anywhere makes the profile sourced,
	// regardless of every per-line verdict.
	if rs.HasGloballyValidPhrase(strings.Join(res.Lines, "\n")) {
		j.HasSources = true
		return j
	}

	rctx := rules.Context{
		TooOldToRemember: ctx.TooOldToRemember,
		IsPre1700:        ctx.IsPre1700,
		IsPre1500:        ctx.IsPre1500,
	}

	// All three passes run to completion even once validity is
	// established, so every candidate line is classified for reporting.
	invalidSpanTargets := map[string]bool{}
	for _, pass := range [][]string{res.SourceLines, res.InlineRefs, res.NamedRefs} {
		if validateLines(pass, rctx, rs, &j, invalidSpanTargets) {
			j.HasSources = true
		}
	}
	return j
}

// validateLines classifies one pass worth of candidate lines and
// reports whether the pass yielded at least one valid line.
func validateLines(lines []string, rctx rules.Context, rs *rules.RuleSet, j *Judgment, invalidSpanTargets map[string]bool) bool {
	anyValid := false
	for _, line := range lines {
		valid, display := classifyLine(line, rctx, rs, invalidSpanTargets)
		if valid {
			anyValid = true
			j.ValidSources = append(j.ValidSources, display)
		} else {
			j.InvalidSources = append(j.InvalidSources, display)
		}
	}
	return anyValid
}

// classifyLine resolves one candidate line to a verdict. Span anchors
// are classified by their inner content, and the anchor id is recorded
// when that content is invalid; span references are then resolved by
// target lookup instead of by textual content.
func classifyLine(line string, rctx rules.Context, rs *rules.RuleSet, invalidSpanTargets map[string]bool) (bool, string) {
	if m := spanPattern.FindStringSubmatch(line); m != nil {
		id, content := m[1], strings.TrimSpace(m[2])
		cl := rs.ClassifySourceLine(content, rctx)
		if !cl.Valid {
			invalidSpanTargets[id] = true
			return false, content
		}
		return true, content
	}

	if m := spanRefPattern.FindStringSubmatch(strings.TrimSpace(line)); m != nil {
		return !invalidSpanTargets[m[1]], line
	}

	cl := rs.ClassifySourceLine(line, rctx)
	return cl.Valid, line
}
