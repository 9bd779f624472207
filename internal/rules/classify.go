package rules

import (
	"strings"
	"unicode"
)

// minSourceLength is the minimum normalized length for a line to be a
// plausible citation.
const minSourceLength = 15

// Classification is the outcome of classifying one candidate source
// line, with a human-readable reason for invalid lines.
type Classification struct {
	Valid  bool
	Reason string
}

// ClassifySourceLine classifies one candidate source line. The
// elimination order is part of the contract: standalone phrases, the
// FindAGrave allowance, partial and start-of-line phrases, census-only,
// tree-without-id, repository boilerplate, then GEDCOM artifacts.
// Reordering these checks changes outcomes for lines matching more
// than one heuristic.
func (rs *RuleSet) ClassifySourceLine(line string, ctx Context) Classification {
	normalized := normalizeSourceLine(line)
	if len([]rune(normalized)) < minSourceLength {
		return Classification{Reason: "too short to be a source"}
	}

	lower := strings.ToLower(normalized)

	if rs.isInvalidStandalone(lower, ctx) {
		return Classification{Reason: "phrase is not a source"}
	}

	// Find A Grave memorials carry a "created by" credit line that would
	// otherwise trip the generic created-by partial phrase.
	findAGrave := strings.Contains(lower, "find a grave") || strings.Contains(lower, "findagrave")

	for _, phrase := range rs.invalidPartial {
		if findAGrave && phrase == "created by" {
			continue
		}
		if strings.Contains(lower, phrase) {
			return Classification{Reason: "contains phrase that is not a source: " + phrase}
		}
	}

	for _, phrase := range rs.invalidStart {
		if strings.HasPrefix(lower, phrase) {
			return Classification{Reason: "starts with phrase that is not a source: " + phrase}
		}
	}

	if rs.isCensusOnly(lower) {
		return Classification{Reason: "census alone is not a source"}
	}

	if rs.isTreeWithoutID(lower) {
		return Classification{Reason: "family tree without an id is not a source"}
	}

	if rs.isRepositoryBoilerplate(lower) {
		return Classification{Reason: "repository information is not a source"}
	}

	if rs.isGedcomArtifact(lower) {
		return Classification{Reason: "GEDCOM artifact is not a source"}
	}

	return Classification{Valid: true}
}

// normalizeSourceLine strips a leading '*', a leading "source:" prefix,
// and a trailing period before length and phrase checks.
func normalizeSourceLine(line string) string {
	s := strings.TrimSpace(line)
	for strings.HasPrefix(s, "*") {
		s = strings.TrimSpace(strings.TrimPrefix(s, "*"))
	}
	lower := strings.ToLower(s)
	for _, prefix := range []string{"source:", "sources:"} {
		if strings.HasPrefix(lower, prefix) {
			s = strings.TrimSpace(s[len(prefix):])
			break
		}
	}
	s = strings.TrimSuffix(s, ".")
	return strings.TrimSpace(s)
}

func (rs *RuleSet) isInvalidStandalone(lower string, ctx Context) bool {
	if rs.invalidStandalone[lower] {
		return true
	}
	if ctx.TooOldToRemember && rs.invalidStandaloneTooOld[lower] {
		return true
	}
	if ctx.IsPre1700 && rs.invalidStandalonePre1700[lower] {
		return true
	}
	if ctx.IsPre1500 && rs.invalidStandalonePre1500[lower] {
		return true
	}
	return false
}

// isCensusOnly reports whether the line reduces to nothing but a
// recognized census term once digits and stopwords are stripped.
func (rs *RuleSet) isCensusOnly(lower string) bool {
	sawCensus := false
	for _, word := range splitWords(lower) {
		switch {
		case rs.censusTerms[word]:
			sawCensus = true
		case rs.censusStopwords[word]:
		default:
			return false
		}
	}
	return sawCensus
}

// isTreeWithoutID reports whether the line cites a member family tree
// without the numeric id (at least five digits) that would make it
// traceable.
func (rs *RuleSet) isTreeWithoutID(lower string) bool {
	matched := false
	for _, term := range rs.treeTerms {
		if strings.Contains(lower, term) {
			matched = true
			break
		}
	}
	if !matched {
		return false
	}
	digits := 0
	for _, r := range lower {
		if unicode.IsDigit(r) {
			digits++
			if digits >= 5 {
				return false
			}
		} else {
			digits = 0
		}
	}
	return true
}

// isRepositoryBoilerplate reports whether the line reduces to nothing
// after stripping the fixed list of address and repository tokens.
func (rs *RuleSet) isRepositoryBoilerplate(lower string) bool {
	remainder := lower
	matched := false
	for _, token := range rs.repositoryTokens {
		if strings.Contains(remainder, token) {
			remainder = strings.ReplaceAll(remainder, token, " ")
			matched = true
		}
	}
	return matched && onlyNoise(remainder)
}

// isGedcomArtifact reports whether the line reduces to nothing after
// stripping known GEDCOM markup fragments.
func (rs *RuleSet) isGedcomArtifact(lower string) bool {
	remainder := lower
	matched := false
	for _, token := range rs.gedcomTokens {
		if strings.Contains(remainder, token) {
			remainder = strings.ReplaceAll(remainder, token, " ")
			matched = true
		}
	}
	return matched && onlyNoise(remainder)
}

// onlyNoise reports whether s contains nothing but digits, punctuation
// and whitespace.
func onlyNoise(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// splitWords splits on anything that is not a letter and drops
// digit-only fragments.
func splitWords(s string) []string {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return !unicode.IsLetter(r) && r != '.'
	})
	words := make([]string, 0, len(fields))
	for _, f := range fields {
		f = strings.Trim(f, ".")
		if f != "" {
			words = append(words, f)
		}
	}
	return words
}
