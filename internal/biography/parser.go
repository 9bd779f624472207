// Package biography parses one profile's raw wiki-markup text into a
// structured Result: section indices, style defects, and the candidate
// source strings the validator classifies afterward.
//
// Malformed markup is the expected common case. Parse never fails; every
// malformed construct resolves to a defect on the Result and parsing
// continues, except for an empty input or an unterminated comment, which
// stop section evaluation entirely.
package biography

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/rules"
)

const (
	// maxHeadingLevel caps the recorded heading level.
	maxHeadingLevel = 3
	// misplacedReportCap limits how many pre-biography lines are
	// reported individually.
	misplacedReportCap = 5
	// misplacedTruncateLen is the reported-text truncation length.
	misplacedTruncateLen = 40
)

var (
	brPattern    = regexp.MustCompile(`(?i)<br\s*/?\s*>`)
	emailPattern = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	spacePattern = regexp.MustCompile(`\s+`)
)

// Parse turns raw biography text into a Result. It is a pure function
// of text, ctx, and the rule set, and never returns an error.
func Parse(text string, ctx Context, rs *rules.RuleSet) *Result {
	r := newResult()

	if strings.TrimSpace(text) == "" {
		r.IsEmpty = true
		r.addDefect(DefectEmptyBiography, "Biography is empty")
		return r
	}

	stripped, ok := stripComments(text)
	if !ok {
		r.addDefect(DefectUnterminatedComment, "Comment is not terminated")
		return r
	}
	stripped = brPattern.ReplaceAllString(stripped, "")

	lines := strings.Split(stripped, "\n")
	r.LineCount = len(lines)
	r.Lines = append([]string(nil), lines...)

	p := &pass{r: r, ctx: ctx, rules: rs, lines: lines,
		firstNonBlank: NotFound, firstCategory: NotFound,
		notocIndex: NotFound, firstBoxIndex: NotFound,
		instantiatedBoxes: map[string]bool{},
	}
	p.run()
	p.finish()

	return r
}

// pass holds the state of the single line pass.
type pass struct {
	r     *Result
	ctx   Context
	rules *rules.RuleSet
	lines []string

	firstNonBlank     int
	firstCategory     int
	notocIndex        int
	firstBoxIndex     int
	biographySeen     bool
	projectBoxSeen    bool
	instantiatedBoxes map[string]bool // lowercased research note box names
	misplaced         []string
}

func (p *pass) run() {
	for i := 0; i < len(p.lines); i++ {
		line := strings.TrimSpace(p.lines[i])
		lower := strings.ToLower(line)
		blank := line == "" || isSeparatorLine(line)

		if !blank && p.firstNonBlank == NotFound {
			p.firstNonBlank = i
		}

		if p.ctx.SearchTerm != "" && !p.r.SearchTermFound &&
			strings.Contains(lower, strings.ToLower(p.ctx.SearchTerm)) {
			p.r.SearchTermFound = true
		}

		if strings.Contains(line, "@") {
			p.checkEmail(line)
		}

		switch {
		case blank:
		case strings.HasPrefix(line, "{{"):
			i = p.handleTemplate(i)
		case strings.HasPrefix(line, "=="):
			p.handleHeading(i, line)
		case strings.HasPrefix(lower, "[[category:"):
			p.handleCategory(i, lower)
		case line == "__NOTOC__" || line == "__TOC__":
			if p.notocIndex == NotFound {
				p.notocIndex = i
			}
		case strings.Contains(lower, "<references"):
			if p.r.ReferencesIndex == NotFound {
				p.r.ReferencesIndex = i
			}
		default:
			if !p.biographySeen {
				p.recordMisplaced(line)
			}
		}
	}
}

// handleTemplate consumes a template starting at line i, which may span
// multiple physical lines until the closing braces, classifies it, and
// returns the index of the last consumed line.
func (p *pass) handleTemplate(i int) int {
	combined := strings.TrimSpace(p.lines[i])
	last := i
	for !strings.Contains(combined, "}}") && last+1 < len(p.lines) {
		last++
		combined += " " + strings.TrimSpace(p.lines[last])
	}

	name := templateName(combined)
	if strings.EqualFold(name, "unsourced") {
		p.r.IsMarkedUnsourced = true
		return last
	}

	switch {
	case p.rules.IsResearchNotesBox(name):
		p.markBox(i)
		p.instantiatedBoxes[strings.ToLower(name)] = true
		if p.biographySeen || p.projectBoxSeen {
			p.r.addDefectOnce(DefectMisplacedResearchNotesBox,
				fmt.Sprintf("Research note box %s should precede project boxes and the Biography heading", name))
		}
	case p.rules.IsProjectBox(name):
		p.markBox(i)
		p.projectBoxSeen = true
		if p.biographySeen {
			p.r.addDefectOnce(DefectMisplacedProjectBox,
				fmt.Sprintf("Project box %s should precede the Biography heading", name))
		}
	case p.rules.IsNavBox(name):
		p.markBox(i)
		if p.biographySeen {
			p.r.addDefectOnce(DefectMisplacedNavBox,
				fmt.Sprintf("Navigation box %s should precede the Biography heading", name))
		}
	case p.rules.IsSticker(name):
		if !p.biographySeen {
			p.r.addDefectOnce(DefectMisplacedSticker,
				fmt.Sprintf("Sticker %s should follow the Biography heading", name))
		}
	default:
		// Unrecognized template: before the Biography heading it is
		// unexpected content like any other line.
		if !p.biographySeen {
			p.recordMisplaced(combined)
		}
	}
	return last
}

func (p *pass) markBox(i int) {
	if p.firstBoxIndex == NotFound {
		p.firstBoxIndex = i
	}
}

func (p *pass) handleHeading(i int, line string) {
	level := 0
	for level < len(line) && line[level] == '=' {
		level++
	}
	rawLevel := level
	if level > maxHeadingLevel {
		level = maxHeadingLevel
	}

	text := strings.Trim(line, "= ")
	text = strings.ReplaceAll(text, "'''", "")
	text = strings.ReplaceAll(text, "''", "")
	text = strings.TrimSpace(text)

	p.r.Headings = append(p.r.Headings, Heading{Level: level, Text: text})

	switch {
	case p.rules.IsBiographyHeading(text):
		if p.r.BiographyIndex == NotFound {
			p.r.BiographyIndex = i
		} else {
			p.r.addDefectOnce(DefectMultipleBiographyHeadings, "More than one Biography heading")
		}
		p.biographySeen = true
	case p.rules.IsSourcesHeading(text):
		if p.r.SourcesIndex == NotFound {
			p.r.SourcesIndex = i
			if rawLevel > 2 {
				p.r.addDefect(DefectSourcesHeadingLevel, "Sources heading has extra =")
			}
		} else {
			p.r.addDefectOnce(DefectMultipleSourcesHeadings, "More than one Sources heading")
		}
	case p.rules.IsAcknowledgementsHeading(text):
		if p.r.AcknowledgementsIndex == NotFound {
			p.r.AcknowledgementsIndex = i
			if rawLevel > 2 {
				p.r.addDefect(DefectAcknowledgementsHeadingLevel, "Acknowledgements heading has extra =")
			}
		}
	case p.rules.IsResearchNotesHeading(text):
		if p.r.ResearchNotesIndex == NotFound {
			p.r.ResearchNotesIndex = i
		}
	default:
		if level == 2 {
			p.r.addDefect(DefectUnknownSectionHeading,
				fmt.Sprintf("Unknown section heading: %s", truncate(text, misplacedTruncateLen)))
		}
	}
}

func (p *pass) handleCategory(i int, lower string) {
	if p.firstCategory == NotFound {
		p.firstCategory = i
	}
	if strings.Contains(lower, "unsourced") {
		p.r.IsMarkedUnsourced = true
	}
}

func (p *pass) checkEmail(line string) {
	if p.r.HasDefect(DefectEmailInBiography) {
		return
	}
	collapsed := spacePattern.ReplaceAllString(line, "")
	if emailPattern.MatchString(line) || emailPattern.MatchString(collapsed) {
		p.r.addDefect(DefectEmailInBiography, "Biography contains an email address")
	}
}

func (p *pass) recordMisplaced(line string) {
	p.r.MisplacedCount++
	if len(p.misplaced) < misplacedReportCap {
		p.misplaced = append(p.misplaced, truncate(line, misplacedTruncateLen))
	}
}

// finish runs the checks that need the whole pass to have completed,
// then extracts candidate source material.
func (p *pass) finish() {
	r := p.r

	if r.BiographyIndex == NotFound {
		r.addDefect(DefectMissingBiographyHeading, "Missing Biography heading")
	}
	if r.SourcesIndex == NotFound {
		r.addDefect(DefectMissingSourcesHeading, "Missing Sources heading")
	}
	if r.ReferencesIndex == NotFound {
		r.addDefect(DefectMissingReferencesTag, "Missing <references /> tag")
	}
	if r.AcknowledgementsIndex != NotFound && r.SourcesIndex != NotFound &&
		r.AcknowledgementsIndex < r.SourcesIndex {
		r.addDefect(DefectAcknowledgementsBeforeSources, "Acknowledgements section precedes Sources")
	}

	p.reportMisplaced()
	p.checkCategoryPlacement()
	p.checkMissingResearchNotesBoxes()
	p.extractInlineRefs()
	p.checkSpans()
	p.blankSections()
	p.collectSourceLines()
	p.deriveSourceLineCount()
}

func (p *pass) reportMisplaced() {
	if p.r.MisplacedCount == 0 {
		return
	}
	p.r.Defects = append(p.r.Defects, DefectContentBeforeBiography)
	for _, line := range p.misplaced {
		p.r.Messages = append(p.r.Messages, "Unexpected content before Biography heading: "+line)
	}
	if p.r.MisplacedCount > misplacedReportCap {
		p.r.Messages = append(p.r.Messages,
			fmt.Sprintf("%d more lines of unexpected content follow", p.r.MisplacedCount-misplacedReportCap))
	}
}

func (p *pass) checkCategoryPlacement() {
	if p.firstCategory == NotFound {
		return
	}
	r := p.r

	atStart := p.firstCategory == p.firstNonBlank
	if !atStart && p.notocIndex == p.firstNonBlank {
		// A TOC marker may come first; the category must immediately
		// follow it.
		atStart = p.firstCategory > p.notocIndex && p.nextNonBlank(p.notocIndex) == p.firstCategory
	}

	beforeBoxes := p.firstBoxIndex == NotFound || p.firstCategory < p.firstBoxIndex
	beforeBiography := r.BiographyIndex == NotFound || p.firstCategory < r.BiographyIndex

	if !atStart || !beforeBoxes || !beforeBiography {
		r.addDefect(DefectCategoryNotAtStart, "Category link should be the first line of the biography")
	}
}

func (p *pass) nextNonBlank(after int) int {
	for i := after + 1; i < len(p.lines); i++ {
		line := strings.TrimSpace(p.lines[i])
		if line != "" && !isSeparatorLine(line) {
			return i
		}
	}
	return NotFound
}

// checkMissingResearchNotesBoxes flags heading text that names a known
// research note box which was never instantiated as a template.
func (p *pass) checkMissingResearchNotesBoxes() {
	for _, h := range p.r.Headings {
		if p.rules.IsResearchNotesBox(h.Text) && !p.instantiatedBoxes[strings.ToLower(h.Text)] {
			p.r.addDefectOnce(DefectMissingResearchNotesBox,
				fmt.Sprintf("Heading %s names a research note box that is not present", h.Text))
		}
	}
}

// extractInlineRefs pulls <ref> contents from the span between the
// Biography heading (or start of text) and the first following section.
func (p *pass) extractInlineRefs() {
	r := p.r

	start := r.BiographyIndex
	if start == NotFound {
		start = 0
	}
	end := len(p.lines)
	for _, idx := range []int{r.ResearchNotesIndex, r.SourcesIndex, r.ReferencesIndex, r.AcknowledgementsIndex} {
		if idx != NotFound && idx > start && idx < end {
			end = idx
		}
	}

	body := strings.Join(p.lines[start:end], "\n")
	for {
		open := strings.Index(body, "<ref")
		if open < 0 {
			break
		}
		tagEnd := strings.Index(body[open:], ">")
		if tagEnd < 0 {
			r.addDefectOnce(DefectUnterminatedRef, "Inline <ref> is not terminated")
			return
		}
		tag := body[open : open+tagEnd+1]
		named := strings.Contains(tag, "name")
		body = body[open+tagEnd+1:]

		if strings.HasSuffix(tag, "/>") {
			// Self-closing named ref: a back-reference, no new content.
			r.InlineRefCount++
			continue
		}

		closing := strings.Index(body, "</ref>")
		if closing < 0 {
			r.addDefectOnce(DefectUnterminatedRef, "Inline <ref> is not terminated")
			return
		}
		content := strings.TrimSpace(body[:closing])
		body = body[closing+len("</ref>"):]
		r.InlineRefCount++
		if content == "" {
			continue
		}
		if named {
			r.NamedRefs = append(r.NamedRefs, content)
		} else {
			r.InlineRefs = append(r.InlineRefs, content)
		}
	}
}

// checkSpans flags span anchors that are never closed. The validity of
// span targets as sources is established later by the validator.
func (p *pass) checkSpans() {
	text := strings.Join(p.lines, "\n")
	for {
		open := strings.Index(text, "<span")
		if open < 0 {
			return
		}
		text = text[open+len("<span"):]
		closing := strings.Index(text, "</span>")
		if closing < 0 {
			p.r.addDefectOnce(DefectUnterminatedSpan, "Span is not terminated")
			return
		}
		text = text[closing+len("</span>"):]
	}
}

// blankSections clears the research-notes and acknowledgements spans
// from the working buffer so their content is never treated as source
// material.
func (p *pass) blankSections() {
	for _, start := range []int{p.r.ResearchNotesIndex, p.r.AcknowledgementsIndex} {
		if start == NotFound {
			continue
		}
		end := len(p.r.Lines)
		for i := start + 1; i < len(p.r.Lines); i++ {
			if strings.HasPrefix(strings.TrimSpace(p.r.Lines[i]), "==") {
				end = i
				break
			}
		}
		for i := start; i < end; i++ {
			p.r.Lines[i] = ""
		}
	}
}

func (p *pass) collectSourceLines() {
	r := p.r
	start := r.SourcesIndex
	if start == NotFound {
		start = r.ReferencesIndex
	}
	if start == NotFound {
		return
	}
	for i := start + 1; i < len(r.Lines); i++ {
		line := strings.TrimSpace(r.Lines[i])
		if line == "" || isSeparatorLine(line) {
			continue
		}
		lower := strings.ToLower(line)
		if strings.Contains(lower, "<references") || strings.HasPrefix(line, "==") {
			continue
		}
		r.SourceLines = append(r.SourceLines, line)
	}
}

// deriveSourceLineCount reproduces the source's line-count arithmetic,
// including its lack of clamping: the value may go negative and is
// clamped only at the reporting boundary.
func (p *pass) deriveSourceLineCount() {
	r := p.r
	end := r.ReferencesIndex
	if end == NotFound {
		end = len(r.Lines)
	}
	start := r.SourcesIndex
	if start == NotFound {
		start = r.ReferencesIndex
	}
	if start == NotFound {
		r.PossibleSourceLineCount = -r.MisplacedCount
		return
	}
	count := end - start - 1
	if r.AcknowledgementsIndex != NotFound && r.AcknowledgementsIndex > start && r.AcknowledgementsIndex < end {
		count -= end - r.AcknowledgementsIndex
	}
	count -= r.MisplacedCount
	r.PossibleSourceLineCount = count
}

// stripComments removes <!-- ... --> spans. It reports false when a
// comment is never terminated.
func stripComments(text string) (string, bool) {
	var sb strings.Builder
	for {
		open := strings.Index(text, "<!--")
		if open < 0 {
			sb.WriteString(text)
			return sb.String(), true
		}
		sb.WriteString(text[:open])
		rest := text[open+len("<!--"):]
		closing := strings.Index(rest, "-->")
		if closing < 0 {
			return "", false
		}
		text = rest[closing+len("-->"):]
	}
}

// isSeparatorLine reports whether the line consists only of separator
// dashes; such lines count as blank for section boundaries.
func isSeparatorLine(line string) bool {
	for _, r := range line {
		if r != '-' {
			return false
		}
	}
	return len(line) > 0
}

func templateName(combined string) string {
	inner := strings.TrimPrefix(combined, "{{")
	if i := strings.IndexAny(inner, "|}"); i >= 0 {
		inner = inner[:i]
	}
	return strings.TrimSpace(inner)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}
