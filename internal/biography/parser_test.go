package biography

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/rules"
)

func newTestRules(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs, err := rules.New()
	require.NoError(t, err)
	return rs
}

func newTestRulesWithCatalog(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs := newTestRules(t)
	require.NoError(t, rs.LoadTemplates([]byte(`{
		"templates": [
			{"name": "Disputed Origins", "type": "research note box", "status": "approved"},
			{"name": "Palatine Migration", "type": "project box"},
			{"name": "Mayflower Passengers", "type": "navigation box"},
			{"name": "DNA Tested", "type": "sticker"}
		]
	}`)))
	return rs
}

func TestParse_EmptyInput(t *testing.T) {
	rs := newTestRules(t)

	for _, input := range []string{"", "   ", "\n\t\n"} {
		r := Parse(input, Context{}, rs)
		assert.True(t, r.IsEmpty, "input %q", input)
		assert.True(t, r.HasDefect(DefectEmptyBiography), "input %q", input)
		assert.Equal(t, []string{"Biography is empty"}, r.Messages, "input %q", input)
	}
}

func TestParse_WellFormedBiography(t *testing.T) {
	rs := newTestRules(t)

	text := strings.Join([]string{
		"== Biography ==",
		"John was born in 1850.",
		"",
		"== Sources ==",
		"<references />",
		"* 1850 US Census, page 5",
	}, "\n")

	r := Parse(text, Context{}, rs)

	assert.Empty(t, r.Defects)
	assert.Equal(t, 0, r.BiographyIndex)
	assert.Equal(t, 3, r.SourcesIndex)
	assert.Equal(t, 4, r.ReferencesIndex)
	assert.Equal(t, []string{"* 1850 US Census, page 5"}, r.SourceLines)
	assert.False(t, r.IsMarkedUnsourced)
	assert.Equal(t, 6, r.LineCount)
}

func TestParse_UnsourcedCategory(t *testing.T) {
	rs := newTestRules(t)

	text := "[[Category:Unsourced]]\nJohn was born about 1850."
	r := Parse(text, Context{}, rs)

	assert.True(t, r.IsMarkedUnsourced)
	assert.True(t, r.HasDefect(DefectMissingBiographyHeading))
	assert.True(t, r.HasDefect(DefectMissingSourcesHeading))
	assert.True(t, r.HasDefect(DefectMissingReferencesTag))
}

func TestParse_UnsourcedTemplate(t *testing.T) {
	rs := newTestRules(t)

	text := strings.Join([]string{
		"{{Unsourced}}",
		"== Biography ==",
		"John was born about 1850.",
		"== Sources ==",
		"<references />",
	}, "\n")

	r := Parse(text, Context{}, rs)
	assert.True(t, r.IsMarkedUnsourced)
	// The template is recognized markup, not misplaced content.
	assert.Zero(t, r.MisplacedCount)
}

func TestParse_UnterminatedComment(t *testing.T) {
	rs := newTestRules(t)

	r := Parse("== Biography ==\nBorn <!-- check this", Context{}, rs)

	assert.True(t, r.HasDefect(DefectUnterminatedComment))
	// Parsing stops: nothing past the comment defect is evaluated.
	assert.Equal(t, 0, r.LineCount)
	assert.Equal(t, NotFound, r.BiographyIndex)
}

func TestParse_CommentsStripped(t *testing.T) {
	rs := newTestRules(t)

	text := strings.Join([]string{
		"== Biography ==",
		"Born <!-- verify\nthe year --> in 1850.",
		"== Sources ==",
		"<references />",
	}, "\n")

	r := Parse(text, Context{}, rs)
	assert.False(t, r.HasDefect(DefectUnterminatedComment))
	assert.Contains(t, r.Lines[1], "in 1850.")
	assert.NotContains(t, strings.Join(r.Lines, "\n"), "verify")
}

func TestParse_MultipleSectionHeadings(t *testing.T) {
	rs := newTestRules(t)

	text := strings.Join([]string{
		"== Biography ==",
		"First.",
		"== Biography ==",
		"Second.",
		"== Sources ==",
		"== Sources ==",
		"<references />",
	}, "\n")

	r := Parse(text, Context{}, rs)

	assert.True(t, r.HasDefect(DefectMultipleBiographyHeadings))
	assert.True(t, r.HasDefect(DefectMultipleSourcesHeadings))
	// The first occurrence of each heading keeps its index.
	assert.Equal(t, 0, r.BiographyIndex)
	assert.Equal(t, 4, r.SourcesIndex)
}

func TestParse_SourcesHeadingLevel(t *testing.T) {
	rs := newTestRules(t)

	text := "== Biography ==\nText.\n=== Sources ===\n<references />"
	r := Parse(text, Context{}, rs)

	assert.True(t, r.HasDefect(DefectSourcesHeadingLevel))
	assert.Equal(t, 2, r.SourcesIndex)
}

func TestParse_UnknownSectionHeading(t *testing.T) {
	rs := newTestRules(t)

	text := strings.Join([]string{
		"== Biography ==",
		"Text.",
		"== Early Life ==",
		"More text.",
		"== Sources ==",
		"<references />",
	}, "\n")

	r := Parse(text, Context{}, rs)
	assert.True(t, r.HasDefect(DefectUnknownSectionHeading))

	// Level-3 subheadings are free-form and never flagged.
	text = "== Biography ==\n=== Early Life ===\nText.\n== Sources ==\n<references />"
	r = Parse(text, Context{}, rs)
	assert.False(t, r.HasDefect(DefectUnknownSectionHeading))
}

func TestParse_AcknowledgementsBeforeSources(t *testing.T) {
	rs := newTestRules(t)

	text := strings.Join([]string{
		"== Biography ==",
		"Text.",
		"== Acknowledgements ==",
		"Thanks to the cousins.",
		"== Sources ==",
		"<references />",
	}, "\n")

	r := Parse(text, Context{}, rs)

	assert.True(t, r.HasDefect(DefectAcknowledgementsBeforeSources))
	// The acknowledgements span is blanked so its content never counts
	// as source material.
	assert.Equal(t, "", r.Lines[3])
	assert.Empty(t, r.SourceLines)
}

func TestParse_InlineRefExtraction(t *testing.T) {
	rs := newTestRules(t)

	text := strings.Join([]string{
		"== Biography ==",
		`Born in 1850.<ref>1850 census of Boone County</ref>`,
		`Died in 1910.<ref name="obit">Obituary, Daily Times, 1910</ref>`,
		`Buried in Oakwood.<ref name="obit" />`,
		"== Sources ==",
		"<references />",
	}, "\n")

	r := Parse(text, Context{}, rs)

	assert.Equal(t, []string{"1850 census of Boone County"}, r.InlineRefs)
	assert.Equal(t, []string{"Obituary, Daily Times, 1910"}, r.NamedRefs)
	// The self-closing back-reference is counted but contributes no
	// content.
	assert.Equal(t, 3, r.InlineRefCount)
}

func TestParse_UnterminatedRef(t *testing.T) {
	rs := newTestRules(t)

	text := strings.Join([]string{
		"== Biography ==",
		"Born in 1850.<ref>1850 census",
		"== Sources ==",
		"<references />",
	}, "\n")

	r := Parse(text, Context{}, rs)
	assert.True(t, r.HasDefect(DefectUnterminatedRef))
	assert.Empty(t, r.InlineRefs)
}

func TestParse_UnterminatedSpan(t *testing.T) {
	rs := newTestRules(t)

	text := strings.Join([]string{
		"== Biography ==",
		"Text.",
		"== Sources ==",
		"<references />",
		`<span id="S1">1850 census of Boone County`,
	}, "\n")

	r := Parse(text, Context{}, rs)
	assert.True(t, r.HasDefect(DefectUnterminatedSpan))
}

func TestParse_ContentBeforeBiography(t *testing.T) {
	rs := newTestRules(t)

	var lines []string
	for i := 0; i < 7; i++ {
		lines = append(lines, "Stray line of imported text number "+strings.Repeat("x", i+1))
	}
	lines = append(lines, "== Biography ==", "Text.", "== Sources ==", "<references />")

	r := Parse(strings.Join(lines, "\n"), Context{}, rs)

	assert.True(t, r.HasDefect(DefectContentBeforeBiography))
	assert.Equal(t, 7, r.MisplacedCount)

	var reported, overflow int
	for _, msg := range r.Messages {
		if strings.HasPrefix(msg, "Unexpected content before Biography heading: ") {
			reported++
		}
		if strings.Contains(msg, "more lines of unexpected content follow") {
			overflow++
		}
	}
	assert.Equal(t, 5, reported)
	assert.Equal(t, 1, overflow)
}

func TestParse_CategoryPlacement(t *testing.T) {
	rs := newTestRules(t)

	// Category first: fine.
	text := "[[Category:Boone County]]\n== Biography ==\nText.\n== Sources ==\n<references />"
	r := Parse(text, Context{}, rs)
	assert.False(t, r.HasDefect(DefectCategoryNotAtStart))
	assert.False(t, r.IsMarkedUnsourced)

	// A TOC marker may precede the category.
	text = "__NOTOC__\n[[Category:Boone County]]\n== Biography ==\nText.\n== Sources ==\n<references />"
	r = Parse(text, Context{}, rs)
	assert.False(t, r.HasDefect(DefectCategoryNotAtStart))

	// A category after the Biography heading is misplaced.
	text = "== Biography ==\n[[Category:Boone County]]\nText.\n== Sources ==\n<references />"
	r = Parse(text, Context{}, rs)
	assert.True(t, r.HasDefect(DefectCategoryNotAtStart))
}

func TestParse_ResearchNotesBlanked(t *testing.T) {
	rs := newTestRules(t)

	text := strings.Join([]string{
		"== Biography ==",
		"Text.",
		"== Research Notes ==",
		"Unverified guess about the parents.",
		"== Sources ==",
		"<references />",
		"* Parish register of St Mary, Nottingham, 1712",
	}, "\n")

	r := Parse(text, Context{}, rs)

	assert.Equal(t, 2, r.ResearchNotesIndex)
	assert.Equal(t, "", r.Lines[3])
	assert.Equal(t, []string{"* Parish register of St Mary, Nottingham, 1712"}, r.SourceLines)
}

func TestParse_BoxPlacement(t *testing.T) {
	rs := newTestRulesWithCatalog(t)

	text := "== Biography ==\n{{Disputed Origins}}\nText.\n== Sources ==\n<references />"
	r := Parse(text, Context{}, rs)
	assert.True(t, r.HasDefect(DefectMisplacedResearchNotesBox))

	text = "{{Palatine Migration}}\n{{Disputed Origins}}\n== Biography ==\nText.\n== Sources ==\n<references />"
	r = Parse(text, Context{}, rs)
	assert.True(t, r.HasDefect(DefectMisplacedResearchNotesBox))

	text = "== Biography ==\n{{Palatine Migration}}\nText.\n== Sources ==\n<references />"
	r = Parse(text, Context{}, rs)
	assert.True(t, r.HasDefect(DefectMisplacedProjectBox))

	text = "{{DNA Tested}}\n== Biography ==\nText.\n== Sources ==\n<references />"
	r = Parse(text, Context{}, rs)
	assert.True(t, r.HasDefect(DefectMisplacedSticker))

	// The canonical order produces no placement defects.
	text = strings.Join([]string{
		"{{Disputed Origins}}",
		"{{Palatine Migration}}",
		"== Biography ==",
		"{{DNA Tested}}",
		"Text.",
		"== Sources ==",
		"<references />",
	}, "\n")
	r = Parse(text, Context{}, rs)
	assert.False(t, r.HasDefect(DefectMisplacedResearchNotesBox))
	assert.False(t, r.HasDefect(DefectMisplacedProjectBox))
	assert.False(t, r.HasDefect(DefectMisplacedSticker))
}

func TestParse_MissingResearchNotesBox(t *testing.T) {
	rs := newTestRulesWithCatalog(t)

	// A heading names a known research note box that was never
	// instantiated as a template.
	text := "== Biography ==\nText.\n== Disputed Origins ==\nClaims.\n== Sources ==\n<references />"
	r := Parse(text, Context{}, rs)
	assert.True(t, r.HasDefect(DefectMissingResearchNotesBox))

	text = "{{Disputed Origins}}\n== Biography ==\nText.\n== Disputed Origins ==\nClaims.\n== Sources ==\n<references />"
	r = Parse(text, Context{}, rs)
	assert.False(t, r.HasDefect(DefectMissingResearchNotesBox))
}

func TestParse_EmailDetected(t *testing.T) {
	rs := newTestRules(t)

	text := "== Biography ==\nContact me at john.smith@example.com for details.\n== Sources ==\n<references />"
	r := Parse(text, Context{}, rs)
	assert.True(t, r.HasDefect(DefectEmailInBiography))
}

func TestParse_SearchTerm(t *testing.T) {
	rs := newTestRules(t)

	text := "== Biography ==\nBorn in Boone County.\n== Sources ==\n<references />"

	r := Parse(text, Context{SearchTerm: "boone"}, rs)
	assert.True(t, r.SearchTermFound)

	r = Parse(text, Context{SearchTerm: "nottingham"}, rs)
	assert.False(t, r.SearchTermFound)
}

func TestParse_SourceLineCountMayGoNegative(t *testing.T) {
	rs := newTestRules(t)

	// No sources section and two misplaced lines: the derived count
	// goes negative and is left that way; clamping happens at the
	// reporting boundary.
	r := Parse("Stray imported line one here\nStray imported line two here", Context{}, rs)
	assert.Equal(t, -2, r.PossibleSourceLineCount)
}

func TestParse_Idempotent(t *testing.T) {
	rs := newTestRules(t)

	text := strings.Join([]string{
		"[[Category:Boone County]]",
		"== Biography ==",
		"Born in 1850.<ref>1850 census of Boone County</ref>",
		"== Sources ==",
		"<references />",
		"* 1850 US Census, page 5",
	}, "\n")

	first := Parse(text, Context{}, rs)
	second := Parse(text, Context{}, rs)
	assert.Equal(t, first, second)
}
