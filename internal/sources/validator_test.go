package sources

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/biography"
	"github.com/ke4tch/wikitree-biocheck-sub000/internal/rules"
)

func newTestRules(t *testing.T) *rules.RuleSet {
	t.Helper()
	rs, err := rules.New()
	require.NoError(t, err)
	return rs
}

func parseAndValidate(t *testing.T, text string, ctx biography.Context) Judgment {
	t.Helper()
	rs := newTestRules(t)
	res := biography.Parse(text, ctx, rs)
	return Validate(res, ctx, rs)
}

func TestValidate_SourcedBiography(t *testing.T) {
	text := strings.Join([]string{
		"== Biography ==",
		"John was born in 1850.",
		"",
		"== Sources ==",
		"<references />",
		"* 1850 US Census, page 5",
	}, "\n")

	j := parseAndValidate(t, text, biography.Context{})

	assert.True(t, j.HasSources)
	assert.False(t, j.PossiblyUnsourced())
	assert.Len(t, j.ValidSources, 1)
	assert.Empty(t, j.InvalidSources)
	assert.False(t, j.HasStyleIssues())
}

func TestValidate_MarkedUnsourcedSkipsClassification(t *testing.T) {
	text := "[[Category:Unsourced]]\nJohn was born about 1850."

	j := parseAndValidate(t, text, biography.Context{})

	assert.True(t, j.IsMarkedUnsourced)
	assert.False(t, j.HasSources)
	assert.False(t, j.PossiblyUnsourced())
	assert.Empty(t, j.ValidSources)
	assert.Empty(t, j.InvalidSources)
}

func TestValidate_EmptySkipsClassification(t *testing.T) {
	j := parseAndValidate(t, "", biography.Context{})

	assert.True(t, j.IsEmpty)
	assert.False(t, j.HasSources)
	assert.False(t, j.PossiblyUnsourced())
}

func TestValidate_UndatedSkipsClassification(t *testing.T) {
	text := "== Biography ==\nSomebody.\n== Sources ==\n<references />\n* family knowledge"

	j := parseAndValidate(t, text, biography.Context{IsUndated: true})

	assert.True(t, j.IsUndated)
	assert.False(t, j.PossiblyUnsourced())
	assert.Empty(t, j.InvalidSources)
}

func TestValidate_PossiblyUnsourced(t *testing.T) {
	text := strings.Join([]string{
		"== Biography ==",
		"John was born in 1850.",
		"== Sources ==",
		"<references />",
		"* personal recollection",
	}, "\n")

	j := parseAndValidate(t, text, biography.Context{})

	assert.False(t, j.HasSources)
	assert.True(t, j.PossiblyUnsourced())
	assert.Empty(t, j.ValidSources)
	assert.Len(t, j.InvalidSources, 1)
}

func TestValidate_GloballyValidPhrase(t *testing.T) {
	text := strings.Join([]string{
		"== Biography ==",
		"Sources hidden to protect the privacy of living people.",
		"== Sources ==",
		"<references />",
	}, "\n")

	j := parseAndValidate(t, text, biography.Context{})

	// The phrase short-circuits classification entirely.
	assert.True(t, j.HasSources)
	assert.Empty(t, j.ValidSources)
	assert.Empty(t, j.InvalidSources)
}

func TestValidate_AllPassesRunToCompletion(t *testing.T) {
	text := strings.Join([]string{
		"== Biography ==",
		"Born in 1850.<ref>1850 census of Boone County</ref>",
		`Died in 1910.<ref name="fam">Entered by a cousin from memory</ref>`,
		"== Sources ==",
		"<references />",
		"* 1850 US Census, page 5",
		"* personal recollection",
	}, "\n")

	j := parseAndValidate(t, text, biography.Context{})

	// Every candidate from every pass gets a verdict even after
	// validity is already established.
	assert.True(t, j.HasSources)
	assert.Len(t, j.ValidSources, 2)
	assert.Len(t, j.InvalidSources, 2)
}

func TestValidate_ContextGatesInlineRefs(t *testing.T) {
	text := strings.Join([]string{
		"== Biography ==",
		"Born long ago.<ref>Millennium File</ref>",
		"== Sources ==",
		"<references />",
	}, "\n")

	j := parseAndValidate(t, text, biography.Context{})
	assert.True(t, j.HasSources)

	j = parseAndValidate(t, text, biography.Context{IsPre1700: true})
	assert.False(t, j.HasSources)
	assert.True(t, j.PossiblyUnsourced())
}

func TestValidate_SpanTargets(t *testing.T) {
	rs := newTestRules(t)

	res := &biography.Result{
		SourceLines: []string{
			`<span id="S1">Unsourced family tree handed down through cousins</span>`,
			`<span id="S2">Parish register of St Mary, Nottingham, 1712</span>`,
		},
		InlineRefs: []string{
			"[[#S1]]",
			"[[#S2]]",
		},
	}

	j := Validate(res, biography.Context{}, rs)

	// The anchors are classified by content; the back-references
	// resolve by target lookup, so the reference to the invalid anchor
	// is itself invalid.
	assert.True(t, j.HasSources)
	assert.Len(t, j.ValidSources, 2)
	assert.Len(t, j.InvalidSources, 2)
}

func TestJudgment_SourceLineCountClamped(t *testing.T) {
	rs := newTestRules(t)

	res := &biography.Result{PossibleSourceLineCount: -3}
	j := Validate(res, biography.Context{}, rs)
	assert.Equal(t, 0, j.SourceLineCount())

	res = &biography.Result{PossibleSourceLineCount: 4}
	j = Validate(res, biography.Context{}, rs)
	assert.Equal(t, 4, j.SourceLineCount())
}
