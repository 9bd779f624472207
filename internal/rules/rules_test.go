package rules

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRules(t *testing.T) *RuleSet {
	t.Helper()
	rs, err := New()
	require.NoError(t, err)
	return rs
}

func TestNew_LoadsEmbeddedData(t *testing.T) {
	rs := newTestRules(t)
	assert.NotEmpty(t, rs.biographyHeadings)
	assert.NotEmpty(t, rs.sourcesHeadings)
	assert.NotEmpty(t, rs.invalidStandalone)
	assert.NotEmpty(t, rs.invalidPartial)
}

func TestIsBiographyHeading_Synonyms(t *testing.T) {
	rs := newTestRules(t)

	assert.True(t, rs.IsBiographyHeading("Biography"))
	assert.True(t, rs.IsBiographyHeading("biographie"))
	assert.True(t, rs.IsBiographyHeading("  Biografia  "))
	assert.False(t, rs.IsBiographyHeading("Life Story"))
}

func TestIsSourcesHeading_Synonyms(t *testing.T) {
	rs := newTestRules(t)

	assert.True(t, rs.IsSourcesHeading("Sources"))
	assert.True(t, rs.IsSourcesHeading("source"))
	assert.True(t, rs.IsSourcesHeading("Bronnen"))
	assert.True(t, rs.IsSourcesHeading("Quellen"))
	assert.False(t, rs.IsSourcesHeading("Citations"))
}

func TestIsAcknowledgementsHeading_BothSpellings(t *testing.T) {
	rs := newTestRules(t)

	assert.True(t, rs.IsAcknowledgementsHeading("Acknowledgements"))
	assert.True(t, rs.IsAcknowledgementsHeading("Acknowledgments"))
	assert.False(t, rs.IsAcknowledgementsHeading("Thanks"))
}

func TestIsResearchNotesHeading(t *testing.T) {
	rs := newTestRules(t)

	assert.True(t, rs.IsResearchNotesHeading("Research Notes"))
	assert.True(t, rs.IsResearchNotesHeading("research note"))
	assert.False(t, rs.IsResearchNotesHeading("Notes"))
}

func TestHasGloballyValidPhrase(t *testing.T) {
	rs := newTestRules(t)

	assert.True(t, rs.HasGloballyValidPhrase("Sources hidden to protect the privacy of living family members."))
	assert.True(t, rs.HasGloballyValidPhrase("see the changes tab for sources"))
	assert.False(t, rs.HasGloballyValidPhrase("No sources at all here"))
}
