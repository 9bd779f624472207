// Package rules holds the process-wide rule tables that drive biography
// parsing and source classification: multilingual section-heading
// synonyms, the invalid/valid source phrase lists, and the externally
// loaded template catalog.
//
// Construction is explicitly two-phase: New builds everything derivable
// from the embedded static data, and LoadTemplates merges the external
// catalog before first use. A catalog load failure is not fatal; the
// catalog-derived checks simply answer "not found". After loading, a
// RuleSet is read-only and safe for unsynchronized concurrent reads.
package rules

import (
	_ "embed"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"
)

//go:embed data.yaml
var builtinData []byte

// ruleData mirrors the embedded YAML document.
type ruleData struct {
	Headings struct {
		Biography        []string `yaml:"biography"`
		Sources          []string `yaml:"sources"`
		Acknowledgements []string `yaml:"acknowledgements"`
		ResearchNotes    []string `yaml:"research_notes"`
	} `yaml:"headings"`
	InvalidStandalone       []string `yaml:"invalid_standalone"`
	InvalidStandaloneTooOld []string `yaml:"invalid_standalone_too_old"`
	InvalidStandalonePre1700 []string `yaml:"invalid_standalone_pre1700"`
	InvalidStandalonePre1500 []string `yaml:"invalid_standalone_pre1500"`
	InvalidPartial          []string `yaml:"invalid_partial"`
	InvalidStart            []string `yaml:"invalid_start"`
	ValidPartial            []string `yaml:"valid_partial"`
	CensusTerms             []string `yaml:"census_terms"`
	CensusStopwords         []string `yaml:"census_stopwords"`
	TreeTerms               []string `yaml:"tree_terms"`
	RepositoryTokens        []string `yaml:"repository_tokens"`
	GedcomTokens            []string `yaml:"gedcom_tokens"`
}

// Context selects which of the age-gated invalid-phrase lists apply to
// a classification.
type Context struct {
	TooOldToRemember bool
	IsPre1700        bool
	IsPre1500        bool
}

// RuleSet is the immutable rule table shared by all concurrent parses.
type RuleSet struct {
	biographyHeadings        map[string]bool
	sourcesHeadings          map[string]bool
	acknowledgementsHeadings map[string]bool
	researchNotesHeadings    map[string]bool

	invalidStandalone        map[string]bool
	invalidStandaloneTooOld  map[string]bool
	invalidStandalonePre1700 map[string]bool
	invalidStandalonePre1500 map[string]bool
	invalidPartial           []string
	invalidStart             []string
	validPartial             []string
	censusTerms              map[string]bool
	censusStopwords          map[string]bool
	treeTerms                []string
	repositoryTokens         []string
	gedcomTokens             []string

	catalog *templateCatalog // nil until LoadTemplates succeeds
}

// New builds a RuleSet from the embedded static data. The template
// catalog is empty until LoadTemplates is called.
func New() (*RuleSet, error) {
	var data ruleData
	if err := yaml.Unmarshal(builtinData, &data); err != nil {
		return nil, fmt.Errorf("failed to parse built-in rule data: %w", err)
	}

	rs := &RuleSet{
		biographyHeadings:        toSet(data.Headings.Biography),
		sourcesHeadings:          toSet(data.Headings.Sources),
		acknowledgementsHeadings: toSet(data.Headings.Acknowledgements),
		researchNotesHeadings:    toSet(data.Headings.ResearchNotes),
		invalidStandalone:        toSet(data.InvalidStandalone),
		invalidStandaloneTooOld:  toSet(data.InvalidStandaloneTooOld),
		invalidStandalonePre1700: toSet(data.InvalidStandalonePre1700),
		invalidStandalonePre1500: toSet(data.InvalidStandalonePre1500),
		invalidPartial:           toLower(data.InvalidPartial),
		invalidStart:             toLower(data.InvalidStart),
		validPartial:             toLower(data.ValidPartial),
		censusTerms:              toSet(data.CensusTerms),
		censusStopwords:          toSet(data.CensusStopwords),
		treeTerms:                toLower(data.TreeTerms),
		repositoryTokens:         toLower(data.RepositoryTokens),
		gedcomTokens:             toLower(data.GedcomTokens),
	}
	return rs, nil
}

// IsBiographyHeading reports whether text names the biography section
// in any supported language.
func (rs *RuleSet) IsBiographyHeading(text string) bool {
	return rs.biographyHeadings[normalizeHeading(text)]
}

// IsSourcesHeading reports whether text names the sources section.
func (rs *RuleSet) IsSourcesHeading(text string) bool {
	return rs.sourcesHeadings[normalizeHeading(text)]
}

// IsAcknowledgementsHeading reports whether text names the
// acknowledgements section.
func (rs *RuleSet) IsAcknowledgementsHeading(text string) bool {
	return rs.acknowledgementsHeadings[normalizeHeading(text)]
}

// IsResearchNotesHeading reports whether text names the research-notes
// section.
func (rs *RuleSet) IsResearchNotesHeading(text string) bool {
	return rs.researchNotesHeadings[normalizeHeading(text)]
}

// HasGloballyValidPhrase reports whether text contains a phrase that
// makes the whole biography count as sourced.
func (rs *RuleSet) HasGloballyValidPhrase(text string) bool {
	lower := strings.ToLower(text)
	for _, phrase := range rs.validPartial {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func normalizeHeading(text string) string {
	return strings.ToLower(strings.TrimSpace(text))
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, item := range items {
		set[strings.ToLower(strings.TrimSpace(item))] = true
	}
	return set
}

func toLower(items []string) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = strings.ToLower(strings.TrimSpace(item))
	}
	return out
}
