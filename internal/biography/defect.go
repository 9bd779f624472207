package biography

// Defect identifies one style or structure problem found in a
// biography. Defects are results, not errors: the parser records them
// and keeps going wherever it can.
type Defect int

const (
	// DefectEmptyBiography means the input was empty or whitespace.
	DefectEmptyBiography Defect = iota
	// DefectUnterminatedComment means a <!-- was never closed. This is
	// fatal to parsing: no sections are evaluated past it.
	DefectUnterminatedComment
	// DefectUnterminatedRef means a <ref> was never closed; inline
	// reference extraction stops at that point.
	DefectUnterminatedRef
	// DefectUnterminatedSpan means a <span id=...> was never closed.
	DefectUnterminatedSpan
	// DefectMissingBiographyHeading means no Biography heading was found.
	DefectMissingBiographyHeading
	// DefectMultipleBiographyHeadings means the Biography heading
	// appeared more than once.
	DefectMultipleBiographyHeadings
	// DefectMissingSourcesHeading means no Sources heading was found.
	DefectMissingSourcesHeading
	// DefectMultipleSourcesHeadings means the Sources heading appeared
	// more than once.
	DefectMultipleSourcesHeadings
	// DefectSourcesHeadingLevel means the Sources heading carries more
	// than two leading equal signs.
	DefectSourcesHeadingLevel
	// DefectMissingReferencesTag means no <references /> tag was found.
	DefectMissingReferencesTag
	// DefectAcknowledgementsBeforeSources means the Acknowledgements
	// section precedes the Sources section.
	DefectAcknowledgementsBeforeSources
	// DefectAcknowledgementsHeadingLevel means the Acknowledgements
	// heading carries more than two leading equal signs.
	DefectAcknowledgementsHeadingLevel
	// DefectUnknownSectionHeading means a level-2 heading matched none
	// of the known section names.
	DefectUnknownSectionHeading
	// DefectMisplacedResearchNotesBox means a research note box appears
	// after a project box or after the Biography heading.
	DefectMisplacedResearchNotesBox
	// DefectMisplacedProjectBox means a project box appears after the
	// Biography heading.
	DefectMisplacedProjectBox
	// DefectMisplacedNavBox means a navigation box appears after the
	// Biography heading.
	DefectMisplacedNavBox
	// DefectMisplacedSticker means a sticker appears before the
	// Biography heading.
	DefectMisplacedSticker
	// DefectMissingResearchNotesBox means a heading names a known
	// research note box that was never instantiated as a template.
	DefectMissingResearchNotesBox
	// DefectContentBeforeBiography means non-blank content other than
	// category links, recognized boxes, and TOC markers precedes the
	// Biography heading.
	DefectContentBeforeBiography
	// DefectCategoryNotAtStart means the first category link is not at
	// the very start of the biography.
	DefectCategoryNotAtStart
	// DefectEmailInBiography means a line contains what looks like an
	// email address.
	DefectEmailInBiography
)

var defectNames = map[Defect]string{
	DefectEmptyBiography:                "empty biography",
	DefectUnterminatedComment:           "unterminated comment",
	DefectUnterminatedRef:               "unterminated inline reference",
	DefectUnterminatedSpan:              "unterminated span",
	DefectMissingBiographyHeading:       "missing Biography heading",
	DefectMultipleBiographyHeadings:     "multiple Biography headings",
	DefectMissingSourcesHeading:         "missing Sources heading",
	DefectMultipleSourcesHeadings:       "multiple Sources headings",
	DefectSourcesHeadingLevel:           "Sources heading has extra =",
	DefectMissingReferencesTag:          "missing references tag",
	DefectAcknowledgementsBeforeSources: "Acknowledgements before Sources",
	DefectAcknowledgementsHeadingLevel:  "Acknowledgements heading has extra =",
	DefectUnknownSectionHeading:         "unknown section heading",
	DefectMisplacedResearchNotesBox:     "misplaced research note box",
	DefectMisplacedProjectBox:           "misplaced project box",
	DefectMisplacedNavBox:               "misplaced navigation box",
	DefectMisplacedSticker:              "misplaced sticker",
	DefectMissingResearchNotesBox:       "missing research note box",
	DefectContentBeforeBiography:        "unexpected content before Biography heading",
	DefectCategoryNotAtStart:            "category not at start",
	DefectEmailInBiography:              "email address in biography",
}

func (d Defect) String() string {
	if name, ok := defectNames[d]; ok {
		return name
	}
	return "unknown defect"
}
