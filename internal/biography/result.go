package biography

// NotFound is the sentinel index for a section that never appeared.
const NotFound = -1

// Context carries the per-profile flags that change how a biography is
// parsed and how its candidate sources are later classified.
type Context struct {
	IsPre1700        bool
	IsPre1500        bool
	TooOldToRemember bool
	IsUndated        bool
	SearchTerm       string // optional free-text term to look for
}

// Heading is one recorded section heading.
type Heading struct {
	Level int // leading = count, capped at 3
	Text  string
}

// Result is the immutable product of one parse. All indices are line
// numbers into Lines, or NotFound.
type Result struct {
	LineCount int

	BiographyIndex        int
	SourcesIndex          int
	ReferencesIndex       int
	AcknowledgementsIndex int
	ResearchNotesIndex    int

	Headings []Heading
	Defects  []Defect
	Messages []string

	// Lines is the working buffer after comment stripping and the
	// blanking of research-notes and acknowledgements spans.
	Lines []string

	// Candidate source material for the validator.
	SourceLines []string // literal text below the Sources heading or references tag
	InlineRefs  []string // unnamed <ref>...</ref> contents
	NamedRefs   []string // <ref name=...>...</ref> contents

	InlineRefCount int
	MisplacedCount int // non-blank lines found before the Biography heading

	// PossibleSourceLineCount mixes section offsets and the misplaced
	// line count and may go negative; it is clamped only at the
	// reporting boundary.
	PossibleSourceLineCount int

	IsMarkedUnsourced bool
	IsEmpty           bool
	SearchTermFound   bool
}

func newResult() *Result {
	return &Result{
		BiographyIndex:        NotFound,
		SourcesIndex:          NotFound,
		ReferencesIndex:       NotFound,
		AcknowledgementsIndex: NotFound,
		ResearchNotesIndex:    NotFound,
	}
}

// HasDefect reports whether d was recorded.
func (r *Result) HasDefect(d Defect) bool {
	for _, have := range r.Defects {
		if have == d {
			return true
		}
	}
	return false
}

// HasStyleIssues reports whether any defect was recorded.
func (r *Result) HasStyleIssues() bool {
	return len(r.Defects) > 0
}

func (r *Result) addDefect(d Defect, message string) {
	r.Defects = append(r.Defects, d)
	if message != "" {
		r.Messages = append(r.Messages, message)
	}
}

// addDefectOnce records d only if it has not been recorded yet.
func (r *Result) addDefectOnce(d Defect, message string) {
	if !r.HasDefect(d) {
		r.addDefect(d, message)
	}
}
