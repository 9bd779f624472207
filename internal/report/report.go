// Package report defines the boundary to the presentation layer: one
// row per checked profile, running aggregate counters, and the terminal
// summary with its completeness flags.
package report

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/biography"
)

// Status classifies one checked profile.
type Status int

const (
	// StatusSourced means at least one valid source line was found.
	StatusSourced Status = iota
	// StatusMarkedUnsourced means the biography is explicitly tagged
	// unsourced.
	StatusMarkedUnsourced
	// StatusPossiblyUnsourced means neither a tag nor a valid source
	// was found.
	StatusPossiblyUnsourced
)

func (s Status) String() string {
	switch s {
	case StatusSourced:
		return "Sourced"
	case StatusMarkedUnsourced:
		return "Marked unsourced"
	case StatusPossiblyUnsourced:
		return "Possibly unsourced"
	default:
		return "Unknown"
	}
}

// Mode selects which rows the collector keeps.
type Mode int

const (
	// ModeAll reports every checked profile.
	ModeAll Mode = iota
	// ModeIssuesOnly reports only profiles with sourcing or style
	// issues.
	ModeIssuesOnly
	// ModeNonManagedOnly reports only orphaned profiles.
	ModeNonManagedOnly
)

// Row is the record emitted for one checked profile.
type Row struct {
	ID              int64
	Name            string
	URL             string
	Status          Status
	Defects         []biography.Defect
	Messages        []string
	ValidCount      int
	InvalidCount    int
	LineCount       int
	SourceLineCount int
	Orphaned        bool
}

// HasIssues reports whether the row represents a sourcing or style
// problem.
func (r Row) HasIssues() bool {
	return r.Status != StatusSourced || len(r.Defects) > 0
}

// Counters are the running aggregates for one run.
type Counters struct {
	Considered        int // identities a discovery strategy surfaced
	Checked           int
	Reported          int
	StyleIssues       int
	MarkedUnsourced   int
	PossiblyUnsourced int
	Excluded          int // privacy or date exclusions
	Duplicates        int
}

// Summary is the terminal record every run produces, even on the
// fatal-error path.
type Summary struct {
	RunID    uuid.UUID
	Counters Counters

	MaxProfilesReached bool
	RateLimited        bool
	Canceled           bool
	Errored            bool
	Message            string
}

// CompletionMessage renders the user-visible terminal message,
// qualifying every early-stop condition with a completeness warning.
func (s Summary) CompletionMessage() string {
	switch {
	case s.Errored:
		return fmt.Sprintf("Run failed: %s; results may be incomplete", s.Message)
	case s.RateLimited:
		return "Server overloaded, try again later; results may be incomplete"
	case s.MaxProfilesReached:
		return "Maximum number of profiles reached; results may be incomplete"
	case s.Canceled:
		return "Canceled; results may be incomplete"
	default:
		return "Check complete"
	}
}

// Reporter receives per-profile rows and the terminal summary. Report
// returns whether the row was accepted, so callers can count reported
// rows against their caps.
type Reporter interface {
	Report(row Row) bool
	Finish(summary Summary)
}

// Collector is the in-memory Reporter. It applies the report mode and
// is safe for concurrent use.
type Collector struct {
	mu      sync.Mutex
	mode    Mode
	rows    []Row
	summary Summary
	done    bool
}

// NewCollector builds a collector for the given mode.
func NewCollector(mode Mode) *Collector {
	return &Collector{mode: mode}
}

// Report keeps row if the mode admits it.
func (c *Collector) Report(row Row) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	switch c.mode {
	case ModeIssuesOnly:
		if !row.HasIssues() {
			return false
		}
	case ModeNonManagedOnly:
		if !row.Orphaned {
			return false
		}
	}
	c.rows = append(c.rows, row)
	return true
}

// Finish records the terminal summary.
func (c *Collector) Finish(summary Summary) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.summary = summary
	c.done = true
}

// Rows returns the collected rows.
func (c *Collector) Rows() []Row {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Row(nil), c.rows...)
}

// Summary returns the terminal summary and whether Finish has run.
func (c *Collector) Summary() (Summary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.summary, c.done
}
