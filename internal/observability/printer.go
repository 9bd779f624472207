package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/ke4tch/wikitree-biocheck-sub000/internal/report"
)

const (
	// boxWidth is the default width for formatted output boxes
	boxWidth = 60
	// maxItemsToShow is the default number of items to display in lists
	maxItemsToShow = 5
)

// Printer handles formatted output for verbose mode
type Printer struct {
	out io.Writer
}

// NewPrinter creates a new Printer that writes to the given writer
func NewPrinter(out io.Writer) *Printer {
	return &Printer{out: out}
}

// printBox prints a formatted box with a title and content
//
//nolint:errcheck // writing to stdout; errors are not recoverable
func (p *Printer) printBox(title string, content string) {
	border := strings.Repeat("─", boxWidth-2)
	fmt.Fprintf(p.out, "┌%s┐\n", border)
	fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, title)
	fmt.Fprintf(p.out, "├%s┤\n", border)

	lines := strings.Split(content, "\n")
	for _, line := range lines {
		// Truncate long lines
		if len(line) > boxWidth-4 {
			line = line[:boxWidth-7] + "..."
		}
		fmt.Fprintf(p.out, "│ %-*s │\n", boxWidth-4, line)
	}

	fmt.Fprintf(p.out, "└%s┘\n", border)
}

// PrintRow outputs a human-readable summary of one checked profile.
func (p *Printer) PrintRow(row report.Row) {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Status:   %s\n", row.Status))
	sb.WriteString(fmt.Sprintf("Sources:  %d valid, %d invalid\n", row.ValidCount, row.InvalidCount))
	sb.WriteString(fmt.Sprintf("Lines:    %d\n", row.LineCount))

	if len(row.Messages) > 0 {
		sb.WriteString("\nIssues:\n")
		for i, msg := range row.Messages {
			if i >= maxItemsToShow {
				sb.WriteString(fmt.Sprintf("  ... and %d more\n", len(row.Messages)-maxItemsToShow))
				break
			}
			sb.WriteString(fmt.Sprintf("  - %s\n", msg))
		}
	}

	p.printBox(row.Name, sb.String())
}

// PrintSummary outputs the terminal run summary.
func (p *Printer) PrintSummary(summary report.Summary) {
	var sb strings.Builder

	c := summary.Counters
	sb.WriteString(fmt.Sprintf("Considered:         %d\n", c.Considered))
	sb.WriteString(fmt.Sprintf("Checked:            %d\n", c.Checked))
	sb.WriteString(fmt.Sprintf("Reported:           %d\n", c.Reported))
	sb.WriteString(fmt.Sprintf("Style issues:       %d\n", c.StyleIssues))
	sb.WriteString(fmt.Sprintf("Marked unsourced:   %d\n", c.MarkedUnsourced))
	sb.WriteString(fmt.Sprintf("Possibly unsourced: %d\n", c.PossiblyUnsourced))
	sb.WriteString(fmt.Sprintf("Excluded:           %d\n", c.Excluded))
	sb.WriteString(fmt.Sprintf("Duplicates:         %d\n", c.Duplicates))
	sb.WriteString("\n")
	sb.WriteString(summary.CompletionMessage())
	sb.WriteString("\n")

	p.printBox(fmt.Sprintf("Run %s", summary.RunID), sb.String())
}

// PrintRows prints a compact table of all reported rows.
func (p *Printer) PrintRows(rows []report.Row) {
	if len(rows) == 0 {
		fmt.Fprintln(p.out, "No profiles to report.")
		return
	}
	fmt.Fprintf(p.out, "%-25s %-20s %7s %7s  %s\n", "Profile", "Status", "Valid", "Invalid", "Link")
	for _, row := range rows {
		fmt.Fprintf(p.out, "%-25s %-20s %7d %7d  %s\n",
			truncateCell(row.Name, 25), row.Status.String(), row.ValidCount, row.InvalidCount, row.URL)
	}
}

func truncateCell(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n-3] + "..."
}
