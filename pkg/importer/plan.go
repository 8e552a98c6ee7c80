package importer

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
)

var (
	skippedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))  // gray
	appendStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("10")) // green
)

// PrintPlan writes a human-readable preview of the report.
func PrintPlan(w io.Writer, report *Report) {
	for _, e := range report.Items {
		r := e.Record
		line := fmt.Sprintf("%-7s | %s | %-30s | %s", e.Status, r.Date(), r.Description(), r.Volume())
		if e.Status == Skipped {
			fmt.Fprintln(w, skippedStyle.Render("= "+line))
			continue
		}
		fmt.Fprintln(w, appendStyle.Render("+ "+line))
	}

	if report.AppendCount() == 0 {
		fmt.Fprintf(w, "\nPlan: nothing to append, %d record(s) not newer than %s\n", report.SkippedCount(), report.Cutoff)
		return
	}
	fmt.Fprintf(w, "\nPlan: %d record(s) will be appended, %d skipped (cutoff %s)\n", report.AppendCount(), report.SkippedCount(), report.Cutoff)
}
