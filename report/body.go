package report

import (
	"fmt"
	"strings"
)

const (
	// Title heads every report.
	Title = "Structured Report"
	// BaseName is the file name stem of fixed-name reports.
	BaseName = "structured_report"
)

// Compose builds the report body for a transcription.
func Compose(text string, elapsedSeconds float64) string {
	return fmt.Sprintf("%s\n\n%s\n\nProcessing Time: %.3f seconds", Title, text, elapsedSeconds)
}

// Sanitize drops every character outside 7-bit ASCII.
func Sanitize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r <= 0x7F {
			b.WriteRune(r)
		}
	}
	return b.String()
}
