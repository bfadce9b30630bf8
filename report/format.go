package report

import (
	"strings"

	apperrors "github.com/kbukum/audioreport/errors"
)

// Format is a report file format.
type Format string

const (
	FormatTXT Format = "txt"
	FormatPDF Format = "pdf"
)

// Formats lists the supported formats.
var Formats = []Format{FormatTXT, FormatPDF}

// ParseFormat accepts "txt" or "pdf", ignoring case and surrounding space.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTXT, FormatPDF:
		return f, nil
	default:
		return "", apperrors.UnsupportedFormat(s)
	}
}

// Extension returns the file extension without the dot.
func (f Format) Extension() string { return string(f) }

// ContentType returns the MIME type of the format.
func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "text/plain; charset=us-ascii"
}
