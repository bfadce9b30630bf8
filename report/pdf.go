package report

import (
	"bytes"
	"fmt"
	"time"

	"github.com/go-pdf/fpdf"
)

// pdfEpoch is stamped as creation and modification date so identical bodies
// render to identical bytes.
var pdfEpoch = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

const (
	pdfFont       = "Arial"
	pdfFontSize   = 12
	pdfCellWidth  = 200
	pdfLineHeight = 10
)

// renderPDF lays body out as wrapped paragraphs on A4 pages.
func renderPDF(body string) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetCreationDate(pdfEpoch)
	pdf.SetModificationDate(pdfEpoch)
	pdf.SetCatalogSort(true)
	pdf.SetTitle(Title, false)
	pdf.SetCreator("audioreport", false)

	pdf.AddPage()
	pdf.SetFont(pdfFont, "", pdfFontSize)
	pdf.MultiCell(pdfCellWidth, pdfLineHeight, body, "", "J", false)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
