package formatter

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/futig/interview-flow/internal/entity"
	"github.com/jung-kurt/gofpdf"
)

const (
	pdfContentType   = "application/pdf"
	pdfFileExtension = ".pdf"

	// pdfFontName is the internal name used by gofpdf
	// for the UTF-8 capable font.
	pdfFontName = "DejaVuSans"

	pdfFontFile     = "DejaVuSans.ttf"
	pdfBoldFontFile = "DejaVuSans-Bold.ttf"

	// In Docker runtime fonts are copied next to the binary.
	pdfFontRuntimeDir = "ttf"
)

type PDFFormatter struct {
	fontDir string
}

func NewPDFFormatter(fontDir string) *PDFFormatter {
	return &PDFFormatter{fontDir: fontDir}
}

// resolveFontPath tries to find the DejaVuSans font in
// the configured directory or next to the binary.
func (pf *PDFFormatter) resolveFontPath(file string) string {
	for _, dir := range []string{pf.fontDir, pdfFontRuntimeDir} {
		if dir == "" {
			continue
		}
		path := filepath.Join(dir, file)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

func (pf *PDFFormatter) Format(summary *entity.InterviewSummary, rounds []entity.InterviewRound) ([]byte, error) {
	doc := buildDocument(summary, rounds)

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetTitle(doc.title, true)
	pdf.AddPage()

	fontName := "Arial"
	// Core fonts are cp1252, UTF-8 text needs translating
	tr := pdf.UnicodeTranslatorFromDescriptor("")
	if fontPath := pf.resolveFontPath(pdfFontFile); fontPath != "" {
		boldPath := pf.resolveFontPath(pdfBoldFontFile)
		if boldPath == "" {
			boldPath = fontPath
		}
		pdf.AddUTF8Font(pdfFontName, "", fontPath)
		pdf.AddUTF8Font(pdfFontName, "B", boldPath)
		fontName = pdfFontName
		tr = func(s string) string { return s }
	}

	pdf.SetFont(fontName, "B", 20)
	pdf.Cell(0, 10, tr(doc.title))
	pdf.Ln(14)

	pdf.SetFont(fontName, "", 11)
	for _, f := range doc.facts {
		pdf.SetFont(fontName, "B", 11)
		pdf.CellFormat(50, 6, tr(f.label), "", 0, "", false, 0, "")
		pdf.SetFont(fontName, "", 11)
		pdf.MultiCell(0, 6, tr(f.value), "", "", false)
	}

	for _, s := range doc.sections {
		pdf.Ln(4)
		size := 15.0
		if s.level == 2 {
			size = 12
		}
		pdf.SetFont(fontName, "B", size)
		pdf.MultiCell(0, size*0.6, tr(s.heading), "", "", false)
		pdf.Ln(1)

		pdf.SetFont(fontName, "", 11)
		_, lineHeight := pdf.GetFontSize()
		for _, p := range s.paragraphs {
			pdf.MultiCell(0, lineHeight*1.5, tr(p), "", "", false)
		}
		for _, b := range s.bullets {
			pdf.MultiCell(0, lineHeight*1.5, tr("- "+b), "", "", false)
		}
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (pf *PDFFormatter) ContentType() string {
	return pdfContentType
}

func (pf *PDFFormatter) FileExtension() string {
	return pdfFileExtension
}
