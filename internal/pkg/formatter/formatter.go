package formatter

import (
	"fmt"

	"github.com/futig/interview-flow/internal/entity"
)

type Formatter interface {
	Format(summary *entity.InterviewSummary, rounds []entity.InterviewRound) ([]byte, error)
	ContentType() string
	FileExtension() string
}

type Factory struct {
	fontDir string
}

// NewFactory creates formatters. fontDir is searched for a UTF-8 font for PDF output.
func NewFactory(fontDir string) *Factory {
	return &Factory{fontDir: fontDir}
}

func (f *Factory) Create(format entity.ResultFormat) (Formatter, error) {
	switch format {
	case entity.FormatMarkdown:
		return NewMarkdownFormatter(), nil
	case entity.FormatDOCX:
		return NewDOCXFormatter(), nil
	case entity.FormatPDF:
		return NewPDFFormatter(f.fontDir), nil
	default:
		return nil, fmt.Errorf("unsupported format: %s", format)
	}
}
