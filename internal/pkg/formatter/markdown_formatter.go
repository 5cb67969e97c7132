package formatter

import (
	"bytes"
	"fmt"

	"github.com/futig/interview-flow/internal/entity"
)

const (
	markdownContentType   = "text/markdown; charset=utf-8"
	markdownFileExtension = ".md"
)

type MarkdownFormatter struct{}

func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

func (mf *MarkdownFormatter) Format(summary *entity.InterviewSummary, rounds []entity.InterviewRound) ([]byte, error) {
	doc := buildDocument(summary, rounds)

	var buf bytes.Buffer
	fmt.Fprintf(&buf, "# %s\n\n", doc.title)

	for _, f := range doc.facts {
		fmt.Fprintf(&buf, "- **%s:** %s\n", f.label, f.value)
	}

	for _, s := range doc.sections {
		hashes := "##"
		if s.level == 2 {
			hashes = "###"
		}
		fmt.Fprintf(&buf, "\n%s %s\n\n", hashes, s.heading)

		for _, p := range s.paragraphs {
			fmt.Fprintf(&buf, "%s\n\n", p)
		}
		for _, b := range s.bullets {
			fmt.Fprintf(&buf, "- %s\n", b)
		}
	}

	return buf.Bytes(), nil
}

func (mf *MarkdownFormatter) ContentType() string {
	return markdownContentType
}

func (mf *MarkdownFormatter) FileExtension() string {
	return markdownFileExtension
}
