package formatter

import (
	"bytes"

	"github.com/futig/interview-flow/internal/entity"
	uniofficedoc "github.com/unidoc/unioffice/document"
)

const (
	docxContentType   = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	docxFileExtension = ".docx"
)

type DOCXFormatter struct{}

func NewDOCXFormatter() *DOCXFormatter {
	return &DOCXFormatter{}
}

func (df *DOCXFormatter) Format(summary *entity.InterviewSummary, rounds []entity.InterviewRound) ([]byte, error) {
	d := buildDocument(summary, rounds)

	doc := uniofficedoc.New()
	defer doc.Close()

	titlePar := doc.AddParagraph()
	titlePar.SetStyle("Title")
	titlePar.AddRun().AddText(d.title)

	for _, f := range d.facts {
		par := doc.AddParagraph()
		label := par.AddRun()
		label.Properties().SetBold(true)
		label.AddText(f.label + ": ")
		par.AddRun().AddText(f.value)
	}

	for _, s := range d.sections {
		heading := doc.AddParagraph()
		if s.level == 2 {
			heading.SetStyle("Heading2")
		} else {
			heading.SetStyle("Heading1")
		}
		heading.AddRun().AddText(s.heading)

		for _, p := range s.paragraphs {
			doc.AddParagraph().AddRun().AddText(p)
		}
		for _, b := range s.bullets {
			par := doc.AddParagraph()
			par.SetStyle("ListBullet")
			par.AddRun().AddText(b)
		}
	}

	var buf bytes.Buffer
	if err := doc.Save(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (df *DOCXFormatter) ContentType() string {
	return docxContentType
}

func (df *DOCXFormatter) FileExtension() string {
	return docxFileExtension
}
