package application

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"

	"github.com/tavi/preauth/internal/platform/docx"
)

// Title lines of the two-surgeon determination form.
var surgeonTitleLines = [3]string{
	"申請『經導管主動脈瓣膜置換術』",
	"必須至少二位心臟外科專科醫師判定無法以傳統開心手術進行主動脈瓣膜",
	"置換或開刀危險性過高",
}

const (
	firstSurgeonLine  = "第一位 心臟外科專科醫師____________________"
	secondSurgeonLine = "第二位 心臟外科專科醫師____________________"
	signatureDate     = "       日期 __________"
)

var (
	ErrMissingPatient = errors.New("缺少病患資料")
	ErrMissingSummary = errors.New("缺少摘要內容，請先在步驟 7 生成醫師評估文件")
)

// PatientInfo identifies the patient on a standalone form.
type PatientInfo struct {
	Name        string `json:"name"`
	ChartNumber string `json:"chartNumber"`
}

func (p PatientInfo) validate() error {
	if strings.TrimSpace(p.Name) == "" || strings.TrimSpace(p.ChartNumber) == "" {
		return ErrMissingPatient
	}
	return nil
}

// installSurgeonStyles sets a left-aligned body with a 16pt 標楷體 title.
func installSurgeonStyles(d *docx.Document) {
	setDefaults(d, stypes.JustificationLeft)
	titleFonts := &ctypes.RunFonts{Ascii: CJKFont, HAnsi: CJKFont, EastAsia: CJKFont, CS: CJKFont}
	d.SetStyle(paragraphStyle(StyleTitle, "Title", nil,
		sized(&ctypes.RunProperty{Fonts: titleFonts, Bold: on()}, 32),
	))
	d.SetStyle(paragraphStyle(StyleHeading1, "heading 1",
		&ctypes.ParagraphProp{KeepNext: on(), OutlineLvl: ctypes.NewDecimalNum(0)},
		sized(&ctypes.RunProperty{Bold: on()}, HeadingSize),
	))
}

func signatureLine(d *docx.Document, who string) {
	p := d.AddParagraph().Spacing(200, 200)
	p.AddText(who).Size(BodySize)
	p.AddText(signatureDate).Size(BodySize)
}

// SurgeonAssessment lays out the one-page form two cardiac surgeons sign to
// certify that conventional valve replacement is not feasible.
func SurgeonAssessment(p PatientInfo, summary string) (*docx.Document, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}
	if strings.TrimSpace(summary) == "" {
		return nil, ErrMissingSummary
	}
	doc, err := docx.New(docx.WithMargins(1), docx.WithTitle(SurgeonAssessmentFileName(p)))
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerialize, err)
	}
	installSurgeonStyles(doc)

	center := stypes.JustificationCenter
	doc.AddParagraph().Style(StyleTitle).Align(center).Spacing(0, 100).AddText(surgeonTitleLines[0])
	doc.AddParagraph().Align(center).Spacing(0, 0).AddText(surgeonTitleLines[1])
	doc.AddParagraph().Align(center).Spacing(0, 200).AddText(surgeonTitleLines[2])

	doc.AddParagraph().Style(StyleHeading1).Align(center).Spacing(200, 300).AddText(DocumentTitle)

	doc.AddParagraph().
		Line(BodyLine, stypes.LineSpacingRuleAuto).
		Spacing(100, 400).
		Align(stypes.JustificationBoth).
		AddText(summary).Size(BodySize)

	doc.AddParagraph().Spacing(400, 200)
	signatureLine(doc, firstSurgeonLine)
	doc.AddParagraph().Spacing(100, 100)
	signatureLine(doc, secondSurgeonLine)
	return doc, nil
}

// ApplicationFileName is the download name of the complete application.
func ApplicationFileName(p PatientInfo) string {
	return fmt.Sprintf("%s%s - TAVI事前審查申請.docx", p.Name, p.ChartNumber)
}

// SurgeonAssessmentFileName is the download name of the determination form.
func SurgeonAssessmentFileName(p PatientInfo) string {
	return fmt.Sprintf("%s%s - 二位心臟外科專科醫師判定.docx", p.Name, p.ChartNumber)
}
