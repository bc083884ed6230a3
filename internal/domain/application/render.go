package application

import (
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"

	"github.com/tavi/preauth/internal/platform/docx"
)

// Typography of generated documents.
const (
	LatinFont   = "Times New Roman"
	CJKFont     = "標楷體"
	BodySize    = 24 // 12pt
	HeadingSize = 28 // 14pt
	TitleSize   = 36 // 18pt
	BodyLine    = 360
	Highlight   = "FF0000"
)

// Paragraph style ids.
const (
	StyleTitle    = "Title"
	StyleHeading1 = "Heading1"
	StyleStrong   = "Strong"
)

func on() *ctypes.OnOff { return &ctypes.OnOff{} }

func twips(n uint64) *uint64 { return &n }

func spacing(before, after uint64) *ctypes.Spacing {
	return &ctypes.Spacing{Before: twips(before), After: twips(after)}
}

func sized(rp *ctypes.RunProperty, halfPoints uint64) *ctypes.RunProperty {
	rp.Size = ctypes.NewFontSize(halfPoints)
	rp.SizeCs = ctypes.NewFontSizeCS(halfPoints)
	return rp
}

// documentFonts is Times New Roman with 標楷體 for East Asian text.
func documentFonts() *ctypes.RunFonts {
	return &ctypes.RunFonts{Ascii: LatinFont, HAnsi: LatinFont, EastAsia: CJKFont, CS: LatinFont}
}

func paragraphStyle(id, name string, ppr *ctypes.ParagraphProp, rpr *ctypes.RunProperty) ctypes.Style {
	typ := stypes.StyleTypeParagraph
	return ctypes.Style{
		ID:       &id,
		Type:     &typ,
		Name:     ctypes.NewCTString(name),
		BasedOn:  ctypes.NewCTString("Normal"),
		Next:     ctypes.NewCTString("Normal"),
		QFormat:  on(),
		ParaProp: ppr,
		RunProp:  rpr,
	}
}

// setDefaults installs the body typography with the given alignment.
func setDefaults(d *docx.Document, jc stypes.Justification) {
	line, rule := BodyLine, stypes.LineSpacingRuleAuto
	d.SetDefaults(
		sized(&ctypes.RunProperty{Fonts: documentFonts()}, BodySize),
		&ctypes.ParagraphProp{
			Spacing:       &ctypes.Spacing{Line: &line, LineRule: &rule},
			Justification: ctypes.NewGenSingleStrVal(jc),
		},
	)
}

// installStyles applies the application stylesheet: 12pt justified body at
// 1.5 lines, bold 14pt headings and a bold red Strong style.
func installStyles(d *docx.Document) {
	setDefaults(d, stypes.JustificationBoth)
	d.SetStyle(paragraphStyle(StyleTitle, "Title",
		&ctypes.ParagraphProp{
			Justification: ctypes.NewGenSingleStrVal(stypes.JustificationCenter),
			Spacing:       spacing(0, 400),
		},
		sized(&ctypes.RunProperty{Bold: on()}, TitleSize),
	))
	d.SetStyle(paragraphStyle(StyleHeading1, "heading 1",
		&ctypes.ParagraphProp{
			KeepNext:   on(),
			Spacing:    spacing(400, 200),
			OutlineLvl: ctypes.NewDecimalNum(0),
		},
		sized(&ctypes.RunProperty{Fonts: documentFonts(), Bold: on()}, HeadingSize),
	))
	d.SetStyle(paragraphStyle(StyleStrong, "Strong", nil,
		&ctypes.RunProperty{Bold: on(), Color: ctypes.NewColor(Highlight)},
	))
}

// bodyText appends a run of body text in 標楷體 12pt.
func bodyText(p *docx.Paragraph, s string) *docx.Run {
	return p.AddText(s).Font(CJKFont).Size(BodySize)
}

func centered(d *docx.Document) *docx.Paragraph {
	return d.AddParagraph().Align(stypes.JustificationCenter).Spacing(200, 200)
}

// Render serializes a build result into a document. Images the writer
// rejects become a visible placeholder and are reported as degradations.
// An error means the document itself could not be created.
func Render(res BuildResult, opts ...docx.Option) (*docx.Document, []Degradation, error) {
	opts = append([]docx.Option{docx.WithTitle(DocumentTitle)}, opts...)
	doc, err := docx.New(opts...)
	if err != nil {
		return nil, nil, err
	}
	installStyles(doc)

	var degraded []Degradation
	for _, b := range res.Blocks {
		switch b.Kind {
		case KindTitle:
			doc.AddParagraph().
				Style(StyleTitle).
				Align(stypes.JustificationCenter).
				Spacing(0, 400).
				AddText(b.Text)
		case KindHeading:
			doc.AddParagraph().Style(StyleHeading1).Spacing(400, 200).AddText(b.Text)
		case KindParagraph:
			p := doc.AddParagraph().
				Spacing(0, 0).
				Line(BodyLine, stypes.LineSpacingRuleAtLeast).
				Align(stypes.JustificationBoth)
			bodyText(p, b.Text)
		case KindHighlight:
			p := doc.AddParagraph().Line(BodyLine, stypes.LineSpacingRuleAuto)
			bodyText(p, b.Label).Bold()
			bodyText(p, b.Text).Color(Highlight)
		case KindDivider:
			centered(doc).AddText(b.Text)
		case KindPlaceholder:
			centered(doc).Style(StyleStrong).AddText(b.Text)
		case KindImage:
			p := centered(doc)
			if err := p.AddPicture(b.Image.Data, b.Image.Size.Width, b.Image.Size.Height); err != nil {
				degraded = append(degraded, Degradation{
					Kind:    DegradedEmbed,
					Section: b.Section,
					Image:   b.Image.Index,
					Detail:  err.Error(),
				})
				p.AddText(ImagePlaceholder)
			}
		}
	}
	return doc, degraded, nil
}
