package docx

import (
	"strings"

	gdocx "github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"
)

// Paragraph is a body paragraph. Builder methods modify it in place and
// return the receiver.
type Paragraph struct {
	doc *Document
	p   *gdocx.Paragraph
}

// Style applies a paragraph style by id.
func (p *Paragraph) Style(id string) *Paragraph {
	p.p.Style(id)
	return p
}

// Align sets horizontal justification.
func (p *Paragraph) Align(j stypes.Justification) *Paragraph {
	p.p.Justification(j)
	return p
}

// Spacing sets space before and after in twips. Zero is written explicitly
// so it overrides style defaults.
func (p *Paragraph) Spacing(before, after uint64) *Paragraph {
	sp := p.spacing()
	sp.Before, sp.After = &before, &after
	return p
}

// Line sets line spacing in twips under the given rule.
func (p *Paragraph) Line(line int, rule stypes.LineSpacingRule) *Paragraph {
	sp := p.spacing()
	sp.Line, sp.LineRule = &line, &rule
	return p
}

func (p *Paragraph) spacing() *ctypes.Spacing {
	ct := p.p.GetCT()
	if ct.Property == nil {
		ct.Property = ctypes.DefaultParaProperty()
	}
	if ct.Property.Spacing == nil {
		ct.Property.Spacing = &ctypes.Spacing{}
	}
	return ct.Property.Spacing
}

// AddText appends a text run.
func (p *Paragraph) AddText(s string) *Run {
	lib := p.p.AddText(s)
	children := p.p.GetCT().Children
	return &Run{lib: lib, ct: children[len(children)-1].Run}
}

// Text concatenates the text of all runs.
func (p *Paragraph) Text() string {
	var sb strings.Builder
	for _, child := range p.p.GetCT().Children {
		if child.Run == nil {
			continue
		}
		for _, rc := range child.Run.Children {
			if rc.Text != nil {
				sb.WriteString(rc.Text.Text)
			}
		}
	}
	return sb.String()
}

// Run is a text run inside a Paragraph.
type Run struct {
	lib *gdocx.Run
	ct  *ctypes.Run
}

// Bold marks the run bold.
func (r *Run) Bold() *Run {
	r.lib.Bold(true)
	return r
}

// Color sets the run colour as a six-digit hex string such as "FF0000".
func (r *Run) Color(hex string) *Run {
	r.lib.Color(hex)
	return r
}

// Size sets the font size in half-points for every script.
func (r *Run) Size(halfPoints uint64) *Run {
	rp := r.props()
	rp.Size = ctypes.NewFontSize(halfPoints)
	rp.SizeCs = ctypes.NewFontSizeCS(halfPoints)
	return r
}

// Font sets the same typeface for every script.
func (r *Run) Font(name string) *Run {
	r.props().Fonts = &ctypes.RunFonts{Ascii: name, HAnsi: name, EastAsia: name, CS: name}
	return r
}

func (r *Run) props() *ctypes.RunProperty {
	if r.ct.Property == nil {
		r.ct.Property = &ctypes.RunProperty{}
	}
	return r.ct.Property
}
