// Package docx produces .docx packages through github.com/gomutex/godocx.
// The library owns the package model and serialization; this package fills
// in what generated reports need on top of it: A4 page setup, style
// overrides, half-point run sizes with per-script fonts, in-memory images
// and core properties.
package docx

import (
	"bytes"
	"errors"
	"fmt"
	"io"

	"github.com/gomutex/godocx"
	gdocx "github.com/gomutex/godocx/docx"
	"github.com/gomutex/godocx/wml/ctypes"
	"github.com/gomutex/godocx/wml/stypes"
)

// MIMEType is the media type of a serialized .docx package.
const MIMEType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

var (
	// ErrUnsupportedImage is returned by AddPicture when the payload is
	// empty or its signature is not one of the embeddable formats.
	ErrUnsupportedImage = errors.New("docx: unsupported image payload")

	// ErrInvalidExtent is returned by AddPicture for non-positive sizes.
	ErrInvalidExtent = errors.New("docx: image extent must be positive")
)

// A4 portrait in twips.
const (
	pageWidthA4  = 11906
	pageHeightA4 = 16838
	headerFooter = 720
)

// Document is a godocx document opened from the library's default template.
// A Document is not safe for concurrent use.
type Document struct {
	root       *gdocx.RootDoc
	title      string
	creator    string
	margin     int
	paragraphs []*Paragraph
	media      int
}

// Option configures a Document.
type Option func(*Document)

// WithMargins sets all four page margins in inches.
func WithMargins(inches float64) Option {
	return func(d *Document) { d.margin = inchesToTwips(inches) }
}

// WithTitle records dc:title in the core properties.
func WithTitle(title string) Option {
	return func(d *Document) { d.title = title }
}

// WithCreator records dc:creator in the core properties.
func WithCreator(creator string) Option {
	return func(d *Document) { d.creator = creator }
}

// New returns an empty A4 document with 1 inch margins.
func New(opts ...Option) (*Document, error) {
	root, err := godocx.NewDocument()
	if err != nil {
		return nil, fmt.Errorf("docx: open template: %w", err)
	}
	d := &Document{root: root, margin: twipsPerInch}
	for _, opt := range opts {
		opt(d)
	}

	body := root.Document.Body
	if body.SectPr == nil {
		body.SectPr = ctypes.NewSectionProper()
	}
	w, h := uint64(pageWidthA4), uint64(pageHeightA4)
	m, hf, gutter := d.margin, headerFooter, 0
	body.SectPr.PageSize = &ctypes.PageSize{Width: &w, Height: &h}
	body.SectPr.PageMargin = &ctypes.PageMargin{
		Top: &m, Right: &m, Bottom: &m, Left: &m,
		Header: &hf, Footer: &hf, Gutter: &gutter,
	}
	return d, nil
}

// SetDefaults replaces the document-wide run and paragraph defaults.
func (d *Document) SetDefaults(rPr *ctypes.RunProperty, pPr *ctypes.ParagraphProp) {
	d.root.DocStyles.DocDefaults = &ctypes.DocDefault{
		RunProp:  &ctypes.RunPropDefault{RunProp: rPr},
		ParaProp: &ctypes.ParaPropDefault{ParaProp: pPr},
	}
}

// SetStyle installs s, replacing the template style with the same id.
func (d *Document) SetStyle(s ctypes.Style) {
	list := d.root.DocStyles.StyleList
	if s.ID != nil {
		for i := range list {
			if list[i].ID != nil && *list[i].ID == *s.ID {
				list[i] = s
				return
			}
		}
	}
	d.root.DocStyles.StyleList = append(list, s)
}

// Style returns the installed style with the given id and type, or nil.
func (d *Document) Style(id string, typ stypes.StyleType) *ctypes.Style {
	return d.root.GetStyleByID(id, typ)
}

// AddParagraph appends an empty paragraph to the body.
func (d *Document) AddParagraph() *Paragraph {
	p := &Paragraph{doc: d, p: d.root.AddEmptyParagraph()}
	d.paragraphs = append(d.paragraphs, p)
	return p
}

// Paragraphs returns the body paragraphs added so far.
func (d *Document) Paragraphs() []*Paragraph {
	return d.paragraphs
}

// MediaCount reports how many images have been embedded.
func (d *Document) MediaCount() int {
	return d.media
}

// Bytes serializes the package.
func (d *Document) Bytes() ([]byte, error) {
	var buf bytes.Buffer
	if _, err := d.WriteTo(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// WriteTo writes the zip package to w.
func (d *Document) WriteTo(w io.Writer) (int64, error) {
	core, err := d.coreProps()
	if err != nil {
		return 0, err
	}
	d.root.FileMap.Store(corePropsPath, core)
	d.dedupeContentTypes()

	cw := &countingWriter{w: w}
	if err := d.root.Write(cw); err != nil {
		return cw.n, fmt.Errorf("docx: write package: %w", err)
	}
	return cw.n, nil
}

// dedupeContentTypes drops repeated Default entries; godocx appends one per
// picture and the template already declares jpeg.
func (d *Document) dedupeContentTypes() {
	seen := make(map[string]bool)
	defaults := d.root.ContentType.Default[:0]
	for _, def := range d.root.ContentType.Default {
		if seen[def.Extension] {
			continue
		}
		seen[def.Extension] = true
		defaults = append(defaults, def)
	}
	d.root.ContentType.Default = defaults
}

type countingWriter struct {
	w io.Writer
	n int64
}

func (c *countingWriter) Write(p []byte) (int, error) {
	n, err := c.w.Write(p)
	c.n += int64(n)
	return n, err
}
