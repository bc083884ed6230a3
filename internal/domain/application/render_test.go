package application

import (
	"archive/zip"
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/gomutex/godocx/wml/stypes"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavi/preauth/internal/domain/casefile"
	"github.com/tavi/preauth/internal/platform/docx"
)

func readParts(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	parts := make(map[string]string, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		rc.Close()
		parts[f.Name] = string(b)
	}
	return parts
}

func renderParts(t *testing.T, res BuildResult) (map[string]string, []Degradation, *docx.Document) {
	t.Helper()
	doc, degraded, err := Render(res)
	require.NoError(t, err)
	data, err := doc.Bytes()
	require.NoError(t, err)
	return readParts(t, data), degraded, doc
}

func TestRender_Scenario(t *testing.T) {
	c := &casefile.Case{
		Examinations: []casefile.Examination{
			{ID: "e1", Type: casefile.ExamEchocardiography, TextContent: "AVA:0.67cm2\nSevere AS"},
			{ID: "c1", Type: casefile.ExamCatheterization, TextContent: "No stenosis"},
		},
	}
	parts, degraded, doc := renderParts(t, Build(c, "Patient summary text.", nil))
	assert.Empty(t, degraded)
	assert.Len(t, doc.Paragraphs(), 12)

	body := parts["word/document.xml"]
	assert.Contains(t, body, `<w:pStyle w:val="Title"></w:pStyle>`)
	assert.Contains(t, body, DocumentTitle)
	assert.Contains(t, body, "1. 心臟超音波檢查")
	assert.Contains(t, body, "2. 心導管檢查")
	assert.Contains(t, body, "3. "+SurgeonSectionTitle)
	assert.Contains(t, body, `<w:pStyle w:val="Strong"></w:pStyle>`)
	assert.Contains(t, body, SignedDocumentPlaceholder)
	assert.Equal(t, 3, strings.Count(body, Divider))

	// body text: 標楷體 12pt, at-least 1.5 line spacing, justified
	assert.Contains(t, body, `<w:spacing w:before="0" w:after="0" w:line="360" w:lineRule="atLeast"></w:spacing>`)
	assert.Contains(t, body, `<w:rFonts w:eastAsia="標楷體" w:ascii="標楷體" w:hAnsi="標楷體" w:cs="標楷體"></w:rFonts>`)
	assert.Contains(t, body, `<w:sz w:val="24"></w:sz>`)
	assert.Contains(t, body, `<w:jc w:val="both"></w:jc>`)
}

func TestRender_StyleSheet(t *testing.T) {
	parts, _, doc := renderParts(t, Build(&casefile.Case{}, "s", nil))
	styles := parts["word/styles.xml"]

	assert.Contains(t, styles, `w:ascii="Times New Roman"`)
	assert.Contains(t, styles, `w:eastAsia="標楷體"`)
	assert.Contains(t, styles, `w:styleId="Heading1"`)
	assert.Contains(t, styles, `w:styleId="Strong"`)
	assert.Contains(t, styles, `<w:color w:val="FF0000"></w:color>`)
	assert.Contains(t, styles, `<w:sz w:val="28"></w:sz>`)
	assert.Contains(t, styles, `w:line="360"`)
	assert.Contains(t, styles, `<w:jc w:val="both"></w:jc>`)

	// template styles are overridden, not duplicated
	for _, id := range []string{StyleTitle, StyleHeading1, StyleStrong} {
		assert.NotNil(t, doc.Style(id, stypes.StyleTypeParagraph), id)
		assert.Equal(t, 1, strings.Count(styles, `w:styleId="`+id+`"`), id)
	}
}

func TestRender_LabFindingsHighlighted(t *testing.T) {
	c := &casefile.Case{Examinations: []casefile.Examination{
		{ID: "l", Type: casefile.ExamLabReport, LabFindings: "Cr 2.1"},
	}}
	parts, _, _ := renderParts(t, Build(c, "s", nil))
	body := parts["word/document.xml"]

	label := strings.Index(body, LabFindingsLabel)
	findings := strings.Index(body, "Cr 2.1")
	require.True(t, label > 0 && findings > label)
	assert.Contains(t, body[:label], `<w:b w:val="true"></w:b>`)
	assert.Contains(t, body[label:findings], `<w:color w:val="FF0000"></w:color>`)
}

func TestRender_EmbedsImagesAtLayoutSize(t *testing.T) {
	c := &casefile.Case{Examinations: []casefile.Examination{
		{ID: "e", Type: casefile.ExamEchocardiography, Images: []casefile.Image{onePixelPNG}},
	}}
	parts, degraded, doc := renderParts(t, Build(c, "s", onePixelPNG))

	assert.Empty(t, degraded)
	assert.Equal(t, 2, doc.MediaCount())
	assert.Equal(t, string(onePixelPNG), parts["word/media/image1.png"])
	assert.Equal(t, string(onePixelPNG), parts["word/media/image2.png"])
	// 6.89in at 914400 EMU per inch
	assert.Equal(t, 2, strings.Count(parts["word/document.xml"], `<wp:extent cx="6300216" cy="6300216">`))
	assert.NotContains(t, parts["word/document.xml"], SignedDocumentPlaceholder)
}

func TestRender_RejectedImageBecomesPlaceholder(t *testing.T) {
	c := &casefile.Case{Examinations: []casefile.Examination{
		{ID: "e", Type: casefile.ExamHeartCT, Images: []casefile.Image{[]byte("not an image"), onePixelPNG}},
	}}
	res := Build(c, "s", nil)
	parts, degraded, doc := renderParts(t, res)

	require.Len(t, degraded, 1)
	assert.Equal(t, DegradedEmbed, degraded[0].Kind)
	assert.Equal(t, 1, degraded[0].Section)
	assert.Equal(t, 0, degraded[0].Image)
	assert.Equal(t, docx.ErrUnsupportedImage.Error(), degraded[0].Detail)

	assert.Equal(t, 1, doc.MediaCount())
	assert.Contains(t, parts["word/document.xml"], ImagePlaceholder)
	assert.Contains(t, parts["word/document.xml"], SignedDocumentPlaceholder)
}
