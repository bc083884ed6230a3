package application

import "github.com/tavi/preauth/internal/platform/imagesize"

// BlockKind tags a formatted content block.
type BlockKind string

const (
	KindTitle       BlockKind = "title"
	KindHeading     BlockKind = "heading"
	KindParagraph   BlockKind = "paragraph"
	KindHighlight   BlockKind = "highlight"
	KindImage       BlockKind = "image"
	KindDivider     BlockKind = "divider"
	KindPlaceholder BlockKind = "placeholder"
)

// Block is one entry of the ordered document outline. Section is the
// running section number the block belongs to, zero for the preamble.
type Block struct {
	Kind    BlockKind   `json:"kind"`
	Section int         `json:"section,omitempty"`
	Text    string      `json:"text,omitempty"`
	Label   string      `json:"label,omitempty"`
	Image   *ImageBlock `json:"image,omitempty"`
}

// ImageBlock carries an image payload with its inspected and print sizes.
// Index is the position of the image within its section.
type ImageBlock struct {
	Data   []byte               `json:"-"`
	Index  int                  `json:"index"`
	Format imagesize.Format     `json:"format"`
	Pixels imagesize.Descriptor `json:"pixels"`
	Size   LayoutSize           `json:"size"`
}

// DegradationKind names a locally recovered failure.
type DegradationKind string

const (
	DegradedHeader     DegradationKind = "malformed-image-header"
	DegradedDimensions DegradationKind = "invalid-image-dimensions"
	DegradedEmbed      DegradationKind = "image-embed-failure"
)

// Degradation records an image that was laid out with fallback geometry or
// replaced by a placeholder. The document is still complete.
type Degradation struct {
	Kind    DegradationKind `json:"kind"`
	Section int             `json:"section"`
	Image   int             `json:"image"`
	Detail  string          `json:"detail,omitempty"`
}
