package application

import (
	"errors"
	"fmt"

	"github.com/tavi/preauth/internal/platform/imagesize"
)

// Print policy, in inches. Every image is laid out 17.5 cm wide unless that
// would make it taller than MaxHeight.
const (
	TargetWidth = 6.89
	MaxHeight   = 9.0
)

var ErrInvalidDimensions = errors.New("invalid image dimensions")

// LayoutSize is the physical size, in inches, given to an embedded image.
type LayoutSize struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Size maps pixel dimensions to a print size with the aspect ratio kept.
// The height cap wins over the fixed width for tall images.
func Size(d imagesize.Descriptor) (LayoutSize, error) {
	if d.Width <= 0 || d.Height <= 0 {
		return LayoutSize{}, fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, d.Width, d.Height)
	}
	ratio := float64(d.Width) / float64(d.Height)
	w := TargetWidth
	h := w / ratio
	if h > MaxHeight {
		h = MaxHeight
		w = h * ratio
	}
	return LayoutSize{Width: w, Height: h}, nil
}

// SizeOrFallback sizes d, falling back to the landscape fallback
// descriptor for degenerate geometry. degraded is true when the fallback
// was used.
func SizeOrFallback(d imagesize.Descriptor) (size LayoutSize, degraded bool) {
	s, err := Size(d)
	if err == nil {
		return s, false
	}
	s, _ = Size(imagesize.FallbackDescriptor())
	return s, true
}
