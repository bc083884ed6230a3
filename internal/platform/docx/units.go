package docx

import (
	"math"

	"github.com/gomutex/godocx/common/units"
)

// WordprocessingML length units.
const (
	// emuPerInch is the DrawingML English Metric Unit density. Image extents
	// are written in EMU, so a drawing sized 1in x 1in has cx = cy = 914400.
	emuPerInch = 914400

	// twipsPerInch is used for page size, margins and paragraph spacing.
	twipsPerInch = 1440
)

// inchesToEMU converts a physical length to EMU, rounding to the nearest unit.
func inchesToEMU(in float64) int64 {
	return int64(math.Round(in * emuPerInch))
}

// inchesToTwips converts a physical length to twentieths of a point.
func inchesToTwips(in float64) int {
	return int(math.Round(in * twipsPerInch))
}

// extentInches returns the inch value whose truncating EMU conversion in
// godocx lands on the rounded EMU count of in.
func extentInches(in float64) units.Inch {
	return units.Inch((float64(inchesToEMU(in)) + 0.5) / emuPerInch)
}
