package application

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tavi/preauth/internal/platform/imagesize"
)

func TestSize_SquareUsesTargetWidth(t *testing.T) {
	s, err := Size(imagesize.Descriptor{Width: 1, Height: 1})
	require.NoError(t, err)
	assert.Equal(t, LayoutSize{Width: TargetWidth, Height: TargetWidth}, s)
}

func TestSize_Landscape(t *testing.T) {
	s, err := Size(imagesize.Descriptor{Width: 1920, Height: 1080})
	require.NoError(t, err)
	assert.Equal(t, TargetWidth, s.Width)
	assert.InDelta(t, TargetWidth*1080/1920, s.Height, 1e-9)
}

func TestSize_HeightCap(t *testing.T) {
	s, err := Size(imagesize.Descriptor{Width: 1000, Height: 2000})
	require.NoError(t, err)
	assert.Equal(t, MaxHeight, s.Height)
	assert.InDelta(t, 4.5, s.Width, 1e-9)
}

func TestSize_PreservesAspectRatio(t *testing.T) {
	for _, d := range []imagesize.Descriptor{
		{Width: 1, Height: 1},
		{Width: 640, Height: 480},
		{Width: 480, Height: 640},
		{Width: 3, Height: 1000},
		{Width: 10000, Height: 7},
		{Width: 2480, Height: 3508},
	} {
		s, err := Size(d)
		require.NoError(t, err)
		assert.InDelta(t, float64(d.Width)/float64(d.Height), s.Width/s.Height, 1e-9, "%dx%d", d.Width, d.Height)
		assert.LessOrEqual(t, s.Height, MaxHeight)
		assert.LessOrEqual(t, s.Width, TargetWidth)
	}
}

func TestSize_Deterministic(t *testing.T) {
	d := imagesize.Descriptor{Width: 1234, Height: 987}
	a, err := Size(d)
	require.NoError(t, err)
	b, err := Size(d)
	require.NoError(t, err)
	assert.Equal(t, a, b)
}

func TestSize_RejectsDegenerateDimensions(t *testing.T) {
	for _, d := range []imagesize.Descriptor{
		{Width: 0, Height: 0},
		{Width: 100, Height: 0},
		{Width: 0, Height: 100},
		{Width: -1, Height: 10},
	} {
		_, err := Size(d)
		assert.ErrorIs(t, err, ErrInvalidDimensions)
	}
}

func TestSizeOrFallback(t *testing.T) {
	s, degraded := SizeOrFallback(imagesize.Descriptor{Width: 10, Height: 0})
	assert.True(t, degraded)
	want, err := Size(imagesize.FallbackDescriptor())
	require.NoError(t, err)
	assert.Equal(t, want, s)

	s, degraded = SizeOrFallback(imagesize.Descriptor{Width: 1, Height: 1})
	assert.False(t, degraded)
	assert.Equal(t, TargetWidth, s.Height)
}
