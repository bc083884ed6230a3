// Package imagesize reads the pixel dimensions of an embedded image from its
// container header without decoding any pixel data. Only PNG and baseline or
// progressive JPEG are understood; every other payload, and every truncated
// or corrupted header, resolves to a fixed landscape fallback so callers can
// always lay the image out.
package imagesize

import (
	"bytes"
	"encoding/binary"
)

// Fallback dimensions used whenever the header cannot be read (16:9).
const (
	FallbackWidth  = 1920
	FallbackHeight = 1080
)

// Format identifies the container detected from the signature bytes.
type Format string

const (
	FormatPNG     Format = "png"
	FormatJPEG    Format = "jpeg"
	FormatUnknown Format = "unknown"
)

// Reason explains why a fallback was returned.
type Reason string

const (
	ReasonNone         Reason = ""
	ReasonUnsupported  Reason = "unsupported-signature"
	ReasonTruncated    Reason = "truncated-header"
	ReasonNoStartFrame Reason = "no-start-of-frame"
)

var (
	pngSignature  = []byte{0x89, 0x50, 0x4E, 0x47}
	jpegSignature = []byte{0xFF, 0xD8}
)

// Marker bytes and fixed header offsets.
const (
	markerPrefix     = 0xFF
	markerSOF0       = 0xC0
	markerSOF2       = 0xC2
	jpegHeightOffset = 5
	jpegWidthOffset  = 7
	jpegLengthOffset = 2
	pngWidthOffset   = 16
	pngHeightOffset  = 20
)

// Descriptor is the intrinsic pixel size of an image.
type Descriptor struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Result is the outcome of an inspection. When Fallback is true the
// Descriptor holds the fallback dimensions and Reason says why.
type Result struct {
	Descriptor
	Format   Format `json:"format"`
	Fallback bool   `json:"fallback"`
	Reason   Reason `json:"reason,omitempty"`
}

// FallbackDescriptor returns the landscape fallback size.
func FallbackDescriptor() Descriptor {
	return Descriptor{Width: FallbackWidth, Height: FallbackHeight}
}

// Inspect returns the pixel dimensions encoded in buf. It never panics and
// always returns a usable size.
func Inspect(buf []byte) Result {
	switch {
	case bytes.HasPrefix(buf, pngSignature):
		return inspectPNG(buf)
	case bytes.HasPrefix(buf, jpegSignature):
		return inspectJPEG(buf)
	default:
		return fallback(FormatUnknown, ReasonUnsupported)
	}
}

// DetectFormat reports the container format by signature only.
func DetectFormat(buf []byte) Format {
	switch {
	case bytes.HasPrefix(buf, pngSignature):
		return FormatPNG
	case bytes.HasPrefix(buf, jpegSignature):
		return FormatJPEG
	default:
		return FormatUnknown
	}
}

// inspectPNG relies on IHDR being the first chunk after the 8-byte
// signature, which puts width and height at fixed offsets.
func inspectPNG(buf []byte) Result {
	w, ok := readUint32(buf, pngWidthOffset)
	if !ok {
		return fallback(FormatPNG, ReasonTruncated)
	}
	h, ok := readUint32(buf, pngHeightOffset)
	if !ok {
		return fallback(FormatPNG, ReasonTruncated)
	}
	return Result{
		Descriptor: Descriptor{Width: int(w), Height: int(h)},
		Format:     FormatPNG,
	}
}

func inspectJPEG(buf []byte) Result {
	offset := len(jpegSignature)
	for offset < len(buf) {
		if buf[offset] != markerPrefix {
			offset++
			continue
		}
		if offset+1 >= len(buf) {
			return fallback(FormatJPEG, ReasonTruncated)
		}

		marker := buf[offset+1]
		if marker == markerSOF0 || marker == markerSOF2 {
			h, okH := readUint16(buf, offset+jpegHeightOffset)
			w, okW := readUint16(buf, offset+jpegWidthOffset)
			if !okH || !okW {
				return fallback(FormatJPEG, ReasonTruncated)
			}
			return Result{
				Descriptor: Descriptor{Width: int(w), Height: int(h)},
				Format:     FormatJPEG,
			}
		}

		length, ok := readUint16(buf, offset+jpegLengthOffset)
		if !ok {
			return fallback(FormatJPEG, ReasonTruncated)
		}
		// length+2 is at least 2, so the scan always moves forward.
		offset += int(length) + 2
	}
	return fallback(FormatJPEG, ReasonNoStartFrame)
}

func readUint32(buf []byte, off int) (uint32, bool) {
	if off < 0 || off+4 > len(buf) {
		return 0, false
	}
	return binary.BigEndian.Uint32(buf[off : off+4]), true
}

func readUint16(buf []byte, off int) (uint16, bool) {
	if off < 0 || off+2 > len(buf) {
		return 0, false
	}
	return binary.BigEndian.Uint16(buf[off : off+2]), true
}

func fallback(f Format, r Reason) Result {
	return Result{
		Descriptor: FallbackDescriptor(),
		Format:     f,
		Fallback:   true,
		Reason:     r,
	}
}
