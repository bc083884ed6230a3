package imagesize

import (
	"math/rand"
	"testing"
)

// =========== Fixtures ===========

// transparentPNG is a complete 1x1 RGBA PNG.
var transparentPNG = []byte{
	0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A,
	0x00, 0x00, 0x00, 0x0D, 0x49, 0x48, 0x44, 0x52,
	0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1F, 0x15, 0xC4,
	0x89, 0x00, 0x00, 0x00, 0x0A, 0x49, 0x44, 0x41,
	0x54, 0x78, 0x9C, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0D, 0x0A, 0x2D, 0xB4, 0x00,
	0x00, 0x00, 0x00, 0x49, 0x45, 0x4E, 0x44, 0xAE,
	0x42, 0x60, 0x82,
}

func pngHeader(w, h uint32) []byte {
	buf := make([]byte, 24)
	copy(buf, transparentPNG[:16])
	buf[16], buf[17], buf[18], buf[19] = byte(w>>24), byte(w>>16), byte(w>>8), byte(w)
	buf[20], buf[21], buf[22], buf[23] = byte(h>>24), byte(h>>16), byte(h>>8), byte(h)
	return buf
}

// jpegWithFrame builds SOI, an APP0 segment, then a start-of-frame segment
// using the given marker byte.
func jpegWithFrame(marker byte, w, h uint16) []byte {
	buf := []byte{0xFF, 0xD8}
	// APP0 / JFIF, length 16 (includes the two length bytes).
	buf = append(buf, 0xFF, 0xE0, 0x00, 0x10)
	buf = append(buf, []byte("JFIF\x00\x01\x01\x00\x00\x01\x00\x01\x00\x00")...)
	// SOFn: length 17, precision 8, height, width, 3 components.
	buf = append(buf, 0xFF, marker, 0x00, 0x11, 0x08,
		byte(h>>8), byte(h), byte(w>>8), byte(w), 0x03,
		0x01, 0x22, 0x00, 0x02, 0x11, 0x01, 0x03, 0x11, 0x01)
	// Start of scan and EOI so the buffer looks like a real file.
	buf = append(buf, 0xFF, 0xDA, 0x00, 0x02, 0x12, 0x34, 0xFF, 0xD9)
	return buf
}

func assertFallback(t *testing.T, r Result) {
	t.Helper()
	if !r.Fallback {
		t.Errorf("expected fallback result, got %+v", r)
	}
	if r.Width != FallbackWidth || r.Height != FallbackHeight {
		t.Errorf("expected %dx%d fallback, got %dx%d", FallbackWidth, FallbackHeight, r.Width, r.Height)
	}
}

// =========== PNG ===========

func TestInspect_PNG_OneByOne(t *testing.T) {
	r := Inspect(transparentPNG)
	if r.Fallback {
		t.Fatalf("unexpected fallback: %s", r.Reason)
	}
	if r.Width != 1 || r.Height != 1 {
		t.Errorf("expected 1x1, got %dx%d", r.Width, r.Height)
	}
	if r.Format != FormatPNG {
		t.Errorf("expected png format, got %s", r.Format)
	}
}

func TestInspect_PNG_ReadsIHDRDimensions(t *testing.T) {
	cases := []struct{ w, h uint32 }{
		{800, 600},
		{1, 4000},
		{65536, 3},
		{0xFFFFFF, 0x10000},
	}
	for _, tc := range cases {
		r := Inspect(pngHeader(tc.w, tc.h))
		if r.Fallback {
			t.Errorf("%dx%d: unexpected fallback", tc.w, tc.h)
			continue
		}
		if r.Width != int(tc.w) || r.Height != int(tc.h) {
			t.Errorf("expected %dx%d, got %dx%d", tc.w, tc.h, r.Width, r.Height)
		}
	}
}

func TestInspect_PNG_TruncatedHeader(t *testing.T) {
	r := Inspect(transparentPNG[:20])
	assertFallback(t, r)
	if r.Reason != ReasonTruncated {
		t.Errorf("expected truncated reason, got %q", r.Reason)
	}
	if r.Format != FormatPNG {
		t.Errorf("expected png format on truncated header, got %s", r.Format)
	}
}

// =========== JPEG ===========

func TestInspect_JPEG_BaselineFrame(t *testing.T) {
	r := Inspect(jpegWithFrame(0xC0, 640, 480))
	if r.Fallback {
		t.Fatalf("unexpected fallback: %s", r.Reason)
	}
	if r.Width != 640 || r.Height != 480 {
		t.Errorf("expected 640x480, got %dx%d", r.Width, r.Height)
	}
	if r.Format != FormatJPEG {
		t.Errorf("expected jpeg format, got %s", r.Format)
	}
}

func TestInspect_JPEG_ProgressiveFrame(t *testing.T) {
	r := Inspect(jpegWithFrame(0xC2, 1024, 2048))
	if r.Width != 1024 || r.Height != 2048 {
		t.Errorf("expected 1024x2048, got %dx%d", r.Width, r.Height)
	}
}

func TestInspect_JPEG_NoStartOfFrame(t *testing.T) {
	buf := []byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x04, 0x00, 0x00, 0xFF, 0xD9, 0x00, 0x00}
	r := Inspect(buf)
	assertFallback(t, r)
	if r.Format != FormatJPEG {
		t.Errorf("expected jpeg format, got %s", r.Format)
	}
}

func TestInspect_JPEG_SkipsNonMarkerBytes(t *testing.T) {
	frame := jpegWithFrame(0xC0, 300, 200)
	// Insert garbage between SOI and the first marker.
	buf := append([]byte{0xFF, 0xD8, 0x00, 0x11, 0x22}, frame[2:]...)
	r := Inspect(buf)
	if r.Fallback || r.Width != 300 || r.Height != 200 {
		t.Errorf("expected 300x200, got %+v", r)
	}
}

func TestInspect_JPEG_ZeroLengthSegmentTerminates(t *testing.T) {
	buf := []byte{0xFF, 0xD8, 0xFF, 0xE1, 0x00, 0x00, 0xFF, 0xE1, 0x00, 0x00}
	assertFallback(t, Inspect(buf))
}

func TestInspect_JPEG_TruncatedFrame(t *testing.T) {
	frame := jpegWithFrame(0xC0, 640, 480)
	// Cut inside the SOF0 segment, before the width bytes.
	idx := 2 + 4 + 14 + 6
	r := Inspect(frame[:idx])
	assertFallback(t, r)
	if r.Reason != ReasonTruncated {
		t.Errorf("expected truncated reason, got %q", r.Reason)
	}
}

func TestInspect_JPEG_EveryPrefixIsSafe(t *testing.T) {
	frame := jpegWithFrame(0xC0, 640, 480)
	for i := 0; i <= len(frame); i++ {
		r := Inspect(frame[:i])
		if r.Width <= 0 || r.Height <= 0 {
			t.Fatalf("prefix %d: non-positive size %+v", i, r)
		}
	}
}

// =========== Fallback ===========

func TestInspect_NonImagePayloads(t *testing.T) {
	cases := map[string][]byte{
		"nil":    nil,
		"empty":  {},
		"gif":    []byte("GIF89a\x01\x00\x01\x00\x80\x00\x00"),
		"bmp":    []byte("BM\x3a\x00\x00\x00\x00\x00\x00\x00\x36\x00\x00\x00"),
		"text":   []byte("not an image at all"),
		"pngish": {0x89, 0x50},
	}
	for name, buf := range cases {
		t.Run(name, func(t *testing.T) {
			r := Inspect(buf)
			assertFallback(t, r)
		})
	}
}

func TestInspect_RandomBytesNeverPanic(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	for i := 0; i < 2000; i++ {
		buf := make([]byte, rng.Intn(64))
		rng.Read(buf)
		if i%3 == 0 && len(buf) >= 2 {
			buf[0], buf[1] = 0xFF, 0xD8
		}
		if i%5 == 0 && len(buf) >= 4 {
			copy(buf, pngSignature)
		}
		r := Inspect(buf)
		if !r.Fallback && r.Format == FormatUnknown {
			t.Fatalf("unknown format must fall back: %+v", r)
		}
	}
}

func TestInspect_Deterministic(t *testing.T) {
	buf := jpegWithFrame(0xC0, 17, 23)
	a, b := Inspect(buf), Inspect(buf)
	if a != b {
		t.Errorf("expected identical results, got %+v and %+v", a, b)
	}
}

func TestDetectFormat(t *testing.T) {
	if DetectFormat(transparentPNG) != FormatPNG {
		t.Error("expected png")
	}
	if DetectFormat(jpegWithFrame(0xC0, 1, 1)) != FormatJPEG {
		t.Error("expected jpeg")
	}
	if DetectFormat([]byte("GIF89a")) != FormatUnknown {
		t.Error("expected unknown for gif")
	}
}
