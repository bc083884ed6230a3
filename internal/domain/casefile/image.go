package casefile

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/tavi/preauth/internal/platform/imagesize"
)

// Image is a binary image payload. On the wire it is a string: either a
// data URL ("data:image/png;base64,...") or bare base64.
type Image []byte

// MarshalJSON writes the payload as a data URL.
func (img Image) MarshalJSON() ([]byte, error) {
	if img == nil {
		return []byte("null"), nil
	}
	return json.Marshal(EncodeDataURL(img))
}

// UnmarshalJSON accepts a data URL, bare base64, or null.
func (img *Image) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*img = nil
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("image must be a string: %w", err)
	}
	b, err := DecodeDataURL(s)
	if err != nil {
		return err
	}
	*img = b
	return nil
}

// DecodeDataURL strips an optional data URL prefix and decodes the base64
// body. Whitespace inside the body is ignored.
func DecodeDataURL(s string) ([]byte, error) {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "data:") {
		comma := strings.IndexByte(s, ',')
		if comma < 0 {
			return nil, fmt.Errorf("malformed data url")
		}
		if !strings.HasSuffix(s[:comma], ";base64") {
			return nil, fmt.Errorf("data url is not base64 encoded")
		}
		s = s[comma+1:]
	}
	s = strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\n', '\r', '\t':
			return -1
		}
		return r
	}, s)
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		// Some encoders drop the padding.
		if b2, err2 := base64.RawStdEncoding.DecodeString(s); err2 == nil {
			return b2, nil
		}
		return nil, fmt.Errorf("invalid base64 image: %w", err)
	}
	return b, nil
}

// EncodeDataURL renders b as a base64 data URL with a sniffed media type.
func EncodeDataURL(b []byte) string {
	return "data:" + MediaType(b) + ";base64," + base64.StdEncoding.EncodeToString(b)
}

// MediaType sniffs the content type of an image payload.
func MediaType(b []byte) string {
	switch imagesize.DetectFormat(b) {
	case imagesize.FormatPNG:
		return "image/png"
	case imagesize.FormatJPEG:
		return "image/jpeg"
	}
	return http.DetectContentType(b)
}
