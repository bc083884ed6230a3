package casefile

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestPatient_Age(t *testing.T) {
	now := time.Date(2025, 4, 21, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		birth string
		want  int
		ok    bool
	}{
		{"1940-04-21", 85, true},
		{"1940-04-22", 84, true},
		{"1940-03-30", 85, true},
		{"1940-12-01", 84, true},
		{"", 0, false},
		{"21/04/1940", 0, false},
	}
	for _, tt := range tests {
		got, ok := Patient{BirthDate: tt.birth}.Age(now)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Age(%q) = %d,%v want %d,%v", tt.birth, got, ok, tt.want, tt.ok)
		}
	}
}

var tinyPNG = []byte{0x89, 0x50, 0x4E, 0x47, 0x0D, 0x0A, 0x1A, 0x0A}

func TestDecodeDataURL(t *testing.T) {
	b64 := base64.StdEncoding.EncodeToString(tinyPNG)
	for _, in := range []string{
		"data:image/png;base64," + b64,
		b64,
		"  " + b64[:4] + "\n" + b64[4:] + "  ",
		strings.TrimRight(b64, "="),
	} {
		got, err := DecodeDataURL(in)
		if err != nil {
			t.Errorf("DecodeDataURL(%q): %v", in, err)
			continue
		}
		if string(got) != string(tinyPNG) {
			t.Errorf("DecodeDataURL(%q) = %x", in, got)
		}
	}
}

func TestDecodeDataURL_Errors(t *testing.T) {
	for _, in := range []string{
		"data:image/png;base64",
		"data:image/svg+xml,<svg/>",
		"!!not base64!!",
	} {
		if _, err := DecodeDataURL(in); err == nil {
			t.Errorf("expected error for %q", in)
		}
	}
}

func TestImage_JSONRoundTrip(t *testing.T) {
	e := Examination{ID: "x", Type: ExamEKG, Images: []Image{tinyPNG}}
	b, err := json.Marshal(e)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(b), `"data:image/png;base64,`) {
		t.Errorf("expected png data url in %s", b)
	}

	var back Examination
	if err := json.Unmarshal(b, &back); err != nil {
		t.Fatal(err)
	}
	if len(back.Images) != 1 || string(back.Images[0]) != string(tinyPNG) {
		t.Errorf("image payload not preserved: %x", back.Images)
	}
}

func TestImage_UnmarshalNullAndInvalid(t *testing.T) {
	var c Case
	if err := json.Unmarshal([]byte(`{"signedDocument":null}`), &c); err != nil {
		t.Fatalf("null should decode: %v", err)
	}
	if c.SignedDocument != nil {
		t.Error("expected nil signed document")
	}
	if err := json.Unmarshal([]byte(`{"signedDocument":42}`), &c); err == nil {
		t.Error("expected error for non-string image")
	}
}

func TestCase_OmitsEmptySignedDocument(t *testing.T) {
	b, err := json.Marshal(Case{})
	if err != nil {
		t.Fatal(err)
	}
	if strings.Contains(string(b), "signedDocument") {
		t.Errorf("expected signedDocument to be omitted, got %s", b)
	}
}

func TestMediaType(t *testing.T) {
	if got := MediaType(tinyPNG); got != "image/png" {
		t.Errorf("expected image/png, got %s", got)
	}
	if got := MediaType([]byte{0xFF, 0xD8, 0xFF, 0xE0}); got != "image/jpeg" {
		t.Errorf("expected image/jpeg, got %s", got)
	}
	if got := MediaType([]byte("GIF89a....")); got != "image/gif" {
		t.Errorf("expected image/gif, got %s", got)
	}
}
