package docx

import (
	"bytes"
	"fmt"
	"os"
)

type mediaFormat struct {
	ext       string
	signature []byte
}

var mediaFormats = []mediaFormat{
	{ext: "png", signature: []byte{0x89, 0x50, 0x4E, 0x47}},
	{ext: "jpeg", signature: []byte{0xFF, 0xD8}},
	{ext: "gif", signature: []byte("GIF8")},
	{ext: "bmp", signature: []byte("BM")},
}

func detectMedia(data []byte) (mediaFormat, bool) {
	for _, f := range mediaFormats {
		if bytes.HasPrefix(data, f.signature) {
			return f, true
		}
	}
	return mediaFormat{}, false
}

// AddPicture embeds data as an inline picture of the given physical size.
// Nothing is added to the paragraph when an error is returned.
func (p *Paragraph) AddPicture(data []byte, widthIn, heightIn float64) error {
	format, ok := detectMedia(data)
	if !ok {
		return ErrUnsupportedImage
	}
	if inchesToEMU(widthIn) <= 0 || inchesToEMU(heightIn) <= 0 {
		return fmt.Errorf("%w: %.3fin x %.3fin", ErrInvalidExtent, widthIn, heightIn)
	}

	// godocx only loads pictures from a path; the bytes are copied into the
	// package on add, so the file can go right after.
	path, err := stageMedia(data, format.ext)
	if err != nil {
		return err
	}
	defer os.Remove(path)

	if _, err := p.p.AddPicture(path, extentInches(widthIn), extentInches(heightIn)); err != nil {
		return fmt.Errorf("docx: add picture: %w", err)
	}
	p.doc.media++
	return nil
}

func stageMedia(data []byte, ext string) (string, error) {
	f, err := os.CreateTemp("", "docx-media-*."+ext)
	if err != nil {
		return "", fmt.Errorf("docx: stage picture: %w", err)
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(f.Name())
		return "", fmt.Errorf("docx: stage picture: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(f.Name())
		return "", fmt.Errorf("docx: stage picture: %w", err)
	}
	return f.Name(), nil
}
