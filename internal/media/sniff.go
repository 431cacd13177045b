package media

import (
	"bytes"
	"fmt"
	"image"

	// Decoders for the accepted formats.
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"github.com/gabriel-vasile/mimetype"
	_ "golang.org/x/image/webp"
)

// Accepted upload formats, in the order they are tried.
var acceptedTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// Sniffed is the result of inspecting an upload's content.
type Sniffed struct {
	MimeType    string
	Extension   string
	Width       int
	Height      int
	Orientation Orientation
}

// Sniff detects the MIME type from content, never from the filename, and
// reads the image dimensions without decoding the pixels.
func Sniff(data []byte) (Sniffed, error) {
	if len(data) == 0 {
		return Sniffed{}, ErrEmptyUpload
	}
	detected := mimetype.Detect(data)
	mimeType := ""
	for _, accepted := range acceptedTypes {
		if detected.Is(accepted) {
			mimeType = accepted
			break
		}
	}
	if mimeType == "" {
		return Sniffed{}, &UnsupportedMediaTypeError{MimeType: detected.String()}
	}

	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Sniffed{}, fmt.Errorf("%w: %v", ErrImageDecode, err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Sniffed{}, fmt.Errorf("%w: empty image bounds", ErrImageDecode)
	}
	return Sniffed{
		MimeType:    mimeType,
		Extension:   detected.Extension(),
		Width:       cfg.Width,
		Height:      cfg.Height,
		Orientation: OrientationFor(cfg.Width, cfg.Height),
	}, nil
}
