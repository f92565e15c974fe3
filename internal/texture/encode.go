package texture

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"
	"path/filepath"

	"github.com/HugoSmits86/nativewebp"
)

// Format identifies an output encoding.
type Format string

const (
	FormatPNG  Format = "png"
	FormatWebP Format = "webp"
)

// FormatFromPath picks the output encoding from a file extension.
func FormatFromPath(path string) (Format, error) {
	switch Ext(path) {
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	}
	return "", fmt.Errorf("%w: cannot write %s, use .png or .webp", ErrUnsupportedFormat, filepath.Base(path))
}

// ContentType returns the MIME type for f.
func (f Format) ContentType() string {
	if f == FormatWebP {
		return "image/webp"
	}
	return "image/png"
}

// Encode writes img to w. WebP output is lossless.
func Encode(w io.Writer, img image.Image, f Format) error {
	switch f {
	case FormatPNG:
		if err := png.Encode(w, img); err != nil {
			return fmt.Errorf("texture: png encode: %w", err)
		}
	case FormatWebP:
		if err := nativewebp.Encode(w, img, nil); err != nil {
			return fmt.Errorf("texture: webp encode: %w", err)
		}
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, f)
	}
	return nil
}

// EncodeBytes is Encode into a fresh buffer.
func EncodeBytes(img image.Image, f Format) ([]byte, error) {
	var buf bytes.Buffer
	if err := Encode(&buf, img, f); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
