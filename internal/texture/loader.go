package texture

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ftrvxmtrx/tga"
	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
	"golang.org/x/image/webp"
)

var (
	// ErrInvalidFileType is returned for files outside the accepted extension list.
	ErrInvalidFileType = errors.New("texture: invalid file type, expected .png, .jpg, .jpeg, .exr, .tga, .webp, .bmp or .tiff")

	// ErrUnsupportedFormat is returned for accepted files we cannot decode or encode.
	ErrUnsupportedFormat = errors.New("texture: unsupported image format")

	// ErrCorrupt is returned when a file has an accepted extension but its
	// contents fail to decode.
	ErrCorrupt = errors.New("texture: corrupt image")

	// ErrTooLarge is returned for images whose declared dimensions exceed
	// MaxDimension. The check runs on the header, before pixels are allocated.
	ErrTooLarge = errors.New("texture: image too large")
)

// MaxDimension bounds the width and height of any decoded image.
const MaxDimension = 16384

type codec struct {
	decode func(io.Reader) (image.Image, error)
	config func(io.Reader) (image.Config, error)
}

var codecs = map[string]codec{
	"png":  {png.Decode, png.DecodeConfig},
	"jpg":  {jpeg.Decode, jpeg.DecodeConfig},
	"jpeg": {jpeg.Decode, jpeg.DecodeConfig},
	"tga":  {tga.Decode, tga.DecodeConfig},
	"webp": {webp.Decode, webp.DecodeConfig},
	"bmp":  {bmp.Decode, bmp.DecodeConfig},
	"tif":  {tiff.Decode, tiff.DecodeConfig},
	"tiff": {tiff.Decode, tiff.DecodeConfig},
}

var validExtensions = map[string]bool{
	"png":  true,
	"jpg":  true,
	"jpeg": true,
	"exr":  true,
	"tga":  true,
	"webp": true,
	"bmp":  true,
	"tif":  true,
	"tiff": true,
}

// Ext returns the lowercase extension of name without the dot.
func Ext(name string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(name)), ".")
}

// ValidateExtension checks name against the accepted texture extensions.
func ValidateExtension(name string) error {
	if !validExtensions[Ext(name)] {
		return fmt.Errorf("%w: %s", ErrInvalidFileType, filepath.Base(name))
	}
	return nil
}

// Load reads an image file and returns it as NRGBA with bounds at the origin.
func Load(path string) (*image.NRGBA, error) {
	if err := ValidateExtension(path); err != nil {
		return nil, err
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", path, err)
	}
	defer f.Close()

	return Decode(f, path)
}

// Decode decodes r using the decoder selected by the extension of name.
// Dispatching on the extension keeps the TGA decoder, which has no magic
// bytes, from claiming other formats. The header is checked against
// MaxDimension before the pixels are decoded.
func Decode(r io.Reader, name string) (*image.NRGBA, error) {
	base := filepath.Base(name)
	ext := Ext(name)
	if ext == "exr" {
		return nil, fmt.Errorf("%w: no EXR decoder available for %s", ErrUnsupportedFormat, base)
	}
	c, ok := codecs[ext]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidFileType, base)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("texture: read %s: %w", base, err)
	}

	cfg, err := c.config(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrCorrupt, base, err)
	}
	if cfg.Width > MaxDimension || cfg.Height > MaxDimension {
		return nil, fmt.Errorf("%w: %s is %dx%d, limit %d", ErrTooLarge, base, cfg.Width, cfg.Height, MaxDimension)
	}

	img, err := c.decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%w: decode %s: %w", ErrCorrupt, base, err)
	}

	return ToNRGBA(img), nil
}

// ToNRGBA converts any image to NRGBA with bounds starting at (0, 0).
func ToNRGBA(src image.Image) *image.NRGBA {
	b := src.Bounds()
	if n, ok := src.(*image.NRGBA); ok && b.Min == (image.Point{}) {
		return n
	}
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// Resize scales src to w×h with bilinear filtering, stretching to fill like a
// canvas drawImage into a square target.
func Resize(src image.Image, w, h int) *image.NRGBA {
	b := src.Bounds()
	if b.Dx() == w && b.Dy() == h {
		return ToNRGBA(src)
	}
	dst := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.BiLinear.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)
	return dst
}
