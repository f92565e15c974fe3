// Package normalmap derives tangent-space normal maps from height or albedo
// images.
package normalmap

import (
	"errors"
	"fmt"
	"image"
	"math"

	"texkit/internal/filter"
	"texkit/internal/log"
	"texkit/internal/texture"
)

// PreviewSize is the edge length used for interactive previews.
const PreviewSize = 256

// Method selects the gradient estimator.
type Method string

const (
	// MethodSobel uses a 3×3 Sobel kernel with clamped borders.
	MethodSobel Method = "sobel"

	// MethodCentral uses central differences on interior pixels only and
	// leaves a transparent one-pixel border.
	MethodCentral Method = "central"
)

// ErrInvalidParams is wrapped by every Params.Validate failure.
var ErrInvalidParams = errors.New("normalmap: invalid parameters")

var logger = log.New("normalmap")

// Params controls normal-map generation.
//
// For MethodSobel a negative Blur applies a Gaussian blur with sigma |Blur|
// before the gradient pass, and a positive Blur scales the gradient by
// (1 + Blur). For MethodCentral Blur is a box-blur radius and Sharpen is an
// unsharp-mask amount in percent applied to the finished map.
type Params struct {
	Method     Method
	Strength   float64
	Blur       float64
	Sharpen    float64
	BlackPoint float64
	MidPoint   float64
	WhitePoint float64
	InvertY    bool
}

// DefaultParams returns neutral levels at strength 1.
func DefaultParams() Params {
	return Params{
		Method:     MethodSobel,
		Strength:   1,
		BlackPoint: 0,
		MidPoint:   1,
		WhitePoint: 1,
	}
}

// Validate rejects parameters that would divide by zero or name an unknown
// method.
func (p Params) Validate() error {
	switch p.Method {
	case MethodSobel, MethodCentral:
	default:
		return fmt.Errorf("%w: unknown method %q", ErrInvalidParams, p.Method)
	}
	if p.WhitePoint <= p.BlackPoint {
		return fmt.Errorf("%w: white point %.3f must exceed black point %.3f", ErrInvalidParams, p.WhitePoint, p.BlackPoint)
	}
	if p.MidPoint <= 0 {
		return fmt.Errorf("%w: mid point must be positive, got %.3f", ErrInvalidParams, p.MidPoint)
	}
	if math.IsNaN(p.Strength) || math.IsInf(p.Strength, 0) {
		return fmt.Errorf("%w: strength must be finite", ErrInvalidParams)
	}
	return nil
}

func (p Params) levels() filter.Levels {
	return filter.Levels{Black: p.BlackPoint, Mid: p.MidPoint, White: p.WhitePoint}
}

// Generate derives a w×h normal map from src, scaling src first. A zero w or
// h keeps the natural size.
func Generate(src image.Image, w, h int, p Params) (*image.NRGBA, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	b := src.Bounds()
	if w <= 0 || h <= 0 {
		w, h = b.Dx(), b.Dy()
	}
	if w == 0 || h == 0 {
		return nil, fmt.Errorf("normalmap: empty source image")
	}

	img := texture.Resize(src, w, h)
	logger.Debugf("generating %dx%d normal map (%s, strength %.2f, blur %.2f)", w, h, p.Method, p.Strength, p.Blur)

	if p.Method == MethodCentral {
		return central(img, p), nil
	}
	return sobel(img, p), nil
}

// Preview is Generate at PreviewSize×PreviewSize.
func Preview(src image.Image, p Params) (*image.NRGBA, error) {
	return Generate(src, PreviewSize, PreviewSize, p)
}

func sobel(img *image.NRGBA, p Params) *image.NRGBA {
	sharpen := 0.0
	if p.Blur < 0 {
		img = filter.GaussianBlur(img, -p.Blur)
	} else {
		sharpen = p.Blur
	}

	w, h := img.Rect.Dx(), img.Rect.Dy()
	gray := filter.Grayscale(img, p.levels())
	out := image.NewNRGBA(image.Rect(0, 0, w, h))

	base := p.Strength * 0.5 * (1 + sharpen)
	invY := 1.0
	if p.InvertY {
		invY = -1
	}

	for y := 0; y < h; y++ {
		y0, y2 := max(y-1, 0), min(y+1, h-1)
		for x := 0; x < w; x++ {
			x0, x2 := max(x-1, 0), min(x+1, w-1)

			tl, tc, tr := gray[y0*w+x0], gray[y0*w+x], gray[y0*w+x2]
			cl, cr := gray[y*w+x0], gray[y*w+x2]
			bl, bc, br := gray[y2*w+x0], gray[y2*w+x], gray[y2*w+x2]

			dx := (tr + 2*cr + br) - (tl + 2*cl + bl)
			dy := (bl + 2*bc + br) - (tl + 2*tc + tr)

			i := out.PixOffset(x, y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = encode(dx*base, dy*base*invY, 1)
			out.Pix[i+3] = 255
		}
	}
	return out
}

func central(img *image.NRGBA, p Params) *image.NRGBA {
	w, h := img.Rect.Dx(), img.Rect.Dy()

	// Quantize the leveled height to 8 bits, as the blur works on bytes
	lv := p.levels()
	height := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := img.PixOffset(x, y)
			l := filter.Luminance(img.Pix[i], img.Pix[i+1], img.Pix[i+2]) / 255
			v := filter.Clamp8(lv.Apply(l) * 255)
			o := height.PixOffset(x, y)
			height.Pix[o], height.Pix[o+1], height.Pix[o+2], height.Pix[o+3] = v, v, v, 255
		}
	}

	if r := int(p.Blur); r > 0 {
		height = filter.BoxBlur(height, r)
	}

	at := func(x, y int) float64 {
		return float64(height.Pix[height.PixOffset(x, y)]) / 255
	}

	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 1; y < h-1; y++ {
		for x := 1; x < w-1; x++ {
			sx := at(x+1, y) - at(x-1, y)
			sy := at(x, y+1) - at(x, y-1)
			ny := -sy
			if p.InvertY {
				ny = sy
			}

			i := out.PixOffset(x, y)
			out.Pix[i], out.Pix[i+1], out.Pix[i+2] = encode(-sx*p.Strength, ny*p.Strength, 1)
			out.Pix[i+3] = 255
		}
	}

	if p.Sharpen > 0 {
		out = filter.UnsharpMask(out, p.Sharpen/100)
	}
	return out
}

// encode normalizes (nx, ny, nz) and maps each component from [-1,1] to a byte.
func encode(nx, ny, nz float64) (uint8, uint8, uint8) {
	l := math.Sqrt(nx*nx + ny*ny + nz*nz)
	if l == 0 {
		l = 1
	}
	return filter.Clamp8((nx/l*0.5 + 0.5) * 255),
		filter.Clamp8((ny/l*0.5 + 0.5) * 255),
		filter.Clamp8((nz/l*0.5 + 0.5) * 255)
}
