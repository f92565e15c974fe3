package filter

import (
	"image"
	"math"
)

// Rec. 709 luma weights.
const (
	lumaR = 0.2126
	lumaG = 0.7152
	lumaB = 0.0722
)

// Luminance returns the Rec. 709 luminance of an 8-bit colour in 0..255.
func Luminance(r, g, b uint8) float64 {
	return lumaR*float64(r) + lumaG*float64(g) + lumaB*float64(b)
}

// Levels is a black/mid/white point remap on normalized [0,1] values.
// Mid acts as a gamma: the output is v^(1/Mid).
type Levels struct {
	Black float64
	Mid   float64
	White float64
}

// IdentityLevels leaves values unchanged.
var IdentityLevels = Levels{Black: 0, Mid: 1, White: 1}

// Apply remaps v. Callers must ensure White > Black and Mid > 0.
func (lv Levels) Apply(v float64) float64 {
	v = (v - lv.Black) / (lv.White - lv.Black)
	v = math.Min(math.Max(v, 0), 1)
	if lv.Mid != 1 {
		v = math.Pow(v, 1/lv.Mid)
	}
	return v
}

// Grayscale converts img into a row-major height field in [0,1] using
// luminance followed by lv.
func Grayscale(img *image.NRGBA, lv Levels) []float64 {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	gray := make([]float64, w*h)

	for y := 0; y < h; y++ {
		off := y * img.Stride
		for x := 0; x < w; x++ {
			i := off + x*4
			l := Luminance(img.Pix[i], img.Pix[i+1], img.Pix[i+2]) / 255
			gray[y*w+x] = lv.Apply(l)
		}
	}
	return gray
}

// Clamp8 clamps v to 0..255 and rounds to the nearest byte.
func Clamp8(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
