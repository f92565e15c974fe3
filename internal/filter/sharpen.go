package filter

import "image"

const unsharpRadius = 2

// UnsharpMask sharpens R, G and B by amount against a radius-2 box blur:
// v + (v - blur(v)) * amount. Alpha is kept.
func UnsharpMask(img *image.NRGBA, amount float64) *image.NRGBA {
	blurred := BoxBlur(img, unsharpRadius)
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	copyPix(out, img)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			o := out.PixOffset(x, y)
			for c := 0; c < 3; c++ {
				d := float64(out.Pix[o+c])
				out.Pix[o+c] = Clamp8(d + (d-float64(blurred.Pix[o+c]))*amount)
			}
		}
	}
	return out
}
