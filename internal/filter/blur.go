package filter

import (
	"image"
	"math"
)

// GaussianBlur blurs all four channels of img with standard deviation sigma
// in pixels. Samples past the border are clamped to the edge.
func GaussianBlur(img *image.NRGBA, sigma float64) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	if sigma <= 0 || w == 0 || h == 0 {
		copyPix(out, img)
		return out
	}

	kernel := gaussianKernel(sigma)
	r := len(kernel) / 2

	// Horizontal pass into float scratch, vertical pass into out
	tmp := make([]float64, w*h*4)
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			var acc [4]float64
			for k := -r; k <= r; k++ {
				ix := clampInt(x+k, 0, w-1)
				wt := kernel[k+r]
				i := row + ix*4
				acc[0] += float64(img.Pix[i]) * wt
				acc[1] += float64(img.Pix[i+1]) * wt
				acc[2] += float64(img.Pix[i+2]) * wt
				acc[3] += float64(img.Pix[i+3]) * wt
			}
			copy(tmp[(y*w+x)*4:], acc[:])
		}
	}

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [4]float64
			for k := -r; k <= r; k++ {
				iy := clampInt(y+k, 0, h-1)
				wt := kernel[k+r]
				i := (iy*w + x) * 4
				acc[0] += tmp[i] * wt
				acc[1] += tmp[i+1] * wt
				acc[2] += tmp[i+2] * wt
				acc[3] += tmp[i+3] * wt
			}
			o := out.PixOffset(x, y)
			out.Pix[o] = Clamp8(acc[0])
			out.Pix[o+1] = Clamp8(acc[1])
			out.Pix[o+2] = Clamp8(acc[2])
			out.Pix[o+3] = Clamp8(acc[3])
		}
	}
	return out
}

// gaussianKernel returns a normalized 1D kernel covering ±3σ.
func gaussianKernel(sigma float64) []float64 {
	r := int(math.Ceil(sigma * 3))
	if r < 1 {
		r = 1
	}
	kernel := make([]float64, 2*r+1)
	var sum float64
	for i := -r; i <= r; i++ {
		v := math.Exp(-float64(i*i) / (2 * sigma * sigma))
		kernel[i+r] = v
		sum += v
	}
	for i := range kernel {
		kernel[i] /= sum
	}
	return kernel
}

// BoxBlur is a two-pass box blur over the R, G and B channels with clamped
// edges. Alpha is kept.
func BoxBlur(img *image.NRGBA, radius int) *image.NRGBA {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	out := image.NewNRGBA(image.Rect(0, 0, w, h))
	copyPix(out, img)
	if radius <= 0 || w == 0 || h == 0 {
		return out
	}

	n := float64(2*radius + 1)
	tmp := make([]uint8, w*h*3)

	// horizontal
	for y := 0; y < h; y++ {
		row := y * img.Stride
		for x := 0; x < w; x++ {
			var acc [3]float64
			for k := -radius; k <= radius; k++ {
				i := row + clampInt(x+k, 0, w-1)*4
				acc[0] += float64(img.Pix[i])
				acc[1] += float64(img.Pix[i+1])
				acc[2] += float64(img.Pix[i+2])
			}
			t := (y*w + x) * 3
			tmp[t] = Clamp8(acc[0] / n)
			tmp[t+1] = Clamp8(acc[1] / n)
			tmp[t+2] = Clamp8(acc[2] / n)
		}
	}

	// vertical
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var acc [3]float64
			for k := -radius; k <= radius; k++ {
				t := (clampInt(y+k, 0, h-1)*w + x) * 3
				acc[0] += float64(tmp[t])
				acc[1] += float64(tmp[t+1])
				acc[2] += float64(tmp[t+2])
			}
			o := out.PixOffset(x, y)
			out.Pix[o] = Clamp8(acc[0] / n)
			out.Pix[o+1] = Clamp8(acc[1] / n)
			out.Pix[o+2] = Clamp8(acc[2] / n)
		}
	}
	return out
}

func copyPix(dst, src *image.NRGBA) {
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		copy(dst.Pix[y*dst.Stride:y*dst.Stride+w*4], src.Pix[y*src.Stride:y*src.Stride+w*4])
	}
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
