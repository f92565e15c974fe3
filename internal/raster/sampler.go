package raster

import "image"

// SampleTexture performs bilinear filtering with UV wrapping. V runs down the
// image (row 0 at v = 0). Channels are returned unrounded in 0..255 so
// normal vectors keep sub-byte precision.
func SampleTexture(tex *image.NRGBA, u, v float64) [4]float64 {
	w := tex.Rect.Dx()
	h := tex.Rect.Dy()

	u = wrap01(u)
	v = wrap01(v)

	fx := u * float64(w-1)
	fy := v * float64(h-1)
	x0 := int(fx)
	y0 := int(fy)
	x1 := (x0 + 1) % w
	y1 := (y0 + 1) % h
	dx := fx - float64(x0)
	dy := fy - float64(y0)

	stride := tex.Stride
	pix := tex.Pix

	i00 := y0*stride + x0*4
	i10 := y0*stride + x1*4
	i01 := y1*stride + x0*4
	i11 := y1*stride + x1*4

	w00 := (1 - dx) * (1 - dy)
	w10 := dx * (1 - dy)
	w01 := (1 - dx) * dy
	w11 := dx * dy

	var out [4]float64
	for c := 0; c < 4; c++ {
		out[c] = float64(pix[i00+c])*w00 + float64(pix[i10+c])*w10 +
			float64(pix[i01+c])*w01 + float64(pix[i11+c])*w11
	}
	return out
}

func wrap01(t float64) float64 {
	t -= float64(int(t))
	if t < 0 {
		t += 1
	}
	return t
}
