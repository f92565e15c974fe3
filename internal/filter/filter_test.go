package filter

import (
	"image"
	"image/color"
	"math"
	"testing"
)

func gray(w, h int, f func(x, y int) uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			v := f(x, y)
			img.SetNRGBA(x, y, color.NRGBA{R: v, G: v, B: v, A: 255})
		}
	}
	return img
}

func TestLuminance(t *testing.T) {
	if got := Luminance(255, 255, 255); math.Abs(got-255) > 1e-9 {
		t.Fatalf("expected white luminance 255; got %f", got)
	}
	if got := Luminance(0, 255, 0); math.Abs(got-0.7152*255) > 1e-9 {
		t.Fatalf("expected green weight 0.7152; got %f", got/255)
	}
}

func TestLevelsApply(t *testing.T) {
	specs := []struct {
		lv   Levels
		in   float64
		want float64
	}{
		{IdentityLevels, 0.25, 0.25},
		{Levels{Black: 0.2, Mid: 1, White: 0.6}, 0.4, 0.5},
		{Levels{Black: 0.2, Mid: 1, White: 0.6}, 0.1, 0},
		{Levels{Black: 0.2, Mid: 1, White: 0.6}, 0.9, 1},
		{Levels{Black: 0, Mid: 2, White: 1}, 0.25, 0.5},
		{Levels{Black: 0, Mid: 0.5, White: 1}, 0.5, 0.25},
	}

	for i, spec := range specs {
		if got := spec.lv.Apply(spec.in); math.Abs(got-spec.want) > 1e-9 {
			t.Errorf("[spec %d] expected %f; got %f", i, spec.want, got)
		}
	}
}

func TestGrayscale(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	img.SetNRGBA(0, 0, color.NRGBA{R: 255, G: 255, B: 255, A: 255})
	img.SetNRGBA(1, 0, color.NRGBA{A: 255})

	g := Grayscale(img, IdentityLevels)
	if len(g) != 2 || math.Abs(g[0]-1) > 1e-9 || g[1] != 0 {
		t.Fatalf("expected [1 0]; got %v", g)
	}
}

func TestClamp8(t *testing.T) {
	specs := map[float64]uint8{-4: 0, 0: 0, 127.5: 128, 127.4: 127, 254.6: 255, 300: 255}
	for in, want := range specs {
		if got := Clamp8(in); got != want {
			t.Errorf("Clamp8(%f): expected %d; got %d", in, want, got)
		}
	}
}

func TestGaussianBlurPreservesUniform(t *testing.T) {
	img := gray(5, 5, func(x, y int) uint8 { return 90 })
	out := GaussianBlur(img, 1.5)
	for i := 0; i < len(out.Pix); i += 4 {
		if out.Pix[i] != 90 || out.Pix[i+3] != 255 {
			t.Fatalf("expected uniform image unchanged at %d; got %v", i/4, out.Pix[i:i+4])
		}
	}
}

func TestGaussianBlurSpreadsImpulse(t *testing.T) {
	img := gray(7, 7, func(x, y int) uint8 {
		if x == 3 && y == 3 {
			return 255
		}
		return 0
	})
	out := GaussianBlur(img, 1)

	center := out.NRGBAAt(3, 3).R
	near := out.NRGBAAt(4, 3).R
	far := out.NRGBAAt(6, 3).R
	if !(center > near && near > far) {
		t.Fatalf("expected falloff from centre; got %d > %d > %d", center, near, far)
	}
	if center == 255 {
		t.Fatal("expected impulse to spread")
	}
}

func TestGaussianBlurZeroSigmaCopies(t *testing.T) {
	img := gray(2, 2, func(x, y int) uint8 { return uint8(x*100 + y*10) })
	out := GaussianBlur(img, 0)
	if out == img {
		t.Fatal("expected a copy, not the input")
	}
	if out.NRGBAAt(1, 1).R != 110 {
		t.Fatalf("expected copied pixel 110; got %d", out.NRGBAAt(1, 1).R)
	}
}

func TestBoxBlur(t *testing.T) {
	// vertical stripe in the middle column
	img := gray(3, 3, func(x, y int) uint8 {
		if x == 1 {
			return 90
		}
		return 0
	})
	out := BoxBlur(img, 1)
	for y := 0; y < 3; y++ {
		if got := out.NRGBAAt(1, y).R; got != 30 {
			t.Fatalf("row %d: expected 30; got %d", y, got)
		}
	}
	// left edge clamps: (0 + 0 + 90) / 3
	if got := out.NRGBAAt(0, 0).G; got != 30 {
		t.Fatalf("expected clamped edge 30; got %d", got)
	}

	if same := BoxBlur(img, 0); same.NRGBAAt(1, 1).R != 90 {
		t.Fatal("expected radius 0 to copy")
	}
}

func TestUnsharpMask(t *testing.T) {
	img := gray(9, 9, func(x, y int) uint8 {
		if x == 4 && y == 4 {
			return 200
		}
		return 100
	})
	out := UnsharpMask(img, 1)

	if got := out.NRGBAAt(4, 4).R; got <= 200 {
		t.Fatalf("expected peak to be boosted above 200; got %d", got)
	}
	if got := out.NRGBAAt(0, 0).R; got != 100 {
		t.Fatalf("expected flat corner unchanged; got %d", got)
	}

	flat := UnsharpMask(img, 0)
	if flat.NRGBAAt(4, 4).R != 200 {
		t.Fatal("expected zero amount to leave image unchanged")
	}
}
