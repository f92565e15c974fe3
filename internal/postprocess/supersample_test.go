package postprocess

import (
	"image"
	"image/color"
	"testing"
)

func TestDownsampleKeepsSmallImages(t *testing.T) {
	img := image.NewNRGBA(image.Rect(0, 0, 8, 8))
	if got := Downsample(img, 8, 8); got != img {
		t.Fatal("expected the same image back when already at target size")
	}
}

func TestDownsampleNoDarkHalo(t *testing.T) {
	// Left half opaque red, right half transparent black
	img := image.NewNRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 8; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: 255, A: 255})
		}
	}

	out := Downsample(img, 4, 4)
	if out.Bounds().Dx() != 4 || out.Bounds().Dy() != 4 {
		t.Fatalf("expected 4x4; got %v", out.Bounds())
	}

	for y := 0; y < 4; y++ {
		for x := 0; x < 4; x++ {
			c := out.NRGBAAt(x, y)
			if c.A > 16 && c.R < 240 {
				t.Fatalf("pixel (%d,%d) = %v: expected straight-alpha red without darkening", x, y, c)
			}
		}
	}
	if c := out.NRGBAAt(0, 0); c.A != 255 {
		t.Fatalf("expected opaque left edge; got %v", c)
	}
	if c := out.NRGBAAt(3, 0); c.A != 0 {
		t.Fatalf("expected transparent right edge; got %v", c)
	}
}
