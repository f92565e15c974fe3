package orm

import (
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"texkit/internal/texture"
)

func solid(size int, v uint8) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = v, 255-v, 7, 255
	}
	return img
}

func TestPack(t *testing.T) {
	specs := []struct {
		name     string
		ao       ChannelSource
		rough    ChannelSource
		metal    ChannelSource
		useGloss bool
		want     color.NRGBA
	}{
		{
			name:  "maps read from red channel",
			ao:    ChannelSource{Map: solid(2, 10)},
			rough: ChannelSource{Map: solid(2, 20)},
			metal: ChannelSource{Map: solid(2, 30)},
			want:  color.NRGBA{10, 20, 30, 255},
		},
		{
			name: "missing maps default to zero",
			want: color.NRGBA{0, 0, 0, 255},
		},
		{
			name:  "override wins over map",
			ao:    ChannelSource{Map: solid(2, 10), Override: true, Value: 255},
			rough: ChannelSource{Override: true, Value: 128},
			metal: ChannelSource{Map: solid(2, 30), Override: true, Value: 0},
			want:  color.NRGBA{255, 128, 0, 255},
		},
		{
			name:     "gloss inverts roughness map",
			rough:    ChannelSource{Map: solid(2, 200)},
			useGloss: true,
			want:     color.NRGBA{0, 55, 0, 255},
		},
		{
			name:     "gloss inverts roughness override",
			rough:    ChannelSource{Override: true, Value: 40},
			useGloss: true,
			want:     color.NRGBA{0, 215, 0, 255},
		},
		{
			name:     "gloss of a missing map stays zero",
			useGloss: true,
			want:     color.NRGBA{0, 0, 0, 255},
		},
	}

	for _, spec := range specs {
		out, err := Pack(spec.ao, spec.rough, spec.metal, 2, spec.useGloss)
		if err != nil {
			t.Errorf("%s: unexpected error %v", spec.name, err)
			continue
		}
		for y := 0; y < 2; y++ {
			for x := 0; x < 2; x++ {
				if got := out.NRGBAAt(x, y); got != spec.want {
					t.Errorf("%s: pixel (%d,%d) expected %v; got %v", spec.name, x, y, spec.want, got)
				}
			}
		}
	}
}

func TestPackPerPixel(t *testing.T) {
	ao := image.NewNRGBA(image.Rect(0, 0, 2, 1))
	ao.SetNRGBA(0, 0, color.NRGBA{R: 1, A: 255})
	ao.SetNRGBA(1, 0, color.NRGBA{R: 2, A: 255})

	_, err := Pack(ChannelSource{Map: ao}, ChannelSource{}, ChannelSource{}, 2, false)
	if !errors.Is(err, ErrSizeMismatch) {
		t.Fatalf("expected ErrSizeMismatch for 2x1 map; got %v", err)
	}

	sq := image.NewNRGBA(image.Rect(0, 0, 2, 2))
	sq.SetNRGBA(1, 1, color.NRGBA{R: 99, A: 255})
	out, err := Pack(ChannelSource{}, ChannelSource{}, ChannelSource{Map: sq}, 2, false)
	if err != nil {
		t.Fatal(err)
	}
	if out.NRGBAAt(1, 1).B != 99 || out.NRGBAAt(0, 0).B != 0 {
		t.Fatalf("expected metallic pixel mapping; got %v / %v", out.NRGBAAt(1, 1), out.NRGBAAt(0, 0))
	}
}

func TestPackInvalidSize(t *testing.T) {
	if _, err := Pack(ChannelSource{}, ChannelSource{}, ChannelSource{}, 0, false); err == nil {
		t.Fatal("expected error for zero size")
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	aoPath := filepath.Join(dir, "ao.png")
	f, err := os.Create(aoPath)
	if err != nil {
		t.Fatal(err)
	}
	if err := png.Encode(f, solid(4, 77)); err != nil {
		t.Fatal(err)
	}
	f.Close()

	cache := texture.NewCache()
	out, err := Build(cache, Paths{AO: aoPath, Metallic: filepath.Join(dir, "never-read.png")}, Options{
		Size:     8,
		Metallic: Override{Enabled: true, Value: 12},
	})
	if err != nil {
		t.Fatal(err)
	}
	if out.Bounds().Dx() != 8 {
		t.Fatalf("expected 8px output; got %v", out.Bounds())
	}
	if got := out.NRGBAAt(5, 5); got != (color.NRGBA{77, 0, 12, 255}) {
		t.Fatalf("expected (77,0,12,255); got %v", got)
	}
}

func TestBuildErrors(t *testing.T) {
	cache := texture.NewCache()
	if _, err := Build(cache, Paths{}, Options{Size: 4}); !errors.Is(err, ErrNoInputs) {
		t.Fatalf("expected ErrNoInputs; got %v", err)
	}

	_, err := Build(cache, Paths{Roughness: filepath.Join(t.TempDir(), "rough.txt")}, Options{Size: 4})
	if !errors.Is(err, texture.ErrInvalidFileType) {
		t.Fatalf("expected ErrInvalidFileType; got %v", err)
	}
}
