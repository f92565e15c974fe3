package main

import (
	"archive/zip"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"texkit/internal/texture"
)

func writePNG(t *testing.T, path string, c color.NRGBA) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
}

func run(t *testing.T, args ...string) error {
	t.Helper()
	return newApp().Run(append([]string{"texkit"}, args...))
}

func TestORMCommand(t *testing.T) {
	dir := t.TempDir()
	ao := filepath.Join(dir, "ao.png")
	writePNG(t, ao, color.NRGBA{R: 90, A: 255})
	out := filepath.Join(dir, "out", "orm.png")

	if err := run(t, "orm", "--ao", ao, "--size", "4", "--metallic-value", "200", "--gloss", "-o", out); err != nil {
		t.Fatal(err)
	}

	img, err := texture.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	// Gloss leaves a missing roughness map at 0
	if c := img.NRGBAAt(2, 2); c != (color.NRGBA{90, 0, 200, 255}) {
		t.Fatalf("expected (90, 0, 200, 255); got %v", c)
	}
}

func TestNormalCommand(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "height.png")
	writePNG(t, src, color.NRGBA{R: 60, G: 60, B: 60, A: 255})

	if err := run(t, "normal", "--strength", "3", "--width", "8", "--height", "8", src); err != nil {
		t.Fatal(err)
	}
	img, err := texture.Load(filepath.Join(dir, "height_Normal.png"))
	if err != nil {
		t.Fatal(err)
	}
	if b := img.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Fatalf("expected 8x8; got %v", b)
	}

	if err := run(t, "normal", "--black", "0.5", "--white", "0.5", src); err == nil {
		t.Fatal("expected invalid levels to fail")
	}
	if err := run(t, "normal"); err == nil {
		t.Fatal("expected a missing argument error")
	}
}

func TestPackCommandDiscovery(t *testing.T) {
	dir := t.TempDir()
	setDir := filepath.Join(dir, "Granite")
	if err := os.MkdirAll(setDir, 0755); err != nil {
		t.Fatal(err)
	}
	writePNG(t, filepath.Join(setDir, "granite_basecolor.png"), color.NRGBA{R: 120, G: 120, B: 120, A: 255})
	writePNG(t, filepath.Join(setDir, "granite_roughness.png"), color.NRGBA{R: 30, A: 255})
	out := filepath.Join(dir, "out")

	if err := run(t, "pack", "--dir", setDir, "--size", "4", "--derive-normal", "-o", out); err != nil {
		t.Fatal(err)
	}

	zr, err := zip.OpenReader(filepath.Join(out, "T_Granite.zip"))
	if err != nil {
		t.Fatal(err)
	}
	defer zr.Close()

	var names []string
	for _, f := range zr.File {
		names = append(names, f.Name)
	}
	got := strings.Join(names, ",")
	for _, want := range []string{"T_Granite_Albedo.png", "T_Granite_Normal.png", "T_Granite_ORM.png", "manifest.json"} {
		if !strings.Contains(got, want) {
			t.Fatalf("expected %s in archive; got %s", want, got)
		}
	}
}

func TestBatchCommand(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"A", "B"} {
		if err := os.MkdirAll(filepath.Join(dir, "in", name), 0755); err != nil {
			t.Fatal(err)
		}
		writePNG(t, filepath.Join(dir, "in", name, "x_albedo.png"), color.NRGBA{A: 255})
	}
	out := filepath.Join(dir, "out")

	if err := run(t, "batch", "--workers", "2", "--size", "4", "-o", out, filepath.Join(dir, "in")); err != nil {
		t.Fatal(err)
	}
	for _, name := range []string{"T_A.zip", "T_B.zip", "batch.json"} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("expected %s: %v", name, err)
		}
	}
}

func TestPreviewCommand(t *testing.T) {
	dir := t.TempDir()
	normal := filepath.Join(dir, "n.png")
	writePNG(t, normal, color.NRGBA{R: 128, G: 128, B: 255, A: 255})

	out := filepath.Join(dir, "sphere.png")
	if err := run(t, "preview", "--normal", normal, "--size", "32", "--supersample", "1", "-o", out); err != nil {
		t.Fatal(err)
	}
	img, err := texture.Load(out)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 32 {
		t.Fatalf("expected 32px render; got %v", img.Bounds())
	}

	glb := filepath.Join(dir, "sphere.glb")
	if err := run(t, "preview", "--normal", normal, "-o", glb); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(glb)
	if err != nil {
		t.Fatal(err)
	}
	if string(data[:4]) != "glTF" {
		t.Fatal("expected GLB output")
	}
}

func TestGlobalFlags(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rock_Albedo.png")
	writePNG(t, path, color.NRGBA{R: 10, A: 255})

	if err := run(t, "-v", "inspect", path); err != nil {
		t.Fatal(err)
	}
	if err := run(t, "--version"); err != nil {
		t.Fatal(err)
	}
}

func TestPreviewSizeIsRenderSize(t *testing.T) {
	dir := t.TempDir()
	out := filepath.Join(dir, "sphere.png")

	// Larger than any preview but a valid texture output size
	err := run(t, "preview", "--size", "8192", "--supersample", "1", "-o", out)
	if err == nil || !strings.Contains(err.Error(), "preview size") {
		t.Fatalf("expected a preview size error; got %v", err)
	}
}

func TestInspectRow(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "wall_Roughness.png")
	writePNG(t, path, color.NRGBA{R: 10, G: 20, B: 30, A: 255})

	row := inspectRow(path)
	want := []string{"wall_Roughness.png", "png", "4x4", "Roughness", "10.0", "20.0", "30.0", "255.0"}
	for i := range want {
		if row[i] != want[i] {
			t.Fatalf("column %d: expected %q; got %q", i, want[i], row[i])
		}
	}

	row = inspectRow(filepath.Join(dir, "missing_ao.png"))
	if row[2] != "error" || row[3] != "AO" {
		t.Fatalf("expected an error row classified as AO; got %v", row)
	}
}
