package texset

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"texkit/internal/normalmap"
	"texkit/internal/orm"
	"texkit/internal/texture"
)

func writePNG(t *testing.T, dir, name string, size int, c color.NRGBA) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	for i := 0; i < len(img.Pix); i += 4 {
		img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3] = c.R, c.G, c.B, c.A
	}
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	if err := png.Encode(f, img); err != nil {
		t.Fatal(err)
	}
	return path
}

func openZip(t *testing.T, data []byte) map[string][]byte {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatal(err)
	}
	out := make(map[string][]byte)
	for _, f := range zr.File {
		rc, err := f.Open()
		if err != nil {
			t.Fatal(err)
		}
		b, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			t.Fatal(err)
		}
		out[f.Name] = b
	}
	return out
}

func keys(m map[string][]byte) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func TestNames(t *testing.T) {
	if got := ArchiveName("Rock"); got != "T_Rock.zip" {
		t.Fatalf("expected T_Rock.zip; got %s", got)
	}
	if got := FileName("Rock", texture.SlotAlbedo, "JPG"); got != "T_Rock_Albedo.jpg" {
		t.Fatalf("expected T_Rock_Albedo.jpg; got %s", got)
	}
	if got := FileName("Rock", SlotORM, "png"); got != "T_Rock_ORM.png" {
		t.Fatalf("expected T_Rock_ORM.png; got %s", got)
	}
}

func TestValidate(t *testing.T) {
	specs := []struct {
		name string
		set  Set
		err  error
	}{
		{"ok", Set{Name: "A", Size: 4, Albedo: "a.png"}, nil},
		{"override only", Set{Name: "A", Size: 4, Overrides: Overrides{AO: orm.Override{Enabled: true, Value: 255}}}, ErrEmptySet},
		{"empty name", Set{Size: 4, Albedo: "a.png"}, ErrInvalidSet},
		{"path in name", Set{Name: "../x", Size: 4, Albedo: "a.png"}, ErrInvalidSet},
		{"zero size", Set{Name: "A", Albedo: "a.png"}, ErrInvalidSet},
		{"bad extension", Set{Name: "A", Size: 4, Roughness: "r.gif"}, texture.ErrInvalidFileType},
		{"nothing", Set{Name: "A", Size: 4}, ErrEmptySet},
		{"bad normal params", Set{Name: "A", Size: 4, Albedo: "a.png", DeriveNormal: true}, normalmap.ErrInvalidParams},
	}

	for _, spec := range specs {
		t.Run(spec.name, func(t *testing.T) {
			err := spec.set.Validate()
			if spec.err == nil {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, spec.err) {
				t.Fatalf("expected %v; got %v", spec.err, err)
			}
		})
	}
}

func TestBuild(t *testing.T) {
	dir := t.TempDir()
	set := Set{
		Name:         "Rock",
		Size:         4,
		Albedo:       writePNG(t, dir, "rock_albedo.png", 4, color.NRGBA{200, 150, 100, 255}),
		Normal:       writePNG(t, dir, "rock_normal.PNG", 4, color.NRGBA{128, 128, 255, 255}),
		AO:           writePNG(t, dir, "rock_ao.png", 4, color.NRGBA{100, 0, 0, 255}),
		Roughness:    writePNG(t, dir, "rock_rough.png", 4, color.NRGBA{50, 0, 0, 255}),
		Overrides:    Overrides{Metallic: orm.Override{Enabled: true, Value: 200}},
		NormalParams: normalmap.DefaultParams(),
	}

	var calls [][2]int
	var buf bytes.Buffer
	manifest, err := Build(context.Background(), set, texture.NewCache(), &buf, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	if err != nil {
		t.Fatal(err)
	}

	files := openZip(t, buf.Bytes())
	want := []string{"T_Rock_Albedo.png", "T_Rock_Normal.png", "T_Rock_ORM.png", "manifest.json"}
	if got := keys(files); len(got) != len(want) {
		t.Fatalf("expected entries %v; got %v", want, got)
	}
	for _, name := range want {
		if _, ok := files[name]; !ok {
			t.Fatalf("expected entry %s; got %v", name, keys(files))
		}
	}

	// Sources are copied byte for byte
	src, _ := os.ReadFile(set.Albedo)
	if !bytes.Equal(src, files["T_Rock_Albedo.png"]) {
		t.Fatal("expected albedo copied verbatim")
	}

	ormImg, err := texture.Decode(bytes.NewReader(files["T_Rock_ORM.png"]), "orm.png")
	if err != nil {
		t.Fatal(err)
	}
	if c := ormImg.NRGBAAt(2, 2); c != (color.NRGBA{100, 50, 200, 255}) {
		t.Fatalf("expected ORM (100, 50, 200, 255); got %v", c)
	}

	wantCalls := [][2]int{{1, 3}, {2, 3}, {3, 3}}
	if len(calls) != len(wantCalls) {
		t.Fatalf("expected progress %v; got %v", wantCalls, calls)
	}
	for i := range calls {
		if calls[i] != wantCalls[i] {
			t.Fatalf("expected progress %v; got %v", wantCalls, calls)
		}
	}

	var stored Manifest
	if err := json.Unmarshal(files["manifest.json"], &stored); err != nil {
		t.Fatal(err)
	}
	if stored.Name != "Rock" || len(stored.Entries) != 3 || len(manifest.Entries) != 3 {
		t.Fatalf("expected 3 manifest entries for Rock; got %+v", stored)
	}
	if e := stored.Entries[1]; e.Slot != texture.SlotNormal || e.Source != "rock_normal.PNG" || e.Generated {
		t.Fatalf("unexpected normal entry %+v", e)
	}
	if e := stored.Entries[2]; e.Slot != SlotORM || !e.Generated || e.Size != int64(len(files["T_Rock_ORM.png"])) {
		t.Fatalf("unexpected ORM entry %+v", e)
	}
}

func TestBuildOverrideWithoutMaps(t *testing.T) {
	dir := t.TempDir()
	set := Set{
		Name:      "A",
		Size:      4,
		Albedo:    writePNG(t, dir, "a_albedo.png", 4, color.NRGBA{200, 150, 100, 255}),
		Overrides: Overrides{Roughness: orm.Override{Enabled: true, Value: 128}},
	}

	var calls [][2]int
	var buf bytes.Buffer
	_, err := Build(context.Background(), set, texture.NewCache(), &buf, func(done, total int) {
		calls = append(calls, [2]int{done, total})
	})
	if err != nil {
		t.Fatal(err)
	}

	files := openZip(t, buf.Bytes())
	if _, ok := files["T_A_ORM.png"]; ok || len(files) != 2 {
		t.Fatalf("expected only the albedo and manifest; got %v", keys(files))
	}

	// Without an ORM the copy steps are the last progress reported
	if len(calls) != 1 || calls[0] != [2]int{1, 2} {
		t.Fatalf("expected progress [[1 2]]; got %v", calls)
	}
}

func TestBuildDerivedNormalAndPreview(t *testing.T) {
	dir := t.TempDir()
	set := Set{
		Name:           "Brick",
		Size:           8,
		UseGloss:       true,
		Albedo:         writePNG(t, dir, "brick_color.png", 8, color.NRGBA{180, 60, 40, 255}),
		Displacement:   writePNG(t, dir, "brick_height.png", 8, color.NRGBA{90, 90, 90, 255}),
		DeriveNormal:   true,
		NormalParams:   normalmap.DefaultParams(),
		IncludePreview: true,
	}

	var buf bytes.Buffer
	manifest, err := Build(context.Background(), set, texture.NewCache(), &buf, nil)
	if err != nil {
		t.Fatal(err)
	}

	files := openZip(t, buf.Bytes())
	for _, name := range []string{"T_Brick_Albedo.png", "T_Brick_Displacement.png", "T_Brick_Normal.png", "T_Brick_Preview.glb", "manifest.json"} {
		if _, ok := files[name]; !ok {
			t.Fatalf("expected entry %s; got %v", name, keys(files))
		}
	}
	if _, ok := files["T_Brick_ORM.png"]; ok {
		t.Fatal("expected no ORM without channel inputs")
	}

	normal, err := texture.Decode(bytes.NewReader(files["T_Brick_Normal.png"]), "n.png")
	if err != nil {
		t.Fatal(err)
	}
	if b := normal.Bounds(); b.Dx() != 8 || b.Dy() != 8 {
		t.Fatalf("expected derived normal at albedo size; got %v", b)
	}
	if c := normal.NRGBAAt(4, 4); c.B < 250 || c.A != 255 {
		t.Fatalf("expected a flat normal from a flat albedo; got %v", c)
	}

	if glb := files["T_Brick_Preview.glb"]; len(glb) < 12 || string(glb[:4]) != "glTF" {
		t.Fatal("expected a GLB preview entry")
	}

	var derived bool
	for _, e := range manifest.Entries {
		if e.Slot == texture.SlotNormal {
			derived = e.Generated && e.Source == "brick_color.png"
		}
	}
	if !derived {
		t.Fatalf("expected the normal entry marked generated from the albedo; got %+v", manifest.Entries)
	}
}

func TestBuildFileCancelled(t *testing.T) {
	dir := t.TempDir()
	set := Set{Name: "Gone", Size: 4, Albedo: writePNG(t, dir, "a.png", 4, color.NRGBA{A: 255})}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	out := filepath.Join(dir, "out")
	if _, _, err := BuildFile(ctx, set, texture.NewCache(), out, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled; got %v", err)
	}
	if _, err := os.Stat(filepath.Join(out, "T_Gone.zip")); !os.IsNotExist(err) {
		t.Fatal("expected partial archive to be removed")
	}
}

func TestBuildFile(t *testing.T) {
	dir := t.TempDir()
	set := Set{Name: "Wood", Size: 4, Albedo: writePNG(t, dir, "wood.png", 4, color.NRGBA{R: 90, A: 255})}

	path, manifest, err := BuildFile(context.Background(), set, texture.NewCache(), filepath.Join(dir, "out"), nil)
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Base(path) != "T_Wood.zip" {
		t.Fatalf("expected T_Wood.zip; got %s", path)
	}
	if len(manifest.Entries) != 1 {
		t.Fatalf("expected a single entry; got %+v", manifest.Entries)
	}
}

func TestFromIndex(t *testing.T) {
	dir := t.TempDir()
	writePNG(t, dir, "Rock_BaseColor.png", 2, color.NRGBA{A: 255})
	writePNG(t, dir, "Rock_Roughness.png", 2, color.NRGBA{A: 255})

	idx, err := texture.DiscoverSet(dir)
	if err != nil {
		t.Fatal(err)
	}
	set := FromIndex("Rock", idx)
	if filepath.Base(set.Albedo) != "Rock_BaseColor.png" || filepath.Base(set.Roughness) != "Rock_Roughness.png" {
		t.Fatalf("unexpected set %+v", set)
	}
	if set.Normal != "" || set.Name != "Rock" {
		t.Fatalf("unexpected set %+v", set)
	}
}
