package main

import (
	"fmt"
	"image"
	"os"
	"time"

	"github.com/urfave/cli"

	"texkit/internal/gltfexport"
	"texkit/internal/raster"
	"texkit/internal/texture"
)

// RenderPreview renders the preview sphere or exports it as GLB, depending on
// the --out extension.
func RenderPreview(ctx *cli.Context) error {
	setupLogging(ctx)

	// --size here is the render size, not the texture output size
	flags := commandFlags(ctx)
	flags.PreviewSize, flags.Size = flags.Size, 0
	cfg, err := resolveConfig(ctx, flags)
	if err != nil {
		return err
	}

	mat := raster.DefaultMaterial()
	mat.Gloss = cfg.UseGloss
	for _, m := range []struct {
		flag string
		dst  **image.NRGBA
	}{
		{"albedo", &mat.Albedo},
		{"normal", &mat.Normal},
		{"orm", &mat.ORM},
	} {
		path := ctx.String(m.flag)
		if path == "" {
			continue
		}
		if *m.dst, err = texture.Load(path); err != nil {
			return err
		}
	}

	out := ctx.String("out")
	if texture.Ext(out) == "glb" {
		return exportGLB(out, mat)
	}
	format, err := texture.FormatFromPath(out)
	if err != nil {
		return err
	}

	opts := raster.PreviewOptions{
		Size:        cfg.Preview.Size,
		Supersample: cfg.Preview.Supersample,
		Yaw:         cfg.Preview.Yaw,
		Pitch:       ctx.Float64("pitch"),
	}
	if ctx.IsSet("supersample") {
		opts.Supersample = ctx.Int("supersample")
	}
	if ctx.IsSet("yaw") {
		opts.Yaw = ctx.Float64("yaw")
	}

	start := time.Now()
	img, err := raster.RenderPreview(mat, opts)
	if err != nil {
		return err
	}
	if err := writeImage(out, img, format); err != nil {
		return err
	}

	fmt.Printf("Wrote %s (%dx%d) in %s\n", out, img.Bounds().Dx(), img.Bounds().Dy(), time.Since(start).Round(time.Millisecond))
	return nil
}

func exportGLB(path string, mat raster.Material) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	err = gltfexport.WriteSphere(f, gltfexport.Textures{
		Name:   "Preview",
		Albedo: mat.Albedo,
		Normal: mat.Normal,
		ORM:    mat.ORM,
		Gloss:  mat.Gloss,
	})
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return err
	}

	fmt.Printf("Wrote %s\n", path)
	return nil
}
