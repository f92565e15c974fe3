package main

import (
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/urfave/cli"

	"texkit/internal/normalmap"
	"texkit/internal/orm"
	"texkit/internal/texset"
	"texkit/internal/texture"
)

// PackORM writes a packed ORM texture.
func PackORM(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	paths := orm.Paths{
		AO:        ctx.String("ao"),
		Roughness: ctx.String("roughness"),
		Metallic:  ctx.String("metallic"),
	}
	opts := ormOptions(&cfg)

	out := ctx.String("out")
	if out == "" {
		out = filepath.Join(cfg.OutputDir, texset.FileName(cfg.SetName, texset.SlotORM, "png"))
	}
	format, err := texture.FormatFromPath(out)
	if err != nil {
		return err
	}

	start := time.Now()
	img, err := orm.Build(texture.NewCache(), paths, opts)
	if err != nil {
		return err
	}
	if err := writeImage(out, img, format); err != nil {
		return err
	}

	fmt.Printf("Wrote %s (%dx%d) in %s\n", out, opts.Size, opts.Size, time.Since(start).Round(time.Millisecond))
	return nil
}

// GenerateNormal derives a normal map from the texture argument.
func GenerateNormal(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing texture argument")
	}
	src := ctx.Args().First()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}
	p, err := normalParams(&cfg)
	if err != nil {
		return err
	}

	out := ctx.String("out")
	if out == "" {
		out = strings.TrimSuffix(src, filepath.Ext(src)) + "_Normal.png"
	}
	format, err := texture.FormatFromPath(out)
	if err != nil {
		return err
	}

	img, err := texture.Load(src)
	if err != nil {
		return err
	}

	w, h := ctx.Int("width"), ctx.Int("height")
	if ctx.Bool("preview") {
		w, h = normalmap.PreviewSize, normalmap.PreviewSize
	}
	normal, err := normalmap.Generate(img, w, h, p)
	if err != nil {
		return err
	}
	if err := writeImage(out, normal, format); err != nil {
		return err
	}

	b := normal.Bounds()
	fmt.Printf("Wrote %s (%dx%d, %s)\n", out, b.Dx(), b.Dy(), p.Method)
	return nil
}

func writeImage(path string, img image.Image, format texture.Format) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := texture.Encode(f, img, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
