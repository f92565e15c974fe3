package texset

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"image"
	"io"
	"os"
	"path/filepath"

	"texkit/internal/gltfexport"
	"texkit/internal/log"
	"texkit/internal/normalmap"
	"texkit/internal/orm"
	"texkit/internal/texture"
)

var logger = log.New("texset")

// ManifestName is the manifest entry inside every archive.
const ManifestName = "manifest.json"

// Entry slots beyond the input slots.
const (
	SlotORM     texture.Slot = "ORM"
	SlotPreview texture.Slot = "Preview"
)

// copySlots are stored verbatim under their suffixed names.
var copySlots = []texture.Slot{texture.SlotAlbedo, texture.SlotNormal, texture.SlotDisplacement}

// ProgressFunc receives done/total after each step. It may be nil.
type ProgressFunc func(done, total int)

// Entry describes one file in the archive.
type Entry struct {
	Slot      texture.Slot `json:"slot"`
	File      string       `json:"file"`
	Source    string       `json:"source,omitempty"`
	Generated bool         `json:"generated"`
	Size      int64        `json:"size"`
}

// Manifest is written to manifest.json and returned by Build.
type Manifest struct {
	Name    string  `json:"name"`
	Size    int     `json:"size"`
	Gloss   bool    `json:"gloss"`
	Entries []Entry `json:"entries"`
}

// Build writes the zip archive for set to w. Maps are loaded through res,
// which may be shared between concurrent builds.
func Build(ctx context.Context, set Set, res texture.Resolver, w io.Writer, progress ProgressFunc) (*Manifest, error) {
	if err := set.Validate(); err != nil {
		return nil, err
	}
	if progress == nil {
		progress = func(int, int) {}
	}

	var copies []texture.Slot
	for _, slot := range copySlots {
		if set.Path(slot) != "" {
			copies = append(copies, slot)
		}
	}
	total := len(copies) + 1

	b := &builder{
		zw:       zip.NewWriter(w),
		manifest: &Manifest{Name: set.Name, Size: set.Size, Gloss: set.UseGloss},
	}

	for i, slot := range copies {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.copyFile(set.Name, slot, set.Path(slot)); err != nil {
			return nil, err
		}
		progress(i+1, total)
	}

	var normal *image.NRGBA
	if set.DeriveNormal && set.Normal == "" && set.Albedo != "" {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		albedo, err := res.Resolve(set.Albedo, 0)
		if err != nil {
			return nil, fmt.Errorf("texset: derive normal: %w", err)
		}
		if normal, err = normalmap.Generate(albedo, 0, 0, set.NormalParams); err != nil {
			return nil, fmt.Errorf("texset: derive normal: %w", err)
		}
		if err := b.addImage(FileName(set.Name, texture.SlotNormal, "png"), texture.SlotNormal, filepath.Base(set.Albedo), normal); err != nil {
			return nil, err
		}
	}

	var ormImg *image.NRGBA
	if set.HasORM() {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		var err error
		if ormImg, err = orm.Build(res, set.ormPaths(), set.ormOptions()); err != nil {
			return nil, fmt.Errorf("texset: %w", err)
		}
		if err := b.addImage(FileName(set.Name, SlotORM, "png"), SlotORM, "", ormImg); err != nil {
			return nil, err
		}
	}

	if set.IncludePreview {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if err := b.addPreview(&set, res, normal, ormImg); err != nil {
			return nil, err
		}
	}

	if err := b.writeManifest(); err != nil {
		return nil, err
	}
	if err := b.zw.Close(); err != nil {
		return nil, fmt.Errorf("texset: close archive: %w", err)
	}
	if ormImg != nil {
		progress(total, total)
	}

	logger.Infof("packed %s: %d entries", ArchiveName(set.Name), len(b.manifest.Entries))
	return b.manifest, nil
}

// BuildFile writes the archive for set into dir and returns its path. A
// failed build leaves no partial archive behind.
func BuildFile(ctx context.Context, set Set, res texture.Resolver, dir string, progress ProgressFunc) (string, *Manifest, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", nil, fmt.Errorf("texset: create %s: %w", dir, err)
	}
	path := filepath.Join(dir, ArchiveName(set.Name))

	f, err := os.Create(path)
	if err != nil {
		return "", nil, fmt.Errorf("texset: create %s: %w", path, err)
	}

	manifest, err := Build(ctx, set, res, f, progress)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("texset: write %s: %w", path, cerr)
	}
	if err != nil {
		os.Remove(path)
		return "", nil, err
	}
	return path, manifest, nil
}

type builder struct {
	zw       *zip.Writer
	manifest *Manifest
}

func (b *builder) copyFile(setName string, slot texture.Slot, path string) error {
	src, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("texset: read %s: %w", slot, err)
	}
	defer src.Close()

	name := FileName(setName, slot, texture.Ext(path))
	dst, err := b.zw.Create(name)
	if err != nil {
		return fmt.Errorf("texset: add %s: %w", name, err)
	}
	n, err := io.Copy(dst, src)
	if err != nil {
		return fmt.Errorf("texset: add %s: %w", name, err)
	}

	logger.Debugf("added %s from %s", name, path)
	b.manifest.Entries = append(b.manifest.Entries, Entry{
		Slot:   slot,
		File:   name,
		Source: filepath.Base(path),
		Size:   n,
	})
	return nil
}

func (b *builder) addImage(name string, slot texture.Slot, source string, img image.Image) error {
	data, err := texture.EncodeBytes(img, texture.FormatPNG)
	if err != nil {
		return fmt.Errorf("texset: %s: %w", name, err)
	}
	return b.addBytes(name, slot, source, data)
}

func (b *builder) addBytes(name string, slot texture.Slot, source string, data []byte) error {
	dst, err := b.zw.Create(name)
	if err != nil {
		return fmt.Errorf("texset: add %s: %w", name, err)
	}
	if _, err := dst.Write(data); err != nil {
		return fmt.Errorf("texset: add %s: %w", name, err)
	}

	logger.Debugf("added %s (%d bytes, generated)", name, len(data))
	b.manifest.Entries = append(b.manifest.Entries, Entry{
		Slot:      slot,
		File:      name,
		Source:    source,
		Generated: true,
		Size:      int64(len(data)),
	})
	return nil
}

// addPreview embeds a GLB sphere. Maps that cannot be decoded (EXR) are left
// off the preview material rather than failing the archive.
func (b *builder) addPreview(set *Set, res texture.Resolver, normal, ormImg *image.NRGBA) error {
	tex := gltfexport.Textures{Name: "T_" + set.Name, ORM: ormImg, Normal: normal, Gloss: set.UseGloss}

	if set.Albedo != "" {
		img, err := res.Resolve(set.Albedo, 0)
		if err != nil {
			logger.Warningf("preview for %s: skipping albedo: %v", set.Name, err)
		}
		tex.Albedo = img
	}
	if tex.Normal == nil && set.Normal != "" {
		img, err := res.Resolve(set.Normal, 0)
		if err != nil {
			logger.Warningf("preview for %s: skipping normal: %v", set.Name, err)
		}
		tex.Normal = img
	}

	var buf bytes.Buffer
	if err := gltfexport.WriteSphere(&buf, tex); err != nil {
		return fmt.Errorf("texset: preview: %w", err)
	}
	return b.addBytes(FileName(set.Name, SlotPreview, "glb"), SlotPreview, "", buf.Bytes())
}

func (b *builder) writeManifest() error {
	data, err := json.MarshalIndent(b.manifest, "", "  ")
	if err != nil {
		return fmt.Errorf("texset: manifest: %w", err)
	}
	dst, err := b.zw.Create(ManifestName)
	if err != nil {
		return fmt.Errorf("texset: add %s: %w", ManifestName, err)
	}
	if _, err := dst.Write(data); err != nil {
		return fmt.Errorf("texset: add %s: %w", ManifestName, err)
	}
	return nil
}
