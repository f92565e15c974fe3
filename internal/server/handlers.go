package server

import (
	"bytes"
	"fmt"
	"net/http"
	"strings"

	"texkit/internal/config"
	"texkit/internal/gltfexport"
	"texkit/internal/normalmap"
	"texkit/internal/orm"
	"texkit/internal/raster"
	"texkit/internal/texset"
	"texkit/internal/texture"
)

// handleORM packs the uploaded ao/roughness/metallic maps.
func (s *Server) handleORM(w http.ResponseWriter, r *http.Request, up *upload) error {
	opts, err := s.ormOptions(up)
	if err != nil {
		return err
	}

	var paths orm.Paths
	if paths.AO, err = up.save("ao"); err != nil {
		return err
	}
	if paths.Roughness, err = up.save("roughness"); err != nil {
		return err
	}
	if paths.Metallic, err = up.save("metallic"); err != nil {
		return err
	}

	img, err := orm.Build(texture.NewCache(), paths, opts)
	if err != nil {
		return err
	}
	data, err := texture.EncodeBytes(img, texture.FormatPNG)
	if err != nil {
		return err
	}
	writeBody(w, texture.FormatPNG.ContentType(), data)
	return nil
}

func (s *Server) ormOptions(up *upload) (orm.Options, error) {
	var (
		opts orm.Options
		err  error
	)
	if opts.Size, err = up.intField("size", s.cfg.OutputSize, 1, config.MaxOutputSize); err != nil {
		return opts, err
	}
	if opts.UseGloss, err = up.boolField("gloss", s.cfg.UseGloss); err != nil {
		return opts, err
	}
	if opts.AO, err = up.override("ao_override"); err != nil {
		return opts, err
	}
	if opts.Roughness, err = up.override("roughness_override"); err != nil {
		return opts, err
	}
	if opts.Metallic, err = up.override("metallic_override"); err != nil {
		return opts, err
	}
	return opts, nil
}

// handleNormal derives a normal map from the uploaded texture.
func (s *Server) handleNormal(w http.ResponseWriter, r *http.Request, up *upload) error {
	src, err := up.image("texture")
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("%w: missing texture upload", errBadRequest)
	}

	p, err := s.normalParams(up)
	if err != nil {
		return err
	}
	preview, err := up.boolField("preview", false)
	if err != nil {
		return err
	}
	format, err := imageFormat(up.value("format"), texture.FormatPNG)
	if err != nil {
		return err
	}

	// Zero keeps the upload's own size
	size := 0
	if preview {
		size = normalmap.PreviewSize
	}
	img, err := normalmap.Generate(src, size, size, p)
	if err != nil {
		return err
	}

	data, err := texture.EncodeBytes(img, format)
	if err != nil {
		return err
	}
	writeBody(w, format.ContentType(), data)
	return nil
}

func (s *Server) normalParams(up *upload) (normalmap.Params, error) {
	p := s.cfg.NormalParams()
	var err error

	if m := up.value("method"); m != "" {
		p.Method = normalmap.Method(m)
	}
	if p.Strength, err = up.floatField("strength", p.Strength, 0, 100); err != nil {
		return p, err
	}
	if p.Blur, err = up.floatField("blur", p.Blur, -50, 50); err != nil {
		return p, err
	}
	if p.Sharpen, err = up.floatField("sharpen", p.Sharpen, 0, 1000); err != nil {
		return p, err
	}
	if p.BlackPoint, err = up.floatField("black", p.BlackPoint, 0, 1); err != nil {
		return p, err
	}
	if p.MidPoint, err = up.floatField("mid", p.MidPoint, 0, 10); err != nil {
		return p, err
	}
	if p.WhitePoint, err = up.floatField("white", p.WhitePoint, 0, 1); err != nil {
		return p, err
	}
	if p.InvertY, err = up.boolField("invert_y", p.InvertY); err != nil {
		return p, err
	}
	return p, p.Validate()
}

// handlePack zips the uploaded set.
func (s *Server) handlePack(w http.ResponseWriter, r *http.Request, up *upload) error {
	set := s.cfg.SetTemplate()
	if name := strings.TrimSpace(up.value("name")); name != "" {
		set.Name = name
	}

	opts, err := s.ormOptions(up)
	if err != nil {
		return err
	}
	set.Size = opts.Size
	set.UseGloss = opts.UseGloss
	set.Overrides = texset.Overrides{AO: opts.AO, Roughness: opts.Roughness, Metallic: opts.Metallic}

	if set.DeriveNormal, err = up.boolField("derive_normal", false); err != nil {
		return err
	}
	if set.DeriveNormal {
		if set.NormalParams, err = s.normalParams(up); err != nil {
			return err
		}
	}
	if set.IncludePreview, err = up.boolField("include_preview", false); err != nil {
		return err
	}

	for _, slot := range texture.Slots {
		path, err := up.save(strings.ToLower(string(slot)))
		if err != nil {
			return err
		}
		set.SetPath(slot, path)
	}

	var buf bytes.Buffer
	if _, err := texset.Build(r.Context(), set, texture.NewCache(), &buf, nil); err != nil {
		return err
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", texset.ArchiveName(set.Name)))
	writeBody(w, "application/zip", buf.Bytes())
	return nil
}

// handlePreview renders the uploaded maps on the preview sphere, or exports
// them as a GLB when format=glb.
func (s *Server) handlePreview(w http.ResponseWriter, r *http.Request, up *upload) error {
	mat := raster.DefaultMaterial()
	var err error
	if mat.Albedo, err = up.image("albedo"); err != nil {
		return err
	}
	if mat.Normal, err = up.image("normal"); err != nil {
		return err
	}
	if mat.ORM, err = up.image("orm"); err != nil {
		return err
	}
	if mat.Gloss, err = up.boolField("gloss", s.cfg.UseGloss); err != nil {
		return err
	}

	if up.value("format") == "glb" {
		var buf bytes.Buffer
		err := gltfexport.WriteSphere(&buf, gltfexport.Textures{
			Name:   "Preview",
			Albedo: mat.Albedo,
			Normal: mat.Normal,
			ORM:    mat.ORM,
			Gloss:  mat.Gloss,
		})
		if err != nil {
			return err
		}
		writeBody(w, "model/gltf-binary", buf.Bytes())
		return nil
	}

	format, err := imageFormat(up.value("format"), texture.FormatWebP)
	if err != nil {
		return err
	}

	var opts raster.PreviewOptions
	if opts.Size, err = up.intField("size", s.cfg.Preview.Size, 16, raster.MaxPreviewSize); err != nil {
		return err
	}
	if opts.Supersample, err = up.intField("supersample", s.cfg.Preview.Supersample, 1, 4); err != nil {
		return err
	}
	if opts.Yaw, err = up.floatField("yaw", s.cfg.Preview.Yaw, -360, 360); err != nil {
		return err
	}
	if opts.Pitch, err = up.floatField("pitch", 0, -90, 90); err != nil {
		return err
	}

	img, err := raster.RenderPreview(mat, opts)
	if err != nil {
		return err
	}
	data, err := texture.EncodeBytes(img, format)
	if err != nil {
		return err
	}
	writeBody(w, format.ContentType(), data)
	return nil
}

func imageFormat(v string, def texture.Format) (texture.Format, error) {
	switch v {
	case "":
		return def, nil
	case "png":
		return texture.FormatPNG, nil
	case "webp":
		return texture.FormatWebP, nil
	}
	return "", fmt.Errorf("%w: unknown format %q, use png or webp", errBadRequest, v)
}
