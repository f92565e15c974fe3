// Package gltfexport writes the preview sphere as a binary glTF with the
// texture set bound as a PBR metallic-roughness material.
package gltfexport

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/modeler"

	"texkit/internal/log"
	"texkit/internal/mesh"
)

var logger = log.New("gltfexport")

// Sphere tessellation for exported previews; finer than the raster preview
// since viewers may zoom in.
const (
	sphereRadius = 0.6
	sphereWidth  = 64
	sphereHeight = 32
)

// Textures is the material bound to the exported sphere. Nil maps are
// omitted from the material.
type Textures struct {
	Name   string
	Albedo *image.NRGBA
	Normal *image.NRGBA
	ORM    *image.NRGBA

	// Gloss marks an ORM whose green channel stores gloss. glTF expects
	// roughness there, so the channel is inverted on export.
	Gloss bool
}

// WriteSphere encodes a GLB containing one textured sphere to w.
func WriteSphere(w io.Writer, tex Textures) error {
	doc, err := Build(tex)
	if err != nil {
		return err
	}

	enc := gltf.NewEncoder(w)
	enc.AsBinary = true
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("gltfexport: encode: %w", err)
	}
	return nil
}

// Build assembles the glTF document without encoding it.
func Build(tex Textures) (*gltf.Document, error) {
	sphere, err := mesh.Sphere(sphereRadius, sphereWidth, sphereHeight)
	if err != nil {
		return nil, fmt.Errorf("gltfexport: %w", err)
	}

	name := tex.Name
	if name == "" {
		name = "TextureSet"
	}

	doc := gltf.NewDocument()

	posAccessor := modeler.WritePosition(doc, sphere.Positions)
	normalAccessor := modeler.WriteNormal(doc, sphere.Normals)
	tangentAccessor := modeler.WriteTangent(doc, sphere.Tangents)
	uvAccessor := modeler.WriteTextureCoord(doc, sphere.UVs)
	indicesAccessor := modeler.WriteIndices(doc, sphere.Indices)

	prim := &gltf.Primitive{
		Attributes: map[string]uint32{
			gltf.POSITION:   uint32(posAccessor),
			gltf.NORMAL:     uint32(normalAccessor),
			gltf.TANGENT:    uint32(tangentAccessor),
			gltf.TEXCOORD_0: uint32(uvAccessor),
		},
		Indices:  gltf.Index(uint32(indicesAccessor)),
		Material: gltf.Index(0),
	}

	pbr := &gltf.PBRMetallicRoughness{
		BaseColorFactor: &[4]float32{1, 1, 1, 1},
		MetallicFactor:  gltf.Float(0),
		RoughnessFactor: gltf.Float(0.4),
	}
	material := &gltf.Material{
		Name:                 name,
		PBRMetallicRoughness: pbr,
		AlphaMode:            gltf.AlphaOpaque,
	}

	if tex.Albedo != nil {
		idx, err := addTexture(doc, name+"_Albedo", tex.Albedo)
		if err != nil {
			return nil, err
		}
		pbr.BaseColorTexture = &gltf.TextureInfo{Index: idx}
	}
	if tex.Normal != nil {
		idx, err := addTexture(doc, name+"_Normal", tex.Normal)
		if err != nil {
			return nil, err
		}
		material.NormalTexture = &gltf.NormalTexture{Index: gltf.Index(idx), Scale: gltf.Float(1)}
	}
	if tex.ORM != nil {
		orm := tex.ORM
		if tex.Gloss {
			orm = invertGreen(orm)
		}
		idx, err := addTexture(doc, name+"_ORM", orm)
		if err != nil {
			return nil, err
		}
		// One image serves occlusion (R) and metallic-roughness (G, B)
		material.OcclusionTexture = &gltf.OcclusionTexture{Index: gltf.Index(idx), Strength: gltf.Float(1)}
		pbr.MetallicRoughnessTexture = &gltf.TextureInfo{Index: idx}
		pbr.MetallicFactor = gltf.Float(1)
		pbr.RoughnessFactor = gltf.Float(1)
	}

	doc.Materials = []*gltf.Material{material}
	doc.Meshes = []*gltf.Mesh{{Name: name + "_Sphere", Primitives: []*gltf.Primitive{prim}}}
	doc.Nodes = []*gltf.Node{{Name: name, Mesh: gltf.Index(0)}}
	doc.Scenes[0].Nodes = []uint32{0}

	logger.Debugf("built sphere %q: %d vertices, %d textures", name, len(sphere.Positions), len(doc.Textures))
	return doc, nil
}

// addTexture embeds img as a PNG in the binary buffer and returns the texture
// index referencing it.
func addTexture(doc *gltf.Document, name string, img *image.NRGBA) (uint32, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return 0, fmt.Errorf("gltfexport: encode %s: %w", name, err)
	}

	imgIdx, err := modeler.WriteImage(doc, name+".png", "image/png", &buf)
	if err != nil {
		return 0, fmt.Errorf("gltfexport: embed %s: %w", name, err)
	}

	if len(doc.Samplers) == 0 {
		doc.Samplers = append(doc.Samplers, &gltf.Sampler{
			MagFilter: gltf.MagLinear,
			MinFilter: gltf.MinLinearMipMapLinear,
			WrapS:     gltf.WrapRepeat,
			WrapT:     gltf.WrapRepeat,
		})
	}
	doc.Textures = append(doc.Textures, &gltf.Texture{
		Name:    name,
		Sampler: gltf.Index(0),
		Source:  gltf.Index(imgIdx),
	})
	return uint32(len(doc.Textures) - 1), nil
}

func invertGreen(src *image.NRGBA) *image.NRGBA {
	out := image.NewNRGBA(src.Rect)
	copy(out.Pix, src.Pix)
	for i := 1; i < len(out.Pix); i += 4 {
		out.Pix[i] = 255 - out.Pix[i]
	}
	return out
}
