package raster

import (
	"fmt"
	"image"
	"math"

	"texkit/internal/mathutil"
	"texkit/internal/mesh"
	"texkit/internal/postprocess"
)

// Preview scene constants.
const (
	DefaultPreviewSize = 256
	MaxPreviewSize     = 4096

	cameraDistance = 4.0
	cameraFovDeg   = 20.0
	sphereRadius   = 0.6
	sphereWidth    = 32
	sphereHeight   = 16
)

// Material is the texture set applied to the preview sphere. Any map may be
// nil. Without an ORM map, AO is 1 and Roughness/Metallic are used as
// constants. With one, its G and B channels replace them.
type Material struct {
	Albedo *image.NRGBA
	Normal *image.NRGBA
	ORM    *image.NRGBA

	// Gloss marks an ORM whose green channel stores gloss instead of roughness.
	Gloss bool

	Roughness   float64
	Metallic    float64
	NormalScale float64
}

// DefaultMaterial returns an untextured white material with roughness 0.4.
func DefaultMaterial() Material {
	return Material{Roughness: 0.4, NormalScale: 1}
}

// PreviewOptions controls the render. Angles are in degrees.
type PreviewOptions struct {
	Size        int
	Supersample int
	Yaw         float64
	Pitch       float64
	Light       *LightConfig
}

// RenderPreview rasterizes a lit, normal-mapped sphere wearing mat. The
// background is transparent.
func RenderPreview(mat Material, opts PreviewOptions) (*image.NRGBA, error) {
	size := opts.Size
	if size == 0 {
		size = DefaultPreviewSize
	}
	if size < 0 || size > MaxPreviewSize {
		return nil, fmt.Errorf("raster: preview size %d out of range 1..%d", size, MaxPreviewSize)
	}
	ss := opts.Supersample
	if ss < 1 {
		ss = 1
	}
	if size*ss > MaxPreviewSize {
		ss = max(1, MaxPreviewSize/size)
	}
	if mat.NormalScale == 0 {
		mat.NormalScale = 1
	}

	lc := DefaultLightConfig()
	if opts.Light != nil {
		lc = *opts.Light
	}

	sphere, err := mesh.Sphere(sphereRadius, sphereWidth, sphereHeight)
	if err != nil {
		return nil, fmt.Errorf("raster: build sphere: %w", err)
	}

	renderSize := size * ss
	R := mathutil.RotX(mathutil.Deg2Rad(opts.Pitch)).Mul(mathutil.RotY(mathutil.Deg2Rad(opts.Yaw)))
	verts := projectVertices(sphere, R, renderSize)

	fb := NewFrameBuffer(renderSize, renderSize)
	shade := materialShader(&mat, &lc)

	idx := sphere.Indices
	for i := 0; i+2 < len(idx); i += 3 {
		RasterizeTriangle(fb, &verts[idx[i]], &verts[idx[i+1]], &verts[idx[i+2]], shade)
	}

	img := fb.Image()
	if ss > 1 {
		img = postprocess.Downsample(img, size, size)
	}
	return img, nil
}

// projectVertices rotates the mesh and applies the perspective camera looking
// down -Z from z = cameraDistance.
func projectVertices(m *mesh.Mesh, R mathutil.Mat3, size int) []Vertex {
	focal := 1 / math.Tan(mathutil.Deg2Rad(cameraFovDeg)/2)
	half := float64(size) / 2

	out := make([]Vertex, len(m.Positions))
	for i := range m.Positions {
		p := R.MulVec3(mathutil.V3(m.Positions[i]))
		n := R.MulVec3(mathutil.V3(m.Normals[i]))
		t := m.Tangents[i]
		tr := R.MulVec3(mathutil.Vec3{float64(t[0]), float64(t[1]), float64(t[2])})

		invW := 1 / (cameraDistance - p[2])
		out[i] = Vertex{
			X:        half + p[0]*focal*invW*half,
			Y:        half - p[1]*focal*invW*half,
			InvW:     invW,
			Position: p,
			Normal:   n,
			Tangent:  [4]float64{tr[0], tr[1], tr[2], float64(t[3])},
			UV:       [2]float64{float64(m.UVs[i][0]), float64(m.UVs[i][1])},
		}
	}
	return out
}

func materialShader(mat *Material, lc *LightConfig) FragmentShader {
	camera := mathutil.Vec3{0, 0, cameraDistance}

	return func(f *Fragment) ([4]uint8, bool) {
		u, v := f.UV[0], f.UV[1]

		albedo := mathutil.Vec3{1, 1, 1}
		if mat.Albedo != nil {
			c := SampleTexture(mat.Albedo, u, v)
			// Skip transparent texels
			if c[3] < 8 {
				return [4]uint8{}, false
			}
			albedo = mathutil.Vec3{
				srgbToLinear[clamp255(c[0])],
				srgbToLinear[clamp255(c[1])],
				srgbToLinear[clamp255(c[2])],
			}
		}

		n := mathutil.Vec3(f.Normal).Normalize()
		if mat.Normal != nil {
			n = perturbNormal(n, f.Tangent, SampleTexture(mat.Normal, u, v), mat.NormalScale)
		}

		ao, rough, metal := 1.0, mat.Roughness, mat.Metallic
		if mat.ORM != nil {
			// Quantize to the stored 8-bit values so gloss and roughness
			// maps of the same data shade identically
			c := SampleTexture(mat.ORM, u, v)
			ao = float64(clamp255(c[0])) / 255
			g := clamp255(c[1])
			if mat.Gloss {
				g = 255 - g
			}
			rough = float64(g) / 255
			metal = float64(clamp255(c[2])) / 255
		}

		view := camera.Sub(mathutil.Vec3(f.Position)).Normalize()
		if n.Dot(view) < 0 {
			// Normal-mapped silhouettes can tilt away from the camera
			n = n.Sub(view.Scale(n.Dot(view))).Normalize()
		}

		col := lc.Shade(Surface{
			Normal:    n,
			View:      view,
			Albedo:    albedo,
			AO:        ao,
			Roughness: rough,
			Metallic:  metal,
		})
		return [4]uint8{lc.encodeSRGB(col[0]), lc.encodeSRGB(col[1]), lc.encodeSRGB(col[2]), 255}, true
	}
}

// perturbNormal maps a tangent-space normal texel into world space using the
// interpolated TBN frame. Green points along the bitangent (image up).
func perturbNormal(n mathutil.Vec3, tangent [4]float64, texel [4]float64, scale float64) mathutil.Vec3 {
	t := mathutil.Vec3{tangent[0], tangent[1], tangent[2]}
	// Gram-Schmidt against the interpolated normal
	t = t.Sub(n.Scale(n.Dot(t))).Normalize()
	sign := 1.0
	if tangent[3] < 0 {
		sign = -1
	}
	b := n.Cross(t).Scale(sign)

	tx := (texel[0]/255*2 - 1) * scale
	ty := (texel[1]/255*2 - 1) * scale
	tz := texel[2]/255*2 - 1

	out := t.Scale(tx).Add(b.Scale(ty)).Add(n.Scale(tz)).Normalize()
	if out == (mathutil.Vec3{}) {
		return n
	}
	return out
}
