package raster

import (
	"math"

	"texkit/internal/mathutil"
)

// LightConfig holds the preview scene lighting: a white ambient term plus one
// directional key light.
type LightConfig struct {
	LightDir mathutil.Vec3
	Ambient  float64
	Direct   float64
	Exposure float64
	InvGamma float64 // output encoding exponent
}

// DefaultLightConfig returns the preview lighting: ambient 0.4 and a 1.2 key
// light from (2, 2, 3).
func DefaultLightConfig() LightConfig {
	return LightConfig{
		LightDir: mathutil.Vec3{2, 2, 3}.Normalize(),
		Ambient:  0.4,
		Direct:   1.2,
		Exposure: 1.0,
		InvGamma: 1.0 / 2.2,
	}
}

// Surface is everything the shader needs at one pixel.
type Surface struct {
	Normal    mathutil.Vec3 // unit, world space
	View      mathutil.Vec3 // unit, towards the camera
	Albedo    mathutil.Vec3 // linear
	AO        float64
	Roughness float64
	Metallic  float64
}

// minRoughness keeps the Blinn-Phong exponent finite.
const minRoughness = 0.04

// Shade returns linear RGB for s: Lambert diffuse with AO-scaled ambient and
// a normalized Blinn-Phong lobe whose exponent follows roughness.
func (lc *LightConfig) Shade(s Surface) mathutil.Vec3 {
	ndl := math.Max(s.Normal.Dot(lc.LightDir), 0)

	diffuse := s.Albedo.Scale((1 - s.Metallic) * (lc.Ambient*s.AO + lc.Direct*ndl))

	rough := math.Max(s.Roughness, minRoughness)
	alpha := rough * rough
	specPow := 2/(alpha*alpha) - 2
	if specPow > 4096 {
		specPow = 4096
	}

	// Dielectrics reflect 4%, metals reflect their albedo
	f0 := mathutil.Vec3{0.04, 0.04, 0.04}.Lerp(s.Albedo, s.Metallic)

	half := lc.LightDir.Add(s.View).Normalize()
	ndh := math.Max(s.Normal.Dot(half), 0)
	spec := math.Pow(ndh, specPow) * (specPow + 8) / (8 * math.Pi) * ndl * lc.Direct

	// Metals still pick up some ambient through their tint
	ambientSpec := f0.Scale(lc.Ambient * s.AO * s.Metallic)

	return diffuse.Add(f0.Scale(spec)).Add(ambientSpec).Scale(lc.Exposure)
}

// Precomputed sRGB-to-linear lookup table (256 entries).
var srgbToLinear [256]float64

func init() {
	for i := 0; i < 256; i++ {
		srgbToLinear[i] = math.Pow(float64(i)/255.0, 2.2)
	}
}

// ACESTonemap applies ACES Filmic tone mapping to a linear value.
func ACESTonemap(x float64) float64 {
	return (x * (2.51*x + 0.03)) / (x*(2.43*x+0.59) + 0.14)
}

// encodeSRGB tone-maps a linear value and gamma-encodes it to a byte.
func (lc *LightConfig) encodeSRGB(x float64) uint8 {
	if x <= 0 {
		return 0
	}
	return clamp255(math.Pow(ACESTonemap(x), lc.InvGamma) * 255)
}

func clamp255(v float64) uint8 {
	if v < 0 {
		return 0
	}
	if v > 255 {
		return 255
	}
	return uint8(v + 0.5)
}
