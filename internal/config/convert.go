package config

import (
	"texkit/internal/normalmap"
	"texkit/internal/orm"
	"texkit/internal/texset"
)

// Override converts the JSON form into the packer's override. Values are
// clamped to a byte.
func (o ChannelOverride) Override() orm.Override {
	v := o.Value
	if v < 0 {
		v = 0
	}
	if v > 255 {
		v = 255
	}
	return orm.Override{Enabled: o.Enabled, Value: uint8(v)}
}

// NormalParams converts the normal settings for normalmap.Generate.
func (c *Config) NormalParams() normalmap.Params {
	return normalmap.Params{
		Method:     normalmap.Method(c.Normal.Method),
		Strength:   c.Normal.Strength,
		Blur:       c.Normal.Blur,
		Sharpen:    c.Normal.Sharpen,
		BlackPoint: c.Normal.BlackPoint,
		MidPoint:   c.Normal.MidPoint,
		WhitePoint: c.Normal.WhitePoint,
		InvertY:    c.Normal.InvertY,
	}
}

// SetTemplate returns a texture set carrying every shared option. Slot paths
// are left empty.
func (c *Config) SetTemplate() texset.Set {
	return texset.Set{
		Name:     c.SetName,
		Size:     c.OutputSize,
		UseGloss: c.UseGloss,
		Overrides: texset.Overrides{
			AO:        c.AO.Override(),
			Roughness: c.Roughness.Override(),
			Metallic:  c.Metallic.Override(),
		},
		NormalParams: c.NormalParams(),
	}
}
