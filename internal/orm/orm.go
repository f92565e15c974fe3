// Package orm packs ambient-occlusion, roughness and metallic maps into the
// red, green and blue channels of a single texture.
package orm

import (
	"errors"
	"fmt"
	"image"

	"texkit/internal/log"
	"texkit/internal/texture"
)

var (
	// ErrNoInputs is returned when no channel has a map or an override.
	ErrNoInputs = errors.New("orm: no channel maps or overrides provided")

	// ErrSizeMismatch is returned when a channel map is not size×size.
	ErrSizeMismatch = errors.New("orm: channel map does not match output size")
)

var logger = log.New("orm")

// ChannelSource feeds one output channel. When Override is set Value is used
// for every pixel; otherwise the red channel of Map is read. A nil Map with
// no override yields 0.
type ChannelSource struct {
	Map      *image.NRGBA
	Override bool
	Value    uint8
}

func (c ChannelSource) at(x, y int) uint8 {
	if c.Override {
		return c.Value
	}
	if c.Map == nil {
		return 0
	}
	return c.Map.Pix[c.Map.PixOffset(c.Map.Rect.Min.X+x, c.Map.Rect.Min.Y+y)]
}

func (c ChannelSource) present() bool {
	return c.Override || c.Map != nil
}

func (c ChannelSource) check(name string, size int) error {
	if c.Override || c.Map == nil {
		return nil
	}
	b := c.Map.Bounds()
	if b.Dx() != size || b.Dy() != size {
		return fmt.Errorf("%w: %s is %dx%d, want %dx%d", ErrSizeMismatch, name, b.Dx(), b.Dy(), size, size)
	}
	return nil
}

// Pack builds a size×size ORM image: R = AO, G = roughness, B = metallic,
// A = 255. With useGloss the green channel stores 255 - roughness, for both
// map and override values. A roughness channel with neither stays 0.
func Pack(ao, rough, metal ChannelSource, size int, useGloss bool) (*image.NRGBA, error) {
	if size <= 0 {
		return nil, fmt.Errorf("orm: invalid output size %d", size)
	}
	for _, c := range []struct {
		name string
		src  ChannelSource
	}{{"ao", ao}, {"roughness", rough}, {"metallic", metal}} {
		if err := c.src.check(c.name, size); err != nil {
			return nil, err
		}
	}

	invert := useGloss && rough.present()
	out := image.NewNRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		off := y * out.Stride
		for x := 0; x < size; x++ {
			i := off + x*4
			g := rough.at(x, y)
			if invert {
				g = 255 - g
			}
			out.Pix[i] = ao.at(x, y)
			out.Pix[i+1] = g
			out.Pix[i+2] = metal.at(x, y)
			out.Pix[i+3] = 255
		}
	}
	return out, nil
}

// Override is a constant channel value that replaces the map when Enabled.
type Override struct {
	Enabled bool
	Value   uint8
}

// Paths names the source file for each channel; empty means absent.
type Paths struct {
	AO        string
	Roughness string
	Metallic  string
}

// Options controls Build.
type Options struct {
	Size      int
	UseGloss  bool
	AO        Override
	Roughness Override
	Metallic  Override
}

// HasInputs reports whether anything would end up in the ORM texture.
func HasInputs(paths Paths, opts Options) bool {
	return paths.AO != "" || paths.Roughness != "" || paths.Metallic != "" ||
		opts.AO.Enabled || opts.Roughness.Enabled || opts.Metallic.Enabled
}

// Build loads each channel map through res at opts.Size and packs them.
// Maps for overridden channels are never loaded.
func Build(res texture.Resolver, paths Paths, opts Options) (*image.NRGBA, error) {
	if !HasInputs(paths, opts) {
		return nil, ErrNoInputs
	}

	ao, err := source(res, "ao", paths.AO, opts.AO, opts.Size)
	if err != nil {
		return nil, err
	}
	rough, err := source(res, "roughness", paths.Roughness, opts.Roughness, opts.Size)
	if err != nil {
		return nil, err
	}
	metal, err := source(res, "metallic", paths.Metallic, opts.Metallic, opts.Size)
	if err != nil {
		return nil, err
	}

	return Pack(ao, rough, metal, opts.Size, opts.UseGloss)
}

func source(res texture.Resolver, name, path string, o Override, size int) (ChannelSource, error) {
	if o.Enabled {
		logger.Debugf("%s: constant %d", name, o.Value)
		return ChannelSource{Override: true, Value: o.Value}, nil
	}
	if path == "" {
		logger.Debugf("%s: no map, defaulting to 0", name)
		return ChannelSource{}, nil
	}
	img, err := res.Resolve(path, size)
	if err != nil {
		return ChannelSource{}, fmt.Errorf("orm: %s map: %w", name, err)
	}
	logger.Debugf("%s: %s", name, path)
	return ChannelSource{Map: img}, nil
}
