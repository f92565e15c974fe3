package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"runtime"
)

// MaxOutputSize bounds the square ORM output so a typo cannot allocate gigabytes.
const MaxOutputSize = 16384

// MaxPreviewSize bounds the rendered sphere preview.
const MaxPreviewSize = 4096

// ErrInvalidConfig is wrapped by every Validate failure.
var ErrInvalidConfig = errors.New("config: invalid configuration")

// Config holds all configurable texture-set and render settings.
type Config struct {
	// Output
	OutputDir  string `json:"output_dir"`
	SetName    string `json:"set_name"`
	OutputSize int    `json:"output_size"`
	UseGloss   bool   `json:"use_gloss"`

	// Constant channel substitutes for the ORM packer
	AO        ChannelOverride `json:"ao"`
	Roughness ChannelOverride `json:"roughness"`
	Metallic  ChannelOverride `json:"metallic"`

	Normal  NormalConfig  `json:"normal"`
	Preview PreviewConfig `json:"preview"`

	Workers    int    `json:"workers"`
	ListenAddr string `json:"listen_addr"`
}

// ChannelOverride replaces an ORM channel with a constant when Enabled.
type ChannelOverride struct {
	Enabled bool `json:"enabled"`
	Value   int  `json:"value"`
}

// NormalConfig mirrors normalmap.Params.
type NormalConfig struct {
	Method     string  `json:"method"`
	Strength   float64 `json:"strength"`
	Blur       float64 `json:"blur"`
	Sharpen    float64 `json:"sharpen"`
	BlackPoint float64 `json:"black_point"`
	MidPoint   float64 `json:"mid_point"`
	WhitePoint float64 `json:"white_point"`
	InvertY    bool    `json:"invert_y"`
}

// PreviewConfig controls the sphere preview render.
type PreviewConfig struct {
	Size        int     `json:"size"`
	Supersample int     `json:"supersample"`
	Yaw         float64 `json:"yaw"`
}

// Default returns a Config with every default filled in.
func Default() Config {
	cfg := base()
	cfg.Resolve(Flags{})
	return cfg
}

// base holds the defaults for fields where zero is a meaningful setting, so a
// file can still set them to zero explicitly.
func base() Config {
	return Config{
		AO: ChannelOverride{Value: 255},
		Normal: NormalConfig{
			Method:     "sobel",
			Strength:   1,
			MidPoint:   1,
			WhitePoint: 1,
		},
	}
}

// Load reads a JSON config file and returns Config.
// Fields not set in the file keep their defaults.
func Load(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("config: read %s: %w", path, err)
	}

	cfg := base()
	if err := json.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse %s: %w", path, err)
	}

	return cfg, nil
}

// Resolve fills in any empty fields with defaults.
// CLI flags take priority when non-zero/non-empty.
func (c *Config) Resolve(flags Flags) {
	// CLI flags override config file
	if flags.OutputDir != "" {
		c.OutputDir = flags.OutputDir
	}
	if flags.SetName != "" {
		c.SetName = flags.SetName
	}
	if flags.Size > 0 {
		c.OutputSize = flags.Size
	}
	if flags.UseGloss {
		c.UseGloss = true
	}
	if flags.Workers > 0 {
		c.Workers = flags.Workers
	}
	if flags.ListenAddr != "" {
		c.ListenAddr = flags.ListenAddr
	}

	if c.OutputDir == "" {
		c.OutputDir = "."
	}
	if c.SetName == "" {
		c.SetName = "MyTextSet01"
	}
	if c.OutputSize <= 0 {
		c.OutputSize = 2048
	}

	if c.Normal.Method == "" {
		c.Normal.Method = "sobel"
	}

	if flags.PreviewSize > 0 {
		c.Preview.Size = flags.PreviewSize
	}
	if c.Preview.Size <= 0 {
		c.Preview.Size = 256
	}
	if c.Preview.Supersample <= 0 {
		c.Preview.Supersample = 2
	}

	if c.Workers <= 0 {
		c.Workers = runtime.NumCPU()
	}
	if c.ListenAddr == "" {
		c.ListenAddr = ":8080"
	}
}

// Validate reports the first setting that cannot produce a texture.
func (c *Config) Validate() error {
	if c.OutputSize <= 0 || c.OutputSize > MaxOutputSize {
		return fmt.Errorf("%w: output_size %d out of range 1..%d", ErrInvalidConfig, c.OutputSize, MaxOutputSize)
	}
	for _, ch := range []struct {
		name string
		o    ChannelOverride
	}{{"ao", c.AO}, {"roughness", c.Roughness}, {"metallic", c.Metallic}} {
		if ch.o.Value < 0 || ch.o.Value > 255 {
			return fmt.Errorf("%w: %s value %d out of range 0..255", ErrInvalidConfig, ch.name, ch.o.Value)
		}
	}
	if c.Normal.WhitePoint <= c.Normal.BlackPoint {
		return fmt.Errorf("%w: white_point %.3f must exceed black_point %.3f", ErrInvalidConfig, c.Normal.WhitePoint, c.Normal.BlackPoint)
	}
	if c.Normal.MidPoint <= 0 {
		return fmt.Errorf("%w: mid_point must be positive", ErrInvalidConfig)
	}
	if c.Preview.Size > MaxPreviewSize {
		return fmt.Errorf("%w: preview size %d out of range 1..%d", ErrInvalidConfig, c.Preview.Size, MaxPreviewSize)
	}
	return nil
}

// Flags holds CLI flag values that override config file settings.
type Flags struct {
	OutputDir  string
	SetName    string
	Size       int
	UseGloss   bool
	Workers    int
	ListenAddr string

	PreviewSize int
}
