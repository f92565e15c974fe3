package main

import (
	"fmt"

	"github.com/urfave/cli"

	"texkit/internal/config"
	"texkit/internal/log"
	"texkit/internal/normalmap"
	"texkit/internal/orm"
)

var logger = log.New("texkit")

func setupLogging(ctx *cli.Context) {
	if ctx.GlobalBool("v") {
		log.SetLevel(log.Info)
	}

	if ctx.GlobalBool("vv") {
		log.SetLevel(log.Debug)
	}
}

// loadConfig reads --config when given, overlays the command's flags and
// validates the result.
func loadConfig(ctx *cli.Context) (config.Config, error) {
	return resolveConfig(ctx, commandFlags(ctx))
}

func commandFlags(ctx *cli.Context) config.Flags {
	return config.Flags{
		OutputDir:  ctx.String("out-dir"),
		SetName:    ctx.String("name"),
		Size:       ctx.Int("size"),
		UseGloss:   ctx.Bool("gloss"),
		Workers:    ctx.Int("workers"),
		ListenAddr: ctx.String("listen"),
	}
}

func resolveConfig(ctx *cli.Context, flags config.Flags) (config.Config, error) {
	cfg := config.Default()
	if path := ctx.GlobalString("config"); path != "" {
		var err error
		if cfg, err = config.Load(path); err != nil {
			return cfg, err
		}
	}

	cfg.Resolve(flags)
	applyOverrideFlags(ctx, &cfg)
	applyNormalFlags(ctx, &cfg)

	if err := cfg.Validate(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// applyOverrideFlags enables a channel override for every *-value flag set to
// 0 or more.
func applyOverrideFlags(ctx *cli.Context, cfg *config.Config) {
	for _, o := range []struct {
		flag string
		dst  *config.ChannelOverride
	}{
		{"ao-value", &cfg.AO},
		{"roughness-value", &cfg.Roughness},
		{"metallic-value", &cfg.Metallic},
	} {
		if !ctx.IsSet(o.flag) {
			continue
		}
		if v := ctx.Int(o.flag); v >= 0 {
			*o.dst = config.ChannelOverride{Enabled: true, Value: v}
		}
	}
}

func applyNormalFlags(ctx *cli.Context, cfg *config.Config) {
	n := &cfg.Normal
	if ctx.IsSet("method") {
		n.Method = ctx.String("method")
	}
	for _, f := range []struct {
		flag string
		dst  *float64
	}{
		{"strength", &n.Strength},
		{"blur", &n.Blur},
		{"sharpen", &n.Sharpen},
		{"black", &n.BlackPoint},
		{"mid", &n.MidPoint},
		{"white", &n.WhitePoint},
	} {
		if ctx.IsSet(f.flag) {
			*f.dst = ctx.Float64(f.flag)
		}
	}
	if ctx.Bool("invert-y") {
		n.InvertY = true
	}
}

func ormOptions(cfg *config.Config) orm.Options {
	return orm.Options{
		Size:      cfg.OutputSize,
		UseGloss:  cfg.UseGloss,
		AO:        cfg.AO.Override(),
		Roughness: cfg.Roughness.Override(),
		Metallic:  cfg.Metallic.Override(),
	}
}

func normalParams(cfg *config.Config) (normalmap.Params, error) {
	p := cfg.NormalParams()
	if err := p.Validate(); err != nil {
		return p, fmt.Errorf("normal options: %w", err)
	}
	return p, nil
}
