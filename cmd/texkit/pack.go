package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"texkit/internal/batch"
	"texkit/internal/config"
	"texkit/internal/texset"
	"texkit/internal/texture"
)

// PackSet packages one texture set.
func PackSet(ctx *cli.Context) error {
	setupLogging(ctx)

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	set, err := setFromFlags(ctx, &cfg)
	if err != nil {
		return err
	}

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	path, manifest, err := texset.BuildFile(runCtx, set, texture.NewCache(), cfg.OutputDir, func(done, total int) {
		logger.Infof("%s: %d%%", set.Name, done*100/total)
	})
	if err != nil {
		return err
	}

	displayManifest(manifest)
	fmt.Printf("Wrote %s in %s\n", path, time.Since(start).Round(time.Millisecond))
	return nil
}

// setFromFlags builds the set from --dir discovery, then lets explicit slot
// flags replace discovered files.
func setFromFlags(ctx *cli.Context, cfg *config.Config) (texset.Set, error) {
	set := cfg.SetTemplate()
	set.DeriveNormal = ctx.Bool("derive-normal")
	set.IncludePreview = ctx.Bool("glb")

	if dir := ctx.String("dir"); dir != "" {
		idx, err := texture.DiscoverSet(dir)
		if err != nil {
			return set, err
		}
		if idx.Len() == 0 {
			return set, fmt.Errorf("no textures recognised in %s", dir)
		}
		for _, slot := range texture.Slots {
			if path, ok := idx.Path(slot); ok {
				set.SetPath(slot, path)
				logger.Infof("%s: %s", slot, filepath.Base(path))
			}
		}
		// Name the set after the directory unless told otherwise
		if !ctx.IsSet("name") && cfg.SetName == config.Default().SetName {
			set.Name = filepath.Base(filepath.Clean(dir))
		}
	}

	for _, slot := range texture.Slots {
		if path := ctx.String(strings.ToLower(string(slot))); path != "" {
			set.SetPath(slot, path)
		}
	}
	return set, nil
}

// BatchPack packages every set directory under the root argument.
func BatchPack(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return errors.New("missing root directory argument")
	}
	root := ctx.Args().First()

	cfg, err := loadConfig(ctx)
	if err != nil {
		return err
	}

	template := cfg.SetTemplate()
	template.DeriveNormal = ctx.Bool("derive-normal")
	template.IncludePreview = ctx.Bool("glb")

	sets, err := batch.Discover(root, template)
	if err != nil {
		return err
	}
	if len(sets) == 0 {
		fmt.Println("No texture sets found.")
		return nil
	}

	fmt.Printf("Sets: %d, Workers: %d\n", len(sets), cfg.Workers)
	fmt.Printf("Output: %s\n", cfg.OutputDir)

	runCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	start := time.Now()
	results := batch.Run(runCtx, batch.Config{
		OutputDir: cfg.OutputDir,
		Workers:   cfg.Workers,
	}, sets)
	elapsed := time.Since(start)

	if err := batch.WriteManifest(filepath.Join(cfg.OutputDir, batch.ManifestName), results); err != nil {
		return err
	}

	summary := displayResults(results)
	fmt.Printf("Done in %.1fs: %d packaged, %d failed\n", elapsed.Seconds(), summary.Succeeded, summary.Failed)
	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d sets failed", summary.Failed, summary.Total)
	}
	return nil
}

func displayManifest(m *texset.Manifest) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Slot", "File", "Source", "Generated", "Bytes"})
	for _, e := range m.Entries {
		table.Append([]string{
			string(e.Slot),
			e.File,
			e.Source,
			fmt.Sprintf("%t", e.Generated),
			fmt.Sprintf("%d", e.Size),
		})
	}
	table.Render()
	fmt.Print(buf.String())
}

func displayResults(results []batch.Result) batch.Manifest {
	summary := batch.Summarize(results)

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Set", "Archive", "Entries", "Time", "Error"})
	for _, r := range results {
		table.Append([]string{
			r.Name,
			r.Archive,
			fmt.Sprintf("%d", r.Entries),
			r.Duration.Round(time.Millisecond).String(),
			r.Error,
		})
	}
	table.SetFooter([]string{"", "", "", "TOTAL", fmt.Sprintf("%d/%d ok", summary.Succeeded, summary.Total)})
	table.Render()
	fmt.Print(buf.String())

	return summary
}
