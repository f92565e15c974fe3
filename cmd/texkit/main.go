package main

import (
	"fmt"
	"os"

	"github.com/urfave/cli"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newApp() *cli.App {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "texkit"
	app.Usage = "pack ORM textures, derive normal maps and package texture sets"
	app.Version = "0.1.0"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
		cli.StringFlag{
			Name:  "config, c",
			Usage: "path to a JSON config file",
		},
	}

	sizeFlag := cli.IntFlag{
		Name:  "size, s",
		Usage: "square output size in pixels (default from config, 2048)",
	}
	glossFlag := cli.BoolFlag{
		Name:  "gloss",
		Usage: "store gloss (255 - roughness) in the green channel",
	}
	overrideFlags := []cli.Flag{
		cli.IntFlag{Name: "ao-value", Value: -1, Usage: "constant AO 0-255 instead of the map"},
		cli.IntFlag{Name: "roughness-value", Value: -1, Usage: "constant roughness 0-255 instead of the map"},
		cli.IntFlag{Name: "metallic-value", Value: -1, Usage: "constant metallic 0-255 instead of the map"},
	}
	normalFlags := []cli.Flag{
		cli.StringFlag{Name: "method", Usage: "gradient method: sobel or central"},
		cli.Float64Flag{Name: "strength", Usage: "normal strength (default 1)"},
		cli.Float64Flag{Name: "blur", Usage: "negative: gaussian sigma; positive: sharpen multiplier"},
		cli.Float64Flag{Name: "sharpen", Usage: "unsharp amount in percent (central method)"},
		cli.Float64Flag{Name: "black", Usage: "levels black point 0-1"},
		cli.Float64Flag{Name: "mid", Usage: "levels gamma (default 1)"},
		cli.Float64Flag{Name: "white", Usage: "levels white point 0-1 (default 1)"},
		cli.BoolFlag{Name: "invert-y", Usage: "flip the green channel (DirectX convention)"},
	}

	app.Commands = []cli.Command{
		{
			Name:      "orm",
			Usage:     "pack AO, roughness and metallic maps into one ORM texture",
			ArgsUsage: " ",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "ao", Usage: "ambient occlusion map"},
				cli.StringFlag{Name: "roughness", Usage: "roughness map"},
				cli.StringFlag{Name: "metallic", Usage: "metallic map"},
				cli.StringFlag{Name: "name, n", Usage: "texture set name used for the default output file"},
				cli.StringFlag{Name: "out, o", Usage: "output .png or .webp (default T_<name>_ORM.png)"},
				sizeFlag,
				glossFlag,
			}, overrideFlags...),
			Action: PackORM,
		},
		{
			Name:      "normal",
			Usage:     "derive a normal map from a height or albedo texture",
			ArgsUsage: "texture",
			Flags: append([]cli.Flag{
				cli.StringFlag{Name: "out, o", Usage: "output .png or .webp (default <texture>_Normal.png)"},
				cli.BoolFlag{Name: "preview", Usage: "generate at the 256px preview size"},
				cli.IntFlag{Name: "width", Usage: "output width (default source width)"},
				cli.IntFlag{Name: "height", Usage: "output height (default source height)"},
			}, normalFlags...),
			Action: GenerateNormal,
		},
		{
			Name:  "pack",
			Usage: "package one texture set into T_<name>.zip",
			Description: `
Copies albedo, normal and displacement under their T_<name>_<Slot> names,
packs AO/roughness/metallic into T_<name>_ORM.png and writes manifest.json.
Slots come from explicit flags or from file names in --dir.`,
			ArgsUsage: " ",
			Flags: append(append([]cli.Flag{
				cli.StringFlag{Name: "dir, d", Usage: "discover slot files in this directory"},
				cli.StringFlag{Name: "albedo", Usage: "albedo / base color map"},
				cli.StringFlag{Name: "normal", Usage: "normal map"},
				cli.StringFlag{Name: "displacement", Usage: "displacement / height map"},
				cli.StringFlag{Name: "ao", Usage: "ambient occlusion map"},
				cli.StringFlag{Name: "roughness", Usage: "roughness map"},
				cli.StringFlag{Name: "metallic", Usage: "metallic map"},
				cli.StringFlag{Name: "name, n", Usage: "texture set name (default MyTextSet01)"},
				cli.StringFlag{Name: "out-dir, o", Usage: "directory for the archive"},
				cli.BoolFlag{Name: "derive-normal", Usage: "generate the normal map from the albedo when missing"},
				cli.BoolFlag{Name: "glb", Usage: "add a GLB preview sphere to the archive"},
				sizeFlag,
				glossFlag,
			}, overrideFlags...), normalFlags...),
			Action: PackSet,
		},
		{
			Name:      "batch",
			Usage:     "package every subdirectory of a root folder concurrently",
			ArgsUsage: "root",
			Flags: append(append([]cli.Flag{
				cli.StringFlag{Name: "out-dir, o", Usage: "directory for the archives and batch.json"},
				cli.IntFlag{Name: "workers, w", Usage: "number of worker goroutines (default NumCPU)"},
				cli.BoolFlag{Name: "derive-normal", Usage: "generate missing normal maps from the albedo"},
				cli.BoolFlag{Name: "glb", Usage: "add a GLB preview sphere to each archive"},
				sizeFlag,
				glossFlag,
			}, overrideFlags...), normalFlags...),
			Action: BatchPack,
		},
		{
			Name:      "preview",
			Usage:     "render a lit sphere wearing the maps, or export it as GLB",
			ArgsUsage: " ",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "albedo", Usage: "albedo map"},
				cli.StringFlag{Name: "normal", Usage: "normal map"},
				cli.StringFlag{Name: "orm", Usage: "packed ORM map"},
				cli.StringFlag{Name: "out, o", Value: "preview.webp", Usage: "output .webp, .png or .glb"},
				cli.IntFlag{Name: "size, s", Usage: "render size (default 256)"},
				cli.IntFlag{Name: "supersample", Usage: "supersampling factor (default 2)"},
				cli.Float64Flag{Name: "yaw", Usage: "sphere rotation about Y in degrees"},
				cli.Float64Flag{Name: "pitch", Usage: "sphere rotation about X in degrees"},
				glossFlag,
			},
			Action: RenderPreview,
		},
		{
			Name:      "inspect",
			Usage:     "print format, size, detected slot and channel means of textures",
			ArgsUsage: "file1 file2 ...",
			Action:    InspectTextures,
		},
		{
			Name:  "serve",
			Usage: "serve the texture tools over HTTP",
			Flags: []cli.Flag{
				cli.StringFlag{Name: "listen, l", Usage: "listen address (default :8080)"},
			},
			Action: Serve,
		},
	}

	return app
}
