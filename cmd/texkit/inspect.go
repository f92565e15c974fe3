package main

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"

	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"

	"texkit/internal/texture"
)

// InspectTextures prints one table row per file argument. Files that fail to
// decode still get a row with the error.
func InspectTextures(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return errors.New("missing texture file arguments")
	}

	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"File", "Format", "Size", "Slot", "Mean R", "Mean G", "Mean B", "Mean A"})

	for _, path := range ctx.Args() {
		table.Append(inspectRow(path))
	}

	table.Render()
	fmt.Print(buf.String())
	return nil
}

func inspectRow(path string) []string {
	slot, ok := texture.Classify(path)
	slotName := "-"
	if ok {
		slotName = string(slot)
	}

	row := []string{filepath.Base(path), texture.Ext(path), "-", slotName, "-", "-", "-", "-"}
	img, err := texture.Load(path)
	if err != nil {
		logger.Warningf("%s: %v", path, err)
		row[2] = "error"
		return row
	}

	b := img.Bounds()
	row[2] = fmt.Sprintf("%dx%d", b.Dx(), b.Dy())
	mean := channelMeans(img)
	for c := 0; c < 4; c++ {
		row[4+c] = fmt.Sprintf("%.1f", mean[c])
	}
	return row
}

// channelMeans returns the average of each NRGBA channel.
func channelMeans(img *image.NRGBA) [4]float64 {
	var sum [4]float64
	b := img.Bounds()
	n := b.Dx() * b.Dy()
	if n == 0 {
		return sum
	}
	for y := b.Min.Y; y < b.Max.Y; y++ {
		off := img.PixOffset(b.Min.X, y)
		for x := 0; x < b.Dx(); x++ {
			for c := 0; c < 4; c++ {
				sum[c] += float64(img.Pix[off+x*4+c])
			}
		}
	}
	for c := range sum {
		sum[c] /= float64(n)
	}
	return sum
}
