// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: MIT

// Command pageview lays a text file out as pages, renders them with their
// text layers and writes one PNG per page, with search matches highlighted.
package main

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/gogpu/gg"
	"github.com/golang/geo/r2"
	"golang.org/x/text/language"

	"github.com/gogpu/pageview"
	"github.com/gogpu/pageview/document"
	"github.com/gogpu/pageview/eventbus"
	"github.com/gogpu/pageview/highlight"
	"github.com/gogpu/pageview/layers"
	"github.com/gogpu/pageview/runloop"
)

var cli struct {
	Input    string  `arg:"" name:"input" type:"path" help:"Text file to lay out as pages"`
	Output   string  `short:"o" type:"path" default:"." help:"Directory the page images are written to"`
	Query    string  `short:"q" help:"Text to highlight"`
	All      bool    `short:"a" help:"Highlight every match, not only the first"`
	Lang     string  `default:"und" help:"BCP 47 language used to match the query"`
	Renderer string  `short:"r" enum:"canvas,svg" default:"canvas" help:"Page renderer"`
	Scale    float64 `short:"s" default:"1" help:"Zoom factor"`
	Rotation int     `default:"0" help:"Rotation in degrees, a multiple of 90"`
	Lines    int     `default:"48" help:"Lines per page"`
	FontSize float64 `default:"12" help:"Font size in points"`
	Zoom     float64 `help:"Also write a zoom preview at this factor"`
	Verbose  bool    `short:"v" help:"Log the render lifecycle"`
}

var letter = r2.RectFromPoints(r2.Point{X: 0, Y: 0}, r2.Point{X: 612, Y: 792})

func main() {
	ctx := kong.Parse(&cli)
	ctx.FatalIfErrorf(run())
}

func run() error {
	if cli.Verbose {
		pageview.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}
	tag, err := language.Parse(cli.Lang)
	if err != nil {
		return fmt.Errorf("language %q: %w", cli.Lang, err)
	}
	data, err := os.ReadFile(cli.Input)
	if err != nil {
		return err
	}
	pages := paginate(strings.Split(strings.ReplaceAll(string(data), "\r\n", "\n"), "\n"), cli.Lines)
	if err := os.MkdirAll(cli.Output, 0o755); err != nil {
		return err
	}

	f := newFinder(tag, cli.Query, cli.All)
	loop := runloop.New()
	bus := eventbus.New()

	views := make([]*pageview.PageView, 0, len(pages))
	defer func() {
		for _, v := range views {
			v.Destroy()
		}
	}()
	for i, lines := range pages {
		page := &document.StaticPage{
			Number: i + 1,
			Box:    letter,
			Chunks: []*document.TextContent{document.TextLines(letter, cli.FontSize, lines...)},
		}
		f.setPage(i, lines)

		v, err := pageview.New(i+1,
			pageview.WithLoop(loop),
			pageview.WithEventBus(bus),
			pageview.WithRenderer(cli.Renderer),
			pageview.WithScale(cli.Scale),
			pageview.WithRotation(cli.Rotation),
			pageview.WithFinder(f),
		)
		if err != nil {
			return err
		}
		views = append(views, v)
		if err := v.SetPdfPage(page); err != nil {
			return err
		}
		if _, err := v.Draw(); err != nil {
			return err
		}
	}
	loop.RunUntilIdle()

	bus.Dispatch(eventbus.UpdateTextLayerMatchesEvent{PageIndex: -1})
	loop.RunUntilIdle()

	for _, v := range views {
		if err := writePage(v); err != nil {
			return err
		}
		if cli.Zoom > 0 {
			if err := writeZoomPreview(v, loop); err != nil {
				return err
			}
		}
	}
	fmt.Printf("%d pages, %d matches for %q\n", len(views), f.total(), cli.Query)
	return nil
}

// paginate splits lines into pages of n lines. An empty input still
// yields one page.
func paginate(lines []string, n int) [][]string {
	if n <= 0 {
		n = 1
	}
	var pages [][]string
	for len(lines) > n {
		pages = append(pages, lines[:n])
		lines = lines[n:]
	}
	return append(pages, lines)
}

func writePage(v *pageview.PageView) error {
	if err := v.RenderError(); err != nil {
		return err
	}
	target := v.Target()
	if target == nil {
		return fmt.Errorf("page %d: not rendered", v.ID())
	}
	img, err := target.Snapshot()
	if err != nil {
		return fmt.Errorf("page %d: %w", v.ID(), err)
	}
	if root := v.Layers().Layer(layers.SlotText); root != nil && cli.Query != "" {
		scale := float64(target.Width()) / v.Width()
		if img, err = highlight.Composite(img, root, scale, highlight.DefaultPalette()); err != nil {
			return fmt.Errorf("page %d: %w", v.ID(), err)
		}
	}
	return save(img, fmt.Sprintf("page-%03d.png", v.ID()))
}

func writeZoomPreview(v *pageview.PageView, loop *runloop.Loop) error {
	if err := v.Update(pageview.UpdateParams{Scale: cli.Zoom}); err != nil {
		return err
	}
	img, err := v.ZoomPreview()
	if errors.Is(err, pageview.ErrNoZoomLayer) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("page %d: %w", v.ID(), err)
	}
	if _, err := v.Draw(); err != nil {
		return err
	}
	loop.RunUntilIdle()
	return save(img, fmt.Sprintf("page-%03d-zoom.png", v.ID()))
}

func save(img image.Image, name string) error {
	dc := gg.NewContextForImage(img)
	defer dc.Close()
	path := filepath.Join(cli.Output, name)
	if err := dc.SavePNG(path); err != nil {
		return fmt.Errorf("save %s: %w", path, err)
	}
	return nil
}
