// Command fgdemo renders a few frames of the built-in frame graph on a
// headless device and reports what the allocator did each frame.
package main

import (
	"flag"
	"fmt"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/framegraph"
	"github.com/gogpu/framegraph/device"
)

type demoScene struct{ draws int }

func (s demoScene) Name() string   { return "demo" }
func (s demoScene) DrawCount() int { return s.draws }

func main() {
	var (
		configFile = flag.String("config", "", "TOML configuration file")
		frames     = flag.Int("frames", -1, "frame count (overrides config)")
		output     = flag.String("output", "", "write the last presented frame as PNG")
		resize     = flag.Int("resize-at", -1, "halve the render size at this frame to show cache misses")
	)
	flag.Parse()

	cfg := framegraph.DefaultConfig()
	if *configFile != "" {
		var err error
		if cfg, err = framegraph.LoadConfig(*configFile); err != nil {
			log.Fatalf("Failed to load config: %v", err)
		}
	}
	if *frames >= 0 {
		cfg.Frames = *frames
	}

	level, err := cfg.Level()
	if err != nil {
		log.Fatal(err)
	}
	framegraph.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(cfg, *resize, *output); err != nil {
		log.Fatal(err)
	}
}

func run(cfg framegraph.Config, resizeAt int, output string) error {
	dev, err := device.NewHeadless()
	if err != nil {
		return fmt.Errorf("open device: %w", err)
	}
	defer dev.Destroy()

	fg := framegraph.New(dev, framegraph.WithGroupName(cfg.GroupName))
	defer fg.Release()
	alloc := framegraph.NewAllocator(dev)
	defer alloc.Release()

	width, height := int(cfg.Width), int(cfg.Height)
	vp, err := device.NewOffscreenViewport(dev, width, height)
	if err != nil {
		return fmt.Errorf("create viewport: %w", err)
	}
	defer func() { vp.Release() }()

	for i := range cfg.Frames {
		if i == resizeAt {
			vp.Release()
			width, height = max(width/2, 1), max(height/2, 1)
			if vp, err = device.NewOffscreenViewport(dev, width, height); err != nil {
				return fmt.Errorf("resize viewport: %w", err)
			}
		}

		frame := &framegraph.FrameInfo{
			Index:    uint64(i), //nolint:gosec // G115: frame index is non-negative
			Viewport: vp,
			Scene:    demoScene{draws: 16 + i},
			Camera:   framegraph.DefaultCamera(),
			Options:  cfg.RenderOptions(),
		}
		if err := fg.Build(frame); err != nil {
			return err
		}
		if err := fg.Execute(frame, alloc); err != nil {
			return err
		}
		framegraph.Logger().Info("frame done", "index", i, "size", fmt.Sprintf("%dx%d", width, height),
			"allocator", alloc.Stats().String())
	}
	framegraph.Logger().Info("device", "stats", dev.Stats().String())

	if output == "" || vp.Presented() == 0 {
		return nil
	}
	f, err := os.Create(output)
	if err != nil {
		return err
	}
	if err := png.Encode(f, vp.Frame()); err != nil {
		_ = f.Close()
		return err
	}
	log.Printf("Last frame saved to %s (%dx%d)\n", output, width, height)
	return f.Close()
}
