package framegraph

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/gogpu/gputypes"
	"github.com/pelletier/go-toml/v2"
)

// Config is the file form of a frame graph run.
//
//	width = 1280
//	height = 720
//	frames = 3
//	sample_count = 4
//	show_ui = true
//	overlay = "frame graph"
//	clear_color = [0.1, 0.1, 0.12, 1.0]
//	group_name = "main"
//	log_level = "debug"
type Config struct {
	Width       uint32    `toml:"width"`
	Height      uint32    `toml:"height"`
	Frames      int       `toml:"frames"`
	SampleCount uint32    `toml:"sample_count"`
	ShowUI      bool      `toml:"show_ui"`
	Overlay     string    `toml:"overlay"`
	ClearColor  []float64 `toml:"clear_color"`
	GroupName   string    `toml:"group_name"`
	LogLevel    string    `toml:"log_level"`
}

// DefaultConfig returns the configuration used when no file is given.
func DefaultConfig() Config {
	return Config{
		Width:       640,
		Height:      360,
		Frames:      3,
		SampleCount: 1,
		ShowUI:      true,
		Overlay:     "framegraph",
		ClearColor:  []float64{0.05, 0.05, 0.08, 1},
		GroupName:   "frame",
		LogLevel:    "info",
	}
}

// LoadConfig reads a TOML file over DefaultConfig.
func LoadConfig(filename string) (Config, error) {
	fp, err := os.Open(filename)
	if err != nil {
		return Config{}, err
	}
	defer fp.Close()
	cfg, err := ReadConfig(bufio.NewReader(fp))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", filename, err)
	}
	return cfg, nil
}

// ReadConfig decodes TOML from r over DefaultConfig and validates the
// result. Unknown keys are an error.
func ReadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()
	if err := toml.NewDecoder(r).DisallowUnknownFields().Decode(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate reports the first invalid field.
func (c Config) Validate() error {
	switch {
	case c.Width == 0 || c.Height == 0:
		return fmt.Errorf("config: invalid size %dx%d", c.Width, c.Height)
	case c.Frames < 0:
		return fmt.Errorf("config: negative frame count %d", c.Frames)
	case c.SampleCount != 1 && c.SampleCount != 4:
		return fmt.Errorf("config: sample_count must be 1 or 4, got %d", c.SampleCount)
	case len(c.ClearColor) != 0 && len(c.ClearColor) != 4:
		return errors.New("config: clear_color needs 4 components")
	}
	if _, err := c.Level(); err != nil {
		return err
	}
	return nil
}

// Level parses LogLevel. An empty level is info.
func (c Config) Level() (slog.Level, error) {
	var level slog.Level
	if c.LogLevel == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return 0, fmt.Errorf("config: %w", err)
	}
	return level, nil
}

// RenderOptions converts the configuration to per-frame render options.
func (c Config) RenderOptions() RenderOptions {
	opts := RenderOptions{
		ShowUI:      c.ShowUI,
		Overlay:     c.Overlay,
		SampleCount: c.SampleCount,
		Width:       c.Width,
		Height:      c.Height,
	}
	if len(c.ClearColor) == 4 {
		opts.ClearColor = gputypes.Color{R: c.ClearColor[0], G: c.ClearColor[1], B: c.ClearColor[2], A: c.ClearColor[3]}
	}
	return opts
}
