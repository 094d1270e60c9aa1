package config

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	Width          int     `envconfig:"WIDTH" default:"1280"`
	Height         int     `envconfig:"HEIGHT" default:"720"`
	FPS            float64 `envconfig:"FPS" default:"30"`
	OutputDir      string  `envconfig:"OUTPUT_DIR" default:"./out"`
	AssetDir       string  `envconfig:"ASSET_DIR" default:"./assets"`
	Format         string  `envconfig:"FORMAT" default:"png"`
	FfmpegPath     string  `envconfig:"FFMPEG_PATH" default:"ffmpeg"`
	FontSize       float64 `envconfig:"FONT_SIZE" default:"48"`
	Port           int     `envconfig:"PORT" default:"8080"`
	AllowedOrigins string  `envconfig:"ALLOWED_ORIGINS" default:"http://localhost:5173,http://localhost:3000"`
	LogLevel       string  `envconfig:"LOG_LEVEL" default:"info"`
}

// Formats accepted by FORMAT.
var Formats = []string{"png", "svg", "mp4", "gif", "webm"}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	if c.Width <= 0 || c.Height <= 0 {
		return fmt.Errorf("invalid frame size %dx%d", c.Width, c.Height)
	}
	if c.FPS <= 0 {
		return fmt.Errorf("invalid FPS %v", c.FPS)
	}
	if c.FontSize <= 0 {
		return fmt.Errorf("invalid FONT_SIZE %v", c.FontSize)
	}
	c.Format = strings.ToLower(c.Format)
	for _, f := range Formats {
		if c.Format == f {
			return nil
		}
	}
	return fmt.Errorf("unsupported FORMAT %q, want one of %s", c.Format, strings.Join(Formats, ", "))
}

// Origins splits ALLOWED_ORIGINS into host patterns for websocket.Accept.
func (c *Config) Origins() []string {
	var out []string
	for _, o := range strings.Split(c.AllowedOrigins, ",") {
		o = strings.TrimSpace(o)
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		if o != "" {
			out = append(out, o)
		}
	}
	return out
}

// Level maps LOG_LEVEL onto a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
