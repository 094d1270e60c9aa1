// Command motion renders a scene script to frames or a video.
//
//	motion [script.json]
//
// Without a script the built-in sample is rendered. Output goes to
// OUTPUT_DIR in FORMAT; see internal/config for the environment.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/inamate/motion/internal/config"
	"github.com/inamate/motion/internal/document"
	"github.com/inamate/motion/internal/engine"
	"github.com/inamate/motion/internal/render/raster"
	"github.com/inamate/motion/internal/render/svg"
	"github.com/inamate/motion/internal/render/video"
	"github.com/inamate/motion/internal/scene"
	"github.com/inamate/motion/internal/typeid"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [script.json]\n", os.Args[0])
	}
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("load config", "error", err)
		os.Exit(1)
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.Level()})))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, flag.Arg(0)); err != nil {
		slog.Error("render failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, path string) error {
	script, err := loadScript(cfg, path)
	if err != nil {
		return err
	}

	id := typeid.NewRenderID()
	logger := slog.Default().With("render", id)
	logger.Info("render started", "script", script.ID, "format", cfg.Format, "output", cfg.OutputDir)

	r, closeRenderer, err := newRenderer(ctx, cfg, script, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	eng := engine.NewEngine(
		engine.WithClock(scene.OfflineClock{}),
		engine.WithLogger(logger),
		engine.WithFontSize(cfg.FontSize),
		engine.WithAssetDir(cfg.AssetDir),
	)
	runErr := eng.Run(ctx, script, r)
	if err := closeRenderer(); err != nil && runErr == nil {
		runErr = err
	}
	if runErr != nil {
		return runErr
	}
	logger.Info("render complete", "frames", eng.Scene().FrameCount(), "elapsed", time.Since(start))
	return nil
}

// loadScript reads the script at path, or builds the sample sized from the
// environment when path is empty.
func loadScript(cfg *config.Config, path string) (*document.Script, error) {
	if path == "" {
		s := document.NewSampleScript()
		s.Settings.Width, s.Settings.Height, s.Settings.FPS = cfg.Width, cfg.Height, cfg.FPS
		return s, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	s, err := document.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return s, nil
}

func newRenderer(ctx context.Context, cfg *config.Config, script *document.Script, logger *slog.Logger) (scene.Renderer, func() error, error) {
	noop := func() error { return nil }
	switch cfg.Format {
	case "png":
		sink, err := raster.NewPNGDir(cfg.OutputDir)
		if err != nil {
			return nil, nil, err
		}
		return raster.New(sink, logger), noop, nil
	case "svg":
		dir, err := svg.NewDir(cfg.OutputDir, logger)
		if err != nil {
			return nil, nil, err
		}
		return dir, noop, nil
	}

	format, err := video.ParseFormat(cfg.Format)
	if err != nil {
		return nil, nil, err
	}
	if err := os.MkdirAll(cfg.OutputDir, 0o755); err != nil {
		return nil, nil, fmt.Errorf("create output dir: %w", err)
	}
	name := script.Name
	if name == "" {
		name = script.ID
	}
	enc, err := video.Start(ctx, video.Options{
		FFmpegPath: cfg.FfmpegPath,
		Format:     format,
		FPS:        script.Settings.FPS,
		Output:     filepath.Join(cfg.OutputDir, name+"."+string(format)),
		Logger:     logger,
	})
	if err != nil {
		return nil, nil, err
	}
	return raster.New(enc, logger), enc.Close, nil
}
