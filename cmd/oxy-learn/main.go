// Command oxy-learn opens a window and draws the configured tutorial pipeline every frame until
// the window is closed or the exit key is pressed.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"github.com/Carmen-Shannon/oxy-learn/engine"
	"github.com/Carmen-Shannon/oxy-learn/engine/config"
	"github.com/cogentcore/webgpu/wgpu"
)

func main() {
	os.Exit(run())
}

func run() int {
	var (
		configPath = flag.String("config", "", "TOML configuration file, defaults to the procedural triangle")
		frames     = flag.Uint64("frames", 0, "stop after this many frames, 0 runs until the window closes")
		fallback   = flag.Bool("fallback", false, "force the fallback (software) adapter")
		logLevel   = flag.String("log-level", "", "override the configured log level (debug, info, warn, error)")
		profile    = flag.Bool("profile", false, "log frame statistics every second")
	)
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "oxy-learn: %v\n", err)
			return engine.ExitCode(err)
		}
		cfg = loaded
	}
	if *frames > 0 {
		cfg.Renderer.MaxFrames = *frames
	}
	if *fallback {
		cfg.Renderer.ForceFallbackAdapter = true
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	if v := os.Getenv("WGPU_LOG_LEVEL"); v != "" {
		cfg.Log.WGPULevel = v
	}

	level, err := cfg.SlogLevel()
	if err != nil {
		fmt.Fprintf(os.Stderr, "oxy-learn: %v\n", err)
		return engine.ExitCode(err)
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)

	wgpuLevel, err := cfg.WGPULogLevel()
	if err != nil {
		logger.Error("configure native log level", "error", err)
		return engine.ExitCode(err)
	}
	wgpu.SetLogLevel(wgpuLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	e, err := engine.NewEngine(ctx, cfg,
		engine.WithLogger(logger),
		engine.WithProfiling(*profile),
	)
	if err != nil {
		logger.Error("initialize", "error", err)
		return engine.ExitCode(err)
	}
	defer e.Release()

	if err := e.Run(ctx); err != nil {
		logger.Error("run", "error", err)
		return engine.ExitCode(err)
	}
	return engine.ExitOK
}
