package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"math/rand"
	"os"
	"time"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/iburimskiy/sound-dots/internal/audio"
	"github.com/iburimskiy/sound-dots/internal/config"
	"github.com/iburimskiy/sound-dots/internal/feedback"
	"github.com/iburimskiy/sound-dots/internal/game"
	"github.com/iburimskiy/sound-dots/internal/sim"
)

func main() {
	// CLI flags
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 0, "RNG seed (0 = time-based)")
	logText := flag.Bool("log-text", false, "Log as text instead of JSON")

	flag.Parse()

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, nil)
	if *logText {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	rngSeed := *seed
	if rngSeed == 0 {
		rngSeed = time.Now().UnixNano()
	}

	gopts := audio.OptionsFromConfig(cfg, true)
	gopts.Logger = logger
	graph := audio.NewGraph(gopts)
	if err := graph.Start(); err != nil {
		// Keep running without sound; the tap still records.
		slog.Warn("audio output unavailable", "error", err)
	}

	alloc := graph.NewAllocator(cfg.Audio.PoolSize, cfg.Audio.Polyphony, audio.ModeFor(cfg.Initial.HighPerformance))
	glow := feedback.NewThrottle(cfg.Derived.FeedbackInterval, nil)

	sopts := sim.OptionsFromConfig(cfg)
	sopts.Rand = rand.New(rand.NewSource(rngSeed))
	sopts.Logger = logger
	sopts.Mixer = graph
	sopts.Voices = alloc
	driver := sim.New(sopts)
	driver.AddSink(glow)

	slog.Info("starting",
		"seed", rngSeed,
		"canvas", cfg.Window.Canvas,
		"tps", cfg.Window.TargetFPS,
		"sample_rate", cfg.Audio.SampleRate,
	)

	ebiten.SetWindowSize(cfg.Window.Canvas, cfg.Window.Canvas)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetTPS(cfg.Window.TargetFPS)

	g := game.New(game.Options{
		Config: cfg,
		Driver: driver,
		Graph:  graph,
		Glow:   glow,
		Logger: logger,
	})
	runErr := ebiten.RunGame(g)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := graph.Close(ctx); err != nil {
		slog.Warn("audio teardown", "error", err)
	}

	if runErr != nil && !errors.Is(runErr, ebiten.Termination) {
		slog.Error("game exited", "error", runErr)
		os.Exit(1)
	}
}
