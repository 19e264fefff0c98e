// Command sounddots-render runs the simulation headless and writes the mixed
// output to a WAV file, optionally logging every border touch to CSV.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand"
	"os"

	"github.com/iburimskiy/sound-dots/internal/audio"
	"github.com/iburimskiy/sound-dots/internal/config"
	"github.com/iburimskiy/sound-dots/internal/sim"
	"github.com/iburimskiy/sound-dots/internal/telemetry"
)

func main() {
	configPath := flag.String("config", "", "Path to config.yaml (empty = use defaults)")
	seed := flag.Int64("seed", 1, "RNG seed")
	seconds := flag.Float64("seconds", 30, "Simulated duration")
	out := flag.String("out", "sounddots.wav", "Output WAV path")
	events := flag.String("events", "", "Border event CSV path (empty = disabled)")
	logText := flag.Bool("log-text", false, "Log as text instead of JSON")

	flag.Parse()

	var handler slog.Handler = slog.NewJSONHandler(os.Stdout, nil)
	if *logText {
		handler = slog.NewTextHandler(os.Stdout, nil)
	}
	slog.SetDefault(slog.New(handler))

	if err := run(*configPath, *seed, *seconds, *out, *events); err != nil {
		slog.Error("render failed", "error", err)
		os.Exit(1)
	}
}

func run(configPath string, seed int64, seconds float64, out, eventsPath string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if seconds <= 0 {
		return fmt.Errorf("seconds must be positive, got %v", seconds)
	}

	events, err := telemetry.CreateEventLog(eventsPath)
	if err != nil {
		return err
	}
	defer events.Close()

	graph := audio.NewGraph(audio.OptionsFromConfig(cfg, false))
	alloc := graph.NewAllocator(cfg.Audio.PoolSize, cfg.Audio.Polyphony, audio.ModeFor(cfg.Initial.HighPerformance))

	opts := sim.OptionsFromConfig(cfg)
	opts.Rand = rand.New(rand.NewSource(seed))
	opts.Mixer = graph
	opts.Voices = alloc
	driver := sim.New(opts)
	if events != nil {
		driver.AddSink(events)
	}
	driver.Submit(cfg.Initial)

	ticks := int(seconds * float64(cfg.Window.TargetFPS))
	perFrame := cfg.Derived.SamplesPerFrame
	frames := make([][2]float64, 0, ticks*perFrame+graph.SampleRate().N(cfg.Derived.Teardown))

	slog.Info("rendering",
		"seed", seed,
		"ticks", ticks,
		"sample_rate", cfg.Audio.SampleRate,
		"density", cfg.Initial.Density,
		"harmony", cfg.Initial.Harmony,
	)

	buf := make([][2]float64, perFrame)
	for i := 0; i < ticks; i++ {
		driver.Tick()
		n := graph.Render(buf)
		frames = append(frames, buf[:n]...)
	}

	// Render the teardown fade so the file ends in silence.
	if err := graph.Close(context.Background()); err != nil {
		return err
	}
	tail := make([][2]float64, graph.SampleRate().N(cfg.Derived.Teardown))
	n := graph.Render(tail)
	frames = append(frames, tail[:n]...)

	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("creating output: %w", err)
	}
	if err := audio.WriteWAV(f, frames, cfg.Audio.SampleRate); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output: %w", err)
	}
	if err := events.Err(); err != nil {
		return err
	}

	slog.Info("render complete",
		"out", out,
		"frames", len(frames),
		"particles", len(driver.Particles()),
		"touches", events.Count(),
	)
	return nil
}
