package game

import (
	"errors"
	"fmt"
	"path/filepath"

	"github.com/ncruces/zenity"

	"github.com/iburimskiy/sound-dots/internal/config"
)

// openConfigDialog loads a YAML file and applies its initial snapshot live.
// Structural settings (window, audio graph) take effect on restart.
func (g *Game) openConfigDialog() error {
	filename, err := zenity.SelectFile(
		zenity.Title("Open Config"),
		zenity.FileFilters{{
			Name:     "YAML",
			Patterns: []string{"*.yaml", "*.yml"},
		}},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil
		}
		return err
	}

	cfg, err := config.Load(filename)
	if err != nil {
		return err
	}
	g.snap = cfg.Initial.Normalize(g.cfg.Audio.MaxTrail)
	g.driver.Submit(g.snap)
	g.notice = "loaded " + filepath.Base(filename)
	g.log.Info("config applied", "path", filename, "harmony", g.snap.Harmony)
	return nil
}

// saveCaptureDialog writes the recent output to a WAV file.
func (g *Game) saveCaptureDialog() error {
	if g.graph == nil {
		return nil
	}
	filename, err := zenity.SelectFileSave(
		zenity.Title("Save Recording"),
		zenity.Filename("sound-dots.wav"),
		zenity.ConfirmOverwrite(),
		zenity.FileFilters{{
			Name:     "WAV",
			Patterns: []string{"*.wav"},
		}},
	)
	if err != nil {
		if errors.Is(err, zenity.ErrCanceled) {
			return nil
		}
		return err
	}

	if err := g.graph.Tap().SaveWAV(filename, int(g.graph.SampleRate())); err != nil {
		return fmt.Errorf("saving recording: %w", err)
	}
	g.notice = "saved " + filepath.Base(filename)
	g.log.Info("recording saved", "path", filename, "frames", g.graph.Tap().Len())
	return nil
}
