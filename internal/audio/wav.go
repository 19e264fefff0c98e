package audio

import (
	"fmt"
	"io"
	"os"

	goaudio "github.com/go-audio/audio"
	"github.com/go-audio/wav"
)

// WriteWAV encodes stereo frames as 16-bit PCM.
func WriteWAV(w io.WriteSeeker, frames [][2]float64, sampleRate int) error {
	enc := wav.NewEncoder(w, sampleRate, 16, 2, 1)
	buf := &goaudio.IntBuffer{
		Format: &goaudio.Format{
			NumChannels: 2,
			SampleRate:  sampleRate,
		},
		Data:           make([]int, len(frames)*2),
		SourceBitDepth: 16,
	}
	for i, f := range frames {
		buf.Data[i*2] = int(clampUnit(f[0]) * 32767)
		buf.Data[i*2+1] = int(clampUnit(f[1]) * 32767)
	}
	if err := enc.Write(buf); err != nil {
		return fmt.Errorf("encoding wav: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("finishing wav: %w", err)
	}
	return nil
}

// SaveWAV writes the tap's recorded frames to path.
func (t *Tap) SaveWAV(path string, sampleRate int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if err := WriteWAV(f, t.Snapshot(t.Len()), sampleRate); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	return nil
}

func clampUnit(v float64) float64 {
	return max(-1, min(1, v))
}
