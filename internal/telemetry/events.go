// Package telemetry records border events for offline inspection.
package telemetry

import (
	"fmt"
	"io"
	"os"

	"github.com/gocarina/gocsv"

	"github.com/iburimskiy/sound-dots/internal/particle"
)

// TouchRecord is one CSV row.
type TouchRecord struct {
	Tick        int     `csv:"tick"`
	Particle    uint64  `csv:"particle"`
	Axis        string  `csv:"axis"`
	Count       int     `csv:"count"`
	Note        string  `csv:"note"`
	NoteChanged bool    `csv:"note_changed"`
	X           float64 `csv:"x"`
	Y           float64 `csv:"y"`
	Hue         float64 `csv:"hue"`
	Saturation  float64 `csv:"saturation"`
	Lightness   float64 `csv:"lightness"`
}

// EventLog appends every border touch to a CSV stream. A nil *EventLog
// discards everything.
type EventLog struct {
	w             io.Writer
	closer        io.Closer
	headerWritten bool
	err           error
	count         int
}

// NewEventLog writes to w.
func NewEventLog(w io.Writer) *EventLog {
	return &EventLog{w: w}
}

// CreateEventLog creates path and logs into it. An empty path returns nil
// (logging disabled).
func CreateEventLog(path string) (*EventLog, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating event log: %w", err)
	}
	return &EventLog{w: f, closer: f}, nil
}

// OnTouch implements particle.Sink. The first write error is kept and
// reported by Err; later touches are dropped.
func (l *EventLog) OnTouch(t particle.Touch) {
	if l == nil || l.err != nil {
		return
	}
	records := []TouchRecord{{
		Tick:        t.Tick,
		Particle:    t.Particle,
		Axis:        t.Axis.String(),
		Count:       t.Count,
		Note:        t.Note,
		NoteChanged: t.NoteChanged,
		X:           t.X,
		Y:           t.Y,
		Hue:         t.Hue,
		Saturation:  t.Saturation,
		Lightness:   t.Lightness,
	}}

	if !l.headerWritten {
		if err := gocsv.Marshal(records, l.w); err != nil {
			l.err = fmt.Errorf("writing event: %w", err)
			return
		}
		l.headerWritten = true
	} else {
		if err := gocsv.MarshalWithoutHeaders(records, l.w); err != nil {
			l.err = fmt.Errorf("writing event: %w", err)
			return
		}
	}
	l.count++
}

// Count is the number of records written.
func (l *EventLog) Count() int {
	if l == nil {
		return 0
	}
	return l.count
}

// Err returns the first write error.
func (l *EventLog) Err() error {
	if l == nil {
		return nil
	}
	return l.err
}

// Close closes the underlying file when the log owns one.
func (l *EventLog) Close() error {
	if l == nil || l.closer == nil {
		return l.Err()
	}
	if err := l.closer.Close(); err != nil {
		return fmt.Errorf("closing event log: %w", err)
	}
	return l.err
}
