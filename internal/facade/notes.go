package facade

import (
	"math"

	"github.com/soundctl/livebridge/pkg/live"
)

// Note bounds enforced on every write.
const (
	minNoteDuration = 0.01
	pitchMin        = 0
	pitchMax        = 127
)

// fullRange is the window covering any clip content when clearing or
// reading whole clips.
const fullRangeBeats = 1 << 20

// ParseNotes decodes a wire notes payload: a list whose elements are either
// note objects or positional tuples [pitch, start, duration, velocity,
// mute?]. Values are clamped to the model invariants (pitch and velocity
// 0-127, duration ≥ 0.01, start ≥ 0).
func ParseNotes(raw any) ([]live.NoteEx, error) {
	list, ok := raw.([]any)
	if !ok {
		return nil, BadValuef("notes must be a list, got %T", raw)
	}
	out := make([]live.NoteEx, 0, len(list))
	for i, el := range list {
		n, err := parseNote(el)
		if err != nil {
			return nil, BadValuef("note %d: %v", i, err)
		}
		out = append(out, n)
	}
	return out, nil
}

func parseNote(el any) (live.NoteEx, error) {
	n := live.NoteEx{Probability: 1}
	switch x := el.(type) {
	case map[string]any:
		n.Pitch = clampInt(numOr(x["pitch"], 60), pitchMin, pitchMax)
		n.Start = math.Max(0, numOr(x["start_time"], 0))
		n.Duration = math.Max(minNoteDuration, numOr(x["duration"], 1))
		n.Velocity = clampInt(numOr(x["velocity"], 100), 0, 127)
		if b, ok := x["mute"].(bool); ok {
			n.Mute = b
		}
		if v, ok := x["probability"]; ok {
			n.Probability = math.Max(0, math.Min(1, numOr(v, 1)))
		}
		if v, ok := x["velocity_deviation"]; ok {
			n.VelocityDeviation = math.Max(0, math.Min(127, numOr(v, 0)))
		}
		if v, ok := x["release_velocity"]; ok {
			n.ReleaseVelocity = math.Max(0, math.Min(127, numOr(v, 64)))
		}
		if v, ok := x["note_id"]; ok {
			n.ID = int(numOr(v, 0))
		}
		return n, nil
	case []any:
		if len(x) < 4 {
			return n, BadValuef("tuple needs [pitch, start_time, duration, velocity], got %d elements", len(x))
		}
		n.Pitch = clampInt(numOr(x[0], 60), pitchMin, pitchMax)
		n.Start = math.Max(0, numOr(x[1], 0))
		n.Duration = math.Max(minNoteDuration, numOr(x[2], 1))
		n.Velocity = clampInt(numOr(x[3], 100), 0, 127)
		if len(x) > 4 {
			if b, ok := x[4].(bool); ok {
				n.Mute = b
			} else {
				n.Mute = numOr(x[4], 0) != 0
			}
		}
		return n, nil
	}
	return n, BadValuef("note must be an object or tuple, got %T", el)
}

// WriteNotes writes notes into a MIDI clip. When replace is set the clip's
// existing notes are cleared over the full clip range first. Prefers the
// host's extended-note API so probability, velocity deviation and release
// velocity round-trip; falls back to plain notes on hosts without it.
func WriteNotes(clip live.Clip, notes []live.NoteEx, replace bool) error {
	if !clip.IsMIDI() {
		return Unsupportedf("cannot write notes into an audio clip")
	}
	if replace {
		if err := clip.RemoveNotes(0, fullRangeBeats, pitchMin, pitchMax+1); err != nil {
			return Unsupportedf("clear notes: %v", err)
		}
	}
	if ec, ok := clip.(live.ExtendedNoteClip); ok {
		if err := ec.AddNotesExtended(notes); err == nil {
			return nil
		}
	}
	plain := make([]live.Note, len(notes))
	for i, n := range notes {
		plain[i] = n.Note
	}
	if err := clip.AddNotes(plain); err != nil {
		return Unsupportedf("add notes: %v", err)
	}
	return nil
}

// ReadNotes returns all notes of a MIDI clip shaped for the wire, with
// extended attributes included when the host supports them.
func ReadNotes(clip live.Clip) ([]map[string]any, error) {
	if !clip.IsMIDI() {
		return nil, Unsupportedf("audio clips have no notes")
	}
	if ec, ok := clip.(live.ExtendedNoteClip); ok {
		ext, err := ec.NotesExtended(0, fullRangeBeats, pitchMin, pitchMax+1)
		if err == nil {
			out := make([]map[string]any, len(ext))
			for i, n := range ext {
				out[i] = NoteMapEx(n)
			}
			return out, nil
		}
	}
	plain, err := clip.Notes(0, fullRangeBeats, pitchMin, pitchMax+1)
	if err != nil {
		return nil, Unsupportedf("read notes: %v", err)
	}
	out := make([]map[string]any, len(plain))
	for i, n := range plain {
		out[i] = NoteMap(n)
	}
	return out, nil
}

// NoteMap shapes a plain note for the wire.
func NoteMap(n live.Note) map[string]any {
	return map[string]any{
		"pitch":      n.Pitch,
		"start_time": n.Start,
		"duration":   n.Duration,
		"velocity":   n.Velocity,
		"mute":       n.Mute,
	}
}

// NoteMapEx shapes an extended note for the wire.
func NoteMapEx(n live.NoteEx) map[string]any {
	m := NoteMap(n.Note)
	m["probability"] = n.Probability
	m["velocity_deviation"] = n.VelocityDeviation
	m["release_velocity"] = n.ReleaseVelocity
	if n.ID != 0 {
		m["note_id"] = n.ID
	}
	return m
}

func numOr(v any, def float64) float64 {
	switch x := v.(type) {
	case float64:
		return x
	case int:
		return float64(x)
	}
	return def
}

func clampInt(v float64, lo, hi int) int {
	i := int(math.Round(v))
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}
