package facade

import (
	"testing"

	"github.com/soundctl/livebridge/pkg/live"
	"github.com/soundctl/livebridge/pkg/live/sim"
)

func TestParseNotesObjectsAndTuples(t *testing.T) {
	t.Parallel()
	raw := []any{
		map[string]any{"pitch": float64(60), "start_time": 0.0, "duration": 1.0, "velocity": float64(100)},
		[]any{float64(64), 1.0, 0.5, float64(90)},
		[]any{float64(67), 2.0, 0.5, float64(80), true},
	}
	notes, err := ParseNotes(raw)
	if err != nil {
		t.Fatalf("ParseNotes: %v", err)
	}
	if len(notes) != 3 {
		t.Fatalf("len = %d, want 3", len(notes))
	}
	if notes[0].Pitch != 60 || notes[0].Probability != 1 {
		t.Fatalf("note 0 = %+v", notes[0])
	}
	if notes[1].Pitch != 64 || notes[1].Start != 1 || notes[1].Duration != 0.5 {
		t.Fatalf("note 1 = %+v", notes[1])
	}
	if !notes[2].Mute {
		t.Fatal("tuple mute flag lost")
	}
}

func TestParseNotesClampsBounds(t *testing.T) {
	t.Parallel()
	raw := []any{
		map[string]any{"pitch": float64(200), "start_time": -3.0, "duration": 0.0, "velocity": float64(-5)},
	}
	notes, err := ParseNotes(raw)
	if err != nil {
		t.Fatalf("ParseNotes: %v", err)
	}
	n := notes[0]
	if n.Pitch != 127 || n.Start != 0 || n.Duration != 0.01 || n.Velocity != 0 {
		t.Fatalf("clamped note = %+v", n)
	}
}

func TestParseNotesRejectsBadShapes(t *testing.T) {
	t.Parallel()
	for _, raw := range []any{
		"not a list",
		[]any{"not a note"},
		[]any{[]any{float64(60), 0.0}}, // tuple too short
	} {
		if _, err := ParseNotes(raw); err == nil {
			t.Errorf("ParseNotes(%v) accepted", raw)
		}
	}
}

func TestWriteAndReadNotesRoundTrip(t *testing.T) {
	t.Parallel()
	h := sim.New()
	clip := makeClip(t, h)

	notes := []live.NoteEx{
		{Note: live.Note{Pitch: 60, Start: 0, Duration: 1, Velocity: 100}, Probability: 0.75},
		{Note: live.Note{Pitch: 64, Start: 1, Duration: 1, Velocity: 90}, Probability: 1},
	}
	if err := WriteNotes(clip, notes, false); err != nil {
		t.Fatalf("WriteNotes: %v", err)
	}

	got, err := ReadNotes(clip)
	if err != nil {
		t.Fatalf("ReadNotes: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("read %d notes, want 2", len(got))
	}
	if got[0]["pitch"] != 60 || got[0]["probability"] != 0.75 {
		t.Fatalf("note 0 = %v", got[0])
	}
}

func TestWriteNotesReplaceClearsFirst(t *testing.T) {
	t.Parallel()
	h := sim.New()
	clip := makeClip(t, h)

	first := []live.NoteEx{{Note: live.Note{Pitch: 60, Start: 0, Duration: 1, Velocity: 100}, Probability: 1}}
	second := []live.NoteEx{{Note: live.Note{Pitch: 72, Start: 0, Duration: 1, Velocity: 100}, Probability: 1}}
	if err := WriteNotes(clip, first, false); err != nil {
		t.Fatalf("WriteNotes: %v", err)
	}
	if err := WriteNotes(clip, second, true); err != nil {
		t.Fatalf("WriteNotes replace: %v", err)
	}

	got, err := ReadNotes(clip)
	if err != nil {
		t.Fatalf("ReadNotes: %v", err)
	}
	if len(got) != 1 || got[0]["pitch"] != 72 {
		t.Fatalf("after replace: %v", got)
	}
}

func TestWriteNotesFallsBackWithoutExtendedSupport(t *testing.T) {
	t.Parallel()
	h := sim.New(sim.WithoutExtendedNotes())
	clip := makeClip(t, h)

	notes := []live.NoteEx{{Note: live.Note{Pitch: 60, Start: 0, Duration: 1, Velocity: 100}, Probability: 0.5}}
	if err := WriteNotes(clip, notes, false); err != nil {
		t.Fatalf("WriteNotes: %v", err)
	}

	got, err := ReadNotes(clip)
	if err != nil {
		t.Fatalf("ReadNotes: %v", err)
	}
	if len(got) != 1 || got[0]["pitch"] != 60 {
		t.Fatalf("fallback read: %v", got)
	}
	// The plain-note path carries no probability.
	if _, ok := got[0]["probability"]; ok {
		t.Fatal("plain-note read reported extended attributes")
	}
}

func makeClip(t *testing.T, h *sim.Host) live.Clip {
	t.Helper()
	tr, err := h.Song().CreateMIDITrack(-1)
	if err != nil {
		t.Fatalf("CreateMIDITrack: %v", err)
	}
	clip, err := tr.ClipSlots()[0].CreateClip(4)
	if err != nil {
		t.Fatalf("CreateClip: %v", err)
	}
	return clip
}
