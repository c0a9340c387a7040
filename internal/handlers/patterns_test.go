package handlers

import (
	"testing"

	"github.com/soundctl/livebridge/internal/facade"
)

func TestAddBasicDrumPatternFourOnFloor(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	call(t, c, "create_midi_track", nil)

	out := call(t, c, "add_basic_drum_pattern", Params{"track_index": 0.0, "clip_index": 0.0})
	if out["style"] != "four_on_floor" || out["clip_created"] != true {
		t.Fatalf("pattern: %v", out)
	}
	if out["note_count"] != 10 {
		t.Fatalf("note_count = %v", out["note_count"])
	}

	got := call(t, c, "get_clip_notes", Params{"track_index": 0.0, "clip_index": 0.0})
	notes := got["notes"].([]map[string]any)
	kicks := 0
	for _, n := range notes {
		if n["pitch"] == drumKick {
			kicks++
		}
	}
	if kicks != 4 {
		t.Fatalf("kicks = %d", kicks)
	}
}

func TestAddBasicDrumPatternRepeatsPerBar(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	call(t, c, "create_midi_track", nil)

	out := call(t, c, "add_basic_drum_pattern", Params{
		"track_index": 0.0, "clip_index": 0.0, "style": "trap", "length": 8.0,
	})
	// The trap grid is 21 hits per bar.
	if out["note_count"] != 42 {
		t.Fatalf("note_count = %v", out["note_count"])
	}

	got := call(t, c, "get_clip_notes", Params{"track_index": 0.0, "clip_index": 0.0})
	var maxStart float64
	for _, n := range got["notes"].([]map[string]any) {
		if s := n["start_time"].(float64); s > maxStart {
			maxStart = s
		}
	}
	if maxStart < 4.0 {
		t.Fatalf("second bar never written, max start = %v", maxStart)
	}
}

func TestAddBasicDrumPatternReplacesExistingNotes(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	call(t, c, "create_midi_track", nil)

	call(t, c, "add_basic_drum_pattern", Params{"track_index": 0.0, "clip_index": 0.0})
	out := call(t, c, "add_basic_drum_pattern", Params{"track_index": 0.0, "clip_index": 0.0})
	if out["clip_created"] != false {
		t.Fatalf("second run recreated the clip: %v", out)
	}

	got := call(t, c, "get_clip_notes", Params{"track_index": 0.0, "clip_index": 0.0})
	if got["note_count"] != 10 {
		t.Fatalf("notes accumulated: %v", got["note_count"])
	}
}

func TestAddBasicDrumPatternValidation(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	call(t, c, "create_midi_track", nil)

	wantKind(t, c, "add_basic_drum_pattern", Params{
		"track_index": 0.0, "clip_index": 0.0, "style": "polka",
	}, facade.KindBadValue)
	wantKind(t, c, "add_basic_drum_pattern", Params{
		"track_index": 0.0, "clip_index": 0.0, "length": 0.0,
	}, facade.KindBadValue)
	wantKind(t, c, "add_basic_drum_pattern", Params{
		"track_index": 0.0, "clip_index": 0.0, "velocity": 200.0,
	}, facade.KindBadValue)
}

func TestAddChordStackDefaults(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	call(t, c, "create_midi_track", nil)

	// Defaults: a major triad on middle C, one chord per bar for four bars.
	out := call(t, c, "add_chord_stack", Params{"track_index": 0.0, "clip_index": 0.0})
	if out["quality"] != "major" || out["note_count"] != 12 || out["clip_created"] != true {
		t.Fatalf("chord: %v", out)
	}

	got := call(t, c, "get_clip_notes", Params{"track_index": 0.0, "clip_index": 0.0})
	pitches := map[int]bool{}
	lastStart := 0.0
	for _, n := range got["notes"].([]map[string]any) {
		pitches[n["pitch"].(int)] = true
		if n["duration"] != 1.0 {
			t.Fatalf("chord_length default: %v", n)
		}
		if s := n["start_time"].(float64); s > lastStart {
			lastStart = s
		}
	}
	for _, want := range []int{60, 64, 67} {
		if !pitches[want] {
			t.Fatalf("missing pitch %d in %v", want, pitches)
		}
	}
	if lastStart != 3.0 {
		t.Fatalf("last bar starts at %v, want 3", lastStart)
	}
}

func TestAddChordStackRepetitionsAndVoicing(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	call(t, c, "create_midi_track", nil)

	// Legacy spellings keep working next to the canonical keys.
	out := call(t, c, "add_chord_stack", Params{
		"track_index": 0.0, "clip_index": 0.0,
		"root": 57.0, "chord_type": "min7", "repetitions": 2.0, "chord_length": 2.0,
	})
	if out["note_count"] != 8 {
		t.Fatalf("note_count = %v", out["note_count"])
	}

	got := call(t, c, "get_clip_notes", Params{"track_index": 0.0, "clip_index": 0.0})
	secondRep := 0
	for _, n := range got["notes"].([]map[string]any) {
		if n["start_time"].(float64) == 2.0 {
			secondRep++
		}
	}
	if secondRep != 4 {
		t.Fatalf("second repetition notes = %d", secondRep)
	}
}

func TestAddChordStackAppendsAndSkipsOutOfRangePitches(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	call(t, c, "create_midi_track", nil)

	// A root near the top of the range drops intervals past 127, leaving
	// only the root in each bar.
	out := call(t, c, "add_chord_stack", Params{
		"track_index": 0.0, "clip_index": 0.0, "root_midi": 126.0, "bars": 1.0,
	})
	if out["note_count"] != 1 {
		t.Fatalf("high root note_count = %v", out["note_count"])
	}

	// Chord stacks layer on top of existing clip content.
	call(t, c, "add_chord_stack", Params{"track_index": 0.0, "clip_index": 0.0, "bars": 1.0})
	got := call(t, c, "get_clip_notes", Params{"track_index": 0.0, "clip_index": 0.0})
	if got["note_count"] != 4 {
		t.Fatalf("layered note_count = %v", got["note_count"])
	}
}

func TestAddChordStackUnknownTypeFallsBackToMajor(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	call(t, c, "create_midi_track", nil)

	out := call(t, c, "add_chord_stack", Params{
		"track_index": 0.0, "clip_index": 0.0, "quality": "lydian", "bars": 1.0,
	})
	if out["quality"] != "major" || out["note_count"] != 3 {
		t.Fatalf("fallback: %v", out)
	}
}
