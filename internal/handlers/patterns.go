package handlers

import (
	"math"

	"github.com/soundctl/livebridge/internal/facade"
	"github.com/soundctl/livebridge/pkg/live"
)

func patternEntries() []Entry {
	return []Entry{
		onMain("add_basic_drum_pattern", addBasicDrumPattern),
		onMain("add_chord_stack", addChordStack),
	}
}

// General MIDI drum pitches used by the built-in patterns.
const (
	drumKick      = 36
	drumSnare     = 38
	drumClosedHat = 42
)

// drumHit is one step of a one-bar pattern, in beats from the bar start.
type drumHit struct {
	pitch    int
	start    float64
	duration float64
}

// drumPatterns are the built-in one-bar grids, in 4/4.
var drumPatterns = map[string][]drumHit{
	"four_on_floor": {
		{drumKick, 0, 0.25}, {drumKick, 1, 0.25}, {drumKick, 2, 0.25}, {drumKick, 3, 0.25},
		{drumSnare, 1, 0.25}, {drumSnare, 3, 0.25},
		{drumClosedHat, 0.5, 0.25}, {drumClosedHat, 1.5, 0.25},
		{drumClosedHat, 2.5, 0.25}, {drumClosedHat, 3.5, 0.25},
	},
	"trap": {
		{drumKick, 0, 0.25}, {drumKick, 1.75, 0.25}, {drumKick, 2.5, 0.25},
		{drumSnare, 1, 0.25}, {drumSnare, 3, 0.25},
		{drumClosedHat, 0, 0.125}, {drumClosedHat, 0.25, 0.125},
		{drumClosedHat, 0.5, 0.125}, {drumClosedHat, 0.75, 0.125},
		{drumClosedHat, 1, 0.125}, {drumClosedHat, 1.25, 0.125},
		{drumClosedHat, 1.5, 0.125}, {drumClosedHat, 1.75, 0.125},
		{drumClosedHat, 2, 0.125}, {drumClosedHat, 2.25, 0.125},
		{drumClosedHat, 2.5, 0.125}, {drumClosedHat, 2.75, 0.125},
		{drumClosedHat, 3, 0.125}, {drumClosedHat, 3.25, 0.125},
		{drumClosedHat, 3.5, 0.125}, {drumClosedHat, 3.75, 0.125},
	},
}

// addBasicDrumPattern writes one of the built-in drum grids into a clip,
// creating the clip when the slot is empty. The pattern repeats per bar and
// replaces any notes already in the clip.
func addBasicDrumPattern(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	clipIndex, err := p.RequireInt("clip_index")
	if err != nil {
		return nil, err
	}
	style, err := p.StringAlias("four_on_floor", "style", "pattern")
	if err != nil {
		return nil, err
	}
	length, err := p.Float("length", 4.0)
	if err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, facade.BadValuef("length must be positive, got %v", length)
	}
	// One grid bar is four beats; the pattern repeats to fill length.
	bars := int(math.Ceil(length / 4))
	if p.Has("bars") {
		bars, err = p.Int("bars", 1)
		if err != nil {
			return nil, err
		}
	}
	if bars < 1 {
		return nil, facade.BadValuef("bars must be >= 1, got %d", bars)
	}
	velocity, err := p.Int("velocity", 100)
	if err != nil {
		return nil, err
	}
	if velocity < 1 || velocity > 127 {
		return nil, facade.BadValuef("velocity must be 1-127, got %d", velocity)
	}

	hits, ok := drumPatterns[style]
	if !ok {
		return nil, facade.BadValuef("unknown drum style %q", style)
	}

	clip, created, err := ensureMIDIClip(c, trackIndex, clipIndex, float64(bars)*4)
	if err != nil {
		return nil, err
	}

	var notes []live.NoteEx
	for bar := 0; bar < bars; bar++ {
		offset := float64(bar) * 4
		for _, h := range hits {
			notes = append(notes, live.NoteEx{
				Note: live.Note{
					Pitch:    h.pitch,
					Start:    offset + h.start,
					Duration: h.duration,
					Velocity: velocity,
				},
				Probability: 1,
			})
		}
	}
	if err := facade.WriteNotes(clip, notes, true); err != nil {
		return nil, err
	}

	return map[string]any{
		"track_index":  trackIndex,
		"clip_index":   clipIndex,
		"style":        style,
		"bars":         bars,
		"length":       float64(bars) * 4,
		"note_count":   len(notes),
		"clip_created": created,
	}, nil
}

// chordIntervals are the built-in chord voicings in semitones from the root,
// keyed by quality.
var chordIntervals = map[string][]int{
	"major": {0, 4, 7},
	"minor": {0, 3, 7},
	"sus2":  {0, 2, 7},
	"sus4":  {0, 5, 7},
	"7":     {0, 4, 7, 10},
	"maj7":  {0, 4, 7, 11},
	"min7":  {0, 3, 7, 10},
}

// addChordStack writes one chord per bar into a clip, creating the clip when
// the slot is empty. Unknown qualities fall back to a major triad.
func addChordStack(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	clipIndex, err := p.RequireInt("clip_index")
	if err != nil {
		return nil, err
	}
	root, err := p.IntAlias(60, "root_midi", "root")
	if err != nil {
		return nil, err
	}
	if root < 0 || root > 127 {
		return nil, facade.BadValuef("root_midi must be 0-127, got %d", root)
	}
	quality, err := p.StringAlias("major", "quality", "chord_type")
	if err != nil {
		return nil, err
	}
	bars, err := p.IntAlias(4, "bars", "repetitions")
	if err != nil {
		return nil, err
	}
	if bars < 1 {
		return nil, facade.BadValuef("bars must be >= 1, got %d", bars)
	}
	chordLength, err := p.Float("chord_length", 1.0)
	if err != nil {
		return nil, err
	}
	if chordLength <= 0 {
		return nil, facade.BadValuef("chord_length must be positive, got %v", chordLength)
	}
	velocity, err := p.Int("velocity", 90)
	if err != nil {
		return nil, err
	}
	if velocity < 1 || velocity > 127 {
		return nil, facade.BadValuef("velocity must be 1-127, got %d", velocity)
	}

	intervals, ok := chordIntervals[quality]
	if !ok {
		intervals = chordIntervals["major"]
		quality = "major"
	}

	clip, created, err := ensureMIDIClip(c, trackIndex, clipIndex, float64(bars)*chordLength)
	if err != nil {
		return nil, err
	}

	var notes []live.NoteEx
	for rep := 0; rep < bars; rep++ {
		start := float64(rep) * chordLength
		for _, iv := range intervals {
			pitch := root + iv
			if pitch > 127 {
				continue
			}
			notes = append(notes, live.NoteEx{
				Note: live.Note{
					Pitch:    pitch,
					Start:    start,
					Duration: chordLength,
					Velocity: velocity,
				},
				Probability: 1,
			})
		}
	}
	if err := facade.WriteNotes(clip, notes, false); err != nil {
		return nil, err
	}

	return map[string]any{
		"track_index":  trackIndex,
		"clip_index":   clipIndex,
		"quality":      quality,
		"root_midi":    root,
		"bars":         bars,
		"note_count":   len(notes),
		"clip_created": created,
	}, nil
}

// ensureMIDIClip returns the clip at the slot, creating an empty one of the
// given length when the slot is empty.
func ensureMIDIClip(c *Context, trackIndex, clipIndex int, length float64) (live.Clip, bool, error) {
	_, slot, err := c.F.SlotAt(trackIndex, clipIndex)
	if err != nil {
		return nil, false, err
	}
	if slot.HasClip() {
		return slot.Clip(), false, nil
	}
	clip, err := slot.CreateClip(length)
	if err != nil {
		return nil, false, facade.BadValuef("create clip: %v", err)
	}
	return clip, true, nil
}
