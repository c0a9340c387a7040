package handlers

import (
	"math"

	"github.com/soundctl/livebridge/internal/facade"
	"github.com/soundctl/livebridge/pkg/live"
)

func clipEntries() []Entry {
	return []Entry{
		onMain("create_clip", createClip),
		onMain("delete_clip", deleteClip),
		onMain("duplicate_clip", duplicateClip),
		onMain("add_notes_to_clip", addNotesToClip),
		onMain("get_clip_notes", getClipNotes),
		onMain("set_clip_name", setClipName),
		onMain("set_clip_loop", setClipLoop),
		onMain("set_clip_length", setClipLength),
		onMain("quantize_clip", quantizeClip),
	}
}

func createClip(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	clipIndex, err := p.RequireInt("clip_index")
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
	t, slot, err := c.F.SlotAt(trackIndex, clipIndex)
	if err != nil {
		return nil, err
	}
	if slot.HasClip() {
		return nil, facade.Conflictf("slot %d on track %q already has a clip", clipIndex, t.Name())
	}
	clip, err := slot.CreateClip(length)
	if err != nil {
		return nil, facade.BadValuef("create clip: %v", err)
	}
	if name, _ := p.String("name", ""); name != "" {
		clip.SetName(name)
	}
	return map[string]any{
		"track_index": trackIndex,
		"clip_index":  clipIndex,
		"name":        clip.Name(),
		"length":      clip.Length(),
	}, nil
}

func deleteClip(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	clipIndex, err := p.RequireInt("clip_index")
	if err != nil {
		return nil, err
	}
	_, slot, err := c.F.SlotAt(trackIndex, clipIndex)
	if err != nil {
		return nil, err
	}
	if !slot.HasClip() {
		return nil, facade.NotFoundf("no clip at track %d slot %d", trackIndex, clipIndex)
	}
	name := slot.Clip().Name()
	if err := slot.DeleteClip(); err != nil {
		return nil, facade.BadValuef("delete clip: %v", err)
	}
	return map[string]any{
		"track_index":  trackIndex,
		"clip_index":   clipIndex,
		"deleted_name": name,
	}, nil
}

// duplicateClip copies a clip into another slot. MIDI clips carry their
// notes, name and loop bounds over; audio clips cannot be rebuilt through
// the slot API, so the copy is an empty clip and the result says so.
func duplicateClip(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	clipIndex, err := p.RequireInt("clip_index")
	if err != nil {
		return nil, err
	}
	targetTrack, err := p.Int("target_track_index", trackIndex)
	if err != nil {
		return nil, err
	}
	targetClip, err := p.Int("target_clip_index", clipIndex+1)
	if err != nil {
		return nil, err
	}

	src, err := c.F.ClipAt(trackIndex, clipIndex)
	if err != nil {
		return nil, err
	}
	tt, target, err := c.F.SlotAt(targetTrack, targetClip)
	if err != nil {
		return nil, err
	}
	if target.HasClip() {
		return nil, facade.Conflictf("slot %d on track %q already has a clip", targetClip, tt.Name())
	}

	dst, err := target.CreateClip(src.Length())
	if err != nil {
		return nil, facade.BadValuef("create clip: %v", err)
	}
	dst.SetName(src.Name())

	result := map[string]any{
		"track_index": targetTrack,
		"clip_index":  targetClip,
		"name":        dst.Name(),
		"length":      dst.Length(),
	}

	if !src.IsMIDI() {
		result["note"] = "audio clip content cannot be copied; created an empty clip"
		return result, nil
	}

	notes, err := readNotesEx(src)
	if err == nil && len(notes) > 0 {
		if err := facade.WriteNotes(dst, notes, false); err != nil {
			return nil, err
		}
	}
	dst.SetLooping(src.Looping())
	if err := dst.SetLoopStart(src.LoopStart()); err == nil {
		_ = dst.SetLoopEnd(src.LoopEnd())
	}
	result["note_count"] = len(notes)
	result["length"] = dst.Length()
	return result, nil
}

// readNotesEx pulls all notes of a MIDI clip as extended notes, falling back
// to plain notes on hosts without the extended API.
func readNotesEx(clip live.Clip) ([]live.NoteEx, error) {
	if ec, ok := clip.(live.ExtendedNoteClip); ok {
		ext, err := ec.NotesExtended(0, 1<<20, 0, 128)
		if err == nil {
			return ext, nil
		}
	}
	plain, err := clip.Notes(0, 1<<20, 0, 128)
	if err != nil {
		return nil, err
	}
	out := make([]live.NoteEx, len(plain))
	for i, n := range plain {
		out[i] = live.NoteEx{Note: n, Probability: 1}
	}
	return out, nil
}

func addNotesToClip(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	clipIndex, err := p.RequireInt("clip_index")
	if err != nil {
		return nil, err
	}
	if !p.Has("notes") {
		return nil, facade.BadValuef("missing required parameter %q", "notes")
	}
	replace, err := p.Bool("replace", false)
	if err != nil {
		return nil, err
	}
	notes, err := facade.ParseNotes(p.Any("notes"))
	if err != nil {
		return nil, err
	}
	clip, err := c.F.ClipAt(trackIndex, clipIndex)
	if err != nil {
		return nil, err
	}
	if err := facade.WriteNotes(clip, notes, replace); err != nil {
		return nil, err
	}
	return map[string]any{
		"track_index": trackIndex,
		"clip_index":  clipIndex,
		"note_count":  len(notes),
	}, nil
}

func getClipNotes(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	clipIndex, err := p.RequireInt("clip_index")
	if err != nil {
		return nil, err
	}
	clip, err := c.F.ClipAt(trackIndex, clipIndex)
	if err != nil {
		return nil, err
	}
	notes, err := facade.ReadNotes(clip)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"track_index": trackIndex,
		"clip_index":  clipIndex,
		"name":        clip.Name(),
		"length":      clip.Length(),
		"notes":       notes,
		"note_count":  len(notes),
	}, nil
}

func setClipName(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	clipIndex, err := p.RequireInt("clip_index")
	if err != nil {
		return nil, err
	}
	name, err := p.RequireString("name")
	if err != nil {
		return nil, err
	}
	clip, err := c.F.ClipAt(trackIndex, clipIndex)
	if err != nil {
		return nil, err
	}
	clip.SetName(name)
	return map[string]any{
		"track_index": trackIndex,
		"clip_index":  clipIndex,
		"name":        clip.Name(),
	}, nil
}

func setClipLoop(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	clipIndex, err := p.RequireInt("clip_index")
	if err != nil {
		return nil, err
	}
	clip, err := c.F.ClipAt(trackIndex, clipIndex)
	if err != nil {
		return nil, err
	}

	on, err := p.BoolAlias(true, "loop_on", "looping")
	if err != nil {
		return nil, err
	}
	clip.SetLooping(on)

	start, err := p.FloatAlias(clip.LoopStart(), "start", "loop_start")
	if err != nil {
		return nil, err
	}
	end, err := p.FloatAlias(clip.LoopEnd(), "end", "loop_end")
	if err != nil {
		return nil, err
	}
	if end <= start {
		return nil, facade.BadValuef("end %v must be greater than start %v", end, start)
	}
	// When the new start sits past the old end, write end first so the host
	// never sees an inverted loop.
	if start >= clip.LoopEnd() {
		if err := clip.SetLoopEnd(end); err != nil {
			return nil, facade.BadValuef("set loop end: %v", err)
		}
		if err := clip.SetLoopStart(start); err != nil {
			return nil, facade.BadValuef("set loop start: %v", err)
		}
	} else {
		if err := clip.SetLoopStart(start); err != nil {
			return nil, facade.BadValuef("set loop start: %v", err)
		}
		if err := clip.SetLoopEnd(end); err != nil {
			return nil, facade.BadValuef("set loop end: %v", err)
		}
	}

	return map[string]any{
		"track_index": trackIndex,
		"clip_index":  clipIndex,
		"looping":     clip.Looping(),
		"loop_start":  clip.LoopStart(),
		"loop_end":    clip.LoopEnd(),
		"length":      clip.Length(),
	}, nil
}

// setClipLength resizes a clip by moving its loop end (and, where the host
// allows, its end marker) to loop start + length.
func setClipLength(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	clipIndex, err := p.RequireInt("clip_index")
	if err != nil {
		return nil, err
	}
	length, err := p.RequireFloat("length")
	if err != nil {
		return nil, err
	}
	if length <= 0 {
		return nil, facade.BadValuef("length must be positive, got %v", length)
	}
	clip, err := c.F.ClipAt(trackIndex, clipIndex)
	if err != nil {
		return nil, err
	}

	end := clip.LoopStart() + length
	if err := clip.SetLoopEnd(end); err != nil {
		return nil, facade.BadValuef("set loop end: %v", err)
	}
	if em, ok := clip.(live.EndMarkerClip); ok {
		// Best effort; some hosts pin the marker to the loop.
		_ = em.SetEndMarker(end)
	}
	return map[string]any{
		"track_index": trackIndex,
		"clip_index":  clipIndex,
		"length":      clip.Length(),
		"loop_start":  clip.LoopStart(),
		"loop_end":    clip.LoopEnd(),
	}, nil
}

// quantizeClip snaps note starts and durations toward a grid. amount 1.0
// snaps fully, 0.0 leaves notes untouched; intermediate amounts interpolate
// linearly. Durations never collapse below 0.01 beats.
func quantizeClip(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	clipIndex, err := p.RequireInt("clip_index")
	if err != nil {
		return nil, err
	}
	grid, err := p.Float("grid", 16)
	if err != nil {
		return nil, err
	}
	if grid <= 0 {
		return nil, facade.BadValuef("grid must be positive, got %v", grid)
	}
	amount, err := p.Float("amount", 1.0)
	if err != nil {
		return nil, err
	}
	amount = math.Max(0, math.Min(1, amount))

	clip, err := c.F.ClipAt(trackIndex, clipIndex)
	if err != nil {
		return nil, err
	}
	if !clip.IsMIDI() {
		return nil, facade.Unsupportedf("cannot quantize an audio clip")
	}
	notes, err := readNotesEx(clip)
	if err != nil {
		return nil, facade.Unsupportedf("read notes: %v", err)
	}

	// grid counts divisions per whole note: 16 means sixteenth notes,
	// 0.25 beats apart in 4/4.
	step := 4.0 / grid
	snap := func(v float64) float64 {
		return v*(1-amount) + math.Round(v/step)*step*amount
	}
	for i := range notes {
		notes[i].Start = math.Max(0, snap(notes[i].Start))
		notes[i].Duration = math.Max(0.01, snap(notes[i].Duration))
	}

	if err := facade.WriteNotes(clip, notes, true); err != nil {
		return nil, err
	}
	return map[string]any{
		"track_index": trackIndex,
		"clip_index":  clipIndex,
		"grid":        grid,
		"amount":      amount,
		"note_count":  len(notes),
	}, nil
}
