package handlers

import (
	"github.com/soundctl/livebridge/internal/facade"
	"github.com/soundctl/livebridge/pkg/live"
)

func playbackEntries() []Entry {
	return []Entry{
		onMain("fire_clip", fireClip),
		onMain("stop_clip", stopClip),
		onMain("fire_clip_by_name", fireClipByName),
		onMain("trigger_test_midi", triggerTestMIDI),
	}
}

func fireClip(c *Context, p Params) (any, error) {
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
	slot.Fire()
	return map[string]any{
		"track_index": trackIndex,
		"clip_index":  clipIndex,
		"name":        slot.Clip().Name(),
	}, nil
}

func stopClip(c *Context, p Params) (any, error) {
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
	slot.Stop()
	return map[string]any{
		"track_index": trackIndex,
		"clip_index":  clipIndex,
	}, nil
}

// fireClipByName fires clips matched by track and clip name patterns, or
// only the first match when first_only is set. Zero matches is not an error.
func fireClipByName(c *Context, p Params) (any, error) {
	trackPattern, err := p.String("track_pattern", "")
	if err != nil {
		return nil, err
	}
	clipPattern, err := p.RequireString("clip_pattern")
	if err != nil {
		return nil, err
	}
	mode, err := p.MatchMode()
	if err != nil {
		return nil, err
	}
	firstOnly, err := p.Bool("first_only", false)
	if err != nil {
		return nil, err
	}

	var fired []map[string]any
outer:
	for ti, t := range c.F.Song().Tracks() {
		if !facade.Match(t.Name(), trackPattern, mode) {
			continue
		}
		for ci, s := range t.ClipSlots() {
			if !s.HasClip() || !facade.Match(s.Clip().Name(), clipPattern, mode) {
				continue
			}
			s.Fire()
			fired = append(fired, map[string]any{
				"track_index": ti,
				"track_name":  t.Name(),
				"clip_index":  ci,
				"name":        s.Clip().Name(),
			})
			if firstOnly {
				break outer
			}
		}
	}
	return map[string]any{"fired": fired, "count": len(fired)}, nil
}

// triggerTestMIDI writes one test note into a clip slot, and optionally
// emits a raw control-change message through the host MIDI output, for
// verifying the whole MIDI path end to end. An occupied slot is only reused
// when overwrite_clip is set.
func triggerTestMIDI(c *Context, p Params) (any, error) {
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
	pitch, err := p.Int("pitch", 60)
	if err != nil {
		return nil, err
	}
	if pitch < 0 || pitch > 127 {
		return nil, facade.BadValuef("pitch must be 0-127, got %d", pitch)
	}
	velocity, err := p.Int("velocity", 100)
	if err != nil {
		return nil, err
	}
	if velocity < 1 || velocity > 127 {
		return nil, facade.BadValuef("velocity must be 1-127, got %d", velocity)
	}
	duration, err := p.Float("duration", 1.0)
	if err != nil {
		return nil, err
	}
	if duration <= 0 {
		return nil, facade.BadValuef("duration must be positive, got %v", duration)
	}
	start, err := p.Float("start_time", 0)
	if err != nil {
		return nil, err
	}
	overwrite, err := p.Bool("overwrite_clip", false)
	if err != nil {
		return nil, err
	}
	fire, err := p.Bool("fire_clip", false)
	if err != nil {
		return nil, err
	}

	t, slot, err := c.F.SlotAt(trackIndex, clipIndex)
	if err != nil {
		return nil, err
	}
	created := false
	var clip live.Clip
	if slot.HasClip() {
		if !overwrite {
			return nil, facade.Conflictf("slot %d on track %q already has a clip; pass overwrite_clip to reuse it", clipIndex, t.Name())
		}
		clip = slot.Clip()
		if !clip.IsMIDI() {
			return nil, facade.Unsupportedf("cannot write test notes into an audio clip")
		}
	} else {
		clip, err = slot.CreateClip(length)
		if err != nil {
			return nil, facade.BadValuef("create clip: %v", err)
		}
		created = true
	}

	note := live.NoteEx{
		Note:        live.Note{Pitch: pitch, Start: start, Duration: duration, Velocity: velocity},
		Probability: 1,
	}
	if err := facade.WriteNotes(clip, []live.NoteEx{note}, true); err != nil {
		return nil, err
	}

	result := map[string]any{
		"track_index":  trackIndex,
		"clip_index":   clipIndex,
		"clip_created": created,
		"pitch":        pitch,
		"velocity":     velocity,
		"duration":     duration,
		"start_time":   start,
	}

	if p.Has("cc_number") {
		ccNumber, err := p.Int("cc_number", 1)
		if err != nil {
			return nil, err
		}
		if ccNumber < 0 || ccNumber > 127 {
			return nil, facade.BadValuef("cc_number must be 0-127, got %d", ccNumber)
		}
		ccValue, err := p.Int("cc_value", 64)
		if err != nil {
			return nil, err
		}
		if ccValue < 0 || ccValue > 127 {
			return nil, facade.BadValuef("cc_value must be 0-127, got %d", ccValue)
		}
		channel, err := p.Int("channel", 0)
		if err != nil {
			return nil, err
		}
		msg := []byte{byte(0xB0 | (channel & 0x0F)), byte(ccNumber), byte(ccValue)}
		if err := c.Host.SendMIDI(msg); err != nil {
			return nil, facade.Unsupportedf("send midi: %v", err)
		}
		result["cc_sent"] = true
		result["cc_number"] = ccNumber
		result["cc_value"] = ccValue
		result["channel"] = channel & 0x0F
	}

	if fire {
		slot.Fire()
		result["fired"] = true
	}
	return result, nil
}
