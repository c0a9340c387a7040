package handlers

import (
	"github.com/soundctl/livebridge/internal/facade"
	"github.com/soundctl/livebridge/pkg/live"
)

func trackEntries() []Entry {
	return []Entry{
		onMain("get_track_info", getTrackInfo),
		onMain("create_midi_track", createMIDITrack),
		onMain("create_audio_track", createAudioTrack),
		onMain("delete_track", deleteTrack),
		onMain("duplicate_track", duplicateTrack),
		onMain("set_track_name", setTrackName),
		onMain("set_track_volume", setTrackVolume),
		onMain("set_track_panning", setTrackPanning),
		onMain("set_track_mute", setTrackMute),
		onMain("set_track_solo", setTrackSolo),
		onMain("set_track_arm", setTrackArm),
		onMain("set_send_level", setSendLevel),
		onMain("list_clips", listClips),
	}
}

func getTrackInfo(c *Context, p Params) (any, error) {
	index, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	t, err := c.F.Track(index)
	if err != nil {
		return nil, err
	}
	info := trackInfo(index, t)

	returns := c.F.Song().ReturnTracks()
	sends := t.Sends()
	sendInfos := make([]map[string]any, len(sends))
	for i, s := range sends {
		sendInfos[i] = sendInfo(i, s, returns)
	}
	info["sends"] = sendInfos
	info["routing"] = routingInfo(t)
	return info, nil
}

func createMIDITrack(c *Context, p Params) (any, error) {
	index, err := p.Int("index", -1)
	if err != nil {
		return nil, err
	}
	t, err := c.F.Song().CreateMIDITrack(index)
	if err != nil {
		return nil, facade.BadValuef("create midi track: %v", err)
	}
	return createdTrackResult(c, t), nil
}

func createAudioTrack(c *Context, p Params) (any, error) {
	index, err := p.Int("index", -1)
	if err != nil {
		return nil, err
	}
	t, err := c.F.Song().CreateAudioTrack(index)
	if err != nil {
		return nil, facade.BadValuef("create audio track: %v", err)
	}
	return createdTrackResult(c, t), nil
}

// createdTrackResult locates the new track to report its settled index.
func createdTrackResult(c *Context, t live.Track) map[string]any {
	index := -1
	for i, x := range c.F.Song().Tracks() {
		if x == t {
			index = i
			break
		}
	}
	return map[string]any{"index": index, "name": t.Name()}
}

func deleteTrack(c *Context, p Params) (any, error) {
	index, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	t, err := c.F.Track(index)
	if err != nil {
		return nil, err
	}
	name := t.Name()
	if err := c.F.Song().DeleteTrack(index); err != nil {
		return nil, facade.BadValuef("delete track %d: %v", index, err)
	}
	return map[string]any{
		"deleted_index": index,
		"deleted_name":  name,
		"track_count":   len(c.F.Song().Tracks()),
	}, nil
}

func duplicateTrack(c *Context, p Params) (any, error) {
	index, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	if _, err := c.F.Track(index); err != nil {
		return nil, err
	}
	if err := c.F.Song().DuplicateTrack(index); err != nil {
		return nil, facade.BadValuef("duplicate track %d: %v", index, err)
	}
	// The host places the copy right after the source.
	newIndex := index + 1
	t, err := c.F.Track(newIndex)
	if err != nil {
		return nil, err
	}
	result := map[string]any{"index": newIndex, "name": t.Name()}

	if p.Has("target_index") {
		target, err := p.Int("target_index", newIndex)
		if err != nil {
			return nil, err
		}
		if target != newIndex {
			result["note"] = "host API duplicates next to the source track; requested target_index was not applied"
		}
	}
	return result, nil
}

func setTrackName(c *Context, p Params) (any, error) {
	index, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	name, err := p.RequireString("name")
	if err != nil {
		return nil, err
	}
	t, err := c.F.Track(index)
	if err != nil {
		return nil, err
	}
	t.SetName(name)
	return map[string]any{"index": index, "name": t.Name()}, nil
}

func setTrackVolume(c *Context, p Params) (any, error) {
	return setMixerParam(c, p, "volume", func(t live.Track) live.Parameter { return t.Volume() })
}

func setTrackPanning(c *Context, p Params) (any, error) {
	return setMixerParam(c, p, "panning", func(t live.Track) live.Parameter { return t.Panning() })
}

func setMixerParam(c *Context, p Params, key string, pick func(live.Track) live.Parameter) (any, error) {
	index, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	if !p.Has(key) {
		return nil, facade.BadValuef("missing required parameter %q", key)
	}
	t, err := c.F.Track(index)
	if err != nil {
		return nil, err
	}
	v, err := facade.SetParam(pick(t), p.Any(key))
	if err != nil {
		return nil, err
	}
	return map[string]any{"track_index": index, key: v}, nil
}

func setTrackMute(c *Context, p Params) (any, error) {
	return setTrackFlag(c, p, "mute",
		func(t live.Track, on bool) { t.SetMute(on) },
		func(t live.Track) bool { return t.Mute() })
}

func setTrackSolo(c *Context, p Params) (any, error) {
	return setTrackFlag(c, p, "solo",
		func(t live.Track, on bool) { t.SetSolo(on) },
		func(t live.Track) bool { return t.Solo() })
}

func setTrackArm(c *Context, p Params) (any, error) {
	index, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	on, err := p.Bool("arm", true)
	if err != nil {
		return nil, err
	}
	t, err := c.F.Track(index)
	if err != nil {
		return nil, err
	}
	if !t.CanBeArmed() {
		return nil, facade.Unsupportedf("track %q cannot be armed", t.Name())
	}
	t.SetArm(on)
	return map[string]any{"track_index": index, "arm": t.Arm()}, nil
}

func setTrackFlag(c *Context, p Params, key string, set func(live.Track, bool), get func(live.Track) bool) (any, error) {
	index, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	on, err := p.Bool(key, true)
	if err != nil {
		return nil, err
	}
	t, err := c.F.Track(index)
	if err != nil {
		return nil, err
	}
	set(t, on)
	return map[string]any{"track_index": index, key: get(t)}, nil
}

func setSendLevel(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	sendIndex, err := p.RequireInt("send_index")
	if err != nil {
		return nil, err
	}
	if !p.Has("level") {
		return nil, facade.BadValuef("missing required parameter %q", "level")
	}
	t, err := c.F.Track(trackIndex)
	if err != nil {
		return nil, err
	}
	send, err := c.F.Send(t, sendIndex)
	if err != nil {
		return nil, err
	}
	v, err := facade.SetParam(send, p.Any("level"))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"track_index": trackIndex,
		"send_index":  sendIndex,
		"level":       v,
	}, nil
}

// listClips enumerates populated clip slots matching optional track and
// clip name patterns.
func listClips(c *Context, p Params) (any, error) {
	trackPattern, err := p.String("track_pattern", "")
	if err != nil {
		return nil, err
	}
	clipPattern, err := p.String("clip_pattern", "")
	if err != nil {
		return nil, err
	}
	mode, err := p.MatchMode()
	if err != nil {
		return nil, err
	}

	var out []map[string]any
	for ti, t := range c.F.Song().Tracks() {
		if !facade.Match(t.Name(), trackPattern, mode) {
			continue
		}
		for ci, s := range t.ClipSlots() {
			if !s.HasClip() {
				continue
			}
			clip := s.Clip()
			if !facade.Match(clip.Name(), clipPattern, mode) {
				continue
			}
			out = append(out, map[string]any{
				"track_index": ti,
				"track_name":  t.Name(),
				"clip_index":  ci,
				"name":        clip.Name(),
				"length":      clip.Length(),
				"is_playing":  clip.IsPlaying(),
			})
		}
	}
	return map[string]any{"clips": out, "count": len(out)}, nil
}
