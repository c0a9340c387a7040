package handlers

import (
	"fmt"

	"github.com/soundctl/livebridge/internal/facade"
	"github.com/soundctl/livebridge/pkg/live"
)

func sessionEntries() []Entry {
	return []Entry{
		onMain("get_session_info", getSessionInfo),
		onMain("set_tempo", setTempo),
		onMain("set_time_signature", setTimeSignature),
		onMain("start_playback", startPlayback),
		onMain("stop_playback", stopPlayback),
		onMain("get_song_context", getSongContext),
	}
}

func getSessionInfo(c *Context, p Params) (any, error) {
	song := c.F.Song()
	master := song.MasterTrack()
	return map[string]any{
		"tempo":                 song.Tempo(),
		"signature_numerator":   song.SignatureNumerator(),
		"signature_denominator": song.SignatureDenominator(),
		"is_playing":            song.IsPlaying(),
		"track_count":           len(song.Tracks()),
		"return_track_count":    len(song.ReturnTracks()),
		"scene_count":           len(song.Scenes()),
		"master_track": map[string]any{
			"name":    master.Name(),
			"volume":  master.Volume().Value(),
			"panning": master.Panning().Value(),
		},
	}, nil
}

func setTempo(c *Context, p Params) (any, error) {
	tempo, err := p.RequireFloat("tempo")
	if err != nil {
		return nil, err
	}
	if tempo <= 0 {
		return nil, facade.BadValuef("tempo must be positive, got %v", tempo)
	}
	c.F.Song().SetTempo(tempo)
	return map[string]any{"tempo": c.F.Song().Tempo()}, nil
}

func setTimeSignature(c *Context, p Params) (any, error) {
	num, err := p.RequireInt("numerator")
	if err != nil {
		return nil, err
	}
	den, err := p.RequireInt("denominator")
	if err != nil {
		return nil, err
	}
	if num < 1 {
		return nil, facade.BadValuef("numerator must be >= 1, got %d", num)
	}
	if den < 1 || den&(den-1) != 0 {
		return nil, facade.BadValuef("denominator must be a power of two, got %d", den)
	}
	song := c.F.Song()
	song.SetSignatureNumerator(num)
	song.SetSignatureDenominator(den)
	return map[string]any{
		"numerator":   song.SignatureNumerator(),
		"denominator": song.SignatureDenominator(),
	}, nil
}

func startPlayback(c *Context, p Params) (any, error) {
	c.F.Song().StartPlaying()
	return map[string]any{"is_playing": c.F.Song().IsPlaying()}, nil
}

func stopPlayback(c *Context, p Params) (any, error) {
	c.F.Song().StopPlaying()
	return map[string]any{"is_playing": c.F.Song().IsPlaying()}, nil
}

// getSongContext builds the denormalized snapshot the upstream planner
// feeds to its LLM: compact, denormalized, one object per track.
func getSongContext(c *Context, p Params) (any, error) {
	includeClips, err := p.Bool("include_clips", false)
	if err != nil {
		return nil, err
	}
	song := c.F.Song()

	tracks := song.Tracks()
	trackCtx := make([]map[string]any, len(tracks))
	for i, t := range tracks {
		devices := t.Devices()
		deviceNames := make([]string, len(devices))
		for j, d := range devices {
			deviceNames[j] = d.Name()
		}

		slots := t.ClipSlots()
		clipCount := 0
		var clips []map[string]any
		for j, s := range slots {
			if !s.HasClip() {
				continue
			}
			clipCount++
			if includeClips {
				clip := s.Clip()
				clips = append(clips, map[string]any{
					"slot":       j,
					"name":       clip.Name(),
					"length":     clip.Length(),
					"is_playing": clip.IsPlaying(),
				})
			}
		}

		info := map[string]any{
			"index":      i,
			"name":       t.Name(),
			"type":       facade.TrackKindName(t),
			"arm":        t.Arm(),
			"mute":       t.Mute(),
			"solo":       t.Solo(),
			"devices":    deviceNames,
			"clip_count": clipCount,
		}
		if includeClips {
			info["clips"] = clips
		}
		trackCtx[i] = info
	}

	scenes := song.Scenes()
	sceneNames := make([]string, len(scenes))
	for i, sc := range scenes {
		sceneNames[i] = sc.Name()
	}

	return map[string]any{
		"tempo":          song.Tempo(),
		"time_signature": fmt.Sprintf("%d/%d", song.SignatureNumerator(), song.SignatureDenominator()),
		"is_playing":     song.IsPlaying(),
		"tracks":         trackCtx,
		"scenes":         sceneNames,
	}, nil
}

// trackInfo shapes the full track view shared by get_track_info and the
// track CRUD echoes.
func trackInfo(index int, t live.Track) map[string]any {
	slots := t.ClipSlots()
	slotInfos := make([]map[string]any, len(slots))
	for i, s := range slots {
		si := map[string]any{"index": i, "has_clip": s.HasClip()}
		if s.HasClip() {
			clip := s.Clip()
			si["clip"] = map[string]any{
				"name":         clip.Name(),
				"length":       clip.Length(),
				"is_playing":   clip.IsPlaying(),
				"is_recording": clip.IsRecording(),
			}
		}
		slotInfos[i] = si
	}

	devices := t.Devices()
	deviceInfos := make([]map[string]any, len(devices))
	for i, d := range devices {
		deviceInfos[i] = map[string]any{
			"index":      i,
			"name":       d.Name(),
			"class_name": d.ClassName(),
			"type":       string(live.DeviceTypeOf(d.ClassName())),
		}
	}

	info := map[string]any{
		"index":      index,
		"name":       t.Name(),
		"type":       facade.TrackKindName(t),
		"mute":       t.Mute(),
		"solo":       t.Solo(),
		"arm":        t.Arm(),
		"volume":     t.Volume().Value(),
		"panning":    t.Panning().Value(),
		"clip_slots": slotInfos,
		"devices":    deviceInfos,
	}
	if state, ok := t.Monitoring(); ok {
		info["monitoring"] = facade.MonitorName(state)
	}
	return info
}

// sendInfo shapes one send with its resolved return-track name.
func sendInfo(index int, p live.Parameter, returns []live.Track) map[string]any {
	info := map[string]any{
		"index": index,
		"value": p.Value(),
		"min":   p.Min(),
		"max":   p.Max(),
	}
	if index < len(returns) {
		info["return_track"] = returns[index].Name()
	}
	return info
}
