package handlers

import (
	"log/slog"
	"testing"

	"github.com/soundctl/livebridge/internal/facade"
	"github.com/soundctl/livebridge/pkg/live/sim"
)

// newTestContext builds a handler context over a fresh simulated host.
// Handlers are plain synchronous functions, so tests call them directly; the
// main-thread hop is the dispatcher's concern.
func newTestContext(t *testing.T, opts ...sim.Option) (*Context, *sim.Host) {
	t.Helper()
	h := sim.New(opts...)
	return &Context{Host: h, F: facade.New(h), Log: slog.Default()}, h
}

// call runs a registered handler and fails the test on error.
func call(t *testing.T, c *Context, name string, params Params) map[string]any {
	t.Helper()
	v, err := callErr(t, c, name, params)
	if err != nil {
		t.Fatalf("%s: %v", name, err)
	}
	m, ok := v.(map[string]any)
	if !ok {
		t.Fatalf("%s returned %T, want map", name, v)
	}
	return m
}

// callErr runs a registered handler and returns its raw result and error.
func callErr(t *testing.T, c *Context, name string, params Params) (any, error) {
	t.Helper()
	entry, ok := Registry()[name]
	if !ok {
		t.Fatalf("no handler registered for %q", name)
	}
	if params == nil {
		params = Params{}
	}
	return entry.Fn(c, params)
}

// wantKind asserts a handler failure of the given classification.
func wantKind(t *testing.T, c *Context, name string, params Params, kind facade.Kind) {
	t.Helper()
	_, err := callErr(t, c, name, params)
	if err == nil {
		t.Fatalf("%s succeeded, want %s error", name, kind)
	}
	if got := facade.KindOf(err); got != kind {
		t.Fatalf("%s error kind = %s (%v), want %s", name, got, err, kind)
	}
}

func TestRegistryCoversWireSurface(t *testing.T) {
	t.Parallel()
	reg := Registry()
	for _, name := range []string{
		"get_session_info", "set_tempo", "set_time_signature",
		"start_playback", "stop_playback", "get_song_context",
		"get_track_info", "create_midi_track", "create_audio_track",
		"delete_track", "duplicate_track", "set_track_name",
		"set_track_volume", "set_track_panning", "set_track_mute",
		"set_track_solo", "set_track_arm", "set_send_level", "list_clips",
		"configure_track_routing",
		"create_return_track", "delete_return_track", "set_return_track_name",
		"create_scene", "delete_scene", "duplicate_scene", "set_scene_name",
		"fire_scene", "fire_scene_by_name", "stop_scene",
		"create_clip", "delete_clip", "duplicate_clip", "add_notes_to_clip",
		"get_clip_notes", "set_clip_name", "set_clip_loop", "set_clip_length",
		"quantize_clip",
		"fire_clip", "stop_clip", "fire_clip_by_name", "trigger_test_midi",
		"load_browser_item", "load_device", "load_simpler_with_sample",
		"load_sampler_with_sample", "get_device_parameters",
		"set_device_parameter", "set_device_parameters",
		"save_device_snapshot", "apply_device_snapshot",
		"set_device_sidechain_source", "set_device_audio_input",
		"list_routable_devices",
		"get_browser_item", "get_browser_tree", "get_browser_items_at_path",
		"list_loadable_devices", "search_loadable_devices",
		"search_browser_cache", "resolve_cached_item",
		"add_basic_drum_pattern", "add_chord_stack",
	} {
		if _, ok := reg[name]; !ok {
			t.Errorf("missing handler %q", name)
		}
	}
}

func TestCacheLookupsRunOffMainThread(t *testing.T) {
	t.Parallel()
	reg := Registry()
	for name, entry := range reg {
		wantMain := name != "search_browser_cache" && name != "resolve_cached_item"
		if entry.MainThread != wantMain {
			t.Errorf("%s MainThread = %v, want %v", name, entry.MainThread, wantMain)
		}
	}
}

func TestGetSessionInfoFreshSet(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	info := call(t, c, "get_session_info", nil)

	if info["tempo"] != 120.0 {
		t.Errorf("tempo = %v", info["tempo"])
	}
	if info["signature_numerator"] != 4 || info["signature_denominator"] != 4 {
		t.Errorf("signature = %v/%v", info["signature_numerator"], info["signature_denominator"])
	}
	if info["is_playing"] != false {
		t.Errorf("is_playing = %v", info["is_playing"])
	}
	if info["track_count"] != 0 || info["return_track_count"] != 2 || info["scene_count"] != 8 {
		t.Errorf("counts = %v/%v/%v", info["track_count"], info["return_track_count"], info["scene_count"])
	}
	master, ok := info["master_track"].(map[string]any)
	if !ok || master["name"] != "Master" {
		t.Errorf("master_track = %v", info["master_track"])
	}
	if master["volume"] != 0.85 {
		t.Errorf("master volume = %v", master["volume"])
	}
}

func TestSetTempo(t *testing.T) {
	t.Parallel()
	c, h := newTestContext(t)
	out := call(t, c, "set_tempo", Params{"tempo": 98.5})
	if out["tempo"] != 98.5 {
		t.Fatalf("tempo = %v", out["tempo"])
	}
	if h.Song().Tempo() != 98.5 {
		t.Fatalf("song tempo = %v", h.Song().Tempo())
	}
	wantKind(t, c, "set_tempo", Params{"tempo": 0.0}, facade.KindBadValue)
	wantKind(t, c, "set_tempo", Params{}, facade.KindBadValue)
}

func TestSetTimeSignature(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	out := call(t, c, "set_time_signature", Params{"numerator": 7.0, "denominator": 8.0})
	if out["numerator"] != 7 || out["denominator"] != 8 {
		t.Fatalf("signature = %v/%v", out["numerator"], out["denominator"])
	}
	wantKind(t, c, "set_time_signature", Params{"numerator": 4.0, "denominator": 3.0}, facade.KindBadValue)
	wantKind(t, c, "set_time_signature", Params{"numerator": 0.0, "denominator": 4.0}, facade.KindBadValue)
}

func TestPlaybackTransport(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	if out := call(t, c, "start_playback", nil); out["is_playing"] != true {
		t.Fatalf("start: %v", out)
	}
	if out := call(t, c, "stop_playback", nil); out["is_playing"] != false {
		t.Fatalf("stop: %v", out)
	}
}

func TestGetSongContext(t *testing.T) {
	t.Parallel()
	c, _ := newTestContext(t)
	call(t, c, "create_midi_track", nil)
	call(t, c, "create_clip", Params{"track_index": 0.0, "clip_index": 0.0, "name": "Groove"})

	ctx := call(t, c, "get_song_context", Params{"include_clips": true})
	if ctx["time_signature"] != "4/4" {
		t.Errorf("time_signature = %v", ctx["time_signature"])
	}
	tracks, ok := ctx["tracks"].([]map[string]any)
	if !ok || len(tracks) != 1 {
		t.Fatalf("tracks = %v", ctx["tracks"])
	}
	if tracks[0]["clip_count"] != 1 {
		t.Errorf("clip_count = %v", tracks[0]["clip_count"])
	}
	clips, ok := tracks[0]["clips"].([]map[string]any)
	if !ok || len(clips) != 1 || clips[0]["name"] != "Groove" {
		t.Errorf("clips = %v", tracks[0]["clips"])
	}
}

func TestUnknownParamsTypes(t *testing.T) {
	t.Parallel()
	p := Params{"n": "12", "f": "1.5", "b": 1.0, "s": "x"}
	if v, err := p.Int("n", 0); err != nil || v != 12 {
		t.Errorf("Int = %d, %v", v, err)
	}
	if v, err := p.Float("f", 0); err != nil || v != 1.5 {
		t.Errorf("Float = %v, %v", v, err)
	}
	if v, err := p.Bool("b", false); err != nil || !v {
		t.Errorf("Bool = %v, %v", v, err)
	}
	if v, err := p.Int("missing", 7); err != nil || v != 7 {
		t.Errorf("Int default = %d, %v", v, err)
	}
	if _, err := p.Int("s", 0); err == nil {
		t.Error("Int accepted a non-numeric string")
	}
	if _, err := p.RequireInt("missing"); err == nil {
		t.Error("RequireInt accepted a missing key")
	}
}
