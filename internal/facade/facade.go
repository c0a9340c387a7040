// Package facade presents a small, stable vocabulary over the DAW's object
// graph. Every handler goes through it; nothing else does.
//
// The façade never caches: every by-index accessor re-reads the current
// count from the host, because the DAW owns all state and other clients (or
// the user) mutate it between calls.
package facade

import (
	"github.com/soundctl/livebridge/pkg/live"
)

// Facade wraps the host root with bounds-checked, classified accessors.
type Facade struct {
	host live.Host
}

// New creates a Facade over the given host.
func New(host live.Host) *Facade { return &Facade{host: host} }

// Host returns the underlying host root.
func (f *Facade) Host() live.Host { return f.host }

// Song returns the live song document.
func (f *Facade) Song() live.Song { return f.host.Song() }

// Track returns the regular track at index.
func (f *Facade) Track(index int) (live.Track, error) {
	tracks := f.host.Song().Tracks()
	if index < 0 || index >= len(tracks) {
		return nil, OutOfRangef("track index %d out of range (0-%d)", index, len(tracks)-1)
	}
	return tracks[index], nil
}

// ReturnTrack returns the return track at index.
func (f *Facade) ReturnTrack(index int) (live.Track, error) {
	returns := f.host.Song().ReturnTracks()
	if index < 0 || index >= len(returns) {
		return nil, OutOfRangef("return track index %d out of range (0-%d)", index, len(returns)-1)
	}
	return returns[index], nil
}

// Scene returns the scene at index.
func (f *Facade) Scene(index int) (live.Scene, error) {
	scenes := f.host.Song().Scenes()
	if index < 0 || index >= len(scenes) {
		return nil, OutOfRangef("scene index %d out of range (0-%d)", index, len(scenes)-1)
	}
	return scenes[index], nil
}

// Slot returns the clip slot at clipIndex on the given track.
func (f *Facade) Slot(t live.Track, clipIndex int) (live.ClipSlot, error) {
	slots := t.ClipSlots()
	if clipIndex < 0 || clipIndex >= len(slots) {
		return nil, OutOfRangef("clip index %d out of range (0-%d)", clipIndex, len(slots)-1)
	}
	return slots[clipIndex], nil
}

// SlotAt resolves track and slot in one step.
func (f *Facade) SlotAt(trackIndex, clipIndex int) (live.Track, live.ClipSlot, error) {
	t, err := f.Track(trackIndex)
	if err != nil {
		return nil, nil, err
	}
	s, err := f.Slot(t, clipIndex)
	if err != nil {
		return nil, nil, err
	}
	return t, s, nil
}

// ClipAt returns the clip in the given slot, failing when the slot is empty.
func (f *Facade) ClipAt(trackIndex, clipIndex int) (live.Clip, error) {
	_, s, err := f.SlotAt(trackIndex, clipIndex)
	if err != nil {
		return nil, err
	}
	if !s.HasClip() {
		return nil, NotFoundf("no clip at track %d slot %d", trackIndex, clipIndex)
	}
	return s.Clip(), nil
}

// Device returns the device at deviceIndex on the given track.
func (f *Facade) Device(t live.Track, deviceIndex int) (live.Device, error) {
	devices := t.Devices()
	if deviceIndex < 0 || deviceIndex >= len(devices) {
		return nil, OutOfRangef("device index %d out of range (0-%d)", deviceIndex, len(devices)-1)
	}
	return devices[deviceIndex], nil
}

// DeviceAt resolves track and device in one step.
func (f *Facade) DeviceAt(trackIndex, deviceIndex int) (live.Track, live.Device, error) {
	t, err := f.Track(trackIndex)
	if err != nil {
		return nil, nil, err
	}
	d, err := f.Device(t, deviceIndex)
	if err != nil {
		return nil, nil, err
	}
	return t, d, nil
}

// Send returns the send parameter at sendIndex on the given track.
func (f *Facade) Send(t live.Track, sendIndex int) (live.Parameter, error) {
	sends := t.Sends()
	if sendIndex < 0 || sendIndex >= len(sends) {
		return nil, OutOfRangef("send index %d out of range (0-%d)", sendIndex, len(sends)-1)
	}
	return sends[sendIndex], nil
}

// TrackKindName maps a track to its wire kind string.
func TrackKindName(t live.Track) string { return string(t.Kind()) }

// MonitorName maps a monitoring state to its wire form: "in", "auto", "off",
// or the raw integer for states the bridge does not know.
func MonitorName(state int) any {
	switch state {
	case live.MonitorIn:
		return "in"
	case live.MonitorAuto:
		return "auto"
	case live.MonitorOff:
		return "off"
	}
	return state
}

// MonitorState parses a wire monitor value ("in"/"auto"/"off" or an
// integer) into the host encoding.
func MonitorState(v any) (int, error) {
	switch x := v.(type) {
	case string:
		switch x {
		case "in":
			return live.MonitorIn, nil
		case "auto":
			return live.MonitorAuto, nil
		case "off":
			return live.MonitorOff, nil
		}
		return 0, BadValuef("unknown monitor state %q", x)
	case float64:
		return int(x), nil
	case int:
		return x, nil
	}
	return 0, BadValuef("monitor state must be a string or integer, got %T", v)
}
