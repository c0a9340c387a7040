package sim

import (
	"fmt"
	"math"

	"github.com/soundctl/livebridge/pkg/live"
)

// Track is the simulated channel strip.
type Track struct {
	song *Song
	name string
	kind live.TrackKind

	mute, solo, arm bool
	monitoring      int

	volume  *Param
	panning *Param
	sends   []*Param

	slots   []*Slot
	devices []*Device

	inType, inChannel   live.RoutingOption
	outType, outChannel live.RoutingOption
}

var _ live.Track = (*Track)(nil)

func newTrack(s *Song, name string, kind live.TrackKind) *Track {
	t := &Track{
		song:       s,
		name:       name,
		kind:       kind,
		monitoring: live.MonitorAuto,
		volume:     newParam("Volume", 0, 1, 0.85, "dB"),
		panning:    newParam("Panning", -1, 1, 0, ""),
	}
	for i := range s.returns {
		t.addSend(i)
	}
	t.syncSlotCount()
	ins, chans := defaultInputOptions(kind)
	if len(ins) > 0 {
		t.inType = ins[0]
	}
	if len(chans) > 0 {
		t.inChannel = chans[0]
	}
	outs := defaultOutputOptions()
	t.outType = outs[0]
	return t
}

func newReturnTrack(s *Song, name string) *Track {
	return &Track{
		song:    s,
		name:    name,
		kind:    live.TrackReturn,
		volume:  newParam("Volume", 0, 1, 0.85, "dB"),
		panning: newParam("Panning", -1, 1, 0, ""),
	}
}

func newMasterTrack(s *Song) *Track {
	return &Track{
		song:    s,
		name:    "Master",
		kind:    live.TrackMaster,
		volume:  newParam("Volume", 0, 1, 0.85, "dB"),
		panning: newParam("Panning", -1, 1, 0, ""),
	}
}

// clone copies the track for DuplicateTrack: devices, slots (with clips and
// notes), mixer values.
func (t *Track) clone() *Track {
	c := newTrack(t.song, t.name, t.kind)
	c.mute, c.solo, c.arm = t.mute, t.solo, t.arm
	c.monitoring = t.monitoring
	c.volume.value = t.volume.value
	c.panning.value = t.panning.value
	for i, s := range t.sends {
		if i < len(c.sends) {
			c.sends[i].value = s.value
		}
	}
	for i, sl := range t.slots {
		if sl.clip != nil && i < len(c.slots) {
			c.slots[i].clip = sl.clip.clone(c.slots[i])
		}
	}
	for _, d := range t.devices {
		c.devices = append(c.devices, d.clone())
	}
	return c
}

func (t *Track) Name() string          { return t.name }
func (t *Track) SetName(name string)   { t.name = name }
func (t *Track) Kind() live.TrackKind  { return t.kind }
func (t *Track) Mute() bool            { return t.mute }
func (t *Track) SetMute(on bool)       { t.mute = on }
func (t *Track) Solo() bool            { return t.solo }
func (t *Track) SetSolo(on bool)       { t.solo = on }

func (t *Track) CanBeArmed() bool {
	return t.kind == live.TrackAudio || t.kind == live.TrackMIDI
}
func (t *Track) Arm() bool { return t.arm }
func (t *Track) SetArm(on bool) {
	if t.CanBeArmed() {
		t.arm = on
	}
}

func (t *Track) Volume() live.Parameter  { return t.volume }
func (t *Track) Panning() live.Parameter { return t.panning }

func (t *Track) Sends() []live.Parameter {
	out := make([]live.Parameter, len(t.sends))
	for i, p := range t.sends {
		out[i] = p
	}
	return out
}

func (t *Track) ClipSlots() []live.ClipSlot {
	out := make([]live.ClipSlot, len(t.slots))
	for i, s := range t.slots {
		out[i] = s
	}
	return out
}

func (t *Track) Devices() []live.Device {
	out := make([]live.Device, len(t.devices))
	for i, d := range t.devices {
		out[i] = d
	}
	return out
}

// AppendDevice attaches a device to the end of the chain. Test seam.
func (t *Track) AppendDevice(d *Device) { t.devices = append(t.devices, d) }

func (t *Track) StopAllClips() { t.stopPlayingClips() }

func (t *Track) stopPlayingClips() {
	for _, s := range t.slots {
		if s.clip != nil {
			s.clip.playing = false
		}
	}
}

func (t *Track) Monitoring() (int, bool) {
	if t.kind == live.TrackReturn || t.kind == live.TrackMaster {
		return 0, false
	}
	return t.monitoring, true
}

func (t *Track) SetMonitoring(state int) error {
	if t.kind == live.TrackReturn || t.kind == live.TrackMaster {
		return fmt.Errorf("sim: track %q has no monitoring", t.name)
	}
	t.monitoring = state
	return nil
}

// ─── Routing ─────────────────────────────────────────────────────────────────

// routingOption is the simulated routing option.
type routingOption struct{ name string }

func (o routingOption) DisplayName() string { return o.name }

func optionList(names ...string) []live.RoutingOption {
	out := make([]live.RoutingOption, len(names))
	for i, n := range names {
		out[i] = routingOption{name: n}
	}
	return out
}

func defaultInputOptions(kind live.TrackKind) (types, channels []live.RoutingOption) {
	if kind == live.TrackMIDI {
		return optionList("All Ins", "Computer MIDI Keyboard", "No Input"),
			optionList("All Channels", "Ch. 1", "Ch. 2")
	}
	return optionList("Ext. In", "Resampling", "No Input"),
		optionList("1", "2", "1/2")
}

func defaultOutputOptions() []live.RoutingOption {
	return optionList("Master", "Sends Only", "Ext. Out")
}

func (t *Track) AvailableInputTypes() []live.RoutingOption {
	types, _ := defaultInputOptions(t.kind)
	return types
}

func (t *Track) AvailableInputChannels() []live.RoutingOption {
	_, chans := defaultInputOptions(t.kind)
	return chans
}

func (t *Track) AvailableOutputTypes() []live.RoutingOption { return defaultOutputOptions() }

func (t *Track) AvailableOutputChannels() []live.RoutingOption {
	return optionList("Master", "1/2")
}

func (t *Track) InputType() live.RoutingOption  { return t.inType }
func (t *Track) InputChannel() live.RoutingOption { return t.inChannel }
func (t *Track) OutputType() live.RoutingOption { return t.outType }
func (t *Track) OutputChannel() live.RoutingOption { return t.outChannel }

func (t *Track) SetInputType(o live.RoutingOption) error    { t.inType = o; return nil }
func (t *Track) SetInputChannel(o live.RoutingOption) error { t.inChannel = o; return nil }
func (t *Track) SetOutputType(o live.RoutingOption) error   { t.outType = o; return nil }
func (t *Track) SetOutputChannel(o live.RoutingOption) error { t.outChannel = o; return nil }

// ─── Send / slot bookkeeping ─────────────────────────────────────────────────

func (t *Track) addSend(i int) {
	t.sends = append(t.sends, newParam(fmt.Sprintf("Send %c", 'A'+i), 0, 1, 0, ""))
}

func (t *Track) removeSend(i int) {
	if i >= 0 && i < len(t.sends) {
		t.sends = append(t.sends[:i], t.sends[i+1:]...)
	}
}

func (t *Track) syncSlotCount() {
	for len(t.slots) < len(t.song.scenes) {
		t.slots = append(t.slots, &Slot{track: t})
	}
}

func (t *Track) deleteSlot(i int) {
	if i >= 0 && i < len(t.slots) {
		t.slots = append(t.slots[:i], t.slots[i+1:]...)
	}
}

func (t *Track) duplicateSlot(i int) {
	if i < 0 || i >= len(t.slots) {
		return
	}
	dup := &Slot{track: t}
	if t.slots[i].clip != nil {
		dup.clip = t.slots[i].clip.clone(dup)
	}
	t.slots = append(t.slots[:i+1], append([]*Slot{dup}, t.slots[i+1:]...)...)
}

// ─── Param ───────────────────────────────────────────────────────────────────

// Param is the simulated parameter.
type Param struct {
	name       string
	min, max   float64
	value      float64
	quantized  bool
	items      []string
	unit       string
}

var _ live.Parameter = (*Param)(nil)

func newParam(name string, min, max, value float64, unit string) *Param {
	return &Param{name: name, min: min, max: max, value: value, unit: unit}
}

func newQuantizedParam(name string, items []string, value float64) *Param {
	return &Param{
		name:      name,
		min:       0,
		max:       float64(len(items) - 1),
		value:     value,
		quantized: true,
		items:     items,
	}
}

func (p *Param) Name() string   { return p.name }
func (p *Param) Min() float64   { return p.min }
func (p *Param) Max() float64   { return p.max }
func (p *Param) Value() float64 { return p.value }

func (p *Param) SetValue(v float64) error {
	v = math.Max(p.min, math.Min(p.max, v))
	if p.quantized {
		v = math.Round(v)
	}
	p.value = v
	return nil
}

func (p *Param) IsQuantized() bool    { return p.quantized }
func (p *Param) ValueItems() []string { return p.items }
func (p *Param) Unit() string         { return p.unit }

// ─── Slot ────────────────────────────────────────────────────────────────────

// Slot is the simulated clip slot.
type Slot struct {
	track *Track
	clip  *Clip
}

var _ live.ClipSlot = (*Slot)(nil)

func (s *Slot) HasClip() bool { return s.clip != nil }

func (s *Slot) Clip() live.Clip {
	if s.clip == nil {
		return nil
	}
	return s.clip
}

func (s *Slot) CreateClip(lengthBeats float64) (live.Clip, error) {
	if s.clip != nil {
		return nil, fmt.Errorf("sim: slot already has a clip")
	}
	if lengthBeats <= 0 {
		return nil, fmt.Errorf("sim: clip length must be positive, got %v", lengthBeats)
	}
	s.clip = newClip(s, lengthBeats, s.track.kind == live.TrackMIDI)
	return s.clip, nil
}

func (s *Slot) DeleteClip() error {
	if s.clip == nil {
		return fmt.Errorf("sim: slot has no clip")
	}
	s.clip = nil
	return nil
}

func (s *Slot) Fire() {
	if s.clip != nil {
		s.track.stopPlayingClips()
		s.clip.playing = true
		s.track.song.playing = true
		return
	}
	s.track.stopPlayingClips()
}

func (s *Slot) Stop() {
	if s.clip != nil {
		s.clip.playing = false
	}
}
