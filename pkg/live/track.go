package live

// TrackKind classifies a track within the song.
type TrackKind string

const (
	TrackAudio  TrackKind = "audio"
	TrackMIDI   TrackKind = "midi"
	TrackReturn TrackKind = "return"
	TrackMaster TrackKind = "master"
	TrackGroup  TrackKind = "group"
)

// Monitoring states as the DAW encodes them. Values outside this set are
// passed through to the wire unchanged.
const (
	MonitorIn   = 0
	MonitorAuto = 1
	MonitorOff  = 2
)

// Track is one channel strip: audio, MIDI, group, return or master.
type Track interface {
	Name() string
	SetName(name string)

	Kind() TrackKind

	Mute() bool
	SetMute(on bool)
	Solo() bool
	SetSolo(on bool)

	// CanBeArmed reports whether the track has an arm button (returns and
	// the master do not).
	CanBeArmed() bool
	Arm() bool
	SetArm(on bool)

	Volume() Parameter
	Panning() Parameter

	// Sends returns the send parameters in return-track order. Empty for
	// the master track.
	Sends() []Parameter

	// ClipSlots returns the session slots, one per scene. Empty for
	// returns and the master.
	ClipSlots() []ClipSlot

	Devices() []Device

	// StopAllClips stops any clip playing on this track.
	StopAllClips()

	// Monitoring returns the monitor state; ok is false when the track has
	// no monitoring section (returns, master).
	Monitoring() (state int, ok bool)
	SetMonitoring(state int) error

	AvailableInputTypes() []RoutingOption
	AvailableInputChannels() []RoutingOption
	AvailableOutputTypes() []RoutingOption
	AvailableOutputChannels() []RoutingOption

	InputType() RoutingOption
	SetInputType(o RoutingOption) error
	InputChannel() RoutingOption
	SetInputChannel(o RoutingOption) error
	OutputType() RoutingOption
	SetOutputType(o RoutingOption) error
	OutputChannel() RoutingOption
	SetOutputChannel(o RoutingOption) error
}

// RoutingOption is one entry of a host-provided routing list. The concrete
// value is opaque; only the display name is meaningful to the bridge.
type RoutingOption interface {
	DisplayName() string
}

// Parameter is a continuous or quantized device/mixer parameter.
type Parameter interface {
	Name() string
	Min() float64
	Max() float64
	Value() float64

	// SetValue writes v. Callers are expected to clamp to [Min, Max]
	// first; implementations may clamp again.
	SetValue(v float64) error

	// IsQuantized reports whether the parameter takes discrete steps.
	IsQuantized() bool

	// ValueItems returns the display labels of a quantized parameter's
	// steps, or nil.
	ValueItems() []string

	// Unit returns the display unit ("dB", "%", …) or "".
	Unit() string
}

// ClipSlot is one cell of the session grid.
type ClipSlot interface {
	HasClip() bool

	// Clip returns the contained clip, or nil when the slot is empty.
	Clip() Clip

	// CreateClip creates an empty MIDI clip of the given length in beats.
	// Fails when the slot already has a clip or the track is not MIDI.
	CreateClip(lengthBeats float64) (Clip, error)

	DeleteClip() error

	// Fire launches the slot (plays the clip, or stops the track when
	// empty).
	Fire()

	// Stop stops playback of this slot's clip.
	Stop()
}
