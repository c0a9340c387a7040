package live

import "strings"

// Device is one device in a track's chain.
type Device interface {
	Name() string

	// ClassName is the host's device class identifier ("Operator",
	// "Compressor2", "DrumGroupDevice", …).
	ClassName() string

	Parameters() []Parameter
}

// DeviceIO is the capability probe for devices that expose their own input
// routing (e.g. sidechain-capable effects). Narrow a [Device] with a type
// assertion before use.
type DeviceIO interface {
	AvailableInputTypes() []RoutingOption
	AvailableInputChannels() []RoutingOption
	InputType() RoutingOption
	SetInputType(o RoutingOption) error
	InputChannel() RoutingOption
	SetInputChannel(o RoutingOption) error
}

// Hotswap is the capability probe for devices that accept a hotswapped
// browser item (samplers swapping their sample).
type Hotswap interface {
	HotswapItem(uri string) error
}

// DeviceType is the semantic device class derived from the host class name.
type DeviceType string

const (
	DeviceInstrument  DeviceType = "instrument"
	DeviceAudioEffect DeviceType = "audio_effect"
	DeviceMIDIEffect  DeviceType = "midi_effect"
	DeviceRack        DeviceType = "rack"
	DeviceDrumMachine DeviceType = "drum_machine"
	DeviceUnknown     DeviceType = "unknown"
)

// instrumentClasses are the host class names known to be instruments.
var instrumentClasses = map[string]bool{
	"Operator": true, "Simpler": true, "Sampler": true, "MultiSampler": true,
	"Impulse": true, "DrumCell": true, "Wavetable": true, "InstrumentVector": true,
	"Analog": true, "UltraAnalog": true, "Electric": true, "LoungeLizard": true,
	"Tension": true, "StringStudio": true, "Collision": true, "Meld": true,
	"Drift": true, "InstrumentMeld": true,
}

// audioEffectClasses are the host class names known to be audio effects.
var audioEffectClasses = map[string]bool{
	"Compressor2": true, "Eq8": true, "Reverb": true, "Delay": true,
	"AutoFilter": true, "Saturator": true, "Chorus2": true, "Echo": true,
	"GlueCompressor": true, "Limiter": true, "Gate": true, "Utility": true,
	"FilterEQ3": true, "Hybrid": true, "Phaser": true, "Flanger": true,
	"MultibandDynamics": true, "Overdrive": true, "Pedal": true, "Roar": true,
}

// DeviceTypeOf derives the semantic [DeviceType] from a host class name.
// Racks are recognized structurally (class names ending in "GroupDevice"),
// with the drum rack special-cased before the generic rack check.
func DeviceTypeOf(className string) DeviceType {
	switch {
	case className == "":
		return DeviceUnknown
	case className == "DrumGroupDevice":
		return DeviceDrumMachine
	case strings.HasSuffix(className, "GroupDevice"), className == "RackDevice":
		return DeviceRack
	case instrumentClasses[className]:
		return DeviceInstrument
	case strings.HasPrefix(className, "Midi"):
		return DeviceMIDIEffect
	case audioEffectClasses[className]:
		return DeviceAudioEffect
	}
	return DeviceUnknown
}
