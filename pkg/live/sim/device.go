package sim

import (
	"fmt"

	"github.com/soundctl/livebridge/pkg/live"
)

// Device is the simulated device.
type Device struct {
	name      string
	className string
	params    []*Param

	// io is non-nil for sidechain-capable devices.
	io *deviceIO

	// hotswappable devices track their current sample/preset URI.
	hotswap    bool
	swappedURI string
}

var _ live.Device = (*Device)(nil)

type deviceIO struct {
	types    []live.RoutingOption
	channels []live.RoutingOption
	inType   live.RoutingOption
	inChan   live.RoutingOption
}

// NewDevice builds a simulated device with parameter sets matching its
// class. Exported as the seam tests and the browser loader share.
func NewDevice(name, className string) *Device {
	d := &Device{name: name, className: className}
	d.params = append(d.params, newQuantizedParam("Device On", []string{"Off", "On"}, 1))
	switch className {
	case "Compressor2", "GlueCompressor":
		d.params = append(d.params,
			newParam("Threshold", -60, 6, -12, "dB"),
			newParam("Ratio", 1, 20, 4, ""),
			newParam("Attack", 0.01, 1000, 2, "ms"),
			newParam("Release", 1, 3000, 50, "ms"),
			newQuantizedParam("Sidechain On", []string{"Off", "On"}, 0),
			newQuantizedParam("S/C Audio From", sidechainSources(), 0),
			newQuantizedParam("S/C Mono", []string{"Off", "On"}, 0),
			newQuantizedParam("S/C Pre FX", []string{"Off", "On"}, 0),
			newQuantizedParam("S/C Listen", []string{"Off", "On"}, 0),
		)
		d.io = &deviceIO{
			types:    optionList("No Input", "Ext. In", "Resampling"),
			channels: optionList("1", "2", "1/2"),
		}
		d.io.inType = d.io.types[0]
	case "Simpler", "MultiSampler":
		d.params = append(d.params,
			newParam("Volume", -36, 36, 0, "dB"),
			newParam("Transpose", -48, 48, 0, "st"),
			newParam("Filter Freq", 20, 22000, 22000, "Hz"),
		)
		d.hotswap = true
	case "Operator":
		d.params = append(d.params,
			newParam("Volume", -36, 36, 0, "dB"),
			newParam("Filter Freq", 20, 22000, 22000, "Hz"),
			newParam("Filter Res", 0, 1.25, 0, ""),
			newQuantizedParam("Osc-A Wave", []string{"Sin", "Saw", "Square", "Noise"}, 0),
		)
	case "Eq8":
		d.params = append(d.params,
			newParam("1 Frequency A", 20, 22000, 80, "Hz"),
			newParam("1 Gain A", -15, 15, 0, "dB"),
			newParam("2 Frequency A", 20, 22000, 500, "Hz"),
			newParam("2 Gain A", -15, 15, 0, "dB"),
		)
	case "Reverb":
		d.params = append(d.params,
			newParam("Dry/Wet", 0, 1, 0.3, "%"),
			newParam("Decay Time", 200, 60000, 1200, "ms"),
			newParam("Room Size", 0.22, 500, 100, ""),
		)
	case "Delay":
		d.params = append(d.params,
			newParam("Dry/Wet", 0, 1, 0.25, "%"),
			newParam("Feedback", 0, 0.95, 0.4, "%"),
			newQuantizedParam("L 16th", []string{"1", "2", "3", "4", "8", "16"}, 3),
		)
	default:
		d.params = append(d.params, newParam("Dry/Wet", 0, 1, 0.5, "%"))
	}
	return d
}

func (d *Device) clone() *Device {
	c := NewDevice(d.name, d.className)
	for i, p := range d.params {
		if i < len(c.params) {
			c.params[i].value = p.value
		}
	}
	return c
}

func (d *Device) Name() string      { return d.name }
func (d *Device) ClassName() string { return d.className }

func (d *Device) Parameters() []live.Parameter {
	out := make([]live.Parameter, len(d.params))
	for i, p := range d.params {
		out[i] = p
	}
	return out
}

// ─── Capabilities ────────────────────────────────────────────────────────────

// AvailableInputTypes implements [live.DeviceIO] for sidechain-capable
// devices; others return nil so the façade treats them as unroutable.
func (d *Device) AvailableInputTypes() []live.RoutingOption {
	if d.io == nil {
		return nil
	}
	return d.io.types
}

func (d *Device) AvailableInputChannels() []live.RoutingOption {
	if d.io == nil {
		return nil
	}
	return d.io.channels
}

func (d *Device) InputType() live.RoutingOption {
	if d.io == nil {
		return nil
	}
	return d.io.inType
}

func (d *Device) SetInputType(o live.RoutingOption) error {
	if d.io == nil {
		return fmt.Errorf("sim: device %q has no input routing", d.name)
	}
	d.io.inType = o
	return nil
}

func (d *Device) InputChannel() live.RoutingOption {
	if d.io == nil {
		return nil
	}
	return d.io.inChan
}

func (d *Device) SetInputChannel(o live.RoutingOption) error {
	if d.io == nil {
		return fmt.Errorf("sim: device %q has no input routing", d.name)
	}
	d.io.inChan = o
	return nil
}

// HasIO reports whether the device exposes input routing. Test seam.
func (d *Device) HasIO() bool { return d.io != nil }

// HotswapItem implements [live.Hotswap] for sampler devices.
func (d *Device) HotswapItem(uri string) error {
	if !d.hotswap {
		return fmt.Errorf("sim: device %q does not support hotswap", d.name)
	}
	d.swappedURI = uri
	return nil
}

// SwappedURI returns the last hotswapped URI. Test seam.
func (d *Device) SwappedURI() string { return d.swappedURI }

// sidechainSources builds the 1-based source enum: index 0 is "No Input".
func sidechainSources() []string {
	items := []string{"No Input"}
	for i := 1; i <= 16; i++ {
		items = append(items, fmt.Sprintf("Track %d", i))
	}
	return items
}
