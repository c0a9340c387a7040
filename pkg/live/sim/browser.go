package sim

import (
	"fmt"
	"strings"

	"github.com/soundctl/livebridge/pkg/live"
)

// Browser is the simulated asset browser. The tree is deterministic so
// URIs can be asserted in tests, but URIs deliberately look opaque
// ("sim:<path>") to keep handlers honest about not parsing them.
type Browser struct {
	host  *Host
	roots []*Item
}

var _ live.Browser = (*Browser)(nil)

// Item is one simulated browser node.
type Item struct {
	name     string
	uri      string
	folder   bool
	device   bool
	loadable bool
	children []*Item
}

var _ live.BrowserItem = (*Item)(nil)

func (i *Item) Name() string     { return i.name }
func (i *Item) URI() string      { return i.uri }
func (i *Item) IsFolder() bool   { return i.folder }
func (i *Item) IsDevice() bool   { return i.device }
func (i *Item) IsLoadable() bool { return i.loadable }

func (i *Item) Children() []live.BrowserItem {
	out := make([]live.BrowserItem, len(i.children))
	for j, c := range i.children {
		out[j] = c
	}
	return out
}

func folder(path, name string, children ...*Item) *Item {
	return &Item{
		name:     name,
		uri:      "sim:" + path,
		folder:   true,
		children: children,
	}
}

func deviceItem(path, name string) *Item {
	return &Item{name: name, uri: "sim:" + path, device: true, loadable: true}
}

func sampleItem(path, name string) *Item {
	return &Item{name: name, uri: "sim:" + path, loadable: true}
}

func newBrowser(h *Host) *Browser {
	return &Browser{
		host: h,
		roots: []*Item{
			folder("instruments", "Instruments",
				deviceItem("instruments/Operator", "Operator"),
				deviceItem("instruments/Simpler", "Simpler"),
				deviceItem("instruments/Sampler", "Sampler"),
				deviceItem("instruments/Wavetable", "Wavetable"),
				deviceItem("instruments/Drum Rack", "Drum Rack"),
				deviceItem("instruments/Analog", "Analog"),
			),
			folder("sounds", "Sounds",
				folder("sounds/Bass", "Bass",
					deviceItem("sounds/Bass/Deep Sub Bass", "Deep Sub Bass"),
					deviceItem("sounds/Bass/Growl Bass", "Growl Bass"),
				),
				folder("sounds/Pads", "Pads",
					deviceItem("sounds/Pads/Warm Pad", "Warm Pad"),
				),
			),
			folder("drums", "Drums",
				deviceItem("drums/808 Core Kit", "808 Core Kit"),
				deviceItem("drums/Acoustic Kit", "Acoustic Kit"),
			),
			folder("audio_effects", "Audio Effects",
				deviceItem("audio_effects/Compressor", "Compressor"),
				deviceItem("audio_effects/EQ Eight", "EQ Eight"),
				deviceItem("audio_effects/Reverb", "Reverb"),
				deviceItem("audio_effects/Delay", "Delay"),
				deviceItem("audio_effects/Saturator", "Saturator"),
			),
			folder("midi_effects", "MIDI Effects",
				deviceItem("midi_effects/Arpeggiator", "Arpeggiator"),
				deviceItem("midi_effects/Chord", "Chord"),
				deviceItem("midi_effects/Scale", "Scale"),
			),
			folder("samples", "Samples",
				folder("samples/Kicks", "Kicks",
					sampleItem("samples/Kicks/Kick 808.wav", "Kick 808.wav"),
					sampleItem("samples/Kicks/Kick Punchy.wav", "Kick Punchy.wav"),
				),
				folder("samples/Snares", "Snares",
					sampleItem("samples/Snares/Snare Tight.wav", "Snare Tight.wav"),
					sampleItem("samples/Snares/Clap 909.wav", "Clap 909.wav"),
				),
				folder("samples/Hats", "Hats",
					sampleItem("samples/Hats/Hat Closed.wav", "Hat Closed.wav"),
					sampleItem("samples/Hats/Hat Open.wav", "Hat Open.wav"),
				),
			),
			folder("plugins", "Plug-Ins"),
			folder("clips", "Clips"),
		},
	}
}

func (b *Browser) Roots() []live.BrowserItem {
	out := make([]live.BrowserItem, len(b.roots))
	for i, r := range b.roots {
		out[i] = r
	}
	return out
}

// categoryNames maps canonical category names to root display names.
var categoryNames = map[string]string{
	live.CategoryInstruments:  "Instruments",
	live.CategorySounds:       "Sounds",
	live.CategoryDrums:        "Drums",
	live.CategoryAudioEffects: "Audio Effects",
	live.CategoryMIDIEffects:  "MIDI Effects",
	live.CategorySamples:      "Samples",
	live.CategoryPlugins:      "Plug-Ins",
	live.CategoryClips:        "Clips",
}

func (b *Browser) Root(category string) live.BrowserItem {
	want, ok := categoryNames[strings.ToLower(category)]
	if !ok {
		return nil
	}
	for _, r := range b.roots {
		if r.name == want {
			return r
		}
	}
	return nil
}

// itemClasses maps loadable browser item names to device classes.
var itemClasses = map[string]string{
	"Operator": "Operator", "Simpler": "Simpler", "Sampler": "MultiSampler",
	"Wavetable": "InstrumentVector", "Drum Rack": "DrumGroupDevice",
	"Analog": "UltraAnalog", "Compressor": "Compressor2", "EQ Eight": "Eq8",
	"Reverb": "Reverb", "Delay": "Delay", "Saturator": "Saturator",
	"Arpeggiator": "MidiArpeggiator", "Chord": "MidiChord", "Scale": "MidiScale",
}

// LoadItem loads the item onto the selected track: device items append a new
// device, sample items hotswap into the last sampler on the chain or create
// a fresh Simpler.
func (b *Browser) LoadItem(item live.BrowserItem) error {
	if item == nil || !item.IsLoadable() {
		return fmt.Errorf("sim: item is not loadable")
	}
	b.host.mu.Lock()
	sel := b.host.selTrack
	b.host.mu.Unlock()
	tr, ok := sel.(*Track)
	if !ok || tr == nil {
		return fmt.Errorf("sim: no track selected")
	}

	if strings.HasSuffix(strings.ToLower(item.Name()), ".wav") {
		for i := len(tr.devices) - 1; i >= 0; i-- {
			if tr.devices[i].hotswap {
				return tr.devices[i].HotswapItem(item.URI())
			}
		}
		d := NewDevice(strings.TrimSuffix(item.Name(), ".wav"), "Simpler")
		d.swappedURI = item.URI()
		tr.devices = append(tr.devices, d)
		return nil
	}

	class, ok := itemClasses[item.Name()]
	if !ok {
		// Sound/drum presets load as instrument racks.
		class = "InstrumentGroupDevice"
	}
	tr.devices = append(tr.devices, NewDevice(item.Name(), class))
	return nil
}
