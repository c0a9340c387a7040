package live

// Canonical top-level browser categories. Hosts may expose more; the façade
// traverses whatever [Browser.Roots] returns.
const (
	CategoryInstruments  = "instruments"
	CategorySounds       = "sounds"
	CategoryDrums        = "drums"
	CategoryAudioEffects = "audio_effects"
	CategoryMIDIEffects  = "midi_effects"
	CategorySamples      = "samples"
	CategoryPlugins      = "plugins"
	CategoryClips        = "clips"
)

// Browser is the DAW's asset browser.
type Browser interface {
	// Roots returns the top-level category nodes in host order.
	Roots() []BrowserItem

	// Root returns the node for a canonical category name, or nil when the
	// host does not expose it.
	Root(category string) BrowserItem

	// LoadItem loads a loadable item onto the current selection target.
	LoadItem(item BrowserItem) error
}

// BrowserItem is one node of the browser tree.
//
// URIs are opaque keys and are not stable across DAW restarts; never persist
// them.
type BrowserItem interface {
	Name() string
	URI() string
	IsFolder() bool
	IsDevice() bool
	IsLoadable() bool
	Children() []BrowserItem
}
