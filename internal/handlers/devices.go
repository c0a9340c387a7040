package handlers

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"github.com/soundctl/livebridge/internal/facade"
	"github.com/soundctl/livebridge/pkg/live"
)

func deviceEntries() []Entry {
	return []Entry{
		onMain("load_browser_item", loadBrowserItem),
		onMain("load_device", loadDevice),
		onMain("load_simpler_with_sample", loadSimplerWithSample),
		onMain("load_sampler_with_sample", loadSamplerWithSample),
		onMain("get_device_parameters", getDeviceParameters),
		onMain("set_device_parameter", setDeviceParameter),
		onMain("set_device_parameters", setDeviceParameters),
		onMain("save_device_snapshot", saveDeviceSnapshot),
		onMain("apply_device_snapshot", applyDeviceSnapshot),
		onMain("set_device_sidechain_source", setDeviceSidechainSource),
		onMain("set_device_audio_input", setDeviceAudioInput),
		onMain("list_routable_devices", listRoutableDevices),
	}
}

// ─── Loading ─────────────────────────────────────────────────────────────────

func loadBrowserItem(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	uri, err := p.RequireStringAlias("item_uri", "uri")
	if err != nil {
		return nil, err
	}
	t, err := c.F.Track(trackIndex)
	if err != nil {
		return nil, err
	}
	item, err := c.F.FindByURI(uri)
	if err != nil {
		return nil, err
	}

	c.Host.SelectTrack(t)
	if p.Has("clip_index") {
		clipIndex, err := p.Int("clip_index", 0)
		if err != nil {
			return nil, err
		}
		slot, err := c.F.Slot(t, clipIndex)
		if err != nil {
			return nil, err
		}
		c.Host.SelectClipSlot(slot)
	}
	if err := c.Host.Browser().LoadItem(item); err != nil {
		return nil, facade.BadValuef("load %q: %v", item.Name(), err)
	}

	devices := t.Devices()
	names := make([]string, len(devices))
	for i, d := range devices {
		names[i] = d.Name()
	}
	return map[string]any{
		"track_index": trackIndex,
		"item":        facade.ItemInfo(item),
		"devices":     names,
	}, nil
}

// loadDevice loads a device by device_uri or by loadable item name and
// reports the new device's parameters.
func loadDevice(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	deviceSlot, err := p.Int("device_slot", -1)
	if err != nil {
		return nil, err
	}
	t, err := c.F.Track(trackIndex)
	if err != nil {
		return nil, err
	}

	var item live.BrowserItem
	if uri, _ := p.StringAlias("", "device_uri", "uri"); uri != "" {
		item, err = c.F.FindByURI(uri)
	} else {
		name, nerr := p.RequireString("device_name")
		if nerr != nil {
			return nil, nerr
		}
		item, err = findLoadableByName(c, name)
	}
	if err != nil {
		return nil, err
	}

	c.Host.SelectTrack(t)
	if err := c.Host.Browser().LoadItem(item); err != nil {
		return nil, facade.BadValuef("load %q: %v", item.Name(), err)
	}

	devices := t.Devices()
	if len(devices) == 0 {
		return nil, facade.Unsupportedf("host loaded %q but the track has no devices", item.Name())
	}
	d := devices[len(devices)-1]
	params := d.Parameters()
	paramNames := make([]string, len(params))
	for i, dp := range params {
		paramNames[i] = dp.Name()
	}
	result := map[string]any{
		"track_index":  trackIndex,
		"device_index": len(devices) - 1,
		"name":         d.Name(),
		"class_name":   d.ClassName(),
		"type":         string(live.DeviceTypeOf(d.ClassName())),
		"parameters":   paramNames,
	}
	if deviceSlot >= 0 && deviceSlot != len(devices)-1 {
		result["note"] = fmt.Sprintf("host appends devices; loaded at index %d", len(devices)-1)
	}
	return result, nil
}

// findLoadableByName scans the browser for a loadable item with the given
// name, case-insensitively, preferring exact matches.
func findLoadableByName(c *Context, name string) (live.BrowserItem, error) {
	var substring live.BrowserItem
	var walk func(node live.BrowserItem, depth int) live.BrowserItem
	walk = func(node live.BrowserItem, depth int) live.BrowserItem {
		if depth < 0 {
			return nil
		}
		for _, child := range node.Children() {
			if child.IsLoadable() && !child.IsFolder() {
				if strings.EqualFold(child.Name(), name) {
					return child
				}
				if substring == nil && strings.Contains(strings.ToLower(child.Name()), strings.ToLower(name)) {
					substring = child
				}
			}
			if found := walk(child, depth-1); found != nil {
				return found
			}
		}
		return nil
	}
	for _, root := range c.Host.Browser().Roots() {
		if found := walk(root, 6); found != nil {
			return found, nil
		}
	}
	if substring != nil {
		return substring, nil
	}
	return nil, facade.NotFoundf("no loadable browser item named %q", name)
}

func loadSimplerWithSample(c *Context, p Params) (any, error) {
	return loadSamplerKind(c, p, "Simpler", []string{"Simpler"})
}

func loadSamplerWithSample(c *Context, p Params) (any, error) {
	return loadSamplerKind(c, p, "Sampler", []string{"MultiSampler", "Sampler"})
}

// loadSamplerKind ensures a sampler of the given kind sits on the track and
// swaps the requested sample into it. The sample resolves by browser path
// first, then by filename stem; the swap falls back to a browser load when
// the device rejects hotswapping.
func loadSamplerKind(c *Context, p Params, itemName string, classes []string) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	// device_slot is accepted for wire compatibility; the target position is
	// decided by chain reuse.
	if _, err := p.Int("device_slot", -1); err != nil {
		return nil, err
	}
	t, err := c.F.Track(trackIndex)
	if err != nil {
		return nil, err
	}
	c.Host.SelectTrack(t)

	var warning string

	// Reuse the last sampler already on the chain, otherwise load a fresh
	// one from the browser.
	target := lastDeviceOfClass(t, classes)
	if target == nil {
		item, err := findLoadableByName(c, itemName)
		if err != nil {
			return nil, err
		}
		if err := c.Host.Browser().LoadItem(item); err != nil {
			return nil, facade.BadValuef("load %q: %v", itemName, err)
		}
		target = lastDeviceOfClass(t, classes)
		if target == nil {
			devices := t.Devices()
			if len(devices) == 0 {
				return nil, facade.Unsupportedf("host loaded %q but the track has no devices", itemName)
			}
			target = devices[len(devices)-1]
		}
	}

	sample, err := resolveSampleItem(c, p)
	if err != nil {
		return nil, err
	}

	swapped := false
	if hs, ok := target.(live.Hotswap); ok {
		if err := hs.HotswapItem(sample.URI()); err == nil {
			swapped = true
		} else {
			warning = fmt.Sprintf("hotswap failed (%v); loaded sample through the browser instead", err)
		}
	}
	if !swapped {
		if err := c.Host.Browser().LoadItem(sample); err != nil {
			return nil, facade.BadValuef("load sample %q: %v", sample.Name(), err)
		}
		if warning == "" {
			warning = "device does not support hotswap; loaded sample through the browser instead"
		}
	}

	result := map[string]any{
		"track_index": trackIndex,
		"device":      target.Name(),
		"sample":      sample.Name(),
		"sample_uri":  sample.URI(),
		"loaded":      true,
	}
	if warning != "" {
		result["warning"] = warning
	}
	return result, nil
}

func lastDeviceOfClass(t live.Track, classes []string) live.Device {
	devices := t.Devices()
	for i := len(devices) - 1; i >= 0; i-- {
		for _, class := range classes {
			if devices[i].ClassName() == class {
				return devices[i]
			}
		}
	}
	return nil
}

// resolveSampleItem locates the sample named by file_path (a browser path or
// a filename whose stem is searched under the sample roots) or sample_name
// (a bare filename stem).
func resolveSampleItem(c *Context, p Params) (live.BrowserItem, error) {
	path, err := p.StringAlias("", "file_path", "sample_path")
	if err != nil {
		return nil, err
	}
	if path != "" {
		node, err := c.F.NodeAtPath(path)
		if err == nil {
			return node, nil
		}
		// A bare path may really be a filename; fall back to its stem.
	}
	name, err := p.String("sample_name", "")
	if err != nil {
		return nil, err
	}
	if name == "" {
		name = sampleStem(path)
	}
	if name == "" {
		return nil, facade.BadValuef("missing required parameter %q", "file_path")
	}
	return c.F.FindSampleByStem(name)
}

// sampleStem reduces a file path to the bare stem used for sample search.
func sampleStem(path string) string {
	if path == "" {
		return ""
	}
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// ─── Parameters ──────────────────────────────────────────────────────────────

func getDeviceParameters(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	deviceIndex, err := p.RequireInt("device_index")
	if err != nil {
		return nil, err
	}
	_, d, err := c.F.DeviceAt(trackIndex, deviceIndex)
	if err != nil {
		return nil, err
	}
	params := d.Parameters()
	infos := make([]map[string]any, len(params))
	for i, dp := range params {
		infos[i] = facade.ParamInfo(i, dp)
	}
	return map[string]any{
		"track_index":  trackIndex,
		"device_index": deviceIndex,
		"name":         d.Name(),
		"class_name":   d.ClassName(),
		"type":         string(live.DeviceTypeOf(d.ClassName())),
		"parameters":   infos,
	}, nil
}

func setDeviceParameter(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	deviceIndex, err := p.RequireInt("device_index")
	if err != nil {
		return nil, err
	}
	ref, ok := firstPresent(p, "parameter", "parameter_name", "parameter_index")
	if !ok {
		return nil, facade.BadValuef("missing required parameter %q", "parameter")
	}
	if !p.Has("value") {
		return nil, facade.BadValuef("missing required parameter %q", "value")
	}
	_, d, err := c.F.DeviceAt(trackIndex, deviceIndex)
	if err != nil {
		return nil, err
	}
	i, param, err := facade.FindParameter(d, ref)
	if err != nil {
		return nil, err
	}
	v, err := facade.SetParam(param, p.Any("value"))
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"track_index":     trackIndex,
		"device_index":    deviceIndex,
		"parameter_index": i,
		"parameter_name":  param.Name(),
		"value":           v,
	}, nil
}

// setDeviceParameters applies a batch of parameter writes. Each write stands
// alone: failures are collected, successes stick.
func setDeviceParameters(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	deviceIndex, err := p.RequireInt("device_index")
	if err != nil {
		return nil, err
	}
	_, d, err := c.F.DeviceAt(trackIndex, deviceIndex)
	if err != nil {
		return nil, err
	}

	type write struct {
		ref   any
		value any
	}
	var writes []write
	switch raw := p.Any("parameters").(type) {
	case map[string]any:
		for name, value := range raw {
			writes = append(writes, write{ref: name, value: value})
		}
	case []any:
		for i, el := range raw {
			obj, ok := el.(map[string]any)
			if !ok {
				return nil, facade.BadValuef("parameters[%d] must be an object, got %T", i, el)
			}
			ref, ok := firstPresent(obj, "parameter", "name", "index")
			if !ok {
				return nil, facade.BadValuef("parameters[%d] has no parameter/name/index field", i)
			}
			value, ok := obj["value"]
			if !ok {
				return nil, facade.BadValuef("parameters[%d] has no value field", i)
			}
			writes = append(writes, write{ref: ref, value: value})
		}
	default:
		return nil, facade.BadValuef("parameters must be a mapping or list, got %T", p.Any("parameters"))
	}

	var updated []map[string]any
	var errs []string
	for _, w := range writes {
		i, param, err := facade.FindParameter(d, w.ref)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		v, err := facade.SetParam(param, w.value)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		updated = append(updated, map[string]any{
			"parameter_index": i,
			"parameter_name":  param.Name(),
			"value":           v,
		})
	}

	result := map[string]any{
		"track_index":  trackIndex,
		"device_index": deviceIndex,
		"updated":      updated,
	}
	if len(errs) > 0 {
		result["errors"] = errs
	}
	return result, nil
}

// ─── Snapshots ───────────────────────────────────────────────────────────────

// saveDeviceSnapshot captures every parameter of a device as a
// name-to-value mapping. The mapping IS the result; the client holds it and
// hands it back to apply_device_snapshot later.
func saveDeviceSnapshot(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	deviceIndex, err := p.RequireInt("device_index")
	if err != nil {
		return nil, err
	}
	_, d, err := c.F.DeviceAt(trackIndex, deviceIndex)
	if err != nil {
		return nil, err
	}

	values := make(map[string]any)
	for _, dp := range d.Parameters() {
		values[dp.Name()] = dp.Value()
	}
	return values, nil
}

// applyDeviceSnapshot writes a client-held snapshot mapping back onto a
// device, matching parameters by name so snapshots transfer between
// instances of the same device class. Writes stand alone: failures land in
// the errors list, successes stick.
func applyDeviceSnapshot(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	deviceIndex, err := p.RequireInt("device_index")
	if err != nil {
		return nil, err
	}
	snap, ok := p.Any("snapshot").(map[string]any)
	if !ok || snap == nil {
		return nil, facade.BadValuef("snapshot must be a mapping of parameter names to values, got %T", p.Any("snapshot"))
	}
	_, d, err := c.F.DeviceAt(trackIndex, deviceIndex)
	if err != nil {
		return nil, err
	}

	names := make([]string, 0, len(snap))
	for name := range snap {
		names = append(names, name)
	}
	sort.Strings(names)

	var applied []map[string]any
	var errs []string
	for _, name := range names {
		_, param, err := facade.FindParameter(d, name)
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		v, err := facade.SetParam(param, snap[name])
		if err != nil {
			errs = append(errs, err.Error())
			continue
		}
		applied = append(applied, map[string]any{
			"parameter_name": param.Name(),
			"value":          v,
		})
	}

	result := map[string]any{
		"track_index":  trackIndex,
		"device_index": deviceIndex,
		"applied":      applied,
		"count":        len(applied),
	}
	if len(errs) > 0 {
		result["errors"] = errs
	}
	return result, nil
}

// ─── Routing ─────────────────────────────────────────────────────────────────

// findParamContaining returns the first device parameter whose name contains
// every fragment, case-insensitively. Parameter naming varies across device
// classes, so sidechain plumbing matches by fragment rather than exact name.
func findParamContaining(d live.Device, fragments ...string) (live.Parameter, bool) {
	for _, dp := range d.Parameters() {
		name := strings.ToLower(dp.Name())
		ok := true
		for _, f := range fragments {
			if !strings.Contains(name, f) {
				ok = false
				break
			}
		}
		if ok {
			return dp, true
		}
	}
	return nil, false
}

func boolValue(b bool) int {
	if b {
		return 1
	}
	return 0
}

// setDeviceSidechainSource points a sidechain-capable device at a source
// track. The host exposes this as device parameters (a toggle whose name
// mentions sidechain, and a source enum whose index 0 is "No Input"), plus
// device-level input routing on hosts that have it. The mono and pre_fx
// parameters and the listen toggle are written best effort.
func setDeviceSidechainSource(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	deviceIndex, err := p.RequireInt("device_index")
	if err != nil {
		return nil, err
	}
	sourceIndex, err := p.RequireInt("source_track_index")
	if err != nil {
		return nil, err
	}
	preFX, err := p.Bool("pre_fx", true)
	if err != nil {
		return nil, err
	}
	mono, err := p.Bool("mono", true)
	if err != nil {
		return nil, err
	}
	source, err := c.F.Track(sourceIndex)
	if err != nil {
		return nil, err
	}
	_, d, err := c.F.DeviceAt(trackIndex, deviceIndex)
	if err != nil {
		return nil, err
	}

	var applied []string

	if on, ok := findParamContaining(d, "sidechain", "on"); ok {
		if _, err := facade.SetParam(on, 1); err == nil {
			applied = append(applied, on.Name())
		}
	}

	from, ok := findParamContaining(d, "audio from")
	if !ok {
		return nil, facade.Unsupportedf("device %q has no sidechain source parameter", d.Name())
	}
	// The enum is 1-based over tracks: index 0 is "No Input".
	if _, err := facade.SetParam(from, sourceIndex+1); err != nil {
		return nil, err
	}
	applied = append(applied, from.Name())

	if mp, ok := findParamContaining(d, "mono"); ok {
		if _, err := facade.SetParam(mp, boolValue(mono)); err == nil {
			applied = append(applied, mp.Name())
		}
	}
	if pp, ok := findParamContaining(d, "pre fx"); ok {
		if _, err := facade.SetParam(pp, boolValue(preFX)); err == nil {
			applied = append(applied, pp.Name())
		}
	}
	if lp, ok := findParamContaining(d, "listen"); ok {
		if _, err := facade.SetParam(lp, 0); err == nil {
			applied = append(applied, lp.Name())
		}
	}

	// Mirror the choice into device-level routing where the host offers it.
	if io, ok := d.(live.DeviceIO); ok {
		if types := io.AvailableInputTypes(); len(types) > 0 {
			if o := facade.ResolveOption(types, source.Name()); o != nil {
				if err := io.SetInputType(o); err == nil {
					applied = append(applied, "input_type")
				}
			}
		}
	}

	return map[string]any{
		"track_index":  trackIndex,
		"device_index": deviceIndex,
		"source_track": source.Name(),
		"source_index": sourceIndex,
		"applied":      applied,
	}, nil
}

// setDeviceAudioInput writes device-level input routing for devices that
// expose it.
func setDeviceAudioInput(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	deviceIndex, err := p.RequireInt("device_index")
	if err != nil {
		return nil, err
	}
	_, d, err := c.F.DeviceAt(trackIndex, deviceIndex)
	if err != nil {
		return nil, err
	}
	io, ok := d.(live.DeviceIO)
	if !ok || len(io.AvailableInputTypes()) == 0 {
		return nil, facade.Unsupportedf("device %q has no input routing", d.Name())
	}

	if p.Has("input_type") {
		o := facade.ResolveOption(io.AvailableInputTypes(), p.Any("input_type"))
		if o == nil {
			return nil, facade.BadValuef("no input type matching %v", p.Any("input_type"))
		}
		if err := io.SetInputType(o); err != nil {
			return nil, facade.BadValuef("set input type: %v", err)
		}
	}
	if p.Has("input_channel") {
		o := facade.ResolveOption(io.AvailableInputChannels(), p.Any("input_channel"))
		if o == nil {
			return nil, facade.BadValuef("no input channel matching %v", p.Any("input_channel"))
		}
		if err := io.SetInputChannel(o); err != nil {
			return nil, facade.BadValuef("set input channel: %v", err)
		}
	}

	return map[string]any{
		"track_index":   trackIndex,
		"device_index":  deviceIndex,
		"input_type":    facade.DisplayNameOrNil(io.InputType()),
		"input_channel": facade.DisplayNameOrNil(io.InputChannel()),
	}, nil
}

// listRoutableDevices enumerates every device in the song that exposes its
// own input routing, with the option names a client can route to.
func listRoutableDevices(c *Context, p Params) (any, error) {
	var out []map[string]any
	for ti, t := range c.F.Song().Tracks() {
		for di, d := range t.Devices() {
			io, ok := d.(live.DeviceIO)
			if !ok {
				continue
			}
			types := io.AvailableInputTypes()
			if len(types) == 0 {
				continue
			}
			out = append(out, map[string]any{
				"track_index":    ti,
				"track_name":     t.Name(),
				"device_index":   di,
				"name":           d.Name(),
				"class_name":     d.ClassName(),
				"input_types":    facade.OptionNames(types),
				"input_channels": facade.OptionNames(io.AvailableInputChannels()),
				"input_type":     facade.DisplayNameOrNil(io.InputType()),
			})
		}
	}
	return map[string]any{"devices": out, "count": len(out)}, nil
}
