package handlers

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/soundctl/livebridge/internal/facade"
	"github.com/soundctl/livebridge/pkg/live"
)

func routingEntries() []Entry {
	return []Entry{
		onMain("configure_track_routing", configureTrackRouting),
	}
}

// routingInfo shapes the resolved routing block of a track.
func routingInfo(t live.Track) map[string]any {
	info := map[string]any{
		"input_type":     facade.DisplayNameOrNil(t.InputType()),
		"input_channel":  facade.DisplayNameOrNil(t.InputChannel()),
		"output_type":    facade.DisplayNameOrNil(t.OutputType()),
		"output_channel": facade.DisplayNameOrNil(t.OutputChannel()),
	}
	if state, ok := t.Monitoring(); ok {
		info["monitoring"] = facade.MonitorName(state)
	}
	return info
}

// configureTrackRouting is the one-shot composite: any subset of routing,
// monitoring, arm and sends, applied in order. Sub-step failures do not
// abort the rest; they are collected into the errors list and the final
// aggregated state is always reported.
func configureTrackRouting(c *Context, p Params) (any, error) {
	trackIndex, err := p.RequireInt("track_index")
	if err != nil {
		return nil, err
	}
	t, err := c.F.Track(trackIndex)
	if err != nil {
		return nil, err
	}

	var applied []string
	var errs []string

	apply := func(name string, fn func() error) {
		if err := fn(); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", name, err))
			return
		}
		applied = append(applied, name)
	}

	if p.Has("input_type") {
		apply("input_type", func() error {
			return setRouting(p.Any("input_type"), t.AvailableInputTypes(), t.SetInputType)
		})
	}
	if p.Has("input_channel") {
		apply("input_channel", func() error {
			return setRouting(p.Any("input_channel"), t.AvailableInputChannels(), t.SetInputChannel)
		})
	}
	if p.Has("output_type") {
		apply("output_type", func() error {
			return setRouting(p.Any("output_type"), t.AvailableOutputTypes(), t.SetOutputType)
		})
	}
	if p.Has("output_channel") {
		apply("output_channel", func() error {
			return setRouting(p.Any("output_channel"), t.AvailableOutputChannels(), t.SetOutputChannel)
		})
	}
	if p.Has("monitor") {
		apply("monitor", func() error {
			state, err := facade.MonitorState(p.Any("monitor"))
			if err != nil {
				return err
			}
			return t.SetMonitoring(state)
		})
	}
	if p.Has("arm") {
		apply("arm", func() error {
			on, err := p.Bool("arm", false)
			if err != nil {
				return err
			}
			if !t.CanBeArmed() {
				return fmt.Errorf("track cannot be armed")
			}
			t.SetArm(on)
			return nil
		})
	}

	var sendResults []map[string]any
	if p.Has("sends") {
		pairs, err := parseSendPayload(c, p.Any("sends"))
		if err != nil {
			errs = append(errs, fmt.Sprintf("sends: %v", err))
		} else {
			for _, pair := range pairs {
				send, err := c.F.Send(t, pair.index)
				if err != nil {
					errs = append(errs, fmt.Sprintf("send %d: %v", pair.index, err))
					continue
				}
				v, err := facade.SetParam(send, pair.value)
				if err != nil {
					errs = append(errs, fmt.Sprintf("send %d: %v", pair.index, err))
					continue
				}
				sendResults = append(sendResults, map[string]any{"index": pair.index, "level": v})
				applied = append(applied, fmt.Sprintf("send_%d", pair.index))
			}
		}
	}

	returns := c.F.Song().ReturnTracks()
	sends := t.Sends()
	sendInfos := make([]map[string]any, len(sends))
	for i, s := range sends {
		sendInfos[i] = sendInfo(i, s, returns)
	}

	result := map[string]any{
		"track_index": trackIndex,
		"applied":     applied,
		"routing":     routingInfo(t),
		"arm":         t.Arm(),
		"sends":       sendInfos,
	}
	if len(sendResults) > 0 {
		result["updated_sends"] = sendResults
	}
	if len(errs) > 0 {
		result["errors"] = errs
	}
	return result, nil
}

// setRouting resolves target against options and writes the option.
func setRouting(target any, options []live.RoutingOption, set func(live.RoutingOption) error) error {
	o := facade.ResolveOption(options, target)
	if o == nil {
		return fmt.Errorf("no routing option matching %v", target)
	}
	return set(o)
}

// sendPair is one normalized (send index, raw level) assignment.
type sendPair struct {
	index int
	value any
}

// parseSendPayload accepts the union of send payload shapes:
//
//   - mapping {name_or_index: level}
//   - list of {index|name|send, level|value} objects
//   - list of [target, level] pairs
//   - flat list of levels applied positionally
//
// Name targets resolve against return track names, case-insensitively.
func parseSendPayload(c *Context, raw any) ([]sendPair, error) {
	switch x := raw.(type) {
	case map[string]any:
		var out []sendPair
		for key, level := range x {
			idx, err := resolveSendTarget(c, key)
			if err != nil {
				return nil, err
			}
			out = append(out, sendPair{index: idx, value: level})
		}
		return out, nil
	case []any:
		if len(x) == 0 {
			return nil, nil
		}
		var out []sendPair
		for i, el := range x {
			switch item := el.(type) {
			case map[string]any:
				target, ok := firstPresent(item, "index", "name", "send")
				if !ok {
					return nil, fmt.Errorf("send object %d has no index/name/send field", i)
				}
				level, ok := firstPresent(item, "level", "value")
				if !ok {
					return nil, fmt.Errorf("send object %d has no level/value field", i)
				}
				idx, err := resolveSendTarget(c, target)
				if err != nil {
					return nil, err
				}
				out = append(out, sendPair{index: idx, value: level})
			case []any:
				if len(item) != 2 {
					return nil, fmt.Errorf("send pair %d must be [target, level]", i)
				}
				idx, err := resolveSendTarget(c, item[0])
				if err != nil {
					return nil, err
				}
				out = append(out, sendPair{index: idx, value: item[1]})
			default:
				// Flat positional list.
				out = append(out, sendPair{index: i, value: el})
			}
		}
		return out, nil
	}
	return nil, fmt.Errorf("sends must be a mapping or list, got %T", raw)
}

// resolveSendTarget turns an index, numeric string, or return-track name
// into a send index.
func resolveSendTarget(c *Context, target any) (int, error) {
	switch x := target.(type) {
	case float64:
		return int(x), nil
	case int:
		return x, nil
	case string:
		if i, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return i, nil
		}
		for i, rt := range c.F.Song().ReturnTracks() {
			if strings.Contains(strings.ToLower(rt.Name()), strings.ToLower(x)) {
				return i, nil
			}
		}
		return 0, fmt.Errorf("no return track matching %q", x)
	}
	return 0, fmt.Errorf("send target must be an index or name, got %T", target)
}

func firstPresent(m map[string]any, keys ...string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}
