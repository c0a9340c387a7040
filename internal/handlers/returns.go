package handlers

import (
	"github.com/soundctl/livebridge/internal/facade"
)

func returnEntries() []Entry {
	return []Entry{
		onMain("create_return_track", createReturnTrack),
		onMain("delete_return_track", deleteReturnTrack),
		onMain("set_return_track_name", setReturnTrackName),
	}
}

func createReturnTrack(c *Context, p Params) (any, error) {
	rt, err := c.F.Song().CreateReturnTrack()
	if err != nil {
		return nil, facade.BadValuef("create return track: %v", err)
	}
	returns := c.F.Song().ReturnTracks()
	index := len(returns) - 1
	for i, x := range returns {
		if x == rt {
			index = i
			break
		}
	}
	return map[string]any{
		"index":              index,
		"name":               rt.Name(),
		"return_track_count": len(returns),
	}, nil
}

func deleteReturnTrack(c *Context, p Params) (any, error) {
	index, err := p.RequireIntAlias("index", "return_index")
	if err != nil {
		return nil, err
	}
	rt, err := c.F.ReturnTrack(index)
	if err != nil {
		return nil, err
	}
	name := rt.Name()
	if err := c.F.Song().DeleteReturnTrack(index); err != nil {
		return nil, facade.BadValuef("delete return track %d: %v", index, err)
	}
	return map[string]any{
		"deleted_index":      index,
		"deleted_name":       name,
		"return_track_count": len(c.F.Song().ReturnTracks()),
	}, nil
}

func setReturnTrackName(c *Context, p Params) (any, error) {
	index, err := p.RequireIntAlias("index", "return_index")
	if err != nil {
		return nil, err
	}
	name, err := p.RequireString("name")
	if err != nil {
		return nil, err
	}
	rt, err := c.F.ReturnTrack(index)
	if err != nil {
		return nil, err
	}
	rt.SetName(name)
	return map[string]any{"index": index, "name": rt.Name()}, nil
}
