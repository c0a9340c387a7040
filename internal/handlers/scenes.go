package handlers

import (
	"github.com/soundctl/livebridge/internal/facade"
)

func sceneEntries() []Entry {
	return []Entry{
		onMain("create_scene", createScene),
		onMain("delete_scene", deleteScene),
		onMain("duplicate_scene", duplicateScene),
		onMain("set_scene_name", setSceneName),
		onMain("fire_scene", fireScene),
		onMain("fire_scene_by_name", fireSceneByName),
		onMain("stop_scene", stopScene),
	}
}

func createScene(c *Context, p Params) (any, error) {
	index, err := p.Int("index", -1)
	if err != nil {
		return nil, err
	}
	name, err := p.String("name", "")
	if err != nil {
		return nil, err
	}
	sc, err := c.F.Song().CreateScene(index)
	if err != nil {
		return nil, facade.BadValuef("create scene: %v", err)
	}
	if name != "" {
		sc.SetName(name)
	}
	scenes := c.F.Song().Scenes()
	created := len(scenes) - 1
	for i, x := range scenes {
		if x == sc {
			created = i
			break
		}
	}
	return map[string]any{
		"index":       created,
		"name":        sc.Name(),
		"scene_count": len(scenes),
	}, nil
}

func deleteScene(c *Context, p Params) (any, error) {
	index, err := p.RequireIntAlias("index", "scene_index")
	if err != nil {
		return nil, err
	}
	sc, err := c.F.Scene(index)
	if err != nil {
		return nil, err
	}
	name := sc.Name()
	if err := c.F.Song().DeleteScene(index); err != nil {
		return nil, facade.BadValuef("delete scene %d: %v", index, err)
	}
	return map[string]any{
		"deleted_index": index,
		"deleted_name":  name,
		"scene_count":   len(c.F.Song().Scenes()),
	}, nil
}

func duplicateScene(c *Context, p Params) (any, error) {
	index, err := p.RequireIntAlias("index", "scene_index")
	if err != nil {
		return nil, err
	}
	if _, err := c.F.Scene(index); err != nil {
		return nil, err
	}
	if err := c.F.Song().DuplicateScene(index); err != nil {
		return nil, facade.BadValuef("duplicate scene %d: %v", index, err)
	}
	// The host places the copy right after the source.
	sc, err := c.F.Scene(index + 1)
	if err != nil {
		return nil, err
	}
	return map[string]any{
		"index":       index + 1,
		"name":        sc.Name(),
		"scene_count": len(c.F.Song().Scenes()),
	}, nil
}

func setSceneName(c *Context, p Params) (any, error) {
	index, err := p.RequireIntAlias("index", "scene_index")
	if err != nil {
		return nil, err
	}
	name, err := p.RequireString("name")
	if err != nil {
		return nil, err
	}
	sc, err := c.F.Scene(index)
	if err != nil {
		return nil, err
	}
	sc.SetName(name)
	return map[string]any{"index": index, "name": sc.Name()}, nil
}

func fireScene(c *Context, p Params) (any, error) {
	index, err := p.RequireIntAlias("index", "scene_index")
	if err != nil {
		return nil, err
	}
	sc, err := c.F.Scene(index)
	if err != nil {
		return nil, err
	}
	sc.Fire()
	return map[string]any{"fired_scene": index, "name": sc.Name()}, nil
}

// fireSceneByName fires the first scene whose name matches the pattern, or
// every match when first_only is unset. Zero matches is not an error.
func fireSceneByName(c *Context, p Params) (any, error) {
	pattern, err := p.RequireStringAlias("pattern", "name")
	if err != nil {
		return nil, err
	}
	mode, err := p.MatchMode()
	if err != nil {
		return nil, err
	}
	firstOnly, err := p.Bool("first_only", true)
	if err != nil {
		return nil, err
	}

	var fired []map[string]any
	for i, sc := range c.F.Song().Scenes() {
		if !facade.Match(sc.Name(), pattern, mode) {
			continue
		}
		sc.Fire()
		fired = append(fired, map[string]any{"index": i, "name": sc.Name()})
		if firstOnly {
			break
		}
	}
	return map[string]any{"fired": fired, "count": len(fired)}, nil
}

// stopScene stops every clip in the scene's row. The global session stop is
// only issued when the target scene is the selected one, so other rows keep
// playing.
func stopScene(c *Context, p Params) (any, error) {
	index, err := p.RequireIntAlias("index", "scene_index")
	if err != nil {
		return nil, err
	}
	sc, err := c.F.Scene(index)
	if err != nil {
		return nil, err
	}
	for _, t := range c.F.Song().Tracks() {
		slots := t.ClipSlots()
		if index < len(slots) {
			slots[index].Stop()
		}
	}
	if c.F.Song().SelectedSceneIndex() == index {
		c.F.Song().StopAllClips()
	}
	return map[string]any{"stopped_scene": index, "name": sc.Name()}, nil
}
