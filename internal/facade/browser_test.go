package facade

import (
	"testing"

	"github.com/soundctl/livebridge/pkg/live"
	"github.com/soundctl/livebridge/pkg/live/sim"
)

func TestFindByURI(t *testing.T) {
	t.Parallel()
	f := New(sim.New())

	item, err := f.FindByURI("sim:samples/Kicks/Kick 808.wav")
	if err != nil {
		t.Fatalf("FindByURI: %v", err)
	}
	if item.Name() != "Kick 808.wav" {
		t.Fatalf("found %q", item.Name())
	}
	if _, err := f.FindByURI("sim:nope"); KindOf(err) != KindNotFound {
		t.Fatalf("missing uri kind = %v", KindOf(err))
	}
	if _, err := f.FindByURI(""); KindOf(err) != KindBadValue {
		t.Fatalf("empty uri kind = %v", KindOf(err))
	}
}

func TestItemsAtPathIsCaseInsensitive(t *testing.T) {
	t.Parallel()
	f := New(sim.New())

	items, err := f.ItemsAtPath("samples/kicks")
	if err != nil {
		t.Fatalf("ItemsAtPath: %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if _, err := f.ItemsAtPath("samples/gongs"); KindOf(err) != KindNotFound {
		t.Fatalf("bad path kind = %v", KindOf(err))
	}

	roots, err := f.ItemsAtPath("")
	if err != nil || len(roots) == 0 {
		t.Fatalf("empty path: %v items, err %v", len(roots), err)
	}
}

func TestFindSampleByStem(t *testing.T) {
	t.Parallel()
	f := New(sim.New())

	// Exact normalized match: separators and extension are ignored.
	item, err := f.FindSampleByStem("kick_808")
	if err != nil {
		t.Fatalf("FindSampleByStem: %v", err)
	}
	if item.Name() != "Kick 808.wav" {
		t.Fatalf("exact stem found %q", item.Name())
	}

	// Containment falls back to similarity ranking.
	item, err = f.FindSampleByStem("808")
	if err != nil {
		t.Fatalf("FindSampleByStem(808): %v", err)
	}
	if item.Name() != "Kick 808.wav" {
		t.Fatalf("containment found %q", item.Name())
	}

	if _, err := f.FindSampleByStem("zither"); KindOf(err) != KindNotFound {
		t.Fatalf("missing stem kind = %v", KindOf(err))
	}
}

func TestNormalizeStem(t *testing.T) {
	t.Parallel()
	for in, want := range map[string]string{
		"Kick 808.wav": "kick808",
		"kick_808":     "kick808",
		"Hat-Closed":   "hatclosed",
		"":             "",
	} {
		if got := NormalizeStem(in); got != want {
			t.Errorf("NormalizeStem(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestCollectAndRankLoadable(t *testing.T) {
	t.Parallel()
	f := New(sim.New())
	root := f.Host().Browser().Root("instruments")

	all := CollectLoadable(root, 100)
	if len(all) != 6 {
		t.Fatalf("CollectLoadable found %d, want 6", len(all))
	}
	capped := CollectLoadable(root, 2)
	if len(capped) != 2 {
		t.Fatalf("cap not applied: %d", len(capped))
	}

	ranked := RankLoadable(root, "sampler", 10)
	if len(ranked) != 1 || ranked[0].Name() != "Sampler" {
		t.Fatalf("RankLoadable(sampler) = %v", names(ranked))
	}
	if got := RankLoadable(root, "zzz", 10); len(got) != 0 {
		t.Fatalf("RankLoadable(zzz) = %v", names(got))
	}
}

func names(items []live.BrowserItem) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.Name()
	}
	return out
}
