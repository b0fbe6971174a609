package live

import (
	"github.com/vango-dev/weave/pkg/dom"
	"github.com/vango-dev/weave/pkg/render"
)

// Patch is the wire form of a dom.Patch.
type Patch struct {
	Op     string `json:"op"`
	Target string `json:"target,omitempty"`
	Parent string `json:"parent,omitempty"`
	Before string `json:"before,omitempty"`
	Key    string `json:"key,omitempty"`
	Value  string `json:"value,omitempty"`
	HTML   string `json:"html,omitempty"`
}

// EncodePatches converts patches to their wire form. Inserted subtrees are
// rendered with hydration markers.
func EncodePatches(patches []dom.Patch) []Patch {
	if len(patches) == 0 {
		return nil
	}
	r := render.NewRenderer(render.RendererConfig{HydrationIDs: true})
	out := make([]Patch, len(patches))
	for i, p := range patches {
		out[i] = Patch{
			Op:     p.Op.String(),
			Target: p.Target.String(),
			Parent: p.Parent.String(),
			Before: p.Before.String(),
			Key:    p.Key,
			Value:  p.Value,
		}
		if p.Op == dom.PatchInsertNode && p.Node != nil {
			out[i].HTML, _ = r.RenderToString(p.Node)
		}
	}
	return out
}
