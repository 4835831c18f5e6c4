package room

import (
	"github.com/lox/meridian/internal/navgraph"
	"github.com/lox/meridian/internal/protocol"
	"github.com/lox/meridian/internal/terrain"
)

// Runtime is the room's TerrainRuntime (§3): immutable after publish. A new
// publish always produces a new Runtime with TerrainVersion = previous + 1.
type Runtime struct {
	TerrainVersion int
	Terrain        *terrain.Result
	Graph          *navgraph.Graph
	Render         protocol.TerrainSnapshot
	RenderControls terrain.RenderControls
}

// buildRuntime runs 4.B (implicitly, via terrain.Build's own normalization)
// then 4.C and 4.F to produce a new Runtime at the given version. The same
// controls map also carries the intermediate-refinement fields, normalized
// here into RenderControls for the refinement cache.
func buildRuntime(version int, snap protocol.TerrainSnapshot) (*Runtime, error) {
	res, err := terrain.Build(terrain.Raw(snap.Controls), terrain.Raw(snap.Movement), snap.MapWidth, snap.MapHeight)
	if err != nil {
		return nil, err
	}
	graph := navgraph.Build(res)
	return &Runtime{
		TerrainVersion: version,
		Terrain:        res,
		Graph:          graph,
		Render:         snap,
		RenderControls: terrain.NormalizeRender(terrain.Raw(snap.Controls)),
	}, nil
}
