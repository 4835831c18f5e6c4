package terrain

import (
	"sort"

	"github.com/lox/meridian/internal/rng"
)

// RiverTrace is an ordered sequence of face ids a river follows from its
// source to where it terminates (water or the map edge). Traces are
// produced in a fixed order so that "river traces (edges carrying water,
// ordered)" is reproducible across runs with equal inputs.
type RiverTrace struct {
	Faces []int
}

// traceRivers derives river paths by steepest descent from high-elevation
// sources, marking each crossed edge in m.RiverEdges, and consumes the
// StepRiver RNG substream for source selection, meander, and branching.
func traceRivers(m *Mesh, c GenerationControls) []RiverTrace {
	src := rng.FromSeedStep(c.Seed, rng.StepRiver)

	sources := make([]int, 0)
	for _, f := range m.Faces {
		if f.IsLand && !f.OceanWater && f.Elevation >= c.RiverSourceElevation {
			sources = append(sources, f.ID)
		}
	}
	sort.Ints(sources)
	if len(sources) == 0 {
		return nil
	}

	var traces []RiverTrace
	for i := 0; i < c.RiverCount; i++ {
		start := sources[src.IntN(uint32(len(sources)))]
		if trace, ok := traceOne(m, start, c, src); ok {
			traces = append(traces, trace)
			if src.Float64() < c.RiverBranchChance && len(trace.Faces) > 2 {
				branchAt := trace.Faces[len(trace.Faces)/2]
				if branch, ok := traceOne(m, branchAt, c, src); ok && len(branch.Faces) >= 2 {
					traces = append(traces, branch)
				}
			}
		}
	}
	return traces
}

// traceOne walks downhill from start, preferring the steepest-descent
// neighbor but occasionally taking the lowest-id unvisited neighbor
// instead, whatever its elevation, when RiverMeander rolls in its favor
// (also taken when no neighbor is lower), terminating at water, a dead end, or
// RiverMinLength*4 steps (a generous bound — rivers are expected to reach
// water well before this).
func traceOne(m *Mesh, start int, c GenerationControls, src *rng.Source) (RiverTrace, bool) {
	visited := map[int]bool{start: true}
	path := []int{start}
	current := start

	maxSteps := c.RiverMinLength * 4
	for step := 0; step < maxSteps; step++ {
		f := m.Faces[current]
		if !f.IsLand {
			return RiverTrace{Faces: path}, len(path) >= c.RiverMinLength
		}
		var best, fallback = -1, -1
		bestElev := f.Elevation
		neighbors := append([]int(nil), f.Neighbors...)
		sort.Ints(neighbors)
		for _, nb := range neighbors {
			if visited[nb] {
				continue
			}
			if m.Faces[nb].Elevation < bestElev {
				bestElev = m.Faces[nb].Elevation
				best = nb
			}
			if fallback == -1 {
				fallback = nb
			}
		}
		next := best
		if next == -1 || (fallback != -1 && src.Float64() < c.RiverMeander) {
			next = fallback
		}
		if next == -1 {
			break
		}
		m.RiverEdges[edgeKey(current, next)] = true
		visited[next] = true
		path = append(path, next)
		current = next
		if !m.Faces[next].IsLand {
			return RiverTrace{Faces: path}, len(path) >= c.RiverMinLength
		}
	}
	return RiverTrace{Faces: path}, len(path) >= c.RiverMinLength
}
