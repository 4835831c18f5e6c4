package terrain

import (
	"math"

	"github.com/lox/meridian/internal/rng"
)

// classifyWater assigns IsLand and OceanWater on every face of m, consuming
// the StepWater RNG substream. This stands in for the specific noise
// function the system treats as an out-of-scope collaborator (§1): a plain
// white-noise-plus-radial-falloff field, smoothed over WaterSmoothPasses
// box-blur passes, is enough to satisfy the land/water contract 4.F needs
// without depending on a real noise library (none is available in this
// codebase's dependency set).
func classifyWater(m *Mesh, c GenerationControls) {
	src := rng.FromSeedStep(c.Seed, rng.StepWater)

	n := len(m.Faces)
	noise := make([]float64, n)
	for i := range noise {
		noise[i] = src.Float64()
	}
	for pass := 0; pass < c.WaterSmoothPasses; pass++ {
		noise = boxBlur(m, noise)
	}

	cx, cy := float64(m.MapWidth)/2, float64(m.MapHeight)/2
	maxR := dist(Point{0, 0}, Point{cx, cy})

	height := make([]float64, n)
	for i, f := range m.Faces {
		radial := 1 - clamp(dist(f.Centroid, Point{cx, cy})/maxR, 0, 1)
		edgeBias := c.WaterEdgeBias * (1 - radial)
		h := radial*(1-c.CoastNoiseStrength) + noise[i]*c.CoastNoiseStrength*c.CoastNoiseScale - edgeBias
		height[i] = clamp(h, 0, 1)
	}

	for i := range m.Faces {
		m.Faces[i].IsLand = height[i] >= c.SeaLevel
	}

	markOceanAndLakes(m, c)
}

// boxBlur averages each face's value with its direct neighbors.
func boxBlur(m *Mesh, in []float64) []float64 {
	out := make([]float64, len(in))
	for i, f := range m.Faces {
		sum := in[i]
		count := 1.0
		for _, nb := range f.Neighbors {
			sum += in[nb]
			count++
		}
		out[i] = sum / count
	}
	return out
}

// markOceanAndLakes flood-fills water reachable from the map border as
// ocean. Interior water components too small relative to LakeThreshold are
// converted to land (a puddle, not a lake); the rest remain OceanWater=false
// water (lakes).
func markOceanAndLakes(m *Mesh, c GenerationControls) {
	n := len(m.Faces)
	visited := make([]bool, n)
	isBorder := func(f *Face) bool {
		return f.Row == 0 || f.Col == 0 || f.Row == m.Rows-1 || f.Col == m.Cols-1
	}

	var queue []int
	for i := range m.Faces {
		f := &m.Faces[i]
		if !f.IsLand && isBorder(f) && !visited[i] {
			visited[i] = true
			queue = append(queue, i)
		}
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		m.Faces[id].OceanWater = true
		for _, nb := range m.Faces[id].Neighbors {
			if !visited[nb] && !m.Faces[nb].IsLand {
				visited[nb] = true
				queue = append(queue, nb)
			}
		}
	}

	minLakeSize := int(math.Round(c.LakeThreshold * float64(n)))
	seen := make([]bool, n)
	for i := range m.Faces {
		if seen[i] || m.Faces[i].IsLand || m.Faces[i].OceanWater {
			continue
		}
		component := floodCollect(m, i, seen)
		if len(component) < minLakeSize {
			for _, id := range component {
				m.Faces[id].IsLand = true
			}
		}
	}
}

func floodCollect(m *Mesh, start int, seen []bool) []int {
	var component []int
	queue := []int{start}
	seen[start] = true
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		component = append(component, id)
		for _, nb := range m.Faces[id].Neighbors {
			if !seen[nb] && !m.Faces[nb].IsLand && !m.Faces[nb].OceanWater {
				seen[nb] = true
				queue = append(queue, nb)
			}
		}
	}
	return component
}
