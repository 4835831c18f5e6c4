package terrain

import (
	"sort"

	"github.com/lox/meridian/internal/rng"
)

// Province is a group of land faces sharing an owner identifier and a
// boundary polyline (GLOSSARY). Each province grows over land from one seed
// face; land faces that no seed can reach over land (an island without a
// seed) are all placed in province 0, so a province is not always
// connected. OuterEdges lists every edge that
// separates this province from a different province or from water, and
// Neighbors is the set of adjacent province ids derived from those edges.
type Province struct {
	ID         int
	FaceIDs    []int
	OuterEdges []EdgeKey
	Neighbors  []int
}

// buildProvinces partitions land faces into c.ProvinceCount regions by
// multi-source BFS from randomly chosen seed faces, consuming the
// StepProvince RNG substream. ProvinceRelaxIteration extra passes recenter
// each seed on its current partition's nearest face and repartition,
// smoothing ragged first-pass boundaries (a Lloyd-relaxation analogue).
func buildProvinces(m *Mesh, c GenerationControls) []Province {
	landIDs := make([]int, 0, len(m.Faces))
	for _, f := range m.Faces {
		if f.IsLand {
			landIDs = append(landIDs, f.ID)
		}
	}
	if len(landIDs) == 0 {
		return nil
	}
	sort.Ints(landIDs)

	src := rng.FromSeedStep(c.Seed, rng.StepProvince)
	count := c.ProvinceCount
	if count > len(landIDs) {
		count = len(landIDs)
	}

	seeds := pickSeeds(landIDs, count, src)
	var assignment map[int]int
	for pass := 0; pass <= c.ProvinceRelaxIteration; pass++ {
		assignment = partition(m, seeds)
		if pass < c.ProvinceRelaxIteration {
			seeds = recenter(m, seeds, assignment, landIDs)
		}
	}

	provinces := make([]Province, count)
	for i := range provinces {
		provinces[i] = Province{ID: i}
	}
	for _, id := range landIDs {
		p := assignment[id]
		provinces[p].FaceIDs = append(provinces[p].FaceIDs, id)
		m.Faces[id].ProvinceID = p
	}

	neighborSet := make([]map[int]bool, count)
	for i := range neighborSet {
		neighborSet[i] = map[int]bool{}
	}
	for _, id := range landIDs {
		f := &m.Faces[id]
		own := f.ProvinceID
		for _, nb := range f.Neighbors {
			other := m.Faces[nb].ProvinceID
			if other != own {
				provinces[own].OuterEdges = append(provinces[own].OuterEdges, edgeKey(id, nb))
				if other >= 0 {
					neighborSet[own][other] = true
				}
			}
		}
	}
	for i := range provinces {
		for n := range neighborSet[i] {
			provinces[i].Neighbors = append(provinces[i].Neighbors, n)
		}
		sort.Ints(provinces[i].Neighbors)
		sort.Slice(provinces[i].OuterEdges, func(a, b int) bool {
			ea, eb := provinces[i].OuterEdges[a], provinces[i].OuterEdges[b]
			if ea.A != eb.A {
				return ea.A < eb.A
			}
			return ea.B < eb.B
		})
	}
	return provinces
}

func pickSeeds(landIDs []int, count int, src *rng.Source) []int {
	pool := append([]int(nil), landIDs...)
	seeds := make([]int, 0, count)
	for i := 0; i < count && len(pool) > 0; i++ {
		idx := int(src.IntN(uint32(len(pool))))
		seeds = append(seeds, pool[idx])
		pool = append(pool[:idx], pool[idx+1:]...)
	}
	return seeds
}

// partition runs a multi-source BFS from seeds over land faces, assigning
// each reachable face to the seed whose frontier reaches it first. Ties go
// to the frontier face expanded first: the initial frontier is in seed
// order, every later one in ascending face id order.
func partition(m *Mesh, seeds []int) map[int]int {
	assignment := make(map[int]int, len(m.Faces))
	var frontier []int
	for i, s := range seeds {
		assignment[s] = i
		frontier = append(frontier, s)
	}
	for len(frontier) > 0 {
		var next []int
		for _, id := range frontier {
			f := &m.Faces[id]
			for _, nb := range f.Neighbors {
				if !m.Faces[nb].IsLand {
					continue
				}
				if _, seen := assignment[nb]; seen {
					continue
				}
				assignment[nb] = assignment[id]
				next = append(next, nb)
			}
		}
		sort.Ints(next)
		frontier = next
	}
	return assignment
}

// recenter replaces each seed with the face in its current partition
// closest to that partition's centroid. landIDs must be sorted and is
// walked in that fixed order for both the centroid sum and the argmin,
// since assignment is a map and ranging it directly would make the
// accumulated float sums (and any bestDist tie) order-dependent.
func recenter(m *Mesh, seeds []int, assignment map[int]int, landIDs []int) []int {
	sums := make([]Point, len(seeds))
	counts := make([]int, len(seeds))
	for _, id := range landIDs {
		p := assignment[id]
		sums[p].X += m.Faces[id].Centroid.X
		sums[p].Y += m.Faces[id].Centroid.Y
		counts[p]++
	}
	next := make([]int, len(seeds))
	for p := range seeds {
		if counts[p] == 0 {
			next[p] = seeds[p]
			continue
		}
		centroid := Point{X: sums[p].X / float64(counts[p]), Y: sums[p].Y / float64(counts[p])}
		best, bestDist := seeds[p], -1.0
		for _, id := range landIDs {
			if assignment[id] != p {
				continue
			}
			d := dist(m.Faces[id].Centroid, centroid)
			if bestDist < 0 || d < bestDist || (d == bestDist && id < best) {
				best, bestDist = id, d
			}
		}
		next[p] = best
	}
	return next
}
