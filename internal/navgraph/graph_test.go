package navgraph

import (
	"math"
	"testing"

	"github.com/lox/meridian/internal/terrain"
)

func buildGraph(t *testing.T, seed float64) *Graph {
	t.Helper()
	res, err := terrain.Build(terrain.Raw{"seed": seed, "provinceCount": 6.0}, terrain.Raw{}, 640, 480)
	if err != nil {
		t.Fatalf("terrain.Build: %v", err)
	}
	return Build(res)
}

func TestFindPathSameFaceIsTrivial(t *testing.T) {
	g := buildGraph(t, 7)
	if len(g.LandFaceIds) == 0 {
		t.Skip("no land faces generated for this seed")
	}
	id := g.LandFaceIds[0]
	p := FindPath(g, id, id)
	if len(p.FacePath) != 1 || p.FacePath[0] != id || p.TotalCost != 0 {
		t.Fatalf("source==target path = %+v, want [id]/0", p)
	}
}

func TestFindPathDeterministicAcrossRuns(t *testing.T) {
	g1 := buildGraph(t, 123)
	g2 := buildGraph(t, 123)
	if len(g1.LandFaceIds) < 2 {
		t.Skip("not enough land faces generated for this seed")
	}
	src, dst := g1.LandFaceIds[0], g1.LandFaceIds[len(g1.LandFaceIds)-1]
	p1 := FindPath(g1, src, dst)
	p2 := FindPath(g2, src, dst)
	if len(p1.FacePath) != len(p2.FacePath) {
		t.Fatalf("path lengths differ: %d vs %d", len(p1.FacePath), len(p2.FacePath))
	}
	for i := range p1.FacePath {
		if p1.FacePath[i] != p2.FacePath[i] {
			t.Fatalf("path diverged at index %d: %d vs %d", i, p1.FacePath[i], p2.FacePath[i])
		}
	}
	if p1.TotalCost != p2.TotalCost {
		t.Fatalf("total cost differs: %v vs %v", p1.TotalCost, p2.TotalCost)
	}
}

func TestFindPathUnreachableReturnsInfiniteCost(t *testing.T) {
	g := &Graph{Nodes: []Node{{FaceID: 0, IsLand: true}, {FaceID: 1, IsLand: true}}}
	p := FindPath(g, 0, 1)
	if len(p.FacePath) != 0 || !math.IsInf(p.TotalCost, 1) {
		t.Fatalf("unreachable path = %+v, want empty path with +Inf cost", p)
	}
}

func TestStepCostAlwaysPositiveWhenPassable(t *testing.T) {
	g := buildGraph(t, 55)
	for _, n := range g.Nodes {
		for _, e := range n.Edges {
			if e.StepCost <= 0 {
				t.Fatalf("face %d -> %d has non-positive step cost %v", n.FaceID, e.NeighborFaceID, e.StepCost)
			}
		}
	}
}
