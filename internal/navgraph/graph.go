// Package navgraph builds a weighted face-adjacency graph from terrain
// output and finds shortest-cost paths over it with A*.
package navgraph

import (
	"math"
	"sort"

	"github.com/lox/meridian/internal/terrain"
)

// Edge is one passable transition out of a Node.
type Edge struct {
	NeighborFaceID int
	StepCost       float64
}

// Node is one face's entry in the graph: its land/water status, centroid,
// and outgoing passable edges.
type Node struct {
	FaceID     int
	Centroid   terrain.Point
	IsLand     bool
	Elevation  float64
	Edges      []Edge
}

// Graph is the navigation graph 4.G's pathfinder searches. LandFaceIds is
// the sorted list of land faces with at least one passable outgoing edge,
// used by the room's spawn rule (4.H).
type Graph struct {
	Nodes       []Node
	LandFaceIds []int
}

// Build converts terrain mesh/water/river output into a weighted face-
// adjacency graph. A neighbor edge is passable iff both endpoints are land
// and the destination face's elevation is below movement.ImpassableThreshold.
func Build(res *terrain.Result) *Graph {
	m := res.Mesh
	move := res.Movement

	nodes := make([]Node, len(m.Faces))
	for i, f := range m.Faces {
		nodes[i] = Node{FaceID: f.ID, Centroid: f.Centroid, IsLand: f.IsLand, Elevation: f.Elevation}
	}

	for i := range m.Faces {
		from := &m.Faces[i]
		if !from.IsLand {
			continue
		}
		for _, nbID := range from.Neighbors {
			to := &m.Faces[nbID]
			if !to.IsLand || to.Elevation >= move.ImpassableThreshold {
				continue
			}
			cost := stepCost(from.Elevation, to.Elevation, move)
			hasRiver := m.RiverEdges[terrain.EdgeKey{A: minInt(from.ID, to.ID), B: maxInt(from.ID, to.ID)}]
			if hasRiver {
				cost *= 1 + move.RiverPenalty
			}
			nodes[i].Edges = append(nodes[i].Edges, Edge{NeighborFaceID: nbID, StepCost: cost})
		}
	}

	var landIDs []int
	for i := range nodes {
		if nodes[i].IsLand && len(nodes[i].Edges) > 0 {
			landIDs = append(landIDs, nodes[i].FaceID)
		}
	}
	sort.Ints(landIDs)

	return &Graph{Nodes: nodes, LandFaceIds: landIDs}
}

// stepCost implements 4.F's cost formula: a positive base that grows with
// elevation gain above the lowland floor, raised to ElevationPower.
func stepCost(elevFrom, elevTo float64, move terrain.Movement) float64 {
	lowlandFloor := math.Min(elevFrom, move.LowlandThreshold)
	gain := math.Max(0, elevTo-lowlandFloor)
	base := 1 + move.ElevationGainK*math.Pow(gain, move.ElevationPower)
	return base
}

// Node returns the node for a face id. Callers only pass ids sourced from
// the graph itself.
func (g *Graph) Node(id int) *Node {
	return &g.Nodes[id]
}

// MinEdgeCost returns the minimum strictly-positive step cost across the
// whole graph, used by the A* heuristic to stay admissible. A graph with no
// passable edges returns 1 (an arbitrary positive floor; no path will ever
// be found in that case regardless of heuristic scale).
func (g *Graph) MinEdgeCost() float64 {
	min := math.Inf(1)
	for _, n := range g.Nodes {
		for _, e := range n.Edges {
			if e.StepCost < min {
				min = e.StepCost
			}
		}
	}
	if math.IsInf(min, 1) {
		return 1
	}
	return min
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
