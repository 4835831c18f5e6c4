package navgraph

import (
	"container/heap"
	"math"
)

// Path is the result contract for FindPath (4.G). If source == target,
// FacePath = [source] and TotalCost = 0. If no path exists, FacePath is
// empty and TotalCost is +Inf.
type Path struct {
	FacePath  []int
	TotalCost float64
}

// openItem is one entry in the A* open set's priority queue.
type openItem struct {
	faceID int
	f, g   float64
	index  int
}

type openQueue []*openItem

func (q openQueue) Len() int { return len(q) }
func (q openQueue) Less(i, j int) bool {
	if q[i].f != q[j].f {
		return q[i].f < q[j].f
	}
	if q[i].g != q[j].g {
		return q[i].g < q[j].g
	}
	return q[i].faceID < q[j].faceID
}
func (q openQueue) Swap(i, j int) {
	q[i], q[j] = q[j], q[i]
	q[i].index, q[j].index = i, j
}
func (q *openQueue) Push(x any) {
	item := x.(*openItem)
	item.index = len(*q)
	*q = append(*q, item)
}
func (q *openQueue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// FindPath runs A* from source to target over g. The heuristic is the
// Euclidean distance between centroids scaled down by the ratio of the
// graph's minimum edge cost to its maximum neighbor spacing, which keeps it
// admissible: no edge can be crossed for less than that scaled distance.
// Ties are broken by lower f, then lower accumulated g, then lower face id,
// making the result deterministic under equal-cost multi-paths.
func FindPath(g *Graph, source, target int) Path {
	if source == target {
		return Path{FacePath: []int{source}, TotalCost: 0}
	}

	scale := heuristicScale(g)
	targetC := g.Nodes[target].Centroid
	h := func(id int) float64 {
		c := g.Nodes[id].Centroid
		return ptDist(c.X, c.Y, targetC.X, targetC.Y) * scale
	}

	gScore := map[int]float64{source: 0}
	cameFrom := map[int]int{}
	closed := map[int]bool{}

	pq := &openQueue{}
	heap.Init(pq)
	heap.Push(pq, &openItem{faceID: source, f: h(source), g: 0})

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*openItem)
		if closed[cur.faceID] {
			continue
		}
		if cur.faceID == target {
			return Path{FacePath: reconstruct(cameFrom, source, target), TotalCost: cur.g}
		}
		closed[cur.faceID] = true

		for _, e := range g.Nodes[cur.faceID].Edges {
			if closed[e.NeighborFaceID] {
				continue
			}
			tentativeG := cur.g + e.StepCost
			if existing, ok := gScore[e.NeighborFaceID]; ok && tentativeG >= existing {
				continue
			}
			gScore[e.NeighborFaceID] = tentativeG
			cameFrom[e.NeighborFaceID] = cur.faceID
			heap.Push(pq, &openItem{faceID: e.NeighborFaceID, f: tentativeG + h(e.NeighborFaceID), g: tentativeG})
		}
	}

	return Path{FacePath: nil, TotalCost: math.Inf(1)}
}

func reconstruct(cameFrom map[int]int, source, target int) []int {
	path := []int{target}
	cur := target
	for cur != source {
		cur = cameFrom[cur]
		path = append(path, cur)
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path
}

func heuristicScale(g *Graph) float64 {
	minCost := g.MinEdgeCost()
	maxSpacing := 0.0
	for _, n := range g.Nodes {
		for _, e := range n.Edges {
			d := ptDist(n.Centroid.X, n.Centroid.Y, g.Nodes[e.NeighborFaceID].Centroid.X, g.Nodes[e.NeighborFaceID].Centroid.Y)
			if d > maxSpacing {
				maxSpacing = d
			}
		}
	}
	if maxSpacing == 0 {
		return 1
	}
	return minCost / maxSpacing
}

func ptDist(ax, ay, bx, by float64) float64 {
	dx, dy := ax-bx, ay-by
	return math.Sqrt(dx*dx + dy*dy)
}
