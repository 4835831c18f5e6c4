package terrain

import (
	"math"

	"github.com/lox/meridian/internal/rng"
)

// Point is a 2D coordinate in map-pixel space.
type Point struct {
	X, Y float64
}

// Face is one cell of the dual mesh: the unit of actor position and
// movement (GLOSSARY). Faces never move or get renumbered once built;
// later pipeline stages only mutate the fields documented on them.
type Face struct {
	ID         int
	Centroid   Point
	Neighbors  []int // face ids sharing an edge with this face
	Row, Col   int
	IsLand     bool
	OceanWater bool
	Elevation  float64
	ProvinceID int // assigned by province.go; -1 until then
}

// EdgeKey canonically orders a pair of adjacent face ids so it can key a
// map regardless of which side the lookup starts from.
type EdgeKey struct {
	A, B int
}

func edgeKey(a, b int) EdgeKey {
	if a > b {
		a, b = b, a
	}
	return EdgeKey{a, b}
}

// Mesh is the dual mesh built by buildMesh: a regular grid of faces with
// jittered centroids, standing in for a true Voronoi/Delaunay construction
// (an explicitly out-of-scope external collaborator per the system's
// purpose-and-scope contract — no such geometry library exists anywhere in
// this codebase's dependency set, so the grid is built from scratch here).
type Mesh struct {
	MapWidth, MapHeight int
	Cols, Rows          int
	Faces               []Face
	RiverEdges          map[EdgeKey]bool
}

// Face returns the face with the given id. Callers only ever pass ids
// sourced from the mesh itself, so an out-of-range id is a programmer
// error, not a runtime condition to recover from.
func (m *Mesh) Face(id int) *Face {
	return &m.Faces[id]
}

// buildMesh constructs the grid dual-mesh for the given map dimensions and
// generation controls, consuming the StepMesh RNG substream for centroid
// jitter. Face ids are row-major (id = row*cols + col) and stable across
// runs with equal inputs, satisfying 4.C's "same face ids" determinism
// requirement.
func buildMesh(mapWidth, mapHeight int, c GenerationControls) *Mesh {
	spacing := c.MeshSpacing
	cols := int(math.Max(1, math.Round(float64(mapWidth)/spacing)))
	rows := int(math.Max(1, math.Round(float64(mapHeight)/spacing)))

	cellW := float64(mapWidth) / float64(cols)
	cellH := float64(mapHeight) / float64(rows)

	src := rng.FromSeedStep(c.Seed, rng.StepMesh)
	jitter := c.MeshJitter

	faces := make([]Face, 0, cols*rows)
	for row := 0; row < rows; row++ {
		for col := 0; col < cols; col++ {
			cx := (float64(col) + 0.5) * cellW
			cy := (float64(row) + 0.5) * cellH
			jx := (src.Float64()*2 - 1) * jitter * cellW * 0.5
			jy := (src.Float64()*2 - 1) * jitter * cellH * 0.5
			faces = append(faces, Face{
				ID:         row*cols + col,
				Centroid:   Point{X: clamp(cx+jx, 0, float64(mapWidth)), Y: clamp(cy+jy, 0, float64(mapHeight))},
				Row:        row,
				Col:        col,
				ProvinceID: -1,
			})
		}
	}

	mesh := &Mesh{
		MapWidth: mapWidth, MapHeight: mapHeight,
		Cols: cols, Rows: rows,
		Faces:      faces,
		RiverEdges: make(map[EdgeKey]bool),
	}
	mesh.linkNeighbors()
	return mesh
}

// linkNeighbors wires 4-connected grid adjacency (N/S/E/W). This is the
// dual-mesh "shared edge" relationship 4.F's navigation-graph builder
// enumerates.
func (m *Mesh) linkNeighbors() {
	at := func(row, col int) (int, bool) {
		if row < 0 || row >= m.Rows || col < 0 || col >= m.Cols {
			return 0, false
		}
		return row*m.Cols + col, true
	}
	for i := range m.Faces {
		f := &m.Faces[i]
		deltas := [4][2]int{{-1, 0}, {1, 0}, {0, -1}, {0, 1}}
		for _, d := range deltas {
			if id, ok := at(f.Row+d[0], f.Col+d[1]); ok {
				f.Neighbors = append(f.Neighbors, id)
			}
		}
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func dist(a, b Point) float64 {
	dx, dy := a.X-b.X, a.Y-b.Y
	return math.Sqrt(dx*dx + dy*dy)
}
