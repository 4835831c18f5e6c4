// Package refine implements the second-pass refinement engine (4.D) and
// its single-slot memoization cache (4.E).
package refine

import (
	"math"

	"github.com/lox/meridian/internal/rng"
	"github.com/lox/meridian/internal/terrain"
)

// Point is a 2D coordinate in refined render-space (the same coordinate
// system as terrain.Point).
type Point = terrain.Point

// Geometry is the refinement engine's output: an inserted-point mesh
// bounded by IntermediateMaxIterations passes, plus river polylines in
// refined coordinates.
type Geometry struct {
	// InsertedPoints maps each base face id to the points inserted for it
	// across all iterations run, in iteration order.
	InsertedPoints map[int][]Point
	IterationsRun  int
	Rivers         []RiverPolyline
}

// RiverPolyline is one river trace's refined-coordinate geometry.
type RiverPolyline struct {
	Points []Point
}

// Run executes the refinement engine over a terrain Result. It consumes
// two independent RNG streams: one seeded directly from
// rc.IntermediateSeed (jitter direction) and one derived from
// (generationSeed, StepRefinement) (jitter magnitude) — so that two distinct
// inputs each deterministically influence the result without either one
// alone being able to reproduce it. Equal (res, rc) always produces an
// identical Geometry.
func Run(res *terrain.Result, rc terrain.RefinementControls) *Geometry {
	dirStream := rng.FromSeed(rc.IntermediateSeed)
	magStream := rng.FromSeedStep(res.Generation.Seed, rng.StepRefinement)

	spacing := float64(res.MapWidth) / float64(res.Mesh.Cols)
	inserted := make(map[int][]Point, len(res.Mesh.Faces))

	iterationsRun := 0
	for iter := 0; iter < rc.IntermediateMaxIterations; iter++ {
		var totalDisplacement, count float64
		for _, f := range res.Mesh.Faces {
			if !f.IsLand {
				continue
			}
			mag := rc.IntermediateAbsMagnitude + rc.IntermediateRelMagnitude*magStream.Float64()*spacing
			angle := dirStream.Float64() * 2 * math.Pi
			dx, dy := mag*math.Cos(angle), mag*math.Sin(angle)
			pt := Point{X: clampCoord(f.Centroid.X+dx, res.MapWidth), Y: clampCoord(f.Centroid.Y+dy, res.MapHeight)}
			inserted[f.ID] = append(inserted[f.ID], pt)
			totalDisplacement += mag
			count++
		}
		iterationsRun++
		if count == 0 {
			break
		}
		if totalDisplacement/count < rc.IntermediateThreshold {
			break
		}
	}

	rivers := make([]RiverPolyline, 0, len(res.Rivers))
	for _, trace := range res.Rivers {
		rivers = append(rivers, refineRiver(res, trace, magStream, dirStream, spacing))
	}

	return &Geometry{InsertedPoints: inserted, IterationsRun: iterationsRun, Rivers: rivers}
}

// refineRiver inserts one midpoint between every pair of consecutive face
// centroids along a trace, jittered perpendicular to the segment, giving
// the river a smoother curve than the raw face-to-face polyline.
func refineRiver(res *terrain.Result, trace terrain.RiverTrace, magStream, dirStream *rng.Source, spacing float64) RiverPolyline {
	if len(trace.Faces) == 0 {
		return RiverPolyline{}
	}
	points := make([]Point, 0, len(trace.Faces)*2)
	prev := res.Mesh.Face(trace.Faces[0]).Centroid
	points = append(points, prev)
	for i := 1; i < len(trace.Faces); i++ {
		cur := res.Mesh.Face(trace.Faces[i]).Centroid
		mid := Point{X: (prev.X + cur.X) / 2, Y: (prev.Y + cur.Y) / 2}
		jitter := (dirStream.Float64()*2 - 1) * spacing * 0.15 * magStream.Float64()
		dx, dy := cur.X-prev.X, cur.Y-prev.Y
		length := math.Hypot(dx, dy)
		if length > 0 {
			nx, ny := -dy/length, dx/length
			mid.X += nx * jitter
			mid.Y += ny * jitter
		}
		points = append(points, mid, cur)
		prev = cur
	}
	return RiverPolyline{Points: points}
}

func clampCoord(v float64, max int) float64 {
	if v < 0 {
		return 0
	}
	if v > float64(max) {
		return float64(max)
	}
	return v
}
