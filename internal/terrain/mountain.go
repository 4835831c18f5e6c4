package terrain

import (
	"math"

	"github.com/lox/meridian/internal/rng"
	"gonum.org/v1/gonum/stat/distuv"
)

// elevateMountains assigns Elevation on every land face of m, consuming the
// StepMountain RNG substream. Peaks are placed on random land faces and
// contribute a Gaussian falloff; a Normal-distributed jitter (ElevationWarp)
// perturbs the result so ridgelines aren't perfectly radial. Water faces are
// left at elevation 0.
func elevateMountains(m *Mesh, c GenerationControls) {
	src := rng.FromSeedStep(c.Seed, rng.StepMountain)
	warp := distuv.Normal{Mu: 0, Sigma: 1, Src: rng.AsInt63Source(src)}

	landIDs := make([]int, 0, len(m.Faces))
	for _, f := range m.Faces {
		if f.IsLand {
			landIDs = append(landIDs, f.ID)
		}
	}
	if len(landIDs) == 0 {
		return
	}

	type peak struct {
		at     Point
		height float64
		spread float64
	}
	peaks := make([]peak, 0, c.MountainPeakCount+c.MountainRidgeCnt)
	for i := 0; i < c.MountainPeakCount; i++ {
		id := landIDs[src.IntN(uint32(len(landIDs)))]
		peaks = append(peaks, peak{
			at:     m.Faces[id].Centroid,
			height: c.MountainPeakHeigh * (0.7 + 0.3*src.Float64()),
			spread: c.MountainSpread * averageSpacing(m),
		})
	}
	// Ridges are chains of two to four linked peaks with a shared height
	// budget, producing elongated highlands instead of isolated cones.
	for i := 0; i < c.MountainRidgeCnt; i++ {
		origin := m.Faces[landIDs[src.IntN(uint32(len(landIDs)))]].Centroid
		segments := 2 + int(src.IntN(3))
		height := c.MountainPeakHeigh * c.RidgeStrength * (0.6 + 0.4*src.Float64())
		cursor := origin
		for s := 0; s < segments; s++ {
			peaks = append(peaks, peak{at: cursor, height: height, spread: c.MountainSpread * c.RidgeScale * averageSpacing(m)})
			angle := src.Float64() * 2 * math.Pi
			step := averageSpacing(m) * 1.5
			cursor = Point{X: cursor.X + math.Cos(angle)*step, Y: cursor.Y + math.Sin(angle)*step}
		}
	}

	for i := range m.Faces {
		f := &m.Faces[i]
		if !f.IsLand {
			f.Elevation = 0
			continue
		}
		var e float64
		for _, p := range peaks {
			d := dist(f.Centroid, p.at)
			e += p.height * math.Exp(-(d*d)/(2*p.spread*p.spread))
		}
		e += warp.Rand() * c.ElevationWarp * 0.1
		f.Elevation = clamp(applyPlateau(e, c), 0, 1)
	}
}

// applyPlateau flattens elevation toward PlateauThreshold above that
// threshold, producing broad highland tables instead of sharp single peaks
// when PlateauFlatten is large.
func applyPlateau(e float64, c GenerationControls) float64 {
	if e <= c.PlateauThreshold {
		return e
	}
	return e*(1-c.PlateauFlatten) + c.PlateauThreshold*c.PlateauFlatten
}

func averageSpacing(m *Mesh) float64 {
	return float64(m.MapWidth) / float64(m.Cols)
}
