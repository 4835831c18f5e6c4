// Package terrain implements the deterministic terrain-generation pipeline
// (mesh, water, mountains, rivers, provinces) and control normalization
// (generation, render/refinement and movement): clamping raw client
// payloads into the validated value objects the rest of the system trusts.
package terrain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Raw is a loosely-typed bag of client-submitted control values, exactly as
// they arrive over the wire (a JSON object decoded into Go's empty-interface
// representation). Missing keys, wrong-typed values, and non-finite numbers
// are all valid inputs that Normalize must coerce to defaults.
type Raw map[string]any

// GenerationControls is the fully-populated, clamped set of fields that
// affect mesh/water/mountain/river/province generation (component C). Field
// order here is the canonical serialization order used by
// GenerationFingerprint — never reorder these without treating it as a
// breaking change to cache/determinism behavior.
type GenerationControls struct {
	Seed uint32

	MeshSpacing float64
	MeshJitter  float64

	ProvinceCount          int
	ProvinceSeedJitter     float64
	ProvinceRelaxIteration int

	RidgeScale        float64
	RidgeStrength     float64
	PlateauThreshold  float64
	PlateauFlatten    float64
	ElevationOctaves  int
	ElevationPersist  float64
	ElevationFalloff  float64
	ElevationWarp     float64
	MountainPeakCount int
	MountainPeakHeigh float64
	MountainSpread    float64
	MountainRidgeCnt  int

	SeaLevel            float64
	WaterSmoothPasses   int
	CoastNoiseScale     float64
	CoastNoiseStrength  float64
	LakeThreshold       float64
	WaterEdgeBias       float64

	RiverCount           int
	RiverMinLength       int
	RiverMeander         float64
	RiverWidth           float64
	RiverSourceElevation float64
	RiverBranchChance    float64
	RiverDeltaSpread     float64
}

// RefinementControls is exactly the five fields the refinement fingerprint
// covers (§4.B). They also appear inside RenderControls, since they arrive
// bundled with the rendering toggles on the wire.
type RefinementControls struct {
	IntermediateSeed          uint32
	IntermediateMaxIterations int
	IntermediateThreshold     float64
	IntermediateRelMagnitude  float64
	IntermediateAbsMagnitude  float64
}

// RenderControls bundles pure rendering toggles with the refinement fields.
// Only the embedded RefinementControls affect the refinement fingerprint;
// ShowDualGraph, ShowOverlay, ProvinceBorderWidth and CameraFOV are excluded
// from both fingerprints entirely.
type RenderControls struct {
	RefinementControls

	ShowDualGraph       bool
	ShowOverlay         bool
	ProvinceBorderWidth float64
	CameraFOV           float64
}

// Movement holds the navigation-graph cost-model knobs (§4.F).
type Movement struct {
	TimePerFaceSeconds   float64
	LowlandThreshold     float64
	ImpassableThreshold  float64
	ElevationPower       float64
	ElevationGainK       float64
	RiverPenalty         float64
}

// clampRange describes a field's numeric bounds for Normalize and for
// documentation; it is not exported because it is only consulted by the
// coercion helpers below.
type clampRange struct{ lo, hi float64 }

// numField coerces raw[key] to a float64, defaulting on missing/non-finite/
// wrong-typed input, then clamps into [lo, hi].
func numField(raw Raw, key string, def float64, rng clampRange) float64 {
	v, ok := raw[key]
	if !ok {
		return clampF(def, rng)
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return clampF(def, rng)
	}
	return clampF(f, rng)
}

// intField behaves like numField but rounds half-to-even to the nearest
// integer before clamping, per §4.B's documented rounding rule.
func intField(raw Raw, key string, def int, rng clampRange) int {
	v, ok := raw[key]
	if !ok {
		return int(clampF(float64(def), rng))
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return int(clampF(float64(def), rng))
	}
	return int(clampF(math.RoundToEven(f), rng))
}

// uint32Field coerces a seed-like field: any finite number becomes its
// truncated, wrapped uint32 representation; missing/invalid falls back to
// def untouched (seeds are not range-clamped, only type-coerced).
func uint32Field(raw Raw, key string, def uint32) uint32 {
	v, ok := raw[key]
	if !ok {
		return def
	}
	f, ok := toFloat(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return def
	}
	return uint32(int64(f))
}

// boolField coerces via truthiness only when the value is explicitly a
// bool; any other type (including "truthy" strings/numbers) falls back to
// the default, per §4.B.
func boolField(raw Raw, key string, def bool) bool {
	v, ok := raw[key]
	if !ok {
		return def
	}
	b, ok := v.(bool)
	if !ok {
		return def
	}
	return b
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint32:
		return float64(n), true
	default:
		return 0, false
	}
}

func clampF(v float64, rng clampRange) float64 {
	if v < rng.lo {
		return rng.lo
	}
	if v > rng.hi {
		return rng.hi
	}
	return v
}

// NormalizeGeneration clamps/coerces raw into a fully populated
// GenerationControls.
func NormalizeGeneration(raw Raw) GenerationControls {
	return GenerationControls{
		Seed: uint32Field(raw, "seed", 1),

		MeshSpacing: numField(raw, "meshSpacing", 24, clampRange{8, 64}),
		MeshJitter:  numField(raw, "meshJitter", 0.35, clampRange{0, 1}),

		ProvinceCount:          intField(raw, "provinceCount", 12, clampRange{4, 64}),
		ProvinceSeedJitter:     numField(raw, "provinceSeedJitter", 0.5, clampRange{0, 1}),
		ProvinceRelaxIteration: intField(raw, "provinceRelaxIterations", 2, clampRange{0, 5}),

		RidgeScale:        numField(raw, "ridgeScale", 1.0, clampRange{0.2, 4}),
		RidgeStrength:     numField(raw, "ridgeStrength", 0.8, clampRange{0, 2}),
		PlateauThreshold:  numField(raw, "plateauThreshold", 0.6, clampRange{0, 1}),
		PlateauFlatten:    numField(raw, "plateauFlatten", 0.4, clampRange{0, 1}),
		ElevationOctaves:  intField(raw, "elevationOctaves", 4, clampRange{1, 6}),
		ElevationPersist:  numField(raw, "elevationPersistence", 0.5, clampRange{0, 1}),
		ElevationFalloff:  numField(raw, "elevationFalloff", 1.2, clampRange{0, 3}),
		ElevationWarp:     numField(raw, "elevationWarp", 0.15, clampRange{0, 1}),
		MountainPeakCount: intField(raw, "mountainPeakCount", 5, clampRange{0, 12}),
		MountainPeakHeigh: numField(raw, "mountainPeakHeight", 0.9, clampRange{0, 1}),
		MountainSpread:    numField(raw, "mountainSpread", 0.3, clampRange{0.05, 1}),
		MountainRidgeCnt:  intField(raw, "mountainRidgeCount", 3, clampRange{0, 8}),

		SeaLevel:           numField(raw, "seaLevel", 0.4, clampRange{0, 1}),
		WaterSmoothPasses:  intField(raw, "waterSmoothingPasses", 2, clampRange{0, 5}),
		CoastNoiseScale:    numField(raw, "coastNoiseScale", 1.0, clampRange{0.1, 3}),
		CoastNoiseStrength: numField(raw, "coastNoiseStrength", 0.25, clampRange{0, 1}),
		LakeThreshold:      numField(raw, "lakeThreshold", 0.15, clampRange{0, 1}),
		WaterEdgeBias:      numField(raw, "waterEdgeBias", 0.1, clampRange{0, 1}),

		RiverCount:           intField(raw, "riverCount", 6, clampRange{0, 24}),
		RiverMinLength:       intField(raw, "riverMinLength", 6, clampRange{2, 64}),
		RiverMeander:         numField(raw, "riverMeander", 0.3, clampRange{0, 1}),
		RiverWidth:           numField(raw, "riverWidth", 1.5, clampRange{0.5, 6}),
		RiverSourceElevation: numField(raw, "riverSourceElevation", 0.65, clampRange{0, 1}),
		RiverBranchChance:    numField(raw, "riverBranchChance", 0.15, clampRange{0, 1}),
		RiverDeltaSpread:     numField(raw, "riverDeltaSpread", 0.2, clampRange{0, 1}),
	}
}

// NormalizeRender clamps/coerces the rendering + refinement payload.
func NormalizeRender(raw Raw) RenderControls {
	return RenderControls{
		RefinementControls: RefinementControls{
			IntermediateSeed:          uint32Field(raw, "intermediateSeed", 1),
			IntermediateMaxIterations: intField(raw, "intermediateMaxIterations", 3, clampRange{1, 8}),
			IntermediateThreshold:     numField(raw, "intermediateThreshold", 0.02, clampRange{0, 1}),
			IntermediateRelMagnitude:  numField(raw, "intermediateRelMagnitude", 0.1, clampRange{0, 1}),
			IntermediateAbsMagnitude:  numField(raw, "intermediateAbsMagnitude", 0.5, clampRange{0, 10}),
		},
		ShowDualGraph:       boolField(raw, "showDualGraph", false),
		ShowOverlay:         boolField(raw, "showOverlay", false),
		ProvinceBorderWidth: numField(raw, "provinceBorderWidth", 2, clampRange{0.5, 8}),
		CameraFOV:           numField(raw, "cameraFOV", 60, clampRange{30, 120}),
	}
}

// NormalizeMovement clamps/coerces the actor-movement cost-model payload.
// The precondition lowlandThreshold < impassableThreshold is enforced here
// by nudging lowlandThreshold down when normalization would otherwise
// violate it, guaranteeing §4.F's precondition holds for every normalized
// Movement value.
func NormalizeMovement(raw Raw) Movement {
	m := Movement{
		TimePerFaceSeconds:  numField(raw, "timePerFaceSeconds", 0.6, clampRange{0.05, 5}),
		LowlandThreshold:    numField(raw, "lowlandThreshold", 0.35, clampRange{0, 1}),
		ImpassableThreshold: numField(raw, "impassableThreshold", 0.85, clampRange{0, 1}),
		ElevationPower:      numField(raw, "elevationPower", 1.6, clampRange{0.5, 4}),
		ElevationGainK:      numField(raw, "elevationGainK", 2.0, clampRange{0, 10}),
		RiverPenalty:        numField(raw, "riverPenalty", 1.5, clampRange{0, 10}),
	}
	if m.LowlandThreshold >= m.ImpassableThreshold {
		m.LowlandThreshold = m.ImpassableThreshold / 2
	}
	return m
}

// GenerationFingerprint returns a canonical string that is equal for two
// GenerationControls values iff every field is bitwise-equal.
func GenerationFingerprint(c GenerationControls) string {
	var b strings.Builder
	fmt.Fprintf(&b, "seed=%d", c.Seed)
	fmt.Fprintf(&b, "|meshSpacing=%s|meshJitter=%s", f64(c.MeshSpacing), f64(c.MeshJitter))
	fmt.Fprintf(&b, "|provinceCount=%d|provinceSeedJitter=%s|provinceRelax=%d",
		c.ProvinceCount, f64(c.ProvinceSeedJitter), c.ProvinceRelaxIteration)
	fmt.Fprintf(&b, "|ridgeScale=%s|ridgeStrength=%s|plateauThreshold=%s|plateauFlatten=%s",
		f64(c.RidgeScale), f64(c.RidgeStrength), f64(c.PlateauThreshold), f64(c.PlateauFlatten))
	fmt.Fprintf(&b, "|elevOctaves=%d|elevPersist=%s|elevFalloff=%s|elevWarp=%s",
		c.ElevationOctaves, f64(c.ElevationPersist), f64(c.ElevationFalloff), f64(c.ElevationWarp))
	fmt.Fprintf(&b, "|mtnPeakCount=%d|mtnPeakHeight=%s|mtnSpread=%s|mtnRidgeCnt=%d",
		c.MountainPeakCount, f64(c.MountainPeakHeigh), f64(c.MountainSpread), c.MountainRidgeCnt)
	fmt.Fprintf(&b, "|seaLevel=%s|waterSmoothPasses=%d|coastNoiseScale=%s|coastNoiseStrength=%s|lakeThreshold=%s|waterEdgeBias=%s",
		f64(c.SeaLevel), c.WaterSmoothPasses, f64(c.CoastNoiseScale), f64(c.CoastNoiseStrength), f64(c.LakeThreshold), f64(c.WaterEdgeBias))
	fmt.Fprintf(&b, "|riverCount=%d|riverMinLen=%d|riverMeander=%s|riverWidth=%s|riverSrcElev=%s|riverBranch=%s|riverDelta=%s",
		c.RiverCount, c.RiverMinLength, f64(c.RiverMeander), f64(c.RiverWidth), f64(c.RiverSourceElevation), f64(c.RiverBranchChance), f64(c.RiverDeltaSpread))
	return b.String()
}

// RefinementFingerprint returns a canonical string over exactly the five
// intermediate-refinement fields.
func RefinementFingerprint(r RefinementControls) string {
	return fmt.Sprintf("intSeed=%d|intMaxIter=%d|intThreshold=%s|intRelMag=%s|intAbsMag=%s",
		r.IntermediateSeed, r.IntermediateMaxIterations,
		f64(r.IntermediateThreshold), f64(r.IntermediateRelMagnitude), f64(r.IntermediateAbsMagnitude))
}

// f64 renders a float64 with full precision so that bitwise-distinct values
// never collide in the serialized fingerprint.
func f64(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
