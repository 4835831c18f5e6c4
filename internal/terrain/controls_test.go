package terrain

import (
	"math"
	"testing"
)

func TestNormalizeGenerationDefaultsOnMissingFields(t *testing.T) {
	c := NormalizeGeneration(Raw{})
	if c.MeshSpacing != 24 {
		t.Fatalf("meshSpacing default = %v, want 24", c.MeshSpacing)
	}
	if c.ProvinceCount != 12 {
		t.Fatalf("provinceCount default = %v, want 12", c.ProvinceCount)
	}
	if c.Seed != 1 {
		t.Fatalf("seed default = %v, want 1", c.Seed)
	}
}

func TestNormalizeGenerationClampsOutOfRange(t *testing.T) {
	c := NormalizeGeneration(Raw{
		"meshSpacing":   1000.0,
		"provinceCount": -5.0,
		"seaLevel":      2.0,
	})
	if c.MeshSpacing != 64 {
		t.Fatalf("meshSpacing = %v, want clamped to 64", c.MeshSpacing)
	}
	if c.ProvinceCount != 4 {
		t.Fatalf("provinceCount = %v, want clamped to 4", c.ProvinceCount)
	}
	if c.SeaLevel != 1 {
		t.Fatalf("seaLevel = %v, want clamped to 1", c.SeaLevel)
	}
}

func TestNormalizeGenerationRejectsWrongType(t *testing.T) {
	c := NormalizeGeneration(Raw{"meshSpacing": "not-a-number"})
	if c.MeshSpacing != 24 {
		t.Fatalf("meshSpacing = %v, want default 24 for non-numeric input", c.MeshSpacing)
	}
}

func TestNormalizeGenerationRejectsNonFinite(t *testing.T) {
	c := NormalizeGeneration(Raw{"ridgeScale": math.Inf(1)})
	if c.RidgeScale != 1.0 {
		t.Fatalf("ridgeScale = %v, want default 1.0 for +Inf input", c.RidgeScale)
	}
}

func TestGenerationFingerprintStableUnderFieldOrder(t *testing.T) {
	a := NormalizeGeneration(Raw{"seed": 9001.0, "provinceCount": 20.0})
	b := NormalizeGeneration(Raw{"provinceCount": 20.0, "seed": 9001.0})
	if GenerationFingerprint(a) != GenerationFingerprint(b) {
		t.Fatalf("fingerprint depends on raw key insertion order")
	}
}

func TestGenerationFingerprintChangesWithAnyField(t *testing.T) {
	base := NormalizeGeneration(Raw{"seed": 1.0})
	changed := NormalizeGeneration(Raw{"seed": 1.0, "riverCount": 20.0})
	if GenerationFingerprint(base) == GenerationFingerprint(changed) {
		t.Fatalf("fingerprint did not change when riverCount changed")
	}
}

func TestRenderControlsExcludePureTogglesFromRefinementFingerprint(t *testing.T) {
	a := NormalizeRender(Raw{"showDualGraph": false, "provinceBorderWidth": 2.0})
	b := NormalizeRender(Raw{"showDualGraph": true, "provinceBorderWidth": 5.0})
	if RefinementFingerprint(a.RefinementControls) != RefinementFingerprint(b.RefinementControls) {
		t.Fatalf("refinement fingerprint changed due to a pure render toggle")
	}
}

func TestRenderControlsRefinementFingerprintChangesWithIntermediateFields(t *testing.T) {
	a := NormalizeRender(Raw{"intermediateMaxIterations": 3.0})
	b := NormalizeRender(Raw{"intermediateMaxIterations": 6.0})
	if RefinementFingerprint(a.RefinementControls) == RefinementFingerprint(b.RefinementControls) {
		t.Fatalf("refinement fingerprint did not change with intermediateMaxIterations")
	}
}

func TestNormalizeMovementEnforcesThresholdOrdering(t *testing.T) {
	m := NormalizeMovement(Raw{"lowlandThreshold": 0.9, "impassableThreshold": 0.2})
	if m.LowlandThreshold >= m.ImpassableThreshold {
		t.Fatalf("lowlandThreshold (%v) >= impassableThreshold (%v)", m.LowlandThreshold, m.ImpassableThreshold)
	}
}

func TestIntFieldRoundsHalfToEven(t *testing.T) {
	c := NormalizeGeneration(Raw{"provinceCount": 12.5})
	if c.ProvinceCount != 12 {
		t.Fatalf("provinceCount = %v, want 12 (round-half-to-even)", c.ProvinceCount)
	}
	c2 := NormalizeGeneration(Raw{"provinceCount": 13.5})
	if c2.ProvinceCount != 14 {
		t.Fatalf("provinceCount = %v, want 14 (round-half-to-even)", c2.ProvinceCount)
	}
}
