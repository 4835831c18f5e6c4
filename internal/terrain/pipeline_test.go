package terrain

import "testing"

func buildTwice(t *testing.T, seed float64) (*Result, *Result) {
	t.Helper()
	raw := Raw{"seed": seed, "provinceCount": 6.0, "riverCount": 3.0}
	a, err := Build(raw, Raw{}, 800, 600)
	if err != nil {
		t.Fatalf("build a: %v", err)
	}
	b, err := Build(raw, Raw{}, 800, 600)
	if err != nil {
		t.Fatalf("build b: %v", err)
	}
	return a, b
}

func TestBuildIsDeterministic(t *testing.T) {
	a, b := buildTwice(t, 9001)
	if len(a.Mesh.Faces) != len(b.Mesh.Faces) {
		t.Fatalf("face count differs: %d vs %d", len(a.Mesh.Faces), len(b.Mesh.Faces))
	}
	for i := range a.Mesh.Faces {
		fa, fb := a.Mesh.Faces[i], b.Mesh.Faces[i]
		if fa.ID != fb.ID || fa.IsLand != fb.IsLand || fa.Elevation != fb.Elevation {
			t.Fatalf("face %d diverged: %+v vs %+v", i, fa, fb)
		}
		if fa.Centroid != fb.Centroid {
			t.Fatalf("face %d centroid diverged", i)
		}
	}
	if len(a.Rivers) != len(b.Rivers) {
		t.Fatalf("river trace count differs: %d vs %d", len(a.Rivers), len(b.Rivers))
	}
	if len(a.Provinces) != len(b.Provinces) {
		t.Fatalf("province count differs: %d vs %d", len(a.Provinces), len(b.Provinces))
	}
}

func TestBuildRejectsOutOfRangeDimensions(t *testing.T) {
	if _, err := Build(Raw{}, Raw{}, 100, 600); err == nil {
		t.Fatalf("expected error for mapWidth below minimum")
	}
	if _, err := Build(Raw{}, Raw{}, 800, 5000); err == nil {
		t.Fatalf("expected error for mapHeight above maximum")
	}
}

func TestBuildDifferentSeedsDivergeSomewhere(t *testing.T) {
	raw1 := Raw{"seed": 1.0}
	raw2 := Raw{"seed": 2.0}
	a, err := Build(raw1, Raw{}, 800, 600)
	if err != nil {
		t.Fatal(err)
	}
	b, err := Build(raw2, Raw{}, 800, 600)
	if err != nil {
		t.Fatal(err)
	}
	diverged := false
	for i := range a.Mesh.Faces {
		if a.Mesh.Faces[i].Elevation != b.Mesh.Faces[i].Elevation {
			diverged = true
			break
		}
	}
	if !diverged {
		t.Fatalf("expected elevations to differ between seed 1 and seed 2")
	}
}

func TestProvinceFacesCoverAllLand(t *testing.T) {
	r, err := Build(Raw{"seed": 42.0, "provinceCount": 8.0}, Raw{}, 800, 600)
	if err != nil {
		t.Fatal(err)
	}
	covered := make(map[int]bool)
	for _, p := range r.Provinces {
		for _, id := range p.FaceIDs {
			covered[id] = true
		}
	}
	for _, f := range r.Mesh.Faces {
		if f.IsLand && !covered[f.ID] {
			t.Fatalf("land face %d not assigned to any province", f.ID)
		}
	}
}
