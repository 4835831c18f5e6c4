package refine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/lox/meridian/internal/terrain"
)

func buildResult(t *testing.T, seed float64) *terrain.Result {
	t.Helper()
	res, err := terrain.Build(terrain.Raw{"seed": seed}, terrain.Raw{}, 640, 480)
	require.NoError(t, err)
	return res
}

func TestCacheHitReturnsSameObject(t *testing.T) {
	res := buildResult(t, 9001)
	render := terrain.NormalizeRender(terrain.Raw{})
	c := &Cache{}

	a := c.Resolve(res, render)
	b := c.Resolve(res, render)
	require.Same(t, a, b, "expected same object reference on repeated resolve with identical fingerprints")
}

func TestCacheInvariantUnderRenderToggles(t *testing.T) {
	res := buildResult(t, 42)
	c := &Cache{}

	r1 := terrain.NormalizeRender(terrain.Raw{"showDualGraph": false, "provinceBorderWidth": 2.0})
	first := c.Resolve(res, r1)

	r2 := terrain.NormalizeRender(terrain.Raw{"showDualGraph": true, "provinceBorderWidth": 6.0})
	second := c.Resolve(res, r2)

	require.Same(t, first, second, "cache invalidated by a pure render toggle change")
}

func TestCacheInvalidatesOnIntermediateField(t *testing.T) {
	res := buildResult(t, 1338)
	c := &Cache{}

	r1 := terrain.NormalizeRender(terrain.Raw{"intermediateMaxIterations": 3.0})
	first := c.Resolve(res, r1)

	r2 := terrain.NormalizeRender(terrain.Raw{"intermediateMaxIterations": 6.0})
	second := c.Resolve(res, r2)

	require.NotSame(t, first, second, "cache did not invalidate when intermediateMaxIterations changed")
}

func TestCacheDiffersAcrossGenerationSeeds(t *testing.T) {
	res1 := buildResult(t, 1)
	res2 := buildResult(t, 2)
	render := terrain.NormalizeRender(terrain.Raw{})

	c1 := &Cache{}
	c2 := &Cache{}
	e1 := c1.Resolve(res1, render)
	e2 := c2.Resolve(res2, render)
	require.NotEqual(t, e1.GenFingerprint, e2.GenFingerprint)
}

func TestCacheClearDropsSlot(t *testing.T) {
	res := buildResult(t, 7)
	render := terrain.NormalizeRender(terrain.Raw{})
	c := &Cache{}

	first := c.Resolve(res, render)
	c.Clear()
	second := c.Resolve(res, render)
	require.NotSame(t, first, second, "expected a fresh object after Clear, even with identical fingerprints")
}

func TestRunIsDeterministic(t *testing.T) {
	res := buildResult(t, 55)
	render := terrain.NormalizeRender(terrain.Raw{"intermediateMaxIterations": 4.0})

	a := Run(res, render.RefinementControls)
	b := Run(res, render.RefinementControls)
	require.Equal(t, a.IterationsRun, b.IterationsRun)
	require.Equal(t, len(a.Rivers), len(b.Rivers))

	for faceID, pts := range a.InsertedPoints {
		other := b.InsertedPoints[faceID]
		require.Equal(t, len(pts), len(other), "face %d inserted point count differs", faceID)
		for i := range pts {
			require.Equal(t, pts[i], other[i], "face %d point %d diverged", faceID, i)
		}
	}
}
