package cmd

import (
	"context"
	"math/rand"
	"testing"

	"github.com/chewxy/math32"
	"github.com/stretchr/testify/require"

	"github.com/achilleasa/pruner/pruner"
	"github.com/achilleasa/pruner/types"
)

func TestRayEntry(t *testing.T) {
	type spec struct {
		origin, dir types.Vec3
		hit         bool
		entry       float32
	}

	box := types.NewBBox(types.XYZ(2, 2, 2), types.XYZ(3, 3, 3))
	specs := []spec{
		{types.XYZ(0, 2.5, 2.5), types.XYZ(1, 0, 0), true, 2},
		{types.XYZ(2.5, 2.5, 2.5), types.XYZ(0, 1, 0), true, 0},
		{types.XYZ(0, 0, 2.5), types.XYZ(1, 1, 0).Normalize(), true, 2 * math32.Sqrt(2)},
		{types.XYZ(0, 2.5, 2.5), types.XYZ(-1, 0, 0), false, 0},
		{types.XYZ(0, 0, 0), types.XYZ(1, 0, 0), false, 0},
	}

	for specIndex, s := range specs {
		entry, hit := rayEntry(s.origin, s.dir, box)
		if hit != s.hit {
			t.Fatalf("[spec %d] expected hit to be %t", specIndex, s.hit)
		}
		if hit && math32.Abs(entry-s.entry) > 1e-4 {
			t.Fatalf("[spec %d] expected entry distance %f; got %f", specIndex, s.entry, entry)
		}
	}
}

func TestStabRayReportsClosestHit(t *testing.T) {
	p := pruner.NewStaticPruner(pruner.DefaultOptions())
	boxes := []types.BBox{
		types.NewBBox(types.XYZ(10, 0, 0), types.XYZ(11, 1, 1)),
		types.NewBBox(types.XYZ(4, 0, 0), types.XYZ(5, 1, 1)),
		types.NewBBox(types.XYZ(20, 0, 0), types.XYZ(21, 1, 1)),
		types.NewBBox(types.XYZ(4, 5, 0), types.XYZ(5, 6, 1)),
	}
	for _, box := range boxes {
		require.NoError(t, p.Add(pruner.NewObject(box), box))
	}

	origin, dir := types.XYZ(0, 0.5, 0.5), types.XYZ(1, 0, 0)
	hits, closest := stabRay(p, origin, dir, math32.MaxFloat32, false)
	require.Equal(t, 3, hits)
	require.Equal(t, float32(4), closest)

	hits, closest = stabRay(p, origin, dir, 15, false)
	require.Equal(t, 2, hits)
	require.Equal(t, float32(4), closest)

	// Segments visit the nearest box first so shrinking skips the rest.
	hits, closest = stabRay(p, origin, dir, 100, true)
	require.Equal(t, 1, hits)
	require.Equal(t, float32(4), closest)
}

func TestSimulateScene(t *testing.T) {
	opts := pruner.DefaultOptions()
	opts.Name = "sim-test"
	settings := SceneSettings{
		Objects:  300,
		Ticks:    400,
		Churn:    6,
		World:    200,
		Seed:     3,
		RateHint: 12,
	}

	report, err := SimulateScene(context.Background(), opts, settings)
	require.NoError(t, err)
	require.Equal(t, "sim-test", report.Name)
	require.Equal(t, report.Adds-report.Removes, report.Objects)
	require.Greater(t, report.Rebuilds, 0)
	require.Zero(t, report.Abandoned)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = SimulateScene(ctx, opts, settings)
	require.Equal(t, context.Canceled, err)

	settings.RateHint = 2
	_, err = SimulateScene(context.Background(), opts, settings)
	require.Equal(t, pruner.ErrInvalidRateHint, err)
}

func TestCameraPlanesContainTarget(t *testing.T) {
	cam := Camera{FovY: 60, Aspect: 1, Near: 1, Far: 100}
	cam.Eye[2] = -10

	planes := cam.Planes()
	require.Len(t, planes, 6)
	for _, plane := range planes {
		require.Less(t, plane.Distance(types.XYZ(0, 0, 0)), float32(0))
	}

	// Behind the camera and beyond the far plane.
	require.Greater(t, planes[4].Distance(types.XYZ(0, 0, -20)), float32(0))
	require.Greater(t, planes[5].Distance(types.XYZ(0, 0, 200)), float32(0))
	for _, v := range randomVertices(rand.New(rand.NewSource(1)), 10, 1) {
		for _, plane := range planes {
			require.Less(t, plane.Distance(v), float32(0))
		}
	}
}
