package pruner

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/achilleasa/pruner/aabbtree"
	"github.com/achilleasa/pruner/types"
)

// Tick until the in-flight rebuild completes.
func runRebuild(t *testing.T, p *DynamicPruner) int {
	ticks := 0
	for {
		p.Tick()
		ticks++
		require.True(t, p.CheckMapping(), "mapping broken after %d ticks", ticks)
		if p.RebuildState() == RebuildNotStarted {
			return ticks
		}
		require.Less(t, ticks, 10000, "rebuild did not converge")
	}
}

func TestDynamicPrunerFirstBuildIsSynchronous(t *testing.T) {
	p := NewDynamicPruner(testOptions(KindDynamic))
	for i, box := range scenarioBoxes() {
		require.NoError(t, p.Add(NewObject(i), box))
	}
	require.Equal(t, 0, p.PendingObjects())
	require.Nil(t, p.Tree())

	p.Tick()
	require.NotNil(t, p.Tree())
	require.True(t, p.Tree().IsComplete())
	require.True(t, p.CheckMapping())
	require.Equal(t, RebuildNotStarted, p.RebuildState())

	// Static-path adds never request a rebuild.
	p.Tick()
	require.Equal(t, RebuildNotStarted, p.RebuildState())
}

func TestDynamicPrunerPendingObjects(t *testing.T) {
	p := NewDynamicPruner(testOptions(KindDynamic))
	for i, box := range scenarioBoxes() {
		require.NoError(t, p.Add(NewObject(i), box))
	}
	p.Tick()

	late := NewObject(3)
	require.NoError(t, p.Add(late, types.NewBBox(types.XYZ(0, 0, 10), types.XYZ(1, 1, 11))))
	require.Equal(t, 1, p.PendingObjects())
	require.True(t, p.CheckMapping())

	// Pending objects are reported before tree objects.
	var order []int
	p.Cull(nil, func(obj *Object, needsClipping bool) {
		require.False(t, needsClipping)
		order = append(order, obj.Data.(int))
	})
	require.Len(t, order, 4)
	require.Equal(t, 3, order[0])

	require.Equal(t, []int{0, 3}, stabIDs(p, types.XYZ(0.5, 0.5, -5), types.XYZ(0, 0, 1), 100))
	require.Equal(t, []int{3}, overlapIDs(p, types.NewBBox(types.XYZ(0, 0, 9), types.XYZ(2, 2, 12))))

	var sphere []int
	p.OverlapSphere(types.XYZ(0.5, 0.5, 12), 1.5, func(obj *Object) bool {
		sphere = append(sphere, obj.Data.(int))
		return true
	})
	require.Equal(t, []int{3}, sphere)

	runRebuild(t, p)
	require.Equal(t, 0, p.PendingObjects())
	require.Equal(t, uint32(7), p.Tree().NumNodes())
	require.Equal(t, 1, p.Stats().Rebuilds)
	require.Equal(t, []int{3}, overlapIDs(p, types.NewBBox(types.XYZ(0, 0, 9), types.XYZ(2, 2, 12))))
}

func TestDynamicPrunerUpdateRefitsTree(t *testing.T) {
	p := NewDynamicPruner(testOptions(KindDynamic))
	objs := make([]*Object, 3)
	for i, box := range scenarioBoxes() {
		objs[i] = NewObject(i)
		require.NoError(t, p.Add(objs[i], box))
	}
	p.Tick()

	moved := types.NewBBox(types.XYZ(20, 0, 0), types.XYZ(21, 1, 1))
	require.NoError(t, p.Update(objs[0], moved))
	p.Tick()

	require.Equal(t, types.NewBBox(types.XYZ(2, 0, 0), types.XYZ(21, 6, 6)), p.Tree().Root().BBox)
	require.Equal(t, []int{0}, overlapIDs(p, moved))
	require.Empty(t, overlapIDs(p, types.NewBBox(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1))))
	require.Equal(t, RebuildInit, p.RebuildState())

	runRebuild(t, p)
	require.Equal(t, []int{0}, overlapIDs(p, moved))
}

func TestDynamicPrunerRemoveAll(t *testing.T) {
	p := NewDynamicPruner(testOptions(KindDynamic))
	objs := make([]*Object, 3)
	for i, box := range scenarioBoxes() {
		objs[i] = NewObject(i)
		require.NoError(t, p.Add(objs[i], box))
	}
	p.Tick()

	extra := NewObject(3)
	require.NoError(t, p.Add(extra, unitBox(10)))
	p.Tick()
	require.Equal(t, RebuildInit, p.RebuildState())

	for _, obj := range append(objs, extra) {
		require.NoError(t, p.Remove(obj))
	}
	require.Equal(t, 0, p.Len())
	require.Nil(t, p.Tree())
	require.Equal(t, RebuildNotStarted, p.RebuildState())
	require.Equal(t, 0, p.PendingObjects())
	require.Equal(t, ErrObjectNotRegistered, p.Remove(extra))
	require.Equal(t, ErrObjectNotRegistered, p.Update(extra, unitBox(0)))

	// After releasing, the pruner starts over with a synchronous build.
	require.NoError(t, p.Add(extra, unitBox(10)))
	require.Equal(t, 0, p.PendingObjects())
	p.Tick()
	require.True(t, p.CheckMapping())
	require.Equal(t, []int{3}, overlapIDs(p, unitBox(10)))
}

func TestDynamicPrunerRebuildRateHint(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	p := NewDynamicPruner(testOptions(KindDynamic))
	objs := make([]*Object, 1000)
	for i := range objs {
		objs[i] = NewObject(i)
		require.NoError(t, p.Add(objs[i], randomBox(rng, 200)))
	}
	p.Tick()

	require.Equal(t, ErrInvalidRateHint, p.SetRebuildRateHint(3))

	// The previous build cost stays within the estimate tolerance so it is
	// used as the work budget.
	estimate := uint32(9 * len(objs))
	require.LessOrEqual(t, p.Tree().TotalPrimitives(), 2*estimate)
	require.GreaterOrEqual(t, p.Tree().TotalPrimitives(), estimate/2)

	// Touching an object without moving it requests a rebuild over the
	// same geometry.
	box, err := p.Box(objs[0])
	require.NoError(t, err)
	require.NoError(t, p.Update(objs[0], box))
	runRebuild(t, p)
	require.Greater(t, p.Stats().LastTicks, uint32(1))

	require.NoError(t, p.SetRebuildRateHint(4))
	require.NoError(t, p.Update(objs[0], box))
	ticks := runRebuild(t, p)
	require.Equal(t, uint32(1), p.Stats().LastTicks)
	// Setup, start, one build step and the swap.
	require.Equal(t, 4, ticks)
	require.Equal(t, int32(0), p.Stats().AdaptiveTerm)
}

func TestDynamicPrunerAdaptiveWorkEstimate(t *testing.T) {
	var r rebuilder
	r.init(DefaultOptions().Rebuild)
	r.cachedBoxes = make([]types.BBox, 1024)

	// 10 * 1024 is within 2x of the previous cost so it is trusted.
	require.Equal(t, uint32(8000), r.estimateWork(8000))

	r.adaptiveTerm = 2
	require.Equal(t, uint32(8000+2*1024), r.estimateWork(8000))

	// A previous cost far from the estimate resets the adaptive term.
	require.Equal(t, uint32(10*1024), r.estimateWork(100))
	require.Equal(t, int32(0), r.adaptiveTerm)

	r.adaptiveTerm = -20
	require.Equal(t, uint32(0), r.estimateWork(8000))

	r.nbCalls = r.rateHint + 1
	r.adjustAdaptiveTerm()
	require.Equal(t, int32(-19), r.adaptiveTerm)
	r.nbCalls = r.rateHint - 1
	r.adjustAdaptiveTerm()
	require.Equal(t, int32(-20), r.adaptiveTerm)
}

func TestDynamicPrunerSwapReplay(t *testing.T) {
	rng := rand.New(rand.NewSource(2024))
	opts := testOptions(KindDynamic)
	opts.Rebuild.RateHint = 16
	p := NewDynamicPruner(opts)
	ref := reference{}
	var live []*Object
	nextID := 0

	add := func() {
		obj := NewObject(nextID)
		nextID++
		box := randomBox(rng, 100)
		require.NoError(t, p.Add(obj, box))
		ref[obj] = box
		live = append(live, obj)
	}
	remove := func() {
		pos := rng.Intn(len(live))
		obj := live[pos]
		require.NoError(t, p.Remove(obj))
		delete(ref, obj)
		live[pos] = live[len(live)-1]
		live = live[:len(live)-1]
	}
	update := func() {
		obj := live[rng.Intn(len(live))]
		box := randomBox(rng, 100)
		require.NoError(t, p.Update(obj, box))
		ref[obj] = box
	}

	for i := 0; i < 200; i++ {
		add()
	}
	p.Tick()

	rebuildsSeen := 0
	for tick := 0; tick < 600; tick++ {
		for ops := rng.Intn(8); ops > 0; ops-- {
			switch choice := rng.Intn(3); {
			case choice == 0 || len(live) < 50:
				add()
			case choice == 1:
				remove()
			default:
				update()
			}
		}

		p.Tick()
		require.True(t, p.CheckMapping(), "tick %d", tick)
		require.Equal(t, len(ref), p.Len())

		if p.RebuildState() == RebuildNotStarted {
			rebuildsSeen = p.Stats().Rebuilds
		}

		if tick%5 == 0 {
			query := randomBox(rng, 100).Inflate(10)
			require.Equal(t, ref.overlap(query), overlapIDs(p, query), "tick %d", tick)

			planes := []types.Plane{
				types.PlaneFromPoint(types.XYZ(1, rng.Float32()-0.5, 0), query.Center()),
				types.PlaneFromPoint(types.XYZ(0, -1, rng.Float32()-0.5), query.Min),
			}
			require.Equal(t, ref.cull(planes), cullIDs(p, planes), "tick %d", tick)

			origin := types.XYZ(-5, rng.Float32()*100, rng.Float32()*100)
			dir := types.XYZ(1, rng.Float32()-0.5, rng.Float32()-0.5).Normalize()
			require.Equal(t, ref.stab(origin, dir, math.MaxFloat32), stabIDs(p, origin, dir, math.MaxFloat32), "tick %d", tick)
		}
	}
	require.Greater(t, rebuildsSeen, 1)

	// Let the pruner settle and compare against a fresh static build.
	for p.PendingObjects() > 0 || p.RebuildState() != RebuildNotStarted {
		p.Tick()
	}
	require.True(t, p.CheckMapping())

	fresh := NewStaticPruner(testOptions(KindStatic))
	for obj, box := range ref {
		require.NoError(t, fresh.Add(NewObject(obj.Data), box))
	}
	everything := types.NewBBox(types.XYZ(-100, -100, -100), types.XYZ(300, 300, 300))
	require.Equal(t, overlapIDs(fresh, everything), overlapIDs(p, everything))
	for i := 0; i < 10; i++ {
		query := randomBox(rng, 100).Inflate(8)
		require.Equal(t, overlapIDs(fresh, query), overlapIDs(p, query))
	}
}

func TestDynamicPrunerReplayRecordsOnlyDuringRebuild(t *testing.T) {
	p := NewDynamicPruner(testOptions(KindDynamic))
	objs := make([]*Object, 6)
	for i := range objs {
		objs[i] = NewObject(i)
		require.NoError(t, p.Add(objs[i], unitBox(float32(i*2))))
	}
	p.Tick()

	// No rebuild in flight: swaps are applied but not recorded.
	require.NoError(t, p.Remove(objs[1]))
	require.Empty(t, p.records)
	require.True(t, p.CheckMapping())

	p.Tick()
	require.Equal(t, RebuildInit, p.RebuildState())

	require.NoError(t, p.Remove(objs[2]))
	require.Equal(t, []swapRecord{{2, InvalidHandle}, {4, 2}}, p.records)

	runRebuild(t, p)
	require.Empty(t, p.records)
	require.Equal(t, []int{0, 3, 4, 5}, overlapIDs(p, types.NewBBox(types.XYZ(-1, -1, -1), types.XYZ(20, 2, 2))))

	// The replacement tree skips the tombstone left behind by objs[2].
	require.Equal(t, uint32(9), p.Tree().NumNodes())
	var tombstones int
	p.Tree().Walk(func(_ uint32, node *aabbtree.Node, _ int) bool {
		if node.IsLeaf() && node.Count() == 0 {
			tombstones++
		}
		return true
	})
	require.Equal(t, 1, tombstones)
}

func TestDynamicPrunerIgnoresLeafLimit(t *testing.T) {
	opts := testOptions(KindDynamic)
	opts.Build.Limit = 4
	p := NewDynamicPruner(opts)

	objs := make([]*Object, 8)
	for i := range objs {
		objs[i] = NewObject(i)
		require.NoError(t, p.Add(objs[i], unitBox(float32(i*2))))
	}
	p.Tick()
	require.True(t, p.Tree().IsComplete())
	require.True(t, p.CheckMapping())

	everything := types.NewBBox(types.XYZ(-1, -1, -1), types.XYZ(20, 2, 2))
	require.NoError(t, p.Remove(objs[1]))
	require.True(t, p.CheckMapping())
	require.Equal(t, []int{0, 2, 3, 4, 5, 6, 7}, overlapIDs(p, everything))
	require.Empty(t, overlapIDs(p, unitBox(2)))

	require.NoError(t, p.Remove(objs[6]))
	require.Equal(t, []int{0, 2, 3, 4, 5, 7}, overlapIDs(p, everything))

	runRebuild(t, p)
	require.True(t, p.Tree().IsComplete())
	require.Equal(t, []int{0, 2, 3, 4, 5, 7}, overlapIDs(p, everything))
	require.Equal(t, []int{0, 2, 3, 4, 5, 7}, cullIDs(p, nil))

	// New returns the same single-object leaf layout.
	generic, err := New(opts)
	require.NoError(t, err)
	for i := 0; i < 5; i++ {
		require.NoError(t, generic.Add(NewObject(i), unitBox(float32(i*2))))
	}
	generic.Tick()
	require.True(t, generic.(*DynamicPruner).Tree().IsComplete())
	require.True(t, generic.(*DynamicPruner).CheckMapping())
}
