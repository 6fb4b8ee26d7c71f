package pruner

import (
	"math"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/achilleasa/pruner/aabbtree"
	"github.com/achilleasa/pruner/types"
)

func TestNewPruner(t *testing.T) {
	p, err := New(testOptions(KindStatic))
	require.NoError(t, err)
	require.IsType(t, &StaticPruner{}, p)
	require.Equal(t, "test", p.Name())

	p, err = New(Options{})
	require.NoError(t, err)
	require.IsType(t, &DynamicPruner{}, p)
	require.Equal(t, "default", p.Name())

	_, err = New(Options{Kind: "octree"})
	require.Equal(t, ErrUnknownKind, err)
}

func TestStaticPrunerScenario(t *testing.T) {
	opts := testOptions(KindStatic)
	opts.Build.Rule = aabbtree.SplitLargestAxis
	opts.Build.GeomCenter = false
	p := NewStaticPruner(opts)

	for i, box := range scenarioBoxes() {
		require.NoError(t, p.Add(NewObject(i), box))
	}
	require.Nil(t, p.Tree())

	p.Tick()
	require.NotNil(t, p.Tree())
	require.Equal(t, uint32(5), p.Tree().NumNodes())
	require.Equal(t, types.NewBBox(types.XYZ(0, 0, 0), types.XYZ(6, 6, 6)), p.Tree().Root().BBox)

	var visible []int
	p.Cull([]types.Plane{{Normal: types.XYZ(1, 0, 0), D: -4}}, func(obj *Object, needsClipping bool) {
		require.False(t, needsClipping)
		visible = append(visible, obj.Data.(int))
	})
	require.ElementsMatch(t, []int{0, 2}, visible)

	// Closest hit along the diagonal reports near to far and stops early
	// once the visitor shrinks the distance.
	var order []int
	dir := types.XYZ(1, 1, 1).Normalize()
	p.Stab(types.XYZ(-1, -1, -1), dir, 100, func(obj *Object, maxDist *float32) aabbtree.StabStatus {
		order = append(order, obj.Data.(int))
		if obj.Data.(int) == 2 {
			*maxDist = 7
			return aabbtree.StabUpdateMaxDist
		}
		return aabbtree.StabContinue
	})
	require.Equal(t, []int{0, 2}, order)

	require.Equal(t, []int{0, 1, 2}, stabIDs(p, types.XYZ(-1, -1, -1), dir, math.MaxFloat32))
	require.Equal(t, []int{0}, stabIDs(p, types.XYZ(-1, 0.5, 0.5), types.XYZ(1, 0, 0), math.MaxFloat32))

	stops := 0
	p.Stab(types.XYZ(-1, -1, -1), dir, math.MaxFloat32, func(*Object, *float32) aabbtree.StabStatus {
		stops++
		return aabbtree.StabStop
	})
	require.Equal(t, 1, stops)
}

func TestStaticPrunerMutationsDiscardTree(t *testing.T) {
	p := NewStaticPruner(testOptions(KindStatic))
	objs := make([]*Object, 3)
	for i, box := range scenarioBoxes() {
		objs[i] = NewObject(i)
		require.NoError(t, p.Add(objs[i], box))
	}

	require.Equal(t, []int{1}, overlapIDs(p, types.NewBBox(types.XYZ(4, 4, 4), types.XYZ(7, 7, 7))))
	require.NotNil(t, p.Tree())

	require.NoError(t, p.Update(objs[0], types.NewBBox(types.XYZ(4, 4, 4), types.XYZ(4.5, 4.5, 4.5))))
	require.Nil(t, p.Tree())
	require.Equal(t, []int{0, 1}, overlapIDs(p, types.NewBBox(types.XYZ(4, 4, 4), types.XYZ(7, 7, 7))))

	require.NoError(t, p.Remove(objs[1]))
	require.Nil(t, p.Tree())
	require.Equal(t, []int{0}, overlapIDs(p, types.NewBBox(types.XYZ(4, 4, 4), types.XYZ(7, 7, 7))))

	box, err := p.Box(objs[0])
	require.NoError(t, err)
	require.Equal(t, types.XYZ(4, 4, 4), box.Min)

	require.Equal(t, ErrObjectNotRegistered, p.Remove(objs[1]))
	require.Equal(t, ErrObjectNotRegistered, p.Update(objs[1], unitBox(0)))
	require.Equal(t, ErrObjectRegistered, p.Add(objs[0], unitBox(0)))
	_, err = p.Box(objs[1])
	require.Equal(t, ErrObjectNotRegistered, err)

	visited := 0
	p.Visit(func(*Object, types.BBox) bool {
		visited++
		return true
	})
	require.Equal(t, 2, visited)

	p.Release()
	require.Equal(t, 0, p.Len())
	require.False(t, objs[0].Registered())
	require.Empty(t, overlapIDs(p, types.NewBBox(types.XYZ(-100, -100, -100), types.XYZ(100, 100, 100))))
}

func TestStaticPrunerMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(77))
	ref := reference{}

	for _, limit := range []uint32{1, 4} {
		opts := testOptions(KindStatic)
		opts.Build.Limit = limit
		p := NewStaticPruner(opts)
		for i := 0; i < 300; i++ {
			obj := NewObject(i)
			box := randomBox(rng, 100)
			ref[obj] = box
			require.NoError(t, p.Add(obj, box))
		}

		for round := 0; round < 20; round++ {
			query := randomBox(rng, 100).Inflate(5)
			if limit == 1 {
				require.Equal(t, ref.overlap(query), overlapIDs(p, query))
			} else {
				require.Subset(t, overlapIDs(p, query), ref.overlap(query))
			}

			planes := []types.Plane{
				types.PlaneFromPoint(types.XYZ(rng.Float32()-0.5, rng.Float32()-0.5, rng.Float32()-0.5), query.Center()),
			}
			if limit == 1 {
				require.Equal(t, ref.cull(planes), cullIDs(p, planes))
			} else {
				require.Subset(t, cullIDs(p, planes), ref.cull(planes))
			}

			origin := types.XYZ(-10, rng.Float32()*100, rng.Float32()*100)
			dir := types.XYZ(1, rng.Float32()-0.5, rng.Float32()-0.5).Normalize()
			if limit == 1 {
				require.Equal(t, ref.stab(origin, dir, math.MaxFloat32), stabIDs(p, origin, dir, math.MaxFloat32))
				require.Equal(t, ref.stab(origin, dir, 60), stabIDs(p, origin, dir, 60))

				center := query.Center()
				var sphere []int
				p.OverlapSphere(center, 10, func(obj *Object) bool {
					sphere = append(sphere, obj.Data.(int))
					return true
				})
				var exp []int
				for obj, box := range ref {
					if box.SqDistance(center) <= 100 {
						exp = append(exp, obj.Data.(int))
					}
				}
				require.ElementsMatch(t, exp, sphere)
			}
		}
		p.Release()
		ref = reference{}
	}
}
