package pruner

import (
	"math/rand"
	"sort"

	"github.com/achilleasa/pruner/aabbtree"
	"github.com/achilleasa/pruner/types"
)

func scenarioBoxes() []types.BBox {
	return []types.BBox{
		types.NewBBox(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1)),
		types.NewBBox(types.XYZ(5, 5, 5), types.XYZ(6, 6, 6)),
		types.NewBBox(types.XYZ(2, 2, 2), types.XYZ(3, 3, 3)),
	}
}

func randomBox(rng *rand.Rand, worldSize float32) types.BBox {
	min := types.XYZ(rng.Float32()*worldSize, rng.Float32()*worldSize, rng.Float32()*worldSize)
	size := types.XYZ(0.5+rng.Float32()*3, 0.5+rng.Float32()*3, 0.5+rng.Float32()*3)
	return types.NewBBox(min, min.Add(size))
}

func testOptions(kind Kind) Options {
	opts := DefaultOptions()
	opts.Name = "test"
	opts.Kind = kind
	return opts
}

// Collect the ids of objects overlapping box.
func overlapIDs(p Pruner, box types.BBox) []int {
	var ids []int
	p.OverlapBox(box, func(obj *Object) bool {
		ids = append(ids, obj.Data.(int))
		return true
	})
	sort.Ints(ids)
	return ids
}

func cullIDs(p Pruner, planes []types.Plane) []int {
	var ids []int
	p.Cull(planes, func(obj *Object, _ bool) {
		ids = append(ids, obj.Data.(int))
	})
	sort.Ints(ids)
	return ids
}

func stabIDs(p Pruner, origin, dir types.Vec3, maxDist float32) []int {
	var ids []int
	p.Stab(origin, dir, maxDist, func(obj *Object, _ *float32) aabbtree.StabStatus {
		ids = append(ids, obj.Data.(int))
		return aabbtree.StabContinue
	})
	sort.Ints(ids)
	return ids
}

// Brute force reference over a set of live objects.
type reference map[*Object]types.BBox

func (r reference) overlap(box types.BBox) []int {
	var ids []int
	for obj, objBox := range r {
		if objBox.Overlaps(box) {
			ids = append(ids, obj.Data.(int))
		}
	}
	sort.Ints(ids)
	return ids
}

func (r reference) cull(planes []types.Plane) []int {
	var ids []int
	mask := aabbtree.PlaneMask(len(planes))
	for obj, objBox := range r {
		if _, overlap := aabbtree.PlanesBoxOverlap(objBox, planes, mask); overlap {
			ids = append(ids, obj.Data.(int))
		}
	}
	sort.Ints(ids)
	return ids
}

func (r reference) stab(origin, dir types.Vec3, maxDist float32) []int {
	var ids []int
	ray := aabbtree.NewRayCollider(origin, dir, maxDist)
	for obj, objBox := range r {
		if ray.Overlaps(objBox) {
			ids = append(ids, obj.Data.(int))
		}
	}
	sort.Ints(ids)
	return ids
}
