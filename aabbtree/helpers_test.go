package aabbtree

import (
	"math/rand"

	"github.com/achilleasa/pruner/types"
)

func randomBoxes(rng *rand.Rand, n int, worldSize float32) []types.BBox {
	boxes := make([]types.BBox, n)
	for i := range boxes {
		min := types.XYZ(rng.Float32()*worldSize, rng.Float32()*worldSize, rng.Float32()*worldSize)
		size := types.XYZ(0.1+rng.Float32()*2, 0.1+rng.Float32()*2, 0.1+rng.Float32()*2)
		boxes[i] = types.NewBBox(min, min.Add(size))
	}
	return boxes
}

// Boxes used by the scenario tests: three unit cubes along the diagonal.
func scenarioBoxes() []types.BBox {
	return []types.BBox{
		types.NewBBox(types.XYZ(0, 0, 0), types.XYZ(1, 1, 1)),
		types.NewBBox(types.XYZ(5, 5, 5), types.XYZ(6, 6, 6)),
		types.NewBBox(types.XYZ(2, 2, 2), types.XYZ(3, 3, 3)),
	}
}

func largestAxisSettings() BuildSettings {
	settings := DefaultBuildSettings()
	settings.Rule = SplitLargestAxis
	settings.GeomCenter = false
	return settings
}

// Map each primitive to the leaf that holds it.
func leafMap(t *Tree) map[uint32]uint32 {
	out := make(map[uint32]uint32)
	t.Walk(func(idx uint32, node *Node, _ int) bool {
		if node.IsLeaf() {
			for _, prim := range t.Primitives(idx) {
				out[prim] = idx
			}
		}
		return true
	})
	return out
}

func exactUnion(boxes []types.BBox, prims []uint32) types.BBox {
	box := types.EmptyBBox()
	for _, prim := range prims {
		if prim != InvalidIndex {
			box = box.Union(boxes[prim])
		}
	}
	return box
}

func sortedCopy(in []uint32) []uint32 {
	out := append([]uint32(nil), in...)
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j] < out[j-1]; j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}
