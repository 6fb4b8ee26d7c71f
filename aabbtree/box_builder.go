package aabbtree

import "github.com/achilleasa/pruner/types"

// BoxBuilder builds trees over a list of boxes. The split value of a box
// is its center.
type BoxBuilder struct {
	BaseBuilder
	Boxes []types.BBox
}

func NewBoxBuilder(boxes []types.BBox, settings BuildSettings) *BoxBuilder {
	return &BoxBuilder{
		BaseBuilder: newBaseBuilder(uint32(len(boxes)), settings),
		Boxes:       boxes,
	}
}

func (b *BoxBuilder) ComputeGlobalBox(prims []uint32) types.BBox {
	box := types.EmptyBBox()
	for _, prim := range prims {
		if prim == InvalidIndex {
			continue
		}
		box = box.Union(b.Boxes[prim])
	}
	return box
}

func (b *BoxBuilder) SplittingValue(prim uint32, axis types.Axis) float32 {
	box := &b.Boxes[prim]
	return (box.Min[axis] + box.Max[axis]) * 0.5
}

func (b *BoxBuilder) NodeSplittingValue(prims []uint32, box types.BBox, axis types.Axis) float32 {
	if !b.Settings.GeomCenter || len(prims) == 0 {
		return b.BaseBuilder.NodeSplittingValue(prims, box, axis)
	}
	var sum float32
	for _, prim := range prims {
		sum += b.SplittingValue(prim, axis)
	}
	return sum / float32(len(prims))
}
