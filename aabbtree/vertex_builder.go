package aabbtree

import "github.com/achilleasa/pruner/types"

// VertexBuilder builds trees over a point cloud.
type VertexBuilder struct {
	BaseBuilder
	Vertices []types.Vec3
}

func NewVertexBuilder(vertices []types.Vec3, settings BuildSettings) *VertexBuilder {
	return &VertexBuilder{
		BaseBuilder: newBaseBuilder(uint32(len(vertices)), settings),
		Vertices:    vertices,
	}
}

func (b *VertexBuilder) ComputeGlobalBox(prims []uint32) types.BBox {
	box := types.EmptyBBox()
	for _, prim := range prims {
		if prim == InvalidIndex {
			continue
		}
		box = box.IncludePoint(b.Vertices[prim])
	}
	return box
}

func (b *VertexBuilder) SplittingValue(prim uint32, axis types.Axis) float32 {
	return b.Vertices[prim][axis]
}

func (b *VertexBuilder) NodeSplittingValue(prims []uint32, box types.BBox, axis types.Axis) float32 {
	if !b.Settings.GeomCenter || len(prims) == 0 {
		return b.BaseBuilder.NodeSplittingValue(prims, box, axis)
	}
	var sum float32
	for _, prim := range prims {
		sum += b.Vertices[prim][axis]
	}
	return sum / float32(len(prims))
}
