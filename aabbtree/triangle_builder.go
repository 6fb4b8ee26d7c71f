package aabbtree

import "github.com/achilleasa/pruner/types"

// TriangleSource provides triangle vertices by index.
type TriangleSource interface {
	NumTriangles() uint32
	Triangle(index uint32) [3]types.Vec3
}

// TriangleList is a TriangleSource backed by a plain slice.
type TriangleList [][3]types.Vec3

func (l TriangleList) NumTriangles() uint32 {
	return uint32(len(l))
}

func (l TriangleList) Triangle(index uint32) [3]types.Vec3 {
	return l[index]
}

// IndexedMesh is a TriangleSource over a shared vertex list where every
// three consecutive indices form a triangle.
type IndexedMesh struct {
	Vertices []types.Vec3
	Indices  []uint32
}

func (m *IndexedMesh) NumTriangles() uint32 {
	return uint32(len(m.Indices) / 3)
}

func (m *IndexedMesh) Triangle(index uint32) [3]types.Vec3 {
	base := index * 3
	return [3]types.Vec3{
		m.Vertices[m.Indices[base]],
		m.Vertices[m.Indices[base+1]],
		m.Vertices[m.Indices[base+2]],
	}
}

// TriangleBuilder builds trees over triangles. The split value of a
// triangle is its centroid.
type TriangleBuilder struct {
	BaseBuilder
	Source TriangleSource
}

func NewTriangleBuilder(src TriangleSource, settings BuildSettings) *TriangleBuilder {
	return &TriangleBuilder{
		BaseBuilder: newBaseBuilder(src.NumTriangles(), settings),
		Source:      src,
	}
}

func (b *TriangleBuilder) ComputeGlobalBox(prims []uint32) types.BBox {
	box := types.EmptyBBox()
	for _, prim := range prims {
		if prim == InvalidIndex {
			continue
		}
		tri := b.Source.Triangle(prim)
		box = box.IncludePoint(tri[0]).IncludePoint(tri[1]).IncludePoint(tri[2])
	}
	return box
}

func (b *TriangleBuilder) SplittingValue(prim uint32, axis types.Axis) float32 {
	tri := b.Source.Triangle(prim)
	return (tri[0][axis] + tri[1][axis] + tri[2][axis]) * (1.0 / 3.0)
}

// NodeSplittingValue returns the mean of all vertices of the given
// triangles when GeomCenter is set.
func (b *TriangleBuilder) NodeSplittingValue(prims []uint32, box types.BBox, axis types.Axis) float32 {
	if !b.Settings.GeomCenter || len(prims) == 0 {
		return b.BaseBuilder.NodeSplittingValue(prims, box, axis)
	}
	var sum float32
	for _, prim := range prims {
		tri := b.Source.Triangle(prim)
		sum += tri[0][axis] + tri[1][axis] + tri[2][axis]
	}
	return sum / float32(len(prims)*3)
}
