package types

import "github.com/chewxy/math32"

// BBox is an axis-aligned bounding box. A box with Min > Max on any axis
// is empty; EmptyBBox returns the canonical empty box which acts as the
// identity element for Union.
type BBox struct {
	Min Vec3
	Max Vec3
}

// Create a box from its two corners.
func NewBBox(min, max Vec3) BBox {
	return BBox{Min: min, Max: max}
}

// Create a box from a center point and half extents.
func BBoxFromCenterExtents(center, extents Vec3) BBox {
	return BBox{Min: center.Sub(extents), Max: center.Add(extents)}
}

// Return the canonical empty box.
func EmptyBBox() BBox {
	return BBox{
		Min: Splat(math32.MaxFloat32),
		Max: Splat(-math32.MaxFloat32),
	}
}

// Return true if the box does not enclose any point.
func (b BBox) IsEmpty() bool {
	return b.Min[0] > b.Max[0] || b.Min[1] > b.Max[1] || b.Min[2] > b.Max[2]
}

func (b BBox) Center() Vec3 {
	return b.Min.Add(b.Max).Mul(0.5)
}

// Return the half-size of the box along each axis.
func (b BBox) Extents() Vec3 {
	return b.Max.Sub(b.Min).Mul(0.5)
}

func (b BBox) Size() Vec3 {
	return b.Max.Sub(b.Min)
}

// Return the smallest box enclosing both boxes.
func (b BBox) Union(o BBox) BBox {
	return BBox{Min: MinVec3(b.Min, o.Min), Max: MaxVec3(b.Max, o.Max)}
}

// Grow the box to enclose point p.
func (b BBox) IncludePoint(p Vec3) BBox {
	return BBox{Min: MinVec3(b.Min, p), Max: MaxVec3(b.Max, p)}
}

// Grow the box by s on every side.
func (b BBox) Inflate(s float32) BBox {
	d := Splat(s)
	return BBox{Min: b.Min.Sub(d), Max: b.Max.Add(d)}
}

// Return true if the two boxes overlap. Touching boxes overlap.
func (b BBox) Overlaps(o BBox) bool {
	return b.Min[0] <= o.Max[0] && o.Min[0] <= b.Max[0] &&
		b.Min[1] <= o.Max[1] && o.Min[1] <= b.Max[1] &&
		b.Min[2] <= o.Max[2] && o.Min[2] <= b.Max[2]
}

// Return true if o lies completely inside b.
func (b BBox) Contains(o BBox) bool {
	return b.Min[0] <= o.Min[0] && o.Max[0] <= b.Max[0] &&
		b.Min[1] <= o.Min[1] && o.Max[1] <= b.Max[1] &&
		b.Min[2] <= o.Min[2] && o.Max[2] <= b.Max[2]
}

// Return the squared distance between point p and the box.
func (b BBox) SqDistance(p Vec3) float32 {
	var dist float32
	for axis := 0; axis < 3; axis++ {
		if p[axis] < b.Min[axis] {
			d := b.Min[axis] - p[axis]
			dist += d * d
		} else if p[axis] > b.Max[axis] {
			d := p[axis] - b.Max[axis]
			dist += d * d
		}
	}
	return dist
}

// Return the surface area of the box; empty boxes have zero area.
func (b BBox) SurfaceArea() float32 {
	if b.IsEmpty() {
		return 0
	}
	side := b.Size()
	return 2 * (side[0]*side[1] + side[1]*side[2] + side[0]*side[2])
}
