package aabbtree

import (
	"github.com/chewxy/math32"

	"github.com/achilleasa/pruner/types"
)

// StabStatus is returned by stab visitors to steer the query.
type StabStatus uint8

const (
	StabContinue StabStatus = iota
	// Abort the query.
	StabStop
	// The visitor shortened the max distance; reconfigure the segment.
	StabUpdateMaxDist
)

// StabVisitor is invoked with the primitives of every leaf hit by the
// ray. The visitor may lower *maxDist and return StabUpdateMaxDist to
// shrink the remaining query.
type StabVisitor func(prims []uint32, maxDist *float32) StabStatus

// RayCollider tests boxes against a ray or a finite segment using the
// separating axis test in center/extents form.
type RayCollider struct {
	origin  types.Vec3
	dir     types.Vec3
	maxDist float32
	segment bool

	// Segment: half segment vector and its midpoint. Ray: direction and
	// origin.
	data  types.Vec3
	data2 types.Vec3
	fdir  types.Vec3
}

// NewRayCollider sets up a collider for a ray starting at origin along
// dir. A maxDist of math.MaxFloat32 selects an infinite ray.
func NewRayCollider(origin, dir types.Vec3, maxDist float32) *RayCollider {
	r := &RayCollider{origin: origin, dir: dir}
	r.SetMaxDist(maxDist)
	return r
}

// SetMaxDist reconfigures the collider for a new max distance.
func (r *RayCollider) SetMaxDist(maxDist float32) {
	r.maxDist = maxDist
	r.segment = maxDist < math32.MaxFloat32
	if r.segment {
		r.data = r.dir.Mul(0.5 * maxDist)
		r.data2 = r.origin.Add(r.data)
		r.fdir = r.data.Abs()
		return
	}
	r.data = r.dir
	r.data2 = r.origin
	r.fdir = r.dir.Abs()
}

func (r *RayCollider) MaxDist() float32 {
	return r.maxDist
}

// Overlaps returns true if the ray or segment intersects box.
func (r *RayCollider) Overlaps(box types.BBox) bool {
	center := box.Center()
	ext := box.Extents()
	d := r.data2.Sub(center)

	for axis := 0; axis < 3; axis++ {
		if r.segment {
			if math32.Abs(d[axis]) > ext[axis]+r.fdir[axis] {
				return false
			}
		} else if math32.Abs(d[axis]) > ext[axis] && d[axis]*r.dir[axis] >= 0 {
			return false
		}
	}

	dir, fdir := r.data, r.fdir
	if f := dir[1]*d[2] - dir[2]*d[1]; math32.Abs(f) > ext[1]*fdir[2]+ext[2]*fdir[1] {
		return false
	}
	if f := dir[2]*d[0] - dir[0]*d[2]; math32.Abs(f) > ext[0]*fdir[2]+ext[2]*fdir[0] {
		return false
	}
	if f := dir[0]*d[1] - dir[1]*d[0]; math32.Abs(f) > ext[0]*fdir[1]+ext[1]*fdir[0] {
		return false
	}
	return true
}

// Stab reports every leaf hit by the ray in depth-first order. Returning
// StabStop from the visitor ends the query at the first contact.
func (t *Tree) Stab(origin, dir types.Vec3, maxDist float32, visit StabVisitor) {
	if len(t.nodes) == 0 || visit == nil {
		return
	}
	r := NewRayCollider(origin, dir, maxDist)
	t.stab(0, r, visit, false)
}

// ClosestHit walks a segment front to back, visiting the child closest to
// the origin first, so the visitor can shrink the max distance as hits
// are found.
func (t *Tree) ClosestHit(origin, dir types.Vec3, maxDist float32, visit StabVisitor) {
	if len(t.nodes) == 0 || visit == nil {
		return
	}
	r := NewRayCollider(origin, dir, maxDist)
	t.stab(0, r, visit, true)
}

// Returns false if the query must stop.
func (t *Tree) stab(idx uint32, r *RayCollider, visit StabVisitor, ordered bool) bool {
	node := &t.nodes[idx]
	if node.count == 0 || node.BBox.IsEmpty() || !r.Overlaps(node.BBox) {
		return true
	}

	if node.IsLeaf() {
		maxDist := r.maxDist
		switch visit(t.indices[node.start:node.start+node.count], &maxDist) {
		case StabStop:
			return false
		case StabUpdateMaxDist:
			r.SetMaxDist(maxDist)
		}
		return true
	}

	first, second := node.child.Index, node.child.Index+1
	if ordered {
		// Visit the negative child first when the positive one lies
		// further along the ray.
		posCenter := t.nodes[first].BBox.Center()
		negCenter := t.nodes[second].BBox.Center()
		if posCenter.Sub(negCenter).Dot(r.dir) > 0 {
			first, second = second, first
		}
	}

	if !t.stab(first, r, visit, ordered) {
		return false
	}
	return t.stab(second, r, visit, ordered)
}
