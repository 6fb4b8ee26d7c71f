package aabbtree

import "github.com/achilleasa/pruner/types"

// MaxPlanes is the max number of planes accepted by the culling queries.
const MaxPlanes = 32

// CullVisitor receives the primitive ranges of culled subtrees. Ranges
// reported with needsClipping == false lie completely inside all active
// planes. Ranges may contain InvalidIndex entries for removed primitives.
type CullVisitor func(prims []uint32, needsClipping bool)

// PlaneMask returns a mask with the low n bits set.
func PlaneMask(n int) uint32 {
	if n >= MaxPlanes {
		return ^uint32(0)
	}
	return uint32(1)<<uint(n) - 1
}

// PlanesBoxOverlap tests a box against the planes selected by inMask.
// It returns false if the box lies completely outside one of the planes.
// Otherwise outMask holds the planes that still intersect the box.
func PlanesBoxOverlap(box types.BBox, planes []types.Plane, inMask uint32) (outMask uint32, overlap bool) {
	center := box.Center()
	extents := box.Extents()

	for i := range planes {
		if i >= MaxPlanes {
			break
		}
		bit := uint32(1) << uint(i)
		if inMask&bit == 0 {
			continue
		}
		p := &planes[i]
		near := extents.Dot(p.Normal.Abs())
		dist := center.Dot(p.Normal) + p.D
		if near < dist {
			return 0, false
		}
		if -near < dist {
			outMask |= bit
		}
	}
	return outMask, true
}

// TestAgainstPlanes reports every subtree that is not completely outside
// the planes selected by mask.
func (t *Tree) TestAgainstPlanes(planes []types.Plane, mask uint32, visit CullVisitor) {
	if len(t.nodes) == 0 || visit == nil {
		return
	}
	t.cull(0, planes, mask, visit)
}

// CollectAgainstPlanes is the collecting variant of TestAgainstPlanes.
// Primitives that straddle a plane are appended to clip, fully contained
// ones to noClip. Removed primitives are skipped.
func (t *Tree) CollectAgainstPlanes(planes []types.Plane, mask uint32, clip, noClip []uint32) ([]uint32, []uint32) {
	t.TestAgainstPlanes(planes, mask, func(prims []uint32, needsClipping bool) {
		for _, prim := range prims {
			if prim == InvalidIndex {
				continue
			}
			if needsClipping {
				clip = append(clip, prim)
			} else {
				noClip = append(noClip, prim)
			}
		}
	})
	return clip, noClip
}

func (t *Tree) cull(idx uint32, planes []types.Plane, mask uint32, visit CullVisitor) {
	node := &t.nodes[idx]
	if node.count == 0 || node.BBox.IsEmpty() {
		return
	}

	outMask, overlap := PlanesBoxOverlap(node.BBox, planes, mask)
	if !overlap {
		return
	}

	prims := t.indices[node.start : node.start+node.count]
	if outMask == 0 {
		visit(prims, false)
		return
	}
	if node.IsLeaf() {
		visit(prims, true)
		return
	}

	pos := node.child.Index
	t.cull(pos, planes, outMask, visit)
	t.cull(pos+1, planes, outMask, visit)
}
