package aabbtree

import "github.com/achilleasa/pruner/types"

// OverlapVisitor receives the primitives of leaves overlapping a query
// volume. Returning false ends the query.
type OverlapVisitor func(prims []uint32) bool

// OverlapBox reports leaves whose boxes overlap box.
func (t *Tree) OverlapBox(box types.BBox, visit OverlapVisitor) {
	if len(t.nodes) == 0 || visit == nil {
		return
	}
	t.overlap(0, box.Overlaps, visit)
}

// OverlapSphere reports leaves whose boxes overlap the sphere.
func (t *Tree) OverlapSphere(center types.Vec3, radius float32, visit OverlapVisitor) {
	if len(t.nodes) == 0 || visit == nil {
		return
	}
	sqRadius := radius * radius
	t.overlap(0, func(b types.BBox) bool {
		return !b.IsEmpty() && b.SqDistance(center) <= sqRadius
	}, visit)
}

func (t *Tree) overlap(idx uint32, test func(types.BBox) bool, visit OverlapVisitor) bool {
	node := &t.nodes[idx]
	if node.count == 0 || !test(node.BBox) {
		return true
	}
	if node.IsLeaf() {
		return visit(t.indices[node.start : node.start+node.count])
	}
	pos := node.child.Index
	if !t.overlap(pos, test, visit) {
		return false
	}
	return t.overlap(pos+1, test, visit)
}
