package aabbtree

import "time"

// WalkFunc is invoked for every visited node. Returning false skips the
// node's children.
type WalkFunc func(idx uint32, node *Node, depth int) bool

// Walk visits the tree depth-first (root depth is 1) and returns the
// max depth reached.
func (t *Tree) Walk(fn WalkFunc) int {
	if len(t.nodes) == 0 {
		return 0
	}
	return t.walk(0, 1, fn)
}

func (t *Tree) walk(idx uint32, depth int, fn WalkFunc) int {
	node := &t.nodes[idx]
	if fn != nil && !fn(idx, node, depth) {
		return depth
	}
	if node.IsLeaf() {
		return depth
	}
	pos := node.child.Index
	maxDepth := t.walk(pos, depth+1, fn)
	if d := t.walk(pos+1, depth+1, fn); d > maxDepth {
		maxDepth = d
	}
	return maxDepth
}

// ComputeDepth returns the tree depth.
func (t *Tree) ComputeDepth() int {
	return t.Walk(nil)
}

// Stats summarizes the shape and quality of a tree.
type Stats struct {
	Nodes         int
	Leaves        int
	MaxDepth      int
	Primitives    int
	TotalPrims    uint32
	InvalidSplits uint32
	BuildTime     time.Duration

	// Surface area heuristic cost of the tree relative to its root:
	// sum(area(internal)) + sum(area(leaf) * count), divided by
	// area(root).
	SAHCost float32
}

// Stats walks the tree and collects shape statistics.
func (t *Tree) Stats() Stats {
	stats := Stats{
		Nodes:         len(t.nodes),
		Primitives:    len(t.indices),
		TotalPrims:    t.totalPrims,
		InvalidSplits: t.invalidSplits,
		BuildTime:     t.buildTime,
	}
	if len(t.nodes) == 0 {
		return stats
	}

	var cost float32
	stats.MaxDepth = t.Walk(func(_ uint32, node *Node, _ int) bool {
		area := node.BBox.SurfaceArea()
		if node.IsLeaf() {
			stats.Leaves++
			cost += area * float32(node.count)
		} else {
			cost += area
		}
		return true
	})

	if rootArea := t.nodes[0].BBox.SurfaceArea(); rootArea > 0 {
		stats.SAHCost = cost / rootArea
	}
	return stats
}
