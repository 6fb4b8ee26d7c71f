package aabbtree

import (
	"sort"

	"github.com/achilleasa/pruner/types"
)

// Partition prims in place so that primitives whose split value exceeds
// the node threshold along axis come first. Returns the size of that
// first partition.
func split(b Builder, prims []uint32, box types.BBox, axis types.Axis) uint32 {
	threshold := b.NodeSplittingValue(prims, box, axis)

	var nbPos uint32
	for i, prim := range prims {
		if b.SplittingValue(prim, axis) > threshold {
			prims[i], prims[nbPos] = prims[nbPos], prims[i]
			nbPos++
		}
	}
	return nbPos
}

// Pick the axis with the largest variance of primitive split values.
func splatterAxis(b Builder, prims []uint32) types.Axis {
	var means, vars types.Vec3
	n := float32(len(prims))

	for _, prim := range prims {
		for axis := types.XAxis; axis < types.NoAxis; axis++ {
			means[axis] += b.SplittingValue(prim, axis)
		}
	}
	means = means.Mul(1.0 / n)

	for _, prim := range prims {
		for axis := types.XAxis; axis < types.NoAxis; axis++ {
			d := b.SplittingValue(prim, axis) - means[axis]
			vars[axis] += d * d
		}
	}
	vars = vars.Mul(1.0 / (n - 1))

	return vars.LargestAxis()
}

// Subdivide node idx into a sibling pair. Returns false if the node
// becomes a leaf.
func (t *Tree) subdivide(b Builder, idx uint32) bool {
	node := &t.nodes[idx]
	if node.count == 1 {
		return false
	}

	prims := t.indices[node.start : node.start+node.count]
	if !b.ValidateSubdivision(prims) {
		return false
	}

	base := b.Base()
	n := uint32(len(prims))
	var nbPos uint32

	switch base.Settings.Rule {
	case SplitLargestAxis:
		nbPos = split(b, prims, node.BBox, node.BBox.Size().LargestAxis())
	case SplitSplatter:
		nbPos = split(b, prims, node.BBox, splatterAxis(b, prims))
	case SplitBalanced:
		bestAxis := types.XAxis
		bestRatio := float32(-1)
		for axis := types.XAxis; axis < types.NoAxis; axis++ {
			count := split(b, prims, node.BBox, axis)
			ratio := float32(count)/float32(n) - 0.5
			ratio *= ratio
			if bestRatio < 0 || ratio < bestRatio {
				bestRatio = ratio
				bestAxis = axis
			}
		}
		nbPos = split(b, prims, node.BBox, bestAxis)
	case SplitBestAxis:
		size := node.BBox.Size()
		axes := []types.Axis{types.XAxis, types.YAxis, types.ZAxis}
		sort.SliceStable(axes, func(i, j int) bool { return size[axes[i]] > size[axes[j]] })
		for _, axis := range axes {
			nbPos = split(b, prims, node.BBox, axis)
			if nbPos != 0 && nbPos != n {
				break
			}
		}
	case SplitFifty:
		nbPos = n >> 1
	}

	if nbPos == 0 || nbPos == n {
		if n <= base.Settings.Limit {
			return false
		}
		base.invalidSplits++
		nbPos = n >> 1
	}

	ownership := OwnedByParent
	if t.pooled {
		ownership = Pooled
	}

	start := node.start
	node.child = ChildLink{Index: uint32(len(t.nodes)), Ownership: ownership}
	// node is invalidated by the appends below.
	t.nodes = append(t.nodes,
		newNode(idx, start, nbPos),
		newNode(idx, start+nbPos, n-nbPos),
	)
	base.createdNodes += 2
	return true
}
