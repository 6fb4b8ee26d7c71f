package aabbtree

import "github.com/achilleasa/pruner/types"

// RefitTopDown recomputes every node box from its primitive range using
// the builder. The tree layout is not modified.
func (t *Tree) RefitTopDown(b Builder) error {
	if isNilBuilder(b) {
		return ErrNilBuilder
	}
	var scratch []uint32
	for idx := range t.nodes {
		node := &t.nodes[idx]
		scratch = scratch[:0]
		for _, prim := range t.indices[node.start : node.start+node.count] {
			if prim != InvalidIndex {
				scratch = append(scratch, prim)
			}
		}
		if len(scratch) == 0 {
			node.BBox = types.EmptyBBox()
			continue
		}
		node.BBox = b.ComputeGlobalBox(scratch)
	}
	return nil
}

// Refit recomputes all node boxes bottom-up. Leaves enclose the boxes of
// their primitives; internal nodes enclose their children.
func (t *Tree) Refit(boxes []types.BBox) {
	for idx := len(t.nodes) - 1; idx >= 0; idx-- {
		t.refitNode(uint32(idx), boxes)
	}
}

// MarkForRefit flags node idx and its ancestors for the next RefitMarked
// call.
func (t *Tree) MarkForRefit(idx uint32) {
	if idx >= uint32(len(t.nodes)) {
		return
	}
	words := (len(t.nodes) + 31) >> 5
	if len(t.refitMask) < words {
		t.refitMask = append(t.refitMask, make([]uint32, words-len(t.refitMask))...)
	}

	for idx != InvalidIndex {
		word, bit := idx>>5, uint32(1)<<(idx&31)
		if t.refitMask[word]&bit != 0 {
			return
		}
		t.refitMask[word] |= bit
		idx = t.nodes[idx].parent
	}
}

// RefitMarked refits flagged nodes bottom-up and clears their flags.
func (t *Tree) RefitMarked(boxes []types.BBox) {
	for word := len(t.refitMask) - 1; word >= 0; word-- {
		bits := t.refitMask[word]
		if bits == 0 {
			continue
		}
		for bit := 31; bit >= 0; bit-- {
			if bits&(1<<uint(bit)) == 0 {
				continue
			}
			idx := uint32(word<<5 + bit)
			if idx < uint32(len(t.nodes)) {
				t.refitNode(idx, boxes)
			}
		}
		t.refitMask[word] = 0
	}
}

// HasMarkedNodes returns true if a RefitMarked call has pending work.
func (t *Tree) HasMarkedNodes() bool {
	for _, word := range t.refitMask {
		if word != 0 {
			return true
		}
	}
	return false
}

func (t *Tree) refitNode(idx uint32, boxes []types.BBox) {
	node := &t.nodes[idx]
	if !node.IsLeaf() {
		pos := node.child.Index
		node.BBox = t.nodes[pos].BBox.Union(t.nodes[pos+1].BBox)
		return
	}

	box := types.EmptyBBox()
	for _, prim := range t.indices[node.start : node.start+node.count] {
		if prim != InvalidIndex {
			box = box.Union(boxes[prim])
		}
	}
	node.BBox = box
}
