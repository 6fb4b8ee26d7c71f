package pruner

import "github.com/achilleasa/pruner/aabbtree"

// InvalidNode is stored in the node map for handles without a leaf.
const InvalidNode = aabbtree.InvalidIndex

// nodeMap maps pool handles to the tree leaf holding them.
type nodeMap []uint32

func newNodeMap(size int) nodeMap {
	m := make(nodeMap, size)
	for i := range m {
		m[i] = InvalidNode
	}
	return m
}

// Grow the map so that h is addressable, keeping 25% headroom.
func (m *nodeMap) ensure(h Handle) {
	if int(h) < len(*m) {
		return
	}
	newSize := int(h) + int(h>>2) + 1
	grown := make(nodeMap, newSize)
	copy(grown, *m)
	for i := len(*m); i < newSize; i++ {
		grown[i] = InvalidNode
	}
	*m = grown
}

func (m nodeMap) lookup(h Handle) uint32 {
	if int(h) >= len(m) {
		return InvalidNode
	}
	return m[h]
}

type swapRecord struct {
	oldSlot, newSlot Handle
}

// mapObserver keeps the node map and the current tree in sync with pool
// slot changes.
type mapObserver struct {
	p *DynamicPruner
}

func (o mapObserver) OnSwap(oldSlot, newSlot Handle) {
	p := o.p
	if p.mapping == nil {
		return
	}
	if p.rebuild.state != RebuildNotStarted && !p.replaying {
		p.records = append(p.records, swapRecord{oldSlot, newSlot})
	}
	p.applySwap(oldSlot, newSlot)
}

// Build the node map from the leaves of the current tree. sizeHint is
// the number of handles the map must address.
func (p *DynamicPruner) computeMapping(sizeHint int) {
	if p.mapping != nil || p.tree == nil {
		return
	}
	if n := p.pool.Len(); n > sizeHint {
		sizeHint = n
	}
	if sizeHint == 0 {
		return
	}

	p.mapping = newNodeMap(sizeHint + sizeHint>>2)
	tree := p.tree
	for idx := uint32(0); idx < tree.NumNodes(); idx++ {
		node := tree.Node(idx)
		if !node.IsLeaf() || node.Count() == 0 {
			continue
		}
		prim := Handle(tree.Primitives(idx)[0])
		p.mapping.ensure(prim)
		p.mapping[prim] = idx
	}
}

func (p *DynamicPruner) applySwap(oldSlot, newSlot Handle) {
	switch {
	case oldSlot == InvalidHandle:
		// New objects are not part of the tree yet.
		p.mapping.ensure(newSlot)
		p.mapping[newSlot] = InvalidNode
	case newSlot == InvalidHandle:
		p.mapping.ensure(oldSlot)
		if idx := p.mapping[oldSlot]; idx != InvalidNode && p.tree != nil {
			p.tree.Tombstone(idx)
		}
	default:
		p.mapping.ensure(oldSlot)
		p.mapping.ensure(newSlot)
		idx0, idx1 := p.mapping[oldSlot], p.mapping[newSlot]

		if p.tree != nil {
			if idx0 != InvalidNode && p.tree.LeafPrimitive(idx0) != aabbtree.InvalidIndex {
				p.tree.SetLeafPrimitive(idx0, uint32(newSlot))
			}
			if idx1 != InvalidNode && p.tree.LeafPrimitive(idx1) != aabbtree.InvalidIndex {
				p.tree.SetLeafPrimitive(idx1, uint32(oldSlot))
			}
		}
		p.mapping[oldSlot], p.mapping[newSlot] = idx1, idx0
	}
}

// CheckMapping returns true if every registered object that is already
// part of the tree maps to a leaf holding exactly that object.
func (p *DynamicPruner) CheckMapping() bool {
	if p.pool.Len() == 0 {
		return true
	}
	if p.mapping == nil || p.tree == nil {
		return false
	}

	pending := make(map[*Object]struct{}, len(p.added))
	for _, obj := range p.added {
		pending[obj] = struct{}{}
	}

	for h, obj := range p.pool.objects {
		if _, isPending := pending[obj]; isPending {
			continue
		}
		idx := p.mapping.lookup(Handle(h))
		if idx == InvalidNode || idx >= p.tree.NumNodes() {
			return false
		}
		node := p.tree.Node(idx)
		if !node.IsLeaf() || node.Count() != 1 || p.tree.LeafPrimitive(idx) != uint32(h) {
			return false
		}
	}
	return true
}
