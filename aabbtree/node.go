package aabbtree

import (
	"math"

	"github.com/achilleasa/pruner/types"
)

// InvalidIndex marks a missing node link or a tombstoned primitive.
const InvalidIndex uint32 = math.MaxUint32

// Ownership describes how the storage of a sibling pair is managed.
type Ownership uint8

const (
	// The pair lives in the preallocated 2N-1 node pool of a complete
	// tree and is never freed individually.
	Pooled Ownership = iota

	// The pair was allocated on demand while subdividing its parent and is
	// released together with it.
	OwnedByParent
)

func (o Ownership) String() string {
	if o == Pooled {
		return "pooled"
	}
	return "owned-by-parent"
}

// ChildLink points at the first node of a sibling pair. The second sibling
// is always stored right after the first one.
type ChildLink struct {
	Index     uint32
	Ownership Ownership
}

// Node is a single tree node. Leaves have no children and reference a
// contiguous range of the tree permutation array; internal nodes reference
// the union of their children's ranges.
type Node struct {
	BBox types.BBox

	start  uint32
	count  uint32
	parent uint32
	child  ChildLink
}

func newNode(parent, start, count uint32) Node {
	return Node{
		BBox:   types.EmptyBBox(),
		start:  start,
		count:  count,
		parent: parent,
		child:  ChildLink{Index: InvalidIndex},
	}
}

// IsLeaf returns true if the node has no children.
func (n *Node) IsLeaf() bool {
	return n.child.Index == InvalidIndex
}

// Pos returns the index of the first child or InvalidIndex for leaves.
func (n *Node) Pos() uint32 {
	return n.child.Index
}

// Neg returns the index of the second child or InvalidIndex for leaves.
func (n *Node) Neg() uint32 {
	if n.child.Index == InvalidIndex {
		return InvalidIndex
	}
	return n.child.Index + 1
}

func (n *Node) Child() ChildLink {
	return n.child
}

// Parent returns the parent node index or InvalidIndex for the root.
func (n *Node) Parent() uint32 {
	return n.parent
}

// Start returns the offset of the node's first primitive in the
// permutation array.
func (n *Node) Start() uint32 {
	return n.start
}

// Count returns the number of primitives covered by the node.
func (n *Node) Count() uint32 {
	return n.count
}
