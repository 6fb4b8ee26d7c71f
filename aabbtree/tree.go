package aabbtree

import (
	"time"

	"github.com/achilleasa/pruner/log"
	"github.com/achilleasa/pruner/types"
)

var logger = log.New("aabbtree")

// BuildStep drives a progressive build.
type BuildStep uint8

const (
	StepStart BuildStep = iota
	StepContinue
	StepDone
)

// Tree is a bounding volume hierarchy stored as a node arena plus a
// permutation array mapping leaf ranges to primitive indices.
type Tree struct {
	nodes   []Node
	indices []uint32
	pooled  bool

	// Sum of node primitive counts over all processed nodes.
	totalPrims    uint32
	invalidSplits uint32
	buildTime     time.Duration

	refitMask []uint32

	// Progressive build state.
	queue      []uint32
	queueHead  int
	progress   Builder
	buildStart time.Time
}

// NewTree returns an empty tree.
func NewTree() *Tree {
	return &Tree{}
}

// Build the entire hierarchy in a single call.
func (t *Tree) Build(b Builder) error {
	if err := t.setup(b); err != nil {
		return err
	}

	start := time.Now()
	t.buildHierarchy(b, 0)
	t.finishBuild(b, time.Since(start))
	return nil
}

// BuildProgressive performs a bounded amount of build work. StepStart sets
// up the tree and queues the root. StepContinue processes queued nodes
// until the number of processed primitives reaches limit. The returned
// step is StepContinue while work remains and StepDone once the tree is
// complete.
func (t *Tree) BuildProgressive(b Builder, step BuildStep, limit uint32) (BuildStep, error) {
	switch step {
	case StepStart:
		if err := t.setup(b); err != nil {
			return StepDone, err
		}
		t.progress = b
		t.buildStart = time.Now()
		t.queue = append(t.queue[:0], 0)
		t.queueHead = 0
		return StepContinue, nil
	case StepContinue:
		if t.progress == nil {
			return StepDone, ErrBuildNotStarted
		}
	default:
		return StepDone, nil
	}

	b = t.progress
	base := b.Base()
	var processed uint32
	for processed < limit && t.queueHead < len(t.queue) {
		idx := t.queue[t.queueHead]
		t.queueHead++

		t.computeNodeBox(b, idx)
		if t.subdivide(b, idx) {
			pos := t.nodes[idx].child.Index
			t.queue = append(t.queue, pos, pos+1)
		}
		count := t.nodes[idx].count
		base.totalPrims += count
		processed += count
	}

	if t.queueHead < len(t.queue) {
		return StepContinue, nil
	}

	t.finishBuild(b, time.Since(t.buildStart))
	t.progress = nil
	t.queue = t.queue[:0]
	t.queueHead = 0
	return StepDone, nil
}

func (t *Tree) setup(b Builder) error {
	if isNilBuilder(b) {
		return ErrNilBuilder
	}
	base := b.Base()
	n := base.NumPrimitives()
	if n == 0 {
		return ErrNoPrimitives
	}

	t.Release()
	base.reset()

	t.indices = make([]uint32, n)
	for i := range t.indices {
		t.indices[i] = uint32(i)
	}

	t.pooled = base.Settings.Limit <= 1
	capacity := 2*n - 1
	if !t.pooled {
		capacity = n
	}
	t.nodes = make([]Node, 1, capacity)
	t.nodes[0] = newNode(InvalidIndex, 0, n)
	return nil
}

func (t *Tree) computeNodeBox(b Builder, idx uint32) {
	node := &t.nodes[idx]
	box := b.ComputeGlobalBox(t.indices[node.start : node.start+node.count])
	node.BBox = b.Base().adjustBox(box)
}

func (t *Tree) buildHierarchy(b Builder, idx uint32) {
	t.computeNodeBox(b, idx)
	if t.subdivide(b, idx) {
		pos := t.nodes[idx].child.Index
		t.buildHierarchy(b, pos)
		t.buildHierarchy(b, pos+1)
	}
	b.Base().totalPrims += t.nodes[idx].count
}

func (t *Tree) finishBuild(b Builder, elapsed time.Duration) {
	base := b.Base()
	t.totalPrims = base.totalPrims
	t.invalidSplits = base.invalidSplits
	t.buildTime = elapsed

	logger.Debugf(
		"tree build time: %d ms, maxDepth: %d, nodes: %d, invalid splits: %d",
		elapsed.Nanoseconds()/1e6, t.ComputeDepth(), len(t.nodes), t.invalidSplits,
	)
}

// Release all tree storage.
func (t *Tree) Release() {
	t.nodes = nil
	t.indices = nil
	t.refitMask = nil
	t.totalPrims = 0
	t.invalidSplits = 0
	t.progress = nil
	t.queue = nil
	t.queueHead = 0
}

// IsBuilt returns true if the tree holds a finished hierarchy.
func (t *Tree) IsBuilt() bool {
	return len(t.nodes) != 0 && t.progress == nil
}

func (t *Tree) NumNodes() uint32 {
	return uint32(len(t.nodes))
}

// Node returns a pointer to the node at idx.
func (t *Tree) Node(idx uint32) *Node {
	return &t.nodes[idx]
}

// Root returns the root node or nil for an empty tree.
func (t *Tree) Root() *Node {
	if len(t.nodes) == 0 {
		return nil
	}
	return &t.nodes[0]
}

// Primitives returns the permutation array slice covered by node idx.
func (t *Tree) Primitives(idx uint32) []uint32 {
	node := &t.nodes[idx]
	return t.indices[node.start : node.start+node.count]
}

// Indices returns the full permutation array.
func (t *Tree) Indices() []uint32 {
	return t.indices
}

// TotalPrimitives returns the sum of primitive counts over all nodes
// processed by the last build. It is used as an estimate of build cost.
func (t *Tree) TotalPrimitives() uint32 {
	return t.totalPrims
}

// IsComplete returns true if every leaf holds a single primitive.
func (t *Tree) IsComplete() bool {
	if len(t.nodes) == 0 {
		return false
	}
	return len(t.nodes) == 2*len(t.indices)-1
}

// Tombstone marks the single primitive of a leaf as removed. Tombstoned
// leaves keep their place in the tree but report no primitives.
func (t *Tree) Tombstone(idx uint32) {
	node := &t.nodes[idx]
	if !node.IsLeaf() || node.count == 0 {
		return
	}
	node.count = 0
	t.indices[node.start] = InvalidIndex
	node.BBox = types.EmptyBBox()
}

// LeafPrimitive returns the first primitive slot of a leaf. Tombstoned
// leaves return InvalidIndex.
func (t *Tree) LeafPrimitive(idx uint32) uint32 {
	node := &t.nodes[idx]
	if int(node.start) >= len(t.indices) {
		return InvalidIndex
	}
	return t.indices[node.start]
}

// SetLeafPrimitive relabels the first primitive slot of a leaf.
func (t *Tree) SetLeafPrimitive(idx, prim uint32) {
	node := &t.nodes[idx]
	if int(node.start) < len(t.indices) {
		t.indices[node.start] = prim
	}
}
