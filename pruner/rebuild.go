package pruner

import (
	"math/bits"
	"time"

	"github.com/achilleasa/pruner/aabbtree"
	"github.com/achilleasa/pruner/types"
)

// RebuildState tracks the incremental rebuild of a dynamic pruner.
type RebuildState uint8

const (
	RebuildNotStarted RebuildState = iota
	// The box snapshot and builder are ready; the next tick starts the build.
	RebuildInit
	RebuildInProgress
	// The replacement tree is complete and will be swapped in on the next tick.
	RebuildFinished
)

func (s RebuildState) String() string {
	switch s {
	case RebuildNotStarted:
		return "not-started"
	case RebuildInit:
		return "init"
	case RebuildInProgress:
		return "in-progress"
	case RebuildFinished:
		return "finished"
	}
	return "unknown"
}

// RebuildStats summarize the rebuild activity of a dynamic pruner.
type RebuildStats struct {
	State        RebuildState
	Objects      int
	Pending      int
	TreeNodes    uint32
	Rebuilds     int
	Abandoned    int
	LastTicks    uint32
	LastWork     uint32
	LastDuration time.Duration
	AdaptiveTerm int32
}

type rebuilder struct {
	settings RebuildSettings
	state    RebuildState

	newTree     *aabbtree.Tree
	builder     *aabbtree.BoxBuilder
	cachedBoxes []types.BBox

	// Number of pending objects included in the box snapshot.
	addedSize int

	nbCalls      uint32
	totalWork    uint32
	rateHint     uint32
	adaptiveTerm int32
	started      time.Time

	stats RebuildStats
}

func (r *rebuilder) init(settings RebuildSettings) {
	r.settings = settings
	r.rateHint = settings.RateHint
	r.reset()
}

func (r *rebuilder) reset() {
	r.state = RebuildNotStarted
	r.newTree = nil
	r.builder = nil
	r.cachedBoxes = nil
	r.addedSize = 0
	r.nbCalls = 0
}

// Estimate the number of primitives the progressive build will process.
// The previous tree's cost is trusted while the estimate for a balanced
// tree stays within the configured tolerance of it.
func (r *rebuilder) estimateWork(prevTotal uint32) uint32 {
	n := uint32(len(r.cachedBoxes))
	depth := uint32(bits.Len32(n)) - 1
	estimate := depth * n

	tol := r.settings.EstimateTolerance
	var total uint32
	if estimate <= prevTotal*tol && estimate >= prevTotal/tol {
		total = prevTotal
	} else {
		r.adaptiveTerm = 0
		total = estimate
	}

	work := int64(total) + int64(r.adaptiveTerm)*int64(n)
	if work < 0 {
		work = 0
	}
	return uint32(work)
}

// Nudge the adaptive term so the next rebuild takes closer to rateHint
// ticks.
func (r *rebuilder) adjustAdaptiveTerm() {
	if r.nbCalls > r.rateHint {
		r.adaptiveTerm++
	} else if r.nbCalls < r.rateHint {
		r.adaptiveTerm--
	}
}

// Advance the rebuild state machine by one tick.
func (p *DynamicPruner) step() {
	r := &p.rebuild

	switch r.state {
	case RebuildNotStarted:
		n := p.pool.Len()
		if n == 0 {
			return
		}
		r.cachedBoxes = make([]types.BBox, n)
		copy(r.cachedBoxes, p.pool.Boxes())
		r.addedSize = len(p.added)

		r.builder = aabbtree.NewBoxBuilder(r.cachedBoxes, p.opts.Build)
		r.newTree = aabbtree.NewTree()
		p.records = p.records[:0]
		r.started = time.Now()
		r.state = RebuildInit
	case RebuildInit:
		if _, err := r.newTree.BuildProgressive(r.builder, aabbtree.StepStart, 0); err != nil {
			p.abandonRebuild(err)
			return
		}
		r.state = RebuildInProgress
		r.nbCalls = 0

		var prevTotal uint32
		if p.tree != nil {
			prevTotal = p.tree.TotalPrimitives()
		}
		r.totalWork = r.estimateWork(prevTotal)
	case RebuildInProgress:
		r.nbCalls++
		limit := r.settings.MinStepWork + r.totalWork/r.rateHint
		step, err := r.newTree.BuildProgressive(nil, aabbtree.StepContinue, limit)
		if err != nil {
			p.abandonRebuild(err)
			return
		}
		if step == aabbtree.StepDone {
			r.state = RebuildFinished
		}
	default:
		p.finishRebuild()
	}
}

// Swap in the replacement tree and reconcile it with the pool changes
// that happened while it was being built.
func (p *DynamicPruner) finishRebuild() {
	r := &p.rebuild
	snapshotSize := len(r.cachedBoxes)

	r.adjustAdaptiveTerm()
	p.tree = r.newTree
	r.newTree = nil
	r.builder = nil
	r.cachedBoxes = nil
	r.state = RebuildNotStarted

	p.mapping = nil
	p.computeMapping(snapshotSize)

	p.replaying = true
	for _, rec := range p.records {
		p.applySwap(rec.oldSlot, rec.newSlot)
	}
	p.replaying = false
	p.records = p.records[:0]

	// Objects may have moved while the tree was being built.
	p.tree.Refit(p.pool.Boxes())

	if r.addedSize > 0 {
		remaining := copy(p.added, p.added[r.addedSize:])
		for i := remaining; i < len(p.added); i++ {
			p.added[i] = nil
		}
		p.added = p.added[:remaining]
		r.addedSize = 0
	}
	p.allowBuild = len(p.added) > 0

	r.stats.Rebuilds++
	r.stats.LastTicks = r.nbCalls
	r.stats.LastWork = p.tree.TotalPrimitives()
	r.stats.LastDuration = time.Since(r.started)
	instrumentRebuild(p.opts.Name, r.nbCalls)
	p.logger.Infof(
		"[%s] rebuild finished: %d objects, %d build ticks, %d pending, adaptive term %d",
		p.opts.Name, p.pool.Len(), r.nbCalls, len(p.added), r.adaptiveTerm,
	)
}

func (p *DynamicPruner) abandonRebuild(err error) {
	p.logger.Warningf("[%s] abandoning rebuild: %s", p.opts.Name, err.Error())
	instrumentRebuildError(p.opts.Name)
	p.rebuild.stats.Abandoned++
	p.rebuild.reset()
	p.records = p.records[:0]
	p.allowBuild = false
}
