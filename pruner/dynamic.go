package pruner

import (
	"github.com/achilleasa/pruner/aabbtree"
	"github.com/achilleasa/pruner/types"
)

// DynamicPruner keeps its current tree queryable while a replacement is
// built over several Tick calls. Objects added after the first build are
// kept in a pending list until a rebuild absorbs them; removals and pool
// compaction are applied to the live tree through the node map and
// replayed onto the replacement tree when it is swapped in.
type DynamicPruner struct {
	*StaticPruner

	observer mapObserver
	mapping  nodeMap

	// Objects registered after the current tree was built.
	added []*Object

	rebuild rebuilder

	records    []swapRecord
	replaying  bool
	allowBuild bool
}

// NewDynamicPruner creates a dynamic pruner. Its trees always hold one
// object per leaf so every object can be tracked by the node map; the
// configured leaf limit is ignored.
func NewDynamicPruner(opts Options) *DynamicPruner {
	p := &DynamicPruner{StaticPruner: NewStaticPruner(opts)}
	if p.opts.Build.Limit != 1 {
		p.logger.Debugf("[%s] ignoring leaf limit %d; dynamic pruners use single-object leaves", p.opts.Name, p.opts.Build.Limit)
		p.opts.Build.Limit = 1
	}
	p.observer = mapObserver{p}
	p.rebuild.init(p.opts.Rebuild)
	return p
}

// Add registers obj. Until the first tree exists objects are inserted
// the static way; afterwards they wait in the pending list for the next
// rebuild.
func (p *DynamicPruner) Add(obj *Object, box types.BBox) error {
	if p.mapping == nil {
		return p.StaticPruner.Add(obj, box)
	}

	if err := p.pool.Add(obj, box, p.observer); err != nil {
		return err
	}
	p.allowBuild = true
	p.added = append(p.added, obj)
	return nil
}

func (p *DynamicPruner) Remove(obj *Object) error {
	if !p.pool.Contains(obj) {
		return ErrObjectNotRegistered
	}
	p.allowBuild = true

	if idx := p.mapping.lookup(obj.handle); idx != InvalidNode && p.tree != nil {
		p.tree.MarkForRefit(idx)
	}

	for pos, pending := range p.added {
		if pending != obj {
			continue
		}
		copy(p.added[pos:], p.added[pos+1:])
		p.added[len(p.added)-1] = nil
		p.added = p.added[:len(p.added)-1]
		if pos < p.rebuild.addedSize {
			p.rebuild.addedSize--
		}
		break
	}

	if err := p.pool.Remove(obj, p.observer); err != nil {
		return err
	}
	if p.mapping == nil {
		p.tree = nil
	}

	if p.pool.Len() == 0 {
		p.Release()
	}
	return nil
}

// Update changes the box of obj and flags its leaf for refitting.
func (p *DynamicPruner) Update(obj *Object, box types.BBox) error {
	if err := p.pool.Update(obj, box); err != nil {
		return err
	}
	p.allowBuild = true

	if idx := p.mapping.lookup(obj.handle); idx != InvalidNode && p.tree != nil {
		p.tree.MarkForRefit(idx)
	}
	return nil
}

// Tick refits the current tree and advances the incremental rebuild by
// one step.
func (p *DynamicPruner) Tick() {
	p.ensureTree()

	// The tree is replaced and fully refit when the rebuild finishes.
	if p.tree != nil && p.rebuild.state != RebuildFinished {
		p.tree.RefitMarked(p.pool.Boxes())
	}

	if p.allowBuild {
		p.step()
	}
	instrumentObjects(p.opts.Name, p.pool.Len(), len(p.added))
}

// Release unregisters all objects and drops every tree and rebuild state.
func (p *DynamicPruner) Release() {
	p.StaticPruner.Release()
	p.mapping = nil
	p.added = nil
	p.records = nil
	p.replaying = false
	p.allowBuild = false
	p.rebuild.reset()
}

// RebuildState returns the state of the incremental rebuild.
func (p *DynamicPruner) RebuildState() RebuildState {
	return p.rebuild.state
}

// PendingObjects returns the number of objects not yet inserted in the
// tree.
func (p *DynamicPruner) PendingObjects() int {
	return len(p.added)
}

// SetRebuildRateHint sets the number of ticks a full rebuild should
// take. Three of those ticks are spent on setup, start and swap.
func (p *DynamicPruner) SetRebuildRateHint(ticks uint32) error {
	if ticks <= 3 {
		return ErrInvalidRateHint
	}
	p.rebuild.rateHint = ticks - 3
	p.rebuild.adaptiveTerm = 0
	return nil
}

// Stats returns rebuild statistics.
func (p *DynamicPruner) Stats() RebuildStats {
	stats := p.rebuild.stats
	stats.State = p.rebuild.state
	stats.Objects = p.pool.Len()
	stats.Pending = len(p.added)
	stats.AdaptiveTerm = p.rebuild.adaptiveTerm
	if p.tree != nil {
		stats.TreeNodes = p.tree.NumNodes()
	}
	return stats
}

// Build the tree synchronously if it does not exist yet.
func (p *DynamicPruner) ensureTree() *aabbtree.Tree {
	tree := p.buildIfNeeded()
	p.computeMapping(0)
	return tree
}

func (p *DynamicPruner) Cull(planes []types.Plane, visit CullVisitor) {
	instrumentQuery(p.opts.Name, "cull")
	tree := p.ensureTree()

	mask := aabbtree.PlaneMask(len(planes))
	for _, obj := range p.added {
		if outMask, overlap := aabbtree.PlanesBoxOverlap(p.pool.boxes[obj.handle], planes, mask); overlap {
			visit(obj, outMask != 0)
		}
	}

	if tree != nil {
		p.cullTree(tree, planes, visit)
	}
}

func (p *DynamicPruner) Stab(origin, dir types.Vec3, maxDist float32, visit StabVisitor) {
	instrumentQuery(p.opts.Name, "stab")
	tree := p.ensureTree()

	if len(p.added) != 0 {
		ray := aabbtree.NewRayCollider(origin, dir, maxDist)
		for _, obj := range p.added {
			if !ray.Overlaps(p.pool.boxes[obj.handle]) {
				continue
			}
			dist := ray.MaxDist()
			switch visit(obj, &dist) {
			case aabbtree.StabStop:
				return
			case aabbtree.StabUpdateMaxDist:
				ray.SetMaxDist(dist)
			}
		}
		maxDist = ray.MaxDist()
	}

	if tree != nil {
		p.stabTree(tree, origin, dir, maxDist, visit)
	}
}

func (p *DynamicPruner) OverlapBox(box types.BBox, visit OverlapVisitor) {
	instrumentQuery(p.opts.Name, "overlap_box")
	tree := p.ensureTree()

	for _, obj := range p.added {
		if box.Overlaps(p.pool.boxes[obj.handle]) && !visit(obj) {
			return
		}
	}
	if tree != nil {
		tree.OverlapBox(box, p.overlapAdapter(visit))
	}
}

func (p *DynamicPruner) OverlapSphere(center types.Vec3, radius float32, visit OverlapVisitor) {
	instrumentQuery(p.opts.Name, "overlap_sphere")
	tree := p.ensureTree()

	sqRadius := radius * radius
	for _, obj := range p.added {
		if p.pool.boxes[obj.handle].SqDistance(center) <= sqRadius && !visit(obj) {
			return
		}
	}
	if tree != nil {
		tree.OverlapSphere(center, radius, p.overlapAdapter(visit))
	}
}
