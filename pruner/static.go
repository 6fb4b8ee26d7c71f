package pruner

import (
	"time"

	"github.com/chewxy/math32"

	"github.com/achilleasa/pruner/aabbtree"
	"github.com/achilleasa/pruner/log"
	"github.com/achilleasa/pruner/types"
)

// StaticPruner owns a pool of objects and a tree that is discarded on
// every mutation and rebuilt lazily by the next query or Tick.
type StaticPruner struct {
	opts   Options
	logger log.Logger

	pool Pool
	tree *aabbtree.Tree
}

// NewStaticPruner creates a static pruner.
func NewStaticPruner(opts Options) *StaticPruner {
	opts = opts.withDefaults()
	return &StaticPruner{
		opts:   opts,
		logger: log.New("pruner"),
	}
}

func (p *StaticPruner) Name() string {
	return p.opts.Name
}

func (p *StaticPruner) Add(obj *Object, box types.BBox) error {
	if err := p.pool.Add(obj, box, nil); err != nil {
		return err
	}
	p.tree = nil
	return nil
}

func (p *StaticPruner) Remove(obj *Object) error {
	if err := p.pool.Remove(obj, nil); err != nil {
		return err
	}
	p.tree = nil
	return nil
}

func (p *StaticPruner) Update(obj *Object, box types.BBox) error {
	if err := p.pool.Update(obj, box); err != nil {
		return err
	}
	p.tree = nil
	return nil
}

// Tick eagerly builds the tree if it was discarded.
func (p *StaticPruner) Tick() {
	p.buildIfNeeded()
	instrumentObjects(p.opts.Name, p.pool.Len(), 0)
}

func (p *StaticPruner) Len() int {
	return p.pool.Len()
}

// Box returns the current box of a registered object.
func (p *StaticPruner) Box(obj *Object) (types.BBox, error) {
	if !p.pool.Contains(obj) {
		return types.BBox{}, ErrObjectNotRegistered
	}
	return p.pool.Box(obj.handle), nil
}

// Visit invokes fn for every registered object until fn returns false.
func (p *StaticPruner) Visit(fn func(obj *Object, box types.BBox) bool) {
	for h, obj := range p.pool.objects {
		if !fn(obj, p.pool.boxes[h]) {
			return
		}
	}
}

// Tree returns the current tree or nil if it has not been built.
func (p *StaticPruner) Tree() *aabbtree.Tree {
	return p.tree
}

// Release unregisters all objects and drops the tree.
func (p *StaticPruner) Release() {
	p.pool.Release()
	p.tree = nil
}

func (p *StaticPruner) buildIfNeeded() *aabbtree.Tree {
	if p.tree != nil || p.pool.Len() == 0 {
		return p.tree
	}

	start := time.Now()
	tree := aabbtree.NewTree()
	if err := tree.Build(aabbtree.NewBoxBuilder(p.pool.Boxes(), p.opts.Build)); err != nil {
		p.logger.Errorf("[%s] tree build failed: %s", p.opts.Name, err.Error())
		return nil
	}
	p.tree = tree
	instrumentTreeBuild(p.opts.Name, start)
	p.logger.Debugf("[%s] built tree over %d objects (%d nodes)", p.opts.Name, p.pool.Len(), tree.NumNodes())
	return tree
}

func (p *StaticPruner) Cull(planes []types.Plane, visit CullVisitor) {
	instrumentQuery(p.opts.Name, "cull")
	if tree := p.buildIfNeeded(); tree != nil {
		p.cullTree(tree, planes, visit)
	}
}

func (p *StaticPruner) Stab(origin, dir types.Vec3, maxDist float32, visit StabVisitor) {
	instrumentQuery(p.opts.Name, "stab")
	if tree := p.buildIfNeeded(); tree != nil {
		p.stabTree(tree, origin, dir, maxDist, visit)
	}
}

func (p *StaticPruner) OverlapBox(box types.BBox, visit OverlapVisitor) {
	instrumentQuery(p.opts.Name, "overlap_box")
	if tree := p.buildIfNeeded(); tree != nil {
		tree.OverlapBox(box, p.overlapAdapter(visit))
	}
}

func (p *StaticPruner) OverlapSphere(center types.Vec3, radius float32, visit OverlapVisitor) {
	instrumentQuery(p.opts.Name, "overlap_sphere")
	if tree := p.buildIfNeeded(); tree != nil {
		tree.OverlapSphere(center, radius, p.overlapAdapter(visit))
	}
}

func (p *StaticPruner) cullTree(tree *aabbtree.Tree, planes []types.Plane, visit CullVisitor) {
	tree.TestAgainstPlanes(planes, aabbtree.PlaneMask(len(planes)), func(prims []uint32, needsClipping bool) {
		for _, prim := range prims {
			if prim != aabbtree.InvalidIndex {
				visit(p.pool.objects[prim], needsClipping)
			}
		}
	})
}

// Stab the tree using ray mode for infinite rays and closest-hit
// ordering for segments. Returns false if the visitor stopped the query.
func (p *StaticPruner) stabTree(tree *aabbtree.Tree, origin, dir types.Vec3, maxDist float32, visit StabVisitor) bool {
	stopped := false
	cb := func(prims []uint32, dist *float32) aabbtree.StabStatus {
		status := aabbtree.StabContinue
		for _, prim := range prims {
			if prim == aabbtree.InvalidIndex {
				continue
			}
			switch visit(p.pool.objects[prim], dist) {
			case aabbtree.StabStop:
				stopped = true
				return aabbtree.StabStop
			case aabbtree.StabUpdateMaxDist:
				status = aabbtree.StabUpdateMaxDist
			}
		}
		return status
	}

	if maxDist == math32.MaxFloat32 {
		tree.Stab(origin, dir, maxDist, cb)
	} else {
		tree.ClosestHit(origin, dir, maxDist, cb)
	}
	return !stopped
}

func (p *StaticPruner) overlapAdapter(visit OverlapVisitor) aabbtree.OverlapVisitor {
	return func(prims []uint32) bool {
		for _, prim := range prims {
			if prim == aabbtree.InvalidIndex {
				continue
			}
			if !visit(p.pool.objects[prim]) {
				return false
			}
		}
		return true
	}
}
