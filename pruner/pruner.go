package pruner

import (
	"github.com/achilleasa/pruner/aabbtree"
	"github.com/achilleasa/pruner/types"
)

// CullVisitor receives every object that survives plane culling.
// needsClipping is false for objects completely inside all planes.
type CullVisitor func(obj *Object, needsClipping bool)

// StabVisitor receives every object whose box is hit by a ray. The
// visitor may lower *maxDist and return aabbtree.StabUpdateMaxDist to
// shrink the remaining query, or aabbtree.StabStop to end it.
type StabVisitor func(obj *Object, maxDist *float32) aabbtree.StabStatus

// OverlapVisitor receives every object overlapping a query volume.
// Returning false ends the query.
type OverlapVisitor func(obj *Object) bool

// Pruner is a spatial index over a mutable set of objects. Pruners are
// not safe for concurrent use; callers serialize mutations, queries and
// Tick calls.
type Pruner interface {
	Name() string

	Add(obj *Object, box types.BBox) error
	Remove(obj *Object) error
	Update(obj *Object, box types.BBox) error

	// Tick performs deferred maintenance work such as tree builds.
	Tick()

	Cull(planes []types.Plane, visit CullVisitor)
	Stab(origin, dir types.Vec3, maxDist float32, visit StabVisitor)
	OverlapBox(box types.BBox, visit OverlapVisitor)
	OverlapSphere(center types.Vec3, radius float32, visit OverlapVisitor)

	Len() int
	Release()
}

// New creates the pruner selected by opts.Kind.
func New(opts Options) (Pruner, error) {
	opts = opts.withDefaults()
	switch opts.Kind {
	case KindStatic:
		return NewStaticPruner(opts), nil
	case KindDynamic:
		return NewDynamicPruner(opts), nil
	}
	return nil, ErrUnknownKind
}
