package pruner

import "github.com/achilleasa/pruner/types"

// SwapObserver is notified synchronously whenever the pool moves an object
// between slots. Adds report (InvalidHandle, new), removals report
// (old, InvalidHandle) and compaction reports (last, freed).
type SwapObserver interface {
	OnSwap(oldSlot, newSlot Handle)
}

// Pool is a dense array of objects and their world boxes. Removing an
// object moves the last object into the freed slot.
type Pool struct {
	objects []*Object
	boxes   []types.BBox
}

// Add appends obj to the pool.
func (p *Pool) Add(obj *Object, box types.BBox, observer SwapObserver) error {
	if obj.handle != InvalidHandle {
		return ErrObjectRegistered
	}

	obj.handle = Handle(len(p.objects))
	p.objects = append(p.objects, obj)
	p.boxes = append(p.boxes, box)

	if observer != nil {
		observer.OnSwap(InvalidHandle, obj.handle)
	}
	return nil
}

// Remove deletes obj from the pool, compacting the storage.
func (p *Pool) Remove(obj *Object, observer SwapObserver) error {
	if !p.Contains(obj) {
		return ErrObjectNotRegistered
	}

	handle := obj.handle
	if observer != nil {
		observer.OnSwap(handle, InvalidHandle)
	}

	last := Handle(len(p.objects) - 1)
	if handle != last {
		moved := p.objects[last]
		p.objects[handle] = moved
		p.boxes[handle] = p.boxes[last]
		moved.handle = handle
		if observer != nil {
			observer.OnSwap(last, handle)
		}
	}

	p.objects[last] = nil
	p.objects = p.objects[:last]
	p.boxes = p.boxes[:last]
	obj.handle = InvalidHandle
	return nil
}

// Update replaces the stored box of obj.
func (p *Pool) Update(obj *Object, box types.BBox) error {
	if !p.Contains(obj) {
		return ErrObjectNotRegistered
	}
	p.boxes[obj.handle] = box
	return nil
}

// Contains returns true if obj is registered with this pool.
func (p *Pool) Contains(obj *Object) bool {
	h := obj.handle
	return h != InvalidHandle && int(h) < len(p.objects) && p.objects[h] == obj
}

func (p *Pool) Len() int {
	return len(p.objects)
}

func (p *Pool) Object(h Handle) *Object {
	return p.objects[h]
}

func (p *Pool) Box(h Handle) types.BBox {
	return p.boxes[h]
}

// Boxes returns the live box array indexed by handle.
func (p *Pool) Boxes() []types.BBox {
	return p.boxes
}

func (p *Pool) Objects() []*Object {
	return p.objects
}

// Release unregisters every object.
func (p *Pool) Release() {
	for _, obj := range p.objects {
		obj.handle = InvalidHandle
	}
	p.objects = nil
	p.boxes = nil
}
