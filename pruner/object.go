package pruner

import "math"

// Handle identifies the pool slot of an object. Handles change when the
// pool compacts after a removal.
type Handle uint32

// InvalidHandle is the handle of objects that are not registered.
const InvalidHandle Handle = math.MaxUint32

// Object is an entry in a pruner. Data is an opaque user payload.
type Object struct {
	Data interface{}

	handle Handle
}

// NewObject creates an unregistered object.
func NewObject(data interface{}) *Object {
	return &Object{Data: data, handle: InvalidHandle}
}

// Handle returns the current pool slot of the object.
func (o *Object) Handle() Handle {
	return o.handle
}

// Registered returns true if the object belongs to a pool.
func (o *Object) Registered() bool {
	return o.handle != InvalidHandle
}
