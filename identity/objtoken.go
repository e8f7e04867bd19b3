package identity

import "sync/atomic"

type refObj[T any] struct {
	refCount  atomic.Int32
	value     T
	onDestroy func(T)
}

// ObjToken is a shared-ownership handle. Copying the struct does not add an
// owner; call Ref for that. The Release that drops the last owner runs the
// destructor on the calling goroutine before returning.
type ObjToken[T any] struct {
	obj *refObj[T]
}

// NewObjToken wraps value with a single owner. onDestroy may be nil.
func NewObjToken[T any](value T, onDestroy func(T)) ObjToken[T] {
	var obj = &refObj[T]{value: value, onDestroy: onDestroy}
	obj.refCount.Store(1)
	return ObjToken[T]{obj}
}

func (token ObjToken[T]) IsNil() bool {
	return token.obj == nil
}

// Get returns the payload. It must not be called after the last Release.
func (token ObjToken[T]) Get() T {
	return token.obj.value
}

func (token ObjToken[T]) RefCount() int {
	if token.obj == nil {
		return 0
	}

	return int(token.obj.refCount.Load())
}

func (token ObjToken[T]) Ref() ObjToken[T] {
	if token.obj != nil {
		token.obj.refCount.Add(1)
	}

	return token
}

// Release drops this owner and clears the handle.
func (token *ObjToken[T]) Release() {
	var obj = token.obj
	token.obj = nil

	if obj == nil {
		return
	}

	if obj.refCount.Add(-1) == 0 {
		var value = obj.value
		var zero T
		obj.value = zero

		if obj.onDestroy != nil {
			obj.onDestroy(value)
		}
	}
}
