package aabbtree

import "errors"

var (
	ErrNilBuilder      = errors.New("aabbtree: nil builder")
	ErrNoPrimitives    = errors.New("aabbtree: builder has no primitives")
	ErrBuildNotStarted = errors.New("aabbtree: progressive build was not started")
)
