package pruner

import "errors"

var (
	ErrObjectRegistered    = errors.New("pruner: object is already registered")
	ErrObjectNotRegistered = errors.New("pruner: object is not registered with this pruner")
	ErrUnknownKind         = errors.New("pruner: unknown pruner kind")
	ErrInvalidRateHint     = errors.New("pruner: rebuild rate hint must be greater than 3")
)
