package base

import "errors"

var (
	ErrDtypeMismatch = errors.New("value does not match buffer dtype")
	ErrOutOfBounds   = errors.New("position out of bounds")
	ErrEmptyConcat   = errors.New("concat of zero buffers")
)
