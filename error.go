package blockframe

import (
	"errors"

	"blockframe/internal/base"
)

var (
	ErrColumnNotFound  = errors.New("column not found")
	ErrDuplicateColumn = errors.New("duplicate column name")
	ErrLabelNotFound   = errors.New("label not found")
	ErrEmptyFrame      = errors.New("frame has no columns")
	ErrLengthMismatch  = errors.New("length mismatch")
	ErrShapeMismatch   = errors.New("frames have different shapes")
	ErrUnsupportedType = errors.New("unsupported column value type")

	// ErrIntegrity marks an internal-consistency violation in the
	// column-to-block mapping. It is a programmer error: callers should
	// treat it as fatal, not handle it.
	ErrIntegrity = errors.New("block mapping integrity violation")

	ErrDtypeMismatch = base.ErrDtypeMismatch
	ErrOutOfBounds   = base.ErrOutOfBounds
)
