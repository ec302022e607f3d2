package base

// Dtype identifies the element type of a Buffer.
type Dtype uint8

const (
	Int64 Dtype = iota + 1
	Float64
	Bool
	String
)

func (d Dtype) String() string {
	switch d {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case Bool:
		return "bool"
	case String:
		return "string"
	default:
		return "unknown"
	}
}

// FixedWidth reports whether elements have a pointer-free fixed-size layout.
// Only fixed-width buffers may live in arena slabs: the collector does not
// scan mapped memory, so anything holding pointers stays on the heap.
func (d Dtype) FixedWidth() bool {
	return d == Int64 || d == Float64 || d == Bool
}
