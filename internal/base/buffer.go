package base

import (
	"fmt"
	"math"
	"unsafe"

	"blockframe/internal/arena"
)

// Buffer is a fixed-length homogeneous column segment. Buffers carry no
// ownership information themselves; sharing is tracked one level up, by the
// reference sets attached to blocks. By convention a Buffer is never written
// through once it may be aliased, except via the copy-on-write path.
type Buffer interface {
	Len() int
	Dtype() Dtype

	// Get returns the element at position i. Panics on out-of-range i,
	// like a slice access.
	Get(i int) any

	// Set writes the element at position i in place. Callers must hold the
	// buffer exclusively.
	Set(i int, v any) error

	// Clone copies the contents into fresh storage.
	Clone() Buffer

	// Slice returns a view of [lo, hi) aliasing the same storage.
	Slice(lo, hi int) Buffer

	// Take materializes the elements at idx into fresh storage. A negative
	// index yields the dtype's fill value (NaN for float64, the zero value
	// otherwise).
	Take(idx []int) Buffer

	dataRange() (lo, hi uintptr)
}

type buffer[T any] struct {
	dt   Dtype
	vals []T
	fill T

	// Keeps the arena slab mapped while vals points into it.
	region *arena.Region
}

// Int64s wraps vals without copying.
func Int64s(vals []int64) Buffer {
	return &buffer[int64]{dt: Int64, vals: vals}
}

// Float64s wraps vals without copying. Missing values fill as NaN.
func Float64s(vals []float64) Buffer {
	return &buffer[float64]{dt: Float64, vals: vals, fill: math.NaN()}
}

// Bools wraps vals without copying.
func Bools(vals []bool) Buffer {
	return &buffer[bool]{dt: Bool, vals: vals}
}

// Strings wraps vals without copying.
func Strings(vals []string) Buffer {
	return &buffer[string]{dt: String, vals: vals}
}

// Make allocates a zero-filled buffer of n elements (NaN-filled for float64).
func Make(dt Dtype, n int) Buffer {
	switch dt {
	case Int64:
		vals, region := newVals[int64](dt, n)
		return &buffer[int64]{dt: dt, vals: vals, region: region}
	case Float64:
		vals, region := newVals[float64](dt, n)
		nan := math.NaN()
		for i := range vals {
			vals[i] = nan
		}
		return &buffer[float64]{dt: dt, vals: vals, fill: nan, region: region}
	case Bool:
		vals, region := newVals[bool](dt, n)
		return &buffer[bool]{dt: dt, vals: vals, region: region}
	case String:
		return &buffer[string]{dt: dt, vals: make([]string, n)}
	default:
		panic(fmt.Sprintf("base: Make with unknown dtype %d", dt))
	}
}

// newVals allocates element storage, from an arena slab when the dtype is
// fixed-width and the size crosses the slab threshold.
func newVals[T any](dt Dtype, n int) ([]T, *arena.Region) {
	var zero T
	size := int(unsafe.Sizeof(zero)) * n
	if dt.FixedWidth() && size >= arena.SlabThreshold {
		if r, err := arena.Map(size); err == nil {
			p := unsafe.Pointer(unsafe.SliceData(r.Bytes()))
			return unsafe.Slice((*T)(p), n), r
		}
	}
	return make([]T, n), nil
}

func (b *buffer[T]) Len() int     { return len(b.vals) }
func (b *buffer[T]) Dtype() Dtype { return b.dt }

func (b *buffer[T]) Get(i int) any { return b.vals[i] }

func (b *buffer[T]) Set(i int, v any) error {
	if i < 0 || i >= len(b.vals) {
		return fmt.Errorf("%w: position %d in buffer of length %d", ErrOutOfBounds, i, len(b.vals))
	}
	tv, ok := v.(T)
	if !ok {
		return fmt.Errorf("%w: %T written to %s buffer", ErrDtypeMismatch, v, b.dt)
	}
	b.vals[i] = tv
	return nil
}

func (b *buffer[T]) Clone() Buffer {
	vals, region := newVals[T](b.dt, len(b.vals))
	copy(vals, b.vals)
	return &buffer[T]{dt: b.dt, vals: vals, fill: b.fill, region: region}
}

func (b *buffer[T]) Slice(lo, hi int) Buffer {
	return &buffer[T]{dt: b.dt, vals: b.vals[lo:hi], fill: b.fill, region: b.region}
}

func (b *buffer[T]) Take(idx []int) Buffer {
	vals, region := newVals[T](b.dt, len(idx))
	for i, j := range idx {
		if j < 0 {
			vals[i] = b.fill
		} else {
			vals[i] = b.vals[j]
		}
	}
	return &buffer[T]{dt: b.dt, vals: vals, fill: b.fill, region: region}
}

func (b *buffer[T]) dataRange() (uintptr, uintptr) {
	if len(b.vals) == 0 {
		return 0, 0
	}
	lo := uintptr(unsafe.Pointer(unsafe.SliceData(b.vals)))
	return lo, lo + uintptr(len(b.vals))*unsafe.Sizeof(b.vals[0])
}

// SharesMemory reports whether the storage of a and b overlaps. Used by
// diagnostics and tests to assert sharing state; never consulted on the
// mutation path.
func SharesMemory(a, b Buffer) bool {
	aLo, aHi := a.dataRange()
	bLo, bHi := b.dataRange()
	if aLo == aHi || bLo == bHi {
		return false
	}
	return aLo < bHi && bLo < aHi
}

// Concat materializes the concatenation of bufs, which must share a dtype.
func Concat(bufs []Buffer) (Buffer, error) {
	if len(bufs) == 0 {
		return nil, ErrEmptyConcat
	}
	dt := bufs[0].Dtype()
	total := 0
	for _, b := range bufs {
		if b.Dtype() != dt {
			return nil, fmt.Errorf("%w: concat of %s and %s", ErrDtypeMismatch, dt, b.Dtype())
		}
		total += b.Len()
	}
	out := Make(dt, total)
	pos := 0
	for _, b := range bufs {
		for i := 0; i < b.Len(); i++ {
			if err := out.Set(pos, b.Get(i)); err != nil {
				return nil, err
			}
			pos++
		}
	}
	return out, nil
}
