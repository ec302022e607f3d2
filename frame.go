package blockframe

import (
	"fmt"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"

	"blockframe/internal/base"
)

// Column is one named input column for frame construction. Data must be a
// []int64, []float64, []bool, or []string; the frame takes ownership of
// the slice.
type Column struct {
	Name string
	Data any
}

// Frame is a logical table: column and row indexes over exactly one
// Manager, which the frame exclusively owns. Derivation methods return new
// frames whose managers share or materialize buffers according to the
// declared classification of each operation.
type Frame struct {
	cols *Index
	rows *Index
	mgr  *Manager
	opts Options
}

// NewFrame builds a frame from columns with a default positional row index.
func NewFrame(cols []Column, opts ...Option) (*Frame, error) {
	o := DefaultOptions()
	for _, opt := range opts {
		opt(&o)
	}

	names := make([]string, len(cols))
	bufs := make([]base.Buffer, len(cols))
	for i, c := range cols {
		if slices.Contains(names[:i], c.Name) {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateColumn, c.Name)
		}
		names[i] = c.Name
		buf, err := buildBuffer(c.Data)
		if err != nil {
			return nil, fmt.Errorf("column %q: %w", c.Name, err)
		}
		bufs[i] = buf
	}

	mgr, err := NewManager(bufs, o)
	if err != nil {
		return nil, err
	}
	return &Frame{
		cols: newIndexSized(names, o.locCacheSize),
		rows: RangeIndex(mgr.NumRows()),
		mgr:  mgr,
		opts: o,
	}, nil
}

func buildBuffer(data any) (base.Buffer, error) {
	switch vals := data.(type) {
	case []int64:
		return base.Int64s(vals), nil
	case []float64:
		return base.Float64s(vals), nil
	case []bool:
		return base.Bools(vals), nil
	case []string:
		return base.Strings(vals), nil
	default:
		return nil, fmt.Errorf("%w: %T", ErrUnsupportedType, data)
	}
}

func (f *Frame) child(cols, rows *Index, mgr *Manager) *Frame {
	return &Frame{cols: cols, rows: rows, mgr: mgr, opts: f.opts}
}

func (f *Frame) colIndex(labels []string) *Index {
	return newIndexSized(labels, f.opts.locCacheSize)
}

// columnLoc resolves a column label, surfacing ErrColumnNotFound.
func (f *Frame) columnLoc(name string) (int, error) {
	col, err := f.cols.GetLoc(name)
	if err != nil {
		return -1, fmt.Errorf("%w: %q", ErrColumnNotFound, name)
	}
	return col, nil
}

func (f *Frame) NumRows() int        { return f.mgr.NumRows() }
func (f *Frame) NumColumns() int     { return f.mgr.NumColumns() }
func (f *Frame) Columns() []string   { return f.cols.Labels() }
func (f *Frame) RowIndex() *Index    { return f.rows }
func (f *Frame) ColumnIndex() *Index { return f.cols }

// Manager exposes the underlying manager for diagnostics and tests.
func (f *Frame) Manager() *Manager { return f.mgr }

// VerifyIntegrity checks the manager's column-to-block mapping.
func (f *Frame) VerifyIntegrity() error { return f.mgr.VerifyIntegrity() }

// Copy returns an independent table. Deep copies never share a buffer with
// the source; shallow copies share every buffer until the first mutation on
// either side (under the copy-on-write policy).
func (f *Frame) Copy(deep bool) *Frame {
	return f.child(f.cols, f.rows, f.mgr.Copy(deep))
}

// Rename relabels columns through mapper. Label-only: buffers stay shared
// until mutation.
func (f *Frame) Rename(mapper func(string) string) *Frame {
	return f.child(f.cols.Rename(mapper), f.rows, f.mgr.Derive(DeriveRename))
}

// AddPrefix prepends prefix to every column label.
func (f *Frame) AddPrefix(prefix string) *Frame {
	return f.Rename(func(l string) string { return prefix + l })
}

// AddSuffix appends suffix to every column label.
func (f *Frame) AddSuffix(suffix string) *Frame {
	return f.Rename(func(l string) string { return l + suffix })
}

// SetAxis replaces the row labels. Label-only.
func (f *Frame) SetAxis(labels []string) (*Frame, error) {
	if len(labels) != f.NumRows() {
		return nil, fmt.Errorf("%w: %d labels for %d rows", ErrLengthMismatch, len(labels), f.NumRows())
	}
	return f.child(f.cols, NewIndex(labels), f.mgr.Derive(DeriveSetAxis)), nil
}

// RenameAxis renames the row index itself, labels unchanged. Label-only.
func (f *Frame) RenameAxis(name string) *Frame {
	return f.child(f.cols, f.rows.WithName(name), f.mgr.Derive(DeriveRenameAxis))
}

// Head returns the first n rows (fewer if the frame is shorter). The rows
// alias the source buffers.
func (f *Frame) Head(n int) *Frame {
	n = min(max(n, 0), f.NumRows())
	mgr, err := f.mgr.SliceRows(0, n)
	if err != nil {
		panic(err) // unreachable: bounds clamped
	}
	return f.child(f.cols, f.rows.Slice(0, n), mgr)
}

// Tail returns the last n rows (fewer if the frame is shorter).
func (f *Frame) Tail(n int) *Frame {
	n = min(max(n, 0), f.NumRows())
	lo := f.NumRows() - n
	mgr, err := f.mgr.SliceRows(lo, f.NumRows())
	if err != nil {
		panic(err)
	}
	return f.child(f.cols, f.rows.Slice(lo, f.NumRows()), mgr)
}

// Drop removes the named columns. Surviving columns stay shared.
func (f *Frame) Drop(names ...string) (*Frame, error) {
	drop := make(map[string]bool, len(names))
	for _, n := range names {
		if _, err := f.columnLoc(n); err != nil {
			return nil, err
		}
		drop[n] = true
	}
	var keep []string
	var srcs []int
	for i, l := range f.cols.labels {
		if !drop[l] {
			keep = append(keep, l)
			srcs = append(srcs, i)
		}
	}
	mgr, err := f.mgr.SelectColumns(srcs)
	if err != nil {
		return nil, err
	}
	return f.child(f.colIndex(keep), f.rows, mgr), nil
}

// Pop splits off one column. The popped single-column frame and the
// remainder both stay shared with the source until mutation.
func (f *Frame) Pop(name string) (popped, rest *Frame, err error) {
	col, err := f.columnLoc(name)
	if err != nil {
		return nil, nil, err
	}
	pm, err := f.mgr.SelectColumns([]int{col})
	if err != nil {
		return nil, nil, err
	}
	popped = f.child(f.colIndex([]string{name}), f.rows, pm)
	rest, err = f.Drop(name)
	if err != nil {
		return nil, nil, err
	}
	return popped, rest, nil
}

// ReindexColumns conforms the frame to the given column labels. Kept
// columns share buffers; labels absent from the frame become NaN-filled
// float64 columns.
func (f *Frame) ReindexColumns(labels []string) (*Frame, error) {
	srcs := make([]int, len(labels))
	for i, l := range labels {
		src, err := f.cols.GetLoc(l)
		if err != nil {
			src = -1
		}
		srcs[i] = src
	}
	mgr, err := f.mgr.SelectColumns(srcs)
	if err != nil {
		return nil, err
	}
	return f.child(f.colIndex(labels), f.rows, mgr), nil
}

// Reindex conforms the frame to the given row labels. Identical labels are
// a pure relabeling and keep sharing; anything else materializes, filling
// rows for labels the frame does not have.
func (f *Frame) Reindex(rowLabels []string) (*Frame, error) {
	if slices.Equal(rowLabels, f.rows.labels) {
		return f.child(f.cols, NewIndex(rowLabels), f.mgr.Derive(DeriveReindexSame)), nil
	}
	idx := make([]int, len(rowLabels))
	for i, l := range rowLabels {
		pos, err := f.rows.GetLoc(l)
		if err != nil {
			pos = -1
		}
		idx[i] = pos
	}
	mgr, err := f.mgr.Take(idx)
	if err != nil {
		return nil, err
	}
	return f.child(f.cols, NewIndex(rowLabels), mgr), nil
}

// Take materializes the rows at idx, in order. Never aliases the source.
func (f *Frame) Take(idx []int) (*Frame, error) {
	for _, j := range idx {
		if j < 0 || j >= f.NumRows() {
			return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfBounds, j, f.NumRows())
		}
	}
	mgr, err := f.mgr.Take(idx)
	if err != nil {
		return nil, err
	}
	return f.child(f.cols, f.rows.Take(idx), mgr), nil
}

// Filter materializes the rows whose ids are set in sel.
func (f *Frame) Filter(sel *roaring.Bitmap) (*Frame, error) {
	if n := sel.GetCardinality(); n > 0 && sel.Maximum() >= uint32(f.NumRows()) {
		return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfBounds, sel.Maximum(), f.NumRows())
	}
	idx := make([]int, 0, sel.GetCardinality())
	it := sel.Iterator()
	for it.HasNext() {
		idx = append(idx, int(it.Next()))
	}
	mgr, err := f.mgr.Take(idx)
	if err != nil {
		return nil, err
	}
	return f.child(f.cols, f.rows.Take(idx), mgr), nil
}

// At reads the value at positional (row, col).
func (f *Frame) At(row, col int) (any, error) {
	return f.mgr.ValueAt(row, col)
}

// SetAt writes v at positional (row, col), copying the owning block first
// if it is shared.
func (f *Frame) SetAt(row, col int, v any) error {
	return f.mgr.SetValueAt(row, col, v)
}

// Set writes v at (row, column label).
func (f *Frame) Set(name string, row int, v any) error {
	col, err := f.columnLoc(name)
	if err != nil {
		return err
	}
	return f.mgr.SetValueAt(row, col, v)
}

// ColumnValues copies the named column out as a slice of values.
func (f *Frame) ColumnValues(name string) ([]any, error) {
	col, err := f.columnLoc(name)
	if err != nil {
		return nil, err
	}
	buf, err := f.mgr.BufferFor(col)
	if err != nil {
		return nil, err
	}
	vals := make([]any, buf.Len())
	for i := range vals {
		vals[i] = buf.Get(i)
	}
	return vals, nil
}

// ColumnShared reports whether the block backing the named column is
// shared with another live table. Diagnostics and tests.
func (f *Frame) ColumnShared(name string) (bool, error) {
	col, err := f.columnLoc(name)
	if err != nil {
		return false, err
	}
	blk, err := f.mgr.BlockFor(col)
	if err != nil {
		return false, err
	}
	return blk.IsShared(), nil
}

// SharesMemory reports whether column aCol of a and column bCol of b are
// backed by overlapping storage. Diagnostics and tests.
func SharesMemory(a *Frame, aCol string, b *Frame, bCol string) (bool, error) {
	ac, err := a.columnLoc(aCol)
	if err != nil {
		return false, err
	}
	bc, err := b.columnLoc(bCol)
	if err != nil {
		return false, err
	}
	abuf, err := a.mgr.BufferFor(ac)
	if err != nil {
		return false, err
	}
	bbuf, err := b.mgr.BufferFor(bc)
	if err != nil {
		return false, err
	}
	return base.SharesMemory(abuf, bbuf), nil
}

// Align conforms a and b to a common row-label set: a's labels followed by
// b's extras. Sides already conforming stay shared; sides that change
// materialize with fill.
func Align(a, b *Frame) (*Frame, *Frame, error) {
	union := a.rows.Labels()
	have := make(map[string]bool, len(union))
	for _, l := range union {
		have[l] = true
	}
	for _, l := range b.rows.labels {
		if !have[l] {
			union = append(union, l)
		}
	}
	la, err := a.Reindex(union)
	if err != nil {
		return nil, nil, err
	}
	lb, err := b.Reindex(union)
	if err != nil {
		return nil, nil, err
	}
	return la, lb, nil
}

// Concat materializes the row-wise concatenation of frames, which must
// agree on column labels. The result never aliases its inputs.
func Concat(frames ...*Frame) (*Frame, error) {
	if len(frames) == 0 {
		return nil, ErrEmptyFrame
	}
	first := frames[0]
	ms := make([]*Manager, len(frames))
	rowLabels := make([]string, 0)
	for i, fr := range frames {
		if !fr.cols.Equal(first.cols) {
			return nil, fmt.Errorf("%w: concat with differing columns", ErrShapeMismatch)
		}
		ms[i] = fr.mgr
		rowLabels = append(rowLabels, fr.rows.labels...)
	}
	mgr, err := ConcatManagers(ms...)
	if err != nil {
		return nil, err
	}
	return first.child(first.cols, NewIndex(rowLabels), mgr), nil
}
