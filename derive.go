package blockframe

import (
	"fmt"
	"runtime"
	"slices"

	"github.com/RoaringBitmap/roaring/v2"
	"golang.org/x/sync/errgroup"

	"blockframe/internal/base"
	"blockframe/internal/block"
)

// DeriveKind names a derivation operation.
type DeriveKind int

const (
	DeriveShallowCopy DeriveKind = iota
	DeriveRename
	DeriveSetAxis
	DeriveRenameAxis
	DeriveReindexSame // reindex whose target labels match the source
	DeriveSelectColumns
	DeriveSliceRows
	DeriveTake
	DeriveFilter
	DeriveReindexFill // reindex introducing labels that need fill
	DeriveConcat
)

// Classification declares how a derivation relates to the source buffers.
// Getting this wrong is the worst defect the engine can have: a
// data-rearranging operation marked label-only silently corrupts siblings,
// a label-only operation marked data-rearranging copies for nothing. The
// table below is the single place every kind declares itself; Classify
// refuses kinds that have not.
type Classification int

const (
	// LabelOnly operations touch no buffer contents. The derived blocks
	// alias the source buffers and both sides register the sharing.
	LabelOnly Classification = iota

	// DataRearranging operations materialize new buffer contents. No
	// sharing occurs and no reference set is attached.
	DataRearranging
)

var classOf = map[DeriveKind]Classification{
	DeriveShallowCopy:   LabelOnly,
	DeriveRename:        LabelOnly,
	DeriveSetAxis:       LabelOnly,
	DeriveRenameAxis:    LabelOnly,
	DeriveReindexSame:   LabelOnly,
	DeriveSelectColumns: LabelOnly,
	DeriveSliceRows:     LabelOnly,
	DeriveTake:          DataRearranging,
	DeriveFilter:        DataRearranging,
	DeriveReindexFill:   DataRearranging,
	DeriveConcat:        DataRearranging,
}

// Classify returns the declared classification of kind.
func (k DeriveKind) Classify() Classification {
	c, ok := classOf[k]
	if !ok {
		panic(fmt.Sprintf("blockframe: derivation kind %d has no declared classification", int(k)))
	}
	return c
}

func (k DeriveKind) String() string {
	switch k {
	case DeriveShallowCopy:
		return "shallow-copy"
	case DeriveRename:
		return "rename"
	case DeriveSetAxis:
		return "set-axis"
	case DeriveRenameAxis:
		return "rename-axis"
	case DeriveReindexSame:
		return "reindex-same"
	case DeriveSelectColumns:
		return "select-columns"
	case DeriveSliceRows:
		return "slice-rows"
	case DeriveTake:
		return "take"
	case DeriveFilter:
		return "filter"
	case DeriveReindexFill:
		return "reindex-fill"
	case DeriveConcat:
		return "concat"
	default:
		return fmt.Sprintf("derive(%d)", int(k))
	}
}

// Derive produces a manager for a whole-table relabeling operation of the
// given kind: the column set, order, and row extent are unchanged, only
// labels differ. Label-only kinds share every buffer per the policy;
// data-rearranging kinds deep-copy.
func (m *Manager) Derive(kind DeriveKind) *Manager {
	if kind.Classify() == DataRearranging {
		return m.Copy(true)
	}
	blocks := make([]*block.Block, len(m.blocks))
	for i, b := range m.blocks {
		blocks[i] = m.policy.relabelBlock(b, slices.Clone(b.Placement()))
	}
	return m.child(blocks, slices.Clone(m.locs), m.nrows)
}

// SelectColumns derives a manager over a subset (or reordering) of logical
// columns. srcs maps each output column to a source column, or -1 for a new
// column materialized as a NaN-filled float64 buffer (the reindex-columns
// fill path). Surviving columns share buffers with the source.
func (m *Manager) SelectColumns(srcs []int) (*Manager, error) {
	if len(srcs) == 0 {
		return nil, ErrEmptyFrame
	}
	type pick struct {
		positions []int // buffer positions within the source block
		out       []int // output logical columns
	}
	picked := make(map[int]*pick) // source block index -> picks
	var blockOrder []int
	var filled []int // output columns backed by fresh fill buffers

	for out, src := range srcs {
		if src < 0 {
			filled = append(filled, out)
			continue
		}
		if src >= len(m.locs) {
			return nil, fmt.Errorf("%w: source column %d of %d", ErrOutOfBounds, src, len(m.locs))
		}
		loc := m.locs[src]
		p, ok := picked[loc.Block]
		if !ok {
			p = &pick{}
			picked[loc.Block] = p
			blockOrder = append(blockOrder, loc.Block)
		}
		p.positions = append(p.positions, loc.Pos)
		p.out = append(p.out, out)
	}

	blocks := make([]*block.Block, 0, len(blockOrder)+len(filled))
	locs := make([]Loc, len(srcs))
	for _, bi := range blockOrder {
		p := picked[bi]
		nb := m.policy.selectBlock(m.blocks[bi], p.positions, slices.Clone(p.out))
		for pos, out := range p.out {
			locs[out] = Loc{Block: len(blocks), Pos: pos}
		}
		blocks = append(blocks, nb)
	}
	for _, out := range filled {
		blk, err := block.New([]base.Buffer{base.Make(base.Float64, m.nrows)}, []int{out})
		if err != nil {
			return nil, err
		}
		locs[out] = Loc{Block: len(blocks), Pos: 0}
		blocks = append(blocks, blk)
	}
	return m.child(blocks, locs, m.nrows), nil
}

// SliceRows derives a manager over rows [lo, hi). The sliced buffers alias
// the source storage, so sharing is registered (or, under eager copy, the
// slices are plain untracked views).
func (m *Manager) SliceRows(lo, hi int) (*Manager, error) {
	if lo < 0 || hi > m.nrows || lo > hi {
		return nil, fmt.Errorf("%w: rows [%d, %d) of %d", ErrOutOfBounds, lo, hi, m.nrows)
	}
	blocks := make([]*block.Block, len(m.blocks))
	for i, b := range m.blocks {
		blocks[i] = m.policy.sliceBlock(b, lo, hi)
	}
	return m.child(blocks, slices.Clone(m.locs), hi-lo), nil
}

// Take materializes the rows at idx, in order. A negative index fills with
// the dtype fill value; this is the row-reindex fill path. The result
// never aliases the source.
func (m *Manager) Take(idx []int) (*Manager, error) {
	for _, j := range idx {
		if j >= m.nrows {
			return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfBounds, j, m.nrows)
		}
	}
	blocks := make([]*block.Block, len(m.blocks))
	for i, b := range m.blocks {
		blocks[i] = b.Take(idx)
	}
	return m.child(blocks, slices.Clone(m.locs), len(idx)), nil
}

// Filter materializes the rows whose ids are set in sel, in ascending
// order. The result never aliases the source.
func (m *Manager) Filter(sel *roaring.Bitmap) (*Manager, error) {
	idx := make([]int, 0, sel.GetCardinality())
	it := sel.Iterator()
	for it.HasNext() {
		idx = append(idx, int(it.Next()))
	}
	return m.Take(idx)
}

// ConcatManagers materializes the row-wise concatenation of ms, which must
// agree on column count and dtypes. Output blocks are fresh single-column
// buffers built in parallel; nothing aliases the inputs.
func ConcatManagers(ms ...*Manager) (*Manager, error) {
	if len(ms) == 0 {
		return nil, ErrEmptyFrame
	}
	first := ms[0]
	ncols := first.NumColumns()
	nrows := 0
	for _, m := range ms {
		if m.NumColumns() != ncols {
			return nil, fmt.Errorf("%w: concat of %d and %d columns", ErrShapeMismatch, ncols, m.NumColumns())
		}
		nrows += m.nrows
	}

	bufs := make([]base.Buffer, ncols)
	var g errgroup.Group
	g.SetLimit(runtime.GOMAXPROCS(0))
	for col := 0; col < ncols; col++ {
		g.Go(func() error {
			parts := make([]base.Buffer, len(ms))
			for i, m := range ms {
				buf, err := m.BufferFor(col)
				if err != nil {
					return err
				}
				parts[i] = buf
			}
			out, err := base.Concat(parts)
			if err != nil {
				return err
			}
			bufs[col] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	blocks := make([]*block.Block, ncols)
	locs := make([]Loc, ncols)
	for col, buf := range bufs {
		blk, err := block.New([]base.Buffer{buf}, []int{col})
		if err != nil {
			return nil, err
		}
		blocks[col] = blk
		locs[col] = Loc{Block: col, Pos: 0}
	}
	return first.child(blocks, locs, nrows), nil
}
