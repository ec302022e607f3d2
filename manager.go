package blockframe

import (
	"fmt"
	"runtime"
	"slices"

	"golang.org/x/sync/errgroup"

	"blockframe/internal/base"
	"blockframe/internal/block"
)

// Loc addresses one logical column: the block that stores it and the buffer
// position inside that block.
type Loc struct {
	Block int
	Pos   int
}

// Manager owns the ordered block collection backing one logical table. The
// locs slice is the authoritative logical-column -> (block, position)
// mapping and must stay consistent with the blocks' placements after every
// structural operation; VerifyIntegrity checks exactly that.
//
// Managers are not safe for concurrent use. Mutating two managers that
// share buffers from separate goroutines without external locking is
// undefined.
type Manager struct {
	blocks []*block.Block
	locs   []Loc
	nrows  int

	policy CopyPolicy
	log    Logger
}

// NewManager builds a manager with one block per column buffer. Buffers
// must all have the same length.
func NewManager(bufs []base.Buffer, opts Options) (*Manager, error) {
	if len(bufs) == 0 {
		return nil, ErrEmptyFrame
	}
	if opts.policy == nil {
		opts.policy = CopyOnWrite
	}
	if opts.logger == nil {
		opts.logger = DiscardLogger{}
	}
	nrows := bufs[0].Len()
	m := &Manager{
		blocks: make([]*block.Block, 0, len(bufs)),
		locs:   make([]Loc, len(bufs)),
		nrows:  nrows,
		policy: opts.policy,
		log:    opts.logger,
	}
	for i, buf := range bufs {
		if buf.Len() != nrows {
			return nil, fmt.Errorf("%w: column %d has %d rows, want %d", ErrLengthMismatch, i, buf.Len(), nrows)
		}
		blk, err := block.New([]base.Buffer{buf}, []int{i})
		if err != nil {
			return nil, err
		}
		m.blocks = append(m.blocks, blk)
		m.locs[i] = Loc{Block: i, Pos: 0}
	}
	return m, nil
}

func (m *Manager) NumRows() int    { return m.nrows }
func (m *Manager) NumColumns() int { return len(m.locs) }

// Policy returns the copy policy the manager was built with.
func (m *Manager) Policy() CopyPolicy { return m.policy }

// BlockFor returns the block storing logical column col. Diagnostics and
// sharing assertions only; mutation goes through SetValueAt.
func (m *Manager) BlockFor(col int) (*block.Block, error) {
	if col < 0 || col >= len(m.locs) {
		return nil, fmt.Errorf("%w: column %d of %d", ErrOutOfBounds, col, len(m.locs))
	}
	return m.blocks[m.locs[col].Block], nil
}

// BufferFor returns the buffer storing logical column col. See BlockFor.
func (m *Manager) BufferFor(col int) (base.Buffer, error) {
	if col < 0 || col >= len(m.locs) {
		return nil, fmt.Errorf("%w: column %d of %d", ErrOutOfBounds, col, len(m.locs))
	}
	loc := m.locs[col]
	return m.blocks[loc.Block].Buffer(loc.Pos), nil
}

// child builds a manager inheriting policy and logger.
func (m *Manager) child(blocks []*block.Block, locs []Loc, nrows int) *Manager {
	return &Manager{blocks: blocks, locs: locs, nrows: nrows, policy: m.policy, log: m.log}
}

// Copy returns an independent manager. Deep copies clone every buffer in
// parallel and carry no reference sets anywhere: full independence. Shallow
// copies go through the policy: under copy-on-write every block aliases the
// parent's buffers and both sides register in a common reference set.
func (m *Manager) Copy(deep bool) *Manager {
	blocks := make([]*block.Block, len(m.blocks))
	if deep {
		var g errgroup.Group
		g.SetLimit(runtime.GOMAXPROCS(0))
		for i, b := range m.blocks {
			g.Go(func() error {
				blocks[i] = b.Clone()
				return nil
			})
		}
		_ = g.Wait()
	} else {
		for i, b := range m.blocks {
			blocks[i] = m.policy.shallowBlock(b)
		}
	}
	return m.child(blocks, slices.Clone(m.locs), m.nrows)
}

// ValueAt reads the value at (row, col).
func (m *Manager) ValueAt(row, col int) (any, error) {
	if col < 0 || col >= len(m.locs) {
		return nil, fmt.Errorf("%w: column %d of %d", ErrOutOfBounds, col, len(m.locs))
	}
	if row < 0 || row >= m.nrows {
		return nil, fmt.Errorf("%w: row %d of %d", ErrOutOfBounds, row, m.nrows)
	}
	loc := m.locs[col]
	return m.blocks[loc.Block].Buffer(loc.Pos).Get(row), nil
}

// SetValueAt writes v at (row, col). The targeted block copies first if any
// other live table shares its buffers; when that happens the new exclusive
// block replaces the old one, which is eagerly released from its reference
// set. Sibling blocks covering other columns are untouched.
func (m *Manager) SetValueAt(row, col int, v any) error {
	if col < 0 || col >= len(m.locs) {
		return fmt.Errorf("%w: column %d of %d", ErrOutOfBounds, col, len(m.locs))
	}
	if row < 0 || row >= m.nrows {
		return fmt.Errorf("%w: row %d of %d", ErrOutOfBounds, row, m.nrows)
	}
	loc := m.locs[col]
	old := m.blocks[loc.Block]
	nb, err := old.SetValue(loc.Pos, row, v)
	if err != nil {
		return err
	}
	if nb != old {
		m.blocks[loc.Block] = nb
		old.Detach()
		m.log.Debug("copy-on-write split", "block", loc.Block, "column", col)
	}
	return nil
}

// VerifyIntegrity recomputes the logical-column mapping from the blocks'
// placements and checks it against locs: every column covered exactly once,
// every stored Loc accurate, every buffer the manager's row length. A
// failure is an unrecoverable internal error.
func (m *Manager) VerifyIntegrity() error {
	fail := func(format string, args ...any) error {
		err := fmt.Errorf("%w: %s", ErrIntegrity, fmt.Sprintf(format, args...))
		m.log.Error("integrity check failed", "err", err)
		return err
	}

	seen := make([]bool, len(m.locs))
	for bi, b := range m.blocks {
		for pos, col := range b.Placement() {
			if col < 0 || col >= len(m.locs) {
				return fail("block %d places position %d at column %d of %d", bi, pos, col, len(m.locs))
			}
			if seen[col] {
				return fail("column %d covered by more than one buffer", col)
			}
			seen[col] = true
			if m.locs[col] != (Loc{Block: bi, Pos: pos}) {
				return fail("column %d stored at %+v, found at block %d pos %d", col, m.locs[col], bi, pos)
			}
			if n := b.Buffer(pos).Len(); n != m.nrows {
				return fail("column %d buffer has %d rows, manager has %d", col, n, m.nrows)
			}
		}
	}
	for col, ok := range seen {
		if !ok {
			return fail("column %d not covered by any block", col)
		}
	}
	return nil
}

// Consolidate merges single-column blocks of the same dtype into
// multi-buffer blocks. Contents are materialized into fresh storage, so the
// result is exclusive; the replaced blocks are released from their sets.
func (m *Manager) Consolidate() error {
	byDtype := make(map[base.Dtype][]int) // dtype -> logical columns, in order
	var order []base.Dtype
	for col := range m.locs {
		loc := m.locs[col]
		dt := m.blocks[loc.Block].Dtype()
		if _, ok := byDtype[dt]; !ok {
			order = append(order, dt)
		}
		byDtype[dt] = append(byDtype[dt], col)
	}
	if len(order) == len(m.blocks) {
		return nil // already one block per dtype
	}

	blocks := make([]*block.Block, 0, len(order))
	locs := make([]Loc, len(m.locs))
	for bi, dt := range order {
		cols := byDtype[dt]
		bufs := make([]base.Buffer, len(cols))
		placement := make([]int, len(cols))
		for pos, col := range cols {
			loc := m.locs[col]
			bufs[pos] = m.blocks[loc.Block].Buffer(loc.Pos).Clone()
			placement[pos] = col
			locs[col] = Loc{Block: bi, Pos: pos}
		}
		blk, err := block.New(bufs, placement)
		if err != nil {
			return err
		}
		blocks = append(blocks, blk)
	}

	for _, b := range m.blocks {
		b.Detach()
	}
	m.blocks = blocks
	m.locs = locs
	m.log.Debug("consolidated blocks", "blocks", len(blocks), "columns", len(locs))
	return m.VerifyIntegrity()
}
