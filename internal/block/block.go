// Package block implements the unit of copy-on-write: one or more same-typed
// buffers, their placement onto logical columns, and an optional reference
// set recording which other blocks may alias the same storage.
package block

import (
	"fmt"
	"slices"

	"blockframe/internal/base"
	"blockframe/internal/refs"
)

// Block combines buffers with a logical-column placement. A nil reference
// set means the block was never part of a sharing derivation and is always
// safe to mutate in place. Blocks are immutable apart from in-place buffer
// writes behind EnsureExclusive; structural change produces a new Block.
type Block struct {
	bufs      []base.Buffer
	placement []int // logical column index per buffer position
	refs      *refs.Set[Block]
}

// New builds an exclusive block. All buffers must share a dtype and length,
// and placement must name one logical column per buffer.
func New(bufs []base.Buffer, placement []int) (*Block, error) {
	if len(bufs) == 0 {
		return nil, fmt.Errorf("block: no buffers")
	}
	if len(placement) != len(bufs) {
		return nil, fmt.Errorf("block: %d buffers with %d placements", len(bufs), len(placement))
	}
	dt, n := bufs[0].Dtype(), bufs[0].Len()
	for _, b := range bufs[1:] {
		if b.Dtype() != dt {
			return nil, fmt.Errorf("%w: block mixing %s and %s", base.ErrDtypeMismatch, dt, b.Dtype())
		}
		if b.Len() != n {
			return nil, fmt.Errorf("block: buffer lengths %d and %d", n, b.Len())
		}
	}
	return &Block{bufs: bufs, placement: placement}, nil
}

func (b *Block) NumBuffers() int            { return len(b.bufs) }
func (b *Block) Rows() int                  { return b.bufs[0].Len() }
func (b *Block) Dtype() base.Dtype          { return b.bufs[0].Dtype() }
func (b *Block) Placement() []int           { return b.placement }
func (b *Block) Buffer(pos int) base.Buffer { return b.bufs[pos] }

// IsShared reports whether another live block may alias this block's
// buffers. A block without a reference set was never shared; a block whose
// set has no other live entry has become the sole owner, however it got
// there.
func (b *Block) IsShared() bool {
	return b.refs != nil && b.refs.HasOtherLive(b)
}

// LiveRefs returns the live entry count of the reference set, zero when the
// block has none. Diagnostics only.
func (b *Block) LiveRefs() int {
	if b.refs == nil {
		return 0
	}
	return b.refs.Live()
}

// share returns the block's reference set, creating it and registering the
// block itself on first sharing. The set is shared by every block that
// aliases these buffers.
func (b *Block) share() *refs.Set[Block] {
	if b.refs == nil {
		b.refs = refs.NewSet[Block]()
		b.refs.Register(b)
	}
	return b.refs
}

// View returns a block aliasing the same buffers under a new placement and
// records the sharing relation on both sides.
func (b *Block) View(placement []int) *Block {
	nb := &Block{bufs: b.bufs, placement: placement, refs: b.share()}
	nb.refs.Register(nb)
	return nb
}

// Select returns a block aliasing a subset of buffer positions, shared.
func (b *Block) Select(positions, placement []int) *Block {
	bufs := make([]base.Buffer, len(positions))
	for i, p := range positions {
		bufs[i] = b.bufs[p]
	}
	nb := &Block{bufs: bufs, placement: placement, refs: b.share()}
	nb.refs.Register(nb)
	return nb
}

// SliceShared returns a block viewing rows [lo, hi). The sliced buffers
// alias the parent's storage, so the result joins the parent's set.
func (b *Block) SliceShared(lo, hi int) *Block {
	nb := &Block{bufs: b.sliceBufs(lo, hi), placement: slices.Clone(b.placement), refs: b.share()}
	nb.refs.Register(nb)
	return nb
}

// SliceView returns an untracked aliasing slice. Writes through either side
// are visible to the other; this is the legacy eager-copy view semantic.
func (b *Block) SliceView(lo, hi int) *Block {
	return &Block{bufs: b.sliceBufs(lo, hi), placement: slices.Clone(b.placement)}
}

func (b *Block) sliceBufs(lo, hi int) []base.Buffer {
	bufs := make([]base.Buffer, len(b.bufs))
	for i, buf := range b.bufs {
		bufs[i] = buf.Slice(lo, hi)
	}
	return bufs
}

// Materialize copies a subset of buffer positions into fresh storage. The
// result is exclusive.
func (b *Block) Materialize(positions, placement []int) *Block {
	bufs := make([]base.Buffer, len(positions))
	for i, p := range positions {
		bufs[i] = b.bufs[p].Clone()
	}
	return &Block{bufs: bufs, placement: placement}
}

// Clone copies every buffer into fresh storage. The result is exclusive.
func (b *Block) Clone() *Block {
	bufs := make([]base.Buffer, len(b.bufs))
	for i, buf := range b.bufs {
		bufs[i] = buf.Clone()
	}
	return &Block{bufs: bufs, placement: slices.Clone(b.placement)}
}

// Take materializes the rows at idx across every buffer. Negative indices
// fill with the dtype fill value. The result is exclusive.
func (b *Block) Take(idx []int) *Block {
	bufs := make([]base.Buffer, len(b.bufs))
	for i, buf := range b.bufs {
		bufs[i] = buf.Take(idx)
	}
	return &Block{bufs: bufs, placement: slices.Clone(b.placement)}
}

// EnsureExclusive is the copy-on-write gate. If no other live block aliases
// the buffers it returns the receiver unchanged; otherwise it returns a
// fully detached copy and leaves the receiver untouched for its remaining
// sharers. Callers that receive a new block must swap it in and Detach the
// old one.
func (b *Block) EnsureExclusive() *Block {
	if !b.IsShared() {
		return b
	}
	return b.Clone()
}

// SetValue writes v at (pos, row), copying first when shared. The returned
// block differs from the receiver exactly when copy-on-write ran.
func (b *Block) SetValue(pos, row int, v any) (*Block, error) {
	if pos < 0 || pos >= len(b.bufs) {
		return nil, fmt.Errorf("%w: buffer position %d of %d", base.ErrOutOfBounds, pos, len(b.bufs))
	}
	nb := b.EnsureExclusive()
	if err := nb.bufs[pos].Set(row, v); err != nil {
		return nil, err
	}
	return nb, nil
}

// Detach releases the block from its reference set. Called by the manager
// once the block has been replaced; remaining sharers see exact sharing
// state without waiting for liveness decay.
func (b *Block) Detach() {
	if b.refs != nil {
		b.refs.Release(b)
		b.refs = nil
	}
}
