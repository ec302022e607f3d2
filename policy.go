package blockframe

import (
	"slices"

	"blockframe/internal/block"
)

// CopyPolicy decides how derivations treat buffers that would be shared.
// The two behavior modes are explicit strategies selected at construction,
// not a flag checked across the codebase.
//
//   - CopyOnWrite: derivations alias buffers and register the sharing
//     relation; the first mutation on either side clones the touched block.
//   - EagerCopy: the legacy mode. Relabeling derivations copy data up
//     front; shallow copies and row slices alias without tracking, so
//     mutations propagate between tables exactly as they historically did.
type CopyPolicy interface {
	Name() string

	// shallowBlock derives a block for a shallow table copy.
	shallowBlock(b *block.Block) *block.Block

	// relabelBlock derives a block for a label-only operation that keeps
	// every buffer position, optionally under a new placement.
	relabelBlock(b *block.Block, placement []int) *block.Block

	// selectBlock derives a block covering a subset of buffer positions.
	selectBlock(b *block.Block, positions, placement []int) *block.Block

	// sliceBlock derives a block viewing rows [lo, hi).
	sliceBlock(b *block.Block, lo, hi int) *block.Block
}

// CopyOnWrite shares buffers on derivation and defers copying to the first
// mutation. This is the default policy.
var CopyOnWrite CopyPolicy = cowPolicy{}

// EagerCopy reproduces pre-CoW behavior: copies at derivation time for
// relabeling operations, untracked aliasing for shallow copies and slices.
var EagerCopy CopyPolicy = eagerPolicy{}

type cowPolicy struct{}

func (cowPolicy) Name() string { return "copy-on-write" }

func (cowPolicy) shallowBlock(b *block.Block) *block.Block {
	return b.View(slices.Clone(b.Placement()))
}

func (cowPolicy) relabelBlock(b *block.Block, placement []int) *block.Block {
	return b.View(placement)
}

func (cowPolicy) selectBlock(b *block.Block, positions, placement []int) *block.Block {
	return b.Select(positions, placement)
}

func (cowPolicy) sliceBlock(b *block.Block, lo, hi int) *block.Block {
	return b.SliceShared(lo, hi)
}

type eagerPolicy struct{}

func (eagerPolicy) Name() string { return "eager-copy" }

func (eagerPolicy) shallowBlock(b *block.Block) *block.Block {
	// Same block object on both sides: writes are mutually visible.
	return b
}

func (eagerPolicy) relabelBlock(b *block.Block, placement []int) *block.Block {
	positions := make([]int, b.NumBuffers())
	for i := range positions {
		positions[i] = i
	}
	return b.Materialize(positions, placement)
}

func (eagerPolicy) selectBlock(b *block.Block, positions, placement []int) *block.Block {
	return b.Materialize(positions, placement)
}

func (eagerPolicy) sliceBlock(b *block.Block, lo, hi int) *block.Block {
	return b.SliceView(lo, hi)
}
