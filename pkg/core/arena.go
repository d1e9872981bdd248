package core

import "unsafe"

// blockSize is the size in bytes of each backing block the arena grows by.
const blockSize = 256 * 1024

// Arena is a bump allocator: Alloc hands out a byte slice of the
// requested size from the current block, growing a new block when the
// current one is exhausted. Reset rewinds the high-water mark without
// releasing backing blocks, so repeated per-sample allocation/reset cycles
// reuse the same memory. An Arena is owned by exactly one goroutine for
// its lifetime (one per tile-rendering worker) and must never be shared
// across goroutines.
type Arena struct {
	blocks   [][]byte
	current  int // index into blocks of the block currently being filled
	offset   int // next free byte within blocks[current]
	highMark int // total blocks ever allocated, for stats only
}

// NewArena creates an empty arena; the first block is allocated lazily.
func NewArena() *Arena {
	return &Arena{}
}

// Alloc returns size bytes aligned to align (a power of two), valid until
// the next Reset.
func (a *Arena) Alloc(size, align int) []byte {
	if len(a.blocks) == 0 {
		a.blocks = append(a.blocks, make([]byte, blockSize))
		a.highMark = 1
	}

	block := a.blocks[a.current]
	aligned := alignUp(a.offset, align)

	if aligned+size > len(block) {
		// Current block can't satisfy this request; grow.
		newSize := blockSize
		if size > newSize {
			newSize = size
		}
		a.current++
		if a.current < len(a.blocks) && len(a.blocks[a.current]) >= size {
			// Reuse a block left over from before the last Reset.
		} else if a.current < len(a.blocks) {
			a.blocks[a.current] = make([]byte, newSize)
		} else {
			a.blocks = append(a.blocks, make([]byte, newSize))
			a.highMark = len(a.blocks)
		}
		block = a.blocks[a.current]
		aligned = 0
	}

	a.offset = aligned + size
	return block[aligned : aligned+size]
}

// Reset rewinds the arena to its start without freeing backing blocks,
// so the next sample's allocations reuse them.
func (a *Arena) Reset() {
	a.current = 0
	a.offset = 0
}

func alignUp(offset, align int) int {
	if align <= 1 {
		return offset
	}
	return (offset + align - 1) &^ (align - 1)
}

// ArenaNew returns a zero-valued *T allocated from a, valid until the next
// Reset. This is the bump-allocated path BSDF/BxDF lobes use instead of
// the heap, since a shading event allocates several of these per sample.
func ArenaNew[T any](a *Arena) *T {
	var zero T
	buf := a.Alloc(int(unsafe.Sizeof(zero)), int(unsafe.Alignof(zero)))
	p := (*T)(unsafe.Pointer(&buf[0]))
	*p = zero
	return p
}
