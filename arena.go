// Package ftui provides the per-frame bump arena.
//
// Widget rendering produces many short-lived strings and spans per frame;
// routing them through the general allocator induces tens of thousands of
// allocations per second on moderate workloads. The arena turns that into a
// single amortised O(1) reset at the frame boundary.
package ftui

import (
	"fmt"
	"unsafe"
)

// DefaultArenaCapacity is the initial capacity for the frame arena (256 KB).
const DefaultArenaCapacity = 256 * 1024

// DefaultArenaLimit caps total arena growth. Exceeding it is the only
// fatal error in the render path.
const DefaultArenaLimit = 64 * 1024 * 1024

// Arena is a growing linear allocator with a single O(1) Reset.
//
// All arena-returned slices and strings are borrows valid until the next
// Reset; the owning Frame's lifetime enforces that contract. Growth
// allocates new chunks and never moves existing allocations. Chunks are
// retained across Reset; only the occupancy counters are zeroed.
type Arena struct {
	chunks    [][]byte
	chunkIdx  int
	offset    int
	cellRuns  [][]Cell
	cellIdx   int
	cellOff   int
	limit     int
	committed int // bytes occupied across all finished chunks
}

// NewArena creates an arena with the given initial capacity in bytes.
func NewArena(capacity int) *Arena {
	if capacity < 64 {
		capacity = 64
	}
	return &Arena{
		chunks: [][]byte{make([]byte, capacity)},
		limit:  DefaultArenaLimit,
	}
}

// NewDefaultArena creates an arena with the default capacity.
func NewDefaultArena() *Arena {
	return NewArena(DefaultArenaCapacity)
}

// SetLimit adjusts the growth cap in bytes.
func (a *Arena) SetLimit(limit int) {
	a.limit = limit
}

// Reset reclaims all memory for reuse. O(1): chunks are retained, only the
// occupancy counters are zeroed. All outstanding borrows are invalidated.
func (a *Arena) Reset() {
	a.chunkIdx = 0
	a.offset = 0
	a.cellIdx = 0
	a.cellOff = 0
	a.committed = 0
}

// grab returns a byte region of exactly n bytes, growing if needed.
func (a *Arena) grab(n int) []byte {
	cur := a.chunks[a.chunkIdx]
	if a.offset+n > len(cur) {
		a.committed += a.offset
		if a.chunkIdx+1 < len(a.chunks) && n <= len(a.chunks[a.chunkIdx+1]) {
			a.chunkIdx++
			a.offset = 0
		} else {
			size := len(cur) * 2
			if size < n {
				size = n
			}
			if a.AllocatedBytesIncludingMetadata()+size > a.limit {
				panic(fmt.Errorf("%w: need %d bytes past %d limit", ErrArenaExhausted, size, a.limit))
			}
			a.chunks = append(a.chunks[:a.chunkIdx+1], make([]byte, size))
			a.chunkIdx++
			a.offset = 0
		}
		cur = a.chunks[a.chunkIdx]
	}
	region := cur[a.offset : a.offset+n : a.offset+n]
	a.offset += n
	return region
}

// AllocBytes copies b into arena storage and returns the copy.
func (a *Arena) AllocBytes(b []byte) []byte {
	if len(b) == 0 {
		return nil
	}
	region := a.grab(len(b))
	copy(region, b)
	return region
}

// AllocString copies s into arena storage and returns a string borrow
// backed by arena memory, valid until the next Reset.
func (a *Arena) AllocString(s string) string {
	if len(s) == 0 {
		return ""
	}
	region := a.grab(len(s))
	copy(region, s)
	return unsafe.String(&region[0], len(region))
}

// AllocCells copies cells into arena-owned cell storage.
func (a *Arena) AllocCells(cells []Cell) []Cell {
	if len(cells) == 0 {
		return nil
	}
	n := len(cells)
	if a.cellIdx >= len(a.cellRuns) {
		size := max(n, 1024)
		a.cellRuns = append(a.cellRuns, make([]Cell, size))
	}
	cur := a.cellRuns[a.cellIdx]
	if a.cellOff+n > len(cur) {
		size := max(len(cur)*2, n)
		if a.AllocatedBytesIncludingMetadata()+size*int(unsafe.Sizeof(Cell{})) > a.limit {
			panic(fmt.Errorf("%w: cell run of %d past %d limit", ErrArenaExhausted, n, a.limit))
		}
		a.cellRuns = append(a.cellRuns[:a.cellIdx+1], make([]Cell, size))
		a.cellIdx++
		a.cellOff = 0
		cur = a.cellRuns[a.cellIdx]
	}
	region := cur[a.cellOff : a.cellOff+n : a.cellOff+n]
	a.cellOff += n
	copy(region, cells)
	return region
}

// AllocatedBytes returns the bytes currently occupied by allocations.
func (a *Arena) AllocatedBytes() int {
	cellBytes := a.cellOff * int(unsafe.Sizeof(Cell{}))
	for i := 0; i < a.cellIdx; i++ {
		cellBytes += len(a.cellRuns[i]) * int(unsafe.Sizeof(Cell{}))
	}
	return a.committed + a.offset + cellBytes
}

// AllocatedBytesIncludingMetadata returns total reserved capacity across
// all chunks, occupied or not.
func (a *Arena) AllocatedBytesIncludingMetadata() int {
	total := 0
	for _, c := range a.chunks {
		total += len(c)
	}
	for _, r := range a.cellRuns {
		total += len(r) * int(unsafe.Sizeof(Cell{}))
	}
	return total
}
