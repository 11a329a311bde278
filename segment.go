package mempool

import (
	"sync"
	"unsafe"
)

// segment is a contiguous OS-backed region holding boundary-tagged blocks,
// guarded by a single mutex. Segments form a singly linked chain; the head
// segment owns the chain and every block within it.
type segment struct {
	cfg *poolConfig

	memory []byte // the entire usable region; every byte belongs to exactly one block

	mu       sync.Mutex
	freeHead *blockHeader
	stats    segmentStats

	next *segment
}

func (seg *segment) lock() {
	if seg.cfg.threadSafe {
		seg.mu.Lock()
	}
}

func (seg *segment) unlock() {
	if seg.cfg.threadSafe {
		seg.mu.Unlock()
	}
}

func (seg *segment) base() uintptr { return uintptr(unsafe.Pointer(&seg.memory[0])) }
func (seg *segment) end() uintptr  { return seg.base() + uintptr(len(seg.memory)) }

// contains reports whether addr falls within this segment's usable region.
func (seg *segment) contains(addr uintptr) bool {
	return addr >= seg.base() && addr < seg.end()
}

// newSegment reserves a region from the OS, rounds it up to a whole number
// of OS pages, and initializes it as one giant free block spanning the
// entire usable region.
func newSegment(size int, cfg *poolConfig) (*segment, error) {
	size = roundup(size, osPageSize())
	mem, err := osReserve(size)
	if err != nil {
		return nil, err
	}
	seg := &segment{cfg: cfg, memory: mem}

	h := blockAt(unsafe.Pointer(&mem[0]))
	h.size = uintptr(len(mem))
	h.flags = flagFree
	h.magic = blockMagicHead
	h.prevFree = nil
	h.nextFree = nil
	writeFooter(h, cfg)
	seg.freeHead = h
	seg.stats.usableSize = uint64(len(mem))
	return seg, nil
}

// allocBlockRaw is the core of the allocator engine's alloc path:
// first-fit search, split if the remainder clears the minimum block size,
// otherwise hand out the whole block. Used directly by AllocFixed's
// slab-carving path, which needs the header as well as the payload
// pointer.
func (seg *segment) allocBlockRaw(need uintptr) (unsafe.Pointer, *blockHeader) {
	seg.lock()
	defer seg.unlock()

	h := seg.firstFit(need)
	if h == nil {
		return nil, nil
	}
	seg.removeFree(h)

	remainder := h.size - need
	if remainder >= uintptr(seg.cfg.minBlockSize) {
		rem := blockAt(unsafe.Pointer(blockAddr(h) + need))
		rem.size = remainder
		rem.flags = flagFree
		rem.magic = blockMagicHead
		rem.prevFree = nil
		rem.nextFree = nil
		writeFooter(rem, seg.cfg)
		seg.insertFreeSorted(rem)
		h.size = need
	}

	h.flags &^= flagFree
	h.magic = blockMagicHead
	h.prevFree = nil
	h.nextFree = nil
	writeFooter(h, seg.cfg)

	seg.stats.allocCount++
	seg.stats.bytesInUse += uint64(h.size)
	if seg.stats.bytesInUse > seg.stats.highWater {
		seg.stats.highWater = seg.stats.bytesInUse
	}
	return payloadOf(h, seg.cfg), h
}

// allocBlock is allocBlockRaw without the header, for callers that only
// need the payload pointer.
func (seg *segment) allocBlock(need uintptr) unsafe.Pointer {
	ptr, _ := seg.allocBlockRaw(need)
	return ptr
}

// freeBlock runs the coalesce-then-insert sequence under the segment lock.
// Free and Realloc's shrink path call coalesceAndInsertLocked directly
// (Defragment merges free runs on its own); this wrapper
// exists so the coalesce step is testable in isolation.
func (seg *segment) freeBlock(h *blockHeader) {
	seg.lock()
	defer seg.unlock()
	seg.coalesceAndInsertLocked(h)
}

// coalesceAndInsertLocked must be called with the segment lock held. h must
// not currently be on the free list and must not have FREE set.
func (seg *segment) coalesceAndInsertLocked(h *blockHeader) {
	freedSize := h.size
	merges := uint64(0)

	if blockAddr(h) > seg.base() {
		pf := prevFooterOf(h, seg.cfg)
		if pf.magic == blockMagicFoot {
			prev := blockAt(unsafe.Pointer(blockAddr(h) - pf.size))
			if prev.magic == blockMagicHead && isFree(prev) {
				seg.removeFree(prev)
				prev.size += h.size
				h = prev
				merges++
			}
		}
	}

	if blockAddr(h)+h.size < seg.end() {
		next := nextBlockOf(h)
		if next.magic == blockMagicHead && isFree(next) {
			seg.removeFree(next)
			h.size += next.size
			merges++
		}
	}

	h.flags |= flagFree
	h.magic = blockMagicHead
	writeFooter(h, seg.cfg)
	seg.insertFreeSorted(h)

	seg.stats.freeCount++
	seg.stats.mergeCount += merges
	seg.stats.bytesInUse -= uint64(freedSize)
}

// resetLocked discards every block and size-class slab carved from this
// segment and reinitializes it as one giant free block. Callers holding
// the pool's class table lock must clear any sizeClass whose owner is
// this segment before calling this.
func (seg *segment) resetLocked() {
	h := blockAt(unsafe.Pointer(&seg.memory[0]))
	h.size = uintptr(len(seg.memory))
	h.flags = flagFree
	h.magic = blockMagicHead
	h.prevFree = nil
	h.nextFree = nil
	writeFooter(h, seg.cfg)
	seg.freeHead = h
	seg.stats = segmentStats{usableSize: uint64(len(seg.memory))}
}
