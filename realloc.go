package mempool

import "unsafe"

// Realloc changes the size of the block at ptr to newSize bytes, preserving
// min(oldPayload, newSize) bytes of content.
func (p *Pool) Realloc(ptr unsafe.Pointer, newSize int) unsafe.Pointer {
	if ptr == nil {
		return p.Alloc(newSize)
	}
	if newSize == 0 {
		p.Free(ptr)
		return nil
	}

	if c := p.classForPointer(ptr); c != nil {
		return p.reallocFixed(c, ptr, newSize)
	}

	seg := p.segmentContaining(uintptr(ptr))
	if seg == nil {
		setLastError(ErrInvalidPointer)
		return nil
	}

	seg.lock()
	h := headerFromPayload(ptr, p.cfg)
	if h.magic != blockMagicHead || isFree(h) {
		seg.unlock()
		setLastError(ErrInvalidPointer)
		return nil
	}

	need := roundedBlockSize(newSize, p.cfg)
	oldPayload := payloadCapacity(h, p.cfg)

	switch {
	case need <= h.size:
		seg.shrinkInPlace(h, need)
		seg.unlock()
		setLastError(Success)
		return ptr

	case seg.growInPlace(h, need):
		seg.unlock()
		setLastError(Success)
		return ptr
	}
	seg.unlock()

	newPtr := p.Alloc(newSize)
	if newPtr == nil {
		return nil
	}
	n := oldPayload
	if newSize < n {
		n = newSize
	}
	memmove(newPtr, ptr, n)
	p.Free(ptr)
	setLastError(Success)
	return newPtr
}

// shrinkInPlace shrinks h to exactly need bytes, splitting off the
// trailing remainder as a free block, when that remainder clears the
// minimum block size; otherwise h keeps its current size. seg's lock must
// be held.
func (seg *segment) shrinkInPlace(h *blockHeader, need uintptr) {
	remainder := h.size - need
	if remainder < uintptr(seg.cfg.minBlockSize) {
		return
	}
	rem := blockAt(unsafe.Pointer(blockAddr(h) + need))
	rem.size = remainder
	rem.flags = 0
	rem.magic = blockMagicHead
	rem.prevFree = nil
	rem.nextFree = nil
	writeFooter(rem, seg.cfg)
	h.size = need
	writeFooter(h, seg.cfg)

	seg.coalesceAndInsertLocked(rem)
}

// growInPlace attempts to extend h by consuming a FREE right neighbor that
// has enough room, splitting off anything left over. seg's lock must be
// held. Reports whether the grow succeeded.
func (seg *segment) growInPlace(h *blockHeader, need uintptr) bool {
	nextAddr := blockAddr(h) + h.size
	if nextAddr >= seg.end() {
		return false
	}
	next := nextBlockOf(h)
	if next.magic != blockMagicHead || !isFree(next) || h.size+next.size < need {
		return false
	}

	seg.removeFree(next)
	total := h.size + next.size
	seg.stats.bytesInUse += uint64(next.size)
	if seg.stats.bytesInUse > seg.stats.highWater {
		seg.stats.highWater = seg.stats.bytesInUse
	}

	h.size = total
	remainder := total - need
	if remainder >= uintptr(seg.cfg.minBlockSize) {
		h.size = need
		rem := blockAt(unsafe.Pointer(blockAddr(h) + need))
		rem.size = remainder
		rem.flags = flagFree
		rem.magic = blockMagicHead
		rem.prevFree = nil
		rem.nextFree = nil
		writeFooter(rem, seg.cfg)
		seg.insertFreeSorted(rem)
		seg.stats.bytesInUse -= uint64(remainder)
	}
	writeFooter(h, seg.cfg)
	return true
}

// reallocFixed handles Realloc of a size-class slot: slots have one fixed
// size, so growth or shrink only changes anything when newSize crosses out
// of the slot's capacity.
func (p *Pool) reallocFixed(c *sizeClass, ptr unsafe.Pointer, newSize int) unsafe.Pointer {
	if newSize <= c.slotSize {
		setLastError(Success)
		return ptr
	}
	newPtr := p.Alloc(newSize)
	if newPtr == nil {
		return nil
	}
	memmove(newPtr, ptr, c.slotSize)
	p.FreeFixed(ptr)
	setLastError(Success)
	return newPtr
}

func memmove(dst, src unsafe.Pointer, n int) {
	if n <= 0 {
		return
	}
	copy(unsafe.Slice((*byte)(dst), n), unsafe.Slice((*byte)(src), n))
}
