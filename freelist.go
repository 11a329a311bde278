package mempool

// freelist.go implements an address-ordered, intrusive doubly linked free
// list. The list head lives on the owning segment; links live inside each
// free block's header and are meaningful only while the block's FREE bit
// is set.

// insertFreeSorted splices h into the free list at its address-sorted
// position. h.flags must already have FREE set; h.prevFree/nextFree are
// overwritten.
func (seg *segment) insertFreeSorted(h *blockHeader) {
	var prev *blockHeader
	cur := seg.freeHead
	for cur != nil && blockAddr(cur) < blockAddr(h) {
		prev = cur
		cur = cur.nextFree
	}
	h.prevFree = prev
	h.nextFree = cur
	if cur != nil {
		cur.prevFree = h
	}
	if prev != nil {
		prev.nextFree = h
	} else {
		seg.freeHead = h
	}
}

// removeFree unlinks h from the free list. h must currently be on it.
func (seg *segment) removeFree(h *blockHeader) {
	if h.prevFree != nil {
		h.prevFree.nextFree = h.nextFree
	} else {
		seg.freeHead = h.nextFree
	}
	if h.nextFree != nil {
		h.nextFree.prevFree = h.prevFree
	}
	h.prevFree = nil
	h.nextFree = nil
}

// firstFit scans the free list from the head for the first block whose
// size is at least need: first-fit, address-ascending, no best-fit or
// segregated-fit.
func (seg *segment) firstFit(need uintptr) *blockHeader {
	for cur := seg.freeHead; cur != nil; cur = cur.nextFree {
		if cur.size >= need {
			return cur
		}
	}
	return nil
}

// freeListLen counts the blocks currently on the free list; used by the
// tests, never on an allocation hot path.
func (seg *segment) freeListLen() int {
	n := 0
	for cur := seg.freeHead; cur != nil; cur = cur.nextFree {
		n++
	}
	return n
}
