package mempool

import "unsafe"

// Defragment forces a left-to-right pass over every segment's block chain,
// merging any address-adjacent FREE blocks that weren't already merged and
// rebuilding the free list in strict address order. Under correct
// operation coalescing is always eager, so this is normally a no-op that
// just recomputes statistics; it exists for the restoration semantics
// useful to fuzzers and crash-recovery simulations. It never moves
// allocated blocks or invalidates caller pointers.
func (p *Pool) Defragment() {
	for seg := p.head; seg != nil; seg = seg.next {
		seg.lock()
		seg.defragmentLocked()
		seg.unlock()
	}
	traceLog("Defragment")
}

func (seg *segment) defragmentLocked() {
	seg.freeHead = nil
	var tail *blockHeader
	var run *blockHeader // accumulating run of merged FREE blocks, not yet linked

	flushRun := func() {
		if run == nil {
			return
		}
		writeFooter(run, seg.cfg)
		run.prevFree = tail
		run.nextFree = nil
		if tail != nil {
			tail.nextFree = run
		} else {
			seg.freeHead = run
		}
		tail = run
		run = nil
	}

	var merges uint64
	cur := blockAt(unsafe.Pointer(&seg.memory[0]))
	for blockAddr(cur) < seg.end() {
		next := nextBlockOf(cur)
		if isFree(cur) {
			if run == nil {
				run = cur
			} else {
				run.size += cur.size
				merges++
			}
		} else {
			flushRun()
		}
		cur = next
	}
	flushRun()

	seg.stats.mergeCount += merges
	seg.stats.bytesInUse = seg.recomputeBytesInUse()
}

// recomputeBytesInUse walks the block chain and sums the size of every
// non-FREE block, used by Defragment to refresh statistics.
func (seg *segment) recomputeBytesInUse() uint64 {
	var used uint64
	cur := blockAt(unsafe.Pointer(&seg.memory[0]))
	for blockAddr(cur) < seg.end() {
		if !isFree(cur) {
			used += uint64(cur.size)
		}
		cur = nextBlockOf(cur)
	}
	return used
}
