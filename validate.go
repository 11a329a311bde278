package mempool

import "unsafe"

// Validate performs a full integrity sweep of every segment: a block-chain
// walk checking header/footer magics and size mirrors, a free-list walk
// checking address order and FREE bits, the no-adjacent-frees invariant,
// and size-class slot-count accounting. It never mutates anything. On
// failure it records ErrCorrupted via the last-error slot.
func (p *Pool) Validate() bool {
	ok := true
	for seg := p.head; seg != nil; seg = seg.next {
		seg.lock()
		if !seg.validateLocked() {
			ok = false
		}
		seg.unlock()
	}
	if !p.validateClasses() {
		ok = false
	}
	if ok {
		setLastError(Success)
	} else {
		setLastError(ErrCorrupted)
	}
	return ok
}

func (seg *segment) validateLocked() bool {
	freeBlocks := make(map[uintptr]bool)

	// Block-chain walk: every byte belongs to exactly one block, magics
	// and size mirrors are intact, and no two adjacent blocks are both
	// FREE.
	var prevWasFree bool
	cur := blockAt(unsafe.Pointer(&seg.memory[0]))
	for blockAddr(cur) < seg.end() {
		if cur.magic != blockMagicHead || cur.size == 0 {
			return false
		}
		if blockAddr(cur)+cur.size > seg.end() {
			return false
		}
		f := footerOf(cur, seg.cfg)
		if f.magic != blockMagicFoot || f.size != cur.size {
			return false
		}
		free := isFree(cur)
		if free && prevWasFree {
			return false
		}
		if free {
			freeBlocks[blockAddr(cur)] = true
		}
		prevWasFree = free
		cur = nextBlockOf(cur)
	}
	if blockAddr(cur) != seg.end() {
		return false
	}

	// Free-list walk: exactly the FREE blocks, in strictly ascending
	// address order.
	var lastAddr uintptr
	count := 0
	for n := seg.freeHead; n != nil; n = n.nextFree {
		addr := blockAddr(n)
		if !freeBlocks[addr] {
			return false
		}
		if count > 0 && addr <= lastAddr {
			return false
		}
		delete(freeBlocks, addr)
		lastAddr = addr
		count++
	}
	return len(freeBlocks) == 0
}

// validateClasses checks that each carved size class's free-chain length
// plus its in-use count equals its configured capacity.
func (p *Pool) validateClasses() bool {
	p.classesMu.Lock()
	classes := make([]*sizeClass, len(p.classes))
	copy(classes, p.classes)
	p.classesMu.Unlock()

	for _, c := range classes {
		if !c.carved {
			continue
		}
		c.owner.lock()
		free := 0
		bad := false
		for n := c.freeHead; n != nil; n = n.next {
			if n.magic != slotMagic {
				bad = true
				break
			}
			free++
		}
		ok := !bad && free+c.inUse == c.capacity
		c.owner.unlock()
		if !ok {
			return false
		}
	}
	return true
}
