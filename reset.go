package mempool

import "sync"

// Reset invalidates every allocation in the pool and reinitializes each
// segment to a single free block spanning its usable region. Size-class
// configuration (slot size and capacity) is preserved; each class's
// carved slab is discarded since the memory it pointed into no longer
// belongs to it.
func (p *Pool) Reset() {
	p.classesMu.Lock()
	for _, c := range p.classes {
		c.carveOnce = sync.Once{}
		c.carved = false
		c.owner = nil
		c.slabBase = 0
		c.slabEnd = 0
		c.freeHead = nil
		c.inUse = 0
	}
	p.classesMu.Unlock()

	for seg := p.head; seg != nil; seg = seg.next {
		seg.lock()
		seg.resetLocked()
		seg.unlock()
	}
	traceLog("Reset")
}
