package mempool

// segmentStats are the per-segment counters, updated under the owning
// segment's lock on every mutation.
type segmentStats struct {
	allocCount uint64
	freeCount  uint64
	mergeCount uint64
	bytesInUse uint64
	highWater  uint64
	usableSize uint64
}

// ClassStats reports the accounting for one size class at the moment
// GetStats was called.
type ClassStats struct {
	SlotSize int
	Capacity int
	InUse    int
	Carved   bool
}

// Stats aggregates every segment's counters plus the size-class table as
// of the moment GetStats was called.
type Stats struct {
	SegmentCount int
	UsableSize   uint64
	BytesInUse   uint64
	HighWater    uint64
	AllocCount   uint64
	FreeCount    uint64
	MergeCount   uint64
	Classes      []ClassStats
}

// GetStats aggregates statistics across every segment in the chain,
// locking each segment only long enough to read its counters and never
// holding two segment locks at once.
func (p *Pool) GetStats() Stats {
	var s Stats
	for seg := p.head; seg != nil; seg = seg.next {
		seg.lock()
		s.SegmentCount++
		s.UsableSize += seg.stats.usableSize
		s.BytesInUse += seg.stats.bytesInUse
		s.HighWater += seg.stats.highWater
		s.AllocCount += seg.stats.allocCount
		s.FreeCount += seg.stats.freeCount
		s.MergeCount += seg.stats.mergeCount
		seg.unlock()
	}

	p.classesMu.Lock()
	classes := make([]*sizeClass, len(p.classes))
	copy(classes, p.classes)
	p.classesMu.Unlock()

	for _, c := range classes {
		cs := ClassStats{SlotSize: c.slotSize, Capacity: c.capacity}
		if c.carved {
			c.owner.lock()
			cs.InUse = c.inUse
			cs.Carved = true
			c.owner.unlock()
		}
		s.Classes = append(s.Classes, cs)
	}
	return s
}
