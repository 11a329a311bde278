package mempool

import (
	"errors"
	"sync"
	"unsafe"
)

var errInvalidAlignment = errors.New("mempool: alignment must be a power of two in [pointer size, cache line]")

// Pool is a segment-chained memory pool allocator. The zero value is not
// usable; construct with Create or CreateWithConfig.
//
// A Pool is safe for concurrent use by multiple goroutines when created
// with ThreadSafe: true. Destroying a Pool is never safe to race with any
// other operation on the same Pool.
type Pool struct {
	cfg *poolConfig

	head *segment // chain head; never moves, exclusively owns the chain

	growMu sync.Mutex // serializes chain-growth so two racing allocations don't both append a segment

	classesMu sync.Mutex
	classes   []*sizeClass
}

// Create allocates a pool with a head segment of at least poolSize usable
// bytes.
func Create(poolSize int, threadSafe bool) (*Pool, error) {
	return CreateWithConfig(Config{PoolSize: poolSize, ThreadSafe: threadSafe})
}

// CreateWithConfig allocates a pool per cfg, registering every configured
// size class up front.
func CreateWithConfig(cfg Config) (*Pool, error) {
	pc, err := normalizeConfig(cfg)
	if err != nil {
		setLastError(ErrInvalidSize)
		return nil, err
	}

	size := cfg.PoolSize
	if size <= 0 {
		size = defaultGrowSize
	}
	head, err := newSegment(size, pc)
	if err != nil {
		setLastError(ErrOutOfMemory)
		return nil, err
	}

	p := &Pool{cfg: pc, head: head}
	for _, sc := range cfg.SizeClasses {
		if p.AddSizeClass(sc.SlotSize, sc.Capacity) < 0 {
			return nil, errors.New("mempool: invalid size class in Config.SizeClasses")
		}
	}
	setLastError(Success)
	traceLog("Create(%d, threadSafe=%v)", size, cfg.ThreadSafe)
	return p, nil
}

// Destroy releases every segment's OS-backed memory. The Pool must not be
// used afterward, and destruction must happen-after every other goroutine's
// last use of the pool.
func (p *Pool) Destroy() {
	for seg := p.head; seg != nil; {
		next := seg.next
		osRelease(seg.memory)
		seg = next
	}
	p.head = nil
	traceLog("Destroy")
}

// growChain appends a new segment sized to satisfy at least `need` bytes.
// The head never moves; the new segment is linked at the tail. Growth is
// serialized so concurrent misses don't both grow.
func (p *Pool) growChain(need uintptr) (*segment, error) {
	p.growMu.Lock()
	defer p.growMu.Unlock()

	// Another goroutine may have already grown the chain while we waited
	// for growMu; give its new tail segment(s) a chance first.
	tail := p.head
	for tail.next != nil {
		tail = tail.next
	}
	if tail.firstFitProbe(need) {
		return tail, nil
	}

	size := p.cfg.growSize
	if uintptr(size) < need+uintptr(p.cfg.headerSize)+uintptr(p.cfg.footerSize) {
		size = int(need) + p.cfg.headerSize + p.cfg.footerSize
	}
	seg, err := newSegment(size, p.cfg)
	if err != nil {
		return nil, err
	}
	tail.next = seg
	traceLog("growChain: appended segment of %d bytes", size)
	return seg, nil
}

// firstFitProbe reports whether seg can currently satisfy a request of
// `need` bytes, without mutating anything (used to avoid growing the chain
// twice for one miss under contention).
func (seg *segment) firstFitProbe(need uintptr) bool {
	seg.lock()
	defer seg.unlock()
	return seg.firstFit(need) != nil
}

// segmentContaining walks the chain looking for the segment whose usable
// region contains addr. Free auto-routes to whichever segment in the
// chain owns the pointer.
func (p *Pool) segmentContaining(addr uintptr) *segment {
	for seg := p.head; seg != nil; seg = seg.next {
		if seg.contains(addr) {
			return seg
		}
	}
	return nil
}

// Contains reports whether ptr lies within some segment's usable region.
func (p *Pool) Contains(ptr unsafe.Pointer) bool {
	if ptr == nil {
		return false
	}
	return p.segmentContaining(uintptr(ptr)) != nil
}

// Alloc satisfies a request of size bytes from the segment chain's free
// lists, growing the chain on a total miss. Callers wanting the size-class
// fast path should call AllocFixed instead.
func (p *Pool) Alloc(size int) unsafe.Pointer {
	if size <= 0 {
		setLastError(ErrInvalidSize)
		return nil
	}

	need := roundedBlockSize(size, p.cfg)
	for seg := p.head; seg != nil; seg = seg.next {
		if ptr := seg.allocBlock(need); ptr != nil {
			setLastError(Success)
			traceLog("Alloc(%d) -> %p", size, ptr)
			return ptr
		}
	}

	seg, err := p.growChain(need)
	if err != nil {
		setLastError(ErrOutOfMemory)
		return nil
	}
	ptr := seg.allocBlock(need)
	if ptr == nil {
		setLastError(ErrOutOfMemory)
		return nil
	}
	setLastError(Success)
	traceLog("Alloc(%d) -> %p (new segment)", size, ptr)
	return ptr
}

// Calloc is like Alloc except the returned payload is zero-filled, with
// an overflow check on n*elemSize.
func (p *Pool) Calloc(n, elemSize int) unsafe.Pointer {
	if n < 0 || elemSize < 0 {
		setLastError(ErrInvalidSize)
		return nil
	}
	if n == 0 || elemSize == 0 {
		setLastError(ErrInvalidSize)
		return nil
	}
	total := n * elemSize
	if total/n != elemSize {
		setLastError(ErrInvalidSize)
		return nil
	}
	ptr := p.Alloc(total)
	if ptr == nil {
		return nil
	}
	clear(unsafe.Slice((*byte)(ptr), total))
	return ptr
}

// Free deallocates ptr, which must have been returned by Alloc, Calloc,
// Realloc or AllocAligned on this Pool.
func (p *Pool) Free(ptr unsafe.Pointer) {
	if ptr == nil {
		setLastError(Success)
		return
	}

	if c := p.classForPointer(ptr); c != nil {
		c.owner.lock()
		c.pushSlot(ptr, p.cfg)
		c.owner.unlock()
		setLastError(Success)
		traceLog("Free(%p) -> fixed", ptr)
		return
	}

	seg := p.segmentContaining(uintptr(ptr))
	if seg == nil {
		setLastError(ErrInvalidPointer)
		traceLog("Free(%p) -> invalid pointer (no owning segment)", ptr)
		return
	}

	seg.lock()
	h := headerFromPayload(ptr, p.cfg)
	ok := seg.contains(blockAddr(h)) && h.magic == blockMagicHead && !isFree(h)
	if ok {
		f := footerOf(h, p.cfg)
		ok = f.magic == blockMagicFoot && f.size == h.size
	}
	if !ok {
		seg.unlock()
		setLastError(ErrInvalidPointer)
		traceLog("Free(%p) -> invalid pointer (bad header/footer)", ptr)
		return
	}
	seg.coalesceAndInsertLocked(h)
	seg.unlock()
	setLastError(Success)
	traceLog("Free(%p)", ptr)
}
