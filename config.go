package mempool

import "unsafe"

const (
	// minAlignment is the platform pointer size, the default and floor
	// for Config.Alignment.
	minAlignment = int(unsafe.Sizeof(uintptr(0)))

	// maxAlignment is a cache line on essentially every platform this
	// runs on.
	maxAlignment = 128

	// defaultGrowSize is the segment size used for chain growth when the
	// caller hasn't configured one.
	defaultGrowSize = 4 << 20 // 4 MiB

	// maxSizeClasses bounds the size-class table.
	maxSizeClasses = 64
)

// SizeClassConfig describes one size-class slab to carve lazily on first
// use.
type SizeClassConfig struct {
	SlotSize int
	Capacity int
}

// Config is the full pool-creation configuration.
type Config struct {
	// PoolSize is the size of the head segment's usable region, before
	// rounding to the OS page size.
	PoolSize int

	// ThreadSafe selects whether segment mutations take the segment
	// lock. Single-threaded callers can set this false to shave the
	// lock/unlock pair off every hot-path call.
	ThreadSafe bool

	// Alignment is the byte alignment of block headers and payloads.
	// Zero means minAlignment. Must be a power of two in
	// [minAlignment, maxAlignment].
	Alignment int

	// SizeClasses are registered atomically with pool creation, exactly
	// as if AddSizeClass had been called for each in order.
	SizeClasses []SizeClassConfig

	// GrowSize is the segment size used when the chain must grow beyond
	// what an allocation request itself demands. Zero means
	// defaultGrowSize.
	GrowSize int
}

// poolConfig is the normalized, validated form of Config shared by every
// segment in a chain. It never changes after CreateWithConfig returns; the
// size-class table that AddSizeClass grows lives on Pool, not here.
type poolConfig struct {
	alignment      int
	headerSize     int
	footerSize     int
	slotHeaderSize int
	minBlockSize   int
	growSize       int
	threadSafe     bool
}

func normalizeConfig(cfg Config) (*poolConfig, error) {
	align := cfg.Alignment
	if align == 0 {
		align = minAlignment
	}
	if align < minAlignment || align > maxAlignment || align&(align-1) != 0 {
		return nil, errInvalidAlignment
	}
	grow := cfg.GrowSize
	if grow <= 0 {
		grow = defaultGrowSize
	}

	pc := &poolConfig{
		alignment:  align,
		threadSafe: cfg.ThreadSafe,
		growSize:   grow,
	}
	pc.headerSize = roundup(int(unsafe.Sizeof(blockHeader{})), align)
	pc.footerSize = roundup(int(unsafe.Sizeof(blockFooter{})), minAlignment)
	pc.slotHeaderSize = roundup(int(unsafe.Sizeof(slotHeader{})), align)
	pc.minBlockSize = pc.headerSize + pc.footerSize
	return pc, nil
}

// roundup rounds n up to the next multiple of m. m must be a power of two.
func roundup(n, m int) int { return (n + m - 1) &^ (m - 1) }

func roundupU(n, m uintptr) uintptr { return (n + m - 1) &^ (m - 1) }
