package mempool

import "unsafe"

// Fixed sentinels for corruption detection. Distinct values so a misread
// of one for the other is itself detectable.
const (
	blockMagicHead uint32 = 0x6b6c4248 // "HBlk" little-endian
	blockMagicFoot uint32 = 0x6b6c4246 // "FBlk" little-endian
	slotMagic      uint32 = 0x746f6c53 // "Slot"
)

const (
	flagFree uint32 = 1 << 0
)

// blockHeader is the prefix of every boundary-tagged block in a segment's
// usable region. It is never allocated by the Go runtime: every instance
// is an unsafe.Pointer overlay directly onto bytes owned by a segment's
// mmap'd region.
type blockHeader struct {
	size     uintptr // total block size, header..footer inclusive
	flags    uint32
	magic    uint32
	prevFree *blockHeader // meaningful only while FREE
	nextFree *blockHeader // meaningful only while FREE
}

// blockFooter is stored in the last bytes of a block's payload area,
// mirroring size for O(1) backward neighbor inspection during coalescing.
type blockFooter struct {
	size  uintptr
	magic uint32
}

// slotHeader is the minimal tag carried by a size-class slab slot: no
// boundary tag, no free-list links, because slots are never coalesced and
// never appear on the free list.
type slotHeader struct {
	magic uint32
	class int32
	next  *slotHeader // LIFO free-chain link, meaningful only while free
}

func blockAt(p unsafe.Pointer) *blockHeader { return (*blockHeader)(p) }

func blockAddr(h *blockHeader) uintptr { return uintptr(unsafe.Pointer(h)) }

func footerOf(h *blockHeader, cfg *poolConfig) *blockFooter {
	addr := blockAddr(h) + h.size - uintptr(cfg.footerSize)
	return (*blockFooter)(unsafe.Pointer(addr))
}

func prevFooterOf(h *blockHeader, cfg *poolConfig) *blockFooter {
	addr := blockAddr(h) - uintptr(cfg.footerSize)
	return (*blockFooter)(unsafe.Pointer(addr))
}

func nextBlockOf(h *blockHeader) *blockHeader {
	return blockAt(unsafe.Pointer(blockAddr(h) + h.size))
}

func payloadOf(h *blockHeader, cfg *poolConfig) unsafe.Pointer {
	return unsafe.Pointer(blockAddr(h) + uintptr(cfg.headerSize))
}

func headerFromPayload(p unsafe.Pointer, cfg *poolConfig) *blockHeader {
	return blockAt(unsafe.Pointer(uintptr(p) - uintptr(cfg.headerSize)))
}

func payloadCapacity(h *blockHeader, cfg *poolConfig) int {
	return int(h.size) - cfg.headerSize - cfg.footerSize
}

// writeFooter synchronizes a block's footer with its current header
// after any mutation of h.size.
func writeFooter(h *blockHeader, cfg *poolConfig) {
	f := footerOf(h, cfg)
	f.size = h.size
	f.magic = blockMagicFoot
}

func isFree(h *blockHeader) bool { return h.flags&flagFree != 0 }

// roundedBlockSize computes the total block size (header+payload+footer,
// aligned) needed to satisfy a caller request of payloadSize bytes.
func roundedBlockSize(payloadSize int, cfg *poolConfig) uintptr {
	raw := payloadSize + cfg.headerSize + cfg.footerSize
	rounded := roundup(raw, cfg.alignment)
	if rounded < cfg.minBlockSize {
		rounded = cfg.minBlockSize
	}
	return uintptr(rounded)
}
