package mempool

import "github.com/timandy/routine"

// ErrorCode is the last-error classification reported by inspection calls.
// The zero value is Success, so a goroutine that never touched the pool
// reads Success without needing to have initialized anything.
type ErrorCode int32

const (
	Success ErrorCode = iota
	ErrInvalidSize
	ErrInvalidPointer
	ErrOutOfMemory
	ErrCorrupted
)

func (e ErrorCode) String() string {
	switch e {
	case Success:
		return "SUCCESS"
	case ErrInvalidSize:
		return "INVALID_SIZE"
	case ErrInvalidPointer:
		return "INVALID_POINTER"
	case ErrOutOfMemory:
		return "OUT_OF_MEMORY"
	case ErrCorrupted:
		return "CORRUPTED"
	default:
		return "UNKNOWN"
	}
}

// lastError is thread-local: an error set by one goroutine must never leak
// into another's view of the world. Go has no native TLS, so this uses a
// generic goroutine-local-storage library instead.
var lastError = routine.NewThreadLocal[ErrorCode]()

func setLastError(e ErrorCode) {
	lastError.Set(e)
}

// GetLastError returns the error recorded by the most recent pool operation
// performed on the calling goroutine. Goroutines that have never called into
// a pool observe Success.
func GetLastError() ErrorCode {
	return lastError.Get()
}
