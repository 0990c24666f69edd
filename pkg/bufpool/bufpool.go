// Package bufpool provides tiered pools of copy buffers.
//
// Streaming copies read and write one block at a time. Each copy borrows a
// block buffer for its whole lifetime and returns it when the caller stops
// ranging over the progress sequence, so a long-running watcher that copies
// many files does not allocate a fresh block per file.
//
// Three tiers exist:
//   - Small (4KiB): tiny block sizes and directory copies of small files
//   - Block (32KiB): the default copy block size
//   - Large (1MiB): large block sizes configured for fast local disks
//
// Requests above the large tier are allocated directly and never pooled.
//
// All operations are safe for concurrent use.
package bufpool

import (
	"sync"
)

// Default buffer size classes.
const (
	DefaultSmallSize = 4 << 10
	DefaultBlockSize = 32 << 10
	DefaultLargeSize = 1 << 20
)

// Pool manages byte slices organized by size class.
type Pool struct {
	small     sync.Pool
	block     sync.Pool
	large     sync.Pool
	smallSize int
	blockSize int
	largeSize int
}

// Config holds the tier sizes for a custom pool. Zero values take defaults.
type Config struct {
	SmallSize int
	BlockSize int
	LargeSize int
}

// DefaultConfig returns the default pool configuration.
func DefaultConfig() Config {
	return Config{
		SmallSize: DefaultSmallSize,
		BlockSize: DefaultBlockSize,
		LargeSize: DefaultLargeSize,
	}
}

// NewPool creates a buffer pool. A nil config uses the defaults.
func NewPool(cfg *Config) *Pool {
	c := DefaultConfig()
	if cfg != nil {
		if cfg.SmallSize > 0 {
			c.SmallSize = cfg.SmallSize
		}
		if cfg.BlockSize > 0 {
			c.BlockSize = cfg.BlockSize
		}
		if cfg.LargeSize > 0 {
			c.LargeSize = cfg.LargeSize
		}
	}

	p := &Pool{
		smallSize: c.SmallSize,
		blockSize: c.BlockSize,
		largeSize: c.LargeSize,
	}
	p.small.New = newBuffer(p.smallSize)
	p.block.New = newBuffer(p.blockSize)
	p.large.New = newBuffer(p.largeSize)
	return p
}

func newBuffer(size int) func() any {
	return func() any {
		buf := make([]byte, size)
		return &buf
	}
}

// Get returns a slice of exactly size bytes, backed by a pooled buffer when
// size fits a tier. Pair every Get with a Put.
func (p *Pool) Get(size int) []byte {
	var bufPtr *[]byte

	switch {
	case size <= p.smallSize:
		bufPtr = p.small.Get().(*[]byte)
	case size <= p.blockSize:
		bufPtr = p.block.Get().(*[]byte)
	case size <= p.largeSize:
		bufPtr = p.large.Get().(*[]byte)
	default:
		return make([]byte, size)
	}

	buf := *bufPtr
	return buf[:size]
}

// Put returns a buffer obtained from Get. Buffers whose capacity matches no
// tier are left to the garbage collector.
func (p *Pool) Put(buf []byte) {
	if buf == nil {
		return
	}

	full := buf[:cap(buf)]
	switch cap(buf) {
	case p.smallSize:
		p.small.Put(&full)
	case p.blockSize:
		p.block.Put(&full)
	case p.largeSize:
		p.large.Put(&full)
	}
}

var globalPool = NewPool(nil)

// Get returns a buffer from the package-level pool.
//
//	buf := bufpool.Get(blockSize)
//	defer bufpool.Put(buf)
func Get(size int) []byte {
	return globalPool.Get(size)
}

// Put returns a buffer to the package-level pool.
func Put(buf []byte) {
	globalPool.Put(buf)
}
