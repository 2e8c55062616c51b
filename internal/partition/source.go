package partition

import (
	"fmt"
	"io"
	"os"
)

// BlockSource is random-access read over the current (pre-update) partition
// contents. It feeds replace-from-source records and staged cycle copies.
type BlockSource interface {
	// ReadBlocks returns count whole blocks starting at block. A short read
	// is an error: partial source data can never be committed.
	ReadBlocks(block, count uint64) ([]byte, error)
}

// FileSource reads blocks from a partition image file.
type FileSource struct {
	f         *os.File
	blockSize int
}

// OpenFileSource opens path read-only as a block source.
func OpenFileSource(path string, blockSize int) (*FileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	return &FileSource{f: f, blockSize: blockSize}, nil
}

// ReadBlocks implements BlockSource.
func (s *FileSource) ReadBlocks(block, count uint64) ([]byte, error) {
	buf := make([]byte, count*uint64(s.blockSize))
	off := int64(block) * int64(s.blockSize)
	n, err := s.f.ReadAt(buf, off)
	if err != nil && err != io.EOF {
		return nil, err
	}
	if n != len(buf) {
		return nil, fmt.Errorf("short read: %d of %d bytes at block %d", n, len(buf), block)
	}
	return buf, nil
}

// Close releases the underlying file.
func (s *FileSource) Close() error { return s.f.Close() }

// MemorySource serves blocks from an in-memory image, for tests.
type MemorySource struct {
	blocks    [][]byte
	blockSize int

	// FailReads forces every read to error, for failure-path tests.
	FailReads bool
}

// NewMemorySource builds a source of n blocks where block i is filled with
// byte seed+i.
func NewMemorySource(n int, blockSize int, seed byte) *MemorySource {
	s := &MemorySource{blockSize: blockSize}
	for i := 0; i < n; i++ {
		b := make([]byte, blockSize)
		for j := range b {
			b[j] = seed + byte(i)
		}
		s.blocks = append(s.blocks, b)
	}
	return s
}

// ReadBlocks implements BlockSource.
func (s *MemorySource) ReadBlocks(block, count uint64) ([]byte, error) {
	if s.FailReads {
		return nil, fmt.Errorf("injected read failure at block %d", block)
	}
	if block+count > uint64(len(s.blocks)) {
		return nil, fmt.Errorf("read past end: block %d count %d of %d", block, count, len(s.blocks))
	}
	out := make([]byte, 0, count*uint64(s.blockSize))
	for b := block; b < block+count; b++ {
		out = append(out, s.blocks[b]...)
	}
	return out, nil
}

// Block returns a copy of one block's contents.
func (s *MemorySource) Block(i uint64) []byte {
	return append([]byte(nil), s.blocks[i]...)
}
