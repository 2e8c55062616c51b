package partition

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"
)

func TestMemorySourceReads(t *testing.T) {
	s := NewMemorySource(4, testBlockSize, 0x20)

	got, err := s.ReadBlocks(1, 2)
	if err != nil {
		t.Fatalf("ReadBlocks: %v", err)
	}
	want := append(s.Block(1), s.Block(2)...)
	if !bytes.Equal(got, want) {
		t.Fatalf("ReadBlocks = %x, want %x", got, want)
	}

	if _, err := s.ReadBlocks(3, 2); err == nil {
		t.Fatal("read past end succeeded")
	}
}

func TestFileSourceReads(t *testing.T) {
	path := filepath.Join(t.TempDir(), "source.img")
	img := make([]byte, 4*testBlockSize)
	for i := range img {
		img[i] = byte(i)
	}
	if err := os.WriteFile(path, img, 0o600); err != nil {
		t.Fatalf("write image: %v", err)
	}

	s, err := OpenFileSource(path, testBlockSize)
	if err != nil {
		t.Fatalf("OpenFileSource: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	got, err := s.ReadBlocks(2, 2)
	if err != nil {
		t.Fatalf("ReadBlocks: %v", err)
	}
	if !bytes.Equal(got, img[2*testBlockSize:]) {
		t.Fatalf("ReadBlocks = %x, want %x", got, img[2*testBlockSize:])
	}

	// A read past the image end is a short read, reported as an error.
	if _, err := s.ReadBlocks(3, 2); err == nil {
		t.Fatal("short read succeeded")
	}
}
