package cowlog

import (
	"encoding/binary"
)

// Keyspace helpers for Pebble keys.
//
// Layout (byte-wise, lexicographically sortable):
// - cow/{partition}/m           (log metadata: lastSeq, label floor, finalized)
// - cow/{partition}/e/{seq_be8} (records)

var (
	cowPrefix  = []byte("cow/")
	metaSuffix = []byte("/m")
	entrySeg   = []byte("/e/")
)

func appendBE8(dst []byte, v uint64) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[:]...)
}

// KeyMeta builds the log metadata key for a partition.
func KeyMeta(partition string) []byte {
	k := make([]byte, 0, len(cowPrefix)+len(partition)+len(metaSuffix))
	k = append(k, cowPrefix...)
	k = append(k, partition...)
	k = append(k, metaSuffix...)
	return k
}

// KeyEntry builds the record key with a big-endian sequence for proper ordering.
func KeyEntry(partition string, seq uint64) []byte {
	k := make([]byte, 0, len(cowPrefix)+len(partition)+len(entrySeg)+8)
	k = append(k, cowPrefix...)
	k = append(k, partition...)
	k = append(k, entrySeg...)
	k = appendBE8(k, seq)
	return k
}

// entryBounds returns [low, hi) covering every record key of the partition.
func entryBounds(partition string) (low, hi []byte) {
	low = KeyEntry(partition, 0)
	hi = append(KeyEntry(partition, ^uint64(0)), 0x00)
	return low, hi
}

// seqFromEntryKey extracts the sequence from a record key.
func seqFromEntryKey(key []byte) uint64 {
	return binary.BigEndian.Uint64(key[len(key)-8:])
}
