package cowlog

import (
	"encoding/binary"
	"hash/crc32"
)

// Record encoding: kind byte | kind-specific fields | crc32c(everything prior)

var castagnoli = crc32.MakeTable(crc32.Castagnoli)

// Kind enumerates the durable record types of the change log.
type Kind byte

const (
	// KindCopy copies one source block to a destination block at apply time.
	KindCopy Kind = 1
	// KindRawWrite carries one block of literal data for a destination block.
	KindRawWrite Kind = 2
	// KindZeroRange zeroes a contiguous run of destination blocks.
	KindZeroRange Kind = 3
	// KindLabel is a checkpoint marker: all prior records are durable and
	// correspond to completed operations below the label's index.
	KindLabel Kind = 4
)

func (k Kind) String() string {
	switch k {
	case KindCopy:
		return "COPY"
	case KindRawWrite:
		return "RAW_WRITE"
	case KindZeroRange:
		return "ZERO_RANGE"
	case KindLabel:
		return "LABEL"
	default:
		return "UNKNOWN"
	}
}

// Record is one decoded change-log record.
type Record struct {
	Kind  Kind
	Dst   uint64 // KindCopy, KindRawWrite, KindZeroRange
	Src   uint64 // KindCopy
	Count uint64 // KindZeroRange
	Label uint64 // KindLabel
	Data  []byte // KindRawWrite
}

// EncodeRecord serializes a record with a trailing crc32c.
func EncodeRecord(r Record) []byte {
	var out []byte
	switch r.Kind {
	case KindCopy:
		out = make([]byte, 0, 1+16+4)
		out = append(out, byte(r.Kind))
		out = appendBE8(out, r.Dst)
		out = appendBE8(out, r.Src)
	case KindRawWrite:
		out = make([]byte, 0, 1+8+len(r.Data)+4)
		out = append(out, byte(r.Kind))
		out = appendBE8(out, r.Dst)
		out = append(out, r.Data...)
	case KindZeroRange:
		out = make([]byte, 0, 1+16+4)
		out = append(out, byte(r.Kind))
		out = appendBE8(out, r.Dst)
		out = appendBE8(out, r.Count)
	case KindLabel:
		out = make([]byte, 0, 1+8+4)
		out = append(out, byte(r.Kind))
		out = appendBE8(out, r.Label)
	default:
		return nil
	}
	crc := crc32.Checksum(out, castagnoli)
	var crcb [4]byte
	binary.BigEndian.PutUint32(crcb[:], crc)
	return append(out, crcb[:]...)
}

// DecodeRecord parses and checksums an encoded record.
func DecodeRecord(b []byte) (Record, bool) {
	if len(b) < 1+4 {
		return Record{}, false
	}
	body := b[:len(b)-4]
	expect := binary.BigEndian.Uint32(b[len(b)-4:])
	if crc32.Checksum(body, castagnoli) != expect {
		return Record{}, false
	}

	r := Record{Kind: Kind(body[0])}
	fields := body[1:]
	switch r.Kind {
	case KindCopy:
		if len(fields) != 16 {
			return Record{}, false
		}
		r.Dst = binary.BigEndian.Uint64(fields[0:8])
		r.Src = binary.BigEndian.Uint64(fields[8:16])
	case KindRawWrite:
		if len(fields) < 8 {
			return Record{}, false
		}
		r.Dst = binary.BigEndian.Uint64(fields[0:8])
		r.Data = append([]byte(nil), fields[8:]...)
	case KindZeroRange:
		if len(fields) != 16 {
			return Record{}, false
		}
		r.Dst = binary.BigEndian.Uint64(fields[0:8])
		r.Count = binary.BigEndian.Uint64(fields[8:16])
	case KindLabel:
		if len(fields) != 8 {
			return Record{}, false
		}
		r.Label = binary.BigEndian.Uint64(fields[0:8])
	default:
		return Record{}, false
	}
	return r, true
}
