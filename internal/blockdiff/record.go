package blockdiff

// RecordKind enumerates the block-granular record types committed to the log.
type RecordKind uint8

const (
	// RecordCopy copies one block from Src to Dst at apply time.
	RecordCopy RecordKind = iota + 1
	// RecordReplaceSource is a staged copy: the writer reads block Src from
	// the pre-update image at log-write time and commits it as a raw write of
	// Dst. At apply time it reads nothing, which is what breaks copy cycles.
	RecordReplaceSource
	// RecordRawWrite writes Data (one block) to Dst.
	RecordRawWrite
	// RecordZeroRange zeroes Count blocks starting at Dst.
	RecordZeroRange
)

func (k RecordKind) String() string {
	switch k {
	case RecordCopy:
		return "COPY"
	case RecordReplaceSource:
		return "REPLACE_SOURCE"
	case RecordRawWrite:
		return "RAW_WRITE"
	case RecordZeroRange:
		return "ZERO_RANGE"
	default:
		return "UNKNOWN"
	}
}

// Record is the minimal unit appended to the change log: one block for
// Copy/ReplaceSource/RawWrite, a contiguous extent for ZeroRange.
type Record struct {
	Kind  RecordKind
	Src   uint64 // RecordCopy, RecordReplaceSource
	Dst   uint64
	Count uint64 // RecordZeroRange
	Data  []byte // RecordRawWrite
}
