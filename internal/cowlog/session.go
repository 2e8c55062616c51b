package cowlog

import "errors"

var (
	// ErrNotInitialized is returned when appending before InitFresh/InitAtLabel.
	ErrNotInitialized = errors.New("cowlog: session not initialized")
	// ErrFinalized is returned when appending to a finalized log.
	ErrFinalized = errors.New("cowlog: log finalized")
	// ErrLabelNotFound is returned by InitAtLabel when the requested label was
	// never durably appended.
	ErrLabelNotFound = errors.New("cowlog: label not found")
	// ErrLabelOrder is returned when a label would not be strictly increasing.
	ErrLabelOrder = errors.New("cowlog: label out of order")
)

// Session is the append-only change log consumed by the partition writer.
//
// Sequencing contract: AppendLabel(n) returns only after every prior append
// is durable, so a label in the log certifies everything before it.
// InitAtLabel is exact: it never loses data at or before the label and never
// retains partial appends after it.
type Session interface {
	// InitFresh positions an empty log for appending, discarding prior state.
	InitFresh() error
	// InitAtLabel re-opens for append immediately after the given label,
	// discarding any trailing records past it.
	InitAtLabel(label uint64) error
	// AppendCopy logs a single-block copy.
	AppendCopy(dst, src uint64) error
	// AppendRawWrite logs one block of literal data.
	AppendRawWrite(dst uint64, data []byte) error
	// AppendZeroRange logs zeroing of a contiguous block run.
	AppendZeroRange(dst, count uint64) error
	// AppendLabel durably commits a strictly-increasing checkpoint label.
	AppendLabel(n uint64) error
	// Finalize closes out the write session. Further appends fail.
	Finalize() error
}
