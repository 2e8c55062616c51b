package cowlog

import (
	"bytes"
	"testing"
)

func TestRecordRoundtrip(t *testing.T) {
	cases := []Record{
		{Kind: KindCopy, Dst: 7, Src: 42},
		{Kind: KindRawWrite, Dst: 3, Data: []byte("block-bytes")},
		{Kind: KindZeroRange, Dst: 100, Count: 16},
		{Kind: KindLabel, Label: 9},
	}
	for _, want := range cases {
		enc := EncodeRecord(want)
		if enc == nil {
			t.Fatalf("%v: encode returned nil", want.Kind)
		}
		got, ok := DecodeRecord(enc)
		if !ok {
			t.Fatalf("%v: decode failed", want.Kind)
		}
		if got.Kind != want.Kind || got.Dst != want.Dst || got.Src != want.Src ||
			got.Count != want.Count || got.Label != want.Label || !bytes.Equal(got.Data, want.Data) {
			t.Fatalf("roundtrip mismatch: got %+v want %+v", got, want)
		}
	}
}

func TestRecordCRCFail(t *testing.T) {
	enc := EncodeRecord(Record{Kind: KindCopy, Dst: 1, Src: 2})
	enc[len(enc)-1] ^= 0xFF // corrupt one byte
	if _, ok := DecodeRecord(enc); ok {
		t.Fatalf("expected crc failure")
	}
}

func TestRecordDecodeRejectsTruncated(t *testing.T) {
	enc := EncodeRecord(Record{Kind: KindZeroRange, Dst: 5, Count: 2})
	if _, ok := DecodeRecord(enc[:3]); ok {
		t.Fatalf("expected failure on truncated record")
	}
	if _, ok := DecodeRecord(nil); ok {
		t.Fatalf("expected failure on empty record")
	}
}

func TestRecordEncodeUnknownKind(t *testing.T) {
	if EncodeRecord(Record{Kind: Kind(77)}) != nil {
		t.Fatalf("unknown kind should not encode")
	}
}
