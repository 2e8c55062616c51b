package partition

import (
	"encoding/json"
	"fmt"
	"time"

	pebblestore "github.com/lighthouseQC/system-update-engine/internal/storage/pebble"
)

// Meta records a partition's fixed geometry. Resume validates against it so a
// marker written under one block size can never replay under another.
type Meta struct {
	Name        string `json:"name"`
	BlockSize   int    `json:"blockSize"`
	TotalBlocks uint64 `json:"totalBlocks"`
	CreatedAtMs int64  `json:"createdAtMs"`
}

var partMetaPrefix = []byte("partmeta/")

func metaKey(name string) []byte {
	k := make([]byte, 0, len(partMetaPrefix)+len(name))
	k = append(k, partMetaPrefix...)
	k = append(k, name...)
	return k
}

// EnsureMeta creates the partition meta record if absent, returning the
// effective meta. A geometry mismatch against an existing record fails with
// ErrConfig.
func EnsureMeta(db *pebblestore.DB, name string, blockSize int, totalBlocks uint64) (Meta, error) {
	existing, ok, err := GetMeta(db, name)
	if err != nil {
		return Meta{}, err
	}
	if ok {
		if existing.BlockSize != blockSize || existing.TotalBlocks != totalBlocks {
			return Meta{}, fmt.Errorf("%w: partition %q registered as %d blocks of %d bytes, got %d of %d",
				ErrConfig, name, existing.TotalBlocks, existing.BlockSize, totalBlocks, blockSize)
		}
		return existing, nil
	}

	m := Meta{
		Name:        name,
		BlockSize:   blockSize,
		TotalBlocks: totalBlocks,
		CreatedAtMs: time.Now().UnixMilli(),
	}
	b, err := json.Marshal(m)
	if err != nil {
		return Meta{}, err
	}
	if err := db.Set(metaKey(name), b); err != nil {
		return Meta{}, err
	}
	return m, nil
}

// GetMeta loads the partition meta record if present.
func GetMeta(db *pebblestore.DB, name string) (Meta, bool, error) {
	b, err := db.Get(metaKey(name))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return Meta{}, false, nil
		}
		return Meta{}, false, err
	}
	var m Meta
	if err := json.Unmarshal(b, &m); err != nil {
		return Meta{}, false, err
	}
	return m, true, nil
}

// DeleteMeta removes the partition meta record.
func DeleteMeta(db *pebblestore.DB, name string) error {
	return db.Delete(metaKey(name))
}
