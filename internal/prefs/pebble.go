package prefs

import (
	"encoding/binary"

	pebblestore "github.com/lighthouseQC/system-update-engine/internal/storage/pebble"
)

var prefsPrefix = []byte("prefs/")

func prefKey(key string) []byte {
	k := make([]byte, 0, len(prefsPrefix)+len(key))
	k = append(k, prefsPrefix...)
	k = append(k, key...)
	return k
}

// PebbleStore persists preferences in the shared Pebble database under the
// prefs/ keyspace. Writes sync the WAL: resume correctness reads these values
// after a crash, so they must never run ahead of what is on disk.
type PebbleStore struct {
	db *pebblestore.DB
}

// NewPebbleStore wraps db as a preference store.
func NewPebbleStore(db *pebblestore.DB) *PebbleStore {
	return &PebbleStore{db: db}
}

// GetInt64 implements Store.
func (s *PebbleStore) GetInt64(key string) (int64, bool, error) {
	val, err := s.db.Get(prefKey(key))
	if err != nil {
		if pebblestore.IsNotFound(err) {
			return 0, false, nil
		}
		return 0, false, err
	}
	if len(val) < 8 {
		return 0, false, nil
	}
	return int64(binary.BigEndian.Uint64(val[:8])), true, nil
}

// SetInt64 implements Store.
func (s *PebbleStore) SetInt64(key string, value int64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], uint64(value))
	return s.db.SetSync(prefKey(key), b[:])
}

// Delete implements Store.
func (s *PebbleStore) Delete(key string) error {
	return s.db.Delete(prefKey(key))
}
