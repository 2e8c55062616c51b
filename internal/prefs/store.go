package prefs

// Store persists small named integers, the durable scratch state updates
// depend on to survive process death (progress markers foremost).
type Store interface {
	// GetInt64 returns the stored value and whether the key exists.
	GetInt64(key string) (int64, bool, error)
	// SetInt64 durably stores value under key.
	SetInt64(key string, value int64) error
	// Delete removes key. Deleting an absent key is not an error.
	Delete(key string) error
}
