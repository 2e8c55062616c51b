// Package prefs provides the small durable key-value store an update session
// leans on for crash-safe bookkeeping, most importantly the per-partition
// progress marker. Values are int64; keys are flat strings namespaced by the
// caller. The Pebble implementation syncs every write, since a marker that
// overstates durable progress would lose data on resume.
package prefs
