package log

import "sync"

var (
	defaultMu     sync.RWMutex
	defaultLogger Logger
)

// GetDefaultLogger returns the process-wide logger, creating a text logger at
// InfoLevel on first use.
func GetDefaultLogger() Logger {
	defaultMu.RLock()
	l := defaultLogger
	defaultMu.RUnlock()
	if l != nil {
		return l
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if defaultLogger == nil {
		defaultLogger = NewLogger(WithFormatter(&TextFormatter{}))
	}
	return defaultLogger
}

// SetDefaultLogger replaces the process-wide logger.
func SetDefaultLogger(l Logger) {
	defaultMu.Lock()
	defaultLogger = l
	defaultMu.Unlock()
}
