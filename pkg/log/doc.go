// Package log provides the engine's structured logging facade and utilities.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// simple Field type for structured context. Internally it is backed by Go's
// standard library slog via a custom handler that preserves the
// formatter/outputs pipeline, so output stays consistent across the codebase
// while remaining interoperable with the slog ecosystem.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("partition"), log.Str("name", "system_a"))
//	l.Info("writer initialized", log.Int64("next_op", 0))
//
// # Configuration
//
// Use ApplyConfig to build a logger from a declarative Config, supporting JSON
// or text formatting with console and file outputs.
//
// # Interop
//
// To integrate with libraries expecting *log.Logger (Pebble's logging, for
// example), use ToStdLogger or RedirectStdLog.
package log
