// Package log wraps the standard library logger with named, per-service
// loggers.
//
// Every line carries a level and a `[name>]` marker:
//
//	WARN [geometry>] page 7 of PPN123: no document
//
// Debug output is off by default. It can be enabled for all services with
// SetGlobalDebug or for a single one with EnableDebugFor; Configure applies
// both from configuration. Tests capture output with SetOutput.
//
// The package name collides with the standard library; alias one of them
// when both are imported.
package log
