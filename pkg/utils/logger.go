// Package utils holds small helpers shared by the osusume binary and its packages.
package utils

import "go.uber.org/zap"

// NewLogger returns a zap logger. When debug is true, uses development config
// (human-readable, debug level); otherwise uses production config (JSON, info level).
func NewLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

// Named returns l scoped to a component name, or nil when l is nil so that
// components keep treating a nil logger as "logging disabled".
func Named(l *zap.Logger, component string) *zap.Logger {
	if l == nil {
		return nil
	}
	return l.Named(component)
}
