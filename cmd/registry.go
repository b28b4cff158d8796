package cmd

import (
	"coupler/internal/descriptor"
)

// defaultRegistry holds executors for actions that need more than their
// declarative request spec. Declarative actions fall through to the
// built-in HTTP executor.
func defaultRegistry() *descriptor.Registry {
	return descriptor.NewRegistry()
}
