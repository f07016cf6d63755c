/*
Copyright © 2025 DataHive Development.

Released under MIT license.
*/

// Package logutil provides logging helpers shared by the service's packages.
// It's used in the internal code and not exposed to the public API.
package logutil

import (
	"context"

	"github.com/acronis/go-appkit/log"
)

// GetLoggerFromProvider returns a logger from the given provider, falling
// back to a disabled logger when the provider is nil or yields none.
func GetLoggerFromProvider(ctx context.Context, provider func(ctx context.Context) log.FieldLogger) log.FieldLogger {
	if provider != nil {
		if logger := provider(ctx); logger != nil {
			return logger
		}
	}
	return log.NewDisabledLogger()
}
