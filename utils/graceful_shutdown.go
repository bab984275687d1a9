package utils

import "context"

// GracefulShutdown blocks until the context is canceled, then runs the
// cleanup callback. Intended to be launched as a goroutine alongside an
// interactive loop.
func GracefulShutdown(ctx context.Context, onShutdown func()) {
	<-ctx.Done()
	onShutdown()
}
