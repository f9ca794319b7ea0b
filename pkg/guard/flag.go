package guard

import (
	"context"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"
	"time"
)

// Flag is a one-way timeout signal safe to set from any goroutine.
// It implements ports.Signal.
type Flag struct {
	set atomic.Bool
}

// Set raises the flag.
func (f *Flag) Set() { f.set.Store(true) }

// IsSet reports whether the flag was raised.
func (f *Flag) IsSet() bool { return f.set.Load() }

// Reset lowers the flag for a new session.
func (f *Flag) Reset() { f.set.Store(false) }

// RaiseOnDone raises the flag once ctx is done. The returned function detaches
// it; it reports false when the flag was already scheduled to be raised.
func (f *Flag) RaiseOnDone(ctx context.Context) (stop func() bool) {
	return context.AfterFunc(ctx, f.Set)
}

// RaiseAfter raises the flag once d has elapsed. A non-positive d never raises it.
func (f *Flag) RaiseAfter(d time.Duration) (stop func() bool) {
	if d <= 0 {
		return func() bool { return false }
	}
	t := time.AfterFunc(d, f.Set)
	return t.Stop
}

// RaiseOnInterrupt raises the flag on SIGINT or SIGTERM until stop is called,
// so the session winds down through the guard instead of being killed.
func (f *Flag) RaiseOnInterrupt() (stop func()) {
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	detach := context.AfterFunc(ctx, f.Set)
	return func() {
		// Detach first so our own cancel does not raise the flag.
		detach()
		cancel()
	}
}
