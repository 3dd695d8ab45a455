// Package signalctx provides a context that is canceled when the
// process receives one of a set of signals, so teardown paths (like
// temporary-file cleanup) run on interrupt exactly as they do on a
// normal cancel.  When a signal caused the cancellation, Err reports
// which one.
package signalctx

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
)

// New returns a context canceled by any of the given signals or by the
// returned cancel function, whichever comes first.  The handler stays
// registered for the life of the process so a late signal is still
// swallowed rather than taking its default action after cancellation.
func New(signals ...os.Signal) (context.Context, context.CancelFunc) {
	inner, cancel := context.WithCancel(context.Background())
	ctx := &signalContext{Context: inner}
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, signals...)
	go func() {
		select {
		case sig := <-ch:
			ctx.setErr(fmt.Errorf("%s signal", sig))
			cancel()
		case <-inner.Done():
		}
	}()
	return ctx, cancel
}

type signalContext struct {
	context.Context
	mu  sync.Mutex
	err error
}

func (c *signalContext) setErr(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.err = err
}

// Err returns the signal that canceled the context, or the underlying
// context error for an ordinary cancellation.
func (c *signalContext) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return c.err
	}
	return c.Context.Err()
}
