package web

import (
	"context"
	"sync"
	"time"
)

// writeTimeout bounds a single WebSocket write.
const writeTimeout = 10 * time.Second

// outbox buffers messages for one connection's writer goroutine. Control
// messages keep their order; state messages are coalesced so a slow page
// only ever receives the latest snapshot.
type outbox struct {
	mu     sync.Mutex
	queue  []serverMessage
	state  *serverMessage
	closed bool
	wake   chan struct{}
}

func newOutbox() *outbox {
	return &outbox{wake: make(chan struct{}, 1)}
}

// push queues m. It reports false once the outbox is closed.
func (o *outbox) push(m serverMessage) bool {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return false
	}
	if m.Type == MsgState {
		o.state = &m
	} else {
		o.queue = append(o.queue, m)
	}
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
	return true
}

// close makes later pushes fail and lets run return once drained.
func (o *outbox) close() {
	o.mu.Lock()
	o.closed = true
	o.mu.Unlock()

	select {
	case o.wake <- struct{}{}:
	default:
	}
}

// take returns everything pending, state last.
func (o *outbox) take() (batch []serverMessage, closed bool) {
	o.mu.Lock()
	defer o.mu.Unlock()
	batch, o.queue = o.queue, nil
	if o.state != nil {
		batch = append(batch, *o.state)
		o.state = nil
	}
	return batch, o.closed
}

// run writes pending messages with write until ctx is done, a write fails,
// or the outbox is closed and drained.
func (o *outbox) run(ctx context.Context, write func(context.Context, serverMessage) error) error {
	for {
		batch, closed := o.take()
		for _, m := range batch {
			wctx, cancel := context.WithTimeout(ctx, writeTimeout)
			err := write(wctx, m)
			cancel()
			if err != nil {
				return err
			}
		}
		if closed {
			return nil
		}
		if len(batch) > 0 {
			continue
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-o.wake:
		}
	}
}
