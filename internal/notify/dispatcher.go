package notify

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// Dispatcher sends events in the background. Failures are logged and
// dropped; they never reach the caller.
type Dispatcher struct {
	next    Notifier
	log     *slog.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

func NewDispatcher(next Notifier, log *slog.Logger, timeout time.Duration) *Dispatcher {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &Dispatcher{next: next, log: log, timeout: timeout}
}

// Dispatch delivers events in order on a background goroutine.
func (d *Dispatcher) Dispatch(events ...Event) {
	if len(events) == 0 {
		return
	}
	d.wg.Add(1)
	go func() {
		defer d.wg.Done()
		for _, e := range events {
			d.send(e)
		}
	}()
}

func (d *Dispatcher) send(e Event) {
	ctx, cancel := context.WithTimeout(context.Background(), d.timeout)
	defer cancel()
	defer func() {
		if r := recover(); r != nil {
			d.log.Warn("notifier panicked", "event_id", e.ID.String(), "type", string(e.Type), "panic", r)
		}
	}()
	if err := d.next.Notify(ctx, e); err != nil {
		d.log.Warn("notification failed", "event_id", e.ID.String(), "type", string(e.Type), "error", err)
	}
}

// Wait blocks until every dispatched batch has been attempted.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}
