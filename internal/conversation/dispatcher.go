// ABOUTME: Per-user FIFO dispatcher in front of the conversation engine
// ABOUTME: One worker per active user drains that user's queue in arrival order

package conversation

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/2389/chembot/internal/format"
)

// ErrDispatcherClosed is returned by Submit after Close.
var ErrDispatcherClosed = errors.New("dispatcher closed")

// Handler turns one event into a response. *Engine implements it.
type Handler interface {
	HandleEvent(ctx context.Context, userID string, ev Event) format.Response
}

// ReplyFunc delivers a response back to the user's transport.
type ReplyFunc func(ctx context.Context, userID string, resp format.Response)

type job struct {
	ctx   context.Context
	ev    Event
	reply ReplyFunc
}

// Dispatcher queues events per user. Each user's events are handled one at
// a time in submission order; different users are handled concurrently.
type Dispatcher struct {
	handler Handler
	logger  *slog.Logger

	mu     sync.Mutex
	queues map[string]*list.List // userID -> pending jobs; present while a worker runs
	closed bool
	wg     sync.WaitGroup
}

// NewDispatcher creates a dispatcher. Pass nil logger for default.
func NewDispatcher(h Handler, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		handler: h,
		logger:  logger.With("component", "dispatcher"),
		queues:  make(map[string]*list.List),
	}
}

// Submit enqueues ev for userID. reply is called with the response from the
// user's worker goroutine.
func (d *Dispatcher) Submit(ctx context.Context, userID string, ev Event, reply ReplyFunc) error {
	if reply == nil {
		return fmt.Errorf("reply func is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return ErrDispatcherClosed
	}

	q, running := d.queues[userID]
	if !running {
		q = list.New()
		d.queues[userID] = q
	}
	q.PushBack(job{ctx: ctx, ev: ev, reply: reply})

	if !running {
		d.wg.Add(1)
		go d.drain(userID, q)
	}
	return nil
}

// drain processes userID's queue until it is empty, then retires the worker.
func (d *Dispatcher) drain(userID string, q *list.List) {
	defer d.wg.Done()
	for {
		d.mu.Lock()
		front := q.Front()
		if front == nil {
			delete(d.queues, userID)
			d.mu.Unlock()
			return
		}
		j := q.Remove(front).(job)
		d.mu.Unlock()

		d.process(userID, j)
	}
}

func (d *Dispatcher) process(userID string, j job) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("panic while handling event", "user_id", userID, "kind", j.ev.Kind, "panic", r)
		}
	}()

	if err := j.ctx.Err(); err != nil {
		d.logger.Debug("dropping event with cancelled context", "user_id", userID, "kind", j.ev.Kind)
		return
	}

	resp := d.handler.HandleEvent(j.ctx, userID, j.ev)
	j.reply(j.ctx, userID, resp)
}

// Pending returns how many events are queued for userID, excluding one in progress.
func (d *Dispatcher) Pending(userID string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	if q, ok := d.queues[userID]; ok {
		return q.Len()
	}
	return 0
}

// Active returns how many users currently have a worker running.
func (d *Dispatcher) Active() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.queues)
}

// Close stops accepting events and waits for queued ones to finish, or for
// ctx to expire.
func (d *Dispatcher) Close(ctx context.Context) error {
	d.mu.Lock()
	d.closed = true
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return fmt.Errorf("waiting for dispatcher to drain: %w", ctx.Err())
	}
}
