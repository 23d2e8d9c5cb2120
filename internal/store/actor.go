package store

import (
	"context"
	"time"

	"github.com/strata/strata/internal/engine"
)

// queueDepth bounds how many requests may wait for the worker. Callers
// block (cooperatively, via select) once the queue is full, which keeps a
// slow engine from buffering unbounded work.
const queueDepth = 128

// request is one unit of work for the worker: an operation name for the
// metric registry, a closure run against the engine handle, and a one-shot
// reply channel.
type request struct {
	op    string
	fn    func(eng engine.Engine) (any, error)
	reply chan response
}

type response struct {
	value any
	err   error
}

// run is the worker loop. It is the only goroutine that ever touches the
// engine handle, so requests execute in exact arrival order with no
// interleaving. It exits when Close is requested or a request panics;
// either way the Store is dead afterwards and never restarted.
func (s *Store) run() {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("dispatcher worker panicked", "panic", r)
		}
		close(s.done)
		s.drain()
	}()

	for {
		select {
		case <-s.closing:
			return
		case req := <-s.requests:
			s.serve(req)
		}
	}
}

// serve executes one request and records its metric. The reply channel is
// buffered, so sending never blocks even if the caller stopped waiting.
func (s *Store) serve(req request) {
	start := time.Now()
	value, err := req.fn(s.eng)
	elapsed := time.Since(start)
	s.reg.record(req.op, elapsed, err != nil)
	s.log.Op(req.op, elapsed, err)
	req.reply <- response{value: value, err: err}
}

// drain fails every request still sitting in the queue after the worker
// has exited.
func (s *Store) drain() {
	for {
		select {
		case req := <-s.requests:
			req.reply <- response{err: ErrUnavailable}
		default:
			return
		}
	}
}

// dispatch enqueues one operation and waits for its reply. Cancelling ctx
// abandons the wait but never retracts work: an operation that reached the
// queue still runs to completion inside the worker.
func (s *Store) dispatch(ctx context.Context, op string, fn func(eng engine.Engine) (any, error)) (any, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	req := request{op: op, fn: fn, reply: make(chan response, 1)}

	select {
	case s.requests <- req:
	case <-s.done:
		return nil, ErrUnavailable
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case resp := <-req.reply:
		return resp.value, resp.err
	case <-s.done:
		// The worker may have replied just before dying; prefer the
		// real outcome if it is there.
		select {
		case resp := <-req.reply:
			return resp.value, resp.err
		default:
			return nil, ErrUnavailable
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
