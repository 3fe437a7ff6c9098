// Package poller re-fetches an asynchronous resource on a fixed interval
// until it reaches a terminal state, the optional cutoff elapses, or the
// context is cancelled. There is no backoff and no jitter.
package poller

import (
	"context"
	"errors"
	"time"
)

// ErrTimeout is returned with the last fetched value when MaxDuration
// elapses before a terminal state is observed.
var ErrTimeout = errors.New("poller: gave up waiting for a terminal state")

// Clock is the time source used between fetches.
type Clock interface {
	Now() time.Time
	// NewTimer returns a channel that fires once after d and a stop func
	// that releases it.
	NewTimer(d time.Duration) (<-chan time.Time, func() bool)
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) NewTimer(d time.Duration) (<-chan time.Time, func() bool) {
	t := time.NewTimer(d)
	return t.C, t.Stop
}

type Options struct {
	Interval time.Duration
	// MaxDuration of zero polls until a terminal state or cancellation.
	MaxDuration time.Duration
	// OnPoll is called after every successful fetch, attempt counting from 1.
	OnPoll func(attempt int)
	Clock  Clock
}

func NoteOptions() Options {
	return Options{Interval: 5 * time.Second}
}

func AidOptions() Options {
	return Options{Interval: 3 * time.Second, MaxDuration: 120 * time.Second}
}

func StudyPlanOptions() Options {
	return Options{Interval: 5 * time.Second}
}

// Until fetches once immediately and then once per interval while
// isTerminal reports false. A fetch error stops polling and is returned
// as is; no fetch is issued after cancellation or a terminal result.
func Until[T any](ctx context.Context, opts Options, fetch func(context.Context) (T, error), isTerminal func(T) bool) (T, error) {
	clock := opts.Clock
	if clock == nil {
		clock = realClock{}
	}
	interval := opts.Interval
	if interval <= 0 {
		interval = 5 * time.Second
	}

	var last T
	start := clock.Now()

	for attempt := 1; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return last, err
		}

		v, err := fetch(ctx)
		if err != nil {
			return last, err
		}
		last = v

		if opts.OnPoll != nil {
			opts.OnPoll(attempt)
		}
		if isTerminal(v) {
			return v, nil
		}

		if opts.MaxDuration > 0 && clock.Now().Sub(start) >= opts.MaxDuration {
			return last, ErrTimeout
		}

		fire, stop := clock.NewTimer(interval)
		select {
		case <-ctx.Done():
			stop()
			return last, ctx.Err()
		case <-fire:
		}
	}
}

// Handle is a poll running in its own goroutine.
type Handle[T any] struct {
	cancel context.CancelFunc
	done   chan struct{}
	value  T
	err    error
}

// Start runs Until in the background. Stop must be called when the owner
// goes away so no further fetches are issued.
func Start[T any](ctx context.Context, opts Options, fetch func(context.Context) (T, error), isTerminal func(T) bool) *Handle[T] {
	ctx, cancel := context.WithCancel(ctx)
	h := &Handle[T]{cancel: cancel, done: make(chan struct{})}

	go func() {
		defer close(h.done)
		defer cancel()
		h.value, h.err = Until(ctx, opts, fetch, isTerminal)
	}()

	return h
}

// Stop cancels the poll and waits for the goroutine to exit.
func (h *Handle[T]) Stop() {
	h.cancel()
	<-h.done
}

func (h *Handle[T]) Done() <-chan struct{} {
	return h.done
}

// Result blocks until the poll finishes.
func (h *Handle[T]) Result() (T, error) {
	<-h.done
	return h.value, h.err
}
