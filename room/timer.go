package room

import (
	"context"
	"errors"
	"sync"
	"time"
)

// GuessTimer is the per-room authoritative guess countdown. Every Arm or
// Stop bumps a sequence number; a fired countdown hands its own sequence to
// the callback, and the worker discards the synthesized guess when the
// sequence is stale. That closes the race between a late real guess and an
// expiry already in flight.
type GuessTimer struct {
	mu     sync.Mutex
	seq    uint64
	cancel context.CancelFunc
}

func NewGuessTimer() *GuessTimer {
	return &GuessTimer{}
}

// Arm replaces any running countdown with a fresh one of duration d and
// returns its sequence. fire runs on a separate goroutine only if the
// countdown expires without being stopped or re-armed.
func (t *GuessTimer) Arm(d time.Duration, fire func(seq uint64)) uint64 {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
	}
	t.seq++
	seq := t.seq
	ctx, cancel := context.WithTimeout(context.Background(), d)
	t.cancel = cancel
	t.mu.Unlock()

	go func() {
		<-ctx.Done()
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			fire(seq)
		}
	}()
	return seq
}

// Stop cancels the running countdown and invalidates its sequence.
func (t *GuessTimer) Stop() {
	t.mu.Lock()
	if t.cancel != nil {
		t.cancel()
		t.cancel = nil
	}
	t.seq++
	t.mu.Unlock()
}

// Seq returns the sequence of the most recent Arm or Stop.
func (t *GuessTimer) Seq() uint64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.seq
}
