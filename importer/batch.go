package importer

import (
	"context"
	"time"
)

// collect gathers values from in and sends them to out, deduplicated and
// in arrival order, once no new value arrived for quiet. The timer resets
// on every value. Pending values are flushed when in closes; they are
// dropped when ctx ends. out is closed on return.
func collect[T comparable](ctx context.Context, in <-chan T, quiet time.Duration, out chan<- []T) {
	defer close(out)

	var (
		batch []T
		seen  = map[T]bool{}
	)
	timer := time.NewTimer(quiet)
	defer timer.Stop()
	stopTimer(timer)

	flush := func() bool {
		if len(batch) == 0 {
			return true
		}
		select {
		case out <- batch:
		case <-ctx.Done():
			return false
		}
		batch, seen = nil, map[T]bool{}
		return true
	}

	for {
		select {
		case v, open := <-in:
			if !open {
				flush()
				return
			}
			if !seen[v] {
				seen[v] = true
				batch = append(batch, v)
			}
			stopTimer(timer)
			timer.Reset(quiet)

		case <-timer.C:
			if !flush() {
				return
			}

		case <-ctx.Done():
			return
		}
	}
}

// stopTimer stops t and drains its channel.
func stopTimer(t *time.Timer) {
	if !t.Stop() {
		select {
		case <-t.C:
		default:
		}
	}
}
