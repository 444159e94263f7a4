package http

import "time"

// frameLimiter caps inbound frames per connection per minute. It is owned
// by a single read loop, so the counter needs no locking.
type frameLimiter struct {
	limit   int
	counter int
	reset   *time.Ticker
}

func newFrameLimiter(limit int) *frameLimiter {
	if limit <= 0 {
		return &frameLimiter{limit: 0}
	}
	return &frameLimiter{
		limit: limit,
		reset: time.NewTicker(time.Minute),
	}
}

func (f *frameLimiter) allow() bool {
	if f == nil || f.limit <= 0 {
		return true
	}
	select {
	case <-f.reset.C:
		f.counter = 0
	default:
	}
	f.counter++
	return f.counter <= f.limit
}

func (f *frameLimiter) startReset(stop <-chan struct{}) {
	if f == nil || f.reset == nil {
		return
	}
	go func() {
		<-stop
		f.reset.Stop()
	}()
}
