package helpers

import (
	"sync/atomic"
	"time"
)

// Limited exponential backoff for retry delays.
// First delay is always 0.
// Failure() increases next delay by K, Reset() drops it to zero.
type Backoff struct {
	next int64 // atomic align
	last int64 // unix nano, atomic

	Min time.Duration
	Max time.Duration
	K   float32
	Res time.Duration // delay resolution for nice logs, default=1ms
}

// Use scenario:
// for {
//   time.Sleep(backoff.DelayBefore())
//   err := op()
//   backoff.Update(err==nil)
// }
func (b *Backoff) DelayBefore() time.Duration {
	next := time.Duration(atomic.LoadInt64(&b.next))
	if next == 0 {
		return 0
	}
	delay := b.limit(next)
	since := time.Duration(time.Now().UnixNano() - atomic.LoadInt64(&b.last))
	if since >= delay {
		return 0
	}
	return b.round(delay - since)
}

// Increase next delay.
func (b *Backoff) Failure() {
	next := time.Duration(atomic.LoadInt64(&b.next))
	if next == 0 {
		next = b.Min
	} else {
		next = time.Duration(float32(next) * b.K)
	}
	next = b.limit(next)
	atomic.StoreInt64(&b.last, time.Now().UnixNano())
	atomic.StoreInt64(&b.next, int64(next))
}

func (b *Backoff) Reset() {
	atomic.StoreInt64(&b.last, time.Now().UnixNano())
	atomic.StoreInt64(&b.next, 0)
}

func (b *Backoff) Update(success bool) {
	if success {
		b.Reset()
	} else {
		b.Failure()
	}
}

func (b *Backoff) limit(d time.Duration) time.Duration {
	if d < b.Min {
		d = b.Min
	}
	if d > b.Max {
		d = b.Max
	}
	return b.round(d)
}

func (b *Backoff) round(d time.Duration) time.Duration {
	res := b.Res
	if res == 0 {
		res = 1 * time.Millisecond
	}
	return d / res * res
}
