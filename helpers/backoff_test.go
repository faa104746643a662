package helpers

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBackoff(t *testing.T) {
	t.Parallel()

	b := Backoff{Min: 100 * time.Millisecond, Max: 1 * time.Second, K: 2}
	assert.Equal(t, time.Duration(0), b.DelayBefore())

	b.Failure()
	d := b.DelayBefore()
	assert.True(t, d > 0 && d <= 100*time.Millisecond, "delay=%v", d)

	for i := 0; i < 10; i++ {
		b.Failure()
	}
	d = b.DelayBefore()
	assert.True(t, d > 500*time.Millisecond && d <= time.Second, "delay=%v", d)

	b.Update(true)
	assert.Equal(t, time.Duration(0), b.DelayBefore())
}

func TestBackoffRound(t *testing.T) {
	t.Parallel()

	b := Backoff{Min: 1500 * time.Microsecond, Max: time.Second, K: 2}
	assert.Equal(t, 1*time.Millisecond, b.limit(0))
	b.Res = 100 * time.Millisecond
	assert.Equal(t, 700*time.Millisecond, b.round(789*time.Millisecond))
	assert.Equal(t, time.Second, b.limit(5*time.Second))
}
