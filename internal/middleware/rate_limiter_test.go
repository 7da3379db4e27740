package middleware

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRateLimiterBurstThenBlocks(t *testing.T) {
	rl := NewRateLimiter(time.Hour, 3)

	for i := 0; i < 3; i++ {
		assert.True(t, rl.Allow("10.0.0.1"), "request %d within burst", i)
	}
	assert.False(t, rl.Allow("10.0.0.1"))

	// other clients are tracked independently
	assert.True(t, rl.Allow("10.0.0.2"))
}

func TestRateLimiterRefills(t *testing.T) {
	rl := NewRateLimiter(10*time.Millisecond, 1)

	assert.True(t, rl.Allow("10.0.0.1"))
	assert.False(t, rl.Allow("10.0.0.1"))

	time.Sleep(25 * time.Millisecond)
	assert.True(t, rl.Allow("10.0.0.1"))
}
