package quality

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBreakerOpensAtThreshold(t *testing.T) {
	b := NewBreaker(3)
	assert.False(t, b.RecordFailure())
	assert.False(t, b.RecordFailure())
	assert.True(t, b.RecordFailure())
	assert.True(t, b.Open())
	assert.Equal(t, 3, b.Failures())
}

func TestBreakerResetsOnSuccess(t *testing.T) {
	b := NewBreaker(3)
	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	assert.False(t, b.Open())
	assert.Equal(t, 0, b.Failures())

	// A fresh streak is required to open after a success.
	b.RecordFailure()
	b.RecordFailure()
	assert.False(t, b.Open())
	b.RecordFailure()
	assert.True(t, b.Open())
}

func TestBreakerDefaultThreshold(t *testing.T) {
	b := NewBreaker(0)
	for i := 0; i < 4; i++ {
		assert.False(t, b.RecordFailure())
	}
	assert.True(t, b.RecordFailure())
}
