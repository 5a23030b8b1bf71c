package rabbitmq

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/toksz/rep0st/internal/domain/entity"
)

func TestBackoffGrowsWithJobAttempt(t *testing.T) {
	c := &Consumer{baseDelay: 100 * time.Millisecond}

	want := []time.Duration{
		100 * time.Millisecond,
		200 * time.Millisecond,
		400 * time.Millisecond,
		800 * time.Millisecond,
	}
	for i, expected := range want {
		err := &entity.RetryableError{
			Attempt:     i + 1,
			MaxAttempts: 7,
			Err:         errors.New("media not mirrored yet"),
		}
		assert.Equal(t, expected, c.backoffFor(err), "attempt %d", i+1)
	}
}

func TestBackoffIsCapped(t *testing.T) {
	c := &Consumer{baseDelay: time.Second}

	err := &entity.RetryableError{Attempt: 30, MaxAttempts: 30, Err: errors.New("still failing")}
	assert.Equal(t, maxBackoff, c.backoffFor(err))
}

func TestBackoffDefaultsToBaseDelay(t *testing.T) {
	c := &Consumer{baseDelay: 250 * time.Millisecond}

	// errors without attempt information get the base delay
	assert.Equal(t, 250*time.Millisecond, c.backoffFor(errors.New("update job: connection refused")))
	assert.Equal(t, 250*time.Millisecond, c.backoffFor(&entity.RetryableError{Attempt: 0}))
}
