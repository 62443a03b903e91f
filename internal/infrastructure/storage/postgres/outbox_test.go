package postgres

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestRetryBackoff(t *testing.T) {
	assert.Equal(t, time.Minute, RetryBackoff(0))
	assert.Equal(t, 3*time.Minute, RetryBackoff(2))
}

func TestNextOutboxStatus(t *testing.T) {
	assert.Equal(t, OutboxStatusPending, NextOutboxStatus(1))
	assert.Equal(t, OutboxStatusPending, NextOutboxStatus(MaxOutboxRetries-1))
	assert.Equal(t, OutboxStatusFailed, NextOutboxStatus(MaxOutboxRetries))
}
