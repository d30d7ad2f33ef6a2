package objectstore

import (
	"testing"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
)

func TestStorageClassToken(t *testing.T) {
	cases := []struct {
		name  string
		token string
	}{
		{"STANDARD", "STANDARD"},
		{"Glacier", "GLACIER"},
		{"DeepArchive", "DEEP_ARCHIVE"},
		{"StandardInfrequentAccess", "STANDARD_IA"},
	}

	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := StorageClassToken(c.name)
			assert.NoError(t, err)
			assert.Equal(t, c.token, got)
		})
	}
}

func TestStorageClassToken_Unknown(t *testing.T) {
	_, err := StorageClassToken("nearline")
	assert.Error(t, err)
}

func TestFixedStepBackoff_SleepSequence(t *testing.T) {
	b := &fixedStepBackoff{}

	for attempt := 1; attempt < MaxRetries; attempt++ {
		d := b.NextBackOff()
		assert.Equal(t, time.Duration(attempt)*2*time.Second, d, "attempt %d", attempt)
	}

	// the 20th call (attempt reaches MaxRetries) signals give-up.
	assert.Equal(t, backoff.Stop, b.NextBackOff())
}

func TestFixedStepBackoff_Reset(t *testing.T) {
	b := &fixedStepBackoff{}
	b.NextBackOff()
	b.NextBackOff()
	b.Reset()
	assert.Equal(t, 2*time.Second, b.NextBackOff())
}

func TestNewRetryPolicy_ReturnsFreshInstance(t *testing.T) {
	p1 := NewRetryPolicy()
	p1.NextBackOff()
	p1.NextBackOff()

	p2 := NewRetryPolicy()
	assert.Equal(t, 2*time.Second, p2.NextBackOff())
}
