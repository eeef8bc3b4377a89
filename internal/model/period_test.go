package model

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePeriod(t *testing.T) {
	p, err := ParsePeriod("2025Q2")
	require.NoError(t, err)
	assert.Equal(t, "2025Q2", p.Key)
	assert.Equal(t, time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC), p.Start)
	assert.Equal(t, time.Date(2025, 6, 30, 23, 59, 59, int(time.Second-time.Nanosecond), time.UTC), p.End)

	// Lowercase q normalizes.
	p, err = ParsePeriod("2025q4")
	require.NoError(t, err)
	assert.Equal(t, "2025Q4", p.Key)
	assert.Equal(t, time.Date(2025, 10, 1, 0, 0, 0, 0, time.UTC), p.Start)
}

func TestParsePeriod_Invalid(t *testing.T) {
	for _, key := range []string{"", "2025", "2025Q5", "Q2-2025", "25Q1", "2025Q0"} {
		_, err := ParsePeriod(key)
		require.Error(t, err, key)
		assert.True(t, errors.Is(err, ErrBadPeriod), key)
	}
}

func TestPeriodPrev(t *testing.T) {
	p, err := ParsePeriod("2025Q1")
	require.NoError(t, err)

	prev := p.Prev()
	assert.Equal(t, "2024Q4", prev.Key)
	assert.Equal(t, time.Date(2024, 10, 1, 0, 0, 0, 0, time.UTC), prev.Start)
	assert.True(t, prev.End.Before(p.Start))
}

func TestPeriodContains(t *testing.T) {
	p, err := ParsePeriod("2025Q2")
	require.NoError(t, err)

	assert.True(t, p.Contains(p.Start))
	assert.True(t, p.Contains(p.End))
	assert.True(t, p.Contains(time.Date(2025, 5, 15, 12, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC)))
	assert.False(t, p.Contains(p.Start.Add(-time.Nanosecond)))
}

func TestBucketStates(t *testing.T) {
	assert.True(t, BucketWon.Closed())
	assert.True(t, BucketLost.Closed())
	assert.False(t, BucketCommit.Closed())

	assert.True(t, BucketCommit.Active())
	assert.True(t, BucketBest.Active())
	assert.True(t, BucketPipeline.Active())
	assert.False(t, BucketWon.Active())
	assert.False(t, BucketOther.Active())
}
