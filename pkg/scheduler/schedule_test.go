package scheduler_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/dmitrymomot/predictvip/pkg/scheduler"
)

func TestDailyAt(t *testing.T) {
	t.Parallel()

	s := scheduler.DailyAt(2, 0)
	tests := []struct {
		name string
		from time.Time
		want time.Time
	}{
		{"before slot", time.Date(2025, 3, 10, 1, 59, 0, 0, time.UTC), time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC)},
		{"exactly at slot", time.Date(2025, 3, 10, 2, 0, 0, 0, time.UTC), time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC)},
		{"after slot", time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC), time.Date(2025, 3, 11, 2, 0, 0, 0, time.UTC)},
		{"month end", time.Date(2025, 2, 28, 23, 0, 0, 0, time.UTC), time.Date(2025, 3, 1, 2, 0, 0, 0, time.UTC)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.True(t, tt.want.Equal(s.Next(tt.from)), "got %v", s.Next(tt.from))
		})
	}
	assert.Equal(t, "daily at 02:00 UTC", s.String())
}

func TestDailyAtIn(t *testing.T) {
	t.Parallel()

	lagos := time.FixedZone("WAT", 3600)
	s := scheduler.DailyAtIn(2, 0, lagos)
	next := s.Next(time.Date(2025, 3, 10, 0, 30, 0, 0, time.UTC))
	assert.True(t, time.Date(2025, 3, 10, 1, 0, 0, 0, time.UTC).Equal(next), "got %v", next)
}

func TestEvery(t *testing.T) {
	t.Parallel()

	from := time.Date(2025, 3, 10, 9, 30, 0, 0, time.UTC)
	assert.Equal(t, from.Add(15*time.Minute), scheduler.Every(15*time.Minute).Next(from))
	assert.Equal(t, "every 15m0s", scheduler.Every(15*time.Minute).String())
}
