package period

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEndDate(t *testing.T) {
	start := time.Date(2024, 2, 25, 10, 30, 0, 0, time.UTC)

	tests := []struct {
		name string
		code string
		want time.Time
	}{
		{
			name: "seven days",
			code: Week,
			want: time.Date(2024, 3, 3, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "lifetime is 36500 days",
			code: Lifetime,
			want: start.Add(36500 * 24 * time.Hour),
		},
		{
			name: "unknown code falls back to 30 days",
			code: "4M",
			want: time.Date(2024, 3, 26, 10, 30, 0, 0, time.UTC),
		},
		{
			name: "empty code falls back to 30 days",
			code: "",
			want: start.Add(30 * 24 * time.Hour),
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, EndDate(start, tt.code))
		})
	}
}

func TestEndDate_WeekIsExactlySevenDays(t *testing.T) {
	start := time.Now().UTC()
	assert.Equal(t, 7*24*time.Hour, EndDate(start, Week).Sub(start))
}
