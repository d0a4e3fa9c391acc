package daytime_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pekwm/pekwm-sys/internal/daytime"
)

func TestSunriseBeforeNoonBeforeSunsetAtMidLatitude(t *testing.T) {
	noon := time.Date(2026, time.June, 21, 12, 0, 0, 0, time.UTC).Unix()
	for _, lat := range []float64{-60, -30, 0, 30, 60} {
		r := daytime.Compute(noon, lat, 0, 0)
		require.False(t, r.Polar, "lat=%v", lat)
		assert.Less(t, r.Sunrise, noon, "lat=%v", lat)
		assert.Less(t, noon, r.Sunset, "lat=%v", lat)
		assert.GreaterOrEqual(t, r.DayLength, time.Duration(0))
		assert.LessOrEqual(t, r.DayLength, 24*time.Hour)
	}
}

func TestTimeOfDayTransitionScheduling(t *testing.T) {
	r := daytime.Compute(
		time.Date(2026, time.March, 20, 12, 0, 0, 0, time.UTC).Unix(),
		59.3, 18.0, 0,
	)
	require.False(t, r.Polar)

	before := r.Sunset - 10
	assert.Equal(t, r.Sunset, r.GetTimeOfDayEnd(before))

	after := r.Sunset + 1
	assert.Equal(t, r.Sunrise+86400, r.GetTimeOfDayEnd(after))
}

func TestPolarNightReportsNight(t *testing.T) {
	ts := time.Date(2026, time.December, 21, 12, 0, 0, 0, time.UTC).Unix()
	r := daytime.Compute(ts, 78.0, 15.0, 0)
	require.True(t, r.Polar)
	assert.Equal(t, daytime.Night, r.GetTimeOfDay(ts))
}

func TestGetTimeOfDayMatchesSunriseSunsetWindow(t *testing.T) {
	r := daytime.Compute(
		time.Date(2026, time.June, 21, 12, 0, 0, 0, time.UTC).Unix(),
		40, -74, 0,
	)
	require.False(t, r.Polar)
	assert.Equal(t, daytime.Day, r.GetTimeOfDay(r.Sunrise))
	assert.Equal(t, daytime.Day, r.GetTimeOfDay(r.Sunset))
	assert.Equal(t, daytime.Night, r.GetTimeOfDay(r.Sunrise-1))
	assert.Equal(t, daytime.Night, r.GetTimeOfDay(r.Sunset+1))
}
