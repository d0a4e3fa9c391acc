package timeouts_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pekwm/pekwm-sys/internal/timeouts"
)

func TestWheelOrderingScenario(t *testing.T) {
	t0 := time.Unix(1000, 0)
	clock := t0
	w := timeouts.New(func() time.Time { return clock })

	w.Add(1, t0.Add(500*time.Millisecond))
	w.Add(2, t0.Add(100*time.Millisecond))
	w.Replace(1, t0.Add(50*time.Millisecond))

	remaining, wait, _, ok := w.GetNextTimeout()
	require.False(t, ok)
	require.True(t, wait)
	assert.InDelta(t, 50*time.Millisecond, remaining, float64(2*time.Millisecond))

	clock = t0.Add(60 * time.Millisecond)
	_, wait, action, ok := w.GetNextTimeout()
	require.True(t, ok)
	assert.False(t, wait)
	assert.Equal(t, 1, action.Key)
}

func TestWheelStaysSorted(t *testing.T) {
	t0 := time.Unix(0, 0)
	clock := t0.Add(time.Hour) // far enough ahead that every action is already due
	w := timeouts.New(func() time.Time { return clock })
	w.Add(3, t0.Add(30*time.Second))
	w.Add(1, t0.Add(10*time.Second))
	w.Add(2, t0.Add(20*time.Second))

	var deadlines []time.Time
	for w.Len() > 0 {
		_, _, action, ok := w.GetNextTimeout()
		require.True(t, ok)
		deadlines = append(deadlines, action.Deadline)
	}
	require.Len(t, deadlines, 3)
	for i := 1; i < len(deadlines); i++ {
		assert.False(t, deadlines[i].Before(deadlines[i-1]))
	}
}

func TestEmptyWheelReturnsNoWait(t *testing.T) {
	w := timeouts.New(nil)
	_, wait, _, ok := w.GetNextTimeout()
	assert.False(t, ok)
	assert.False(t, wait)
}

func TestRemove(t *testing.T) {
	w := timeouts.New(nil)
	w.Add(1, time.Now().Add(time.Hour))
	assert.True(t, w.Remove(1))
	assert.False(t, w.Remove(1))
}
