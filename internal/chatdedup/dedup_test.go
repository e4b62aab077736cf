package chatdedup

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Scenario 5 from spec.md §8: (R,"hi",t), (R,"hi",t+1s), (R,"hi",t+4s) —
// first and third forwarded, second dropped.
func TestDeduperScenario5(t *testing.T) {
	d := New(3 * time.Second)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	assert.True(t, d.Forward(base, 1, "hi"), "first message should be forwarded")
	assert.False(t, d.Forward(base.Add(time.Second), 1, "hi"), "second message (1s later, same signature) should be dropped")
	assert.True(t, d.Forward(base.Add(4*time.Second), 1, "hi"), "third message (4s later, original evicted) should be forwarded")
}

func TestDeduperDifferentRiderOrMessageNotDeduped(t *testing.T) {
	d := New(3 * time.Second)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)

	require.True(t, d.Forward(base, 1, "hi"))
	assert.True(t, d.Forward(base, 2, "hi"), "different rider with same message should be forwarded")
	assert.True(t, d.Forward(base, 1, "bye"), "same rider with different message should be forwarded")
}

func TestDeduperDeterministicUnderEventTimestamp(t *testing.T) {
	// Replaying the same sequence of (timestamp, rider, msg) twice must
	// produce identical forward/drop decisions, since the window is keyed
	// entirely off event timestamps rather than wall clock.
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	seq := []struct {
		offset time.Duration
		rider  uint64
		msg    string
	}{
		{0, 1, "hi"},
		{time.Second, 1, "hi"},
		{4 * time.Second, 1, "hi"},
		{4500 * time.Millisecond, 1, "hi"},
	}

	run := func() []bool {
		d := New(3 * time.Second)
		var results []bool
		for _, s := range seq {
			results = append(results, d.Forward(base.Add(s.offset), s.rider, s.msg))
		}
		return results
	}

	a := run()
	b := run()
	require.Len(t, b, len(a))
	for i := range a {
		assert.Equalf(t, a[i], b[i], "result[%d] differs across replays", i)
	}
}

func TestDeduperLen(t *testing.T) {
	d := New(3 * time.Second)
	base := time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)
	d.Forward(base, 1, "hi")
	d.Forward(base, 2, "yo")
	assert.Equal(t, 2, d.Len())
}
