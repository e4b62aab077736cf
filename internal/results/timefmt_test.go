package results

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewMsecTimeRoundsUp(t *testing.T) {
	cases := []struct {
		msec                   int64
		hour, min, sec, tenths int64
	}{
		{0, 0, 0, 0, 0},
		{50, 0, 0, 0, 1},  // rounds up to 100ms
		{149, 0, 0, 0, 2}, // (149+99)/100*100 = 200ms -> sec=0, tenths=2
		{1000, 0, 0, 1, 0},
		{61000, 0, 1, 1, 0},
		{3661000, 1, 1, 1, 0},
	}
	for _, c := range cases {
		got := newMsecTime(c.msec)
		assert.Equalf(t, c.hour, got.hour, "newMsecTime(%d).hour", c.msec)
		assert.Equalf(t, c.min, got.min, "newMsecTime(%d).min", c.msec)
		assert.Equalf(t, c.sec, got.sec, "newMsecTime(%d).sec", c.msec)
		assert.Equalf(t, c.tenths, got.tenths, "newMsecTime(%d).tenths", c.msec)
	}
}

func TestMakeTimeposFirstFinisher(t *testing.T) {
	var st timeposState
	// winner whose start equals its finish: zero elapsed renders the dash marker.
	got := st.makeTimepos(0, 3661000, 3661000)
	assert.Equal(t, "--- ST ---", got)
}

func TestMakeTimeposWinnerWithElapsed(t *testing.T) {
	var st timeposState
	// winner: start at 0, finish at 61500ms -> elapsed 1:01.5 -> min branch
	got := st.makeTimepos(0, 0, 61500)
	assert.Equal(t, "    1:01.5", got)
}

func TestMakeTimeposSameTimeGap(t *testing.T) {
	var st timeposState
	st.makeTimepos(0, 0, 10000)
	got := st.makeTimepos(10000, 0, 10100)
	assert.Equal(t, "--- ST ---", got, "gap under 200ms should render the same-time marker")
}

func TestMakeTimeposSubsequentFinisherSeconds(t *testing.T) {
	var st timeposState
	st.makeTimepos(0, 0, 10000) // base = 10000
	got := st.makeTimepos(10000, 0, 10500)
	assert.Equal(t, "+    :00.5", got)
}

func TestElapsed(t *testing.T) {
	assert.Equal(t, "01:01:01.000", elapsed(3661000))
}
