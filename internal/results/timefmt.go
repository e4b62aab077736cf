package results

import (
	"fmt"
	"time"
)

const (
	msecPerHour = 60 * 60 * 1000
	msecPerMin  = 60 * 1000
	msecPerSec  = 1000
)

// msecTime decomposes a millisecond duration into hour/min/sec/tenths,
// rounding up to the nearest 100ms. Grounded on msec_time.
type msecTime struct {
	hour, min, sec, tenths int64
}

func newMsecTime(msec int64) msecTime {
	msec = ((msec + 99) / 100) * 100
	hour := msec / msecPerHour
	msec -= hour * msecPerHour
	min := msec / msecPerMin
	msec -= min * msecPerMin
	sec := msec / msecPerSec
	msec -= sec * msecPerSec
	return msecTime{hour: hour, min: min, sec: sec, tenths: msec / 100}
}

// hms renders an absolute epoch-ms timestamp as local HH:MM:SS. Grounded
// on hms().
func hms(epochMs int64) string {
	return time.UnixMilli(epochMs).Local().Format("15:04:05")
}

// stamp renders an absolute epoch-ms timestamp as HH:MM:SS.mmm. Grounded
// on stamp().
func stamp(epochMs int64) string {
	return fmt.Sprintf("%s.%03d", hms(epochMs), epochMs%1000)
}

// elapsed renders an elapsed duration in ms as HH:MM:SS.mmm. Grounded on
// elapsed().
func elapsed(msec int64) string {
	t := newMsecTime(msec)
	return fmt.Sprintf("%02d:%02d:%02d.%03d", t.hour, t.min, t.sec, t.tenths*100)
}

// tzOffset renders the local timezone's current UTC offset as "UTC±HH:MM",
// for the text-output header (spec §4.7.8). Grounded on show_results's
// `tzoff = 'UTC%+03d:%02d' % (t.hour, t.min)` where t is derived from
// -time.timezone; Go's time.Local zone offset is the equivalent (and, unlike
// the original's static time.timezone, accounts for DST on the current date).
func tzOffset() string {
	_, offsetSec := time.Now().Zone()
	sign := "+"
	if offsetSec < 0 {
		sign = "-"
		offsetSec = -offsetSec
	}
	return fmt.Sprintf("UTC%s%02d:%02d", sign, offsetSec/3600, (offsetSec%3600)/60)
}

// timeposState carries the cross-call state make_timepos keeps in a module
// global (base_ms): the winner's absolute finish time, fixed the first
// time makeTimepos is called in a placement run.
type timeposState struct {
	baseMs int64
}

// makeTimepos formats one finisher's placement-relative elapsed time
// (spec glossary "Timepos"; grounded on make_timepos). prevMs is the
// previous finisher's absolute finish time (0 for the first).
func (s *timeposState) makeTimepos(prevMs, startMs, finishMs int64) string {
	mark := " "
	var curMs int64

	switch {
	case prevMs == 0:
		s.baseMs = finishMs
		curMs = finishMs - startMs
	case (finishMs - prevMs) < 200:
		return "--- ST ---"
	default:
		curMs = finishMs - s.baseMs
		mark = "+"
	}

	t := newMsecTime(curMs)

	switch {
	case t.hour != 0:
		return fmt.Sprintf("%2d:%02d:%02d.%d", t.hour, t.min, t.sec, t.tenths)
	case t.min != 0:
		return fmt.Sprintf("%s  %2d:%02d.%d", mark, t.min, t.sec, t.tenths)
	case t.sec != 0:
		return fmt.Sprintf("%s    :%02d.%d", mark, t.sec, t.tenths)
	case t.tenths != 0:
		return fmt.Sprintf("%s    :00.%d", mark, t.tenths)
	default:
		return "--- ST ---"
	}
}
