package tracking

import (
	"time"

	"github.com/harrison/baseline/internal/models"
)

// timer is a fold-accumulation stopwatch: elapsed time folds into
// accumulated on every stop, and the live delta is recomputed from startTime
// on every read. Nothing is lost across pause/resume and no tick is
// authoritative.
type timer struct {
	accumulated time.Duration
	startTime   time.Time // zero when stopped
}

func (t *timer) running() bool { return !t.startTime.IsZero() }

// start begins timing. Starting a running timer is a no-op.
func (t *timer) start(now time.Time) {
	if t.running() {
		return
	}
	t.startTime = now
}

// stop folds the in-flight delta into accumulated. Stopping a stopped timer
// is a no-op.
func (t *timer) stop(now time.Time) {
	if !t.running() {
		return
	}
	t.accumulated += now.Sub(t.startTime)
	t.startTime = time.Time{}
}

// elapsed returns accumulated plus the live delta when running. Read-only.
func (t *timer) elapsed(now time.Time) time.Duration {
	if t.running() {
		return t.accumulated + now.Sub(t.startTime)
	}
	return t.accumulated
}

// intervalPhase is the interval recording state: Idle until the practitioner
// starts a window, CountingDown while the window elapses, AwaitingResponse
// once it has elapsed and an occurred/not-occurred answer is due.
type intervalPhase int

const (
	intervalIdle intervalPhase = iota
	intervalCountingDown
	intervalAwaitingResponse
)

// intervalClock runs one fixed-length observation window at a time. The
// remaining seconds are derived from the window start time on every tick, so
// a missed tick cannot stretch the window.
type intervalClock struct {
	lengthSec    int
	remainingSec int
	phase        intervalPhase
	startedAt    time.Time
}

func (ic *intervalClock) running() bool { return ic.phase == intervalCountingDown }

// start opens a new window. Ignored unless the clock is idle.
func (ic *intervalClock) start(now time.Time) {
	if ic.phase != intervalIdle || ic.lengthSec <= 0 {
		return
	}
	ic.phase = intervalCountingDown
	ic.remainingSec = ic.lengthSec
	ic.startedAt = now
}

// tick recomputes the remaining seconds, floored at zero, and moves to
// AwaitingResponse when the window has fully elapsed.
func (ic *intervalClock) tick(now time.Time) {
	if ic.phase != intervalCountingDown {
		return
	}
	elapsedSec := int(now.Sub(ic.startedAt) / time.Second)
	remaining := ic.lengthSec - elapsedSec
	if remaining <= 0 {
		ic.remainingSec = 0
		ic.phase = intervalAwaitingResponse
		return
	}
	ic.remainingSec = remaining
}

// close records that a response was taken and resets the clock for the next
// window. Only valid from AwaitingResponse; the caller checks the phase.
func (ic *intervalClock) close() {
	ic.phase = intervalIdle
	ic.remainingSec = ic.lengthSec
	ic.startedAt = time.Time{}
}

// BehaviorState is the live tracking state for one target behavior during an
// active session. Which fields are in play is determined by the behavior's
// data type; operations addressed to a behavior of the wrong type are
// ignored. Intervals and Trials are append-only during a session except for
// the undo-last-trial operation.
type BehaviorState struct {
	Behavior models.TargetBehavior

	Count    int
	durTimer timer

	DecelCount int
	decelTimer timer

	interval  intervalClock
	Intervals []bool

	Trials []bool

	ABCRecords []models.ABCRecord
}

// TimerRunning reports whether the behavior's duration timer is live.
func (bs *BehaviorState) TimerRunning() bool { return bs.durTimer.running() }

// DecelTimerRunning reports whether the deceleration timer is live.
func (bs *BehaviorState) DecelTimerRunning() bool { return bs.decelTimer.running() }

// Elapsed returns the behavior's total tracked duration including any
// in-flight delta.
func (bs *BehaviorState) Elapsed(now time.Time) time.Duration { return bs.durTimer.elapsed(now) }

// DecelElapsed returns the total deceleration duration including any
// in-flight delta.
func (bs *BehaviorState) DecelElapsed(now time.Time) time.Duration {
	return bs.decelTimer.elapsed(now)
}

// IntervalRemaining returns the seconds left in the current observation
// window, or zero when no window is counting down.
func (bs *BehaviorState) IntervalRemaining() int { return bs.interval.remainingSec }

// IntervalRunning reports whether an observation window is counting down.
func (bs *BehaviorState) IntervalRunning() bool { return bs.interval.running() }

// AwaitingResponse reports whether a window has elapsed and an
// occurred/not-occurred answer is due.
func (bs *BehaviorState) AwaitingResponse() bool {
	return bs.interval.phase == intervalAwaitingResponse
}

// snapshot projects the live state into the persisted BehaviorData shape.
// Running timers are folded read-only: the in-flight delta is included
// without stopping the timer. Slices are copied so later mutation of the
// live state cannot reach a snapshot already handed out.
func (bs *BehaviorState) snapshot(now time.Time) models.BehaviorData {
	data := models.BehaviorData{
		BehaviorID:   bs.Behavior.ID,
		BehaviorName: bs.Behavior.Name,
		DataType:     bs.Behavior.DataType,
	}

	switch bs.Behavior.DataType {
	case models.DataTypeFrequency:
		data.Count = bs.Count
	case models.DataTypeDuration:
		data.TotalDurationMs = bs.durTimer.elapsed(now).Milliseconds()
	case models.DataTypeInterval:
		data.IntervalLenSec = bs.Behavior.IntervalLengthSec
		data.Intervals = append([]bool(nil), bs.Intervals...)
	case models.DataTypeEvent:
		data.Trials = append([]bool(nil), bs.Trials...)
		data.TotalTrials = len(bs.Trials)
		for _, correct := range bs.Trials {
			if correct {
				data.CorrectTrials++
			}
		}
	case models.DataTypeDeceleration:
		data.Count = bs.DecelCount
		data.TotalDurationMs = bs.decelTimer.elapsed(now).Milliseconds()
		data.ABCRecords = append([]models.ABCRecord(nil), bs.ABCRecords...)
	}

	return data
}
