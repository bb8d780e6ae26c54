// Package tracking implements the live, per-behavior data-capture state
// machine for an active observation session: frequency tallies, fold-
// accumulation duration timers, interval countdown sequencing, discrete
// trial recording and ABC capture. All state is private to the session that
// owns the Tracker; nothing here persists anything.
package tracking

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/harrison/baseline/internal/models"
)

// Tracker holds the tracking state of every behavior in an active session,
// keyed by behavior id. Operations addressed to an unknown behavior id are
// silent no-ops: stale callbacks racing a behavior-list change are expected
// and must not fail the session.
//
// Tracker is not safe for concurrent use; the owning session serializes
// access.
type Tracker struct {
	clock     Clock
	behaviors map[string]*BehaviorState
	order     []string // snapshot order follows registration order
}

// NewTracker creates a Tracker with one state slot per behavior.
func NewTracker(clock Clock, behaviors []models.TargetBehavior) *Tracker {
	t := &Tracker{
		clock:     clock,
		behaviors: make(map[string]*BehaviorState, len(behaviors)),
	}
	for _, b := range behaviors {
		t.behaviors[b.ID] = &BehaviorState{Behavior: b}
		t.order = append(t.order, b.ID)
	}
	return t
}

// State returns the live state for a behavior, or nil if unknown. The
// returned state is read-only for callers; mutation goes through Tracker
// operations.
func (t *Tracker) State(behaviorID string) *BehaviorState {
	return t.behaviors[behaviorID]
}

// Tap increments the frequency tally for a frequency behavior, or the
// deceleration tally for a deceleration behavior. There is no decrement.
func (t *Tracker) Tap(behaviorID string) {
	bs := t.behaviors[behaviorID]
	if bs == nil {
		return
	}
	switch bs.Behavior.DataType {
	case models.DataTypeFrequency:
		bs.Count++
	case models.DataTypeDeceleration:
		bs.DecelCount++
	}
}

// StartTimer starts the duration timer for a duration behavior or the
// deceleration timer for a deceleration behavior. Starting an already
// running timer is a no-op.
func (t *Tracker) StartTimer(behaviorID string) {
	bs := t.behaviors[behaviorID]
	if bs == nil {
		return
	}
	now := t.clock.Now()
	switch bs.Behavior.DataType {
	case models.DataTypeDuration:
		bs.durTimer.start(now)
	case models.DataTypeDeceleration:
		bs.decelTimer.start(now)
	}
}

// StopTimer stops the running timer for the behavior, folding the in-flight
// elapsed time into the accumulated total.
func (t *Tracker) StopTimer(behaviorID string) {
	bs := t.behaviors[behaviorID]
	if bs == nil {
		return
	}
	now := t.clock.Now()
	switch bs.Behavior.DataType {
	case models.DataTypeDuration:
		bs.durTimer.stop(now)
	case models.DataTypeDeceleration:
		bs.decelTimer.stop(now)
	}
}

// StartInterval opens the next observation window for an interval behavior.
// Ignored when a window is already counting down or awaiting a response.
func (t *Tracker) StartInterval(behaviorID string) {
	bs := t.behaviors[behaviorID]
	if bs == nil || bs.Behavior.DataType != models.DataTypeInterval {
		return
	}
	bs.interval.lengthSec = bs.Behavior.IntervalLengthSec
	bs.interval.start(t.clock.Now())
}

// RecordInterval records whether the behavior occurred during the window
// that just elapsed, then resets the countdown for the next window. The
// call is ignored unless the window has fully elapsed: answering early
// would shorten the window the interval metrics assume.
func (t *Tracker) RecordInterval(behaviorID string, occurred bool) {
	bs := t.behaviors[behaviorID]
	if bs == nil || bs.Behavior.DataType != models.DataTypeInterval {
		return
	}
	if bs.interval.phase != intervalAwaitingResponse {
		return
	}
	bs.Intervals = append(bs.Intervals, occurred)
	bs.interval.close()
}

// RecordTrial appends one correct/incorrect response for an event behavior.
func (t *Tracker) RecordTrial(behaviorID string, correct bool) {
	bs := t.behaviors[behaviorID]
	if bs == nil || bs.Behavior.DataType != models.DataTypeEvent {
		return
	}
	bs.Trials = append(bs.Trials, correct)
}

// UndoLastTrial removes the most recently recorded trial. No-op when the
// trial sequence is empty.
func (t *Tracker) UndoLastTrial(behaviorID string) {
	bs := t.behaviors[behaviorID]
	if bs == nil || len(bs.Trials) == 0 {
		return
	}
	bs.Trials = bs.Trials[:len(bs.Trials)-1]
}

// SaveABC appends an ABC observation to a deceleration behavior. The record
// is rejected when either required field is missing. A zero id or timestamp
// is filled in before the record is appended; records are immutable after
// that.
func (t *Tracker) SaveABC(behaviorID string, record models.ABCRecord) error {
	bs := t.behaviors[behaviorID]
	if bs == nil {
		return nil
	}
	if bs.Behavior.DataType != models.DataTypeDeceleration {
		return fmt.Errorf("behavior %q does not take ABC records", bs.Behavior.Name)
	}
	if err := record.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(record.ID) == "" {
		record.ID = uuid.NewString()
	}
	if record.Timestamp.IsZero() {
		record.Timestamp = t.clock.Now()
	}
	bs.ABCRecords = append(bs.ABCRecords, record)
	return nil
}

// Tick is the single cooperative scheduler tick: it fans out the current
// time to every active interval countdown. Duration timers need no ticking;
// their elapsed value is derived on read.
func (t *Tracker) Tick(now time.Time) {
	for _, id := range t.order {
		t.behaviors[id].interval.tick(now)
	}
}

// StopAll stops every running duration and deceleration timer and abandons
// any open interval window. Called once when the session ends so no timer
// outlives the session.
func (t *Tracker) StopAll(now time.Time) {
	for _, id := range t.order {
		bs := t.behaviors[id]
		bs.durTimer.stop(now)
		bs.decelTimer.stop(now)
		if bs.interval.phase != intervalIdle {
			bs.interval.phase = intervalIdle
			bs.interval.remainingSec = 0
			bs.interval.startedAt = time.Time{}
		}
	}
}

// Snapshot projects every behavior's live state into persistable
// BehaviorData, folding in-flight timer deltas read-only. Order follows
// behavior registration order.
func (t *Tracker) Snapshot(now time.Time) []models.BehaviorData {
	out := make([]models.BehaviorData, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.behaviors[id].snapshot(now))
	}
	return out
}
