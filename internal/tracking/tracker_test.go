package tracking

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/baseline/internal/models"
)

func testBehaviors() []models.TargetBehavior {
	return []models.TargetBehavior{
		{ID: "freq", Name: "Hand raising", DataType: models.DataTypeFrequency, Category: models.CategoryAcquisition, IsActive: true},
		{ID: "dur", Name: "On task", DataType: models.DataTypeDuration, Category: models.CategoryAcquisition, IsActive: true},
		{ID: "intv", Name: "Vocal stereotypy", DataType: models.DataTypeInterval, Category: models.CategoryAcquisition, IntervalLengthSec: 10, IsActive: true},
		{ID: "evt", Name: "Receptive ID", DataType: models.DataTypeEvent, Category: models.CategoryAcquisition, IsActive: true},
		{ID: "dec", Name: "Aggression", DataType: models.DataTypeDeceleration, Category: models.CategoryDeceleration, IsActive: true},
	}
}

func newTestTracker() (*Tracker, *FakeClock) {
	clock := NewFakeClock(time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC))
	return NewTracker(clock, testBehaviors()), clock
}

func TestTapCountsEveryCall(t *testing.T) {
	tr, _ := newTestTracker()

	for i := 0; i < 57; i++ {
		tr.Tap("freq")
	}

	assert.Equal(t, 57, tr.State("freq").Count)
}

func TestTapRoutesToDecelCount(t *testing.T) {
	tr, _ := newTestTracker()

	tr.Tap("dec")
	tr.Tap("dec")

	assert.Equal(t, 2, tr.State("dec").DecelCount)
	assert.Equal(t, 0, tr.State("dec").Count)
}

func TestTapUnknownBehaviorIsNoop(t *testing.T) {
	tr, _ := newTestTracker()

	// Stale callbacks after a behavior-list change must not panic.
	tr.Tap("gone")
	tr.StartTimer("gone")
	tr.StopTimer("gone")
	tr.RecordTrial("gone", true)
	tr.UndoLastTrial("gone")
	tr.RecordInterval("gone", true)
	require.NoError(t, tr.SaveABC("gone", models.ABCRecord{}))
}

func TestDurationTimerFoldsAcrossPauses(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartTimer("dur")
	clock.Advance(30 * time.Second)
	tr.StopTimer("dur")

	clock.Advance(5 * time.Minute) // paused time must not count

	tr.StartTimer("dur")
	clock.Advance(45 * time.Second)
	tr.StopTimer("dur")

	assert.Equal(t, 75*time.Second, tr.State("dur").Elapsed(clock.Now()))
}

func TestDurationTimerLiveDeltaIncludedWithoutStopping(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartTimer("dur")
	clock.Advance(12 * time.Second)

	bs := tr.State("dur")
	assert.Equal(t, 12*time.Second, bs.Elapsed(clock.Now()))
	assert.True(t, bs.TimerRunning(), "read must not stop the timer")

	clock.Advance(3 * time.Second)
	assert.Equal(t, 15*time.Second, bs.Elapsed(clock.Now()))
}

func TestStartTimerTwiceKeepsOriginalStart(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartTimer("dur")
	clock.Advance(10 * time.Second)
	tr.StartTimer("dur") // no-op, already running
	clock.Advance(10 * time.Second)
	tr.StopTimer("dur")

	assert.Equal(t, 20*time.Second, tr.State("dur").Elapsed(clock.Now()))
}

func TestStopTimerWhenStoppedIsNoop(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StopTimer("dur")
	assert.Equal(t, time.Duration(0), tr.State("dur").Elapsed(clock.Now()))
}

func TestDecelTimerIndependentOfDurationTimer(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartTimer("dec")
	clock.Advance(8 * time.Second)
	tr.StopTimer("dec")

	bs := tr.State("dec")
	assert.Equal(t, 8*time.Second, bs.DecelElapsed(clock.Now()))
	assert.Equal(t, time.Duration(0), bs.Elapsed(clock.Now()))
}

func TestIntervalCycle(t *testing.T) {
	tr, clock := newTestTracker()
	bs := tr.State("intv")

	tr.StartInterval("intv")
	assert.True(t, bs.IntervalRunning())
	assert.Equal(t, 10, bs.IntervalRemaining())

	clock.Advance(4 * time.Second)
	tr.Tick(clock.Now())
	assert.Equal(t, 6, bs.IntervalRemaining())
	assert.False(t, bs.AwaitingResponse())

	clock.Advance(6 * time.Second)
	tr.Tick(clock.Now())
	assert.Equal(t, 0, bs.IntervalRemaining())
	assert.True(t, bs.AwaitingResponse())

	tr.RecordInterval("intv", true)
	assert.Equal(t, []bool{true}, bs.Intervals)
	assert.False(t, bs.AwaitingResponse())
	assert.Equal(t, 10, bs.IntervalRemaining(), "countdown resets for the next window")
}

func TestIntervalCountdownNeverGoesNegative(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartInterval("intv")
	clock.Advance(2 * time.Minute) // far past the window, e.g. dropped ticks
	tr.Tick(clock.Now())

	assert.Equal(t, 0, tr.State("intv").IntervalRemaining())
	assert.True(t, tr.State("intv").AwaitingResponse())
}

func TestRecordIntervalBeforeCountdownElapsesIsIgnored(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartInterval("intv")
	clock.Advance(3 * time.Second)
	tr.Tick(clock.Now())

	tr.RecordInterval("intv", true)
	assert.Empty(t, tr.State("intv").Intervals)
	assert.True(t, tr.State("intv").IntervalRunning(), "window keeps counting down")
}

func TestRecordIntervalWithNoCountdownIsIgnored(t *testing.T) {
	tr, _ := newTestTracker()

	tr.RecordInterval("intv", false)
	assert.Empty(t, tr.State("intv").Intervals)
}

func TestNCompletedIntervalCyclesYieldNRecords(t *testing.T) {
	tr, clock := newTestTracker()
	want := []bool{true, false, true, true, false}

	for _, occurred := range want {
		tr.StartInterval("intv")
		clock.Advance(10 * time.Second)
		tr.Tick(clock.Now())
		tr.RecordInterval("intv", occurred)
	}

	assert.Equal(t, want, tr.State("intv").Intervals)
}

func TestStartIntervalWhileRunningIsIgnored(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartInterval("intv")
	clock.Advance(7 * time.Second)
	tr.Tick(clock.Now())
	tr.StartInterval("intv") // must not restart the window
	tr.Tick(clock.Now())

	assert.Equal(t, 3, tr.State("intv").IntervalRemaining())
}

func TestTrialRecordingAndUndo(t *testing.T) {
	tr, _ := newTestTracker()

	tr.UndoLastTrial("evt") // empty sequence: no-op

	tr.RecordTrial("evt", true)
	tr.RecordTrial("evt", false)
	tr.RecordTrial("evt", true)
	assert.Equal(t, []bool{true, false, true}, tr.State("evt").Trials)

	tr.UndoLastTrial("evt")
	assert.Equal(t, []bool{true, false}, tr.State("evt").Trials)

	tr.UndoLastTrial("evt")
	tr.UndoLastTrial("evt")
	tr.UndoLastTrial("evt") // past empty: still a no-op
	assert.Empty(t, tr.State("evt").Trials)
}

func TestRecordTrialOnNonEventBehaviorIsIgnored(t *testing.T) {
	tr, _ := newTestTracker()

	tr.RecordTrial("freq", true)
	assert.Empty(t, tr.State("freq").Trials)
}

func TestSaveABCValidationAndAppend(t *testing.T) {
	tr, clock := newTestTracker()

	err := tr.SaveABC("dec", models.ABCRecord{Antecedent: models.AntecedentDemandPlaced})
	require.Error(t, err, "missing consequence must be rejected")

	err = tr.SaveABC("dec", models.ABCRecord{Consequence: models.ConsequenceIgnored})
	require.Error(t, err, "missing antecedent must be rejected")

	err = tr.SaveABC("dec", models.ABCRecord{
		Antecedent:  models.AntecedentDemandPlaced,
		Consequence: models.ConsequenceDemandRemoved,
	})
	require.NoError(t, err)

	records := tr.State("dec").ABCRecords
	require.Len(t, records, 1)
	assert.NotEmpty(t, records[0].ID)
	assert.Equal(t, clock.Now(), records[0].Timestamp)
}

func TestSaveABCOnAcquisitionBehaviorRejected(t *testing.T) {
	tr, _ := newTestTracker()

	err := tr.SaveABC("freq", models.ABCRecord{
		Antecedent:  models.AntecedentTransition,
		Consequence: models.ConsequenceRedirected,
	})
	require.Error(t, err)
}

func TestSnapshotFoldsRunningTimerWithoutStopping(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartTimer("dur")
	clock.Advance(90 * time.Second)

	snap := tr.Snapshot(clock.Now())
	var durData *models.BehaviorData
	for i := range snap {
		if snap[i].BehaviorID == "dur" {
			durData = &snap[i]
		}
	}
	require.NotNil(t, durData)
	assert.Equal(t, int64(90_000), durData.TotalDurationMs)
	assert.True(t, tr.State("dur").TimerRunning())

	// Timer keeps accumulating after the snapshot.
	clock.Advance(10 * time.Second)
	tr.StopTimer("dur")
	assert.Equal(t, 100*time.Second, tr.State("dur").Elapsed(clock.Now()))
}

func TestSnapshotDerivesTrialTotals(t *testing.T) {
	tr, clock := newTestTracker()

	tr.RecordTrial("evt", true)
	tr.RecordTrial("evt", true)
	tr.RecordTrial("evt", false)

	snap := tr.Snapshot(clock.Now())
	for _, data := range snap {
		if data.BehaviorID != "evt" {
			continue
		}
		assert.Equal(t, 3, data.TotalTrials)
		assert.Equal(t, 2, data.CorrectTrials)
		return
	}
	t.Fatal("event behavior missing from snapshot")
}

func TestSnapshotIsolatedFromLaterMutation(t *testing.T) {
	tr, clock := newTestTracker()

	tr.RecordTrial("evt", true)
	snap := tr.Snapshot(clock.Now())

	tr.RecordTrial("evt", false)
	for _, data := range snap {
		if data.BehaviorID == "evt" {
			assert.Equal(t, []bool{true}, data.Trials)
		}
	}
}

func TestStopAllStopsEveryTimer(t *testing.T) {
	tr, clock := newTestTracker()

	tr.StartTimer("dur")
	tr.StartTimer("dec")
	tr.StartInterval("intv")
	clock.Advance(20 * time.Second)

	tr.StopAll(clock.Now())

	assert.False(t, tr.State("dur").TimerRunning())
	assert.False(t, tr.State("dec").DecelTimerRunning())
	assert.False(t, tr.State("intv").IntervalRunning())
	assert.Equal(t, 20*time.Second, tr.State("dur").Elapsed(clock.Now()))

	// No further accumulation after StopAll.
	clock.Advance(time.Hour)
	assert.Equal(t, 20*time.Second, tr.State("dur").Elapsed(clock.Now()))
}
