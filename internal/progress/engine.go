// Package progress computes treatment-plan progression: short-term-objective
// ladders, percent progress toward mastery, trend classification and mastery
// evaluation. Every function is pure and total over its inputs, so the UI
// layer can call them speculatively for previews.
package progress

import (
	"fmt"
	"math"

	"github.com/google/uuid"

	"github.com/harrison/baseline/internal/models"
)

// Trend classifies the recent direction of a goal's progress samples.
type Trend string

const (
	TrendImproving        Trend = "improving"
	TrendDeclining        Trend = "declining"
	TrendStable           Trend = "stable"
	TrendInsufficientData Trend = "insufficient_data"
)

// ladderCheckpoints are the fixed percentage rungs of the standard ladder.
var ladderCheckpoints = []float64{50, 75, 80, 90}

// durationMilestones are the fixed duration rungs, in seconds.
var durationMilestones = []float64{15, 30, 60, 120, 150, 180, 300, 420, 600, 900, 1200}

// GenerateSTOs builds the short-term-objective ladder for a goal from its
// baseline, mastery criteria and progression method. Objectives are numbered
// from 1, start as not_started, and carry fresh ids. The custom method
// returns nil: those ladders are authored by the practitioner.
func GenerateSTOs(goal *models.TreatmentGoal) []models.ShortTermObjective {
	switch goal.ProgressionMethod {
	case models.MethodHalving:
		return halvingSTOs(goal)
	case models.MethodStandardLadder:
		return ladderSTOs(goal)
	case models.MethodDurationProgression:
		return durationSTOs(goal)
	default:
		return nil
	}
}

// halvingSTOs repeatedly halves the running target (round half to even,
// matching ladders generated by existing plans) until the halved value would
// reach the mastery criteria, then appends the mastery step. Always yields
// at least the mastery step.
func halvingSTOs(goal *models.TreatmentGoal) []models.ShortTermObjective {
	unit := unitFor(goal.MeasurementType)
	var stos []models.ShortTermObjective

	prev := goal.Baseline
	for {
		half := math.RoundToEven(prev / 2)
		if half <= goal.MasteryCriteria {
			break
		}
		stos = append(stos, newSTO(len(stos)+1, half, unit,
			fmt.Sprintf("Decrease from %s to %s %s", formatValue(prev), formatValue(half), unit)))
		prev = half
	}

	stos = append(stos, newSTO(len(stos)+1, goal.MasteryCriteria, unit,
		fmt.Sprintf("Decrease from %s to mastery criteria of %s %s",
			formatValue(prev), formatValue(goal.MasteryCriteria), unit)))
	return stos
}

// ladderSTOs emits each fixed percentage checkpoint strictly above baseline
// and at or below the mastery criteria, then a final mastery step when the
// criteria sit above the highest rung.
func ladderSTOs(goal *models.TreatmentGoal) []models.ShortTermObjective {
	unit := unitFor(goal.MeasurementType)
	var stos []models.ShortTermObjective

	prev := goal.Baseline
	for _, checkpoint := range ladderCheckpoints {
		if checkpoint <= goal.Baseline || checkpoint > goal.MasteryCriteria {
			continue
		}
		stos = append(stos, newSTO(len(stos)+1, checkpoint, unit,
			fmt.Sprintf("Improve from %s%% to %s%% accuracy", formatValue(prev), formatValue(checkpoint))))
		prev = checkpoint
	}

	if goal.MasteryCriteria > ladderCheckpoints[len(ladderCheckpoints)-1] {
		stos = append(stos, newSTO(len(stos)+1, goal.MasteryCriteria, unit,
			fmt.Sprintf("Improve from %s%% to mastery criteria of %s%% accuracy",
				formatValue(prev), formatValue(goal.MasteryCriteria))))
	}
	return stos
}

// durationSTOs selects the fixed duration milestones inside
// (baseline, masteryCriteria], appending the mastery criteria itself when no
// milestone qualifies or the last one falls short of it.
func durationSTOs(goal *models.TreatmentGoal) []models.ShortTermObjective {
	var targets []float64
	for _, m := range durationMilestones {
		if m > goal.Baseline && m <= goal.MasteryCriteria {
			targets = append(targets, m)
		}
	}
	if len(targets) == 0 || targets[len(targets)-1] != goal.MasteryCriteria {
		targets = append(targets, goal.MasteryCriteria)
	}

	stos := make([]models.ShortTermObjective, 0, len(targets))
	for i, target := range targets {
		stos = append(stos, newSTO(i+1, target, "seconds",
			fmt.Sprintf("Sustain for %s", FormatSeconds(target))))
	}
	return stos
}

func newSTO(number int, target float64, unit, description string) models.ShortTermObjective {
	return models.ShortTermObjective{
		ID:          uuid.NewString(),
		STONumber:   number,
		Description: description,
		Target:      target,
		Unit:        unit,
		Status:      models.StatusNotStarted,
	}
}

// unitFor maps a measurement type to the unit label used in STO text.
func unitFor(mt models.MeasurementType) string {
	switch mt {
	case models.MeasurePercentage:
		return "%"
	case models.MeasureDuration:
		return "seconds"
	case models.MeasureTrials:
		return "trials"
	default:
		return "occurrences"
	}
}

// FormatSeconds renders a second count in its most natural unit: plain
// seconds under a minute, otherwise minutes with any leftover seconds.
func FormatSeconds(seconds float64) string {
	total := int(seconds)
	if total < 60 {
		return fmt.Sprintf("%d seconds", total)
	}
	mins, secs := total/60, total%60
	minuteWord := "minutes"
	if mins == 1 {
		minuteWord = "minute"
	}
	if secs == 0 {
		return fmt.Sprintf("%d %s", mins, minuteWord)
	}
	return fmt.Sprintf("%d %s %d seconds", mins, minuteWord, secs)
}

func formatValue(v float64) string {
	return fmt.Sprintf("%g", v)
}

// decreaseType reports whether the measurement type reads "lower is better"
// when the target sits below the baseline.
func decreaseType(mt models.MeasurementType) bool {
	return mt == models.MeasureCount || mt == models.MeasureDuration
}

// ProgressPercentage returns how far the current value has moved from the
// baseline toward the target, clamped to [0,100]. Count and duration goals
// with a target below baseline use the reduction formula; everything else,
// including all percentage goals, uses the increase formula. A nil current
// value reads as no progress. Degenerate spans (baseline equal to target)
// resolve deterministically to 100 when the target is already met, else 0.
func ProgressPercentage(baseline float64, current *float64, target float64, mt models.MeasurementType) float64 {
	if current == nil {
		return 0
	}
	cur := *current

	decrease := decreaseType(mt) && target < baseline
	if mt == models.MeasurePercentage {
		decrease = false
	}

	span := target - baseline
	if decrease {
		span = baseline - target
	}
	if span == 0 {
		met := cur >= target
		if decrease {
			met = cur <= target
		}
		if met {
			return 100
		}
		return 0
	}

	var pct float64
	if decrease {
		pct = (baseline - cur) / span * 100
	} else {
		pct = (cur - baseline) / span * 100
	}
	return clamp(pct, 0, 100)
}

// ClassifyTrend compares the first and last of the three most recent
// non-null samples. Changes smaller than 10% of the first value are stable;
// beyond that the sign is read through the measurement type: count and
// duration improve downward, everything else improves upward. Fewer than
// three usable samples is insufficient data.
func ClassifyTrend(samples []models.ProgressSample, mt models.MeasurementType) Trend {
	vals := nonNull(samples)
	if len(vals) < 3 {
		return TrendInsufficientData
	}

	recent := vals[len(vals)-3:]
	change := recent[2] - recent[0]
	if change == 0 {
		return TrendStable
	}
	if math.Abs(change) < 0.1*math.Abs(recent[0]) {
		return TrendStable
	}

	if decreaseType(mt) {
		if change < 0 {
			return TrendImproving
		}
		return TrendDeclining
	}
	if change > 0 {
		return TrendImproving
	}
	return TrendDeclining
}

// CheckMastery reports whether the three most recent non-null samples all
// meet the target: at or below it for decreasing goals, at or above it
// otherwise. Fewer than three usable samples is never mastery.
func CheckMastery(samples []models.ProgressSample, target float64, decreasing bool) bool {
	vals := nonNull(samples)
	if len(vals) < 3 {
		return false
	}
	for _, v := range vals[len(vals)-3:] {
		if decreasing && v > target {
			return false
		}
		if !decreasing && v < target {
			return false
		}
	}
	return true
}

// CheckSTOMastery evaluates the goal's recent samples against one
// objective's target. The engine only evaluates; the caller applies any
// status transition.
func CheckSTOMastery(goal *models.TreatmentGoal, sto *models.ShortTermObjective) bool {
	return CheckMastery(goal.ProgressData, sto.Target, goal.Decreasing())
}

// CurrentSTO returns the first objective in sequence order that is not yet
// mastered, or nil when the ladder is empty or fully mastered.
func CurrentSTO(goal *models.TreatmentGoal) *models.ShortTermObjective {
	for i := range goal.ShortTermObjectives {
		if goal.ShortTermObjectives[i].Status != models.StatusMastered {
			return &goal.ShortTermObjectives[i]
		}
	}
	return nil
}

// SuggestProgressionMethod picks the progression method that fits the goal's
// measurement type and direction.
func SuggestProgressionMethod(mt models.MeasurementType, decreasing bool) models.ProgressionMethod {
	switch {
	case mt == models.MeasureCount && decreasing:
		return models.MethodHalving
	case mt == models.MeasurePercentage:
		return models.MethodStandardLadder
	case mt == models.MeasureDuration && !decreasing:
		return models.MethodDurationProgression
	case mt == models.MeasureDuration && decreasing:
		return models.MethodHalving
	default:
		return models.MethodStandardLadder
	}
}

func nonNull(samples []models.ProgressSample) []float64 {
	var vals []float64
	for _, s := range samples {
		if s.Value != nil {
			vals = append(vals, *s.Value)
		}
	}
	return vals
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
