package models

import (
	"fmt"
	"strings"
	"time"
)

// MeasurementType is the unit a goal's baseline, targets and progress
// samples are expressed in.
type MeasurementType string

const (
	MeasureCount      MeasurementType = "count"
	MeasurePercentage MeasurementType = "percentage"
	MeasureDuration   MeasurementType = "duration"
	MeasureTrials     MeasurementType = "trials"
)

// Valid reports whether mt is a recognized measurement type.
func (mt MeasurementType) Valid() bool {
	switch mt {
	case MeasureCount, MeasurePercentage, MeasureDuration, MeasureTrials:
		return true
	}
	return false
}

// ProgressionMethod selects how short-term objectives are generated from a
// goal's baseline and mastery criteria.
type ProgressionMethod string

const (
	MethodHalving             ProgressionMethod = "halving"
	MethodStandardLadder      ProgressionMethod = "standard_ladder"
	MethodDurationProgression ProgressionMethod = "duration_progression"
	MethodCustom              ProgressionMethod = "custom"
)

// Valid reports whether m is a recognized progression method.
func (m ProgressionMethod) Valid() bool {
	switch m {
	case MethodHalving, MethodStandardLadder, MethodDurationProgression, MethodCustom:
		return true
	}
	return false
}

// GoalStatus tracks a goal or objective through its lifecycle. Transitions
// run not_started -> in_progress -> mastered; on_hold and discontinued are
// side exits. Mastered is terminal: it is never reverted automatically.
type GoalStatus string

const (
	StatusNotStarted   GoalStatus = "not_started"
	StatusInProgress   GoalStatus = "in_progress"
	StatusMastered     GoalStatus = "mastered"
	StatusOnHold       GoalStatus = "on_hold"
	StatusDiscontinued GoalStatus = "discontinued"
)

// ShortTermObjective is one rung of a goal's progression ladder. Target and
// description are fixed at generation time; only Status and MasteryDate
// change afterwards, and they are set by the caller, not the engine.
type ShortTermObjective struct {
	ID          string     `json:"id"`
	STONumber   int        `json:"sto_number"`
	Description string     `json:"description"`
	Target      float64    `json:"target"`
	Unit        string     `json:"unit"`
	Status      GoalStatus `json:"status"`
	MasteryDate *time.Time `json:"mastery_date,omitempty"`
}

// ProgressSample is one monthly data point on a goal. A nil value means the
// month had no usable data and is skipped by the progress engine.
type ProgressSample struct {
	Month string   `json:"month"` // YYYY-MM
	Value *float64 `json:"value"`
}

// TreatmentGoal is a long-term objective for a client, with its generated
// short-term-objective ladder and accumulated monthly progress samples.
type TreatmentGoal struct {
	ID                   string               `json:"id"`
	ClientID             string               `json:"client_id"`
	GoalID               string               `json:"goal_id"` // practitioner-facing code, e.g. "DEC-01"
	Category             string               `json:"category"`
	Description          string               `json:"description"`
	MeasurementType      MeasurementType      `json:"measurement_type"`
	Baseline             float64              `json:"baseline"`
	MasteryCriteria      float64              `json:"mastery_criteria"`
	ProgressionMethod    ProgressionMethod    `json:"progression_method"`
	ShortTermObjectives  []ShortTermObjective `json:"short_term_objectives"`
	ProgressData         []ProgressSample     `json:"progress_data"`
	Status               GoalStatus           `json:"status"`
	CreatedAt            time.Time            `json:"created_at"`
	UpdatedAt            time.Time            `json:"updated_at"`
}

// Validate checks the fields required before a goal can be persisted.
func (g *TreatmentGoal) Validate() error {
	if strings.TrimSpace(g.ClientID) == "" {
		return fmt.Errorf("goal client id cannot be empty")
	}
	if strings.TrimSpace(g.GoalID) == "" {
		return fmt.Errorf("goal id code cannot be empty")
	}
	if !g.MeasurementType.Valid() {
		return fmt.Errorf("invalid measurement type %q", g.MeasurementType)
	}
	if !g.ProgressionMethod.Valid() {
		return fmt.Errorf("invalid progression method %q", g.ProgressionMethod)
	}
	return nil
}

// Decreasing reports whether the goal moves from a higher baseline down
// toward its mastery criteria. Percentage goals always increase.
func (g *TreatmentGoal) Decreasing() bool {
	if g.MeasurementType == MeasurePercentage {
		return false
	}
	return g.MasteryCriteria < g.Baseline
}

// RecordSample inserts or replaces the sample for a month, keeping
// ProgressData in chronological order. YYYY-MM months order
// lexicographically, so a backfilled earlier month lands before later ones
// and recency-based evaluation stays correct.
func (g *TreatmentGoal) RecordSample(month string, value *float64) {
	for i := range g.ProgressData {
		if g.ProgressData[i].Month == month {
			g.ProgressData[i].Value = value
			return
		}
	}

	idx := len(g.ProgressData)
	for i, s := range g.ProgressData {
		if s.Month > month {
			idx = i
			break
		}
	}
	g.ProgressData = append(g.ProgressData, ProgressSample{})
	copy(g.ProgressData[idx+1:], g.ProgressData[idx:])
	g.ProgressData[idx] = ProgressSample{Month: month, Value: value}
}

// NonNullValues returns the goal's progress values in sample order,
// skipping months with no data.
func (g *TreatmentGoal) NonNullValues() []float64 {
	var vals []float64
	for _, s := range g.ProgressData {
		if s.Value != nil {
			vals = append(vals, *s.Value)
		}
	}
	return vals
}
