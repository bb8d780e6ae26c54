package export

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/baseline/internal/models"
)

func exportFixtures() (*models.Client, *models.Session) {
	start := time.Date(2026, 3, 10, 9, 0, 0, 0, time.UTC)
	end := start.Add(45 * time.Minute)
	client := &models.Client{ID: "client-1", Name: "Jamie R"}
	session := &models.Session{
		ID:         "sess-1",
		ClientID:   "client-1",
		StartTime:  start,
		EndTime:    &end,
		DurationMs: end.Sub(start).Milliseconds(),
		Behaviors: []models.BehaviorData{
			{BehaviorID: "b1", BehaviorName: "Manding", DataType: models.DataTypeFrequency, Count: 14},
			{BehaviorID: "b2", BehaviorName: "Receptive ID", DataType: models.DataTypeEvent,
				Trials: []bool{true, true, false}, TotalTrials: 3, CorrectTrials: 2},
			{BehaviorID: "b3", BehaviorName: "Aggression", DataType: models.DataTypeDeceleration,
				Count: 2, TotalDurationMs: 30_000,
				ABCRecords: []models.ABCRecord{
					{ID: "abc-1", Timestamp: start.Add(12 * time.Minute),
						Antecedent: models.AntecedentDemandPlaced, AntecedentNote: "math worksheet",
						Consequence: models.ConsequenceDemandRemoved},
				}},
		},
		Notes: "good session",
		Meta:  models.SessionNotes{Location: "clinic", ServiceType: "direct"},
	}
	return client, session
}

func TestWriteSessionCSV(t *testing.T) {
	client, session := exportFixtures()

	var buf bytes.Buffer
	require.NoError(t, WriteSessionCSV(&buf, client, session))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 4, "header plus one row per behavior")

	assert.Equal(t, "client", records[0][0])
	assert.Equal(t, []string{"Jamie R", "sess-1", "2026-03-10", "Manding", "frequency",
		"14", "0.0", "0", "0", "0", "0", "0"}, records[1])
	assert.Equal(t, "2", records[2][9], "trials_correct")
	assert.Equal(t, "3", records[2][10], "trials_total")
	assert.Equal(t, "30.0", records[3][6], "duration_seconds")
	assert.Equal(t, "1", records[3][11], "abc_records")
}

func TestWriteABCLogCSV(t *testing.T) {
	_, session := exportFixtures()

	var buf bytes.Buffer
	require.NoError(t, WriteABCLogCSV(&buf, session))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, "Aggression", records[1][0])
	assert.Equal(t, "demand_placed", records[1][2])
	assert.Equal(t, "math worksheet", records[1][3])
}

func TestSessionReportMarkdown(t *testing.T) {
	client, session := exportFixtures()

	md := SessionReportMarkdown(client, session)

	assert.Contains(t, md, "# Session Report: Jamie R")
	assert.Contains(t, md, "**Duration:** 45 minutes")
	assert.Contains(t, md, "**Location:** clinic")
	assert.Contains(t, md, "| Manding | frequency | 14 occurrences |")
	assert.Contains(t, md, "| Receptive ID | event | 2/3 correct (67%) |")
	assert.Contains(t, md, "## ABC Log: Aggression")
	assert.Contains(t, md, "demand_placed (math worksheet)")
	assert.Contains(t, md, "good session")
}

func TestGoalReportMarkdown(t *testing.T) {
	v1, v2, v3 := 20.0, 14.0, 10.0
	goal := &models.TreatmentGoal{
		GoalID:            "DEC-01",
		Description:       "Reduce aggression episodes",
		MeasurementType:   models.MeasureCount,
		Baseline:          20,
		MasteryCriteria:   0,
		ProgressionMethod: models.MethodHalving,
		Status:            models.StatusInProgress,
		ShortTermObjectives: []models.ShortTermObjective{
			{STONumber: 1, Description: "Decrease from 20 to 10 occurrences", Target: 10, Unit: "occurrences", Status: models.StatusInProgress},
		},
		ProgressData: []models.ProgressSample{
			{Month: "2026-01", Value: &v1},
			{Month: "2026-02", Value: &v2},
			{Month: "2026-03", Value: &v3},
			{Month: "2026-04", Value: nil},
		},
	}

	md := GoalReportMarkdown(goal)

	assert.Contains(t, md, "# Goal DEC-01")
	assert.Contains(t, md, "**Progress:** 50%")
	assert.Contains(t, md, "**Trend:** improving")
	assert.Contains(t, md, "**Mastery criteria met:** false")
	assert.Contains(t, md, "| 1 | Decrease from 20 to 10 occurrences | 10 occurrences | in_progress |")
	assert.Contains(t, md, "| 2026-04 | n/a |")
}

func TestRenderHTML(t *testing.T) {
	html, err := RenderHTML("Session Report", "# Heading\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(html, "<!DOCTYPE html>"))
	assert.Contains(t, html, "<title>Session Report</title>")
	assert.Contains(t, html, "<h1>Heading</h1>")
	assert.Contains(t, html, "<table>", "tables must render via the table extension")
}
