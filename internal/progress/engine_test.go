package progress

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/harrison/baseline/internal/models"
)

func fptr(v float64) *float64 { return &v }

func samplesOf(values ...*float64) []models.ProgressSample {
	months := []string{"2026-01", "2026-02", "2026-03", "2026-04", "2026-05", "2026-06"}
	out := make([]models.ProgressSample, len(values))
	for i, v := range values {
		out[i] = models.ProgressSample{Month: months[i%len(months)], Value: v}
	}
	return out
}

func targetsOf(stos []models.ShortTermObjective) []float64 {
	out := make([]float64, len(stos))
	for i, sto := range stos {
		out[i] = sto.Target
	}
	return out
}

func TestGenerateSTOsHalving(t *testing.T) {
	goal := &models.TreatmentGoal{
		MeasurementType:   models.MeasureCount,
		Baseline:          100,
		MasteryCriteria:   10,
		ProgressionMethod: models.MethodHalving,
	}

	stos := GenerateSTOs(goal)

	// 100 -> 50 -> 25 -> 12 (12.5 rounds to even) -> final 10.
	assert.Equal(t, []float64{50, 25, 12, 10}, targetsOf(stos))
	for i, sto := range stos {
		assert.Equal(t, i+1, sto.STONumber)
		assert.Equal(t, models.StatusNotStarted, sto.Status)
		assert.NotEmpty(t, sto.ID)
	}
}

func TestGenerateSTOsHalvingCloseBaselineYieldsOnlyMasteryStep(t *testing.T) {
	goal := &models.TreatmentGoal{
		MeasurementType:   models.MeasureCount,
		Baseline:          18,
		MasteryCriteria:   10,
		ProgressionMethod: models.MethodHalving,
	}

	stos := GenerateSTOs(goal)

	require.Len(t, stos, 1)
	assert.Equal(t, 10.0, stos[0].Target)
}

func TestGenerateSTOsStandardLadder(t *testing.T) {
	goal := &models.TreatmentGoal{
		MeasurementType:   models.MeasurePercentage,
		Baseline:          0,
		MasteryCriteria:   95,
		ProgressionMethod: models.MethodStandardLadder,
	}

	stos := GenerateSTOs(goal)

	assert.Equal(t, []float64{50, 75, 80, 90, 95}, targetsOf(stos))
}

func TestGenerateSTOsStandardLadderSkipsRungsAtOrBelowBaseline(t *testing.T) {
	goal := &models.TreatmentGoal{
		MeasurementType:   models.MeasurePercentage,
		Baseline:          75,
		MasteryCriteria:   90,
		ProgressionMethod: models.MethodStandardLadder,
	}

	stos := GenerateSTOs(goal)

	assert.Equal(t, []float64{80, 90}, targetsOf(stos))
}

func TestGenerateSTOsDurationProgression(t *testing.T) {
	goal := &models.TreatmentGoal{
		MeasurementType:   models.MeasureDuration,
		Baseline:          20,
		MasteryCriteria:   300,
		ProgressionMethod: models.MethodDurationProgression,
	}

	stos := GenerateSTOs(goal)

	assert.Equal(t, []float64{30, 60, 120, 150, 180, 300}, targetsOf(stos))
	assert.Equal(t, "Sustain for 30 seconds", stos[0].Description)
	assert.Equal(t, "Sustain for 2 minutes 30 seconds", stos[3].Description)
	assert.Equal(t, "Sustain for 5 minutes", stos[5].Description)
}

func TestGenerateSTOsDurationAppendsMasteryWhenNoMilestoneMatches(t *testing.T) {
	goal := &models.TreatmentGoal{
		MeasurementType:   models.MeasureDuration,
		Baseline:          1200,
		MasteryCriteria:   1500,
		ProgressionMethod: models.MethodDurationProgression,
	}

	stos := GenerateSTOs(goal)

	require.Len(t, stos, 1)
	assert.Equal(t, 1500.0, stos[0].Target)
}

func TestGenerateSTOsCustomReturnsEmpty(t *testing.T) {
	goal := &models.TreatmentGoal{ProgressionMethod: models.MethodCustom}
	assert.Empty(t, GenerateSTOs(goal))
}

func TestFormatSeconds(t *testing.T) {
	cases := []struct {
		seconds float64
		want    string
	}{
		{15, "15 seconds"},
		{59, "59 seconds"},
		{60, "1 minute"},
		{90, "1 minute 30 seconds"},
		{120, "2 minutes"},
		{150, "2 minutes 30 seconds"},
		{900, "15 minutes"},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, FormatSeconds(tc.seconds), "seconds=%v", tc.seconds)
	}
}

func TestProgressPercentageDecreaseGoal(t *testing.T) {
	assert.Equal(t, 50.0, ProgressPercentage(20, fptr(10), 0, models.MeasureCount))
	assert.Equal(t, 0.0, ProgressPercentage(20, fptr(20), 0, models.MeasureCount))
	assert.Equal(t, 100.0, ProgressPercentage(20, fptr(0), 0, models.MeasureCount))

	// Beyond the target clamps at 100, regression clamps at 0.
	assert.Equal(t, 100.0, ProgressPercentage(20, fptr(-5), 0, models.MeasureCount))
	assert.Equal(t, 0.0, ProgressPercentage(20, fptr(25), 0, models.MeasureCount))
}

func TestProgressPercentageIncreaseGoal(t *testing.T) {
	assert.Equal(t, 50.0, ProgressPercentage(40, fptr(60), 80, models.MeasurePercentage))
	assert.Equal(t, 100.0, ProgressPercentage(40, fptr(95), 80, models.MeasurePercentage))
	assert.Equal(t, 0.0, ProgressPercentage(40, fptr(30), 80, models.MeasurePercentage))
}

func TestProgressPercentageNilCurrentIsZero(t *testing.T) {
	assert.Equal(t, 0.0, ProgressPercentage(20, nil, 0, models.MeasureCount))
}

func TestProgressPercentageDegenerateSpanNeverNaN(t *testing.T) {
	// Baseline equal to target: met reads 100, not met reads 0.
	assert.Equal(t, 100.0, ProgressPercentage(10, fptr(10), 10, models.MeasureCount))
	assert.Equal(t, 100.0, ProgressPercentage(10, fptr(12), 10, models.MeasurePercentage))
	assert.Equal(t, 0.0, ProgressPercentage(10, fptr(8), 10, models.MeasurePercentage))
}

func TestClassifyTrendInsufficientData(t *testing.T) {
	assert.Equal(t, TrendInsufficientData, ClassifyTrend(nil, models.MeasureCount))
	assert.Equal(t, TrendInsufficientData,
		ClassifyTrend(samplesOf(fptr(10), fptr(9)), models.MeasureCount))
	// Null months do not count toward the three-sample minimum.
	assert.Equal(t, TrendInsufficientData,
		ClassifyTrend(samplesOf(fptr(10), nil, fptr(9)), models.MeasureCount))
}

func TestClassifyTrendStableOnNoChange(t *testing.T) {
	assert.Equal(t, TrendStable,
		ClassifyTrend(samplesOf(fptr(10), fptr(10), fptr(10)), models.MeasureCount))
}

func TestClassifyTrendStableWithinTenPercentBand(t *testing.T) {
	// |9.5-10| = 0.5 < 1.0 (10% of 10).
	assert.Equal(t, TrendStable,
		ClassifyTrend(samplesOf(fptr(10), fptr(12), fptr(9.5)), models.MeasureCount))
}

func TestClassifyTrendDirectionForDecreaseMeasurements(t *testing.T) {
	assert.Equal(t, TrendImproving,
		ClassifyTrend(samplesOf(fptr(20), fptr(15), fptr(10)), models.MeasureCount))
	assert.Equal(t, TrendDeclining,
		ClassifyTrend(samplesOf(fptr(10), fptr(15), fptr(20)), models.MeasureDuration))
}

func TestClassifyTrendDirectionInvertedForIncreaseMeasurements(t *testing.T) {
	assert.Equal(t, TrendImproving,
		ClassifyTrend(samplesOf(fptr(40), fptr(55), fptr(70)), models.MeasurePercentage))
	assert.Equal(t, TrendDeclining,
		ClassifyTrend(samplesOf(fptr(70), fptr(55), fptr(40)), models.MeasureTrials))
}

func TestClassifyTrendUsesThreeMostRecentSamples(t *testing.T) {
	// Early history is irrelevant; the last three decide.
	assert.Equal(t, TrendImproving,
		ClassifyTrend(samplesOf(fptr(5), fptr(5), fptr(20), fptr(15), fptr(10)), models.MeasureCount))
}

func TestClassifyTrendAfterBackfilledMonth(t *testing.T) {
	// A chronologically improving decrease goal (18 -> 12 -> 6) with the
	// earliest month recorded last must still read as improving.
	goal := models.TreatmentGoal{MeasurementType: models.MeasureCount}
	goal.RecordSample("2026-02", fptr(12))
	goal.RecordSample("2026-03", fptr(6))
	goal.RecordSample("2026-01", fptr(18))

	assert.Equal(t, TrendImproving, ClassifyTrend(goal.ProgressData, goal.MeasurementType))
}

func TestCheckMasteryRequiresThreeQualifyingSamples(t *testing.T) {
	// Decrease goal, target 5: two qualifying plus one miss in the last three.
	assert.False(t, CheckMastery(samplesOf(fptr(4), fptr(7), fptr(3)), 5, true))
	assert.True(t, CheckMastery(samplesOf(fptr(4), fptr(5), fptr(3)), 5, true))

	// Fewer than three samples is never mastery.
	assert.False(t, CheckMastery(samplesOf(fptr(1), fptr(1)), 5, true))
	assert.False(t, CheckMastery(nil, 5, true))
}

func TestCheckMasteryIncreaseGoal(t *testing.T) {
	assert.True(t, CheckMastery(samplesOf(fptr(90), fptr(95), fptr(92)), 90, false))
	assert.False(t, CheckMastery(samplesOf(fptr(90), fptr(85), fptr(92)), 90, false))
}

func TestCheckMasteryIgnoresEarlierMisses(t *testing.T) {
	// Only the three most recent non-null samples matter.
	assert.True(t, CheckMastery(samplesOf(fptr(50), fptr(2), nil, fptr(4), fptr(3)), 5, true))
}

func TestCurrentSTO(t *testing.T) {
	goal := &models.TreatmentGoal{
		ShortTermObjectives: []models.ShortTermObjective{
			{STONumber: 1, Status: models.StatusMastered},
			{STONumber: 2, Status: models.StatusInProgress},
			{STONumber: 3, Status: models.StatusNotStarted},
		},
	}

	cur := CurrentSTO(goal)
	require.NotNil(t, cur)
	assert.Equal(t, 2, cur.STONumber)
}

func TestCurrentSTONilWhenAllMastered(t *testing.T) {
	goal := &models.TreatmentGoal{
		ShortTermObjectives: []models.ShortTermObjective{
			{STONumber: 1, Status: models.StatusMastered},
			{STONumber: 2, Status: models.StatusMastered},
		},
	}
	assert.Nil(t, CurrentSTO(goal))

	assert.Nil(t, CurrentSTO(&models.TreatmentGoal{}))
}

func TestSuggestProgressionMethod(t *testing.T) {
	assert.Equal(t, models.MethodHalving, SuggestProgressionMethod(models.MeasureCount, true))
	assert.Equal(t, models.MethodStandardLadder, SuggestProgressionMethod(models.MeasurePercentage, false))
	assert.Equal(t, models.MethodDurationProgression, SuggestProgressionMethod(models.MeasureDuration, false))
	assert.Equal(t, models.MethodHalving, SuggestProgressionMethod(models.MeasureDuration, true))
	assert.Equal(t, models.MethodStandardLadder, SuggestProgressionMethod(models.MeasureTrials, false))
	assert.Equal(t, models.MethodStandardLadder, SuggestProgressionMethod(models.MeasureCount, false))
}
