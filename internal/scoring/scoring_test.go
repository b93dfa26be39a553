package scoring

import (
	"testing"

	"github.com/stretchr/testify/require"

	"ssdf-compass/internal/models"
)

func row(status models.TaskStatus, maturity, target, weight int) models.AssessmentTaskResult {
	return models.AssessmentTaskResult{
		Applicable:    status != models.TaskNotApplicable,
		Status:        status,
		MaturityLevel: maturity,
		TargetLevel:   target,
		Weight:        weight,
	}
}

func TestGapPriorityProgress(t *testing.T) {
	r := row(models.TaskInProgress, 1, 3, 4)

	require.Equal(t, 2, Gap(r))
	require.Equal(t, 8, Priority(r))
	require.InDelta(t, 1.333, ProgressWeighted(r), 0.001)
}

func TestGapNotClamped(t *testing.T) {
	// зрелость выше цели — разрыв отрицательный, не обрезается
	r := row(models.TaskImplemented, 3, 1, 2)
	require.Equal(t, -2, Gap(r))
	require.Equal(t, -4, Priority(r))
}

func TestNormalizeApplicability(t *testing.T) {
	// снятие applicable перекрывает любой присланный статус
	require.Equal(t, models.TaskNotApplicable, NormalizeApplicability(false, models.TaskImplemented))
	require.Equal(t, models.TaskNotApplicable, NormalizeApplicability(false, models.TaskInProgress))

	// возврат applicable из NOT_APPLICABLE сбрасывает в NOT_STARTED
	require.Equal(t, models.TaskNotStarted, NormalizeApplicability(true, models.TaskNotApplicable))

	// обычный статус проходит без изменений
	require.Equal(t, models.TaskInProgress, NormalizeApplicability(true, models.TaskInProgress))
}

func TestAggregateRows(t *testing.T) {
	rows := []models.AssessmentTaskResult{
		row(models.TaskImplemented, 3, 3, 2),
		row(models.TaskInProgress, 1, 3, 4),
		row(models.TaskNotApplicable, 0, 3, 5), // не входит в агрегат
		row(models.TaskNotStarted, 0, 3, 1),
	}

	agg := AggregateRows(rows)

	require.Equal(t, 4, agg.TotalCount)
	require.Equal(t, 3, agg.ApplicableCount)
	require.Equal(t, 1, agg.ImplementedCount)
	require.InDelta(t, 7.0, agg.WeightSum, 1e-9)
	// 3/3*2 + 1/3*4 + 0 = 3.333...
	require.InDelta(t, 3.3333, agg.WeightedProgress, 0.001)
	require.InDelta(t, 0.4762, agg.Score, 0.001)
	require.InDelta(t, 1.0/3.0, agg.ImplementedRate, 1e-9)
}

func TestAggregateRowsEmpty(t *testing.T) {
	agg := AggregateRows(nil)
	require.Zero(t, agg.Score)
	require.Zero(t, agg.ImplementedRate)

	// все строки NOT_APPLICABLE — нулевой вес не даёт деления на ноль
	agg = AggregateRows([]models.AssessmentTaskResult{
		row(models.TaskNotApplicable, 0, 3, 5),
	})
	require.Equal(t, 1, agg.TotalCount)
	require.Zero(t, agg.ApplicableCount)
	require.Zero(t, agg.Score)
	require.Zero(t, agg.ImplementedRate)
}

func withTask(r models.AssessmentTaskResult, taskID, practiceID, groupID string) models.AssessmentTaskResult {
	r.SsdfTaskID = taskID
	r.SsdfTask = models.SsdfTask{
		ID:             taskID,
		SsdfPracticeID: practiceID,
		SsdfPractice: models.SsdfPractice{
			ID:          practiceID,
			SsdfGroupID: groupID,
		},
	}
	return r
}

func TestGroupTotalsFixedOrder(t *testing.T) {
	rows := []models.AssessmentTaskResult{
		withTask(row(models.TaskImplemented, 3, 3, 3), "RV.1.1", "RV.1", "RV"),
		withTask(row(models.TaskNotStarted, 0, 3, 3), "PO.1.1", "PO.1", "PO"),
	}

	totals := GroupTotals(rows)

	require.Len(t, totals, 4)
	require.Equal(t, "PO", totals[0].GroupID)
	require.Equal(t, "PS", totals[1].GroupID)
	require.Equal(t, "PW", totals[2].GroupID)
	require.Equal(t, "RV", totals[3].GroupID)

	// пустые группы присутствуют с нулевым агрегатом
	require.Zero(t, totals[1].TotalCount)
	require.Equal(t, 1, totals[0].TotalCount)
	require.InDelta(t, 1.0, totals[3].Score, 1e-9)
}

func TestPracticeTotalsOrder(t *testing.T) {
	rows := []models.AssessmentTaskResult{
		withTask(row(models.TaskNotStarted, 0, 3, 3), "RV.2.1", "RV.2", "RV"),
		withTask(row(models.TaskNotStarted, 0, 3, 3), "PO.3.1", "PO.3", "PO"),
		withTask(row(models.TaskNotStarted, 0, 3, 3), "PO.1.1", "PO.1", "PO"),
	}

	totals := PracticeTotals(rows)

	require.Len(t, totals, 3)
	require.Equal(t, "PO.1", totals[0].PracticeID)
	require.Equal(t, "PO.3", totals[1].PracticeID)
	require.Equal(t, "RV.2", totals[2].PracticeID)
}
