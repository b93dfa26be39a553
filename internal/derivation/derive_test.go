package derivation

import (
	"sort"
	"testing"

	"github.com/stretchr/testify/require"

	"ssdf-compass/internal/models"
	"ssdf-compass/internal/scoring"
)

func TestDeriveWorkedExample(t *testing.T) {
	// DIRECT w=1 задача A (implemented, 3) + PARTIAL w=1 задача B (in_progress, 1):
	// effWeights=[1, 0.7]; weightedMaturity=3.7; weightSum=1.7;
	// avg=2.176 → round 2; coverage = 3.7/(3*1.7)*100 = 72.549...
	mappings := []MappingInput{
		{TaskID: "A", Type: models.MappingDirect, Weight: 1},
		{TaskID: "B", Type: models.MappingPartial, Weight: 1},
	}
	results := map[string]TaskState{
		"A": {Status: models.TaskImplemented, MaturityLevel: 3},
		"B": {Status: models.TaskInProgress, MaturityLevel: 1},
	}

	res := Derive(mappings, results)

	require.Equal(t, models.TaskInProgress, res.Status)
	require.Equal(t, 2, res.MaturityLevel)
	require.InDelta(t, 72.55, res.CoverageScore, 0.02)
	require.Equal(t, []string{"A", "B"}, res.FromTaskIDs)
}

func TestDeriveStatusTieBreakOrderIndependent(t *testing.T) {
	// NOT_STARTED перебивает IMPLEMENTED независимо от порядка входа
	forward := []MappingInput{
		{TaskID: "A", Type: models.MappingDirect, Weight: 1},
		{TaskID: "B", Type: models.MappingDirect, Weight: 1},
	}
	backward := []MappingInput{forward[1], forward[0]}
	results := map[string]TaskState{
		"A": {Status: models.TaskNotStarted, MaturityLevel: 0},
		"B": {Status: models.TaskImplemented, MaturityLevel: 3},
	}

	require.Equal(t, models.TaskNotStarted, Derive(forward, results).Status)
	require.Equal(t, models.TaskNotStarted, Derive(backward, results).Status)
}

func TestFoldStatusesPriority(t *testing.T) {
	cases := []struct {
		name     string
		statuses []models.TaskStatus
		want     models.TaskStatus
	}{
		{"not_started wins over everything", []models.TaskStatus{models.TaskImplemented, models.TaskInProgress, models.TaskNotStarted}, models.TaskNotStarted},
		{"in_progress wins over implemented", []models.TaskStatus{models.TaskImplemented, models.TaskInProgress}, models.TaskInProgress},
		{"all implemented", []models.TaskStatus{models.TaskImplemented, models.TaskImplemented}, models.TaskImplemented},
		{"empty defaults to implemented", nil, models.TaskImplemented},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.want, FoldStatuses(tc.statuses))
		})
	}
}

func TestDeriveEmptyApplicable(t *testing.T) {
	mappings := []MappingInput{
		{TaskID: "A", Type: models.MappingDirect, Weight: 1},
		{TaskID: "B", Type: models.MappingPartial, Weight: 0.5},
	}

	// все замапленные задачи NOT_APPLICABLE
	res := Derive(mappings, map[string]TaskState{
		"A": {Status: models.TaskNotApplicable, MaturityLevel: 3},
		"B": {Status: models.TaskNotApplicable, MaturityLevel: 3},
	})
	require.Equal(t, models.TaskNotApplicable, res.Status)
	require.Zero(t, res.MaturityLevel)
	require.Zero(t, res.CoverageScore)
	require.Equal(t, []string{"A", "B"}, res.FromTaskIDs)

	// строк результата нет вовсе
	res = Derive(mappings, map[string]TaskState{})
	require.Equal(t, models.TaskNotApplicable, res.Status)
	require.Zero(t, res.MaturityLevel)
	require.Zero(t, res.CoverageScore)
	require.Empty(t, res.FromTaskIDs)

	// маппингов нет
	res = Derive(nil, nil)
	require.Equal(t, models.TaskNotApplicable, res.Status)
}

func TestDeriveBounds(t *testing.T) {
	types := []models.MappingType{models.MappingDirect, models.MappingPartial, models.MappingSupports}
	statuses := []models.TaskStatus{models.TaskNotStarted, models.TaskInProgress, models.TaskImplemented}

	for _, mt := range types {
		for _, st := range statuses {
			for maturity := 0; maturity <= scoring.MaxMaturityLevel; maturity++ {
				res := Derive(
					[]MappingInput{{TaskID: "A", Type: mt, Weight: 0.3}, {TaskID: "B", Type: mt, Weight: 1}},
					map[string]TaskState{
						"A": {Status: st, MaturityLevel: maturity},
						"B": {Status: models.TaskImplemented, MaturityLevel: scoring.MaxMaturityLevel},
					},
				)
				require.GreaterOrEqual(t, res.CoverageScore, 0.0)
				require.LessOrEqual(t, res.CoverageScore, 100.0)
				require.GreaterOrEqual(t, res.MaturityLevel, 0)
				require.LessOrEqual(t, res.MaturityLevel, scoring.MaxMaturityLevel)
			}
		}
	}
}

func TestDeriveIdempotent(t *testing.T) {
	mappings := []MappingInput{
		{TaskID: "B", Type: models.MappingSupports, Weight: 0.4},
		{TaskID: "A", Type: models.MappingDirect, Weight: 0.9},
		{TaskID: "B", Type: models.MappingPartial, Weight: 0.6}, // дубль задачи в разных маппингах
	}
	results := map[string]TaskState{
		"A": {Status: models.TaskImplemented, MaturityLevel: 2},
		"B": {Status: models.TaskInProgress, MaturityLevel: 1},
	}

	first := Derive(mappings, results)
	second := Derive(mappings, results)

	require.Equal(t, first, second)
	require.True(t, sort.StringsAreSorted(first.FromTaskIDs))
	require.Equal(t, []string{"A", "B"}, first.FromTaskIDs)
}

func TestDeriveFullCoverage(t *testing.T) {
	// цель, полностью закрытая DIRECT-маппингами на максимальной зрелости
	res := Derive(
		[]MappingInput{{TaskID: "A", Type: models.MappingDirect, Weight: 1}},
		map[string]TaskState{"A": {Status: models.TaskImplemented, MaturityLevel: 3}},
	)
	require.Equal(t, models.TaskImplemented, res.Status)
	require.Equal(t, 3, res.MaturityLevel)
	require.InDelta(t, 100.0, res.CoverageScore, 1e-9)

	// та же зрелость задач, но только SUPPORTS-маппинги — покрытие то же
	// по формуле (нормировка на weightSum), зато вес в агрегатах ниже.
	res = Derive(
		[]MappingInput{{TaskID: "A", Type: models.MappingSupports, Weight: 1}},
		map[string]TaskState{"A": {Status: models.TaskImplemented, MaturityLevel: 3}},
	)
	require.InDelta(t, 100.0, res.CoverageScore, 1e-9)
}

func TestDeriveMixedTypesLowerCoverage(t *testing.T) {
	// при одинаковой зрелости задач цель с низковесными PARTIAL/SUPPORTS
	// рядом с DIRECT набирает меньше, чем чисто DIRECT-цель
	direct := Derive(
		[]MappingInput{
			{TaskID: "A", Type: models.MappingDirect, Weight: 1},
			{TaskID: "B", Type: models.MappingDirect, Weight: 1},
		},
		map[string]TaskState{
			"A": {Status: models.TaskImplemented, MaturityLevel: 3},
			"B": {Status: models.TaskInProgress, MaturityLevel: 1},
		},
	)
	mixed := Derive(
		[]MappingInput{
			{TaskID: "A", Type: models.MappingSupports, Weight: 0.4},
			{TaskID: "B", Type: models.MappingDirect, Weight: 1},
		},
		map[string]TaskState{
			"A": {Status: models.TaskImplemented, MaturityLevel: 3},
			"B": {Status: models.TaskInProgress, MaturityLevel: 1},
		},
	)
	require.Less(t, mixed.CoverageScore, direct.CoverageScore)
}

func TestDeriveSkipsNotApplicableMappings(t *testing.T) {
	// NOT_APPLICABLE задача не участвует ни в статусе, ни в зрелости,
	// но остаётся в списке задач-источников
	res := Derive(
		[]MappingInput{
			{TaskID: "A", Type: models.MappingDirect, Weight: 1},
			{TaskID: "B", Type: models.MappingDirect, Weight: 1},
		},
		map[string]TaskState{
			"A": {Status: models.TaskNotApplicable, MaturityLevel: 0},
			"B": {Status: models.TaskImplemented, MaturityLevel: 3},
		},
	)
	require.Equal(t, models.TaskImplemented, res.Status)
	require.Equal(t, 3, res.MaturityLevel)
	require.InDelta(t, 100.0, res.CoverageScore, 1e-9)
	require.Equal(t, []string{"A", "B"}, res.FromTaskIDs)
}

func TestTypeFactor(t *testing.T) {
	require.InDelta(t, 1.0, TypeFactor(models.MappingDirect), 1e-9)
	require.InDelta(t, 0.7, TypeFactor(models.MappingPartial), 1e-9)
	require.InDelta(t, 0.4, TypeFactor(models.MappingSupports), 1e-9)
	require.Zero(t, TypeFactor(models.MappingType("bogus")))
}

func TestTargetKey(t *testing.T) {
	ctrl := ControlTarget("16")
	sg := SafeguardTarget("16", "16.1")

	require.True(t, ctrl.IsControlLevel())
	require.False(t, sg.IsControlLevel())
	require.NotEqual(t, ctrl, sg)
}
