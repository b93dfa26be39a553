package snapshot

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"ssdf-compass/internal/models"
	"ssdf-compass/internal/scoring"
)

func taskResult(taskID, practiceID, groupID string, status models.TaskStatus, maturity int) models.AssessmentTaskResult {
	return models.AssessmentTaskResult{
		SsdfTaskID:    taskID,
		Applicable:    status != models.TaskNotApplicable,
		Status:        status,
		MaturityLevel: maturity,
		TargetLevel:   3,
		Weight:        3,
		SsdfTask: models.SsdfTask{
			ID:             taskID,
			SsdfPracticeID: practiceID,
			SsdfPractice: models.SsdfPractice{
				ID:          practiceID,
				SsdfGroupID: groupID,
			},
		},
	}
}

func TestBuildOrdering(t *testing.T) {
	tasks := []models.AssessmentTaskResult{
		taskResult("RV.1.1", "RV.1", "RV", models.TaskImplemented, 3),
		taskResult("PO.1.1", "PO.1", "PO", models.TaskInProgress, 1),
	}
	cis := []models.AssessmentCisResult{
		{CisControlID: "16", CisSafeguardID: "16.10", DerivedStatus: models.TaskInProgress, DerivedMaturityLevel: 1, DerivedCoverageScore: 40},
		{CisControlID: "16", CisSafeguardID: "16.2", DerivedStatus: models.TaskImplemented, DerivedMaturityLevel: 3, DerivedCoverageScore: 100},
		{CisControlID: "7", CisSafeguardID: "", DerivedStatus: models.TaskNotStarted},
	}
	safeguards := []models.CisSafeguard{
		{ID: "16.2", CisControlID: "16", IG: models.IG2},
		{ID: "16.10", CisControlID: "16", IG: models.IG3},
	}

	snap := Build(7, tasks, cis, safeguards, time.Now())

	require.Equal(t, SchemaVersion, snap.SchemaVersion)
	require.Equal(t, uint(7), snap.AssessmentID)

	// группы в фиксированном порядке, включая пустые
	require.Len(t, snap.Groups, 4)
	require.Equal(t, "PO", snap.Groups[0].GroupID)
	require.Equal(t, "RV", snap.Groups[3].GroupID)

	// задачи по id
	require.Equal(t, "PO.1.1", snap.Tasks[0].TaskID)
	require.Equal(t, "RV.1.1", snap.Tasks[1].TaskID)

	// CIS: числовое сравнение — "7" раньше "16", "16.2" раньше "16.10"
	require.Equal(t, "7", snap.Cis[0].ControlID)
	require.Equal(t, "16.2", snap.Cis[1].SafeguardID)
	require.Equal(t, "16.10", snap.Cis[2].SafeguardID)
}

func TestBuildIGTotals(t *testing.T) {
	cis := []models.AssessmentCisResult{
		{CisControlID: "16", CisSafeguardID: "16.1", DerivedStatus: models.TaskImplemented, DerivedCoverageScore: 100},
		{CisControlID: "16", CisSafeguardID: "16.2", DerivedStatus: models.TaskInProgress, DerivedCoverageScore: 50},
		{CisControlID: "7", CisSafeguardID: "7.1", DerivedStatus: models.TaskNotStarted, DerivedCoverageScore: 0},
		// строка уровня контрола в IG-раскладку не входит
		{CisControlID: "4", CisSafeguardID: "", DerivedStatus: models.TaskImplemented, DerivedCoverageScore: 100},
	}
	safeguards := []models.CisSafeguard{
		{ID: "16.1", CisControlID: "16", IG: models.IG2},
		{ID: "16.2", CisControlID: "16", IG: models.IG2},
		{ID: "7.1", CisControlID: "7", IG: models.IG1},
	}

	snap := Build(1, nil, cis, safeguards, time.Now())

	require.Len(t, snap.IGs, 3)
	require.Equal(t, models.IG1, snap.IGs[0].IG)
	require.Equal(t, 1, snap.IGs[0].SafeguardCount)
	require.Zero(t, snap.IGs[0].ImplementedCount)

	require.Equal(t, models.IG2, snap.IGs[1].IG)
	require.Equal(t, 2, snap.IGs[1].SafeguardCount)
	require.Equal(t, 1, snap.IGs[1].ImplementedCount)
	require.InDelta(t, 75.0, snap.IGs[1].AvgCoverage, 1e-9)

	require.Equal(t, models.IG3, snap.IGs[2].IG)
	require.Zero(t, snap.IGs[2].SafeguardCount)
}

func TestBuildUsesEffectiveValues(t *testing.T) {
	manual := models.TaskImplemented
	level := 3
	cis := []models.AssessmentCisResult{
		{
			CisControlID:         "16",
			CisSafeguardID:       "16.1",
			DerivedStatus:        models.TaskInProgress,
			DerivedMaturityLevel: 1,
			DerivedCoverageScore: 40,
			ManualOverride:       true,
			ManualStatus:         &manual,
			ManualMaturityLevel:  &level,
		},
	}

	snap := Build(1, nil, cis, nil, time.Now())

	require.Equal(t, models.TaskImplemented, snap.Cis[0].Status)
	require.Equal(t, 3, snap.Cis[0].MaturityLevel)
	// покрытие остаётся производным даже при override
	require.InDelta(t, 40.0, snap.Cis[0].CoverageScore, 1e-9)
	require.True(t, snap.Cis[0].ManualOverride)
}

func TestLessCisID(t *testing.T) {
	require.True(t, lessCisID("2", "10"))
	require.False(t, lessCisID("10", "2"))
	require.True(t, lessCisID("16.2", "16.10"))
	require.True(t, lessCisID("16", "16.1"))
	require.False(t, lessCisID("16.1", "16"))
}

func TestNormalizeCurrentSchema(t *testing.T) {
	snap := Build(3, []models.AssessmentTaskResult{
		taskResult("PO.1.1", "PO.1", "PO", models.TaskImplemented, 3),
	}, nil, nil, time.Now())

	raw, err := json.Marshal(snap)
	require.NoError(t, err)

	got, err := Normalize(raw)
	require.NoError(t, err)
	require.Equal(t, snap.SchemaVersion, got.SchemaVersion)
	require.Equal(t, snap.AssessmentID, got.AssessmentID)
	require.Equal(t, snap.Groups, got.Groups)
	require.Equal(t, snap.Tasks, got.Tasks)
}

func TestNormalizeLegacySchema(t *testing.T) {
	// v1: группы map'ом, без schemaVersion и без секций practices/cis/igs
	legacy := []byte(`{
		"assessmentId": 9,
		"generatedAt": "2024-05-01T10:00:00Z",
		"groups": {
			"PO": {"totalCount": 5, "applicableCount": 4, "weightSum": 12, "score": 0.5},
			"RV": {"totalCount": 2, "applicableCount": 2, "weightSum": 6, "score": 0.25}
		},
		"tasks": [],
		"total": {"totalCount": 7, "score": 0.4}
	}`)

	snap, err := Normalize(legacy)
	require.NoError(t, err)

	require.Equal(t, SchemaVersion, snap.SchemaVersion)
	require.Equal(t, uint(9), snap.AssessmentID)

	// группы приведены к фиксированному порядку, пропущенные — нулевые
	require.Len(t, snap.Groups, 4)
	require.Equal(t, "PO", snap.Groups[0].GroupID)
	require.InDelta(t, 0.5, snap.Groups[0].Score, 1e-9)
	require.Equal(t, "PS", snap.Groups[1].GroupID)
	require.Zero(t, snap.Groups[1].TotalCount)
	require.Equal(t, "RV", snap.Groups[3].GroupID)
	require.InDelta(t, 0.25, snap.Groups[3].Score, 1e-9)

	require.InDelta(t, 0.4, snap.Total.Score, 1e-9)
}

func TestNormalizeGarbage(t *testing.T) {
	_, err := Normalize([]byte("not json"))
	require.Error(t, err)
}

func TestCompare(t *testing.T) {
	older := Snapshot{Groups: []scoring.GroupTotal{
		{GroupID: "PO", Aggregate: scoring.Aggregate{Score: 0.2}},
		{GroupID: "PS", Aggregate: scoring.Aggregate{Score: 0.5}},
	}}
	newer := Snapshot{Groups: []scoring.GroupTotal{
		{GroupID: "PO", Aggregate: scoring.Aggregate{Score: 0.6}},
		{GroupID: "PS", Aggregate: scoring.Aggregate{Score: 0.4}},
	}}

	deltas := Compare(older, newer)

	require.Len(t, deltas, 4)
	require.Equal(t, "PO", deltas[0].GroupID)
	require.InDelta(t, 0.4, deltas[0].Delta, 1e-9)
	require.InDelta(t, -0.1, deltas[1].Delta, 1e-9)
	// группы, отсутствующие в обоих снапшотах, дают нулевой сдвиг
	require.Zero(t, deltas[2].Delta)
}
