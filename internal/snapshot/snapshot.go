package snapshot

import (
	"encoding/json"
	"sort"
	"strconv"
	"strings"
	"time"

	"ssdf-compass/internal/models"
	"ssdf-compass/internal/scoring"
)

// Снапшот агрегатов оценки. Одна и та же структура отдаётся дашборду как
// живой "draft"-срез и замораживается в релиз при утверждении, поэтому
// схема версионируется: старые замороженные снапшоты приводятся к текущей
// форме перед сравнением в трендах.

const SchemaVersion = 2

type TaskRow struct {
	TaskID     string `json:"taskId"`
	PracticeID string `json:"practiceId"`
	GroupID    string `json:"groupId"`

	Applicable    bool              `json:"applicable"`
	Status        models.TaskStatus `json:"status"`
	MaturityLevel int               `json:"maturityLevel"`
	TargetLevel   int               `json:"targetLevel"`
	Weight        int               `json:"weight"`

	Gap              int     `json:"gap"`
	Priority         int     `json:"priority"`
	ProgressWeighted float64 `json:"progressWeighted"`
}

type CisRow struct {
	ControlID   string `json:"controlId"`
	SafeguardID string `json:"safeguardId,omitempty"` // пусто — уровень контрола

	Status         models.TaskStatus `json:"status"` // эффективный (с учётом override)
	MaturityLevel  int               `json:"maturityLevel"`
	CoverageScore  float64           `json:"coverageScore"`
	ManualOverride bool              `json:"manualOverride"`
}

type IGTotal struct {
	IG               models.IGLevel `json:"ig"`
	SafeguardCount   int            `json:"safeguardCount"`
	ImplementedCount int            `json:"implementedCount"`
	AvgCoverage      float64        `json:"avgCoverage"`
}

type Snapshot struct {
	SchemaVersion int       `json:"schemaVersion"`
	AssessmentID  uint      `json:"assessmentId"`
	GeneratedAt   time.Time `json:"generatedAt"`

	Groups    []scoring.GroupTotal    `json:"groups"` // фиксированный порядок PO, PS, PW, RV
	Practices []scoring.PracticeTotal `json:"practices"`
	Tasks     []TaskRow               `json:"tasks"`
	Cis       []CisRow                `json:"cis"`
	IGs       []IGTotal               `json:"igs"`
	Total     scoring.Aggregate       `json:"total"`
}

// Build — чистая сборка снапшота из текущего состояния. Строки задач должны
// быть с предзагрузкой SsdfTask → SsdfPractice; safeguards — справочник
// для раскладки по Implementation Group.
func Build(assessmentID uint, taskRows []models.AssessmentTaskResult, cisRows []models.AssessmentCisResult, safeguards []models.CisSafeguard, now time.Time) Snapshot {
	snap := Snapshot{
		SchemaVersion: SchemaVersion,
		AssessmentID:  assessmentID,
		GeneratedAt:   now.UTC(),
		Groups:        scoring.GroupTotals(taskRows),
		Practices:     scoring.PracticeTotals(taskRows),
		Total:         scoring.AggregateRows(taskRows),
	}

	tasks := make([]TaskRow, 0, len(taskRows))
	for _, r := range taskRows {
		tasks = append(tasks, TaskRow{
			TaskID:           r.SsdfTaskID,
			PracticeID:       r.SsdfTask.SsdfPracticeID,
			GroupID:          r.SsdfTask.SsdfPractice.SsdfGroupID,
			Applicable:       r.Applicable,
			Status:           r.Status,
			MaturityLevel:    r.MaturityLevel,
			TargetLevel:      r.TargetLevel,
			Weight:           r.Weight,
			Gap:              scoring.Gap(r),
			Priority:         scoring.Priority(r),
			ProgressWeighted: scoring.ProgressWeighted(r),
		})
	}
	sort.Slice(tasks, func(i, j int) bool { return tasks[i].TaskID < tasks[j].TaskID })
	snap.Tasks = tasks

	igOf := make(map[string]models.IGLevel, len(safeguards))
	for _, sg := range safeguards {
		igOf[sg.ID] = sg.IG
	}

	cis := make([]CisRow, 0, len(cisRows))
	igCount := make(map[models.IGLevel]int)
	igImplemented := make(map[models.IGLevel]int)
	igCoverage := make(map[models.IGLevel]float64)
	for _, r := range cisRows {
		cis = append(cis, CisRow{
			ControlID:      r.CisControlID,
			SafeguardID:    r.CisSafeguardID,
			Status:         r.EffectiveStatus(),
			MaturityLevel:  r.EffectiveMaturity(),
			CoverageScore:  r.DerivedCoverageScore,
			ManualOverride: r.ManualOverride,
		})

		if r.CisSafeguardID == "" {
			continue
		}
		ig, ok := igOf[r.CisSafeguardID]
		if !ok {
			continue
		}
		igCount[ig]++
		igCoverage[ig] += r.DerivedCoverageScore
		if r.EffectiveStatus() == models.TaskImplemented {
			igImplemented[ig]++
		}
	}
	sort.Slice(cis, func(i, j int) bool {
		if cis[i].ControlID != cis[j].ControlID {
			return lessCisID(cis[i].ControlID, cis[j].ControlID)
		}
		return lessCisID(cis[i].SafeguardID, cis[j].SafeguardID)
	})
	snap.Cis = cis

	for _, ig := range []models.IGLevel{models.IG1, models.IG2, models.IG3} {
		t := IGTotal{
			IG:               ig,
			SafeguardCount:   igCount[ig],
			ImplementedCount: igImplemented[ig],
		}
		if t.SafeguardCount > 0 {
			t.AvgCoverage = igCoverage[ig] / float64(t.SafeguardCount)
		}
		snap.IGs = append(snap.IGs, t)
	}

	return snap
}

// lessCisID — числовое сравнение идентификаторов CIS: "2" < "10", "16.2" < "16.10".
func lessCisID(a, b string) bool {
	as := strings.Split(a, ".")
	bs := strings.Split(b, ".")
	for i := 0; i < len(as) && i < len(bs); i++ {
		ai, errA := strconv.Atoi(as[i])
		bi, errB := strconv.Atoi(bs[i])
		if errA != nil || errB != nil {
			if as[i] != bs[i] {
				return as[i] < bs[i]
			}
			continue
		}
		if ai != bi {
			return ai < bi
		}
	}
	return len(as) < len(bs)
}

// legacySnapshot — форма v1: группы лежали map'ом по id, секций practices/cis/igs
// ещё не было, задачи — в старых именах полей.
type legacySnapshot struct {
	AssessmentID uint                         `json:"assessmentId"`
	GeneratedAt  time.Time                    `json:"generatedAt"`
	Groups       map[string]scoring.Aggregate `json:"groups"`
	Tasks        []TaskRow                    `json:"tasks"`
	Total        scoring.Aggregate            `json:"total"`
}

// Normalize — приведение сырого снапшота (возможно, старой схемы) к текущей.
// Сравнение трендов всегда работает поверх нормализованных снапшотов.
func Normalize(raw []byte) (Snapshot, error) {
	var probe struct {
		SchemaVersion int `json:"schemaVersion"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return Snapshot{}, err
	}

	if probe.SchemaVersion >= 2 {
		var snap Snapshot
		if err := json.Unmarshal(raw, &snap); err != nil {
			return Snapshot{}, err
		}
		return snap, nil
	}

	var old legacySnapshot
	if err := json.Unmarshal(raw, &old); err != nil {
		return Snapshot{}, err
	}

	snap := Snapshot{
		SchemaVersion: SchemaVersion,
		AssessmentID:  old.AssessmentID,
		GeneratedAt:   old.GeneratedAt,
		Tasks:         old.Tasks,
		Total:         old.Total,
	}
	for _, gid := range models.GroupOrder {
		snap.Groups = append(snap.Groups, scoring.GroupTotal{
			GroupID:   gid,
			Aggregate: old.Groups[gid],
		})
	}
	return snap, nil
}

// GroupDelta — сдвиг балла группы между двумя снапшотами.
type GroupDelta struct {
	GroupID    string  `json:"groupId"`
	OlderScore float64 `json:"olderScore"`
	NewerScore float64 `json:"newerScore"`
	Delta      float64 `json:"delta"`
}

// Compare — покомпонентный сдвиг между двумя (нормализованными) снапшотами
// в фиксированном порядке групп.
func Compare(older, newer Snapshot) []GroupDelta {
	olderByID := make(map[string]scoring.GroupTotal, len(older.Groups))
	for _, g := range older.Groups {
		olderByID[g.GroupID] = g
	}
	newerByID := make(map[string]scoring.GroupTotal, len(newer.Groups))
	for _, g := range newer.Groups {
		newerByID[g.GroupID] = g
	}

	deltas := make([]GroupDelta, 0, len(models.GroupOrder))
	for _, gid := range models.GroupOrder {
		o := olderByID[gid].Score
		n := newerByID[gid].Score
		deltas = append(deltas, GroupDelta{
			GroupID:    gid,
			OlderScore: o,
			NewerScore: n,
			Delta:      n - o,
		})
	}
	return deltas
}
