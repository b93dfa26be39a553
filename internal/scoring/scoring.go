package scoring

import (
	"sort"

	"ssdf-compass/internal/models"
)

// MaxMaturityLevel — потолок зрелости в расчётах покрытия и прогресса.
const MaxMaturityLevel = 3

// MaxTaskLevelInput — потолок значений в редакторе задач. Редактор исторически
// допускает 4 и 5; расчёты при этом продолжают делить на MaxMaturityLevel.
const MaxTaskLevelInput = 5

func Applicable(r models.AssessmentTaskResult) bool {
	return r.Status != models.TaskNotApplicable
}

// Gap — разрыв до целевого уровня. Может быть отрицательным, не обрезается.
func Gap(r models.AssessmentTaskResult) int {
	return r.TargetLevel - r.MaturityLevel
}

// Priority — вес разрыва, используется только для сортировки.
func Priority(r models.AssessmentTaskResult) int {
	return Gap(r) * r.Weight
}

func ProgressWeighted(r models.AssessmentTaskResult) float64 {
	return float64(r.MaturityLevel) / MaxMaturityLevel * float64(r.Weight)
}

// NormalizeApplicability — серверное согласование пары (applicable, status).
// Выполняется до записи в БД, а не в слое UI:
// снятие applicable принудительно ставит NOT_APPLICABLE независимо от присланного
// статуса, возврат applicable из NOT_APPLICABLE сбрасывает статус в NOT_STARTED.
func NormalizeApplicability(applicable bool, status models.TaskStatus) models.TaskStatus {
	if !applicable {
		return models.TaskNotApplicable
	}
	if status == models.TaskNotApplicable {
		return models.TaskNotStarted
	}
	return status
}

type Aggregate struct {
	TotalCount       int     `json:"totalCount"`
	ApplicableCount  int     `json:"applicableCount"`
	ImplementedCount int     `json:"implementedCount"`
	WeightSum        float64 `json:"weightSum"`
	WeightedProgress float64 `json:"weightedProgress"`
	Score            float64 `json:"score"`           // weightedProgress / weightSum, 0 при нулевом весе
	ImplementedRate  float64 `json:"implementedRate"` // implementedCount / applicableCount
}

// AggregateRows — агрегат по набору строк; в расчёт входят только applicable.
func AggregateRows(rows []models.AssessmentTaskResult) Aggregate {
	agg := Aggregate{TotalCount: len(rows)}
	for _, r := range rows {
		if !Applicable(r) {
			continue
		}
		agg.ApplicableCount++
		if r.Status == models.TaskImplemented {
			agg.ImplementedCount++
		}
		agg.WeightSum += float64(r.Weight)
		agg.WeightedProgress += ProgressWeighted(r)
	}
	if agg.WeightSum > 0 {
		agg.Score = agg.WeightedProgress / agg.WeightSum
	}
	if agg.ApplicableCount > 0 {
		agg.ImplementedRate = float64(agg.ImplementedCount) / float64(agg.ApplicableCount)
	}
	return agg
}

type GroupTotal struct {
	GroupID string `json:"groupId"`
	Name    string `json:"name"`
	Aggregate
}

type PracticeTotal struct {
	PracticeID string `json:"practiceId"`
	GroupID    string `json:"groupId"`
	Name       string `json:"name"`
	Aggregate
}

// GroupTotals — агрегаты по группам в фиксированном порядке [PO, PS, PW, RV].
// Строки должны быть с предзагруженной цепочкой SsdfTask → SsdfPractice.
func GroupTotals(rows []models.AssessmentTaskResult) []GroupTotal {
	byGroup := make(map[string][]models.AssessmentTaskResult)
	names := make(map[string]string)
	for _, r := range rows {
		gid := r.SsdfTask.SsdfPractice.SsdfGroupID
		byGroup[gid] = append(byGroup[gid], r)
		if n := r.SsdfTask.SsdfPractice.SsdfGroup.Name; n != "" {
			names[gid] = n
		}
	}

	totals := make([]GroupTotal, 0, len(models.GroupOrder))
	for _, gid := range models.GroupOrder {
		totals = append(totals, GroupTotal{
			GroupID:   gid,
			Name:      names[gid],
			Aggregate: AggregateRows(byGroup[gid]),
		})
	}
	return totals
}

// PracticeTotals — агрегаты по практикам: порядок групп, внутри группы — по id практики.
func PracticeTotals(rows []models.AssessmentTaskResult) []PracticeTotal {
	byPractice := make(map[string][]models.AssessmentTaskResult)
	group := make(map[string]string)
	names := make(map[string]string)
	for _, r := range rows {
		pid := r.SsdfTask.SsdfPracticeID
		byPractice[pid] = append(byPractice[pid], r)
		group[pid] = r.SsdfTask.SsdfPractice.SsdfGroupID
		if n := r.SsdfTask.SsdfPractice.Name; n != "" {
			names[pid] = n
		}
	}

	groupRank := make(map[string]int, len(models.GroupOrder))
	for i, gid := range models.GroupOrder {
		groupRank[gid] = i
	}

	ids := make([]string, 0, len(byPractice))
	for pid := range byPractice {
		ids = append(ids, pid)
	}
	sort.Slice(ids, func(i, j int) bool {
		gi, gj := groupRank[group[ids[i]]], groupRank[group[ids[j]]]
		if gi != gj {
			return gi < gj
		}
		return ids[i] < ids[j]
	})

	totals := make([]PracticeTotal, 0, len(ids))
	for _, pid := range ids {
		totals = append(totals, PracticeTotal{
			PracticeID: pid,
			GroupID:    group[pid],
			Name:       names[pid],
			Aggregate:  AggregateRows(byPractice[pid]),
		})
	}
	return totals
}
